package utils

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUtils_MinMaxClamp(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(2, Min(2, 5))
	assert.Equal(2, Min(5, 2))
	assert.Equal(5, Max(2, 5))
	assert.Equal(1.5, Max(1.5, -3.0))
	assert.Equal(3, Abs(-3))
	assert.Equal(0, Clamp(-4, 0, 10))
	assert.Equal(10, Clamp(40, 0, 10))
	assert.Equal(7, Clamp(7, 0, 10))
}

func TestUtils_Contains(t *testing.T) {
	assert.True(t, Contains([]string{".png", ".jpg"}, ".jpg"))
	assert.False(t, Contains([]string{".png", ".jpg"}, ".gif"))
}

func TestUtils_DataURL(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0, 1, 2}
	url := EncodeDataURL("image/png", payload)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

	mime, data, err := DecodeDataURL(url)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, payload, data)

	for _, bad := range []string{
		"image/png;base64,AAAA",
		"data:image/png;base64",
		"data:image/png,AAAA",
		"data:image/png;base64,***",
	} {
		_, _, err := DecodeDataURL(bad)
		assert.ErrorIs(t, err, ErrInvalidDataURL, bad)
	}
}

func TestUtils_DecorateText(t *testing.T) {
	assert.Contains(t, DecorateText("done", SuccessMessage), "done")
	assert.Contains(t, DecorateText("failed", ErrorMessage), "failed")
	assert.Equal(t, "x", DecorateText("x", MessageType(42)))
}

func TestUtils_FormatTime(t *testing.T) {
	assert.Equal(t, "1.50s", FormatTime(1500*time.Millisecond))
	assert.Equal(t, "2m5s", FormatTime(2*time.Minute+5400*time.Millisecond))
	assert.Equal(t, "1h1m1s", FormatTime(time.Hour+time.Minute+time.Second))
}

func TestUtils_SpinnerStartStop(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinnerWriter(&buf, "exporting", time.Millisecond, false)
	s.StopMsg = "finished"
	s.Start()
	s.Start()
	time.Sleep(5 * time.Millisecond)
	s.Stop()
	s.Stop()

	assert.Contains(t, buf.String(), "exporting")
	assert.True(t, strings.HasSuffix(buf.String(), "finished"))
}
