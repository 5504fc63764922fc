package collage

import (
	"image"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-9

func TestPreset_Lookup(t *testing.T) {
	assert := assert.New(t)

	p, err := PresetByName("4k")
	assert.NoError(err)
	assert.Equal(Preset4K, p)

	p, err = PresetByName(" 720p ")
	assert.NoError(err)
	assert.Equal(1280, p.Width)
	assert.Equal(720, p.Height)

	_, err = PresetByName("8K")
	assert.ErrorIs(err, ErrUnknownPreset)

	assert.Equal([]string{"4K", "1080p", "720p"}, PresetNames())
	assert.Equal(Preset1080p, DefaultPreset)
}

func TestFit_ConcreteSizes(t *testing.T) {
	testCases := []struct {
		name   string
		w, h   int
		scale  float64
		offX   float64
		offY   float64
		preset Preset
	}{
		{name: "800x600 to 1080p", w: 800, h: 600, preset: Preset1080p, scale: 2.4, offX: 0, offY: (1080 - 1440) / 2.0},
		{name: "4000x1000 to 1080p", w: 4000, h: 1000, preset: Preset1080p, scale: 1.08, offX: (1920 - 4320) / 2.0, offY: 0},
		{name: "exact 720p", w: 1280, h: 720, preset: Preset720p, scale: 1, offX: 0, offY: 0},
		{name: "square to 4K", w: 100, h: 100, preset: Preset4K, scale: 38.4, offX: 0, offY: (2160 - 3840) / 2.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := Fit(tc.w, tc.h, tc.preset)
			require.NoError(t, err)
			assert.InDelta(t, tc.scale, f.Scale, epsilon)
			assert.InDelta(t, tc.offX, f.OffsetX, 1e-6)
			assert.InDelta(t, tc.offY, f.OffsetY, 1e-6)
			assert.Equal(t, tc.preset.Width, f.TargetWidth)
			assert.Equal(t, tc.preset.Height, f.TargetHeight)
		})
	}
}

func TestFit_CoverGuarantee(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		w, h := 1+rnd.Intn(5000), 1+rnd.Intn(5000)
		for _, p := range Presets() {
			f, err := Fit(w, h, p)
			require.NoError(t, err)

			tw, th := float64(p.Width), float64(p.Height)
			assert.GreaterOrEqual(t, f.Scale+epsilon, tw/float64(w))
			assert.GreaterOrEqual(t, f.Scale+epsilon, th/float64(h))

			sw, sh := f.ScaledSize()
			assert.GreaterOrEqual(t, sw+1e-6, tw)
			assert.GreaterOrEqual(t, sh+1e-6, th)
			assert.LessOrEqual(t, f.OffsetX, 1e-6)
			assert.LessOrEqual(t, f.OffsetY, 1e-6)

			// The integer destination rectangle covers the whole canvas.
			assert.True(t, f.Target().In(f.Rect()), "%dx%d on %s: %v", w, h, p, f.Rect())
		}
	}
}

func TestFit_InvalidInput(t *testing.T) {
	_, err := Fit(0, 10, Preset720p)
	assert.ErrorIs(t, err, ErrInvalidSource)
	_, err = Fit(10, -1, Preset720p)
	assert.ErrorIs(t, err, ErrInvalidSource)
	_, err = Fit(10, 10, Preset{Name: "empty"})
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestFit_SourceRect(t *testing.T) {
	testCases := []struct {
		w, h   int
		preset Preset
		want   image.Rectangle
	}{
		{1140, 640, Preset720p, image.Rect(1, 0, 1139, 640)},
		{2560, 1440, Preset720p, image.Rect(0, 0, 2560, 1440)},
		{100, 2000, Preset4K, image.Rect(0, 972, 100, 1028)},
		{1, 5000, Preset4K, image.Rect(0, 2500, 1, 2501)},
		{1, 1, Preset1080p, image.Rect(0, 0, 1, 1)},
	}
	for _, tc := range testCases {
		f, err := Fit(tc.w, tc.h, tc.preset)
		require.NoError(t, err)
		assert.Equal(t, tc.want, f.SourceRect(), "%dx%d onto %s", tc.w, tc.h, tc.preset.Name)
	}
}
