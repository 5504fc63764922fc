package collage

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/esimov/collage/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_AddText(t *testing.T) {
	assert := assert.New(t)
	ctrl := NewController()

	ctrl.SetInput("   \t ")
	assert.False(ctrl.AddText())
	assert.Equal(0, ctrl.Count(KindText))

	ctrl.SetInput("  Hello ")
	assert.True(ctrl.AddText())
	assert.Empty(ctrl.Input())

	snap := ctrl.Snapshot()
	require.Len(t, snap.Texts, 1)
	assert.Equal("Hello", snap.Texts[0].Value)
	assert.Equal(Point{}, snap.Texts[0].Pos)
	assert.Equal(0, snap.Texts[0].Order)
	assert.NotEmpty(snap.Texts[0].ID)
}

func TestController_UniqueIDs(t *testing.T) {
	ctrl := NewController()
	for _, v := range []string{"a", "b", "c"} {
		ctrl.SetInput(v)
		require.True(t, ctrl.AddText())
	}
	require.NoError(t, ctrl.AddImage(bytes.NewReader(pngBytes(t, 2, 2, color.NRGBA{A: 255}))))

	seen := map[string]bool{}
	snap := ctrl.Snapshot()
	for _, txt := range snap.Texts {
		seen[txt.ID] = true
	}
	for _, img := range snap.Images {
		seen[img.ID] = true
	}
	assert.Len(t, seen, 4)
}

func TestController_AddImage(t *testing.T) {
	assert := assert.New(t)
	ctrl := NewController()

	// No file chosen.
	assert.NoError(ctrl.AddImage(nil))
	assert.NoError(ctrl.AddImageFile(""))
	assert.Equal(0, ctrl.Count(KindImage))

	assert.NoError(ctrl.AddImage(bytes.NewReader(pngBytes(t, 200, 100, color.NRGBA{R: 255, A: 255}))))
	snap := ctrl.Snapshot()
	require.Len(t, snap.Images, 1)

	img := snap.Images[0]
	assert.Equal("image/png", img.MIME)
	assert.True(img.Width.Auto)
	assert.True(img.Height.Auto)
	w, h := img.RenderedSize()
	assert.Equal(200.0, w)
	assert.Equal(100.0, h)

	err := ctrl.AddImage(strings.NewReader("definitely not an image"))
	assert.ErrorIs(err, ErrNotAnImage)
	assert.Equal(1, ctrl.Count(KindImage))
}

func TestController_AddImageFromFileAndDataURL(t *testing.T) {
	assert := assert.New(t)
	ctrl := NewController()
	data := pngBytes(t, 4, 3, color.NRGBA{B: 255, A: 255})

	path := filepath.Join(t.TempDir(), "blue.png")
	require.NoError(t, os.WriteFile(path, data, 0644))
	assert.NoError(ctrl.AddImageSource(path))

	assert.NoError(ctrl.AddImageDataURL(utils.EncodeDataURL("image/png", data)))
	assert.ErrorIs(ctrl.AddImageDataURL(utils.EncodeDataURL("text/plain", []byte("hi"))), ErrNotAnImage)
	assert.ErrorIs(ctrl.AddImageDataURL("not a data url"), utils.ErrInvalidDataURL)

	assert.Error(ctrl.AddImageFile(filepath.Join(t.TempDir(), "missing.png")))
	assert.Equal(2, ctrl.Count(KindImage))
}

func TestController_PositionAndResize(t *testing.T) {
	assert := assert.New(t)
	ctrl := NewController()
	require.NoError(t, ctrl.AddImage(bytes.NewReader(pngBytes(t, 200, 100, color.NRGBA{A: 255}))))

	// Positions are not constrained to the viewport.
	assert.NoError(ctrl.SetPosition(KindImage, 0, Point{-50, 2000}))
	pos, err := ctrl.Position(KindImage, 0)
	assert.NoError(err)
	assert.Equal(Point{-50, 2000}, pos)

	assert.ErrorIs(ctrl.SetPosition(KindText, 0, Point{}), ErrOutOfRange)
	assert.ErrorIs(ctrl.SetPosition(KindImage, 3, Point{}), ErrOutOfRange)

	assert.NoError(ctrl.Resize(0, 150, 75))
	w, h, err := ctrl.RenderedSize(0)
	assert.NoError(err)
	assert.Equal(150.0, w)
	assert.Equal(75.0, h)

	assert.ErrorIs(ctrl.Resize(0, 0, 10), ErrInvalidSize)
	assert.ErrorIs(ctrl.Resize(0, 10, -1), ErrInvalidSize)
	assert.ErrorIs(ctrl.Resize(1, 10, 10), ErrOutOfRange)

	// A single explicit side keeps the intrinsic aspect ratio.
	assert.NoError(ctrl.ResizeDimensions(0, Px(100), Auto()))
	w, h, err = ctrl.RenderedSize(0)
	assert.NoError(err)
	assert.Equal(100.0, w)
	assert.Equal(50.0, h)

	// Oversized images are rejected and the previous size is kept.
	assert.ErrorIs(ctrl.Resize(0, 1e6, 1e6), ErrImageTooLarge)
	assert.ErrorIs(ctrl.ResizeDimensions(0, Auto(), Px(MaxImageSize)), ErrImageTooLarge)
	w, h, err = ctrl.RenderedSize(0)
	assert.NoError(err)
	assert.Equal(100.0, w)
	assert.Equal(50.0, h)
}

func TestController_Order(t *testing.T) {
	assert := assert.New(t)
	ctrl := NewController()
	ctrl.SetInput("first")
	require.True(t, ctrl.AddText())

	assert.ErrorIs(ctrl.Raise(), ErrNoSelection)
	assert.ErrorIs(ctrl.Lower(), ErrNoSelection)
	assert.Equal(0, ctrl.Snapshot().Texts[0].Order)

	assert.ErrorIs(ctrl.Select(KindText, 1), ErrOutOfRange)
	require.NoError(t, ctrl.Select(KindText, 0))
	sel, ok := ctrl.Selection()
	assert.True(ok)
	assert.Equal(Selection{Kind: KindText, Index: 0}, sel)

	assert.NoError(ctrl.Raise())
	assert.NoError(ctrl.Raise())
	assert.NoError(ctrl.Lower())
	assert.Equal(1, ctrl.Snapshot().Texts[0].Order)

	// The order key never goes below zero.
	assert.NoError(ctrl.Lower())
	assert.NoError(ctrl.Lower())
	assert.Equal(0, ctrl.Snapshot().Texts[0].Order)

	ctrl.ClearSelection()
	_, ok = ctrl.Selection()
	assert.False(ok)
	assert.ErrorIs(ctrl.Raise(), ErrNoSelection)
}

func TestController_SnapshotIsolation(t *testing.T) {
	assert := assert.New(t)
	ctrl := NewController()
	ctrl.SetInput("one")
	require.True(t, ctrl.AddText())
	require.NoError(t, ctrl.Select(KindText, 0))

	snap := ctrl.Snapshot()
	require.NoError(t, ctrl.SetPosition(KindText, 0, Point{10, 10}))
	ctrl.SetInput("two")
	require.True(t, ctrl.AddText())
	ctrl.ClearSelection()

	assert.Len(snap.Texts, 1)
	assert.Equal(Point{}, snap.Texts[0].Pos)
	require.NotNil(t, snap.Selection)
	assert.Equal(0, snap.Selection.Index)

	snap.Texts[0].Value = "changed"
	assert.Equal("one", ctrl.Snapshot().Texts[0].Value)
}
