package collage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

// solidImage returns an image of the given size filled with c.
func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

// pngBytes encodes a solid image of the given size as PNG.
func pngBytes(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solidImage(w, h, c)))
	return buf.Bytes()
}

// rasterizerFunc adapts a function to the Rasterizer interface.
type rasterizerFunc func(ctx context.Context, snap Snapshot) (*image.NRGBA, error)

func (f rasterizerFunc) Rasterize(ctx context.Context, snap Snapshot) (*image.NRGBA, error) {
	return f(ctx, snap)
}

// staticRasterizer always captures a copy of the same image.
func staticRasterizer(img *image.NRGBA) Rasterizer {
	return rasterizerFunc(func(context.Context, Snapshot) (*image.NRGBA, error) {
		dst := image.NewNRGBA(img.Bounds())
		copy(dst.Pix, img.Pix)
		return dst, nil
	})
}
