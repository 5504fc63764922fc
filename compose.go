package collage

import (
	"image"
	"image/draw"

	"github.com/esimov/collage/imop"
	xdraw "golang.org/x/image/draw"
)

// newCanvas returns an export canvas of the target size filled with opaque white.
func newCanvas(f Fitting) *image.NRGBA {
	canvas := image.NewNRGBA(f.Target())
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	return canvas
}

// composeScaled scales the visible part of the capture onto a white canvas
// in a single pass.
func composeScaled(capture *image.NRGBA, f Fitting) *image.NRGBA {
	layer := image.NewNRGBA(f.Target())
	sr := f.SourceRect().Add(capture.Bounds().Min)
	xdraw.CatmullRom.Scale(layer, f.Target(), capture, sr, xdraw.Src, nil)
	return flatten(layer, f.Target(), image.Point{}, f)
}

// composeResampled draws a layer already resampled to the canvas size 1:1
// onto a white canvas.
func composeResampled(layer *image.NRGBA, f Fitting) *image.NRGBA {
	return flatten(layer, f.Target(), layer.Bounds().Min, f)
}

// flatten composites the layer over the white canvas, so that any
// transparency of the layer is resolved against the background.
func flatten(layer *image.NRGBA, r image.Rectangle, sp image.Point, f Fitting) *image.NRGBA {
	canvas := newCanvas(f)
	op := imop.InitOp()
	op.Draw(canvas, r, layer, sp)
	return canvas
}
