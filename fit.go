package collage

import (
	"errors"
	"image"
	"math"
)

// ErrInvalidSource is returned when the captured image has no area.
var ErrInvalidSource = errors.New("source dimensions must be positive")

// Fitting describes how a captured image is placed on an export canvas.
type Fitting struct {
	Scale        float64
	OffsetX      float64
	OffsetY      float64
	SourceWidth  int
	SourceHeight int
	TargetWidth  int
	TargetHeight int
}

// Fit computes the cover fit of a source of the given size onto the preset.
// The source is scaled by the larger of the two axis ratios, so the scaled
// content covers the whole target and any overflow is cropped symmetrically.
func Fit(sourceWidth, sourceHeight int, p Preset) (Fitting, error) {
	if sourceWidth <= 0 || sourceHeight <= 0 {
		return Fitting{}, ErrInvalidSource
	}
	if !p.valid() {
		return Fitting{}, ErrUnknownPreset
	}
	sw, sh := float64(sourceWidth), float64(sourceHeight)
	tw, th := float64(p.Width), float64(p.Height)

	scale := math.Max(tw/sw, th/sh)

	return Fitting{
		Scale:        scale,
		OffsetX:      (tw - sw*scale) / 2,
		OffsetY:      (th - sh*scale) / 2,
		SourceWidth:  sourceWidth,
		SourceHeight: sourceHeight,
		TargetWidth:  p.Width,
		TargetHeight: p.Height,
	}, nil
}

// ScaledSize returns the size of the source after scaling.
func (f Fitting) ScaledSize() (float64, float64) {
	return float64(f.SourceWidth) * f.Scale, float64(f.SourceHeight) * f.Scale
}

// Rect returns the pixel aligned rectangle the scaled source is drawn into.
// It always contains the whole target canvas.
func (f Fitting) Rect() image.Rectangle {
	w, h := f.ScaledSize()
	return image.Rect(
		int(math.Floor(f.OffsetX)),
		int(math.Floor(f.OffsetY)),
		int(math.Ceil(f.OffsetX+w)),
		int(math.Ceil(f.OffsetY+h)),
	)
}

// Target returns the bounds of the export canvas.
func (f Fitting) Target() image.Rectangle {
	return image.Rect(0, 0, f.TargetWidth, f.TargetHeight)
}

// SourceRect returns the region of the source that ends up on the target
// canvas, rounded to whole source pixels and never empty.
func (f Fitting) SourceRect() image.Rectangle {
	span := func(offset float64, target, source int) (int, int) {
		lo := int(math.Round(-offset / f.Scale))
		hi := int(math.Round((float64(target) - offset) / f.Scale))
		lo = min(max(lo, 0), source-1)
		hi = min(max(hi, lo+1), source)
		return lo, hi
	}
	x0, x1 := span(f.OffsetX, f.TargetWidth, f.SourceWidth)
	y0, y1 := span(f.OffsetY, f.TargetHeight, f.SourceHeight)
	return image.Rect(x0, y0, x1, y1)
}
