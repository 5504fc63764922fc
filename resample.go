package collage

import (
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Resampling quality levels, from the fastest to the sharpest filter.
const (
	QualityBox = iota
	QualityHamming
	QualityCatmullRom
	QualityLanczos
)

// FilterOptions configures a resampling pass.
type FilterOptions struct {
	Quality int         `toml:"quality"`
	Unsharp UnsharpMask `toml:"unsharp"`
}

// DefaultFilterOptions is the high quality configuration used by the exporter.
var DefaultFilterOptions = FilterOptions{
	Quality: QualityLanczos,
	Unsharp: DefaultUnsharpMask,
}

// Validate checks the option ranges.
func (o FilterOptions) Validate() error {
	if o.Quality < QualityBox || o.Quality > QualityLanczos {
		return fmt.Errorf("quality must be within [%d, %d], got %d", QualityBox, QualityLanczos, o.Quality)
	}
	return o.Unsharp.Validate()
}

// Filter returns the resampling filter matching the quality level.
func (o FilterOptions) Filter() imaging.ResampleFilter {
	switch o.Quality {
	case QualityBox:
		return imaging.Box
	case QualityHamming:
		return imaging.Hamming
	case QualityCatmullRom:
		return imaging.CatmullRom
	}
	return imaging.Lanczos
}

// Resampler scales an image to a new size.
type Resampler interface {
	Resample(ctx context.Context, src *image.NRGBA, width, height int, opts FilterOptions) (*image.NRGBA, error)
}

// ImagingResampler is the Resampler backed by the imaging package.
type ImagingResampler struct{}

var _ Resampler = ImagingResampler{}

// Resample scales src to width x height using the filter selected by the
// quality level and applies the unsharp mask, if enabled, to the result.
func (ImagingResampler) Resample(ctx context.Context, src *image.NRGBA, width, height int, opts FilterOptions) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if src == nil || src.Bounds().Empty() {
		return nil, ErrInvalidSource
	}
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidSize
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	dst := imaging.Resize(src, width, height, opts.Filter())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return opts.Unsharp.Apply(dst), nil
}
