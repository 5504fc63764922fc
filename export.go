package collage

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"github.com/esimov/collage/utils"
)

// ErrExportInProgress is returned when an export is requested while another
// one is still running on the same exporter.
var ErrExportInProgress = errors.New("an export is already in progress")

// Stage identifies a step of the export pipeline.
type Stage int

const (
	StageCapture Stage = iota
	StageFit
	StageResample
	StageCompose
	StageEncode
	StageDeliver
)

// String implements fmt.Stringer.
func (s Stage) String() string {
	switch s {
	case StageCapture:
		return "capture"
	case StageFit:
		return "fit"
	case StageResample:
		return "resample"
	case StageCompose:
		return "compose"
	case StageEncode:
		return "encode"
	case StageDeliver:
		return "deliver"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// ExportError reports the pipeline stage an export failed in.
type ExportError struct {
	Stage Stage
	Err   error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export failed at %s: %v", e.Stage, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// Options configures an export.
type Options struct {
	Preset Preset
	// HighQuality enables the two pass downscale, sharpen and upscale resampling.
	// Otherwise the capture is scaled onto the canvas in a single pass.
	HighQuality bool
	Filter      FilterOptions
}

// DefaultOptions returns the options of a high quality 1080p export.
func DefaultOptions() Options {
	return Options{
		Preset:      DefaultPreset,
		HighQuality: true,
		Filter:      DefaultFilterOptions,
	}
}

// Result holds the exported canvas and how the capture was placed on it.
type Result struct {
	Image   *image.NRGBA
	Fitting Fitting
	Preset  Preset
	Elapsed time.Duration
}

// Exporter runs the export pipeline: it captures the composition, fits it to
// the preset resolution, optionally resamples it, composes it onto a white
// canvas and encodes the result. Only one export runs at a time.
type Exporter struct {
	Rasterizer Rasterizer
	Resampler  Resampler
	Options    Options

	busy atomic.Bool
}

// NewExporter creates an exporter using the default resampler.
func NewExporter(r Rasterizer, opts Options) *Exporter {
	return &Exporter{
		Rasterizer: r,
		Resampler:  ImagingResampler{},
		Options:    opts,
	}
}

// Busy reports whether an export is in flight.
func (e *Exporter) Busy() bool {
	return e.busy.Load()
}

// Export runs the pipeline with the exporter's options and returns the composed canvas.
func (e *Exporter) Export(ctx context.Context, snap Snapshot) (*Result, error) {
	return e.ExportWith(ctx, snap, e.Options)
}

// ExportWith runs the pipeline with the given options.
func (e *Exporter) ExportWith(ctx context.Context, snap Snapshot, opts Options) (*Result, error) {
	var res *Result
	err := e.guard(func() (err error) {
		res, err = e.run(ctx, snap, opts)
		return err
	})
	return res, err
}

// ExportTo runs the pipeline and encodes the result to w.
func (e *Exporter) ExportTo(ctx context.Context, snap Snapshot, w io.Writer, format Format) (*Result, error) {
	var res *Result
	err := e.guard(func() (err error) {
		if res, err = e.run(ctx, snap, e.Options); err != nil {
			return err
		}
		if err := Encode(w, res.Image, format); err != nil {
			return &ExportError{Stage: StageEncode, Err: err}
		}
		return nil
	})
	return res, err
}

// ExportFile runs the pipeline and writes the result into the file at path,
// overwriting it. The encoding is picked from the file extension. On failure
// the partially written file is removed.
func (e *Exporter) ExportFile(ctx context.Context, snap Snapshot, path string) (*Result, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, &ExportError{Stage: StageDeliver, Err: err}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, &ExportError{Stage: StageDeliver, Err: fmt.Errorf("unable to create the destination file: %w", err)}
	}

	res, err := e.ExportTo(ctx, snap, f, format)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = &ExportError{Stage: StageDeliver, Err: cerr}
	}
	if err != nil {
		os.Remove(path)
		return nil, err
	}
	return res, nil
}

func (e *Exporter) guard(fn func() error) error {
	if !e.busy.CompareAndSwap(false, true) {
		return ErrExportInProgress
	}
	defer e.busy.Store(false)
	return fn()
}

func (e *Exporter) run(ctx context.Context, snap Snapshot, opts Options) (*Result, error) {
	start := time.Now()
	if e.Rasterizer == nil {
		return nil, &ExportError{Stage: StageCapture, Err: errors.New("no rasterizer configured")}
	}

	// Captured
	capture, err := e.Rasterizer.Rasterize(ctx, snap)
	if err != nil {
		return nil, &ExportError{Stage: StageCapture, Err: err}
	}

	// Fitted
	if err := ctx.Err(); err != nil {
		return nil, &ExportError{Stage: StageFit, Err: err}
	}
	b := capture.Bounds()
	fitting, err := Fit(b.Dx(), b.Dy(), opts.Preset)
	if err != nil {
		return nil, &ExportError{Stage: StageFit, Err: err}
	}

	// Resampled and Composed
	var canvas *image.NRGBA
	if opts.HighQuality {
		layer, err := e.resample(ctx, capture, fitting, opts.Filter)
		if err != nil {
			return nil, &ExportError{Stage: StageResample, Err: err}
		}
		if err := ctx.Err(); err != nil {
			return nil, &ExportError{Stage: StageCompose, Err: err}
		}
		canvas = composeResampled(layer, fitting)
	} else {
		if err := ctx.Err(); err != nil {
			return nil, &ExportError{Stage: StageCompose, Err: err}
		}
		canvas = composeScaled(capture, fitting)
	}

	return &Result{
		Image:   canvas,
		Fitting: fitting,
		Preset:  opts.Preset,
		Elapsed: time.Since(start),
	}, nil
}

// resample scales the visible part of the capture to the target canvas in
// two passes. The first pass never enlarges: it downscales with the quality
// filter and sharpens the result with the unsharp mask. The second pass
// brings the sharpened image up to the full canvas size.
func (e *Exporter) resample(ctx context.Context, capture *image.NRGBA, f Fitting, opts FilterOptions) (*image.NRGBA, error) {
	rs := e.Resampler
	if rs == nil {
		rs = ImagingResampler{}
	}
	src := capture
	if sr := f.SourceRect().Add(capture.Bounds().Min); sr != capture.Bounds() {
		src = imaging.Crop(capture, sr)
	}
	b := src.Bounds()
	tw, th := f.TargetWidth, f.TargetHeight

	midW, midH := utils.Min(tw, b.Dx()), utils.Min(th, b.Dy())
	mid, err := rs.Resample(ctx, src, midW, midH, opts)
	if err != nil {
		return nil, fmt.Errorf("downscale to %dx%d: %w", midW, midH, err)
	}
	if midW == tw && midH == th {
		return mid, nil
	}

	up, err := rs.Resample(ctx, mid, tw, th, FilterOptions{Quality: opts.Quality})
	if err != nil {
		return nil, fmt.Errorf("upscale to %dx%d: %w", tw, th, err)
	}
	return up, nil
}
