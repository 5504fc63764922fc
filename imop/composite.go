// Package imop implements the Porter-Duff composition operations
// used for mixing a graphic element with its backdrop.
// Porter and Duff presented in their paper 12 different composition operation,
// but the image/draw core package implements only the source-over-destination and source.
// This package is aimed to overcome the missing composite operations.
//
// The exporter uses it to flatten the fitted layer onto the opaque export canvas.
package imop

import (
	"fmt"
	"image"

	"github.com/esimov/collage/utils"
)

const (
	Clear   = "clear"
	Copy    = "copy"
	Dst     = "dst"
	SrcOver = "src_over"
	DstOver = "dst_over"
	SrcIn   = "src_in"
	DstIn   = "dst_in"
	SrcOut  = "src_out"
	DstOut  = "dst_out"
	SrcAtop = "src_atop"
	DstAtop = "dst_atop"
	Xor     = "xor"
)

// factors returns the Porter-Duff source and backdrop coefficients (Fa, Fb)
// for the given source and backdrop alpha.
type factors func(as, ab float64) (float64, float64)

var operators = map[string]factors{
	Clear:   func(as, ab float64) (float64, float64) { return 0, 0 },
	Copy:    func(as, ab float64) (float64, float64) { return 1, 0 },
	Dst:     func(as, ab float64) (float64, float64) { return 0, 1 },
	SrcOver: func(as, ab float64) (float64, float64) { return 1, 1 - as },
	DstOver: func(as, ab float64) (float64, float64) { return 1 - ab, 1 },
	SrcIn:   func(as, ab float64) (float64, float64) { return ab, 0 },
	DstIn:   func(as, ab float64) (float64, float64) { return 0, as },
	SrcOut:  func(as, ab float64) (float64, float64) { return 1 - ab, 0 },
	DstOut:  func(as, ab float64) (float64, float64) { return 0, 1 - as },
	SrcAtop: func(as, ab float64) (float64, float64) { return ab, 1 - as },
	DstAtop: func(as, ab float64) (float64, float64) { return 1 - ab, as },
	Xor:     func(as, ab float64) (float64, float64) { return 1 - ab, 1 - as },
}

// Composite holds the currently active composition operation.
type Composite struct {
	current string
	ops     []string
}

// InitOp initializes a new Composite with source-over as the active operation.
func InitOp() *Composite {
	return &Composite{
		current: SrcOver,
		ops: []string{
			Clear,
			Copy,
			Dst,
			SrcOver,
			DstOver,
			SrcIn,
			DstIn,
			SrcOut,
			DstOut,
			SrcAtop,
			DstAtop,
			Xor,
		},
	}
}

// Set activates one of the supported composition operations.
func (op *Composite) Set(cop string) error {
	if !utils.Contains(op.ops, cop) {
		return fmt.Errorf("unsupported composite operation: %q", cop)
	}
	op.current = cop
	return nil
}

// Get returns the currently active composition operation.
func (op *Composite) Get() string {
	return op.current
}

// Draw composites the src pixels starting at sp onto the dst pixels inside r,
// modifying dst in place. Pixels of dst outside r are left untouched.
func (op *Composite) Draw(dst *image.NRGBA, r image.Rectangle, src *image.NRGBA, sp image.Point) {
	// delta maps a dst point to the matching src point.
	delta := sp.Sub(r.Min)
	r = r.Intersect(dst.Bounds()).Intersect(src.Bounds().Sub(delta))
	sp = r.Min.Add(delta)
	if r.Empty() {
		return
	}
	fn := operators[op.current]

	for y := 0; y < r.Dy(); y++ {
		di := dst.PixOffset(r.Min.X, r.Min.Y+y)
		si := src.PixOffset(sp.X, sp.Y+y)
		for x := 0; x < r.Dx(); x++ {
			s := src.Pix[si : si+4 : si+4]
			b := dst.Pix[di : di+4 : di+4]

			as := float64(s[3]) / 255
			ab := float64(b[3]) / 255
			fa, fb := fn(as, ab)

			// applying the alpha composition formula on premultiplied values
			ao := as*fa + ab*fb
			if ao <= 0 {
				b[0], b[1], b[2], b[3] = 0, 0, 0, 0
			} else {
				for c := 0; c < 3; c++ {
					co := as*fa*float64(s[c]) + ab*fb*float64(b[c])
					b[c] = uint8(utils.Clamp(co/ao+0.5, 0, 255))
				}
				b[3] = uint8(utils.Clamp(ao*255+0.5, 0, 255))
			}
			di += 4
			si += 4
		}
	}
}
