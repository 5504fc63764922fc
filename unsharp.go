package collage

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// UnsharpMask holds the sharpening parameters applied after a downscale to
// counteract the blur introduced by resampling.
type UnsharpMask struct {
	// Amount is the strength of the effect in percent (0 disables it).
	Amount float64 `toml:"amount"`
	// Radius is the blur radius in pixels used to build the mask.
	Radius float64 `toml:"radius"`
	// Threshold is the minimum per channel difference which gets sharpened.
	Threshold uint8 `toml:"threshold"`
}

// DefaultUnsharpMask is a mild sharpening suited to photographic content.
var DefaultUnsharpMask = UnsharpMask{Amount: 80, Radius: 0.6, Threshold: 2}

// Validate checks the parameter ranges.
func (u UnsharpMask) Validate() error {
	if u.Amount < 0 || u.Amount > 500 {
		return fmt.Errorf("unsharp amount must be within [0, 500], got %v", u.Amount)
	}
	if u.Amount > 0 && (u.Radius < 0.5 || u.Radius > 2) {
		return fmt.Errorf("unsharp radius must be within [0.5, 2], got %v", u.Radius)
	}
	return nil
}

// Enabled reports whether applying the mask changes the image.
func (u UnsharpMask) Enabled() bool {
	return u.Amount > 0
}

// Apply returns a sharpened copy of the image. When the mask is disabled
// the source is returned unchanged.
func (u UnsharpMask) Apply(src *image.NRGBA) *image.NRGBA {
	if !u.Enabled() {
		return src
	}
	dst := imaging.Clone(src)
	blurred := stackBlur(imaging.Clone(src), int(math.Ceil(u.Radius)))

	amount := u.Amount / 100
	threshold := int(u.Threshold)
	pix, mask := dst.Pix, blurred.Pix
	for i := 0; i < len(pix); i += 4 {
		for c := 0; c < 3; c++ {
			orig := int(pix[i+c])
			diff := orig - int(mask[i+c])
			if diff == 0 || (diff < threshold && -diff < threshold) {
				continue
			}
			v := float64(orig) + amount*float64(diff)
			pix[i+c] = uint8(math.Max(0, math.Min(255, math.Round(v))))
		}
	}
	return dst
}
