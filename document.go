package collage

import (
	"fmt"
	"image"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind discriminates the two element types of a composition.
type Kind int

const (
	KindText Kind = iota
	KindImage
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Point is a position in viewport pixels.
type Point struct {
	X, Y float64
}

// Add returns the vector p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns the vector p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// MaxImageSize is the largest rendered side of an image, in pixels.
const MaxImageSize = 16384

// Dimension is a display size which is either an explicit pixel value
// or auto, meaning the intrinsic size of the image.
type Dimension struct {
	Value float64
	Auto  bool
}

// Auto returns the intrinsic size marker.
func Auto() Dimension { return Dimension{Auto: true} }

// Px returns an explicit pixel dimension.
func Px(v float64) Dimension { return Dimension{Value: v} }

// String implements fmt.Stringer.
func (d Dimension) String() string {
	if d.Auto {
		return "auto"
	}
	return strconv.FormatFloat(d.Value, 'f', -1, 64)
}

// UnmarshalTOML decodes a dimension given either as a number or as the string "auto".
func (d *Dimension) UnmarshalTOML(v any) error {
	switch v := v.(type) {
	case int64:
		*d = Px(float64(v))
	case float64:
		*d = Px(v)
	case string:
		s := strings.TrimSpace(strings.ToLower(v))
		if s == "" || s == "auto" {
			*d = Auto()
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSuffix(s, "px"), 64)
		if err != nil {
			return fmt.Errorf("invalid dimension %q", v)
		}
		*d = Px(f)
	default:
		return fmt.Errorf("invalid dimension type %T", v)
	}
	if !d.Auto && (d.Value <= 0 || d.Value > MaxImageSize) {
		return fmt.Errorf("dimension must be within (0, %d], got %v", MaxImageSize, d.Value)
	}
	return nil
}

// Text is a plain string label placed on the canvas.
type Text struct {
	ID    string
	Value string
	Pos   Point
	Order int
}

// Image is a raster image placed on the canvas.
type Image struct {
	ID     string
	Src    *image.NRGBA
	MIME   string
	Width  Dimension
	Height Dimension
	Pos    Point
	Order  int
}

// IntrinsicSize returns the pixel size of the decoded source.
func (img Image) IntrinsicSize() (float64, float64) {
	if img.Src == nil {
		return 0, 0
	}
	b := img.Src.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

// RenderedSize resolves the display size of the image. An auto side follows
// the other side's explicit value keeping the intrinsic aspect ratio, the same
// way an <img> element is laid out.
func (img Image) RenderedSize() (float64, float64) {
	iw, ih := img.IntrinsicSize()
	if iw == 0 || ih == 0 {
		return 0, 0
	}
	switch {
	case img.Width.Auto && img.Height.Auto:
		return iw, ih
	case img.Width.Auto:
		return img.Height.Value * iw / ih, img.Height.Value
	case img.Height.Auto:
		return img.Width.Value, img.Width.Value * ih / iw
	}
	return img.Width.Value, img.Height.Value
}

// PixelSize returns the rendered size rounded to whole pixels, clamped
// to [1, MaxImageSize].
func (img Image) PixelSize() (int, int) {
	w, h := img.RenderedSize()
	px := func(v float64) int {
		return int(math.Max(1, math.Min(MaxImageSize, math.Round(v))))
	}
	return px(w), px(h)
}

// Selection identifies the selected element by its kind and index.
type Selection struct {
	Kind  Kind
	Index int
}

// Snapshot is a read-only copy of the composition used for rendering.
// Image pixel buffers are shared and must not be modified.
type Snapshot struct {
	Texts     []Text
	Images    []Image
	Selection *Selection
	Input     string
}

// PaintOrder returns the indices of the elements of one kind sorted by their
// order key. Elements with equal keys keep their insertion order.
func (s Snapshot) PaintOrder(kind Kind) []int {
	var keys []int
	switch kind {
	case KindText:
		keys = make([]int, len(s.Texts))
		for i, t := range s.Texts {
			keys[i] = t.Order
		}
	case KindImage:
		keys = make([]int, len(s.Images))
		for i, img := range s.Images {
			keys[i] = img.Order
		}
	}
	idx := make([]int, len(keys))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return keys[idx[a]] < keys[idx[b]]
	})
	return idx
}

// Empty reports whether the composition holds no elements.
func (s Snapshot) Empty() bool {
	return len(s.Texts) == 0 && len(s.Images) == 0
}
