package collage

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// Default viewport geometry, matching the editing area of the original layout.
const (
	DefaultViewportWidth  = 1140
	DefaultViewportHeight = 640
	DefaultFontSize       = 16.0
)

const (
	textPadding  = 8
	textRadius   = 4
	handleSize   = 10
	canvasColor  = "#f8f9fa"
	borderColor  = "#212529"
	outlineColor = "#6c757d"
)

// Rasterizer captures the visible composition into a pixel buffer.
type Rasterizer interface {
	Rasterize(ctx context.Context, snap Snapshot) (*image.NRGBA, error)
}

// Rect is an axis aligned rectangle in viewport pixels.
type Rect struct {
	Min, Max Point
}

// Contains reports whether p lies inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X < r.Max.X && p.Y >= r.Min.Y && p.Y < r.Max.Y
}

// Dx returns the rectangle's width.
func (r Rect) Dx() float64 { return r.Max.X - r.Min.X }

// Dy returns the rectangle's height.
func (r Rect) Dy() float64 { return r.Max.Y - r.Min.Y }

// Placement is the laid out rectangle of an element.
type Placement struct {
	Kind  Kind
	Index int
	Rect  Rect
}

// Handle returns the resize handle of an image placement: a small square
// sitting in its bottom right corner.
func (p Placement) Handle() Rect {
	return Rect{
		Min: Point{p.Rect.Max.X - handleSize, p.Rect.Max.Y - handleSize},
		Max: p.Rect.Max,
	}
}

// Hit is the result of a hit test.
type Hit struct {
	Placement
	// OnHandle is set when the point lies on an image's resize handle.
	OnHandle bool
}

// Renderer rasterizes compositions with the gg 2D rendering library.
// It is safe for concurrent use.
type Renderer struct {
	Width    int
	Height   int
	FontSize float64

	mu   sync.Mutex
	face font.Face
}

var _ Rasterizer = (*Renderer)(nil)

// NewRenderer creates a renderer for a viewport of the given size.
func NewRenderer(width, height int, fontSize float64) *Renderer {
	return &Renderer{Width: width, Height: height, FontSize: fontSize}
}

// fontFace lazily loads the text face. Caller must hold the locker.
func (r *Renderer) fontFace() (font.Face, error) {
	if r.face != nil {
		return r.face, nil
	}
	ttf, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	size := r.FontSize
	if size <= 0 {
		size = DefaultFontSize
	}
	r.face = truetype.NewFace(ttf, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	return r.face, nil
}

// Layout returns the rectangles of all elements in paint order:
// texts first, then images, each sorted by their order key.
func (r *Renderer) Layout(snap Snapshot) ([]Placement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.layout(snap)
}

func (r *Renderer) layout(snap Snapshot) ([]Placement, error) {
	face, err := r.fontFace()
	if err != nil {
		return nil, err
	}
	metrics := face.Metrics()
	lineHeight := float64(metrics.Ascent.Ceil() + metrics.Descent.Ceil())

	placements := make([]Placement, 0, len(snap.Texts)+len(snap.Images))
	for _, i := range snap.PaintOrder(KindText) {
		t := snap.Texts[i]
		w := float64(font.MeasureString(face, t.Value).Ceil()) + 2*textPadding
		h := lineHeight + 2*textPadding
		placements = append(placements, Placement{
			Kind:  KindText,
			Index: i,
			Rect:  Rect{Min: t.Pos, Max: Point{t.Pos.X + w, t.Pos.Y + h}},
		})
	}
	for _, i := range snap.PaintOrder(KindImage) {
		img := snap.Images[i]
		w, h := img.PixelSize()
		placements = append(placements, Placement{
			Kind:  KindImage,
			Index: i,
			Rect:  Rect{Min: img.Pos, Max: Point{img.Pos.X + float64(w), img.Pos.Y + float64(h)}},
		})
	}
	return placements, nil
}

// drawImage draws the image at its rendered size. Downscaling is done
// upfront with a high quality filter, while any remaining enlargement is
// applied by the context transform, so only the pixels which fall inside
// the viewport get computed.
func drawImage(dc *gg.Context, img Image, x, y int) {
	w, h := img.PixelSize()
	b := img.Src.Bounds()
	pw, ph := min(w, b.Dx()), min(h, b.Dy())

	src := image.Image(img.Src)
	if pw != b.Dx() || ph != b.Dy() {
		src = imaging.Resize(img.Src, pw, ph, imaging.Lanczos)
	}
	if pw == w && ph == h {
		dc.DrawImage(src, x, y)
		return
	}
	dc.Push()
	dc.Translate(float64(x), float64(y))
	dc.Scale(float64(w)/float64(pw), float64(h)/float64(ph))
	dc.DrawImage(src, 0, 0)
	dc.Pop()
}

// HitTest finds the top-most element under the point.
func (r *Renderer) HitTest(snap Snapshot, p Point) (Hit, bool, error) {
	placements, err := r.Layout(snap)
	if err != nil {
		return Hit{}, false, err
	}
	for i := len(placements) - 1; i >= 0; i-- {
		pl := placements[i]
		if !pl.Rect.Contains(p) {
			continue
		}
		return Hit{
			Placement: pl,
			OnHandle:  pl.Kind == KindImage && pl.Handle().Contains(p),
		}, true, nil
	}
	return Hit{}, false, nil
}

// Rasterize draws the composition onto a viewport sized pixel buffer.
func (r *Renderer) Rasterize(ctx context.Context, snap Snapshot) (*image.NRGBA, error) {
	if r.Width <= 0 || r.Height <= 0 {
		return nil, fmt.Errorf("invalid viewport size %dx%d", r.Width, r.Height)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	placements, err := r.layout(snap)
	if err != nil {
		return nil, err
	}
	face, err := r.fontFace()
	if err != nil {
		return nil, err
	}
	ascent := float64(face.Metrics().Ascent.Ceil())

	dc := gg.NewContext(r.Width, r.Height)
	dc.SetHexColor(canvasColor)
	dc.Clear()
	dc.SetFontFace(face)

	for _, pl := range placements {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		x, y := pl.Rect.Min.X, pl.Rect.Min.Y

		switch pl.Kind {
		case KindText:
			dc.DrawRoundedRectangle(x+0.5, y+0.5, pl.Rect.Dx()-1, pl.Rect.Dy()-1, textRadius)
			dc.SetColor(color.White)
			dc.FillPreserve()
			dc.SetLineWidth(1)
			dc.SetHexColor(outlineColor)
			dc.Stroke()

			dc.SetColor(color.Black)
			dc.DrawString(snap.Texts[pl.Index].Value, x+textPadding, y+textPadding+ascent)
		case KindImage:
			img := snap.Images[pl.Index]
			if img.Src == nil {
				continue
			}
			drawImage(dc, img, int(math.Round(x)), int(math.Round(y)))
		}
	}

	dc.SetLineWidth(1)
	dc.SetHexColor(borderColor)
	dc.DrawRectangle(0.5, 0.5, float64(r.Width)-1, float64(r.Height)-1)
	dc.Stroke()

	return imgToNRGBA(dc.Image()), nil
}
