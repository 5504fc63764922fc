package collage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/esimov/collage/utils"
	"github.com/google/uuid"
)

var (
	// ErrNoSelection is returned by the order commands when no element is selected.
	ErrNoSelection = errors.New("no element is selected")
	// ErrOutOfRange is returned when an element index does not exist.
	ErrOutOfRange = errors.New("element index out of range")
	// ErrInvalidSize is returned when an image is resized to a non positive size.
	ErrInvalidSize = errors.New("image size must be positive")
	// ErrImageTooLarge is returned when a resize would render an image with a
	// side larger than MaxImageSize.
	ErrImageTooLarge = fmt.Errorf("image size exceeds %dpx", MaxImageSize)
)

// Controller owns the composition and exposes the commands mutating it.
// All methods are safe for concurrent use.
type Controller struct {
	mu       sync.RWMutex
	texts    []Text
	images   []Image
	selected *Selection
	input    string

	newID func() string
}

// NewController creates a controller over an empty composition.
func NewController() *Controller {
	return &Controller{newID: uuid.NewString}
}

// SetInput sets the pending value of the text field.
func (c *Controller) SetInput(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = s
}

// Input returns the pending value of the text field.
func (c *Controller) Input() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.input
}

// AddText appends the trimmed text field value as a new text element and
// clears the field. Whitespace only values are ignored and false is returned.
func (c *Controller) AddText() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	value := strings.TrimSpace(c.input)
	if value == "" {
		return false
	}
	c.texts = append(c.texts, Text{ID: c.newID(), Value: value})
	c.input = ""
	return true
}

// AddImage decodes the image provided by the reader and appends it at its
// intrinsic size. A nil reader means no file was chosen and is a no-op.
func (c *Controller) AddImage(r io.Reader) error {
	if r == nil {
		return nil
	}
	src, mime, err := decodeImg(r)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.images = append(c.images, Image{
		ID:     c.newID(),
		Src:    src,
		MIME:   mime,
		Width:  Auto(),
		Height: Auto(),
	})
	return nil
}

// AddImageFile adds the image stored at path. An empty path is a no-op.
func (c *Controller) AddImageFile(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("unable to open the image file: %w", err)
	}
	defer f.Close()

	if err := c.AddImage(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// AddImageDataURL adds an image embedded into a base64 data URL.
func (c *Controller) AddImageDataURL(url string) error {
	mime, data, err := utils.DecodeDataURL(url)
	if err != nil {
		return err
	}
	if !utils.IsImageType(mime) {
		return fmt.Errorf("%w: %s", ErrNotAnImage, mime)
	}
	return c.AddImage(bytes.NewReader(data))
}

// AddImageURL downloads a remote image and adds it to the composition.
func (c *Controller) AddImageURL(url string) error {
	f, err := utils.DownloadImage(url)
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())
	defer f.Close()

	return c.AddImage(f)
}

// AddImageSource adds an image from a local path or a remote URL.
func (c *Controller) AddImageSource(src string) error {
	if utils.IsValidUrl(src) {
		return c.AddImageURL(src)
	}
	return c.AddImageFile(src)
}

// SetPosition moves an element to the given position. No constraint is applied.
func (c *Controller) SetPosition(kind Kind, index int, pos Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch kind {
	case KindText:
		if !inRange(index, len(c.texts)) {
			return ErrOutOfRange
		}
		c.texts[index].Pos = pos
	case KindImage:
		if !inRange(index, len(c.images)) {
			return ErrOutOfRange
		}
		c.images[index].Pos = pos
	default:
		return fmt.Errorf("unsupported element kind: %v", kind)
	}
	return nil
}

// Position returns the current position of an element.
func (c *Controller) Position(kind Kind, index int) (Point, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch kind {
	case KindText:
		if inRange(index, len(c.texts)) {
			return c.texts[index].Pos, nil
		}
	case KindImage:
		if inRange(index, len(c.images)) {
			return c.images[index].Pos, nil
		}
	}
	return Point{}, ErrOutOfRange
}

// Resize sets an explicit display size on an image.
func (c *Controller) Resize(index int, width, height float64) error {
	if width <= 0 || height <= 0 {
		return ErrInvalidSize
	}
	return c.ResizeDimensions(index, Px(width), Px(height))
}

// ResizeDimensions sets the display size of an image, each side being
// either an explicit pixel value or auto.
func (c *Controller) ResizeDimensions(index int, width, height Dimension) error {
	if (!width.Auto && width.Value <= 0) || (!height.Auto && height.Value <= 0) {
		return ErrInvalidSize
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !inRange(index, len(c.images)) {
		return ErrOutOfRange
	}
	img := c.images[index]
	img.Width, img.Height = width, height
	if w, h := img.RenderedSize(); w > MaxImageSize || h > MaxImageSize {
		return ErrImageTooLarge
	}
	c.images[index] = img
	return nil
}

// RenderedSize returns the current display size of an image.
func (c *Controller) RenderedSize(index int) (float64, float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !inRange(index, len(c.images)) {
		return 0, 0, ErrOutOfRange
	}
	w, h := c.images[index].RenderedSize()
	return w, h, nil
}

// Select marks an element as selected.
func (c *Controller) Select(kind Kind, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.texts)
	if kind == KindImage {
		n = len(c.images)
	} else if kind != KindText {
		return fmt.Errorf("unsupported element kind: %v", kind)
	}
	if !inRange(index, n) {
		return ErrOutOfRange
	}
	c.selected = &Selection{Kind: kind, Index: index}
	return nil
}

// ClearSelection removes the current selection.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = nil
}

// Selection returns the selected element, if any.
func (c *Controller) Selection() (Selection, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.selected == nil {
		return Selection{}, false
	}
	return *c.selected, true
}

// Raise increments the order key of the selected element.
func (c *Controller) Raise() error {
	return c.shiftOrder(1)
}

// Lower decrements the order key of the selected element. The key never goes below zero.
func (c *Controller) Lower() error {
	return c.shiftOrder(-1)
}

func (c *Controller) shiftOrder(delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selected == nil {
		return ErrNoSelection
	}
	var order *int
	switch c.selected.Kind {
	case KindText:
		order = &c.texts[c.selected.Index].Order
	case KindImage:
		order = &c.images[c.selected.Index].Order
	}
	*order = utils.Max(0, *order+delta)
	return nil
}

// Count returns the number of elements of one kind.
func (c *Controller) Count(kind Kind) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if kind == KindImage {
		return len(c.images)
	}
	return len(c.texts)
}

// Snapshot returns a copy of the composition which is safe to read while
// the controller keeps being mutated.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		Texts:  append([]Text(nil), c.texts...),
		Images: append([]Image(nil), c.images...),
		Input:  c.input,
	}
	if c.selected != nil {
		sel := *c.selected
		snap.Selection = &sel
	}
	return snap
}

func inRange(index, n int) bool {
	return index >= 0 && index < n
}
