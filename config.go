package collage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/esimov/collage/utils"
)

// ErrInvalidConfig is returned when a scene file holds out of range values.
var ErrInvalidConfig = errors.New("invalid configuration")

// Viewport is the size of the editing area the composition is laid out in.
type Viewport struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// TextEntry describes a text element of a scene file.
type TextEntry struct {
	Value string  `toml:"value"`
	X     float64 `toml:"x"`
	Y     float64 `toml:"y"`
	Order int     `toml:"order"`
}

// ImageEntry describes an image element of a scene file. Src is a local
// path, relative to the scene file, a remote URL or a data URL.
type ImageEntry struct {
	Src    string    `toml:"src"`
	X      float64   `toml:"x"`
	Y      float64   `toml:"y"`
	Width  Dimension `toml:"width"`
	Height Dimension `toml:"height"`
	Order  int       `toml:"order"`
}

// Config holds the export settings and the elements of a scene.
type Config struct {
	Resolution  string        `toml:"resolution"`
	HighQuality bool          `toml:"high_quality"`
	Output      string        `toml:"output"`
	FontSize    float64       `toml:"font_size"`
	Viewport    Viewport      `toml:"viewport"`
	Filter      FilterOptions `toml:"filter"`
	Texts       []TextEntry   `toml:"text"`
	Images      []ImageEntry  `toml:"image"`

	// dir is the directory relative image paths are resolved against.
	dir string
}

// DefaultConfig returns the configuration used when no scene file overrides it.
func DefaultConfig() Config {
	return Config{
		Resolution:  DefaultPreset.Name,
		HighQuality: true,
		Output:      DefaultFilename,
		FontSize:    DefaultFontSize,
		Viewport: Viewport{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		},
		Filter: DefaultFilterOptions,
	}
}

// LoadConfig reads the scene file at path on top of the default configuration.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("unable to open the scene file: %w", err)
	}
	defer f.Close()

	cfg, err := DecodeConfig(f, filepath.Dir(path))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// DecodeConfig reads a TOML scene from r. Relative image paths are resolved against dir.
func DecodeConfig(r io.Reader, dir string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%w: unknown keys %s", ErrInvalidConfig, strings.Join(keys, ", "))
	}
	cfg.dir = dir
	return cfg, cfg.Validate()
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if _, err := PresetByName(c.Resolution); err != nil {
		return fmt.Errorf("%w: %q, expected one of %s", err, c.Resolution, strings.Join(PresetNames(), ", "))
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("%w: viewport must be positive, got %dx%d", ErrInvalidConfig, c.Viewport.Width, c.Viewport.Height)
	}
	if c.FontSize < 0 {
		return fmt.Errorf("%w: negative font size %v", ErrInvalidConfig, c.FontSize)
	}
	if err := c.Filter.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	for i, t := range c.Texts {
		if strings.TrimSpace(t.Value) == "" {
			return fmt.Errorf("%w: text #%d is empty", ErrInvalidConfig, i)
		}
	}
	for i, img := range c.Images {
		if img.Src == "" {
			return fmt.Errorf("%w: image #%d has no source", ErrInvalidConfig, i)
		}
	}
	return nil
}

// Options returns the export options described by the configuration.
func (c Config) Options() (Options, error) {
	preset, err := PresetByName(c.Resolution)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Preset:      preset,
		HighQuality: c.HighQuality,
		Filter:      c.Filter,
	}, nil
}

// Renderer returns a renderer for the configured viewport.
func (c Config) Renderer() *Renderer {
	return NewRenderer(c.Viewport.Width, c.Viewport.Height, c.FontSize)
}

// Apply replays the scene elements onto the controller through its commands.
func (c Config) Apply(ctrl *Controller) error {
	for i, t := range c.Texts {
		ctrl.SetInput(t.Value)
		if !ctrl.AddText() {
			return fmt.Errorf("text #%d: %w", i, ErrInvalidConfig)
		}
		idx := ctrl.Count(KindText) - 1
		if err := c.place(ctrl, KindText, idx, Point{t.X, t.Y}, t.Order); err != nil {
			return fmt.Errorf("text #%d: %w", i, err)
		}
	}

	for i, img := range c.Images {
		if err := c.addImage(ctrl, img.Src); err != nil {
			return fmt.Errorf("image #%d: %w", i, err)
		}
		idx := ctrl.Count(KindImage) - 1
		if err := ctrl.ResizeDimensions(idx, orAuto(img.Width), orAuto(img.Height)); err != nil {
			return fmt.Errorf("image #%d: %w", i, err)
		}
		if err := c.place(ctrl, KindImage, idx, Point{img.X, img.Y}, img.Order); err != nil {
			return fmt.Errorf("image #%d: %w", i, err)
		}
	}
	ctrl.ClearSelection()
	return nil
}

func (c Config) addImage(ctrl *Controller, src string) error {
	switch {
	case strings.HasPrefix(src, "data:"):
		return ctrl.AddImageDataURL(src)
	case utils.IsValidUrl(src):
		return ctrl.AddImageURL(src)
	case !filepath.IsAbs(src) && c.dir != "":
		return ctrl.AddImageFile(filepath.Join(c.dir, src))
	}
	return ctrl.AddImageFile(src)
}

func (c Config) place(ctrl *Controller, kind Kind, idx int, pos Point, order int) error {
	if err := ctrl.SetPosition(kind, idx, pos); err != nil {
		return err
	}
	if order <= 0 {
		return nil
	}
	if err := ctrl.Select(kind, idx); err != nil {
		return err
	}
	for j := 0; j < order; j++ {
		if err := ctrl.Raise(); err != nil {
			return err
		}
	}
	return nil
}

// orAuto treats a missing dimension as auto.
func orAuto(d Dimension) Dimension {
	if !d.Auto && d.Value == 0 {
		return Auto()
	}
	return d
}
