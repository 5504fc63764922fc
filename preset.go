package collage

import (
	"errors"
	"strings"
)

// ErrUnknownPreset is returned when a resolution preset name is not recognized.
var ErrUnknownPreset = errors.New("unknown resolution preset")

// Preset is a named, immutable export resolution.
type Preset struct {
	Name   string
	Width  int
	Height int
}

// The supported export resolutions.
var (
	Preset4K    = Preset{Name: "4K", Width: 3840, Height: 2160}
	Preset1080p = Preset{Name: "1080p", Width: 1920, Height: 1080}
	Preset720p  = Preset{Name: "720p", Width: 1280, Height: 720}
)

// DefaultPreset is the resolution selected when nothing else is requested.
var DefaultPreset = Preset1080p

// Presets returns the supported resolutions ordered from the largest to the smallest.
func Presets() []Preset {
	return []Preset{Preset4K, Preset1080p, Preset720p}
}

// PresetByName looks up a resolution preset by its name, ignoring case.
func PresetByName(name string) (Preset, error) {
	for _, p := range Presets() {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, nil
		}
	}
	return Preset{}, ErrUnknownPreset
}

// PresetNames returns the names of the supported resolutions.
func PresetNames() []string {
	presets := Presets()
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.Name
	}
	return names
}

// String implements fmt.Stringer.
func (p Preset) String() string {
	return p.Name
}

func (p Preset) valid() bool {
	return p.Width > 0 && p.Height > 0
}
