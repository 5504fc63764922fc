package collage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/esimov/collage/utils"
	"golang.org/x/image/bmp"
)

// DefaultFilename is the name the exported image is delivered under.
const DefaultFilename = "my-image.png"

// ErrUnsupportedFormat is returned for destination extensions with no encoder.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Format is the encoding of the exported image.
type Format int

const (
	FormatPNG Format = iota
	FormatJPEG
	FormatBMP
)

// MIME returns the media type of the format.
func (f Format) MIME() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatBMP:
		return "image/bmp"
	}
	return "image/png"
}

// String implements fmt.Stringer.
func (f Format) String() string {
	return strings.TrimPrefix(f.MIME(), "image/")
}

// FormatFromPath picks the encoding from the destination file extension.
// A path without extension is encoded as PNG.
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case "", ".png":
		return FormatPNG, nil
	case ".jpg", ".jpeg":
		return FormatJPEG, nil
	case ".bmp":
		return FormatBMP, nil
	default:
		return FormatPNG, fmt.Errorf("%w: %v", ErrUnsupportedFormat, ext)
	}
}

// Encode writes the image to w in the requested format. PNG is lossless,
// JPEG is written at the highest quality.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		return enc.Encode(w, img)
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 100})
	case FormatBMP:
		return bmp.Encode(w, img)
	}
	return ErrUnsupportedFormat
}

// DataURL encodes the exported image as a PNG data URL.
func (r *Result) DataURL() (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, r.Image, FormatPNG); err != nil {
		return "", err
	}
	return utils.EncodeDataURL(FormatPNG.MIME(), buf.Bytes()), nil
}
