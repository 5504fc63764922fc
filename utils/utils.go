package utils

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// sniffLen is the number of leading bytes http.DetectContentType looks at.
const sniffLen = 512

// Contains reports whether the value is present in the slice.
func Contains[T comparable](s []T, value T) bool {
	for _, v := range s {
		if v == value {
			return true
		}
	}
	return false
}

// DetectContentType sniffs the MIME type of the data provided by the reader.
// It returns the detected type together with a reader which replays the
// sniffed bytes, so the caller can still consume the whole stream.
func DetectContentType(r io.Reader) (string, io.Reader, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, fmt.Errorf("unable to read content: %w", err)
	}
	buf = buf[:n]

	// Always returns a valid content-type and "application/octet-stream" if no others seemed to match.
	ctype := http.DetectContentType(buf)

	return ctype, io.MultiReader(bytes.NewReader(buf), r), nil
}

// IsImageType reports whether the MIME type denotes an image.
func IsImageType(ctype string) bool {
	return strings.HasPrefix(ctype, "image/")
}
