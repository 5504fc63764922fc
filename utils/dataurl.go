package utils

import (
	"encoding/base64"
	"errors"
	"strings"
)

// ErrInvalidDataURL is returned when a string is not a base64 encoded data URL.
var ErrInvalidDataURL = errors.New("invalid data URL")

// EncodeDataURL embeds the data into a base64 encoded data URL of the given MIME type.
func EncodeDataURL(mime string, data []byte) string {
	var sb strings.Builder
	sb.Grow(len("data:;base64,") + len(mime) + base64.StdEncoding.EncodedLen(len(data)))
	sb.WriteString("data:")
	sb.WriteString(mime)
	sb.WriteString(";base64,")
	sb.WriteString(base64.StdEncoding.EncodeToString(data))
	return sb.String()
}

// DecodeDataURL splits a base64 data URL into its MIME type and payload.
func DecodeDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, errors.Join(ErrInvalidDataURL, err)
	}
	return mime, data, nil
}
