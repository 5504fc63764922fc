package utils

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
)

// DownloadImage downloads the image from the internet and saves it into a temporary file.
// The returned file is rewound to its beginning; the caller is responsible for removing it.
func DownloadImage(uri string) (*os.File, error) {
	res, err := http.Get(uri)
	if err != nil {
		return nil, fmt.Errorf("unable to download image file from URI: %s: %w", uri, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unable to download image file from URI: %s, status %v", uri, res.Status)
	}

	ctype, body, err := DetectContentType(res.Body)
	if err != nil {
		return nil, err
	}
	if !IsImageType(ctype) {
		return nil, fmt.Errorf("the downloaded file is not a valid image type: %s", ctype)
	}

	tmpfile, err := os.CreateTemp("", "collage-*")
	if err != nil {
		return nil, fmt.Errorf("unable to create temporary file: %w", err)
	}

	// Copy the image binary data into the temporary file.
	if _, err := io.Copy(tmpfile, body); err != nil {
		tmpfile.Close()
		os.Remove(tmpfile.Name())
		return nil, fmt.Errorf("unable to copy the source URI into the destination file: %w", err)
	}
	if _, err := tmpfile.Seek(0, io.SeekStart); err != nil {
		tmpfile.Close()
		os.Remove(tmpfile.Name())
		return nil, err
	}

	return tmpfile, nil
}

// IsValidUrl tests a string to determine if it is a well-structured url or not.
func IsValidUrl(uri string) bool {
	_, err := url.ParseRequestURI(uri)
	if err != nil {
		return false
	}

	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}

	return true
}
