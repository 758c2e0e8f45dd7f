package storage

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// MaxArtworkSize bounds uploaded catalog artwork.
const MaxArtworkSize = 5 * 1024 * 1024

var (
	ErrFileTooLarge    = errors.New("file exceeds maximum size")
	ErrInvalidMimeType = errors.New("file type not allowed")
	ErrEmptyFile       = errors.New("file is empty")
)

var artworkMimeTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// ValidateArtwork reads an upload, checks its size and sniffed type, and returns
// the bytes with their MIME type and file extension.
func ValidateArtwork(reader io.Reader, maxSize int64) ([]byte, string, string, error) {
	if maxSize <= 0 {
		maxSize = MaxArtworkSize
	}

	data, err := io.ReadAll(io.LimitReader(reader, maxSize+1))
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) == 0 {
		return nil, "", "", ErrEmptyFile
	}
	if int64(len(data)) > maxSize {
		return nil, "", "", ErrFileTooLarge
	}

	mimeType := http.DetectContentType(data)
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}

	ext, ok := artworkMimeTypes[mimeType]
	if !ok {
		return nil, "", "", ErrInvalidMimeType
	}
	return data, mimeType, ext, nil
}
