// Package image provides decoded-raster loading for the canvas. The core
// only ever sees a decoded image with known pixel dimensions; format
// validation and decoding stop at this boundary.
package image

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Layer represents the loaded photograph.
type Layer struct {
	Path  string      // Original file path
	Image image.Image // Decoded image data
}

// Load reads and decodes an image file.
func Load(path string) (*Layer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}

	return &Layer{Path: path, Image: img}, nil
}

// FromImage wraps an already-decoded image.
func FromImage(img image.Image) *Layer {
	return &Layer{Image: img}
}

// Width returns the image width in pixels.
func (l *Layer) Width() int {
	if l == nil || l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (l *Layer) Height() int {
	if l == nil || l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dy()
}

// SupportedFormats returns the file extensions the loader accepts.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".tif", ".tiff", ".webp"}
}

// IsSupportedFormat checks if a file has a supported image extension.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range SupportedFormats() {
		if ext == supported {
			return true
		}
	}
	return false
}
