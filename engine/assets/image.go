package assets

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
)

// LoadImage decodes a PNG or BMP file, e.g. for the window icon or a
// texture source.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return png.Decode(f)
	case ".bmp":
		return bmp.Decode(f)
	default:
		return nil, fmt.Errorf("unsupported image format: %s", path)
	}
}
