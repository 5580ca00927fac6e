package supres

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
)

// DefaultQuality is the JPEG quality used when none is configured.
const DefaultQuality = 90

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// IsImage reports whether name has a supported image extension.
// Matching ignores case.
func IsImage(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// LoadImage decodes the image at path.
func LoadImage(path string) (image.Image, error) {
	sf, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	defer sf.Close()

	img, _, err := image.Decode(sf)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	return img, nil
}

// SaveImage encodes img to name, picking the format from the extension.
// Unknown extensions are written as PNG. The image is encoded into a
// temporary file next to name and renamed over it, so a failed encode
// leaves any existing file at name untouched. A quality of 0 selects
// DefaultQuality.
func SaveImage(name string, img image.Image, quality int) (err error) {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	tmp, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpeg", ".jpg":
		err = jpeg.Encode(tmp, img, &jpeg.Options{Quality: quality})
	default:
		err = png.Encode(tmp, img)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, name, err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err = os.Rename(tmp.Name(), name); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}
