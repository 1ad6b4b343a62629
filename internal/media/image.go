package media

import (
	"fmt"
	"image"

	"gallery/internal/filesystem"
	"gallery/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // WebP format support
)

const (
	// MaxImageDimension is the maximum width or height decoded at full size.
	// Larger sources are downscaled before the thumbnail fit.
	MaxImageDimension = 4096

	// MaxImagePixels is the maximum total pixels (width * height) decoded at
	// full size. ~20MP, about 80MB in RGBA.
	MaxImagePixels = 20_000_000
)

// constrainedSize returns the size an image of w x h is reduced to so that it
// fits within maxDimension on each side and maxPixels in total.
func constrainedSize(w, h, maxDimension, maxPixels int) (int, int) {
	if w > maxDimension || h > maxDimension {
		if w > h {
			h = h * maxDimension / w
			w = maxDimension
		} else {
			w = w * maxDimension / h
			h = maxDimension
		}
	}
	if w*h > maxPixels {
		scale := float64(maxPixels) / float64(w*h)
		w = int(float64(w) * scale)
		h = int(float64(h) * scale)
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// LoadImageConstrained decodes the image at path without applying its EXIF
// orientation, downscaling it if it exceeds the size limits.
func LoadImageConstrained(path string, maxDimension, maxPixels int) (image.Image, error) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, err := imaging.Decode(file, imaging.AutoOrientation(false))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	b := img.Bounds()
	w, h := constrainedSize(b.Dx(), b.Dy(), maxDimension, maxPixels)
	if b.Empty() || (w == b.Dx() && h == b.Dy()) {
		return img, nil
	}

	logging.Debug("Constraining large image %s from %dx%d to %dx%d", path, b.Dx(), b.Dy(), w, h)
	return imaging.Resize(img, w, h, imaging.Lanczos), nil
}
