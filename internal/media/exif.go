package media

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"gallery/internal/filesystem"
	"gallery/internal/logging"
	"gallery/internal/mediatypes"
)

// exifTimeLayout is the EXIF date-time format, "YYYY:MM:DD HH:MM:SS".
const exifTimeLayout = "2006:01:02 15:04:05"

// ErrNoCapture is returned for files that carry no capture metadata.
var ErrNoCapture = errors.New("no capture metadata")

// Capture is the metadata read from a media file's EXIF block.
type Capture struct {
	// Taken is the capture time in UTC, zero when unknown.
	Taken       time.Time
	Orientation Orientation
}

// CaptureReader extracts capture metadata from a media file.
type CaptureReader interface {
	ReadCapture(path string) (Capture, error)
}

// ExifReader is the production CaptureReader.
type ExifReader struct {
	Retry filesystem.RetryConfig
}

// NewExifReader returns an ExifReader using the default retry policy.
func NewExifReader() *ExifReader {
	return &ExifReader{Retry: filesystem.DefaultRetryConfig()}
}

// ReadCapture implements CaptureReader. Non-image files and images without
// EXIF return an error wrapping ErrNoCapture.
func (r *ExifReader) ReadCapture(path string) (Capture, error) {
	if mediatypes.TypeOf(path) != mediatypes.FileTypeImage {
		return Capture{}, fmt.Errorf("%s: %w", path, ErrNoCapture)
	}

	f, err := filesystem.OpenWithRetry(path, r.Retry)
	if err != nil {
		return Capture{}, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return Capture{}, fmt.Errorf("%s: %w: %v", path, ErrNoCapture, err)
	}

	c := Capture{Orientation: OrientationNormal}

	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil && Orientation(v).Valid() {
			c.Orientation = Orientation(v)
		}
	}

	for _, field := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTime} {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		s, err := tag.StringVal()
		if err != nil {
			continue
		}
		t, err := ParseExifTime(s)
		if err != nil {
			logging.Debug("Unparseable %s %q in %s: %v", field, s, path, err)
			continue
		}
		c.Taken = t
		break
	}

	return c, nil
}

// ParseExifTime parses an EXIF date-time as UTC. Values shorter than the full
// layout (e.g. "2013:07:04 21:02:5") are right-padded with '0' first, longer
// ones are cut to it.
func ParseExifTime(s string) (time.Time, error) {
	s = strings.TrimRight(strings.TrimSpace(s), "\x00")
	n := len(exifTimeLayout)
	if len(s) > n {
		s = s[:n]
	}
	if len(s) < n {
		s += strings.Repeat("0", n-len(s))
	}
	return time.ParseInLocation(exifTimeLayout, s, time.UTC)
}
