package media

import (
	"image"

	"github.com/disintegration/imaging"
)

// Orientation is the EXIF orientation tag value (1 to 8). Zero and values
// outside that range are treated as 1, no transform.
type Orientation int

// OrientationNormal is the upright, unmirrored orientation.
const OrientationNormal Orientation = 1

// Valid reports whether o is one of the eight defined EXIF orientations.
func (o Orientation) Valid() bool {
	return o >= 1 && o <= 8
}

// Apply returns img transformed so that it displays upright.
func (o Orientation) Apply(img image.Image) image.Image {
	switch o {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
