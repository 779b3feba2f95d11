package u

import (
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// Encode writes img as a PNG. Stored thumbnails always carry the .png name,
// so the content has to match regardless of the source format.
func Encode(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}
