package u

import (
	"image"

	"github.com/disintegration/imaging"
)

// MakeThumbnail scales src down to fit within width x height, keeping its
// aspect ratio.
func MakeThumbnail(src image.Image, width int, height int) image.Image {
	return imaging.Fit(src, width, height, imaging.Lanczos)
}
