package test_internals

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"mime/multipart"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turt2live/pack-repo/common/config"
)

var evenColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}
var oddColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}
var altColor = color.RGBA{R: 0, G: 0, B: 255, A: 255}

func colorFor(x int, y int) color.Color {
	c := oddColor
	if (y%2.0) == 0 && (x%2.0) == 0 {
		c = altColor
	} else if (y%2.0) == 0 || (x%2.0) == 0 {
		c = evenColor
	}
	return c
}

func makeTestImage(width int, height int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, colorFor(x, y))
		}
	}
	return img
}

// MakeTestImage returns a width x height checkerboard encoded as format.
func MakeTestImage(width int, height int, format imaging.Format) ([]byte, error) {
	b := bytes.NewBuffer(make([]byte, 0))
	if err := imaging.Encode(b, makeTestImage(width, height), format); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func MustMakeTestImage(t *testing.T, width int, height int, format imaging.Format) []byte {
	b, err := MakeTestImage(width, height, format)
	require.NoError(t, err)
	return b
}

func AssertIsTestImage(t *testing.T, i io.Reader) {
	img, _, err := image.Decode(i)
	assert.NoError(t, err, "Error decoding image")
	width := img.Bounds().Max.X
	height := img.Bounds().Max.Y
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			r1, g1, b1, a1 := colorFor(x, y).RGBA()
			r2, g2, b2, a2 := img.At(x, y).RGBA()
			if !assert.Equal(t, []uint32{r1, g1, b1, a1}, []uint32{r2, g2, b2, a2}, fmt.Sprintf("Wrong colour for pixel %d,%d", x, y)) {
				return // don't print thousands of errors
			}
		}
	}
}

// FilePart is one file field of a multipart upload.
type FilePart struct {
	Field    string
	Filename string
	Content  []byte
}

// MakeMultipartBody encodes fields and files as multipart/form-data and
// returns the body with its content type.
func MakeMultipartBody(t *testing.T, fields map[string]string, files ...FilePart) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := w.CreateFormFile(f.Field, f.Filename)
		require.NoError(t, err)
		_, err = fw.Write(f.Content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

// TestConfig returns the default config pointed at a fresh temporary
// storage root, with rate limiting off.
func TestConfig(t *testing.T) *config.MainRepoConfig {
	dir := t.TempDir()
	c := config.NewDefaultMainConfig()
	c.Storage.Root = dir + "/uploads"
	c.Storage.ManifestPath = dir + "/list.json"
	c.RateLimit.Enabled = false
	c.Thumbnails.NumWorkers = 2
	return &c
}
