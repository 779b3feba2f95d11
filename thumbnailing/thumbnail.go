package thumbnailing

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"github.com/Jeffail/tunny"
	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/ryanuber/go-glob"
	"github.com/sirupsen/logrus"
	"github.com/turt2live/pack-repo/common"
	"github.com/turt2live/pack-repo/common/config"
	"github.com/turt2live/pack-repo/common/rcontext"
	"github.com/turt2live/pack-repo/metrics"
	"github.com/turt2live/pack-repo/thumbnailing/u"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Thumbnail is a validated thumbnail ready to be stored as PNG.
type Thumbnail struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
	Reencoded   bool
}

// Thumbnailer validates uploaded thumbnails and normalizes them to PNG on a
// fixed-size worker pool.
type Thumbnailer struct {
	pool *tunny.Pool
	conf config.ThumbnailsConfig

	mu      sync.Mutex
	active  int
	closing bool
	closed  bool
}

type normalizeRequest struct {
	data        []byte
	contentType string
}

type normalizeResult struct {
	thumbnail *Thumbnail
	err       error
}

func NewThumbnailer(conf config.ThumbnailsConfig) *Thumbnailer {
	workers := conf.NumWorkers
	if workers <= 0 {
		workers = 1
	}
	t := &Thumbnailer{conf: conf}
	t.pool = tunny.NewFunc(workers, func(i interface{}) interface{} {
		req := i.(*normalizeRequest)
		thumb, err := t.normalize(req.data, req.contentType)
		return &normalizeResult{thumbnail: thumb, err: err}
	})
	return t
}

// Close shuts the worker pool down once the last in-flight Normalize call
// has finished. Calls made after that run on the caller's goroutine, so a
// request still holding a retired Thumbnailer keeps working.
func (t *Thumbnailer) Close() {
	t.mu.Lock()
	t.closing = true
	idle := t.active == 0 && !t.closed
	if idle {
		t.closed = true
	}
	t.mu.Unlock()

	if idle {
		logrus.Info("Closing thumbnailer pool")
		t.pool.Close()
	}
}

// acquire reports whether the pool may be used. Every true result must be
// paired with a release.
func (t *Thumbnailer) acquire() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	t.active++
	return true
}

func (t *Thumbnailer) release() {
	t.mu.Lock()
	t.active--
	last := t.closing && t.active == 0 && !t.closed
	if last {
		t.closed = true
	}
	t.mu.Unlock()

	if last {
		logrus.Info("Closing thumbnailer pool")
		t.pool.Close()
	}
}

func (t *Thumbnailer) process(data []byte, contentType string) (*Thumbnail, error) {
	if !t.acquire() {
		return t.normalize(data, contentType)
	}
	defer t.release()
	res := t.pool.Process(&normalizeRequest{data: data, contentType: contentType}).(*normalizeResult)
	return res.thumbnail, res.err
}

// IsSupported reports whether contentType matches one of the configured
// thumbnail types. Entries may be globs such as image/*.
func (t *Thumbnailer) IsSupported(contentType string) bool {
	for _, allowed := range t.conf.Types {
		if glob.Glob(allowed, contentType) {
			return true
		}
	}
	return false
}

// Normalize checks an uploaded thumbnail and returns the bytes to store.
// Nothing is written anywhere; rejections come back as client errors.
func (t *Thumbnailer) Normalize(ctx rcontext.RequestContext, data []byte) (*Thumbnail, error) {
	if t.conf.MaxSourceBytes > 0 && int64(len(data)) > t.conf.MaxSourceBytes {
		return nil, common.TooLarge("thumbnail", fmt.Sprintf("thumbnail is %s, the limit is %s",
			humanize.Bytes(uint64(len(data))), humanize.Bytes(uint64(t.conf.MaxSourceBytes))))
	}

	contentType := mimetype.Detect(data).String()
	if !t.IsSupported(contentType) {
		ctx.Log.Info("Rejecting thumbnail of type ", contentType)
		return nil, common.InvalidFileType("thumbnail type " + contentType + " is not supported")
	}

	thumb, err := t.process(data, contentType)
	if err != nil {
		return nil, err
	}
	ctx.Log.Debugf("Thumbnail is %dx%d %s (re-encoded: %t)", thumb.Width, thumb.Height, contentType, thumb.Reencoded)
	return thumb, nil
}

func (t *Thumbnailer) normalize(data []byte, contentType string) (*Thumbnail, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, common.InvalidFileType("thumbnail could not be read as an image")
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); t.conf.MaxPixels > 0 && pixels > t.conf.MaxPixels {
		return nil, common.TooLarge("thumbnail", fmt.Sprintf("thumbnail is %dx%d, the limit is %s pixels",
			cfg.Width, cfg.Height, humanize.Comma(t.conf.MaxPixels)))
	}

	shouldResize, width, height := u.AdjustProperties(cfg.Width, cfg.Height, t.conf.MaxWidth, t.conf.MaxHeight)
	if !shouldResize && contentType == "image/png" {
		// Already a PNG within bounds: store it untouched.
		if _, err = imaging.Decode(bytes.NewReader(data)); err != nil {
			return nil, common.InvalidFileType("thumbnail could not be decoded")
		}
		metrics.ThumbnailsNormalized.With(prometheus.Labels{"method": "verbatim"}).Inc()
		return &Thumbnail{Data: data, ContentType: contentType, Width: cfg.Width, Height: cfg.Height}, nil
	}

	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, common.InvalidFileType("thumbnail could not be decoded")
	}

	method := "reencode"
	if shouldResize {
		src = u.MakeThumbnail(src, width, height)
		method = "scale"
	}

	buf := &bytes.Buffer{}
	if err = u.Encode(buf, src); err != nil {
		return nil, err
	}

	metrics.ThumbnailsNormalized.With(prometheus.Labels{"method": method}).Inc()
	b := src.Bounds()
	return &Thumbnail{
		Data:        buf.Bytes(),
		ContentType: "image/png",
		Width:       b.Dx(),
		Height:      b.Dy(),
		Reencoded:   true,
	}, nil
}
