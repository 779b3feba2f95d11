package upload_controller

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"strconv"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/turt2live/pack-repo/common"
	"github.com/turt2live/pack-repo/common/assets"
	"github.com/turt2live/pack-repo/common/config"
	"github.com/turt2live/pack-repo/common/rcontext"
	"github.com/turt2live/pack-repo/controllers/manifest_controller"
	"github.com/turt2live/pack-repo/metrics"
	"github.com/turt2live/pack-repo/storage"
	"github.com/turt2live/pack-repo/storage/mirror"
	"github.com/turt2live/pack-repo/thumbnailing"
	"github.com/turt2live/pack-repo/types"
	"github.com/turt2live/pack-repo/util"
	"github.com/turt2live/pack-repo/util/cleanup"
	"github.com/turt2live/pack-repo/util/readers"
)

const multipartOverhead = 1024 * 1024

type Options struct {
	PackageExtension     string
	MaxSizeBytes         int64
	MaxNameLength        int
	MaxThumbnailBytes    int64
	DefaultThumbnailPath string
}

// BundleMirror receives a copy of every committed bundle and manifest.
type BundleMirror interface {
	MirrorBundle(ctx context.Context, key string, packagePath string, thumbnailPath string) error
	MirrorManifest(ctx context.Context, manifestPath string) error
}

// Ingestor validates uploads and places them in the bundle store.
type Ingestor struct {
	store       *storage.BundleStore
	manifest    *manifest_controller.Synchronizer
	thumbnailer *thumbnailing.Thumbnailer
	mirror      BundleMirror
	opts        Options
}

func NewIngestor(store *storage.BundleStore, manifest *manifest_controller.Synchronizer, thumbnailer *thumbnailing.Thumbnailer, opts Options) *Ingestor {
	return &Ingestor{
		store:       store,
		manifest:    manifest,
		thumbnailer: thumbnailer,
		opts:        opts,
	}
}

func (i *Ingestor) WithMirror(m BundleMirror) *Ingestor {
	i.mirror = m
	return i
}

// IsRequestTooLarge reports whether a request body of the given length
// can't possibly hold an acceptable upload. The multipart envelope and the
// thumbnail are allowed for on top of the package limit.
func (i *Ingestor) IsRequestTooLarge(contentLength int64) bool {
	if i.opts.MaxSizeBytes <= 0 || i.opts.MaxThumbnailBytes <= 0 || contentLength < 0 {
		return false
	}
	return contentLength > i.opts.MaxSizeBytes+i.opts.MaxThumbnailBytes+multipartOverhead
}

type validated struct {
	key       string
	thumbnail *thumbnailing.Thumbnail
}

func (i *Ingestor) validate(ctx rcontext.RequestContext, upload *types.BundleUpload) (*validated, error) {
	if strings.TrimSpace(upload.Name) == "" {
		return nil, common.MissingField("name")
	}
	if upload.Package == nil {
		return nil, common.MissingField("package")
	}
	if !strings.HasSuffix(upload.Package.Filename, i.opts.PackageExtension) {
		return nil, common.InvalidFileType("only " + i.opts.PackageExtension + " files are allowed")
	}
	if i.opts.MaxSizeBytes > 0 && upload.Package.Size > i.opts.MaxSizeBytes {
		return nil, common.TooLarge("package", fmt.Sprintf("package is %s, the limit is %s",
			humanize.Bytes(uint64(upload.Package.Size)), humanize.Bytes(uint64(i.opts.MaxSizeBytes))))
	}

	key, err := util.BundleKey(upload.Name, i.opts.MaxNameLength)
	if err != nil {
		return nil, err
	}

	v := &validated{key: key}
	if upload.Thumbnail != nil {
		data, err := readThumbnail(upload.Thumbnail, i.opts.MaxThumbnailBytes)
		if err != nil {
			return nil, err
		}
		v.thumbnail, err = i.thumbnailer.Normalize(ctx, data)
		if err != nil {
			return nil, err
		}
	}
	return v, nil
}

func readThumbnail(f *types.UploadedFile, limit int64) ([]byte, error) {
	if limit > 0 && f.Size > limit {
		return nil, common.TooLarge("thumbnail", fmt.Sprintf("thumbnail is %s, the limit is %s",
			humanize.Bytes(uint64(f.Size)), humanize.Bytes(uint64(limit))))
	}

	r, err := f.Open()
	if err != nil {
		return nil, common.StorageUnavailable(err)
	}
	defer cleanup.DumpAndCloseStream(r)

	if limit > 0 {
		r = readers.LimitReaderWithOverrunError(r, limit)
	}
	b, err := ioutil.ReadAll(r)
	if err != nil {
		if errors.Is(err, common.ErrMediaTooLarge) {
			return nil, common.TooLarge("thumbnail", "thumbnail exceeds "+humanize.Bytes(uint64(limit)))
		}
		return nil, common.StorageUnavailable(err)
	}
	return b, nil
}

// Ingest validates upload, stores it under its sanitized key and
// regenerates the manifest. Client errors are returned before anything is
// written.
func (i *Ingestor) Ingest(ctx rcontext.RequestContext, upload *types.BundleUpload) (*types.StoredBundle, error) {
	v, err := i.validate(ctx, upload)
	if err != nil {
		metrics.UploadRejections.With(prometheus.Labels{"reason": rejectionReason(err)}).Inc()
		return nil, err
	}

	ctx = ctx.LogWithFields(logrus.Fields{"bundle": v.key})
	ctx.Log.Info("Storing bundle")

	unlock := i.store.LockBundle(v.key)
	defer unlock()

	if err = i.place(ctx, v, upload.Package); err != nil {
		if errors.Is(err, common.ErrMediaTooLarge) {
			metrics.UploadRejections.With(prometheus.Labels{"reason": "too_large"}).Inc()
			return nil, common.TooLarge("package", "package exceeds "+humanize.Bytes(uint64(i.opts.MaxSizeBytes)))
		}
		return nil, common.StorageUnavailable(err)
	}

	stored := &types.StoredBundle{
		Name:             v.key,
		Folder:           i.manifest.PublicFolder(v.key),
		DefaultThumbnail: v.thumbnail == nil,
	}
	metrics.BundlesUploaded.With(prometheus.Labels{"thumbnail": thumbnailSource(stored)}).Inc()
	metrics.UploadedBytes.Add(float64(upload.Package.Size))

	if _, err = i.manifest.Sync(ctx); err != nil {
		ctx.Log.Error("Bundle stored but the manifest could not be regenerated: ", err)
		return nil, err
	}

	if i.mirror != nil {
		i.replicate(ctx, v.key)
	}

	return stored, nil
}

func (i *Ingestor) place(ctx rcontext.RequestContext, v *validated, pkg *types.UploadedFile) error {
	p, err := i.store.BeginPlacement(v.key)
	if err != nil {
		return err
	}
	defer p.Abort()

	r, err := pkg.Open()
	if err != nil {
		return err
	}
	var pr io.ReadCloser = r
	if i.opts.MaxSizeBytes > 0 {
		pr = readers.LimitReaderWithOverrunError(r, i.opts.MaxSizeBytes)
	}
	n, err := p.WritePackage(pr)
	cleanup.DumpAndCloseStream(r)
	if err != nil {
		return err
	}
	ctx.Log.Debugf("Staged package (%s)", humanize.Bytes(uint64(n)))

	if v.thumbnail != nil {
		if _, err = p.WriteThumbnail(bytes.NewReader(v.thumbnail.Data)); err != nil {
			return err
		}
	} else {
		ctx.Log.Debug("No thumbnail supplied - using the default")
		if err = p.CopyThumbnailFrom(i.opts.DefaultThumbnailPath); err != nil {
			return err
		}
	}

	return p.Commit()
}

func (i *Ingestor) replicate(ctx rcontext.RequestContext, key string) {
	err := i.mirror.MirrorBundle(ctx, key, i.store.PackagePath(key), i.store.ThumbnailPath(key))
	if err == nil {
		err = i.mirror.MirrorManifest(ctx, i.manifest.ManifestPath())
	}
	if err != nil {
		ctx.Log.Warn("Failed to mirror bundle: ", err)
		sentry.CaptureException(err)
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, common.ErrMissingField):
		return "missing_field"
	case errors.Is(err, common.ErrInvalidFileType):
		return "invalid_file_type"
	case errors.Is(err, common.ErrInvalidName):
		return "invalid_name"
	case errors.Is(err, common.ErrMediaTooLarge):
		return "too_large"
	default:
		return "other"
	}
}

func thumbnailSource(b *types.StoredBundle) string {
	return strconv.FormatBool(!b.DefaultThumbnail)
}

var instance *Ingestor
var instanceLock = &sync.Mutex{}

// Get returns the ingestor built from the current config.
func Get() *Ingestor {
	instanceLock.Lock()
	defer instanceLock.Unlock()

	if instance == nil {
		conf := config.Get()
		instance = NewIngestor(
			storage.GetBundleStore(),
			manifest_controller.Get(),
			thumbnailing.NewThumbnailer(conf.Thumbnails),
			Options{
				PackageExtension:     conf.Uploads.PackageExtension,
				MaxSizeBytes:         conf.Uploads.MaxSizeBytes,
				MaxNameLength:        conf.Uploads.MaxNameLength,
				MaxThumbnailBytes:    conf.Thumbnails.MaxSourceBytes,
				DefaultThumbnailPath: assets.DefaultThumbnailPath(),
			},
		)
		if m := mirror.Get(); m != nil {
			instance.WithMirror(m)
		}
	}
	return instance
}

func Reload() {
	instanceLock.Lock()
	defer instanceLock.Unlock()

	if instance != nil {
		// Requests started before the reload keep their ingestor; the pool
		// stops once they are done with it.
		instance.thumbnailer.Close()
	}
	instance = nil
}
