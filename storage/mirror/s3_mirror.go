package mirror

import (
	"context"
	"path"
	"strings"
	"sync"

	"github.com/minio/minio-go/v6"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/turt2live/pack-repo/common/config"
	"github.com/turt2live/pack-repo/metrics"
	"github.com/turt2live/pack-repo/types"
)

const manifestObjectName = "list.json"

// S3Mirror copies committed bundles and the manifest into an S3-compatible
// bucket. The local storage root stays authoritative.
type S3Mirror struct {
	client *minio.Client
	bucket string
	prefix string
}

var mirrorInstance *S3Mirror
var mirrorLock = &sync.Mutex{}

func NewS3Mirror(conf config.MirrorConfig) (*S3Mirror, error) {
	if conf.Endpoint == "" || conf.BucketName == "" || conf.AccessKeyId == "" || conf.AccessSecret == "" {
		return nil, errors.New("invalid configuration: missing s3 mirror options")
	}

	var client *minio.Client
	var err error
	if conf.Region != "" {
		client, err = minio.NewWithRegion(conf.Endpoint, conf.AccessKeyId, conf.AccessSecret, conf.Ssl, conf.Region)
	} else {
		client, err = minio.New(conf.Endpoint, conf.AccessKeyId, conf.AccessSecret, conf.Ssl)
	}
	if err != nil {
		return nil, errors.Wrap(err, "error creating s3 client")
	}

	return &S3Mirror{
		client: client,
		bucket: conf.BucketName,
		prefix: strings.Trim(conf.Prefix, "/"),
	}, nil
}

// Get returns the configured mirror, or nil when mirroring is disabled or
// the mirror could not be created.
func Get() *S3Mirror {
	mirrorLock.Lock()
	defer mirrorLock.Unlock()

	if mirrorInstance != nil {
		return mirrorInstance
	}

	conf := config.Get().Mirror
	if !conf.Enabled {
		return nil
	}

	m, err := NewS3Mirror(conf)
	if err != nil {
		logrus.Error("Error setting up s3 mirror: ", err)
		return nil
	}
	mirrorInstance = m
	return mirrorInstance
}

func Reload() {
	mirrorLock.Lock()
	mirrorInstance = nil
	mirrorLock.Unlock()

	if m := Get(); m != nil {
		if err := m.EnsureBucketExists(); err != nil {
			logrus.Error("S3 mirror bucket check failed: ", err)
		}
	}
}

func (m *S3Mirror) EnsureBucketExists() error {
	found, err := m.client.BucketExists(m.bucket)
	if err != nil {
		return err
	}
	if !found {
		return errors.New("bucket not found")
	}
	return nil
}

// ObjectKey returns the object name a bundle file is mirrored under.
func (m *S3Mirror) ObjectKey(parts ...string) string {
	return objectKey(m.prefix, parts...)
}

func objectKey(prefix string, parts ...string) string {
	return path.Join(append([]string{prefix}, parts...)...)
}

func (m *S3Mirror) MirrorBundle(ctx context.Context, key string, packagePath string, thumbnailPath string) error {
	if err := m.put(ctx, m.ObjectKey(key, types.PackageFileName), packagePath, "application/octet-stream"); err != nil {
		return err
	}
	return m.put(ctx, m.ObjectKey(key, types.ThumbnailFileName), thumbnailPath, "image/png")
}

func (m *S3Mirror) MirrorManifest(ctx context.Context, manifestPath string) error {
	return m.put(ctx, m.ObjectKey(manifestObjectName), manifestPath, "application/json")
}

func (m *S3Mirror) put(ctx context.Context, objectName string, filePath string, contentType string) error {
	n, err := m.client.FPutObjectWithContext(ctx, m.bucket, objectName, filePath, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		metrics.S3Operations.With(prometheus.Labels{"operation": "PutObject", "outcome": "error"}).Inc()
		return errors.Wrap(err, "error mirroring "+objectName)
	}
	metrics.S3Operations.With(prometheus.Labels{"operation": "PutObject", "outcome": "ok"}).Inc()
	logrus.Debugf("Mirrored %d bytes to s3 as %s", n, objectName)
	return nil
}
