package manifest_controller

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/turt2live/pack-repo/common"
	"github.com/turt2live/pack-repo/common/config"
	"github.com/turt2live/pack-repo/common/rcontext"
	"github.com/turt2live/pack-repo/metrics"
	"github.com/turt2live/pack-repo/storage"
	"github.com/turt2live/pack-repo/types"
	"github.com/turt2live/pack-repo/util"
)

// Synchronizer owns the manifest file. It is the only writer, and every
// write is a full rescan of the storage root.
type Synchronizer struct {
	store        *storage.BundleStore
	manifestPath string
	publicPrefix string
	lock         sync.Mutex
}

func NewSynchronizer(store *storage.BundleStore, manifestPath string, publicPrefix string) (*Synchronizer, error) {
	abs, err := filepath.Abs(manifestPath)
	if err != nil {
		return nil, errors.Wrap(err, "error resolving manifest path")
	}
	if publicPrefix == "" {
		publicPrefix = "/"
	}
	return &Synchronizer{
		store:        store,
		manifestPath: abs,
		publicPrefix: publicPrefix,
	}, nil
}

func (s *Synchronizer) ManifestPath() string {
	return s.manifestPath
}

// PublicFolder is the public path of a bundle's directory, with a trailing slash.
func (s *Synchronizer) PublicFolder(key string) string {
	return path.Join("/", s.publicPrefix, key) + "/"
}

func (s *Synchronizer) entryFor(key string) *types.ManifestEntry {
	return &types.ManifestEntry{
		Name:      key,
		Package:   path.Join("/", s.publicPrefix, key, types.PackageFileName),
		Thumbnail: path.Join("/", s.publicPrefix, key, types.ThumbnailFileName),
	}
}

// Entries computes what the manifest should contain right now without
// writing anything.
func (s *Synchronizer) Entries() ([]*types.ManifestEntry, error) {
	names, err := s.store.ListBundles()
	if err != nil {
		return nil, common.StorageUnavailable(err)
	}

	entries := make([]*types.ManifestEntry, 0, len(names))
	for _, n := range names {
		entries = append(entries, s.entryFor(n))
	}
	return entries, nil
}

// Sync rescans the storage root and atomically replaces the manifest.
func (s *Synchronizer) Sync(ctx rcontext.RequestContext) ([]*types.ManifestEntry, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.syncLocked(ctx)
}

func (s *Synchronizer) syncLocked(ctx rcontext.RequestContext) ([]*types.ManifestEntry, error) {
	entries, err := s.Entries()
	if err != nil {
		metrics.ManifestRegenerations.With(prometheus.Labels{"outcome": "error"}).Inc()
		return nil, err
	}

	b, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		metrics.ManifestRegenerations.With(prometheus.Labels{"outcome": "error"}).Inc()
		return nil, common.StorageUnavailable(err)
	}

	if err = os.MkdirAll(filepath.Dir(s.manifestPath), 0755); err != nil {
		metrics.ManifestRegenerations.With(prometheus.Labels{"outcome": "error"}).Inc()
		return nil, common.StorageUnavailable(err)
	}
	if err = util.WriteFileAtomic(s.manifestPath, b, 0644); err != nil {
		metrics.ManifestRegenerations.With(prometheus.Labels{"outcome": "error"}).Inc()
		return nil, common.StorageUnavailable(err)
	}

	metrics.ManifestRegenerations.With(prometheus.Labels{"outcome": "ok"}).Inc()
	metrics.ManifestEntries.Set(float64(len(entries)))
	ctx.Log.Infof("Manifest regenerated with %d entries", len(entries))
	return entries, nil
}

// EnsureExists writes the manifest if it is missing. It reports whether a
// new manifest was written.
func (s *Synchronizer) EnsureExists(ctx rcontext.RequestContext) (bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	exists, err := util.FileExists(s.manifestPath)
	if err != nil {
		return false, common.StorageUnavailable(err)
	}
	if exists {
		return false, nil
	}

	ctx.Log.Info("Manifest does not exist - generating from ", s.store.Root())
	if _, err = s.syncLocked(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Read returns the manifest as it is on disk, generating it first if it
// doesn't exist yet.
func (s *Synchronizer) Read(ctx rcontext.RequestContext) ([]byte, error) {
	if _, err := s.EnsureExists(ctx); err != nil {
		return nil, err
	}

	b, err := ioutil.ReadFile(s.manifestPath)
	if err != nil {
		return nil, common.StorageUnavailable(err)
	}
	return b, nil
}

var instance *Synchronizer
var instanceLock = &sync.Mutex{}

// Get returns the synchronizer for the configured storage root.
func Get() *Synchronizer {
	instanceLock.Lock()
	defer instanceLock.Unlock()

	if instance == nil {
		s, err := NewSynchronizer(storage.GetBundleStore(), config.Get().Storage.ManifestPath, config.Get().Storage.PublicPrefix)
		if err != nil {
			panic(err)
		}
		instance = s
	}
	return instance
}

func Reload() {
	instanceLock.Lock()
	instance = nil
	instanceLock.Unlock()
}

func init() {
	metrics.OnBeforeMetricsRequested(func() {
		instanceLock.Lock()
		s := instance
		instanceLock.Unlock()
		if s == nil {
			return
		}
		if names, err := s.store.ListBundles(); err == nil {
			metrics.ManifestEntries.Set(float64(len(names)))
		}
	})
}
