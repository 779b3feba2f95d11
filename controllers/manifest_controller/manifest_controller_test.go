package manifest_controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/turt2live/pack-repo/common"
	"github.com/turt2live/pack-repo/common/rcontext"
	"github.com/turt2live/pack-repo/storage"
	"github.com/turt2live/pack-repo/types"
)

type SynchronizerSuite struct {
	suite.Suite
	dir   string
	store *storage.BundleStore
	sync  *Synchronizer
	ctx   rcontext.RequestContext
}

func (s *SynchronizerSuite) SetupTest() {
	var err error
	s.dir = s.T().TempDir()
	s.store, err = storage.NewBundleStore(filepath.Join(s.dir, "uploads"))
	s.Require().NoError(err)
	s.sync, err = NewSynchronizer(s.store, filepath.Join(s.dir, "list.json"), "/packs")
	s.Require().NoError(err)
	s.ctx = rcontext.Initial()
}

func (s *SynchronizerSuite) addBundle(key string) {
	p, err := s.store.BeginPlacement(key)
	s.Require().NoError(err)
	defer p.Abort()
	_, err = p.WritePackage(strings.NewReader("pkg-" + key))
	s.Require().NoError(err)
	_, err = p.WriteThumbnail(strings.NewReader("thumb-" + key))
	s.Require().NoError(err)
	s.Require().NoError(p.Commit())
}

func (s *SynchronizerSuite) readManifest() []*types.ManifestEntry {
	b, err := ioutil.ReadFile(s.sync.ManifestPath())
	s.Require().NoError(err)
	entries := make([]*types.ManifestEntry, 0)
	s.Require().NoError(json.Unmarshal(b, &entries))
	return entries
}

func (s *SynchronizerSuite) TestEmptyRoot() {
	entries, err := s.sync.Sync(s.ctx)
	s.Require().NoError(err)
	s.Empty(entries)

	b, err := ioutil.ReadFile(s.sync.ManifestPath())
	s.Require().NoError(err)
	s.Equal("[]", string(b))
}

func (s *SynchronizerSuite) TestEntriesAndFormat() {
	s.addBundle("zeta")
	s.addBundle("alpha")

	_, err := s.sync.Sync(s.ctx)
	s.Require().NoError(err)

	b, err := ioutil.ReadFile(s.sync.ManifestPath())
	s.Require().NoError(err)
	expected := `[
    {
        "name": "alpha",
        "package": "/packs/alpha/package.pck",
        "thumbnail": "/packs/alpha/thumbnail.png"
    },
    {
        "name": "zeta",
        "package": "/packs/zeta/package.pck",
        "thumbnail": "/packs/zeta/thumbnail.png"
    }
]`
	s.Equal(expected, string(b))
}

func (s *SynchronizerSuite) TestSkipsFilesAndHiddenEntries() {
	s.addBundle("alpha")
	s.Require().NoError(os.Mkdir(filepath.Join(s.store.Root(), ".staging-abc"), 0755))
	s.Require().NoError(ioutil.WriteFile(filepath.Join(s.store.Root(), "loose.pck"), []byte("x"), 0644))

	entries, err := s.sync.Sync(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("alpha", entries[0].Name)
}

func (s *SynchronizerSuite) TestIdempotent() {
	s.addBundle("alpha")
	s.addBundle("beta")

	_, err := s.sync.Sync(s.ctx)
	s.Require().NoError(err)
	first, err := ioutil.ReadFile(s.sync.ManifestPath())
	s.Require().NoError(err)

	_, err = s.sync.Sync(s.ctx)
	s.Require().NoError(err)
	second, err := ioutil.ReadFile(s.sync.ManifestPath())
	s.Require().NoError(err)

	s.Equal(first, second)
}

func (s *SynchronizerSuite) TestReflectsOutOfBandRemoval() {
	s.addBundle("alpha")
	s.addBundle("beta")
	_, err := s.sync.Sync(s.ctx)
	s.Require().NoError(err)

	s.Require().NoError(os.RemoveAll(s.store.BundleDir("alpha")))
	_, err = s.sync.Sync(s.ctx)
	s.Require().NoError(err)

	entries := s.readManifest()
	s.Require().Len(entries, 1)
	s.Equal("beta", entries[0].Name)
}

func (s *SynchronizerSuite) TestEnsureExistsBootstraps() {
	s.addBundle("alpha")
	s.addBundle("beta")

	created, err := s.sync.EnsureExists(s.ctx)
	s.Require().NoError(err)
	s.True(created)
	s.Len(s.readManifest(), 2)

	// An existing manifest is left alone, even if stale
	s.addBundle("gamma")
	created, err = s.sync.EnsureExists(s.ctx)
	s.Require().NoError(err)
	s.False(created)
	s.Len(s.readManifest(), 2)
}

func (s *SynchronizerSuite) TestReadBootstraps() {
	s.addBundle("alpha")

	b, err := s.sync.Read(s.ctx)
	s.Require().NoError(err)

	entries := make([]*types.ManifestEntry, 0)
	s.Require().NoError(json.Unmarshal(b, &entries))
	s.Require().Len(entries, 1)
	s.Equal("/packs/alpha/thumbnail.png", entries[0].Thumbnail)
}

func (s *SynchronizerSuite) TestUnreadableRoot() {
	s.Require().NoError(os.RemoveAll(s.store.Root()))

	_, err := s.sync.Sync(s.ctx)
	s.Require().Error(err)
	s.True(errors.Is(err, common.ErrStorageUnavailable))

	exists, _ := os.Stat(s.sync.ManifestPath())
	s.Nil(exists, "a failed sync must not write a manifest")
}

func (s *SynchronizerSuite) TestConcurrentSyncs() {
	for i := 0; i < 10; i++ {
		s.addBundle(fmt.Sprintf("bundle_%02d", i))
	}

	wg := sync.WaitGroup{}
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.sync.Sync(s.ctx)
			assert.NoError(s.T(), err)
		}()
	}
	wg.Wait()

	entries := s.readManifest()
	s.Len(entries, 10)

	files, err := os.ReadDir(s.dir)
	s.Require().NoError(err)
	s.Len(files, 2, "only the storage root and the manifest should remain")
}

func TestSynchronizerSuite(t *testing.T) {
	suite.Run(t, new(SynchronizerSuite))
}

func TestPublicPaths(t *testing.T) {
	store, err := storage.NewBundleStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	for _, prefix := range []string{"/packs", "packs", "/packs/"} {
		s, err := NewSynchronizer(store, filepath.Join(t.TempDir(), "list.json"), prefix)
		require.NoError(t, err)
		assert.Equal(t, "/packs/alpha/", s.PublicFolder("alpha"))
		assert.Equal(t, "/packs/alpha/package.pck", s.entryFor("alpha").Package)
	}

	s, err := NewSynchronizer(store, filepath.Join(t.TempDir(), "list.json"), "")
	require.NoError(t, err)
	assert.Equal(t, "/alpha/", s.PublicFolder("alpha"))
}
