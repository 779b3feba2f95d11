package storage

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/turt2live/pack-repo/common"
	"github.com/turt2live/pack-repo/types"
	"github.com/turt2live/pack-repo/util"
)

const stagingPrefix = ".staging-"

// BundleStore is a directory containing one sub-directory per bundle. The
// directory listing is the only record of which bundles exist.
type BundleStore struct {
	root  string
	locks *keyedLocks
}

func NewBundleStore(root string) (*BundleStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, "error resolving storage root")
	}
	if err = os.MkdirAll(abs, 0755); err != nil {
		return nil, errors.Wrap(err, "error creating storage root")
	}
	return &BundleStore{root: abs, locks: newKeyedLocks()}, nil
}

func (s *BundleStore) Root() string {
	return s.root
}

func (s *BundleStore) BundleDir(key string) string {
	return filepath.Join(s.root, key)
}

func (s *BundleStore) PackagePath(key string) string {
	return filepath.Join(s.root, key, types.PackageFileName)
}

func (s *BundleStore) ThumbnailPath(key string) string {
	return filepath.Join(s.root, key, types.ThumbnailFileName)
}

// LockBundle serializes mutations of a single bundle. The returned function
// releases the lock and may be called more than once.
func (s *BundleStore) LockBundle(key string) func() {
	return s.locks.Lock(key)
}

// ListBundles returns the names of the immediate sub-directories of the
// root, sorted. Regular files and hidden entries (including in-flight
// staging directories) are skipped.
func (s *BundleStore) ListBundles() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, errors.Wrap(err, "error reading storage root")
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		isDir := e.IsDir()
		if e.Type()&os.ModeSymlink != 0 {
			info, err := os.Stat(filepath.Join(s.root, e.Name()))
			isDir = err == nil && info.IsDir()
		}
		if !isDir {
			continue
		}
		names = append(names, e.Name())
	}

	sort.Strings(names)
	return names, nil
}

// OpenBundleFile opens one of the two fixed files of a bundle.
func (s *BundleStore) OpenBundleFile(key string, fileName string) (*os.File, os.FileInfo, error) {
	if !util.IsBundleKey(key) || (fileName != types.PackageFileName && fileName != types.ThumbnailFileName) {
		return nil, nil, common.ErrBundleNotFound
	}

	f, err := os.Open(filepath.Join(s.root, key, fileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, common.ErrBundleNotFound
		}
		return nil, nil, errors.Wrap(err, "error opening bundle file")
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, errors.Wrap(err, "error inspecting bundle file")
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, nil, common.ErrBundleNotFound
	}
	return f, info, nil
}

// Placement stages the files of one bundle inside the storage root before
// they are committed to the bundle's directory.
type Placement struct {
	store   *BundleStore
	key     string
	staging string
}

// BeginPlacement creates a hidden staging directory for key. The caller
// should hold the bundle's lock and must call Abort when done, even after
// a successful Commit.
func (s *BundleStore) BeginPlacement(key string) (*Placement, error) {
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return nil, errors.Wrap(err, "error creating storage root")
	}
	staging, err := ioutil.TempDir(s.root, stagingPrefix)
	if err != nil {
		return nil, errors.Wrap(err, "error creating staging directory")
	}
	return &Placement{store: s, key: key, staging: staging}, nil
}

func (p *Placement) WritePackage(r io.Reader) (int64, error) {
	return p.write(types.PackageFileName, r)
}

func (p *Placement) WriteThumbnail(r io.Reader) (int64, error) {
	return p.write(types.ThumbnailFileName, r)
}

// CopyThumbnailFrom stages a copy of an existing file as the thumbnail.
func (p *Placement) CopyThumbnailFrom(path string) error {
	err := util.CopyFile(path, filepath.Join(p.staging, types.ThumbnailFileName))
	return errors.Wrap(err, "error copying thumbnail")
}

func (p *Placement) write(name string, r io.Reader) (int64, error) {
	f, err := os.OpenFile(filepath.Join(p.staging, name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return 0, errors.Wrap(err, "error creating "+name)
	}

	n, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		return n, errors.Wrap(err, "error writing "+name)
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		return n, errors.Wrap(err, "error syncing "+name)
	}
	return n, errors.Wrap(f.Close(), "error closing "+name)
}

// Commit moves the staged files into the bundle's directory. A new bundle
// appears in a single rename; an existing one has each file replaced.
func (p *Placement) Commit() error {
	target := p.store.BundleDir(p.key)

	info, err := os.Stat(target)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "error inspecting bundle directory")
	}
	if err == nil && !info.IsDir() {
		return errors.New("bundle path exists and is not a directory: " + target)
	}

	if os.IsNotExist(err) {
		if err = os.Chmod(p.staging, 0755); err != nil {
			return errors.Wrap(err, "error preparing bundle directory")
		}
		if err = os.Rename(p.staging, target); err == nil {
			p.staging = ""
			return nil
		}
		// Something created the directory out of band; fall back to
		// replacing the files one at a time.
		if err = os.MkdirAll(target, 0755); err != nil {
			return errors.Wrap(err, "error creating bundle directory")
		}
	}

	for _, name := range []string{types.PackageFileName, types.ThumbnailFileName} {
		if err = os.Rename(filepath.Join(p.staging, name), filepath.Join(target, name)); err != nil {
			return errors.Wrap(err, "error replacing "+name)
		}
	}
	return nil
}

// Abort removes whatever is left of the staging directory.
func (p *Placement) Abort() {
	if p.staging == "" {
		return
	}
	_ = os.RemoveAll(p.staging)
	p.staging = ""
}
