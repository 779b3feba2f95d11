package util

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

func FileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// WriteFileAtomic writes b next to path and renames it into place, so
// readers see either the old or the new content, never a partial write.
func WriteFileAtomic(path string, b []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := ioutil.TempFile(dir, "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return errors.Wrap(err, "error creating temporary file")
	}
	tmpName := tmp.Name()
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(b); err != nil {
		return errors.Wrap(err, "error writing temporary file")
	}
	if err = tmp.Sync(); err != nil {
		return errors.Wrap(err, "error syncing temporary file")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "error closing temporary file")
	}
	if err = os.Chmod(tmpName, perm); err != nil {
		return errors.Wrap(err, "error setting file mode")
	}
	if err = os.Rename(tmpName, path); err != nil {
		return errors.Wrap(err, "error replacing file")
	}

	success = true
	return nil
}

// CopyFile copies src over dst, creating or truncating dst.
func CopyFile(src string, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err = out.Sync(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
