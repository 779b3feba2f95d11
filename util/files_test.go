package util

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "list.json")

	require.NoError(t, WriteFileAtomic(p, []byte("first"), 0644))
	b, err := ioutil.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "first", string(b))

	require.NoError(t, WriteFileAtomic(p, []byte("second"), 0644))
	b, err = ioutil.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "second", string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files should not be left behind")
}

func TestWriteFileAtomicMissingDirectory(t *testing.T) {
	p := filepath.Join(t.TempDir(), "missing", "list.json")
	assert.Error(t, WriteFileAtomic(p, []byte("x"), 0644))
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, ioutil.WriteFile(src, []byte("hello"), 0644))
	require.NoError(t, ioutil.WriteFile(dst, []byte("something longer"), 0644))

	require.NoError(t, CopyFile(src, dst))
	b, err := ioutil.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	exists, err := FileExists(filepath.Join(dir, "nope"))
	assert.NoError(t, err)
	assert.False(t, exists)

	exists, err = FileExists(dir)
	assert.NoError(t, err)
	assert.True(t, exists)
}
