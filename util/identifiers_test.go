package util

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/turt2live/pack-repo/common"
)

func TestSanitizeBundleName(t *testing.T) {
	assert.Equal(t, "my_pack", SanitizeBundleName("my pack"))
	assert.Equal(t, "My-Pack_1", SanitizeBundleName("My-Pack_1"))
	assert.Equal(t, "caf_", SanitizeBundleName("café"))
	assert.Equal(t, "a_b", SanitizeBundleName("  a.b  "))
}

func TestBundleKey(t *testing.T) {
	key, err := BundleKey("my pack", 128)
	assert.NoError(t, err)
	assert.Equal(t, "my_pack", key)

	key, err = BundleKey("pack.v2", 128)
	assert.NoError(t, err)
	assert.Equal(t, "pack_v2", key)
}

func TestBundleKeyRejections(t *testing.T) {
	cases := map[string]error{
		"":             common.ErrMissingField,
		"   ":          common.ErrMissingField,
		"../etc":       common.ErrInvalidName,
		"..":           common.ErrInvalidName,
		"a/b":          common.ErrInvalidName,
		"a\\b":         common.ErrInvalidName,
		"a\x00b":       common.ErrInvalidName,
		"___":          common.ErrInvalidName,
		"!!!":          common.ErrInvalidName,
		"-":            common.ErrInvalidName,
		"dots..inside": common.ErrInvalidName,
	}
	for name, expected := range cases {
		_, err := BundleKey(name, 128)
		assert.Truef(t, errors.Is(err, expected), "%q: expected %v, got %v", name, expected, err)
	}
}

func TestBundleKeyMaxLength(t *testing.T) {
	_, err := BundleKey(strings.Repeat("a", 10), 10)
	assert.NoError(t, err)

	_, err = BundleKey(strings.Repeat("a", 11), 10)
	assert.True(t, errors.Is(err, common.ErrInvalidName))

	_, err = BundleKey(strings.Repeat("a", 500), 0)
	assert.NoError(t, err, "a zero limit disables the length check")
}

func TestIsBundleKey(t *testing.T) {
	assert.True(t, IsBundleKey("my_pack-1"))
	assert.False(t, IsBundleKey(""))
	assert.False(t, IsBundleKey(".staging-123"))
	assert.False(t, IsBundleKey("a/b"))
	assert.False(t, IsBundleKey(".."))
}
