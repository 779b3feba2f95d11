package util

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/turt2live/pack-repo/common"
)

var disallowedKeyChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)
var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
var alphanumeric = regexp.MustCompile(`[A-Za-z0-9]`)

// SanitizeBundleName replaces every character outside [A-Za-z0-9_-] with
// an underscore. The name is trimmed first.
func SanitizeBundleName(name string) string {
	return disallowedKeyChars.ReplaceAllString(strings.TrimSpace(name), "_")
}

// BundleKey validates a caller-supplied bundle name and returns the
// storage key for it. Names that would lose their meaning or escape the
// storage root once sanitized are rejected instead of being mangled.
func BundleKey(name string, maxLength int) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", common.MissingField("name")
	}

	if strings.ContainsAny(trimmed, "/\\\x00") || strings.Contains(trimmed, "..") {
		return "", common.InvalidName("names may not contain path separators or '..'")
	}

	key := SanitizeBundleName(trimmed)
	if !alphanumeric.MatchString(key) {
		return "", common.InvalidName("names must contain at least one letter or digit")
	}
	if maxLength > 0 && len(key) > maxLength {
		return "", common.InvalidName(fmt.Sprintf("names may be at most %d characters", maxLength))
	}

	return key, nil
}

// IsBundleKey reports whether s is already a sanitized storage key.
func IsBundleKey(s string) bool {
	return keyPattern.MatchString(s)
}
