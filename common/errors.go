package common

import (
	"errors"
	"fmt"
)

var ErrMissingField = errors.New("missing field")
var ErrInvalidFileType = errors.New("invalid file type")
var ErrInvalidName = errors.New("invalid name")
var ErrMediaTooLarge = errors.New("media too large")
var ErrStorageUnavailable = errors.New("storage unavailable")
var ErrBundleNotFound = errors.New("bundle not found")

// BundleError describes why an upload or listing operation failed. Kind is
// one of the sentinel errors above so callers can use errors.Is.
type BundleError struct {
	Kind  error
	Field string
	// Reason is safe to show to the client.
	Reason string
	Err    error
}

func (e *BundleError) Error() string {
	msg := e.Kind.Error()
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Field)
	}
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *BundleError) Is(target error) bool {
	return target == e.Kind
}

func (e *BundleError) Unwrap() error {
	return e.Err
}

// IsClientError reports whether err was caused by the request rather than
// by the server.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidFileType) ||
		errors.Is(err, ErrInvalidName) ||
		errors.Is(err, ErrMediaTooLarge)
}

func MissingField(field string) error {
	return &BundleError{Kind: ErrMissingField, Field: field, Reason: "the '" + field + "' field is required"}
}

func InvalidFileType(reason string) error {
	return &BundleError{Kind: ErrInvalidFileType, Reason: reason}
}

func InvalidName(reason string) error {
	return &BundleError{Kind: ErrInvalidName, Field: "name", Reason: reason}
}

func TooLarge(field string, reason string) error {
	return &BundleError{Kind: ErrMediaTooLarge, Field: field, Reason: reason}
}

func StorageUnavailable(err error) error {
	return &BundleError{Kind: ErrStorageUnavailable, Reason: "storage is unavailable", Err: err}
}
