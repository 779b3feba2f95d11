package api

import (
	"errors"

	"github.com/turt2live/pack-repo/common"
)

type EmptyResponse struct{}

type DoNotCacheResponse struct {
	Payload interface{}
}

// RawJsonResponse is written to the client exactly as given.
type RawJsonResponse struct {
	Body []byte
}

type ErrorResponse struct {
	Code         string `json:"errcode"`
	Message      string `json:"error"`
	InternalCode string `json:"-"`
}

func InternalServerError(message string) *ErrorResponse {
	return &ErrorResponse{common.ErrCodeUnknown, message, common.ErrCodeUnknown}
}

func StorageUnavailable() *ErrorResponse {
	return &ErrorResponse{common.ErrCodeStorageUnavailable, "Storage unavailable", common.ErrCodeStorageUnavailable}
}

func MethodNotAllowed() *ErrorResponse {
	return &ErrorResponse{common.ErrCodeMethodNotAllowed, "Method Not Allowed", common.ErrCodeMethodNotAllowed}
}

func RateLimitReached() *ErrorResponse {
	return &ErrorResponse{common.ErrCodeRateLimitExceeded, "Rate Limited", common.ErrCodeRateLimitExceeded}
}

func NotFoundError() *ErrorResponse {
	return &ErrorResponse{common.ErrCodeNotFound, "Not found", common.ErrCodeNotFound}
}

func RequestTooLarge() *ErrorResponse {
	return &ErrorResponse{common.ErrCodeTooLarge, "Too Large", common.ErrCodeTooLarge}
}

func BadRequest(message string) *ErrorResponse {
	return &ErrorResponse{common.ErrCodeBadRequest, message, common.ErrCodeBadRequest}
}

// ErrorFor converts an error from the controllers into a response. Only
// the client-safe reason of a BundleError is exposed.
func ErrorFor(err error) *ErrorResponse {
	var be *common.BundleError
	message := ""
	if errors.As(err, &be) {
		message = be.Reason
	}

	code := common.ErrCodeUnknown
	switch {
	case errors.Is(err, common.ErrMissingField):
		code = common.ErrCodeMissingField
	case errors.Is(err, common.ErrInvalidFileType):
		code = common.ErrCodeInvalidFileType
	case errors.Is(err, common.ErrInvalidName):
		code = common.ErrCodeInvalidName
	case errors.Is(err, common.ErrMediaTooLarge):
		code = common.ErrCodeTooLarge
	case errors.Is(err, common.ErrBundleNotFound):
		return NotFoundError()
	case errors.Is(err, common.ErrStorageUnavailable):
		return StorageUnavailable()
	default:
		return InternalServerError("Unexpected error")
	}

	if message == "" {
		message = err.Error()
	}
	return &ErrorResponse{code, message, code}
}
