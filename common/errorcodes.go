package common

const ErrCodeMissingField = "P_MISSING_FIELD"
const ErrCodeInvalidFileType = "P_INVALID_FILE_TYPE"
const ErrCodeInvalidName = "P_INVALID_NAME"
const ErrCodeTooLarge = "P_TOO_LARGE"
const ErrCodeStorageUnavailable = "P_STORAGE_UNAVAILABLE"
const ErrCodeNotFound = "P_NOT_FOUND"
const ErrCodeMethodNotAllowed = "P_METHOD_NOT_ALLOWED"
const ErrCodeBadRequest = "P_BAD_REQUEST"
const ErrCodeRateLimitExceeded = "P_LIMIT_EXCEEDED"
const ErrCodeUnknown = "P_UNKNOWN"
