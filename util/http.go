package util

import (
	"net/http"
	"strings"
)

func GetLogSafeQueryString(r *http.Request) string {
	return r.URL.Query().Encode()
}

// ContentLengthOf estimates the body size of r, or -1 when unknown.
func ContentLengthOf(r *http.Request) int64 {
	if r.ContentLength > 0 {
		return r.ContentLength
	}
	return -1
}

func IsMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data")
}
