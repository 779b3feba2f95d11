package cleanup

import (
	"io"
)

// DumpAndCloseStream drains and closes r so the underlying connection or
// temp file can be reused. Safe to call with nil.
func DumpAndCloseStream(r io.ReadCloser) {
	if r == nil {
		return // nothing to dump or close
	}
	_, _ = io.Copy(io.Discard, r)
	_ = r.Close()
}
