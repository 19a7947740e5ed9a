package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("catalog service not available")
)

// RemoteError is any non-2xx, non-404 response (or transport failure) from
// the remote catalog. Batch operations catch it per item; single-item
// operations propagate it to the caller.
type RemoteError struct {
	Op         string // catalog operation, e.g. "createTable"
	StatusCode int    // 0 for transport-level failures
	Message    string
	Err        error // underlying transport error, if any
}

func (e *RemoteError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("catalog %s: status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("catalog %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("catalog %s: %s", e.Op, e.Message)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// IsRetryable reports whether the failure is transient. Transport failures
// and throttling/server statuses are worth retrying; client errors are not.
func (e *RemoteError) IsRetryable() bool {
	if e.StatusCode == 0 {
		return true
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsAuthFailure reports whether the remote rejected our credentials.
// Repeated auth failures trip the batch circuit breaker.
func IsAuthFailure(err error) bool {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.StatusCode == http.StatusUnauthorized || re.StatusCode == http.StatusForbidden
	}
	return false
}
