// Package gateway defines the failure taxonomy shared by every store-backed
// repository. Repositories wrap one of these sentinels so callers can branch
// with errors.Is regardless of the backing driver.
package gateway

import "errors"

var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrTransientNetwork = errors.New("transient network failure")
)

// IsRetryable reports whether err is worth retrying with a fresh call.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientNetwork)
}
