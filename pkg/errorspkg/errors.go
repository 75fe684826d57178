// Package errorspkg provides common app errors.
package errorspkg

import "errors"

// ErrInternal indicates internal server error.
var ErrInternal = errors.New("internal")

// ErrUnavailable indicates that the store could not complete the operation
// in time. The caller may retry; the store adapter owns any retry policy.
var ErrUnavailable = errors.New("service unavailable")
