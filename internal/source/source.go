// Package source supplies observed response headers to the checker: live
// over HTTP, from a replay file, or both while recording.
package source

import (
	"errors"
	"fmt"

	sharedErrors "github.com/khanhnv2901/seca-headers/internal/shared/errors"
)

// FetchError reports that headers for Target could not be obtained.
type FetchError struct {
	Target string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Target, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is makes every FetchError match ErrFetchFailed.
func (e *FetchError) Is(target error) bool {
	return target == sharedErrors.ErrFetchFailed
}

// IsFetchError reports whether err is, or wraps, a FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
