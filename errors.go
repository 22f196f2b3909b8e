package daolite

import (
	"errors"
	"fmt"
)

// ErrOpen is the sentinel matched by every engine-open failure.
var ErrOpen = errors.New("daolite: cannot open database")

// OpenError reports the single fatal failure in the system: the embedded
// engine could not be opened. All later failures are logged and reported
// through return values instead.
type OpenError struct {
	URL string
	err error
}

// Error returns the error string.
func (e *OpenError) Error() string {
	return fmt.Sprintf("daolite: open %q: %v", e.URL, e.err)
}

// Unwrap returns the underlying engine error.
func (e *OpenError) Unwrap() error { return e.err }

// Is reports whether the target matches ErrOpen.
func (e *OpenError) Is(err error) bool { return err == ErrOpen }

// IsOpenError returns true if the error originates from Open.
func IsOpenError(err error) bool {
	if err == nil {
		return false
	}
	var e *OpenError
	return errors.As(err, &e) || errors.Is(err, ErrOpen)
}
