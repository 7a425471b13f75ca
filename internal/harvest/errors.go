package harvest

import "errors"

// fatalError marks a failure that retrying cannot fix, such as broken
// configuration. The retry loop aborts the topic instead of backing off.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }

func (e *fatalError) Unwrap() error { return e.err }

// Fatal wraps err so IsFatal reports true. A nil err returns nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// IsFatal reports whether err (or anything it wraps) was marked fatal.
// Transient session, network, and render failures are everything else.
func IsFatal(err error) bool {
	var fe *fatalError
	return errors.As(err, &fe)
}
