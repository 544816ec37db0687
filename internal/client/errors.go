package client

import "errors"

// TransientError wraps a transport failure that may succeed on a later
// attempt: network errors, timeouts, HTTP 5xx. Everything else (4xx, bad
// config) is permanent and returned as a plain error.
type TransientError struct {
	err error
}

func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{err: err}
}

func (e *TransientError) Error() string { return e.err.Error() }

func (e *TransientError) Unwrap() error { return e.err }

func IsTransientError(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
