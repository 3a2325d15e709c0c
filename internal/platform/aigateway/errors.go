package aigateway

import (
	"errors"

	"github.com/luisquicidev/easydiet-backend/internal/platform/httpx"
)

// TransientError is a provider failure that may succeed on retry or on
// another provider: timeouts, 408, 429 and 5xx.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string { return e.err.Error() }
func (e *TransientError) Unwrap() error { return e.err }

func NewTransientError(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{err: err}
}

// FatalError is a provider failure no retry will fix, e.g. bad credentials.
type FatalError struct {
	err error
}

func (e *FatalError) Error() string { return e.err.Error() }
func (e *FatalError) Unwrap() error { return e.err }

func NewFatalError(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{err: err}
}

func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// Classify wraps a transport error as transient or fatal.
func Classify(err error) error {
	if err == nil || IsTransient(err) || IsFatal(err) {
		return err
	}
	if httpx.IsRetryableError(err) {
		return NewTransientError(err)
	}
	var sc httpx.HTTPStatusCoder
	if errors.As(err, &sc) {
		return NewFatalError(err)
	}
	return err
}
