package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies failures surfaced by the pipeline and its services.
type Kind int

const (
	Unknown Kind = iota
	NotFound
	InvalidInput
	MalformedAIResponse
	ValidationFailure
	PersistenceFailure
	Conflict
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case InvalidInput:
		return "invalid_input"
	case MalformedAIResponse:
		return "malformed_ai_response"
	case ValidationFailure:
		return "validation_failure"
	case PersistenceFailure:
		return "persistence_failure"
	case Conflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Status is the HTTP status a Kind maps to.
func (k Kind) Status() int {
	switch k {
	case NotFound:
		return http.StatusNotFound
	case InvalidInput:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	case MalformedAIResponse, ValidationFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether a task that failed with this kind may be attempted again.
func (k Kind) Retryable() bool {
	switch k {
	case NotFound, InvalidInput, Conflict:
		return false
	default:
		return true
	}
}

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Op != "" && e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Err.Error()
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// E wraps err with a kind and the operation that produced it.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf is E with a formatted message as the cause.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the outermost Kind in err's chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) && e != nil {
		if e.Kind == Unknown && e.Err != nil {
			return KindOf(e.Err)
		}
		return e.Kind
	}
	return Unknown
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
