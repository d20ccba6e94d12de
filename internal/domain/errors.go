package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a pipeline or vote failure.
type ErrorKind string

const (
	KindInvalidInput          ErrorKind = "InvalidInput"
	KindNameGenerationFailed  ErrorKind = "NameGenerationFailed"
	KindGenerationUnavailable ErrorKind = "GenerationUnavailable"
	KindMalformedGeneration   ErrorKind = "MalformedGeneration"
	KindSchemaViolation       ErrorKind = "SchemaViolation"
	KindRateLimited           ErrorKind = "RateLimited"
	KindNotFound              ErrorKind = "NotFound"
	KindPersistenceError      ErrorKind = "PersistenceError"
)

// ErrSkillNotFound is returned by lookups that match no row.
var ErrSkillNotFound = errors.New("skill not found")

// ValidationIssue describes one field that failed schema validation.
type ValidationIssue struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Error is the typed failure surfaced to HTTP callers. Message is safe to show
// to end users; Err keeps the underlying cause for logs.
type Error struct {
	Kind        ErrorKind
	Message     string
	Issues      []ValidationIssue
	WaitSeconds int
	Err         error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindInvalidInput, KindNameGenerationFailed:
		return http.StatusBadRequest
	case KindSchemaViolation:
		return http.StatusUnprocessableEntity
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// NewError builds an Error of the given kind.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
