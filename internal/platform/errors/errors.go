package errors

import "errors"

// Error is the domain error type with structured metadata.
type Error struct {
	Code      Code              // Machine-readable error code
	Kind      Kind              // Propagation-policy classification
	Message   string            // Internal message (for logs/telemetry)
	Metadata  map[string]string // Additional context for templating
	Retryable bool              // Whether the UI should offer a retry
	Cause     error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error with a code and message. Kind and retryability
// derive from the code.
func New(code Code, message string) *Error {
	return &Error{
		Code:      code,
		Kind:      KindOf(code),
		Message:   message,
		Retryable: RetryableOf(code),
	}
}

// WithMetadata creates a domain error with metadata for message templating.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	e := New(code, message)
	e.Metadata = metadata
	return e
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	e := New(code, message)
	e.Cause = cause
	return e
}

// GetCode extracts the code from an error chain, or CodeUnknown.
func GetCode(err error) Code {
	var domain *Error
	if errors.As(err, &domain) {
		return domain.Code
	}
	return CodeUnknown
}

// GetKind extracts the kind from an error chain, or KindServer.
func GetKind(err error) Kind {
	var domain *Error
	if errors.As(err, &domain) {
		return domain.Kind
	}
	return KindServer
}

// IsRetryable reports whether an error chain carries a retryable domain error.
func IsRetryable(err error) bool {
	var domain *Error
	if errors.As(err, &domain) {
		return domain.Retryable
	}
	return false
}

// As is a convenience wrapper extracting the domain error from a chain.
func As(err error) (*Error, bool) {
	var domain *Error
	ok := errors.As(err, &domain)
	return domain, ok
}
