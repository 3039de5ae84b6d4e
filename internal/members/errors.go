package members

import (
	"errors"
	"fmt"
)

// ErrorKind classifies operation failures for the transport layer.
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindConflict       ErrorKind = "conflict"
	KindAuthentication ErrorKind = "authentication"
	KindAuthorization  ErrorKind = "authorization"
	KindNotFound       ErrorKind = "not_found"
	KindProvider       ErrorKind = "provider"
	KindStore          ErrorKind = "store"
	KindUnknown        ErrorKind = "unknown"
)

var (
	errUnauthenticated = errors.New("authentication required")
	errNotAdmin        = errors.New("admin privileges required")
	errUserExists      = errors.New("user already exists")
	errUserNotFound    = errors.New("user not found")
	errNoFields        = errors.New("at least one field is required")
)

// ServiceError carries the failure kind and a stable code of the form operation.reason.
type ServiceError struct {
	kind ErrorKind
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

func (e *ServiceError) Kind() ErrorKind {
	return e.kind
}

// Message returns the underlying failure message without the code prefix.
func (e *ServiceError) Message() string {
	if e.err == nil {
		return e.code
	}
	return e.err.Error()
}

func newServiceError(kind ErrorKind, operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{kind: kind, code: code, err: cause}
}

// KindOf reports the kind of a ServiceError anywhere in the chain.
func KindOf(err error) ErrorKind {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.kind
	}
	return KindUnknown
}
