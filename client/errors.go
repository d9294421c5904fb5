package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound matches a *ServiceError with status 404.
	ErrNotFound = errors.New("not found")
	// ErrConflict matches a *ServiceError with status 409.
	ErrConflict = errors.New("conflict")
	// ErrNetworkUnreachable matches every *NetworkError.
	ErrNetworkUnreachable = errors.New("network unreachable")
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")
)

// ValidationError is a precondition that failed before any request was sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ServiceError is a response outside the 2xx range.
type ServiceError struct {
	Status int
	Body   string
	// Message is the "error" field of a JSON body, when present.
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("service error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("service error %d: %s", e.Status, http.StatusText(e.Status))
}

func (e *ServiceError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	}
	return false
}

// NetworkError means no response was received.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetworkUnreachable
}
