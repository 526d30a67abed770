package service

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrDuplicate is returned when the gateway rejects a reused idempotency token.
	ErrDuplicate = errors.New("duplicate request")

	// ErrUnauthorized is returned when the credential was rejected or has expired.
	ErrUnauthorized = errors.New("session expired or invalid")

	// ErrNotFound is returned when the task does not exist on the gateway.
	ErrNotFound = errors.New("not found")
)

// StatusError is a non-2xx gateway response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway returned %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("gateway returned %d", e.Code)
}

// Unwrap maps well-known status codes onto the sentinel errors.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusConflict:
		return ErrDuplicate
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}
