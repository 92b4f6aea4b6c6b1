package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrConflict         = errors.New("collaborator rejected the request with a conflict")
	ErrUnavailable      = errors.New("collaborator temporarily unavailable")
	ErrTransport        = errors.New("collaborator unreachable")
	ErrUnexpectedStatus = errors.New("unexpected collaborator response")
)

// StatusError is returned when a collaborator answered with a status the
// caller did not ask for. Message carries the collaborator's {message}
// text when the body had one.
type StatusError struct {
	Code    int
	Message string
	kind    error
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (status %d): %s", e.kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s (status %d)", e.kind, e.Code)
}

func (e *StatusError) Unwrap() error {
	return e.kind
}

func newStatusError(code int, message string) *StatusError {
	kind := ErrUnexpectedStatus
	switch code {
	case http.StatusConflict:
		kind = ErrConflict
	case http.StatusServiceUnavailable:
		kind = ErrUnavailable
	}
	return &StatusError{Code: code, Message: message, kind: kind}
}
