package checkout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brunorcoelho/storefront/internal/client"
)

var (
	ErrSubmitInFlight     = errors.New("an order submission is already in flight")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrServiceUnavailable = errors.New("order service unavailable")
	ErrStaleSubmission    = errors.New("order response arrived after the session moved on")
	ErrProductNotFound    = errors.New("product not found in catalog")
	ErrInvalidProductID   = errors.New("invalid product id")
)

// ValidationError lists the customer fields that block a submission.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.Fields, ", "))
}

type FailureKind string

const (
	FailureConflict    FailureKind = "conflict"
	FailureUnavailable FailureKind = "unavailable"
	FailureTransport   FailureKind = "transport"
	FailureUnexpected  FailureKind = "unexpected"
)

// SubmitError is a failed order submission. Message is meant for the
// shopper; Status is the collaborator's HTTP status, 0 when none arrived.
type SubmitError struct {
	Kind    FailureKind
	Status  int
	Message string
	Err     error
}

func (e *SubmitError) Error() string {
	return e.Message
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

func classifySubmitError(err error) *SubmitError {
	var (
		status int
		detail string
	)
	var statusErr *client.StatusError
	if errors.As(err, &statusErr) {
		status = statusErr.Code
		detail = statusErr.Message
	}

	var kind FailureKind
	var message string
	switch {
	case errors.Is(err, client.ErrConflict):
		kind, message = FailureConflict, "Some products are no longer available in the requested quantity."
	case errors.Is(err, client.ErrUnavailable):
		kind, message = FailureUnavailable, "The order service is temporarily unavailable. Please try again in a few minutes."
	case errors.Is(err, client.ErrTransport):
		kind, message = FailureTransport, "Could not reach the order service. Check your connection and try again."
	default:
		kind = FailureUnexpected
		message = "The order could not be processed."
		if status != 0 {
			message = fmt.Sprintf("The order could not be processed (status %d).", status)
		}
		// decode failures carry internal text, not a collaborator message
		if status >= 200 && status < 300 {
			detail = ""
		}
	}

	if detail != "" {
		message += " " + detail
	}
	return &SubmitError{Kind: kind, Status: status, Message: message, Err: err}
}
