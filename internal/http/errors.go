package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/brunorcoelho/storefront/internal/cart"
	"github.com/brunorcoelho/storefront/internal/catalog"
	"github.com/brunorcoelho/storefront/internal/checkout"
	"github.com/brunorcoelho/storefront/internal/session"
	"github.com/brunorcoelho/storefront/internal/view"
)

// handleError maps storefront errors to HTTP responses.
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var validation *checkout.ValidationError
	if errors.As(err, &validation) {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   validation.Reason,
			Code:    "validation_error",
			Details: strings.Join(validation.Fields, ","),
		})
		return
	}

	var submitErr *checkout.SubmitError
	if errors.As(err, &submitErr) {
		switch submitErr.Kind {
		case checkout.FailureConflict:
			respondError(w, http.StatusConflict, "order_conflict", submitErr.Message)
		case checkout.FailureUnavailable:
			respondError(w, http.StatusServiceUnavailable, "order_unavailable", submitErr.Message)
		case checkout.FailureTransport:
			respondError(w, http.StatusBadGateway, "upstream_unreachable", submitErr.Message)
		default:
			respondError(w, http.StatusBadGateway, "upstream_error", submitErr.Message)
		}
		return
	}

	switch {
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, checkout.ErrProductNotFound),
		errors.Is(err, cart.ErrLineNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrInvalidProductID),
		errors.Is(err, view.ErrUnknownEvent):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, cart.ErrStockLimit):
		respondError(w, http.StatusConflict, "stock_limit", err.Error())
	case errors.Is(err, cart.ErrOutOfStock):
		respondError(w, http.StatusConflict, "out_of_stock", err.Error())
	case errors.Is(err, view.ErrIllegalTransition):
		respondError(w, http.StatusConflict, "illegal_transition", err.Error())
	case errors.Is(err, checkout.ErrSubmitInFlight):
		respondError(w, http.StatusConflict, "submit_in_flight", err.Error())
	case errors.Is(err, checkout.ErrStaleSubmission):
		respondError(w, http.StatusConflict, "stale_submission", err.Error())
	case errors.Is(err, checkout.ErrServiceUnavailable),
		errors.Is(err, catalog.ErrServiceUnavailable):
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", err.Error())
	case errors.Is(err, catalog.ErrLoadFailure):
		respondError(w, http.StatusBadGateway, "load_failure", err.Error())
	default:
		logger.Error("unhandled error", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
