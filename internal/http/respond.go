package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/TienxDun/DigiBook-sub002/internal/cart"
	"github.com/TienxDun/DigiBook-sub002/internal/catalog"
	"github.com/TienxDun/DigiBook-sub002/internal/checkout"
	"github.com/TienxDun/DigiBook-sub002/internal/coupon"
	"github.com/TienxDun/DigiBook-sub002/internal/order"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleDomainError maps domain errors to HTTP status codes
func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, checkout.ErrMissingShippingInfo):
		respondError(w, http.StatusBadRequest, "MISSING_SHIPPING_INFO", err.Error())
	case errors.Is(err, checkout.ErrNothingSelected):
		respondError(w, http.StatusBadRequest, "nothing_selected", err.Error())
	case errors.Is(err, cart.ErrLineNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, catalog.ErrBookNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, order.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, coupon.ErrInvalid):
		respondError(w, http.StatusUnprocessableEntity, "COUPON_INVALID", err.Error())
	case errors.Is(err, coupon.ErrExpired):
		respondError(w, http.StatusUnprocessableEntity, "COUPON_EXPIRED", err.Error())
	case errors.Is(err, coupon.ErrBelowMinimum):
		respondError(w, http.StatusUnprocessableEntity, "COUPON_BELOW_MIN", err.Error())
	case errors.Is(err, coupon.ErrExhausted):
		respondError(w, http.StatusUnprocessableEntity, "COUPON_EXHAUSTED", err.Error())
	case errors.Is(err, checkout.ErrCommitInProgress):
		respondError(w, http.StatusConflict, "commit_in_progress", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "upstream call timed out")
	default:
		// Backend failures are retryable and must never corrupt the cart.
		respondError(w, http.StatusServiceUnavailable, "NETWORK_FAILURE", "temporary failure, please retry")
	}
}
