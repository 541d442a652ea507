package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/TienxDun/DigiBook-sub002/internal/checkout"
	"github.com/TienxDun/DigiBook-sub002/internal/domain"
	"github.com/TienxDun/DigiBook-sub002/internal/reconcile"
)

type CheckoutHandler struct {
	finalizer *checkout.Finalizer
	timeout   time.Duration
}

func NewCheckoutHandler(finalizer *checkout.Finalizer, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		finalizer: finalizer,
		timeout:   timeout,
	}
}

type CommitRequestDTO struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	PaymentMethod string `json:"payment_method"`
	CouponCode    string `json:"coupon_code,omitempty"`
}

type ValidateResponseDTO struct {
	Violations []domain.Violation `json:"violations"`
	Changes    []reconcile.Change `json:"changes"`
}

type CommitResponseDTO struct {
	State      string             `json:"state"`
	OrderID    string             `json:"order_id,omitempty"`
	GrandTotal float64            `json:"grand_total,omitempty"`
	Violations []domain.Violation `json:"violations,omitempty"`
	Changes    []reconcile.Change `json:"changes,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// Validate is the checkout-entry checkpoint. Violations are already
// reconciled into the cart when the response goes out.
func (h *CheckoutHandler) Validate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	violations, summary, err := h.finalizer.ValidateBeforeCheckout(ctx, getSessionID(r.Context()))
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ValidateResponseDTO{
		Violations: violations,
		Changes:    summary.Changes,
	})
}

func (h *CheckoutHandler) Commit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CommitRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	info := domain.CustomerInfo{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	}

	result, err := h.finalizer.Commit(ctx, getSessionID(r.Context()), getUserID(r.Context()), info, req.PaymentMethod, req.CouponCode)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	switch result.State {
	case checkout.StateSucceeded:
		respondJSON(w, http.StatusCreated, CommitResponseDTO{
			State:      result.State.String(),
			OrderID:    result.Order.ID.String(),
			GrandTotal: result.Order.GrandTotal,
		})
	case checkout.StateRejected:
		respondJSON(w, http.StatusConflict, CommitResponseDTO{
			State:      result.State.String(),
			Violations: result.Violations,
			Changes:    result.Reconciled.Changes,
		})
	default: // Failed
		resp := CommitResponseDTO{
			State:      result.State.String(),
			Violations: result.Violations,
		}
		if result.Err != nil {
			resp.Error = result.Err.Error()
		}
		respondJSON(w, http.StatusConflict, resp)
	}
}
