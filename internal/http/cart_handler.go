package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/TienxDun/DigiBook-sub002/internal/cart"
	"github.com/TienxDun/DigiBook-sub002/internal/coupon"
	"github.com/TienxDun/DigiBook-sub002/internal/domain"
	"github.com/TienxDun/DigiBook-sub002/internal/pricing"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	carts   *cart.Service
	pricer  *pricing.Calculator
	coupons coupon.Validator
	timeout time.Duration
}

func NewCartHandler(carts *cart.Service, pricer *pricing.Calculator, coupons coupon.Validator, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		pricer:  pricer,
		coupons: coupons,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	BookID   int64 `json:"book_id"`
	Quantity int32 `json:"quantity"`
}

type AdjustQuantityRequestDTO struct {
	Delta int32 `json:"delta"`
}

type ToggleAllRequestDTO struct {
	Selected bool `json:"selected"`
}

type ApplyCouponRequestDTO struct {
	Code string `json:"code"`
}

type BootstrapRequestDTO struct {
	Strategy string `json:"strategy,omitempty"`
}

type CartResponseDTO struct {
	Lines    []domain.CartLine   `json:"lines"`
	Selected []int64             `json:"selected"`
	Totals   pricing.Totals      `json:"totals"`
	Notice   *cart.AddDiagnostic `json:"notice,omitempty"`
}

func (h *CartHandler) toResponse(c *domain.Cart, notice *cart.AddDiagnostic) CartResponseDTO {
	return CartResponseDTO{
		Lines:    c.Lines,
		Selected: c.Selected,
		Totals:   h.pricer.Quote(c.SelectedLines(), nil),
		Notice:   notice,
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	c, err := h.carts.Cart(ctx, getSessionID(r.Context()))
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.toResponse(c, nil))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.BookID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_book_id", "book_id must be positive")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	c, diag, err := h.carts.AddLine(ctx, getSessionID(r.Context()), req.BookID, req.Quantity)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if diag != nil {
		// The cart is unmodified; the diagnostic tells the shopper why.
		respondJSON(w, http.StatusConflict, h.toResponse(c, diag))
		return
	}

	respondJSON(w, http.StatusCreated, h.toResponse(c, nil))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	bookID, ok := bookIDParam(w, r)
	if !ok {
		return
	}

	c, err := h.carts.RemoveLine(ctx, getSessionID(r.Context()), bookID)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.toResponse(c, nil))
}

func (h *CartHandler) AdjustQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	bookID, ok := bookIDParam(w, r)
	if !ok {
		return
	}

	var req AdjustQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Delta == 0 {
		respondError(w, http.StatusBadRequest, "invalid_delta", "delta must be non-zero")
		return
	}

	c, err := h.carts.AdjustQuantity(ctx, getSessionID(r.Context()), bookID, req.Delta)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.toResponse(c, nil))
}

func (h *CartHandler) ToggleSelection(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	bookID, ok := bookIDParam(w, r)
	if !ok {
		return
	}

	c, err := h.carts.ToggleSelection(ctx, getSessionID(r.Context()), bookID)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.toResponse(c, nil))
}

func (h *CartHandler) ToggleAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ToggleAllRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	c, err := h.carts.ToggleAll(ctx, getSessionID(r.Context()), req.Selected)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.toResponse(c, nil))
}

// ApplyCoupon previews a coupon against the current selected subtotal. The
// code itself travels with the commit request; nothing is stored here.
func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ApplyCouponRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "invalid_code", "coupon code is required")
		return
	}

	c, err := h.carts.Cart(ctx, getSessionID(r.Context()))
	if err != nil {
		handleDomainError(w, err)
		return
	}

	selected := c.SelectedLines()
	subtotal := h.pricer.Quote(selected, nil).Subtotal

	applied, err := h.coupons.Validate(ctx, req.Code, subtotal)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, struct {
		Coupon *domain.AppliedCoupon `json:"coupon"`
		Totals pricing.Totals        `json:"totals"`
	}{
		Coupon: applied,
		Totals: h.pricer.Quote(selected, applied),
	})
}

// Bootstrap runs the sign-in cart merge for the authenticated user.
func (h *CartHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserID(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req BootstrapRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	strategy := cart.MergeStrategy(req.Strategy)
	switch strategy {
	case "":
		strategy = cart.RemoteWins
	case cart.RemoteWins, cart.LocalWins, cart.SumQuantities:
	default:
		respondError(w, http.StatusBadRequest, "invalid_strategy", "unknown merge strategy")
		return
	}

	c, err := h.carts.Bootstrap(ctx, getSessionID(r.Context()), userID, strategy)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.toResponse(c, nil))
}

func bookIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	bookIDStr := chi.URLParam(r, "book_id")
	bookID, err := strconv.ParseInt(bookIDStr, 10, 64)
	if err != nil || bookID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_book_id", "book_id must be positive")
		return 0, false
	}
	return bookID, true
}
