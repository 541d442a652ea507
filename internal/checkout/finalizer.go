package checkout

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/TienxDun/DigiBook-sub002/internal/domain"
	"github.com/TienxDun/DigiBook-sub002/internal/order"
	"github.com/TienxDun/DigiBook-sub002/internal/pricing"
	"github.com/TienxDun/DigiBook-sub002/internal/reconcile"
	"github.com/google/uuid"
)

// CartAccess is the slice of the cart service the finalizer needs.
type CartAccess interface {
	Cart(ctx context.Context, sessionID string) (*domain.Cart, error)
	Replace(ctx context.Context, sessionID string, cart domain.Cart) error
	RemoveCommitted(ctx context.Context, sessionID string, bookIDs []int64) (*domain.Cart, error)
}

// BatchChecker is the pre-commit stock checkpoint.
type BatchChecker interface {
	CheckBatch(ctx context.Context, lines []domain.CartLine) ([]domain.Violation, error)
}

// CouponValidator resolves a coupon code against a subtotal.
type CouponValidator interface {
	Validate(ctx context.Context, code string, subtotal float64) (*domain.AppliedCoupon, error)
}

// Result is the terminal outcome of one checkout attempt.
//
// Rejected means stock changed before commit was attempted: the cart has
// already been reconciled, the shopper only has to retry. Failed means stock
// changed during commit (a concurrent buyer won the race) or the backend
// errored; the cart is left exactly as it was, and retrying is safe because
// validation runs again from scratch.
type Result struct {
	State      State
	Order      *domain.Order
	Violations []domain.Violation
	Reconciled reconcile.Summary
	Err        error
}

// Finalizer turns a validated cart into a persisted order. One attempt per
// session at a time; each call to Commit is a fresh state machine instance.
type Finalizer struct {
	carts     CartAccess
	validator BatchChecker
	pricer    *pricing.Calculator
	coupons   CouponValidator
	orders    order.Committer

	mu     sync.Mutex
	active map[string]bool
}

func NewFinalizer(carts CartAccess, validator BatchChecker, pricer *pricing.Calculator, coupons CouponValidator, orders order.Committer) *Finalizer {
	return &Finalizer{
		carts:     carts,
		validator: validator,
		pricer:    pricer,
		coupons:   coupons,
		orders:    orders,
		active:    make(map[string]bool),
	}
}

// ValidateBeforeCheckout is the checkout-entry checkpoint: the whole cart is
// checked against fresh stock, violations are reconciled into the cart right
// away, and the diff is returned for the shopper notification.
func (f *Finalizer) ValidateBeforeCheckout(ctx context.Context, sessionID string) ([]domain.Violation, reconcile.Summary, error) {
	cart, err := f.carts.Cart(ctx, sessionID)
	if err != nil {
		return nil, reconcile.Summary{}, err
	}

	violations, err := f.validator.CheckBatch(ctx, cart.Lines)
	if err != nil {
		return nil, reconcile.Summary{}, err
	}
	if len(violations) == 0 {
		return nil, reconcile.Summary{}, nil
	}

	corrected, summary := reconcile.Apply(*cart, violations)
	if err := f.carts.Replace(ctx, sessionID, corrected); err != nil {
		return nil, reconcile.Summary{}, err
	}
	return violations, summary, nil
}

// Commit runs the final state machine: re-validate the selected lines, and
// only if clean, persist the order, decrement stock and count the coupon as
// one unit. The cart loses exactly the committed lines on success.
func (f *Finalizer) Commit(ctx context.Context, sessionID, userID string, info domain.CustomerInfo, paymentMethod, couponCode string) (*Result, error) {
	if info.Name == "" || info.Phone == "" || info.Address == "" {
		return nil, ErrMissingShippingInfo
	}

	if !f.begin(sessionID) {
		return nil, ErrCommitInProgress
	}
	defer f.end(sessionID)

	state := StateIdle
	if err := transition(&state, StateValidating); err != nil {
		return nil, err
	}

	cart, err := f.carts.Cart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	selected := cart.SelectedLines()
	if len(selected) == 0 {
		return nil, ErrNothingSelected
	}

	violations, err := f.validator.CheckBatch(ctx, selected)
	if err != nil {
		// A checkpoint that cannot read stock fails the attempt fast
		// instead of hanging the state machine. Nothing was mutated.
		if terr := transition(&state, StateFailed); terr != nil {
			return nil, terr
		}
		return &Result{State: StateFailed, Err: err}, nil
	}

	if len(violations) > 0 {
		// Reconcile before surfacing, so the cart is immediately
		// consistent for a retry without extra shopper action.
		corrected, summary := reconcile.Apply(*cart, violations)
		if err := f.carts.Replace(ctx, sessionID, corrected); err != nil {
			return nil, err
		}
		if terr := transition(&state, StateRejected); terr != nil {
			return nil, terr
		}
		return &Result{State: StateRejected, Violations: violations, Reconciled: summary}, nil
	}

	var applied *domain.AppliedCoupon
	subtotal := f.pricer.Quote(selected, nil).Subtotal
	if couponCode != "" {
		applied, err = f.coupons.Validate(ctx, couponCode, subtotal)
		if err != nil {
			// Coupon problems are informational: the attempt aborts
			// before Committing and the shopper can drop the code.
			return nil, err
		}
	}

	if err := transition(&state, StateCommitting); err != nil {
		return nil, err
	}

	totals := f.pricer.Quote(selected, applied)
	o := freezeOrder(userID, info, paymentMethod, applied, selected, totals)

	if err := f.orders.Commit(ctx, o); err != nil {
		if terr := transition(&state, StateFailed); terr != nil {
			return nil, terr
		}
		var conflict *order.StockConflictError
		if errors.As(err, &conflict) {
			log.Printf("commit for session %s lost the race on book %d (%s)", sessionID, conflict.BookID, conflict.Title)
			return &Result{
				State: StateFailed,
				Violations: []domain.Violation{{
					BookID: conflict.BookID,
					Title:  conflict.Title,
					Type:   domain.ViolationOutOfStock,
				}},
				Err: err,
			}, nil
		}
		return &Result{State: StateFailed, Err: err}, nil
	}

	committed := make([]int64, len(selected))
	for i, l := range selected {
		committed[i] = l.BookID
	}
	if _, err := f.carts.RemoveCommitted(ctx, sessionID, committed); err != nil {
		// The order is durable; a failed cart cleanup only leaves stale
		// lines the next validation pass will correct.
		log.Printf("failed to remove committed lines for session %s: %v", sessionID, err)
	}

	if err := transition(&state, StateSucceeded); err != nil {
		return nil, err
	}
	return &Result{State: StateSucceeded, Order: o}, nil
}

func freezeOrder(userID string, info domain.CustomerInfo, paymentMethod string, applied *domain.AppliedCoupon, selected []domain.CartLine, totals pricing.Totals) *domain.Order {
	lines := make([]domain.OrderLine, len(selected))
	for i, l := range selected {
		lines[i] = domain.OrderLine{
			BookID:          l.BookID,
			Title:           l.Title,
			PriceAtPurchase: l.UnitPrice,
			Quantity:        l.Quantity,
			Cover:           l.Cover,
		}
	}

	couponCode := ""
	if applied != nil {
		couponCode = applied.Code
	}

	now := time.Now()
	return &domain.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Customer:      info,
		PaymentMethod: paymentMethod,
		CouponCode:    couponCode,
		Subtotal:      totals.Subtotal,
		ShippingFee:   totals.Shipping,
		Discount:      totals.Discount,
		GrandTotal:    totals.GrandTotal,
		Status:        domain.OrderStatusConfirmed,
		Lines:         lines,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func transition(state *State, to State) error {
	if !CanTransitionTo(*state, to) {
		return ErrIllegalTransition
	}
	*state = to
	return nil
}

func (f *Finalizer) begin(sessionID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active[sessionID] {
		return false
	}
	f.active[sessionID] = true
	return true
}

func (f *Finalizer) end(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.active, sessionID)
}
