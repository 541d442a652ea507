package cart

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/TienxDun/DigiBook-sub002/internal/domain"
	"github.com/TienxDun/DigiBook-sub002/internal/usercart"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrLineNotFound    = errors.New("book is not in the cart")
)

// AddCode classifies why an add-to-cart request could not be fulfilled.
type AddCode string

const (
	AddOutOfStock       AddCode = "OUT_OF_STOCK"
	AddAtMaxInCart      AddCode = "AT_MAX_IN_CART"
	AddPartialAvailable AddCode = "PARTIAL_AVAILABLE"
)

// AddDiagnostic is returned instead of mutating the cart when stock cannot
// cover the request. Remaining is only set for PARTIAL_AVAILABLE.
type AddDiagnostic struct {
	Code      AddCode `json:"code"`
	Remaining int32   `json:"remaining,omitempty"`
}

// StockChecker is the slice of the stock validator the cart needs for the
// add-to-cart checkpoint.
type StockChecker interface {
	CheckOne(ctx context.Context, bookID int64, requested int32) (*domain.Violation, *domain.StockSnapshot, error)
}

// Event notifies subscribers that a session's cart changed.
type Event struct {
	SessionID string
	Cart      domain.Cart
}

// Service owns the shopper's in-progress selection. Every mutation is
// persisted to the session store before it returns; the remote mirror write
// happens in the background and never blocks or fails a mutation.
type Service struct {
	mu     sync.Mutex
	store  SessionStore
	stocks StockChecker
	syncer *Syncer

	users map[string]string // sessionID -> userID, bound at Bootstrap

	subMu sync.Mutex
	subs  []chan Event
}

func NewService(store SessionStore, stocks StockChecker, syncer *Syncer) *Service {
	return &Service{
		store:  store,
		stocks: stocks,
		syncer: syncer,
		users:  make(map[string]string),
	}
}

// Cart returns the session's cart, empty when nothing is stored yet.
func (s *Service) Cart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, sessionID)
}

// AddLine validates the requested quantity against stock before touching the
// cart. On a diagnostic the cart is left exactly as it was. Otherwise the
// quantity merges into an existing line or a new line is created from the
// stock snapshot, and the book joins the selection set.
func (s *Service) AddLine(ctx context.Context, sessionID string, bookID int64, qty int32) (*domain.Cart, *AddDiagnostic, error) {
	if qty < 1 {
		return nil, nil, ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	var current int32
	if _, line := cart.Line(bookID); line != nil {
		current = line.Quantity
	}

	violation, snap, err := s.stocks.CheckOne(ctx, bookID, current+qty)
	if err != nil {
		return nil, nil, err
	}

	if violation != nil {
		diag := &AddDiagnostic{Code: AddOutOfStock}
		if violation.Type == domain.ViolationInsufficient {
			if current >= violation.Available {
				diag.Code = AddAtMaxInCart
			} else {
				diag.Code = AddPartialAvailable
				diag.Remaining = violation.Available - current
			}
		}
		return cart, diag, nil
	}

	if i, line := cart.Line(bookID); i >= 0 {
		line.Quantity += qty
	} else {
		cart.Lines = append(cart.Lines, domain.CartLine{
			BookID:    snap.BookID,
			Title:     snap.Title,
			Author:    snap.Author,
			Cover:     snap.Cover,
			UnitPrice: snap.UnitPrice,
			Quantity:  qty,
			AddedAt:   time.Now(),
		})
	}
	cart.Select(bookID)

	if err := s.persist(ctx, sessionID, cart); err != nil {
		return nil, nil, err
	}
	return cart, nil, nil
}

// RemoveLine deletes the line and prunes it from the selection set.
func (s *Service) RemoveLine(ctx context.Context, sessionID string, bookID int64) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !cart.RemoveLine(bookID) {
		return nil, ErrLineNotFound
	}

	if err := s.persist(ctx, sessionID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// AdjustQuantity applies a +/- delta, clamped to a minimum of 1. It does not
// re-validate against stock; validation is deferred to the checkout
// checkpoints so quantity adjustment stays instantaneous.
func (s *Service) AdjustQuantity(ctx context.Context, sessionID string, bookID int64, delta int32) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	_, line := cart.Line(bookID)
	if line == nil {
		return nil, ErrLineNotFound
	}

	line.Quantity += delta
	if line.Quantity < 1 {
		line.Quantity = 1
	}

	if err := s.persist(ctx, sessionID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Service) ToggleSelection(ctx context.Context, sessionID string, bookID int64) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if _, line := cart.Line(bookID); line == nil {
		return nil, ErrLineNotFound
	}

	if cart.IsSelected(bookID) {
		cart.Deselect(bookID)
	} else {
		cart.Select(bookID)
	}

	if err := s.persist(ctx, sessionID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Service) ToggleAll(ctx context.Context, sessionID string, selected bool) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cart.Selected = nil
	if selected {
		for _, l := range cart.Lines {
			cart.Selected = append(cart.Selected, l.BookID)
		}
	}

	if err := s.persist(ctx, sessionID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Bootstrap runs once at sign-in: the remote mirror is fetched and combined
// with whatever the session already holds, per the named strategy. The
// session is bound to the user so later mutations mirror remotely.
func (s *Service) Bootstrap(ctx context.Context, sessionID, userID string, strategy MergeStrategy) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	local, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	remote := domain.Cart{}
	if s.syncer != nil {
		fetched, err := s.syncer.repo.GetCart(ctx, userID)
		if err != nil {
			// The mirror being unreachable must not block sign-in.
			if !errors.Is(err, usercart.ErrCartNotFound) {
				log.Printf("remote cart fetch for user %s failed: %v", userID, err)
			}
		} else if fetched != nil {
			remote = *fetched
		}
	}

	merged := Merge(*local, remote, strategy)
	s.users[sessionID] = userID

	if err := s.persist(ctx, sessionID, &merged); err != nil {
		return nil, err
	}
	return &merged, nil
}

// Replace overwrites the session cart, used after reconciliation rewrote it.
func (s *Service) Replace(ctx context.Context, sessionID string, cart domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(ctx, sessionID, &cart)
}

// RemoveCommitted drops only the given lines after a successful commit,
// clearing their selection; unselected lines survive for the next pass.
func (s *Service) RemoveCommitted(ctx context.Context, sessionID string, bookIDs []int64) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	for _, id := range bookIDs {
		cart.RemoveLine(id)
	}

	if err := s.persist(ctx, sessionID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Subscribe registers an observer for cart changes. The returned func
// unsubscribes. Slow subscribers miss events rather than block mutations.
func (s *Service) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	s.subMu.Lock()
	s.subs = append(s.subs, ch)
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.subs {
			if sub == ch {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
	return ch, cancel
}

func (s *Service) load(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.store.Load(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return &domain.Cart{}, nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Service) persist(ctx context.Context, sessionID string, cart *domain.Cart) error {
	if err := s.store.Save(ctx, sessionID, cart); err != nil {
		return err
	}

	if s.syncer != nil {
		if userID, ok := s.users[sessionID]; ok {
			s.syncer.Enqueue(userID, *cart)
		}
	}

	s.notify(sessionID, *cart)
	return nil
}

func (s *Service) notify(sessionID string, cart domain.Cart) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, sub := range s.subs {
		select {
		case sub <- Event{SessionID: sessionID, Cart: cart.Clone()}:
		default:
		}
	}
}
