package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TienxDun/DigiBook-sub002/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrCouponExhausted = errors.New("coupon usage limit reached")
)

// StockConflictError means a concurrent buyer won the race between the last
// validation and the decrement. The whole commit is rolled back; no order is
// left half-persisted.
type StockConflictError struct {
	BookID int64
	Title  string
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("stock conflict on %q (book %d)", e.Title, e.BookID)
}

// Committer persists an order, decrements stock and counts coupon usage as
// one logical unit. The contract is all or nothing: any failed step leaves
// stock, coupon and order storage untouched.
type Committer interface {
	Commit(ctx context.Context, o *domain.Order) error
}

// Reader is the order read side.
type Reader interface {
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
}

// OutboxEvent is one row written in the commit transaction and published
// asynchronously by the outbox poller.
type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
	ProcessedAt *time.Time
}
