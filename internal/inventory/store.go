package inventory

import (
	"context"
	"errors"
	"fmt"
)

// Common errors returned by the store
var (
	ErrBookNotFound      = errors.New("book not found in inventory")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ShortfallError identifies which book a failed decrement tripped on.
type ShortfallError struct {
	BookID int64
	cause  error
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("book %d: %v", e.BookID, e.cause)
}

func (e *ShortfallError) Unwrap() error {
	return e.cause
}

// ItemQuantity pairs a book with a quantity for batch operations.
type ItemQuantity struct {
	BookID   int64
	Quantity int32
}

// Store is the authoritative stock source. Implementations must guarantee
// that a decrement fails rather than letting a count go negative; every
// client-side checkpoint depends on that contract.
type Store interface {
	// GetStock returns available counts for the given book ids. Books the
	// inventory has never seen are absent from the result.
	GetStock(ctx context.Context, bookIDs []int64) (map[int64]int32, error)

	// SetStock sets the available count for a book (seeding, replenishment).
	SetStock(ctx context.Context, bookID int64, quantity int32) error
}
