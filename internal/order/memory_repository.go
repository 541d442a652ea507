package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/TienxDun/DigiBook-sub002/internal/coupon"
	"github.com/TienxDun/DigiBook-sub002/internal/domain"
	"github.com/TienxDun/DigiBook-sub002/internal/inventory"
	"github.com/google/uuid"
)

// MemoryRepository mirrors the postgres commit contract in memory for dev
// mode and tests. The decrement is all-or-nothing inside the inventory
// store; the coupon step compensates by restoring stock when it fails.
type MemoryRepository struct {
	mu      sync.RWMutex
	orders  map[uuid.UUID]*domain.Order
	stocks  *inventory.MemoryStore
	coupons *coupon.MemoryRepository
}

func NewMemoryRepository(stocks *inventory.MemoryStore, coupons *coupon.MemoryRepository) *MemoryRepository {
	return &MemoryRepository{
		orders:  make(map[uuid.UUID]*domain.Order),
		stocks:  stocks,
		coupons: coupons,
	}
}

func (r *MemoryRepository) Commit(ctx context.Context, o *domain.Order) error {
	items := make([]inventory.ItemQuantity, len(o.Lines))
	for i, line := range o.Lines {
		items[i] = inventory.ItemQuantity{BookID: line.BookID, Quantity: line.Quantity}
	}

	if err := r.stocks.DecrementAll(ctx, items); err != nil {
		var shortfall *inventory.ShortfallError
		if errors.As(err, &shortfall) {
			for _, line := range o.Lines {
				if line.BookID == shortfall.BookID {
					return &StockConflictError{BookID: line.BookID, Title: line.Title}
				}
			}
		}
		return fmt.Errorf("stock decrement failed: %w", err)
	}

	if o.CouponCode != "" && r.coupons != nil {
		if err := r.coupons.IncrementUsage(ctx, o.CouponCode); err != nil {
			r.stocks.Restore(ctx, items)
			if errors.Is(err, coupon.ErrExhausted) {
				return ErrCouponExhausted
			}
			return fmt.Errorf("increment coupon usage: %w", err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *o
	r.orders[o.ID] = &clone
	return nil
}

func (r *MemoryRepository) GetOrderByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	clone := *o
	return &clone, nil
}

func (r *MemoryRepository) ListOrdersByUserID(_ context.Context, userID string) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []*domain.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			clone := *o
			orders = append(orders, &clone)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (r *MemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}
