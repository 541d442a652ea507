package coupon

import (
	"context"
	"sync"
	"time"

	"github.com/TienxDun/DigiBook-sub002/internal/domain"
)

// MemoryRepository implements Validator in memory for dev mode and tests.
type MemoryRepository struct {
	mu      sync.Mutex
	coupons map[string]*domain.Coupon
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		coupons: make(map[string]*domain.Coupon),
	}
}

func (r *MemoryRepository) Put(c domain.Coupon) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.coupons[c.Code] = &c
}

func (r *MemoryRepository) Validate(_ context.Context, code string, subtotal float64) (*domain.AppliedCoupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.coupons[code]
	if !ok {
		return nil, ErrInvalid
	}
	return check(c, subtotal, time.Now())
}

// IncrementUsage counts one successful commit against the coupon. Returns
// ErrExhausted when the usage limit would be exceeded.
func (r *MemoryRepository) IncrementUsage(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.coupons[code]
	if !ok {
		return ErrInvalid
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return ErrExhausted
	}
	c.UsedCount++
	return nil
}

// DecrementUsage is the compensating action for IncrementUsage.
func (r *MemoryRepository) DecrementUsage(_ context.Context, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.coupons[code]; ok && c.UsedCount > 0 {
		c.UsedCount--
	}
}

func (r *MemoryRepository) UsedCount(code string) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.coupons[code]; ok {
		return c.UsedCount
	}
	return 0
}
