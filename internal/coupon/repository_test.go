package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/TienxDun/DigiBook-sub002/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Applies(t *testing.T) {
	repo := NewMemoryRepository()
	repo.Put(domain.Coupon{
		Code: "SAVE10", Type: domain.CouponPercentage, Value: 10,
		MinOrderValue: 100000, UsageLimit: 50, ExpiresAt: time.Now().Add(time.Hour),
	})

	applied, err := repo.Validate(context.Background(), "SAVE10", 200000)

	require.NoError(t, err)
	assert.Equal(t, "SAVE10", applied.Code)
	assert.Equal(t, domain.CouponPercentage, applied.Type)
	assert.Equal(t, float64(10), applied.Value)
}

func TestValidate_UnknownCode(t *testing.T) {
	repo := NewMemoryRepository()

	_, err := repo.Validate(context.Background(), "NOPE", 200000)

	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidate_Expired(t *testing.T) {
	repo := NewMemoryRepository()
	repo.Put(domain.Coupon{Code: "OLD", Type: domain.CouponFixed, Value: 5000, ExpiresAt: time.Now().Add(-time.Minute)})

	_, err := repo.Validate(context.Background(), "OLD", 200000)

	assert.ErrorIs(t, err, ErrExpired)
}

func TestValidate_NoExpiryNeverExpires(t *testing.T) {
	repo := NewMemoryRepository()
	repo.Put(domain.Coupon{Code: "EVERGREEN", Type: domain.CouponFixed, Value: 5000})

	_, err := repo.Validate(context.Background(), "EVERGREEN", 200000)

	assert.NoError(t, err)
}

func TestValidate_BelowMinimum(t *testing.T) {
	repo := NewMemoryRepository()
	repo.Put(domain.Coupon{
		Code: "BIGCART", Type: domain.CouponFixed, Value: 20000,
		MinOrderValue: 500000, ExpiresAt: time.Now().Add(time.Hour),
	})

	_, err := repo.Validate(context.Background(), "BIGCART", 499999)

	assert.ErrorIs(t, err, ErrBelowMinimum)
}

func TestValidate_Exhausted(t *testing.T) {
	repo := NewMemoryRepository()
	repo.Put(domain.Coupon{
		Code: "LIMITED", Type: domain.CouponFixed, Value: 5000,
		UsageLimit: 2, UsedCount: 2, ExpiresAt: time.Now().Add(time.Hour),
	})

	_, err := repo.Validate(context.Background(), "LIMITED", 200000)

	assert.ErrorIs(t, err, ErrExhausted)
}

func TestValidate_ZeroLimitIsUnlimited(t *testing.T) {
	repo := NewMemoryRepository()
	repo.Put(domain.Coupon{
		Code: "FOREVER", Type: domain.CouponFixed, Value: 5000,
		UsageLimit: 0, UsedCount: 9999, ExpiresAt: time.Now().Add(time.Hour),
	})

	_, err := repo.Validate(context.Background(), "FOREVER", 200000)

	assert.NoError(t, err)
}

func TestIncrementUsage_StopsAtLimit(t *testing.T) {
	repo := NewMemoryRepository()
	repo.Put(domain.Coupon{Code: "ONCE", Type: domain.CouponFixed, Value: 5000, UsageLimit: 1})
	ctx := context.Background()

	require.NoError(t, repo.IncrementUsage(ctx, "ONCE"))
	err := repo.IncrementUsage(ctx, "ONCE")

	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, int32(1), repo.UsedCount("ONCE"))
}

func TestDecrementUsage_Compensates(t *testing.T) {
	repo := NewMemoryRepository()
	repo.Put(domain.Coupon{Code: "ONCE", Type: domain.CouponFixed, Value: 5000, UsageLimit: 1})
	ctx := context.Background()

	require.NoError(t, repo.IncrementUsage(ctx, "ONCE"))
	repo.DecrementUsage(ctx, "ONCE")

	assert.Equal(t, int32(0), repo.UsedCount("ONCE"))
	assert.NoError(t, repo.IncrementUsage(ctx, "ONCE"))
}
