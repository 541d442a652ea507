package coupon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/TienxDun/DigiBook-sub002/internal/domain"
)

var (
	ErrInvalid      = errors.New("coupon not found or inactive")
	ErrExpired      = errors.New("coupon has expired")
	ErrBelowMinimum = errors.New("order subtotal below coupon minimum")
	ErrExhausted    = errors.New("coupon usage limit reached")
)

// Validator decides whether a coupon applies to a subtotal and returns the
// value to hand to the pricing calculator.
type Validator interface {
	Validate(ctx context.Context, code string, subtotal float64) (*domain.AppliedCoupon, error)
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Validate(ctx context.Context, code string, subtotal float64) (*domain.AppliedCoupon, error) {
	query := `SELECT code, type, value, min_order_value, usage_limit, used_count, expires_at
	          FROM coupons WHERE code = $1`

	var c domain.Coupon
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&c.Code,
		&c.Type,
		&c.Value,
		&c.MinOrderValue,
		&c.UsageLimit,
		&c.UsedCount,
		&c.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("query coupon: %w", err)
	}

	return check(&c, subtotal, time.Now())
}

// check applies the validity rules shared by every repository flavor.
func check(c *domain.Coupon, subtotal float64, now time.Time) (*domain.AppliedCoupon, error) {
	if !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt) {
		return nil, ErrExpired
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return nil, ErrExhausted
	}
	if subtotal < c.MinOrderValue {
		return nil, ErrBelowMinimum
	}
	return &domain.AppliedCoupon{
		Code:  c.Code,
		Type:  c.Type,
		Value: c.Value,
	}, nil
}
