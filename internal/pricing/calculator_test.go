package pricing

import (
	"testing"

	"github.com/TienxDun/DigiBook-sub002/internal/domain"
	"github.com/stretchr/testify/assert"
)

func newTestCalculator() *Calculator {
	return NewCalculator(Config{
		FreeShippingThreshold: 300000,
		FlatShippingFee:       30000,
	})
}

func TestQuote_SubtotalOverLines(t *testing.T) {
	c := newTestCalculator()

	totals := c.Quote([]domain.CartLine{
		{BookID: 1, UnitPrice: 55000, Quantity: 2},
		{BookID: 2, UnitPrice: 90000, Quantity: 1},
	}, nil)

	assert.Equal(t, float64(200000), totals.Subtotal)
	assert.Equal(t, float64(30000), totals.Shipping)
	assert.Equal(t, float64(0), totals.Discount)
	assert.Equal(t, float64(230000), totals.GrandTotal)
}

func TestQuote_FreeShippingAtThreshold(t *testing.T) {
	c := newTestCalculator()

	totals := c.Quote([]domain.CartLine{
		{BookID: 1, UnitPrice: 150000, Quantity: 2},
	}, nil)

	assert.Equal(t, float64(300000), totals.Subtotal)
	assert.Equal(t, float64(0), totals.Shipping)
}

func TestQuote_PercentageCoupon(t *testing.T) {
	c := newTestCalculator()

	// SAVE10: 10% off a 200,000 subtotal
	totals := c.Quote([]domain.CartLine{
		{BookID: 1, UnitPrice: 100000, Quantity: 2},
	}, &domain.AppliedCoupon{Code: "SAVE10", Type: domain.CouponPercentage, Value: 10})

	assert.Equal(t, float64(200000), totals.Subtotal)
	assert.Equal(t, float64(20000), totals.Discount)
	assert.Equal(t, totals.Subtotal+totals.Shipping-20000, totals.GrandTotal)
}

func TestQuote_FixedCoupon(t *testing.T) {
	c := newTestCalculator()

	totals := c.Quote([]domain.CartLine{
		{BookID: 1, UnitPrice: 100000, Quantity: 2},
	}, &domain.AppliedCoupon{Code: "MINUS50K", Type: domain.CouponFixed, Value: 50000})

	assert.Equal(t, float64(50000), totals.Discount)
}

func TestQuote_FixedCouponClampedToSubtotal(t *testing.T) {
	c := newTestCalculator()

	totals := c.Quote([]domain.CartLine{
		{BookID: 1, UnitPrice: 40000, Quantity: 1},
	}, &domain.AppliedCoupon{Code: "MINUS100K", Type: domain.CouponFixed, Value: 100000})

	assert.Equal(t, float64(40000), totals.Discount, "discount must never exceed subtotal")
	assert.GreaterOrEqual(t, totals.GrandTotal, float64(0), "grand total must never be negative")
}

func TestQuote_EmptySelection(t *testing.T) {
	c := newTestCalculator()

	totals := c.Quote(nil, nil)

	assert.Equal(t, float64(0), totals.Subtotal)
	assert.Equal(t, float64(0), totals.Shipping, "an empty selection ships nothing")
	assert.Equal(t, float64(0), totals.GrandTotal)
}
