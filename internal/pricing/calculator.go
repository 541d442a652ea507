package pricing

import "github.com/TienxDun/DigiBook-sub002/internal/domain"

type Config struct {
	FreeShippingThreshold float64
	FlatShippingFee       float64
}

type Totals struct {
	Subtotal   float64 `json:"subtotal"`
	Shipping   float64 `json:"shipping"`
	Discount   float64 `json:"discount"`
	GrandTotal float64 `json:"grand_total"`
}

// Calculator derives order totals from the selected cart lines. Coupon
// validity is decided elsewhere; the calculator only applies the value it is
// handed.
type Calculator struct {
	cfg Config
}

func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// Quote computes totals over the given lines, which the caller has already
// restricted to the selection set.
func (c *Calculator) Quote(lines []domain.CartLine, coupon *domain.AppliedCoupon) Totals {
	var subtotal float64
	for _, l := range lines {
		subtotal += l.UnitPrice * float64(l.Quantity)
	}

	var shipping float64
	if subtotal > 0 && subtotal < c.cfg.FreeShippingThreshold {
		shipping = c.cfg.FlatShippingFee
	}

	var discount float64
	if coupon != nil {
		switch coupon.Type {
		case domain.CouponPercentage:
			discount = subtotal * coupon.Value / 100
		case domain.CouponFixed:
			discount = coupon.Value
		}
		// The discount never exceeds the subtotal, so a large fixed
		// coupon cannot push the total negative.
		if discount > subtotal {
			discount = subtotal
		}
	}

	total := subtotal + shipping - discount
	if total < 0 {
		total = 0
	}

	return Totals{
		Subtotal:   subtotal,
		Shipping:   shipping,
		Discount:   discount,
		GrandTotal: total,
	}
}
