package domain

import "time"

type CouponType string

const (
	CouponPercentage CouponType = "percentage"
	CouponFixed      CouponType = "fixed"
)

type Coupon struct {
	Code          string
	Type          CouponType
	Value         float64
	MinOrderValue float64
	UsageLimit    int32
	UsedCount     int32
	ExpiresAt     time.Time
}

// AppliedCoupon is the validated slice of a coupon the pricing calculator
// works with. Validation itself lives in the coupon repository.
type AppliedCoupon struct {
	Code  string     `json:"code"`
	Type  CouponType `json:"type"`
	Value float64    `json:"value"`
}
