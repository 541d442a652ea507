package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
)

// OrderLine is a frozen snapshot of a cart line at commit time. The price is
// never recomputed from the catalog afterwards, so historical orders stay
// stable when catalog prices change.
type OrderLine struct {
	BookID          int64   `json:"book_id"`
	Title           string  `json:"title"`
	PriceAtPurchase float64 `json:"price_at_purchase"`
	Quantity        int32   `json:"quantity"`
	Cover           string  `json:"cover"`
}

type CustomerInfo struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type Order struct {
	ID            uuid.UUID
	UserID        string
	Customer      CustomerInfo
	PaymentMethod string
	CouponCode    string
	Subtotal      float64
	ShippingFee   float64
	Discount      float64
	GrandTotal    float64
	Status        OrderStatus
	Lines         []OrderLine
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
