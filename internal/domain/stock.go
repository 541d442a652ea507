package domain

import "time"

// StockSnapshot is a point-in-time read of a book's availability together with
// the catalog fields the cart needs. It is stale the instant after it is read;
// only the inventory store's conditional decrement is authoritative.
type StockSnapshot struct {
	BookID     int64
	Title      string
	Author     string
	Cover      string
	UnitPrice  float64
	Available  int32
	ObservedAt time.Time
}

type ViolationType string

const (
	ViolationOutOfStock   ViolationType = "OUT_OF_STOCK"
	ViolationInsufficient ViolationType = "INSUFFICIENT"
)

// Violation reports one cart line whose requested quantity cannot be
// fulfilled by the latest stock read.
type Violation struct {
	BookID    int64         `json:"book_id"`
	Title     string        `json:"title"`
	Type      ViolationType `json:"type"`
	Available int32         `json:"available_quantity"`
	Requested int32         `json:"requested_quantity"`
}
