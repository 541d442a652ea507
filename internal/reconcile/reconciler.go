// Package reconcile adjusts a cart to match the latest known stock truth.
// The transformation is pure and idempotent: applying the same violation set
// to an already-corrected cart changes nothing.
package reconcile

import "github.com/TienxDun/DigiBook-sub002/internal/domain"

// Change records the before/after quantity of one affected line, or its
// removal, for the caller to surface as a notification.
type Change struct {
	BookID  int64  `json:"book_id"`
	Title   string `json:"title"`
	Before  int32  `json:"before"`
	After   int32  `json:"after"`
	Removed bool   `json:"removed"`
}

type Summary struct {
	Changes []Change `json:"changes"`
}

func (s Summary) Empty() bool {
	return len(s.Changes) == 0
}

// Apply returns a corrected copy of the cart: out-of-stock lines are removed,
// insufficient lines are clamped down to the available quantity. Lines with
// no violation are untouched, and the input cart is never mutated.
func Apply(cart domain.Cart, violations []domain.Violation) (domain.Cart, Summary) {
	out := cart.Clone()
	var summary Summary

	for _, v := range violations {
		i, line := out.Line(v.BookID)
		if i < 0 {
			continue
		}

		// A clamp target below 1 is the same as no stock at all.
		if v.Type == domain.ViolationOutOfStock || v.Available < 1 {
			before, title := line.Quantity, line.Title
			out.RemoveLine(v.BookID)
			summary.Changes = append(summary.Changes, Change{
				BookID:  v.BookID,
				Title:   title,
				Before:  before,
				Removed: true,
			})
			continue
		}

		if line.Quantity > v.Available {
			summary.Changes = append(summary.Changes, Change{
				BookID: v.BookID,
				Title:  line.Title,
				Before: line.Quantity,
				After:  v.Available,
			})
			line.Quantity = v.Available
		}
	}

	return out, summary
}
