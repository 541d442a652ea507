package stock

import (
	"context"

	"github.com/TienxDun/DigiBook-sub002/internal/domain"
)

// Validator compares requested quantities against the latest stock read.
// It never mutates the cart or the stock source; correcting the cart is the
// reconciler's job.
type Validator struct {
	reader Reader
}

func NewValidator(reader Reader) *Validator {
	return &Validator{reader: reader}
}

// CheckBatch validates every line against a fresh snapshot batch and returns
// one violation per line that cannot be fulfilled. Lines for books the
// catalog no longer carries are reported as out of stock.
func (v *Validator) CheckBatch(ctx context.Context, lines []domain.CartLine) ([]domain.Violation, error) {
	if len(lines) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(lines))
	for i, l := range lines {
		ids[i] = l.BookID
	}

	snapshots, err := v.reader.GetSnapshots(ctx, ids)
	if err != nil {
		return nil, err
	}

	var violations []domain.Violation
	for _, line := range lines {
		snap, ok := snapshots[line.BookID]
		if !ok {
			violations = append(violations, domain.Violation{
				BookID:    line.BookID,
				Title:     line.Title,
				Type:      domain.ViolationOutOfStock,
				Available: 0,
				Requested: line.Quantity,
			})
			continue
		}
		if viol := classify(line.BookID, snap.Title, snap.Available, line.Quantity); viol != nil {
			violations = append(violations, *viol)
		}
	}
	return violations, nil
}

// CheckOne validates a single requested quantity and returns the snapshot it
// was checked against so the caller can build a cart line from it.
func (v *Validator) CheckOne(ctx context.Context, bookID int64, requested int32) (*domain.Violation, *domain.StockSnapshot, error) {
	snap, err := v.reader.GetSnapshot(ctx, bookID)
	if err != nil {
		return nil, nil, err
	}
	if snap == nil {
		return &domain.Violation{
			BookID:    bookID,
			Type:      domain.ViolationOutOfStock,
			Available: 0,
			Requested: requested,
		}, nil, nil
	}
	return classify(bookID, snap.Title, snap.Available, requested), snap, nil
}

func classify(bookID int64, title string, available, requested int32) *domain.Violation {
	switch {
	case available == 0:
		return &domain.Violation{
			BookID:    bookID,
			Title:     title,
			Type:      domain.ViolationOutOfStock,
			Available: 0,
			Requested: requested,
		}
	case available < requested:
		return &domain.Violation{
			BookID:    bookID,
			Title:     title,
			Type:      domain.ViolationInsufficient,
			Available: available,
			Requested: requested,
		}
	default:
		return nil
	}
}
