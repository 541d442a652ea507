package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/TienxDun/DigiBook-sub002/internal/domain"
	"github.com/TienxDun/DigiBook-sub002/internal/inventory"
	"golang.org/x/sync/singleflight"
)

// Reader produces stock snapshots for the validator and the cart service.
// A book missing from the result means the catalog does not carry it.
type Reader interface {
	GetSnapshots(ctx context.Context, bookIDs []int64) (map[int64]domain.StockSnapshot, error)
	GetSnapshot(ctx context.Context, bookID int64) (*domain.StockSnapshot, error)
}

// CatalogReader is the slice of the catalog repository the lookup needs.
type CatalogReader interface {
	GetBooks(ctx context.Context, ids []int64) ([]*domain.Book, error)
}

// Lookup composes catalog metadata with the authoritative stock counts into
// snapshots. Single-book reads go through singleflight so a burst of
// add-to-cart calls for the same book hits the backends once.
type Lookup struct {
	catalog CatalogReader
	stocks  inventory.Store
	sfg     singleflight.Group
}

func NewLookup(catalog CatalogReader, stocks inventory.Store) *Lookup {
	return &Lookup{
		catalog: catalog,
		stocks:  stocks,
	}
}

func (l *Lookup) GetSnapshots(ctx context.Context, bookIDs []int64) (map[int64]domain.StockSnapshot, error) {
	if len(bookIDs) == 0 {
		return map[int64]domain.StockSnapshot{}, nil
	}

	books, err := l.catalog.GetBooks(ctx, bookIDs)
	if err != nil {
		return nil, fmt.Errorf("catalog read failed: %w", err)
	}

	counts, err := l.stocks.GetStock(ctx, bookIDs)
	if err != nil {
		return nil, fmt.Errorf("stock read failed: %w", err)
	}

	now := time.Now()
	result := make(map[int64]domain.StockSnapshot, len(books))
	for _, b := range books {
		result[b.ID] = domain.StockSnapshot{
			BookID:     b.ID,
			Title:      b.Title,
			Author:     b.Author,
			Cover:      b.Cover,
			UnitPrice:  b.Price,
			Available:  counts[b.ID], // zero when inventory has no row
			ObservedAt: now,
		}
	}
	return result, nil
}

func (l *Lookup) GetSnapshot(ctx context.Context, bookID int64) (*domain.StockSnapshot, error) {
	v, err, _ := l.sfg.Do(fmt.Sprintf("%d", bookID), func() (interface{}, error) {
		snapshots, err := l.GetSnapshots(ctx, []int64{bookID})
		if err != nil {
			return nil, err
		}
		snap, ok := snapshots[bookID]
		if !ok {
			return nil, nil
		}
		return &snap, nil
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.(*domain.StockSnapshot), nil
}
