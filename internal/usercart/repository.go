package usercart

import (
	"context"
	"errors"

	"github.com/TienxDun/DigiBook-sub002/internal/domain"
)

var ErrCartNotFound = errors.New("user cart not found")

// Repository is the per-user remote cart mirror. It is eventually consistent
// by design: the session store remains the source of truth for the shopper's
// current selection, the mirror only survives sign-outs and device changes.
type Repository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, userID string, cart *domain.Cart) error
	DeleteCart(ctx context.Context, userID string) error
}
