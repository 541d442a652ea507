package cart

import (
	"context"
	"errors"

	"github.com/TienxDun/DigiBook-sub002/internal/domain"
)

var ErrNotFound = errors.New("no cart stored for session")

// schemaVersion tags the persisted session document. Documents with an
// unknown version are discarded rather than misread; nothing authoritative
// lives in the session store, so starting from an empty cart is safe.
const schemaVersion = 1

// SessionStore is the durable per-session cart storage. One document per
// session holding the lines and the selected ids together.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (*domain.Cart, error)
	Save(ctx context.Context, sessionID string, cart *domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}
