package cart

import (
	"context"
	"testing"

	"github.com/TienxDun/DigiBook-sub002/internal/domain"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client), mr
}

func TestRedisStore_SaveAndLoad(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	saved := &domain.Cart{
		Lines: []domain.CartLine{
			{BookID: 1, Title: "Nhà Giả Kim", UnitPrice: 79000, Quantity: 2},
		},
		Selected: []int64{1},
	}
	require.NoError(t, store.Save(ctx, "sess-1", saved))

	loaded, err := store.Load(ctx, "sess-1")

	require.NoError(t, err)
	assert.Equal(t, saved.Lines, loaded.Lines)
	assert.Equal(t, saved.Selected, loaded.Selected)
}

func TestRedisStore_LoadMissingSession(t *testing.T) {
	store, _ := newTestRedisStore(t)

	_, err := store.Load(context.Background(), "no-such-session")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_SaveSetsTTL(t *testing.T) {
	store, mr := newTestRedisStore(t)

	require.NoError(t, store.Save(context.Background(), "sess-1", &domain.Cart{}))

	ttl := mr.TTL("digibook:cart:sess-1")
	assert.Greater(t, ttl.Hours(), float64(24*29), "session carts must expire, with at least the base TTL")
}

func TestRedisStore_OldSchemaVersionDiscarded(t *testing.T) {
	store, mr := newTestRedisStore(t)

	// a document written by an older build with a different envelope layout
	require.NoError(t, mr.Set("digibook:cart:sess-1", `{"version":0,"lines":[{"book_id":1,"quantity":2}]}`))

	_, err := store.Load(context.Background(), "sess-1")

	assert.ErrorIs(t, err, ErrNotFound, "unknown schema versions read as an absent cart")
}

func TestRedisStore_Delete(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess-1", &domain.Cart{Lines: []domain.CartLine{{BookID: 1, Quantity: 1}}}))
	require.NoError(t, store.Delete(ctx, "sess-1"))

	_, err := store.Load(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_SessionsAreNamespaced(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess-a", &domain.Cart{Lines: []domain.CartLine{{BookID: 1, Quantity: 1}}}))
	require.NoError(t, store.Save(ctx, "sess-b", &domain.Cart{Lines: []domain.CartLine{{BookID: 2, Quantity: 5}}}))

	a, err := store.Load(ctx, "sess-a")
	require.NoError(t, err)
	b, err := store.Load(ctx, "sess-b")
	require.NoError(t, err)

	assert.Equal(t, int64(1), a.Lines[0].BookID)
	assert.Equal(t, int64(2), b.Lines[0].BookID)
}
