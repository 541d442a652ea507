package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/TienxDun/DigiBook-sub002/internal/domain"
	"github.com/TienxDun/DigiBook-sub002/internal/usercart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyUserCartRepo struct {
	mu        sync.Mutex
	failFirst int
	attempts  int
	carts     map[string]domain.Cart
}

func newFlakyUserCartRepo(failFirst int) *flakyUserCartRepo {
	return &flakyUserCartRepo{failFirst: failFirst, carts: make(map[string]domain.Cart)}
}

func (r *flakyUserCartRepo) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[userID]
	if !ok {
		return nil, usercart.ErrCartNotFound
	}
	out := c.Clone()
	return &out, nil
}

func (r *flakyUserCartRepo) UpsertCart(_ context.Context, userID string, cart *domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts++
	if r.attempts <= r.failFirst {
		return errors.New("mongo write timeout")
	}
	r.carts[userID] = cart.Clone()
	return nil
}

func (r *flakyUserCartRepo) DeleteCart(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, userID)
	return nil
}

func (r *flakyUserCartRepo) stored(userID string) (domain.Cart, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[userID]
	return c, ok
}

func TestSyncer_MirrorsCart(t *testing.T) {
	repo := newFlakyUserCartRepo(0)
	s := NewSyncer(repo, 8)
	s.baseBackoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	s.Enqueue("user-1", domain.Cart{Lines: []domain.CartLine{{BookID: 1, Quantity: 2}}})

	require.Eventually(t, func() bool {
		_, ok := repo.stored("user-1")
		return ok
	}, time.Second, 5*time.Millisecond)

	c, _ := repo.stored("user-1")
	assert.Equal(t, int32(2), c.Lines[0].Quantity)
}

func TestSyncer_RetriesFailedWrites(t *testing.T) {
	repo := newFlakyUserCartRepo(2)
	s := NewSyncer(repo, 8)
	s.baseBackoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	s.Enqueue("user-1", domain.Cart{Lines: []domain.CartLine{{BookID: 1, Quantity: 1}}})

	require.Eventually(t, func() bool {
		_, ok := repo.stored("user-1")
		return ok
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSyncer_FullQueueDropsInsteadOfBlocking(t *testing.T) {
	repo := newFlakyUserCartRepo(0)
	s := NewSyncer(repo, 1)
	// Run is never started, so the queue can only hold one job.

	done := make(chan struct{})
	go func() {
		s.Enqueue("user-1", domain.Cart{})
		s.Enqueue("user-1", domain.Cart{})
		s.Enqueue("user-1", domain.Cart{})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue must never block the caller")
	}
}
