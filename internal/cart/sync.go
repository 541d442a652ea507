package cart

import (
	"context"
	"log"
	"time"

	"github.com/TienxDun/DigiBook-sub002/internal/domain"
	"github.com/TienxDun/DigiBook-sub002/internal/usercart"
)

type syncJob struct {
	userID string
	cart   domain.Cart
}

// Syncer mirrors session carts to the per-user remote store in the
// background. Mirroring is best effort: a failed write is retried with
// backoff, then dropped with a log line. It never blocks a cart mutation and
// never rolls one back.
type Syncer struct {
	repo        usercart.Repository
	jobs        chan syncJob
	attempts    int
	baseBackoff time.Duration
}

func NewSyncer(repo usercart.Repository, buffer int) *Syncer {
	return &Syncer{
		repo:        repo,
		jobs:        make(chan syncJob, buffer),
		attempts:    3,
		baseBackoff: 200 * time.Millisecond,
	}
}

// Enqueue schedules a mirror write without blocking. When the queue is full
// the job is dropped; a later mutation re-enqueues the full cart anyway.
func (s *Syncer) Enqueue(userID string, cart domain.Cart) {
	select {
	case s.jobs <- syncJob{userID: userID, cart: cart.Clone()}:
	default:
		log.Printf("cart sync queue full, dropping write for user %s", userID)
	}
}

func (s *Syncer) Run(ctx context.Context) {
	for {
		select {
		case job := <-s.jobs:
			s.sync(ctx, job)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Syncer) sync(ctx context.Context, job syncJob) {
	backoff := s.baseBackoff
	for attempt := 1; attempt <= s.attempts; attempt++ {
		writeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := s.repo.UpsertCart(writeCtx, job.userID, &job.cart)
		cancel()
		if err == nil {
			return
		}
		log.Printf("cart sync attempt %d for user %s failed: %v", attempt, job.userID, err)

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return
		}
	}
	log.Printf("cart sync gave up for user %s", job.userID)
}
