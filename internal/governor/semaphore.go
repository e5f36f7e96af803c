// Package governor implements the Resource Governor (C1): a distributed
// counting semaphore throttling concurrent GPU/LLM work across processes,
// and an adaptive model selector that trades concurrency, model size, and
// diarization off against available VRAM.
package governor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	evidenceerrors "github.com/legalease-ai/evidence-core/internal/errors"
)

const (
	defaultSemaphoreKey = "evidence-core:governor:semaphore"
	defaultTimeout      = 2 * time.Minute
	retryInterval       = 1 * time.Second
)

// LeaseToken represents one held permit. Release is idempotent: releasing an
// already-released token is a no-op.
type LeaseToken struct {
	sem      *Semaphore
	released bool
}

// Release returns the permit. Safe to call multiple times and safe to defer
// unconditionally right after a successful Acquire.
func (t *LeaseToken) Release(ctx context.Context) error {
	if t == nil || t.released {
		return nil
	}
	t.released = true
	return t.sem.release(ctx)
}

// Semaphore is a Redis-backed distributed counting semaphore. When Redis is
// unreachable it degrades to allowing every request through rather than
// blocking callers indefinitely on an infrastructure outage.
type Semaphore struct {
	client      *redis.Client
	key         string
	maxConcurrent int
	timeout     time.Duration
	degraded    bool
}

// Option configures a Semaphore at construction.
type Option func(*Semaphore)

// WithKey overrides the default Redis key the counter lives under, used to
// run independent governors (e.g. one per case, or one per LLM provider).
func WithKey(key string) Option {
	return func(s *Semaphore) { s.key = key }
}

// WithTimeout overrides the default blocking-acquire timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Semaphore) { s.timeout = d }
}

// NewSemaphore builds a Semaphore against the given Redis client with a
// capacity of maxConcurrent permits. maxConcurrent=0 means every acquire
// fails with TimeoutError — used as a guardrail test fixture.
func NewSemaphore(client *redis.Client, maxConcurrent int, opts ...Option) *Semaphore {
	s := &Semaphore{
		client:        client,
		key:           defaultSemaphoreKey,
		maxConcurrent: maxConcurrent,
		timeout:       defaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Acquire obtains one permit, blocking and retrying until success, timeout
// elapses, or ctx is cancelled. If blocking is false, it fails immediately
// when no permit is free rather than waiting.
func (s *Semaphore) Acquire(ctx context.Context, blocking bool, timeout time.Duration) (*LeaseToken, error) {
	if timeout <= 0 {
		timeout = s.timeout
	}

	if !s.ping(ctx) {
		slog.Warn("governor: redis unreachable, running in degraded mode (unthrottled)")
		return &LeaseToken{sem: s}, nil
	}

	start := time.Now()
	for {
		current, err := s.client.Get(ctx, s.key).Int()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, &evidenceerrors.TransientBackendError{Backend: "redis", Cause: err}
		}

		if current < s.maxConcurrent {
			newCount, err := s.client.Incr(ctx, s.key).Result()
			if err != nil {
				return nil, &evidenceerrors.TransientBackendError{Backend: "redis", Cause: err}
			}
			if int(newCount) <= s.maxConcurrent {
				slog.Info("governor: permit acquired", slog.Int64("in_use", newCount), slog.Int("capacity", s.maxConcurrent))
				return &LeaseToken{sem: s}, nil
			}
			// Lost the race to another caller; undo and retry.
			s.client.Decr(ctx, s.key)
		}

		if !blocking {
			return nil, &evidenceerrors.TimeoutError{Operation: "governor.acquire", Elapsed: time.Since(start).String()}
		}

		elapsed := time.Since(start)
		if elapsed >= timeout {
			return nil, &evidenceerrors.TimeoutError{Operation: "governor.acquire", Elapsed: elapsed.String()}
		}

		wait := retryInterval
		if remaining := timeout - elapsed; remaining < wait {
			wait = remaining
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (s *Semaphore) release(ctx context.Context) error {
	if !s.ping(ctx) {
		return nil
	}
	newCount, err := s.client.Decr(ctx, s.key).Result()
	if err != nil {
		return fmt.Errorf("governor: release: %w", err)
	}
	if newCount <= 0 {
		s.client.Del(ctx, s.key)
	}
	return nil
}

// CurrentUsage returns the number of permits currently held. Returns 0 in
// degraded mode.
func (s *Semaphore) CurrentUsage(ctx context.Context) (int, error) {
	if !s.ping(ctx) {
		return 0, nil
	}
	count, err := s.client.Get(ctx, s.key).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("governor: current usage: %w", err)
	}
	return count, nil
}

// Reset forcibly clears the counter. Emergency use only, for recovering
// from a crashed worker that never released its permit.
func (s *Semaphore) Reset(ctx context.Context) error {
	if !s.ping(ctx) {
		return nil
	}
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("governor: reset: %w", err)
	}
	slog.Warn("governor: semaphore forcefully reset", slog.String("key", s.key))
	return nil
}

func (s *Semaphore) ping(ctx context.Context) bool {
	if s.client == nil {
		return false
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.client.Ping(pingCtx).Err() == nil
}
