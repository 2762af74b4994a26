package main

import (
	"context"
	"math/rand/v2"
	"time"
)

const (
	maxBackoff   = 10 * time.Second
	jitterWindow = 250 * time.Millisecond
)

// Run polls the outbox until ctx is cancelled. A full batch is followed
// immediately by the next one, an empty poll waits one interval, and a failed
// batch backs off exponentially up to maxBackoff.
func (s *Service) Run(ctx context.Context) error {
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	backoff := pollBackoff{base: s.pollInterval, max: maxBackoff}
	for {
		if err := ctx.Err(); err != nil {
			s.logg.Info(ctx, "outbox publisher context canceled")
			return err
		}

		started := time.Now()
		processed, err := s.processBatch(ctx)
		s.metrics.ObserveBatch(time.Since(started))
		s.refreshPending(ctx)

		if err == nil && processed {
			backoff.reset()
			continue
		}

		wait := s.pollInterval
		if err != nil {
			s.logg.Error(ctx, "outbox publisher batch error", err)
			wait = backoff.fail()
		} else {
			backoff.reset()
		}
		if err := sleepCtx(ctx, withJitter(wait)); err != nil {
			return err
		}
	}
}

// pollBackoff doubles on each consecutive failure and snaps back to base on
// the first success.
type pollBackoff struct {
	base, max, current time.Duration
}

func (b *pollBackoff) fail() time.Duration {
	if b.current <= 0 {
		b.current = b.base
	}
	b.current = min(b.current*2, b.max)
	return b.current
}

func (b *pollBackoff) reset() {
	b.current = 0
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + rand.N(jitterWindow)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
