package main

import (
	"context"
	"sync"
	"time"
)

// throttle allows at most rateLimit requests per cooldown window and at most
// maxConcurrent requests in flight.
type throttle struct {
	rateLimit int
	cooldown  time.Duration

	ticker       *time.Ticker
	attempts     []time.Time
	attemptsLock sync.Mutex

	tokens chan struct{}
}

func newThrottle(rateLimit int, cooldown time.Duration, maxConcurrent int) *throttle {
	t := &throttle{
		rateLimit: rateLimit,
		cooldown:  cooldown,
		ticker:    time.NewTicker(cooldown / time.Duration(rateLimit)),
		tokens:    make(chan struct{}, maxConcurrent),
	}
	for i := 0; i < maxConcurrent; i++ {
		t.tokens <- struct{}{}
	}
	return t
}

func (t *throttle) Stop() { t.ticker.Stop() }

// Acquire blocks until a concurrency token and a rate slot are both free.
// The returned func gives the token back.
func (t *throttle) Acquire(ctx context.Context) (func(), error) {
	select {
	case <-t.tokens:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	done := func() { t.tokens <- struct{}{} }

	for {
		select {
		case <-t.ticker.C:
		case <-ctx.Done():
			done()
			return nil, ctx.Err()
		}
		if t.take() {
			return done, nil
		}
	}
}

func (t *throttle) take() bool {
	t.attemptsLock.Lock()
	defer t.attemptsLock.Unlock()

	att := t.attempts
	if len(att) >= t.rateLimit && time.Since(att[0]) <= t.cooldown {
		return false
	}
	att = append(att, time.Now())
	if len(att) > t.rateLimit {
		att = att[1:]
	}
	t.attempts = att
	return true
}
