// Package ratelimit decides request admission against a daily quota
package ratelimit

import (
	"context"
	"time"

	"cinesage-api/internal/database"

	"go.uber.org/zap"
)

// Clock is pulled out so tests can pin time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Limiter admits up to quota requests per client identity per calendar
// day. The window is the local calendar day of the stored record; a
// request on a later day rolls the window over regardless of the prior
// count.
//
// Fetch and upsert are two separate store round-trips, so concurrent
// requests from the same identity can both read a stale count and both be
// admitted. Slight over-granting under that race is accepted.
type Limiter struct {
	store database.QuotaStore
	clock Clock
	quota int
	log   *zap.SugaredLogger
}

func NewLimiter(store database.QuotaStore, quota int, log *zap.SugaredLogger) *Limiter {
	return &Limiter{store: store, clock: systemClock{}, quota: quota, log: log}
}

// WithClock replaces the wall clock, for tests.
func (l *Limiter) WithClock(clock Clock) *Limiter {
	l.clock = clock
	return l
}

// Allow reports whether the request is admitted and updates the stored
// record accordingly. A denial never mutates the record. Store failures
// propagate: an unreachable store rejects the request rather than
// admitting it unmetered.
func (l *Limiter) Allow(ctx context.Context, clientID string) (bool, error) {
	now := l.clock.Now()

	rec, err := l.store.Fetch(ctx, clientID)
	if err != nil {
		return false, err
	}

	if rec == nil {
		return true, l.store.Upsert(ctx, clientID, database.QuotaRecord{Count: 1, WindowStart: now})
	}

	if !sameDay(rec.WindowStart, now) {
		l.log.Debugw("quota window rollover", "client", clientID, "prior_count", rec.Count)
		return true, l.store.Upsert(ctx, clientID, database.QuotaRecord{Count: 1, WindowStart: now})
	}

	if rec.Count >= l.quota {
		return false, nil
	}

	rec.Count++
	return true, l.store.Upsert(ctx, clientID, *rec)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}
