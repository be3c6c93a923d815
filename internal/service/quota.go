package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"membership-platform/backend/internal/repository"
)

// ErrQuotaExceeded is returned when the caller has used their daily ceiling
var ErrQuotaExceeded = errors.New("daily quota exceeded")

// QuotaLedger counts feature usage per user per calendar day
type QuotaLedger struct {
	store   repository.UsageStore
	feature string
	loc     *time.Location
}

func NewQuotaLedger(store repository.UsageStore, feature string, loc *time.Location) *QuotaLedger {
	if loc == nil {
		loc = time.Local
	}
	return &QuotaLedger{store: store, feature: feature, loc: loc}
}

// DayWindow returns midnight of now's day in the ledger's location and the next midnight.
// The window is 23h or 25h long on daylight-saving transition days.
func (q *QuotaLedger) DayWindow(now time.Time) (time.Time, time.Time) {
	t := now.In(q.loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, q.loc)
	return start, time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, q.loc)
}

// GetUsage returns the counter for the day starting at day, or 0 when none exists.
func (q *QuotaLedger) GetUsage(ctx context.Context, userID uint, day time.Time) (int, error) {
	return q.store.Get(ctx, userID, q.feature, day)
}

// Check reads today's usage and fails with ErrQuotaExceeded once it reaches ceiling.
func (q *QuotaLedger) Check(ctx context.Context, userID uint, ceiling int, now time.Time) (int, error) {
	day, _ := q.DayWindow(now)
	usage, err := q.GetUsage(ctx, userID, day)
	if err != nil {
		return 0, fmt.Errorf("read usage: %w", err)
	}
	if usage >= ceiling {
		return usage, ErrQuotaExceeded
	}
	return usage, nil
}

// Increment records one use for now's day.
func (q *QuotaLedger) Increment(ctx context.Context, userID uint, now time.Time) error {
	start, end := q.DayWindow(now)
	return q.store.Increment(ctx, userID, q.feature, start, end)
}

// Reserve takes a slot up front: it increments, re-reads and gives the slot back if the
// ceiling was crossed. The returned day is what Release needs.
func (q *QuotaLedger) Reserve(ctx context.Context, userID uint, ceiling int, now time.Time) (time.Time, error) {
	if _, err := q.Check(ctx, userID, ceiling, now); err != nil {
		return time.Time{}, err
	}

	start, end := q.DayWindow(now)
	if err := q.store.Increment(ctx, userID, q.feature, start, end); err != nil {
		return time.Time{}, fmt.Errorf("reserve usage: %w", err)
	}

	usage, err := q.GetUsage(ctx, userID, start)
	if err != nil {
		_ = q.Release(ctx, userID, start)
		return time.Time{}, fmt.Errorf("read usage: %w", err)
	}
	if usage > ceiling {
		if err := q.Release(ctx, userID, start); err != nil {
			return time.Time{}, fmt.Errorf("release usage: %w", err)
		}
		return time.Time{}, ErrQuotaExceeded
	}
	return start, nil
}

// Release returns a reserved slot for day.
func (q *QuotaLedger) Release(ctx context.Context, userID uint, day time.Time) error {
	return q.store.Decrement(ctx, userID, q.feature, day)
}
