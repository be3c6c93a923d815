package service

import (
	"context"
	"testing"
	"time"

	"membership-platform/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayWindow(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	q := NewQuotaLedger(newMemUsageStore(), models.FeatureAIChat, loc)

	start, end := q.DayWindow(time.Date(2025, 3, 14, 17, 45, 12, 999, loc))
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, loc), start)
	assert.Equal(t, start.Add(24*time.Hour), end)

	// 23:30 UTC on the 14th is already the 15th in UTC+2
	start, _ = q.DayWindow(time.Date(2025, 3, 14, 23, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, loc), start)
}

func TestDayWindowAcrossDaylightSaving(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	q := NewQuotaLedger(newMemUsageStore(), models.FeatureAIChat, ny)

	// fall back: 25h day
	start, end := q.DayWindow(time.Date(2025, 11, 2, 10, 0, 0, 0, ny))
	assert.Equal(t, time.Date(2025, 11, 2, 0, 0, 0, 0, ny), start)
	assert.Equal(t, time.Date(2025, 11, 3, 0, 0, 0, 0, ny), end)
	assert.Equal(t, 25*time.Hour, end.Sub(start))
	assert.True(t, time.Date(2025, 11, 2, 23, 30, 0, 0, ny).Before(end))

	// spring forward: 23h day
	start, end = q.DayWindow(time.Date(2025, 3, 9, 12, 0, 0, 0, ny))
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, ny), end)
	assert.Equal(t, 23*time.Hour, end.Sub(start))
}

func TestDayBoundaryStartsFresh(t *testing.T) {
	store := newMemUsageStore()
	q := NewQuotaLedger(store, models.FeatureAIChat, time.UTC)
	ctx := context.Background()

	lateD := time.Date(2025, 3, 14, 23, 59, 59, 0, time.UTC)
	require.NoError(t, q.Increment(ctx, 1, lateD))

	earlyNext := time.Date(2025, 3, 15, 0, 0, 1, 0, time.UTC)
	day, _ := q.DayWindow(earlyNext)
	usage, err := q.GetUsage(ctx, 1, day)
	require.NoError(t, err)
	assert.Equal(t, 0, usage)

	prev, _ := q.DayWindow(lateD)
	usage, err = q.GetUsage(ctx, 1, prev)
	require.NoError(t, err)
	assert.Equal(t, 1, usage)
}

func TestCheck(t *testing.T) {
	store := newMemUsageStore()
	q := NewQuotaLedger(store, models.FeatureAIChat, time.UTC)
	ctx := context.Background()
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	day, _ := q.DayWindow(now)

	store.set(1, day, 7)
	usage, err := q.Check(ctx, 1, 8, now)
	require.NoError(t, err)
	assert.Equal(t, 7, usage)

	store.set(1, day, 8)
	_, err = q.Check(ctx, 1, 8, now)
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	store.getErr = errStoreDown
	_, err = q.Check(ctx, 1, 8, now)
	assert.ErrorIs(t, err, errStoreDown)
}

func TestIncrementAccumulates(t *testing.T) {
	store := newMemUsageStore()
	q := NewQuotaLedger(store, models.FeatureAIChat, time.UTC)
	ctx := context.Background()
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Increment(ctx, 1, now.Add(time.Duration(i)*time.Hour)))
	}
	day, _ := q.DayWindow(now)
	assert.Equal(t, 3, store.get(1, day))
}

func TestReserveAndRelease(t *testing.T) {
	store := newMemUsageStore()
	q := NewQuotaLedger(store, models.FeatureAIChat, time.UTC)
	ctx := context.Background()
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	day, _ := q.DayWindow(now)

	store.set(1, day, 7)
	reserved, err := q.Reserve(ctx, 1, 8, now)
	require.NoError(t, err)
	assert.Equal(t, day, reserved)
	assert.Equal(t, 8, store.get(1, day))

	_, err = q.Reserve(ctx, 1, 8, now)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, 8, store.get(1, day))

	require.NoError(t, q.Release(ctx, 1, reserved))
	assert.Equal(t, 7, store.get(1, day))
}
