package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/czar/internal/habit"
	"github.com/sandeepkv93/czar/internal/model"
	"github.com/sandeepkv93/czar/internal/storage"
)

func newHabitService(t *testing.T) (*HabitService, *flakyStore) {
	t.Helper()
	store := newStore(t)
	return NewHabitService(store, "alice", time.UTC, zerolog.Nop()), store
}

func TestToggleTodayMarksAndUnmarks(t *testing.T) {
	svc, _ := newHabitService(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

	h, err := svc.Create(ctx, "Stretch")
	require.NoError(t, err)

	res, err := svc.ToggleToday(ctx, h.ID, now)
	require.NoError(t, err)
	assert.Equal(t, ToggleResult{Done: true, Streak: 1}, res)

	views, err := svc.List(ctx, now)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].DoneToday)
	assert.Equal(t, 1, views[0].Streak)

	res, err = svc.ToggleToday(ctx, h.ID, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, ToggleResult{Done: false, Streak: 0}, res)
}

func TestStreakFromStoredLogs(t *testing.T) {
	svc, store := newHabitService(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 4, 21, 0, 0, 0, time.UTC)

	h, err := svc.Create(ctx, "Read")
	require.NoError(t, err)
	for _, day := range []string{"2026-03-04", "2026-03-03", "2026-03-01"} {
		_, err := store.InsertHabitLog(ctx, storage.HabitLogRow{HabitID: h.ID, Day: day})
		require.NoError(t, err)
	}

	views, err := svc.List(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, views[0].Streak)

	views, err = svc.List(ctx, now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, views[0].Streak, "a day without a log resets the streak")
	assert.False(t, views[0].DoneToday)
}

func TestPromotionAfterTwentyOneDays(t *testing.T) {
	svc, store := newHabitService(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 21, 7, 0, 0, 0, time.UTC)

	h, err := svc.Create(ctx, "Meditate")
	require.NoError(t, err)
	for i := 1; i < habit.Threshold; i++ {
		_, err := store.InsertHabitLog(ctx, storage.HabitLogRow{HabitID: h.ID, Day: model.DayKey(model.AddDays(now, -i))})
		require.NoError(t, err)
	}

	views, err := svc.List(ctx, now)
	require.NoError(t, err)
	assert.False(t, views[0].Habit.Completed, "listing never promotes")

	res, err := svc.ToggleToday(ctx, h.ID, now)
	require.NoError(t, err)
	assert.True(t, res.Promoted)
	assert.Equal(t, 21, res.Streak)

	views, err = svc.List(ctx, now)
	require.NoError(t, err)
	require.True(t, views[0].Habit.Completed)
	require.NotNil(t, views[0].Habit.CompletedAt)
	assert.True(t, views[0].Habit.CompletedAt.Equal(now))

	// Unmarking today drops the streak but the habit stays completed.
	res, err = svc.ToggleToday(ctx, h.ID, now)
	require.NoError(t, err)
	assert.False(t, res.Promoted)
	views, err = svc.List(ctx, now)
	require.NoError(t, err)
	assert.True(t, views[0].Habit.Completed)

	res, err = svc.ToggleToday(ctx, h.ID, now)
	require.NoError(t, err)
	assert.False(t, res.Promoted, "completed habits are not promoted twice")
}

func TestDeleteHabit(t *testing.T) {
	svc, _ := newHabitService(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

	h, err := svc.Create(ctx, "Walk")
	require.NoError(t, err)
	_, err = svc.ToggleToday(ctx, h.ID, now)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, h.ID))
	views, err := svc.List(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, views)

	assert.ErrorIs(t, svc.Delete(ctx, h.ID), storage.ErrNotFound)

	_, err = svc.Create(ctx, " ")
	assert.Error(t, err)
}

func TestTodayFollowsServiceLocation(t *testing.T) {
	store := newStore(t)
	tokyo := time.FixedZone("UTC+9", 9*3600)
	svc := NewHabitService(store, "alice", tokyo, zerolog.Nop())
	ctx := context.Background()

	h, err := svc.Create(ctx, "Journal")
	require.NoError(t, err)
	// 20:00 UTC on the 4th is the 5th in UTC+9.
	_, err = svc.ToggleToday(ctx, h.ID, time.Date(2026, 3, 4, 20, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	logs, err := store.ListHabitLogs(ctx, []string{h.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "2026-03-05", logs[0].Day)
}
