package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sandeepkv93/czar/internal/habit"
	"github.com/sandeepkv93/czar/internal/model"
	"github.com/sandeepkv93/czar/internal/storage"
)

type HabitStore interface {
	BoardResolver
	storage.HabitStore
}

// HabitView is a habit as the tracker shows it.
type HabitView struct {
	Habit     model.Habit
	Streak    int
	DoneToday bool
}

// ToggleResult describes what ToggleToday did.
type ToggleResult struct {
	Done     bool
	Streak   int
	Promoted bool
}

type HabitService struct {
	store HabitStore
	ref   *boardRef
	log   zerolog.Logger
	loc   *time.Location
}

func NewHabitService(store HabitStore, owner string, loc *time.Location, log zerolog.Logger) *HabitService {
	return &HabitService{
		store: store,
		ref:   &boardRef{owner: owner, resolver: store},
		log:   log,
		loc:   orLocal(loc),
	}
}

// List returns the habits, oldest first, with their streak as of now.
func (s *HabitService) List(ctx context.Context, now time.Time) ([]HabitView, error) {
	id, err := s.ref.get(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListHabits(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	index, err := s.logIndex(ctx, ids)
	if err != nil {
		return nil, err
	}

	local := now.In(s.loc)
	today := model.DayKey(local)
	out := make([]HabitView, 0, len(rows))
	for _, row := range rows {
		days := index[row.ID]
		out = append(out, HabitView{
			Habit:     storage.ToHabit(row),
			Streak:    habit.CurrentStreak(days, local),
			DoneToday: days.Has(today),
		})
	}
	return out, nil
}

func (s *HabitService) Create(ctx context.Context, title string) (model.Habit, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Habit{}, errors.New("habit title is required")
	}
	id, err := s.ref.get(ctx)
	if err != nil {
		return model.Habit{}, err
	}
	row, err := s.store.CreateHabit(ctx, storage.HabitRow{BoardID: id, Title: title})
	if err != nil {
		s.log.Warn().Err(err).Msg("create habit failed")
		return model.Habit{}, fmt.Errorf("create habit: %w", err)
	}
	s.log.Info().Str("habit", row.ID).Msg("habit created")
	return storage.ToHabit(row), nil
}

// Delete removes a habit and its logs.
func (s *HabitService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteHabit(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("habit", id).Msg("delete habit failed")
		return fmt.Errorf("delete habit: %w", err)
	}
	return nil
}

// ToggleToday marks or unmarks the local day of now. Only marking can promote a
// habit, and a promoted habit stays completed even if today is unmarked later.
func (s *HabitService) ToggleToday(ctx context.Context, habitID string, now time.Time) (ToggleResult, error) {
	local := now.In(s.loc)
	today := model.DayKey(local)

	logs, err := s.store.ListHabitLogs(ctx, []string{habitID})
	if err != nil {
		return ToggleResult{}, fmt.Errorf("list habit logs: %w", err)
	}
	for _, l := range logs {
		if l.Day != today {
			continue
		}
		if err := s.store.DeleteHabitLog(ctx, l.ID); err != nil {
			s.log.Warn().Err(err).Str("habit", habitID).Msg("unmark today failed")
			return ToggleResult{}, fmt.Errorf("delete habit log: %w", err)
		}
		streak, err := s.streak(ctx, habitID, local)
		return ToggleResult{Done: false, Streak: streak}, err
	}

	if _, err := s.store.InsertHabitLog(ctx, storage.HabitLogRow{HabitID: habitID, Day: today}); err != nil {
		// Someone else logged today in the meantime; the day is done either way.
		if !errors.Is(err, storage.ErrDuplicate) {
			s.log.Warn().Err(err).Str("habit", habitID).Msg("mark today failed")
			return ToggleResult{}, fmt.Errorf("insert habit log: %w", err)
		}
	}

	streak, err := s.streak(ctx, habitID, local)
	if err != nil {
		return ToggleResult{Done: true}, err
	}
	result := ToggleResult{Done: true, Streak: streak}

	h, err := s.find(ctx, habitID)
	if err != nil {
		return result, err
	}
	if !habit.ShouldPromote(h, streak) {
		return result, nil
	}
	promoted := habit.Promote(h, now)
	if err := s.store.UpdateHabit(ctx, habitID, true, promoted.CompletedAt); err != nil {
		s.log.Warn().Err(err).Str("habit", habitID).Msg("promote habit failed")
		return result, fmt.Errorf("promote habit: %w", err)
	}
	s.log.Info().Str("habit", habitID).Int("streak", streak).Msg("habit completed")
	result.Promoted = true
	return result, nil
}

func (s *HabitService) streak(ctx context.Context, habitID string, local time.Time) (int, error) {
	index, err := s.logIndex(ctx, []string{habitID})
	if err != nil {
		return 0, err
	}
	return habit.CurrentStreak(index[habitID], local), nil
}

func (s *HabitService) logIndex(ctx context.Context, habitIDs []string) (map[string]habit.DaySet, error) {
	rows, err := s.store.ListHabitLogs(ctx, habitIDs)
	if err != nil {
		return nil, fmt.Errorf("list habit logs: %w", err)
	}
	logs := make([]model.HabitLog, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, storage.ToHabitLog(row))
	}
	return habit.IndexLogs(logs), nil
}

func (s *HabitService) find(ctx context.Context, habitID string) (model.Habit, error) {
	id, err := s.ref.get(ctx)
	if err != nil {
		return model.Habit{}, err
	}
	rows, err := s.store.ListHabits(ctx, id)
	if err != nil {
		return model.Habit{}, fmt.Errorf("list habits: %w", err)
	}
	for _, row := range rows {
		if row.ID == habitID {
			return storage.ToHabit(row), nil
		}
	}
	return model.Habit{}, fmt.Errorf("habit %s: %w", habitID, storage.ErrNotFound)
}
