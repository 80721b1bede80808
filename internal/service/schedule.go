package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sandeepkv93/czar/internal/model"
	"github.com/sandeepkv93/czar/internal/storage"
)

type ScheduleStore interface {
	BoardResolver
	storage.ScheduleStore
	CreateTask(ctx context.Context, in storage.TaskRow) (storage.TaskRow, error)
}

type ScheduleService struct {
	store ScheduleStore
	ref   *boardRef
	log   zerolog.Logger
	loc   *time.Location
}

func NewScheduleService(store ScheduleStore, owner string, loc *time.Location, log zerolog.Logger) *ScheduleService {
	return &ScheduleService{
		store: store,
		ref:   &boardRef{owner: owner, resolver: store},
		log:   log,
		loc:   orLocal(loc),
	}
}

// Create registers a schedule whose first instance is due at the next period
// boundary after now in timezone. An empty timezone uses the service default.
func (s *ScheduleService) Create(ctx context.Context, tpl model.Template, timezone string, now time.Time) (model.Schedule, error) {
	tpl.Title = strings.TrimSpace(tpl.Title)
	tpl.Tags = model.NormalizeTags(tpl.Tags)
	if timezone == "" {
		timezone = s.loc.String()
	}
	sched := model.Schedule{Template: tpl, Timezone: timezone}
	next, err := model.NextOccurrence(tpl.Frequency, now.In(sched.Location(s.loc)))
	if err != nil {
		return model.Schedule{}, err
	}
	sched.NextAt = next
	if err := sched.Validate(); err != nil {
		return model.Schedule{}, err
	}

	id, err := s.ref.get(ctx)
	if err != nil {
		return model.Schedule{}, err
	}
	row, err := s.store.CreateSchedule(ctx, storage.ScheduleRow{
		BoardID:   id,
		Title:     tpl.Title,
		Note:      tpl.Note,
		Priority:  string(tpl.Priority),
		Tags:      tpl.Tags,
		Frequency: string(tpl.Frequency),
		Timezone:  timezone,
		NextAt:    next,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("create schedule failed")
		return model.Schedule{}, fmt.Errorf("create schedule: %w", err)
	}
	s.log.Info().Str("schedule", row.ID).Time("next_at", next).Msg("schedule created")
	return storage.ToSchedule(row), nil
}

// List returns schedules ordered by next due time.
func (s *ScheduleService) List(ctx context.Context) ([]model.Schedule, error) {
	id, err := s.ref.get(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListSchedules(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	out := make([]model.Schedule, 0, len(rows))
	for _, row := range rows {
		out = append(out, storage.ToSchedule(row))
	}
	return out, nil
}

func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteSchedule(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("schedule", id).Msg("delete schedule failed")
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}

// Materialize stamps one pending task for every schedule due at now and advances
// its next boundary past now. Missed periods collapse into that single task. The
// boundary is advanced before the task is written and put back if the write
// fails. A failing schedule does not stop the others; all failures are returned
// joined.
func (s *ScheduleService) Materialize(ctx context.Context, now time.Time) (int, error) {
	schedules, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	id, err := s.ref.get(ctx)
	if err != nil {
		return 0, err
	}

	var errs []error
	created := 0
	for _, sched := range schedules {
		if !sched.Due(now) {
			continue
		}
		loc := sched.Location(s.loc)
		next, err := model.NextOccurrence(sched.Template.Frequency, now.In(loc))
		if err != nil {
			errs = append(errs, fmt.Errorf("schedule %s: %w", sched.ID, err))
			continue
		}
		// Advance first: a failed advance stamps nothing, so a period never yields two tasks.
		if err := s.store.UpdateScheduleNextAt(ctx, sched.ID, next); err != nil {
			s.log.Warn().Err(err).Str("schedule", sched.ID).Msg("advance schedule failed")
			errs = append(errs, fmt.Errorf("schedule %s: advance: %w", sched.ID, err))
			continue
		}
		row, err := s.store.CreateTask(ctx, storage.FromTemplate(id, sched.Template))
		if err != nil {
			s.log.Warn().Err(err).Str("schedule", sched.ID).Msg("materialize task failed")
			errs = append(errs, fmt.Errorf("schedule %s: create task: %w", sched.ID, err))
			if err := s.store.UpdateScheduleNextAt(ctx, sched.ID, sched.NextAt); err != nil {
				s.log.Error().Err(err).Str("schedule", sched.ID).Msg("restore schedule failed, period skipped")
				errs = append(errs, fmt.Errorf("schedule %s: restore: %w", sched.ID, err))
			}
			continue
		}
		created++
		s.log.Info().Str("schedule", sched.ID).Str("task", row.ID).Time("next_at", next).Msg("schedule materialized")
	}
	return created, errors.Join(errs...)
}
