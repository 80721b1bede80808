package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sandeepkv93/czar/internal/board"
	"github.com/sandeepkv93/czar/internal/model"
	"github.com/sandeepkv93/czar/internal/storage"
)

type BoardStore interface {
	storage.TaskStore
	storage.SubtaskStore
	storage.ScheduleStore
}

type BoardService struct {
	store BoardStore
	ref   *boardRef
	log   zerolog.Logger
	loc   *time.Location
	now   clock

	// OnMoveBetween is passed to the move engine for cross-column moves.
	OnMoveBetween board.MoveBetweenFunc
}

func NewBoardService(store BoardStore, owner string, loc *time.Location, log zerolog.Logger) *BoardService {
	return &BoardService{
		store: store,
		ref:   &boardRef{owner: owner, resolver: store},
		log:   log,
		loc:   orLocal(loc),
		now:   time.Now,
	}
}

// Bootstrap makes sure the owner's board exists and loads it.
func (s *BoardService) Bootstrap(ctx context.Context) (board.Snapshot, error) {
	id, err := s.ref.get(ctx)
	if err != nil {
		return board.Empty(), err
	}
	s.log.Debug().Str("board", id).Msg("board ready")
	return s.Refresh(ctx)
}

// Refresh reloads the authoritative board.
func (s *BoardService) Refresh(ctx context.Context) (board.Snapshot, error) {
	id, err := s.ref.get(ctx)
	if err != nil {
		return board.Empty(), err
	}

	rows, err := s.store.ListTasks(ctx, id)
	if err != nil {
		return board.Empty(), fmt.Errorf("list tasks: %w", err)
	}
	placed := make([]board.Placed, 0, len(rows))
	for _, row := range rows {
		placed = append(placed, board.Placed{Column: model.Column(row.ColumnID), Task: storage.ToTask(row)})
	}
	snap := board.FromTasks(placed)

	archived, err := s.store.ListArchivedTasks(ctx, id)
	if err != nil {
		return board.Empty(), fmt.Errorf("list archived tasks: %w", err)
	}
	snap.Archived = storage.ToTasks(archived)

	schedules, err := s.store.ListSchedules(ctx, id)
	if err != nil {
		return board.Empty(), fmt.Errorf("list schedules: %w", err)
	}
	snap.Schedules = make([]model.Schedule, 0, len(schedules))
	for _, row := range schedules {
		snap.Schedules = append(snap.Schedules, storage.ToSchedule(row))
	}
	return snap, nil
}

// Persist writes the column and position taskID has in optimistic, then re-fetches.
// A failed write is returned alongside the re-fetched board so the caller shows the
// authoritative state together with the error.
func (s *BoardService) Persist(ctx context.Context, optimistic board.Snapshot, taskID string) (board.Snapshot, error) {
	var writeErr error
	if p, ok := board.Place(optimistic, taskID); ok {
		if err := s.store.MoveTask(ctx, p.TaskID, string(p.Column), p.Position); err != nil {
			s.log.Warn().Err(err).Str("task", taskID).Str("column", string(p.Column)).Msg("persist move failed")
			writeErr = fmt.Errorf("move task: %w", err)
		} else {
			s.log.Debug().Str("task", taskID).Str("column", string(p.Column)).Float64("position", p.Position).Msg("task moved")
		}
	}
	return s.reload(ctx, optimistic, writeErr)
}

// Move applies a drop and persists it. A drop the engine cannot resolve issues no
// write and returns s unchanged.
func (s *BoardService) Move(ctx context.Context, snap board.Snapshot, activeID, overID string) (board.Snapshot, error) {
	next, ok := board.TryMove(snap, activeID, overID, s.OnMoveBetween)
	if !ok {
		return snap, nil
	}
	return s.Persist(ctx, next, activeID)
}

// Create adds a task at the tail of the pending column. A recurring task also
// registers a schedule that stamps a fresh copy at each period boundary. snap is
// returned unchanged whenever no fresher board can be read.
func (s *BoardService) Create(ctx context.Context, snap board.Snapshot, in board.NewTask) (string, board.Snapshot, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return "", snap, err
	}
	id, err := s.ref.get(ctx)
	if err != nil {
		return "", snap, err
	}

	row, err := s.store.CreateTask(ctx, storage.TaskRow{
		BoardID:    id,
		ColumnID:   string(model.ColumnPending),
		Title:      in.Title,
		Note:       in.Note,
		Priority:   string(in.Priority),
		DueAt:      in.DueAt,
		Tags:       in.Tags,
		Recurrence: string(in.Recurrence),
		Position:   board.TailPosition,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("create task failed")
		fresh, err := s.reload(ctx, snap, fmt.Errorf("create task: %w", err))
		return "", fresh, err
	}
	s.log.Info().Str("task", row.ID).Msg("task created")

	var schedErr error
	if in.Recurrence != "" {
		schedErr = s.createSchedule(ctx, id, in.Template())
	}
	fresh, err := s.reload(ctx, snap, schedErr)
	return row.ID, fresh, err
}

func (s *BoardService) createSchedule(ctx context.Context, boardID string, tpl model.Template) error {
	next, err := model.NextOccurrence(tpl.Frequency, s.now.in(s.loc))
	if err != nil {
		return err
	}
	row, err := s.store.CreateSchedule(ctx, storage.ScheduleRow{
		BoardID:   boardID,
		Title:     tpl.Title,
		Note:      tpl.Note,
		Priority:  string(tpl.Priority),
		Tags:      tpl.Tags,
		Frequency: string(tpl.Frequency),
		Timezone:  s.loc.String(),
		NextAt:    next,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("create schedule failed")
		return fmt.Errorf("create schedule: %w", err)
	}
	s.log.Info().Str("schedule", row.ID).Time("next_at", next).Msg("schedule created")
	return nil
}

// Edit applies a partial update to a task.
func (s *BoardService) Edit(ctx context.Context, snap board.Snapshot, id string, patch storage.TaskPatch) (board.Snapshot, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return snap, board.ErrEmptyTitle
	}
	if patch.SetTags {
		patch.Tags = model.NormalizeTags(patch.Tags)
	}
	var writeErr error
	if err := s.store.UpdateTask(ctx, id, patch); err != nil {
		s.log.Warn().Err(err).Str("task", id).Msg("edit task failed")
		writeErr = fmt.Errorf("update task: %w", err)
	}
	return s.reload(ctx, snap, writeErr)
}

func (s *BoardService) Archive(ctx context.Context, snap board.Snapshot, id string) (board.Snapshot, error) {
	archived := true
	return s.Edit(ctx, snap, id, storage.TaskPatch{Archived: &archived})
}

// Restore brings an archived task back into the column it was archived from.
func (s *BoardService) Restore(ctx context.Context, snap board.Snapshot, id string) (board.Snapshot, error) {
	archived := false
	return s.Edit(ctx, snap, id, storage.TaskPatch{Archived: &archived})
}

// Archived lists archived tasks, newest first.
func (s *BoardService) Archived(ctx context.Context) ([]model.Task, error) {
	id, err := s.ref.get(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListArchivedTasks(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list archived tasks: %w", err)
	}
	return storage.ToTasks(rows), nil
}

func (s *BoardService) Subtasks(ctx context.Context, taskID string) ([]model.Subtask, error) {
	rows, err := s.store.ListSubtasks(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	out := make([]model.Subtask, 0, len(rows))
	for _, row := range rows {
		out = append(out, storage.ToSubtask(row))
	}
	return out, nil
}

// AddSubtask appends a subtask after the existing ones.
func (s *BoardService) AddSubtask(ctx context.Context, taskID, title string) ([]model.Subtask, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return s.Subtasks(ctx, taskID)
	}
	current, err := s.Subtasks(ctx, taskID)
	if err != nil {
		return nil, err
	}
	var writeErr error
	if _, err := s.store.InsertSubtask(ctx, storage.SubtaskRow{TaskID: taskID, Title: title, Position: len(current) + 1}); err != nil {
		s.log.Warn().Err(err).Str("task", taskID).Msg("add subtask failed")
		writeErr = fmt.Errorf("insert subtask: %w", err)
	}
	return s.reloadSubtasks(ctx, taskID, writeErr)
}

func (s *BoardService) SetSubtaskDone(ctx context.Context, taskID, id string, done bool) ([]model.Subtask, error) {
	var writeErr error
	if err := s.store.UpdateSubtask(ctx, id, done); err != nil {
		s.log.Warn().Err(err).Str("subtask", id).Msg("update subtask failed")
		writeErr = fmt.Errorf("update subtask: %w", err)
	}
	return s.reloadSubtasks(ctx, taskID, writeErr)
}

func (s *BoardService) RemoveSubtask(ctx context.Context, taskID, id string) ([]model.Subtask, error) {
	var writeErr error
	if err := s.store.DeleteSubtask(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("subtask", id).Msg("delete subtask failed")
		writeErr = fmt.Errorf("delete subtask: %w", err)
	}
	return s.reloadSubtasks(ctx, taskID, writeErr)
}

// reload re-fetches after a write. When the re-fetch itself fails the fallback
// snapshot is returned with both errors.
func (s *BoardService) reload(ctx context.Context, fallback board.Snapshot, writeErr error) (board.Snapshot, error) {
	fresh, err := s.Refresh(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("refresh after write failed")
		return fallback, errors.Join(writeErr, fmt.Errorf("refresh: %w", err))
	}
	return fresh, writeErr
}

func (s *BoardService) reloadSubtasks(ctx context.Context, taskID string, writeErr error) ([]model.Subtask, error) {
	subs, err := s.Subtasks(ctx, taskID)
	if err != nil {
		return nil, errors.Join(writeErr, err)
	}
	return subs, writeErr
}
