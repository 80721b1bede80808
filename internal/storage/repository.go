package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("storage: not found")
	ErrDuplicate        = errors.New("storage: duplicate")
	ErrNotAuthenticated = errors.New("storage: not authenticated")
)

type TaskStore interface {
	// EnsureBoard returns the owner's board, creating it on first use.
	EnsureBoard(ctx context.Context, owner string) (Board, error)
	// ListTasks returns the board's non-archived tasks ordered by position.
	ListTasks(ctx context.Context, boardID string) ([]TaskRow, error)
	GetTask(ctx context.Context, id string) (TaskRow, error)
	CreateTask(ctx context.Context, in TaskRow) (TaskRow, error)
	UpdateTask(ctx context.Context, id string, patch TaskPatch) error
	MoveTask(ctx context.Context, id, columnID string, position float64) error
	// ListArchivedTasks returns archived tasks, newest first.
	ListArchivedTasks(ctx context.Context, boardID string) ([]TaskRow, error)
}

type SubtaskStore interface {
	ListSubtasks(ctx context.Context, taskID string) ([]SubtaskRow, error)
	InsertSubtask(ctx context.Context, in SubtaskRow) (SubtaskRow, error)
	UpdateSubtask(ctx context.Context, id string, done bool) error
	DeleteSubtask(ctx context.Context, id string) error
}

type HabitStore interface {
	ListHabits(ctx context.Context, boardID string) ([]HabitRow, error)
	CreateHabit(ctx context.Context, in HabitRow) (HabitRow, error)
	// DeleteHabit removes the habit together with its logs.
	DeleteHabit(ctx context.Context, id string) error
	UpdateHabit(ctx context.Context, id string, completed bool, completedAt *time.Time) error
	ListHabitLogs(ctx context.Context, habitIDs []string) ([]HabitLogRow, error)
	// InsertHabitLog fails with ErrDuplicate when the habit already has a log for the day.
	InsertHabitLog(ctx context.Context, in HabitLogRow) (HabitLogRow, error)
	DeleteHabitLog(ctx context.Context, id string) error
}

type ScheduleStore interface {
	CreateSchedule(ctx context.Context, in ScheduleRow) (ScheduleRow, error)
	ListSchedules(ctx context.Context, boardID string) ([]ScheduleRow, error)
	UpdateScheduleNextAt(ctx context.Context, id string, nextAt time.Time) error
	DeleteSchedule(ctx context.Context, id string) error
}

// Store is everything the application persists.
type Store interface {
	TaskStore
	SubtaskStore
	HabitStore
	ScheduleStore
}
