package storage

import "time"

// DefaultTaskPosition is the tail position given to tasks stamped from a template.
const DefaultTaskPosition = 1e9

type Board struct {
	ID        string
	Owner     string
	Title     string
	CreatedAt time.Time
}

type TaskRow struct {
	ID         string
	BoardID    string
	ColumnID   string
	Title      string
	Note       string
	Priority   string
	DueAt      *time.Time
	Tags       []string
	Recurrence string
	Position   float64
	Archived   bool
	CreatedAt  time.Time
}

// TaskPatch is a partial task update. Nil fields are left untouched; ClearDue
// removes the due date.
type TaskPatch struct {
	Title      *string
	Note       *string
	Priority   *string
	DueAt      *time.Time
	ClearDue   bool
	Tags       []string
	SetTags    bool
	Recurrence *string
	Archived   *bool
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Note == nil && p.Priority == nil && p.DueAt == nil && !p.ClearDue &&
		!p.SetTags && p.Recurrence == nil && p.Archived == nil
}

type SubtaskRow struct {
	ID        string
	TaskID    string
	Title     string
	Done      bool
	Position  int
	CreatedAt time.Time
}

type HabitRow struct {
	ID          string
	BoardID     string
	Title       string
	Completed   bool
	CompletedAt *time.Time
	CreatedAt   time.Time
}

type HabitLogRow struct {
	ID        string
	HabitID   string
	Day       string
	CreatedAt time.Time
}

type ScheduleRow struct {
	ID        string
	BoardID   string
	Title     string
	Note      string
	Priority  string
	Tags      []string
	Frequency string
	Timezone  string
	NextAt    time.Time
	CreatedAt time.Time
}
