package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidColumn   = errors.New("model: invalid column")
	ErrInvalidPriority = errors.New("model: invalid task priority")
)

type Column string

const (
	ColumnPending    Column = "pending"
	ColumnInProgress Column = "inprogress"
	ColumnAction     Column = "action"
	ColumnDone       Column = "done"
)

// Columns is the fixed display order of the board.
var Columns = []Column{ColumnPending, ColumnInProgress, ColumnAction, ColumnDone}

func (c Column) IsValid() bool {
	switch c {
	case ColumnPending, ColumnInProgress, ColumnAction, ColumnDone:
		return true
	default:
		return false
	}
}

func (c Column) Title() string {
	switch c {
	case ColumnPending:
		return "Pending"
	case ColumnInProgress:
		return "In Progress"
	case ColumnAction:
		return "Action Taken"
	case ColumnDone:
		return "Completed"
	default:
		return string(c)
	}
}

func ParseColumn(raw string) (Column, error) {
	c := Column(strings.ToLower(strings.TrimSpace(raw)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidColumn, raw)
	}
	return c, nil
}

type Priority string

const (
	PriorityUrgent              Priority = "Urgent"
	PriorityImportant           Priority = "Important"
	PriorityInevitablyImportant Priority = "Inevitably important"
)

// Priorities lists the selectable priorities, most pressing first.
var Priorities = []Priority{PriorityUrgent, PriorityImportant, PriorityInevitablyImportant}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityUrgent, PriorityImportant, PriorityInevitablyImportant:
		return true
	default:
		return false
	}
}

// ParsePriority accepts the full name or a case-insensitive prefix ("urg", "imp", "inev").
// An empty input means no priority.
func ParsePriority(raw string) (Priority, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return "", nil
	}
	for _, p := range Priorities {
		if strings.HasPrefix(strings.ToLower(string(p)), v) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPriority, raw)
}

type Task struct {
	ID         string
	Title      string
	Note       string
	Priority   Priority
	DueAt      *time.Time
	Tags       []string
	Recurrence Frequency
	Position   float64
	CreatedAt  time.Time
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: task title is required")
	}
	if t.Priority != "" && !t.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}
	if t.Recurrence != "" && !t.Recurrence.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, t.Recurrence)
	}
	if t.CreatedAt.IsZero() {
		return errors.New("model: task created_at is required")
	}
	return nil
}

// HasTag reports whether the task carries tag, ignoring case.
func (t Task) HasTag(tag string) bool {
	for _, have := range t.Tags {
		if strings.EqualFold(have, tag) {
			return true
		}
	}
	return false
}

// IsOverdue reports whether a task is past due as of now. Tasks in the done column
// and tasks without a due date are never overdue; anything due before the end of
// the local day counts.
func IsOverdue(t Task, inDone bool, now time.Time) bool {
	if t.DueAt == nil || inDone {
		return false
	}
	return t.DueAt.Before(EndOfDay(now))
}

// NormalizeTags trims, drops empties and removes case-insensitive duplicates while
// keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		key := strings.ToLower(tag)
		if tag == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}
	return out
}

type Subtask struct {
	ID       string
	TaskID   string
	Title    string
	Done     bool
	Position int
}
