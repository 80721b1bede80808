package board

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/czar/internal/model"
)

var ErrEmptyTitle = errors.New("board: task title is required")

// NewTask is the input for creating a task. New tasks always start in the pending
// column at TailPosition.
type NewTask struct {
	Title      string
	Note       string
	Priority   model.Priority
	DueAt      *time.Time
	Tags       []string
	Recurrence model.Frequency
}

// Normalize trims the text fields and deduplicates tags.
func (n NewTask) Normalize() NewTask {
	n.Title = strings.TrimSpace(n.Title)
	n.Note = strings.TrimSpace(n.Note)
	n.Tags = model.NormalizeTags(n.Tags)
	return n
}

func (n NewTask) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return ErrEmptyTitle
	}
	if n.Priority != "" && !n.Priority.IsValid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidPriority, n.Priority)
	}
	if n.Recurrence != "" && !n.Recurrence.IsValid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidFrequency, n.Recurrence)
	}
	return nil
}

// Template returns the schedule template for a recurring task.
func (n NewTask) Template() model.Template {
	return model.Template{
		Title:     n.Title,
		Note:      n.Note,
		Priority:  n.Priority,
		Tags:      n.Tags,
		Frequency: n.Recurrence,
	}
}
