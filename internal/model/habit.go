package model

import (
	"errors"
	"strings"
	"time"
)

const dayKeyLayout = "2006-01-02"

type Habit struct {
	ID          string
	Title       string
	CreatedAt   time.Time
	Completed   bool
	CompletedAt *time.Time
}

func (h Habit) Validate() error {
	if strings.TrimSpace(h.ID) == "" {
		return errors.New("model: habit id is required")
	}
	if strings.TrimSpace(h.Title) == "" {
		return errors.New("model: habit title is required")
	}
	if h.CreatedAt.IsZero() {
		return errors.New("model: habit created_at is required")
	}
	if h.Completed && h.CompletedAt == nil {
		return errors.New("model: completed_at is required when habit is completed")
	}
	return nil
}

// HabitLog marks one local calendar day as done for a habit.
type HabitLog struct {
	ID      string
	HabitID string
	Day     string
}

// DayKey formats t as a YYYY-MM-DD key in t's own location, so callers decide
// whose calendar the day belongs to.
func DayKey(t time.Time) string {
	return t.Format(dayKeyLayout)
}

func ParseDayKey(key string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dayKeyLayout, key, loc)
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Millisecond*999), t.Location())
}

// AddDays moves t by n calendar days, keeping the wall clock stable across DST.
func AddDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+n, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
