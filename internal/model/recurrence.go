package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidFrequency = errors.New("model: invalid recurrence frequency")

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	default:
		return false
	}
}

func ParseFrequency(raw string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(raw)))
	if !f.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, raw)
	}
	return f, nil
}

// NextOccurrence returns the start of the period following ref, evaluated in ref's
// location: the next local midnight (daily), the next Sunday strictly after ref's day
// (weekly) or the first of the following month (monthly).
func NextOccurrence(freq Frequency, ref time.Time) (time.Time, error) {
	y, m, d := ref.Date()
	loc := ref.Location()
	switch freq {
	case FrequencyDaily:
		return time.Date(y, m, d+1, 0, 0, 0, 0, loc), nil
	case FrequencyWeekly:
		add := (7 - int(ref.Weekday())) % 7
		if add == 0 {
			add = 7
		}
		return time.Date(y, m, d+add, 0, 0, 0, 0, loc), nil
	case FrequencyMonthly:
		return time.Date(y, m+1, 1, 0, 0, 0, 0, loc), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidFrequency, freq)
	}
}

// PreviewOccurrences lists the next count period boundaries after from.
func PreviewOccurrences(freq Frequency, from time.Time, count int) ([]time.Time, error) {
	if count <= 0 {
		return []time.Time{}, nil
	}
	out := make([]time.Time, 0, count)
	cursor := from
	for i := 0; i < count; i++ {
		next, err := NextOccurrence(freq, cursor)
		if err != nil {
			return nil, err
		}
		out = append(out, next)
		cursor = next
	}
	return out, nil
}

// Template is the blueprint a Schedule stamps new tasks from.
type Template struct {
	Title     string
	Note      string
	Priority  Priority
	Tags      []string
	Frequency Frequency
}

type Schedule struct {
	ID        string
	Template  Template
	NextAt    time.Time
	Timezone  string
	CreatedAt time.Time
}

func (s Schedule) Validate() error {
	if strings.TrimSpace(s.Template.Title) == "" {
		return errors.New("model: schedule title is required")
	}
	if !s.Template.Frequency.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, s.Template.Frequency)
	}
	if s.Template.Priority != "" && !s.Template.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, s.Template.Priority)
	}
	if s.NextAt.IsZero() {
		return errors.New("model: schedule next_at is required")
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("model: schedule timezone: %w", err)
	}
	return nil
}

// Location resolves the schedule's timezone, falling back to fallback when unset or unknown.
func (s Schedule) Location(fallback *time.Location) *time.Location {
	if strings.TrimSpace(s.Timezone) == "" {
		return fallback
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}

// Due reports whether the schedule should stamp a new task at now.
func (s Schedule) Due(now time.Time) bool {
	return !s.NextAt.After(now)
}
