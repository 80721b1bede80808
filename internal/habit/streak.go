// Package habit counts consecutive local days a habit was logged and decides when a
// habit has been kept long enough to retire it as completed.
package habit

import (
	"time"

	"github.com/sandeepkv93/czar/internal/model"
)

// Threshold is the streak length that promotes a habit to completed.
const Threshold = 21

// DaySet holds the day keys a habit was logged on.
type DaySet map[string]struct{}

func (d DaySet) Has(day string) bool {
	_, ok := d[day]
	return ok
}

func (d DaySet) Add(day string) {
	d[day] = struct{}{}
}

// IndexLogs groups logs by habit id.
func IndexLogs(logs []model.HabitLog) map[string]DaySet {
	out := make(map[string]DaySet)
	for _, l := range logs {
		set, ok := out[l.HabitID]
		if !ok {
			set = DaySet{}
			out[l.HabitID] = set
		}
		set.Add(l.Day)
	}
	return out
}

// CurrentStreak counts consecutive logged days ending today, where today is the
// calendar day of now in now's location. A missing entry for today yields zero.
func CurrentStreak(days DaySet, now time.Time) int {
	streak := 0
	cursor := model.StartOfDay(now)
	for days.Has(model.DayKey(cursor)) {
		streak++
		cursor = model.AddDays(cursor, -1)
	}
	return streak
}

// ShouldPromote reports whether a habit that just got a new log entry crosses the
// threshold. Completed habits are never promoted again.
func ShouldPromote(h model.Habit, streak int) bool {
	return !h.Completed && streak >= Threshold
}

// Promote returns h marked completed at now.
func Promote(h model.Habit, now time.Time) model.Habit {
	h.Completed = true
	h.CompletedAt = &now
	return h
}
