package board

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/sandeepkv93/czar/internal/model"
)

type DueWindow string

const (
	DueAll     DueWindow = "all"
	DueToday   DueWindow = "today"
	DueWeek    DueWindow = "week"
	DueOverdue DueWindow = "overdue"
)

var DueWindows = []DueWindow{DueAll, DueToday, DueWeek, DueOverdue}

func ParseDueWindow(raw string) (DueWindow, error) {
	w := DueWindow(strings.ToLower(strings.TrimSpace(raw)))
	if w == "" {
		return DueAll, nil
	}
	for _, known := range DueWindows {
		if w == known {
			return w, nil
		}
	}
	return "", fmt.Errorf("board: unknown due window %q", raw)
}

// Filter narrows what the board displays. The zero value shows everything.
type Filter struct {
	Priority model.Priority
	Tags     []string
	Due      DueWindow
	Query    string
}

func (f Filter) Active() bool {
	return f.Priority != "" || len(f.Tags) > 0 || (f.Due != "" && f.Due != DueAll) || strings.TrimSpace(f.Query) != ""
}

// Apply returns a copy of s holding only the tasks that pass f. Column order is kept.
// The result is for display only; moves always run against the unfiltered snapshot.
func (f Filter) Apply(s Snapshot, now time.Time) Snapshot {
	if !f.Active() {
		return s
	}
	changed := make(map[model.Column][]model.Task, len(model.Columns))
	for _, c := range model.Columns {
		kept := make([]model.Task, 0, len(s.Columns[c]))
		for _, t := range s.Columns[c] {
			if f.matches(t, now) {
				kept = append(kept, t)
			}
		}
		changed[c] = f.rank(kept)
	}
	return s.withColumns(changed)
}

func (f Filter) matches(t model.Task, now time.Time) bool {
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	for _, tag := range f.Tags {
		if !t.HasTag(tag) {
			return false
		}
	}
	return f.Due == "" || f.Due == DueAll || inWindow(t.DueAt, f.Due, now)
}

// inWindow evaluates the due windows against the local day of now. The week runs
// through the end of the coming Sunday; on a Sunday that is the following one.
func inWindow(due *time.Time, w DueWindow, now time.Time) bool {
	if due == nil {
		return false
	}
	start := model.StartOfDay(now)
	switch w {
	case DueToday:
		return !due.Before(start) && !due.After(model.EndOfDay(now))
	case DueWeek:
		end := model.EndOfDay(model.AddDays(start, 7-int(start.Weekday())))
		return !due.Before(start) && !due.After(end)
	case DueOverdue:
		return due.Before(start)
	default:
		return true
	}
}

// rank keeps only fuzzy title matches for the query, preserving board order.
func (f Filter) rank(tasks []model.Task) []model.Task {
	q := strings.TrimSpace(f.Query)
	if q == "" || len(tasks) == 0 {
		return tasks
	}
	titles := make([]string, len(tasks))
	for i, t := range tasks {
		titles[i] = t.Title
	}
	matches := fuzzy.Find(q, titles)
	hit := make(map[int]bool, len(matches))
	for _, m := range matches {
		hit[m.Index] = true
	}
	out := make([]model.Task, 0, len(matches))
	for i, t := range tasks {
		if hit[i] {
			out = append(out, t)
		}
	}
	return out
}

// AllTags merges suggested tags with every tag found on the board or in the
// archive, deduplicated case-insensitively and sorted.
func AllTags(s Snapshot, suggested []string) []string {
	all := append([]string{}, suggested...)
	for _, c := range model.Columns {
		for _, t := range s.Columns[c] {
			all = append(all, t.Tags...)
		}
	}
	for _, t := range s.Archived {
		all = append(all, t.Tags...)
	}
	out := model.NormalizeTags(all)
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i]) < strings.ToLower(out[j]) })
	return out
}
