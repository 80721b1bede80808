// Package board holds the in-memory kanban board and the pure functions that
// rearrange it. Nothing here talks to the store; callers persist what these
// functions decide and then reload.
package board

import (
	"sort"

	"github.com/sandeepkv93/czar/internal/model"
)

// Snapshot is the whole board at one instant. Column slices are treated as
// immutable: every transformation allocates new slices for the columns it changes.
type Snapshot struct {
	Columns   map[model.Column][]model.Task
	Archived  []model.Task
	Schedules []model.Schedule
}

// Placed pairs a task with the column it was loaded from.
type Placed struct {
	Column model.Column
	Task   model.Task
}

func Empty() Snapshot {
	cols := make(map[model.Column][]model.Task, len(model.Columns))
	for _, c := range model.Columns {
		cols[c] = []model.Task{}
	}
	return Snapshot{Columns: cols, Archived: []model.Task{}, Schedules: []model.Schedule{}}
}

// FromTasks groups tasks by column and orders each column by position. Ties keep
// load order. Tasks with an unknown column are dropped.
func FromTasks(items []Placed) Snapshot {
	s := Empty()
	for _, it := range items {
		if !it.Column.IsValid() {
			continue
		}
		s.Columns[it.Column] = append(s.Columns[it.Column], it.Task)
	}
	for _, c := range model.Columns {
		tasks := s.Columns[c]
		sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Position < tasks[j].Position })
	}
	return s
}

func (s Snapshot) Tasks(c model.Column) []model.Task {
	return s.Columns[c]
}

// ColumnOf returns the column holding taskID.
func (s Snapshot) ColumnOf(taskID string) (model.Column, bool) {
	for _, c := range model.Columns {
		if indexOf(s.Columns[c], taskID) >= 0 {
			return c, true
		}
	}
	return "", false
}

func (s Snapshot) Find(taskID string) (model.Task, model.Column, bool) {
	for _, c := range model.Columns {
		if i := indexOf(s.Columns[c], taskID); i >= 0 {
			return s.Columns[c][i], c, true
		}
	}
	return model.Task{}, "", false
}

// Count is the number of tasks across the four columns.
func (s Snapshot) Count() int {
	n := 0
	for _, c := range model.Columns {
		n += len(s.Columns[c])
	}
	return n
}

// withColumns copies the column map and overrides the given columns.
func (s Snapshot) withColumns(changed map[model.Column][]model.Task) Snapshot {
	cols := make(map[model.Column][]model.Task, len(s.Columns))
	for c, tasks := range s.Columns {
		cols[c] = tasks
	}
	for c, tasks := range changed {
		cols[c] = tasks
	}
	return Snapshot{Columns: cols, Archived: s.Archived, Schedules: s.Schedules}
}

func indexOf(tasks []model.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}
