package board

import "github.com/sandeepkv93/czar/internal/model"

// MoveBetweenFunc is called when a task changes column.
type MoveBetweenFunc func(from, to model.Column)

// Move applies a drag of activeID dropped on overID, where overID names either a
// task or a column. When the drop cannot be resolved the input snapshot is returned
// as is.
func Move(s Snapshot, activeID, overID string, onMoveBetween MoveBetweenFunc) Snapshot {
	next, _ := TryMove(s, activeID, overID, onMoveBetween)
	return next
}

// TryMove is Move that also reports whether anything was applied.
func TryMove(s Snapshot, activeID, overID string, onMoveBetween MoveBetweenFunc) (Snapshot, bool) {
	from, ok := s.ColumnOf(activeID)
	if !ok {
		return s, false
	}

	to, overIsColumn := model.Column(overID), true
	if !to.IsValid() {
		overIsColumn = false
		if to, ok = s.ColumnOf(overID); !ok {
			return s, false
		}
	}

	if from == to {
		tasks := s.Columns[from]
		oldIndex := indexOf(tasks, activeID)
		newIndex := indexOf(tasks, overID)
		if oldIndex < 0 || newIndex < 0 {
			return s, false
		}
		return s.withColumns(map[model.Column][]model.Task{
			from: arrayMove(tasks, oldIndex, newIndex),
		}), true
	}

	src := s.Columns[from]
	moving := src[indexOf(src, activeID)]
	without := make([]model.Task, 0, len(src)-1)
	for _, t := range src {
		if t.ID != activeID {
			without = append(without, t)
		}
	}

	dst := s.Columns[to]
	at := 0
	if !overIsColumn {
		if i := indexOf(dst, overID); i >= 0 {
			at = i
		}
	}
	target := make([]model.Task, 0, len(dst)+1)
	target = append(target, dst[:at]...)
	target = append(target, moving)
	target = append(target, dst[at:]...)

	if onMoveBetween != nil {
		onMoveBetween(from, to)
	}
	return s.withColumns(map[model.Column][]model.Task{from: without, to: target}), true
}

// arrayMove returns a copy of tasks with the element at from moved to to.
func arrayMove(tasks []model.Task, from, to int) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	out = append(out, tasks[:from]...)
	out = append(out, tasks[from+1:]...)
	out = append(out[:to], append([]model.Task{tasks[from]}, out[to:]...)...)
	return out
}

// Celebrates reports whether a column change finishes a task.
func Celebrates(from, to model.Column) bool {
	return to == model.ColumnDone && from != model.ColumnDone
}

// Placement is what gets persisted for a moved task.
type Placement struct {
	TaskID   string
	Column   model.Column
	Position float64
}

// Place derives the persisted position of taskID from its current neighbours.
func Place(s Snapshot, taskID string) (Placement, bool) {
	col, ok := s.ColumnOf(taskID)
	if !ok {
		return Placement{}, false
	}
	tasks := s.Columns[col]
	idx := indexOf(tasks, taskID)

	var prev, next *float64
	if idx > 0 {
		p := tasks[idx-1].Position
		prev = &p
	}
	if idx < len(tasks)-1 {
		n := tasks[idx+1].Position
		next = &n
	}
	return Placement{TaskID: taskID, Column: col, Position: ComputePosition(prev, next)}, true
}
