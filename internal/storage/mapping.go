package storage

import (
	"github.com/sandeepkv93/czar/internal/model"
)

// ToTask maps a stored row to a board task. Unknown priority or recurrence values
// are dropped rather than failing the whole board load.
func ToTask(row TaskRow) model.Task {
	priority := model.Priority(row.Priority)
	if !priority.IsValid() {
		priority = ""
	}
	recurrence := model.Frequency(row.Recurrence)
	if !recurrence.IsValid() {
		recurrence = ""
	}
	tags := row.Tags
	if tags == nil {
		tags = []string{}
	}
	return model.Task{
		ID:         row.ID,
		Title:      row.Title,
		Note:       row.Note,
		Priority:   priority,
		DueAt:      row.DueAt,
		Tags:       tags,
		Recurrence: recurrence,
		Position:   row.Position,
		CreatedAt:  row.CreatedAt,
	}
}

func ToTasks(rows []TaskRow) []model.Task {
	out := make([]model.Task, 0, len(rows))
	for _, row := range rows {
		out = append(out, ToTask(row))
	}
	return out
}

func ToSubtask(row SubtaskRow) model.Subtask {
	return model.Subtask{ID: row.ID, TaskID: row.TaskID, Title: row.Title, Done: row.Done, Position: row.Position}
}

func ToHabit(row HabitRow) model.Habit {
	return model.Habit{
		ID:          row.ID,
		Title:       row.Title,
		CreatedAt:   row.CreatedAt,
		Completed:   row.Completed,
		CompletedAt: row.CompletedAt,
	}
}

func ToHabitLog(row HabitLogRow) model.HabitLog {
	return model.HabitLog{ID: row.ID, HabitID: row.HabitID, Day: row.Day}
}

func ToSchedule(row ScheduleRow) model.Schedule {
	return model.Schedule{
		ID: row.ID,
		Template: model.Template{
			Title:     row.Title,
			Note:      row.Note,
			Priority:  model.Priority(row.Priority),
			Tags:      row.Tags,
			Frequency: model.Frequency(row.Frequency),
		},
		NextAt:    row.NextAt,
		Timezone:  row.Timezone,
		CreatedAt: row.CreatedAt,
	}
}

// FromTemplate builds the task row a schedule stamps into the pending column.
func FromTemplate(boardID string, tpl model.Template) TaskRow {
	return TaskRow{
		BoardID:    boardID,
		ColumnID:   string(model.ColumnPending),
		Title:      tpl.Title,
		Note:       tpl.Note,
		Priority:   string(tpl.Priority),
		Tags:       append([]string{}, tpl.Tags...),
		Recurrence: string(tpl.Frequency),
		Position:   DefaultTaskPosition,
	}
}
