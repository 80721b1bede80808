package update

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/czar/internal/board"
	"github.com/sandeepkv93/czar/internal/model"
	"github.com/sandeepkv93/czar/internal/scheduler"
	"github.com/sandeepkv93/czar/internal/service"
	"github.com/sandeepkv93/czar/internal/storage"
)

// Every store call runs inside a tea.Cmd. Writes always answer with the
// re-fetched board so the model never reconciles state on its own.

func bootstrapCmd(ctx context.Context, boards Boards) tea.Cmd {
	if boards == nil {
		return nil
	}
	return func() tea.Msg {
		snap, err := boards.Bootstrap(ctx)
		return BoardLoadedMsg{Snapshot: snap, Err: err}
	}
}

// refreshCmd reloads the board, keeping fallback on screen if the load fails.
func refreshCmd(ctx context.Context, boards Boards, fallback board.Snapshot, note string) tea.Cmd {
	if boards == nil {
		return nil
	}
	return func() tea.Msg {
		snap, err := boards.Refresh(ctx)
		if err != nil {
			return BoardLoadedMsg{Snapshot: fallback, Err: err}
		}
		return BoardLoadedMsg{Snapshot: snap, Note: note}
	}
}

func persistCmd(ctx context.Context, boards Boards, optimistic board.Snapshot, taskID string) tea.Cmd {
	if boards == nil {
		return nil
	}
	return func() tea.Msg {
		snap, err := boards.Persist(ctx, optimistic, taskID)
		return BoardLoadedMsg{Snapshot: snap, Err: err}
	}
}

func createCmd(ctx context.Context, boards Boards, in board.NewTask, fallback board.Snapshot) tea.Cmd {
	if boards == nil {
		return nil
	}
	return func() tea.Msg {
		_, snap, err := boards.Create(ctx, fallback, in)
		return BoardLoadedMsg{Snapshot: snap, Err: err, Note: "added: " + in.Title}
	}
}

func editCmd(ctx context.Context, boards Boards, snap board.Snapshot, id string, patch storage.TaskPatch, note string) tea.Cmd {
	if boards == nil {
		return nil
	}
	return func() tea.Msg {
		fresh, err := boards.Edit(ctx, snap, id, patch)
		return BoardLoadedMsg{Snapshot: fresh, Err: err, Note: note}
	}
}

func archiveCmd(ctx context.Context, boards Boards, snap board.Snapshot, id, title string) tea.Cmd {
	if boards == nil {
		return nil
	}
	return func() tea.Msg {
		fresh, err := boards.Archive(ctx, snap, id)
		return BoardLoadedMsg{Snapshot: fresh, Err: err, Note: "archived: " + title}
	}
}

func restoreCmd(ctx context.Context, boards Boards, snap board.Snapshot, id, title string) tea.Cmd {
	if boards == nil {
		return nil
	}
	return func() tea.Msg {
		fresh, err := boards.Restore(ctx, snap, id)
		return BoardLoadedMsg{Snapshot: fresh, Err: err, Note: "restored: " + title}
	}
}

func loadSubtasksCmd(ctx context.Context, boards Boards, taskID string) tea.Cmd {
	if boards == nil {
		return nil
	}
	return func() tea.Msg {
		subs, err := boards.Subtasks(ctx, taskID)
		return SubtasksLoadedMsg{TaskID: taskID, Subtasks: subs, Err: err}
	}
}

func addSubtaskCmd(ctx context.Context, boards Boards, taskID, title string) tea.Cmd {
	if boards == nil {
		return nil
	}
	return func() tea.Msg {
		subs, err := boards.AddSubtask(ctx, taskID, title)
		return SubtasksLoadedMsg{TaskID: taskID, Subtasks: subs, Err: err}
	}
}

// subtaskAtCmd applies fn to the index-th (1-based) subtask of taskID as
// currently stored.
func subtaskAtCmd(ctx context.Context, boards Boards, taskID string, index int, fn func(model.Subtask) ([]model.Subtask, error)) tea.Cmd {
	if boards == nil {
		return nil
	}
	return func() tea.Msg {
		subs, err := boards.Subtasks(ctx, taskID)
		if err != nil {
			return SubtasksLoadedMsg{TaskID: taskID, Err: err}
		}
		if index < 1 || index > len(subs) {
			return SubtasksLoadedMsg{TaskID: taskID, Subtasks: subs, Err: fmt.Errorf("no subtask %d (task has %d)", index, len(subs))}
		}
		subs, err = fn(subs[index-1])
		return SubtasksLoadedMsg{TaskID: taskID, Subtasks: subs, Err: err}
	}
}

func loadHabitsCmd(ctx context.Context, habits Habits, now time.Time, note string) tea.Cmd {
	if habits == nil {
		return nil
	}
	return func() tea.Msg {
		list, err := habits.List(ctx, now)
		return HabitsLoadedMsg{Habits: list, Err: err, Note: note}
	}
}

func toggleHabitCmd(ctx context.Context, habits Habits, h service.HabitView, now time.Time) tea.Cmd {
	if habits == nil {
		return nil
	}
	return func() tea.Msg {
		res, err := habits.ToggleToday(ctx, h.Habit.ID, now)
		return HabitToggledMsg{Title: h.Habit.Title, Result: res, Err: err}
	}
}

func createHabitCmd(ctx context.Context, habits Habits, title string, now time.Time) tea.Cmd {
	if habits == nil {
		return nil
	}
	return func() tea.Msg {
		if _, err := habits.Create(ctx, title); err != nil {
			return HabitsLoadedMsg{Err: err}
		}
		list, err := habits.List(ctx, now)
		return HabitsLoadedMsg{Habits: list, Err: err, Note: "habit added: " + title}
	}
}

func deleteHabitCmd(ctx context.Context, habits Habits, h service.HabitView, now time.Time) tea.Cmd {
	if habits == nil {
		return nil
	}
	return func() tea.Msg {
		if err := habits.Delete(ctx, h.Habit.ID); err != nil {
			return HabitsLoadedMsg{Err: err}
		}
		list, err := habits.List(ctx, now)
		return HabitsLoadedMsg{Habits: list, Err: err, Note: "habit removed: " + h.Habit.Title}
	}
}

func createScheduleCmd(ctx context.Context, schedules Schedules, boards Boards, tpl model.Template, now time.Time, fallback board.Snapshot) tea.Cmd {
	if schedules == nil || boards == nil {
		return nil
	}
	return func() tea.Msg {
		sched, err := schedules.Create(ctx, tpl, "", now)
		snap, refreshErr := boards.Refresh(ctx)
		if refreshErr != nil {
			snap = fallback
			err = errors.Join(err, refreshErr)
		}
		note := fmt.Sprintf("schedule added: %s (%s), first due %s", sched.Template.Title, sched.Template.Frequency, sched.NextAt.Format("Mon Jan 2"))
		return BoardLoadedMsg{Snapshot: snap, Err: err, Note: note}
	}
}

func deleteScheduleCmd(ctx context.Context, schedules Schedules, boards Boards, id string, fallback board.Snapshot) tea.Cmd {
	if schedules == nil || boards == nil {
		return nil
	}
	return func() tea.Msg {
		err := schedules.Delete(ctx, id)
		snap, refreshErr := boards.Refresh(ctx)
		if refreshErr != nil {
			snap = fallback
			err = errors.Join(err, refreshErr)
		}
		return BoardLoadedMsg{Snapshot: snap, Err: err, Note: "schedule removed"}
	}
}

func materializeCmd(ctx context.Context, schedules Schedules, now time.Time) tea.Cmd {
	if schedules == nil {
		return nil
	}
	return func() tea.Msg {
		n, err := schedules.Materialize(ctx, now)
		return MaterializedMsg{Count: n, Err: err}
	}
}

func waitForDueCmd(ch <-chan scheduler.DueEvent) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return ScheduleDueMsg{Event: ev}
	}
}
