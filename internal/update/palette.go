package update

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/czar/internal/board"
	"github.com/sandeepkv93/czar/internal/commands"
	"github.com/sandeepkv93/czar/internal/model"
	"github.com/sandeepkv93/czar/internal/service"
	"github.com/sandeepkv93/czar/internal/storage"
)

var errNoSelection = &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "select a task on the board first"}

func (m Model) openPalette(prefill string) Model {
	m.Palette.Active = true
	m.Palette.Input = prefill
	m.commandInput.SetValue(prefill)
	m.commandInput.CursorEnd()
	m.commandInput.Focus()
	return m
}

func (m Model) closePalette() Model {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
	return m
}

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m = m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	default:
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		m.Palette.Input = m.commandInput.Value()
		return m, cmd
	}
}

func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m = m.closePalette()
	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	// Handlers run synchronously and leave any store call in next.
	var next tea.Cmd
	now := m.clock()
	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			in := board.NewTask{Title: a.Title, Priority: a.Priority, Tags: a.Tags, Recurrence: a.Recurrence}
			if a.Due != "" {
				due, err := commands.ResolveDate(a.Due, now)
				if err != nil {
					return commands.Result{}, err
				}
				in.DueAt = &due
			}
			m, next = m.track(createCmd(m.ctx, m.boards, in, m.Snapshot))
			return commands.Result{Message: "adding: " + a.Title}, nil
		},
		Edit: func(a commands.EditArgs) (commands.Result, error) {
			t, ok := m.selectedTask()
			if !ok {
				return commands.Result{}, errNoSelection
			}
			value := a.Value
			patch := storage.TaskPatch{}
			if a.Field == commands.EditTitle {
				patch.Title = &value
			} else {
				patch.Note = &value
			}
			m, next = m.track(editCmd(m.ctx, m.boards, m.Snapshot, t.ID, patch, fmt.Sprintf("%s updated", a.Field)))
			return commands.Result{Message: "saving " + string(a.Field)}, nil
		},
		Move: func(a commands.MoveArgs) (commands.Result, error) {
			t, ok := m.selectedTask()
			if !ok {
				return commands.Result{}, errNoSelection
			}
			m.Drag = DragState{Active: true, TaskID: t.ID}
			m, next = m.drop(string(a.Column))
			return commands.Result{Message: m.Status.Text}, nil
		},
		Archive: func() (commands.Result, error) {
			t, ok := m.selectedTask()
			if !ok {
				return commands.Result{}, errNoSelection
			}
			m, next = m.track(archiveCmd(m.ctx, m.boards, m.Snapshot, t.ID, t.Title))
			return commands.Result{Message: "archiving: " + t.Title}, nil
		},
		Restore: func(a commands.RestoreArgs) (commands.Result, error) {
			t, ok := m.resolveArchived(a.Target)
			if !ok {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "no archived task " + a.Target}
			}
			m, next = m.track(restoreCmd(m.ctx, m.boards, m.Snapshot, t.ID, t.Title))
			return commands.Result{Message: "restoring: " + t.Title}, nil
		},
		Tag: func(a commands.TagArgs) (commands.Result, error) {
			t, ok := m.selectedTask()
			if !ok {
				return commands.Result{}, errNoSelection
			}
			tags := applyTags(t.Tags, a.Add, a.Remove)
			patch := storage.TaskPatch{Tags: tags, SetTags: true}
			m, next = m.track(editCmd(m.ctx, m.boards, m.Snapshot, t.ID, patch, "tags: "+strings.Join(tags, ", ")))
			return commands.Result{Message: "saving tags"}, nil
		},
		Priority: func(a commands.PriorityArgs) (commands.Result, error) {
			t, ok := m.selectedTask()
			if !ok {
				return commands.Result{}, errNoSelection
			}
			p := string(a.Priority)
			m, next = m.track(editCmd(m.ctx, m.boards, m.Snapshot, t.ID, storage.TaskPatch{Priority: &p}, "priority updated"))
			return commands.Result{Message: "saving priority"}, nil
		},
		Due: func(a commands.DueArgs) (commands.Result, error) {
			t, ok := m.selectedTask()
			if !ok {
				return commands.Result{}, errNoSelection
			}
			patch := storage.TaskPatch{ClearDue: a.Clear}
			if !a.Clear {
				due, err := commands.ResolveDate(a.When, now)
				if err != nil {
					return commands.Result{}, err
				}
				patch.DueAt = &due
			}
			m, next = m.track(editCmd(m.ctx, m.boards, m.Snapshot, t.ID, patch, "due date updated"))
			return commands.Result{Message: "saving due date"}, nil
		},
		Filter: func(a commands.FilterArgs) (commands.Result, error) {
			if a.Clear {
				m.Filter = board.Filter{Due: board.DueAll}
				m.clampCursor()
				return commands.Result{Message: "filters cleared"}, nil
			}
			m.Filter = a.Filter
			m.Cursor.Row = 0
			m.clampCursor()
			return commands.Result{Message: "filter: " + filterLabel(m.Filter)}, nil
		},
		Habit: func(a commands.HabitArgs) (commands.Result, error) {
			if a.Action == commands.HabitAdd {
				next = createHabitCmd(m.ctx, m.habits, a.Title, now)
				return commands.Result{Message: "adding habit: " + a.Title}, nil
			}
			h, ok := m.resolveHabit(a.Title)
			if !ok {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "no such habit"}
			}
			if a.Action == commands.HabitDone {
				next = toggleHabitCmd(m.ctx, m.habits, h, now)
				return commands.Result{Message: "toggling: " + h.Habit.Title}, nil
			}
			next = deleteHabitCmd(m.ctx, m.habits, h, now)
			return commands.Result{Message: "removing habit: " + h.Habit.Title}, nil
		},
		Sub: func(a commands.SubArgs) (commands.Result, error) {
			t, ok := m.selectedTask()
			if !ok {
				return commands.Result{}, errNoSelection
			}
			m.DetailVisible = true
			boards := m.boards
			ctx := m.ctx
			switch a.Action {
			case commands.SubAdd:
				m, next = m.track(addSubtaskCmd(ctx, boards, t.ID, a.Title))
			case commands.SubRemove:
				m, next = m.track(subtaskAtCmd(ctx, boards, t.ID, a.Index, func(s model.Subtask) ([]model.Subtask, error) {
					return boards.RemoveSubtask(ctx, t.ID, s.ID)
				}))
			default:
				done := a.Action == commands.SubDone
				m, next = m.track(subtaskAtCmd(ctx, boards, t.ID, a.Index, func(s model.Subtask) ([]model.Subtask, error) {
					return boards.SetSubtaskDone(ctx, t.ID, s.ID, done)
				}))
			}
			return commands.Result{Message: "updating subtasks of " + t.Title}, nil
		},
		Schedule: func(a commands.ScheduleArgs) (commands.Result, error) {
			if a.Action == commands.ScheduleAdd {
				tpl := model.Template{Title: a.Title, Frequency: a.Frequency}
				m, next = m.track(createScheduleCmd(m.ctx, m.schedules, m.boards, tpl, now, m.Snapshot))
				return commands.Result{Message: "adding schedule: " + a.Title}, nil
			}
			s, ok := m.resolveSchedule(a.Target)
			if !ok {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "no schedule " + a.Target}
			}
			if m.Scheduler != nil {
				m.Scheduler.Cancel(s.ID)
			}
			m, next = m.track(deleteScheduleCmd(m.ctx, m.schedules, m.boards, s.ID, m.Snapshot))
			return commands.Result{Message: "removing schedule: " + s.Template.Title}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	m.Status = StatusBar{Text: res.Message}
	return m, next
}

// applyTags adds and removes tags case-insensitively, keeping existing order.
func applyTags(current, add, remove []string) []string {
	out := make([]string, 0, len(current)+len(add))
	for _, t := range append(append([]string{}, current...), add...) {
		drop := false
		for _, r := range remove {
			if strings.EqualFold(t, r) {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, t)
		}
	}
	return model.NormalizeTags(out)
}

// resolveArchived finds an archived task by 1-based index, id, or the archive
// cursor when target is empty.
func (m Model) resolveArchived(target string) (model.Task, bool) {
	target = strings.TrimSpace(target)
	if target == "" {
		return m.selectedArchived()
	}
	if n, err := strconv.Atoi(target); err == nil {
		if n >= 1 && n <= len(m.Snapshot.Archived) {
			return m.Snapshot.Archived[n-1], true
		}
		return model.Task{}, false
	}
	for _, t := range m.Snapshot.Archived {
		if t.ID == target {
			return t, true
		}
	}
	return model.Task{}, false
}

// resolveHabit finds a habit by case-insensitive title, or the habit cursor
// when title is empty.
func (m Model) resolveHabit(title string) (service.HabitView, bool) {
	if title == "" {
		return m.selectedHabit()
	}
	for _, h := range m.Habits {
		if strings.EqualFold(h.Habit.Title, title) {
			return h, true
		}
	}
	return service.HabitView{}, false
}

func (m Model) resolveSchedule(target string) (model.Schedule, bool) {
	if n, err := strconv.Atoi(target); err == nil {
		if n >= 1 && n <= len(m.Snapshot.Schedules) {
			return m.Snapshot.Schedules[n-1], true
		}
		return model.Schedule{}, false
	}
	for _, s := range m.Snapshot.Schedules {
		if s.ID == target {
			return s, true
		}
	}
	return model.Schedule{}, false
}
