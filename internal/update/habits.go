package update

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/czar/internal/model"
	"github.com/sandeepkv93/czar/internal/service"
	"github.com/sandeepkv93/czar/internal/views"
)

func (m Model) selectedHabit() (service.HabitView, bool) {
	if m.HabitCursor < 0 || m.HabitCursor >= len(m.Habits) {
		return service.HabitView{}, false
	}
	return m.Habits[m.HabitCursor], true
}

func (m Model) handleHabitsKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		m.HabitCursor = clamp(m.HabitCursor+1, len(m.Habits))
	case "k", "up":
		m.HabitCursor = clamp(m.HabitCursor-1, len(m.Habits))
	case " ", "enter":
		h, ok := m.selectedHabit()
		if !ok {
			return m, nil
		}
		return m, toggleHabitCmd(m.ctx, m.habits, h, m.clock())
	case "x":
		h, ok := m.selectedHabit()
		if !ok {
			return m, nil
		}
		return m, deleteHabitCmd(m.ctx, m.habits, h, m.clock())
	case "n":
		return m.openPalette("habit add "), nil
	case "r":
		return m, loadHabitsCmd(m.ctx, m.habits, m.clock(), "habits refreshed")
	}
	return m, nil
}

func toggleNote(title string, res service.ToggleResult) string {
	switch {
	case res.Promoted:
		return fmt.Sprintf("🎉 %s: %d days in a row, habit formed!", title, res.Streak)
	case res.Done:
		return fmt.Sprintf("%s done today (streak %d)", title, res.Streak)
	default:
		return fmt.Sprintf("%s unmarked for today", title)
	}
}

func (m Model) habitRows() []views.HabitRowData {
	rows := make([]views.HabitRowData, 0, len(m.Habits))
	for i, h := range m.Habits {
		row := views.HabitRowData{
			Title:     h.Habit.Title,
			Streak:    h.Streak,
			DoneToday: h.DoneToday,
			Completed: h.Habit.Completed,
			Selected:  i == m.HabitCursor,
		}
		if h.Habit.CompletedAt != nil {
			row.CompletedOn = model.DayKey(h.Habit.CompletedAt.In(m.loc))
		}
		rows = append(rows, row)
	}
	return rows
}
