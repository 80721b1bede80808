package update

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/czar/internal/views"
)

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{}
	if m.boards != nil {
		cmds = append(cmds, bootstrapCmd(m.ctx, m.boards))
	}
	if m.habits != nil {
		cmds = append(cmds, loadHabitsCmd(m.ctx, m.habits, m.clock(), ""))
	}
	if m.Scheduler != nil {
		cmds = append(cmds, waitForDueCmd(m.Scheduler.C()))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.syncBubbleData()
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			if typed.String() == m.Keys.Help {
				m.HelpVisible = !m.HelpVisible
				return m, nil
			}
			return m.handlePaletteKey(typed)
		}

		keyStr := typed.String()
		if keyStr == "ctrl+c" || (keyStr == m.Keys.Quit && !m.Drag.Active) {
			m.Quitting = true
			return m, tea.Quit
		}
		if m.Drag.Active {
			return m.handleDragKey(typed)
		}

		switch keyStr {
		case "/":
			return m.openPalette(""), nil
		case m.Keys.Board:
			m.CurrentView = ViewBoard
			return m, nil
		case m.Keys.Habits:
			m.CurrentView = ViewHabits
			return m, nil
		case m.Keys.Archive:
			m.CurrentView = ViewArchive
			m.clampArchiveCursor()
			return m, nil
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			return m, nil
		}
		switch m.CurrentView {
		case ViewBoard:
			return m.handleBoardKey(typed)
		case ViewHabits:
			return m.handleHabitsKey(typed)
		case ViewArchive:
			return m.handleArchiveKey(typed)
		}
	case tea.WindowSizeMsg:
		m.width = typed.Width
		return m, nil
	case spinner.TickMsg:
		if m.Pending > 0 {
			var cmd tea.Cmd
			m.syncSpinner, cmd = m.syncSpinner.Update(typed)
			return m, cmd
		}
	case SwitchViewMsg:
		if isKnownView(typed.View) && !m.Drag.Active {
			m.CurrentView = typed.View
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.fail(typed.Err)
		return m, nil
	case BoardLoadedMsg:
		m.done()
		m.Snapshot = typed.Snapshot
		m.refreshSuggestions()
		m.clampCursor()
		m.clampArchiveCursor()
		m.syncScheduler()
		if typed.Err != nil {
			m.fail(typed.Err)
		} else if typed.Note != "" {
			m.Status = StatusBar{Text: typed.Note}
		}
		if m.DetailVisible {
			if t, ok := m.selectedTask(); ok && t.ID != m.SubtasksFor {
				return m.track(loadSubtasksCmd(m.ctx, m.boards, t.ID))
			}
		}
		return m, nil
	case HabitsLoadedMsg:
		if typed.Err != nil {
			m.fail(typed.Err)
			return m, nil
		}
		m.Habits = typed.Habits
		m.HabitCursor = clamp(m.HabitCursor, len(m.Habits))
		if typed.Note != "" {
			m.Status = StatusBar{Text: typed.Note}
		}
		return m, nil
	case HabitToggledMsg:
		if typed.Err != nil {
			m.fail(typed.Err)
		} else {
			m.Status = StatusBar{Text: toggleNote(typed.Title, typed.Result)}
		}
		return m, loadHabitsCmd(m.ctx, m.habits, m.clock(), "")
	case SubtasksLoadedMsg:
		m.done()
		if typed.Err != nil {
			m.fail(typed.Err)
			return m, nil
		}
		m.SubtasksFor = typed.TaskID
		m.Subtasks = typed.Subtasks
		return m, nil
	case ScheduleDueMsg:
		next, cmd := m.track(materializeCmd(m.ctx, m.schedules, m.clock()))
		if m.Scheduler != nil {
			return next, tea.Batch(cmd, waitForDueCmd(m.Scheduler.C()))
		}
		return next, cmd
	case RolloverMsg:
		next, cmd := m.track(materializeCmd(m.ctx, m.schedules, typed.Now.In(m.loc)))
		return next, tea.Batch(cmd, loadHabitsCmd(m.ctx, m.habits, typed.Now.In(m.loc), "new day"))
	case MaterializedMsg:
		m.done()
		if typed.Err != nil {
			// The engine already popped the failed schedules; the refresh re-arms them.
			m.fail(typed.Err)
			return m.track(refreshCmd(m.ctx, m.boards, m.Snapshot, ""))
		}
		if typed.Count == 0 {
			return m, nil
		}
		note := fmt.Sprintf("%d recurring task(s) added", typed.Count)
		return m.track(refreshCmd(m.ctx, m.boards, m.Snapshot, note))
	}

	return m, nil
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	body := ""
	side := []string{}
	switch m.CurrentView {
	case ViewBoard:
		body = views.RenderBoard(m.boardData())
		if m.DetailVisible {
			side = append(side, m.noteViewport.View())
		}
	case ViewHabits:
		body = views.RenderHabits(m.habitRows())
	case ViewArchive:
		body = views.RenderArchive(m.archiveRows())
		side = append(side, views.RenderSchedules(m.scheduleRows()))
	}
	if m.Palette.Active {
		side = append(side, views.RenderCommandPalette(true, m.commandInput.View()))
	}
	if m.HelpVisible {
		side = append(side, m.renderHelpView())
	}

	notification := ""
	if m.Pending > 0 {
		notification = m.syncSpinner.View() + " syncing"
	}
	if m.Drag.Active {
		if t, _, ok := m.Snapshot.Find(m.Drag.TaskID); ok {
			notification = strings.TrimSpace(notification + "\ndragging: " + t.Title)
		}
	}

	return views.RenderFrame(views.Frame{
		Title:       fmt.Sprintf("czar | view: %s | tasks: %d | archived: %d", m.CurrentView, m.Snapshot.Count(), len(m.Snapshot.Archived)),
		Main:        body,
		Aside:       strings.Join(side, "\n\n"),
		Status:      status,
		StatusError: m.Status.IsError,
		Toast:       notification,
		Hints:       fmt.Sprintf("keys: %s board | %s habits | %s archive | / cmd | %s help | %s quit", m.Keys.Board, m.Keys.Habits, m.Keys.Archive, m.Keys.Help, m.Keys.Quit),
	})
}

func isKnownView(v View) bool {
	switch v {
	case ViewBoard, ViewHabits, ViewArchive:
		return true
	default:
		return false
	}
}
