package update

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/czar/internal/board"
	"github.com/sandeepkv93/czar/internal/model"
	"github.com/sandeepkv93/czar/internal/scheduler"
	"github.com/sandeepkv93/czar/internal/views"
)

const celebration = "🎉 task completed!"

// overdueRetry delays re-arming a schedule whose boundary has already passed.
const overdueRetry = time.Minute

// visible is the filtered board the cursor moves over. Moves always apply to
// the unfiltered Snapshot.
func (m Model) visible() board.Snapshot {
	return m.Filter.Apply(m.Snapshot, m.clock())
}

func (m Model) cursorColumn() model.Column {
	return model.Columns[m.Cursor.Column]
}

func (m Model) selectedTask() (model.Task, bool) {
	tasks := m.visible().Tasks(m.cursorColumn())
	if m.Cursor.Row < 0 || m.Cursor.Row >= len(tasks) {
		return model.Task{}, false
	}
	return tasks[m.Cursor.Row], true
}

func (m *Model) clampCursor() {
	if m.Cursor.Column < 0 {
		m.Cursor.Column = 0
	}
	if m.Cursor.Column >= len(model.Columns) {
		m.Cursor.Column = len(model.Columns) - 1
	}
	m.Cursor.Row = clamp(m.Cursor.Row, len(m.visible().Tasks(m.cursorColumn())))
}

// focusTask points the cursor at taskID if it is visible.
func (m *Model) focusTask(taskID string) {
	visible := m.visible()
	for ci, c := range model.Columns {
		for ri, t := range visible.Tasks(c) {
			if t.ID == taskID {
				m.Cursor = Cursor{Column: ci, Row: ri}
				return
			}
		}
	}
	m.clampCursor()
}

func (m *Model) moveCursor(key string) bool {
	switch key {
	case "h", "left":
		m.Cursor.Column--
	case "l", "right":
		m.Cursor.Column++
	case "j", "down":
		m.Cursor.Row++
	case "k", "up":
		m.Cursor.Row--
	case "g", "home":
		m.Cursor.Row = 0
	case "G", "end":
		m.Cursor.Row = len(m.visible().Tasks(m.cursorColumn())) - 1
	default:
		return false
	}
	m.clampCursor()
	return true
}

func (m Model) handleBoardKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	key := msg.String()
	if m.moveCursor(key) {
		return m.followSelection()
	}
	switch key {
	case " ":
		t, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		m.Drag = DragState{Active: true, TaskID: t.ID, From: m.cursorColumn()}
		m.Status = StatusBar{Text: fmt.Sprintf("picked up %q: move to a card and press space, c drops at column top, esc cancels", t.Title)}
	case "enter":
		m.DetailVisible = !m.DetailVisible
		if m.DetailVisible {
			return m.followSelection()
		}
	case "x":
		t, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		return m.track(archiveCmd(m.ctx, m.boards, m.Snapshot, t.ID, t.Title))
	case "r":
		return m.track(refreshCmd(m.ctx, m.boards, m.Snapshot, "board refreshed"))
	case "n":
		return m.openPalette("add "), nil
	case "f":
		m.Filter.Due = nextDueWindow(m.Filter.Due)
		m.clampCursor()
		m.Status = StatusBar{Text: "due filter: " + string(m.Filter.Due)}
	case "F":
		m.Filter = board.Filter{Due: board.DueAll}
		m.clampCursor()
		m.Status = StatusBar{Text: "filters cleared"}
	case "pgdown", "ctrl+d":
		m.noteViewport.HalfViewDown()
	case "pgup", "ctrl+u":
		m.noteViewport.HalfViewUp()
	}
	return m, nil
}

// followSelection loads subtasks for the selected task while the detail pane is open.
func (m Model) followSelection() (Model, tea.Cmd) {
	if !m.DetailVisible {
		return m, nil
	}
	t, ok := m.selectedTask()
	if !ok || t.ID == m.SubtasksFor {
		return m, nil
	}
	m.noteViewport.GotoTop()
	return m.track(loadSubtasksCmd(m.ctx, m.boards, t.ID))
}

func (m Model) handleDragKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	key := msg.String()
	if m.moveCursor(key) {
		return m, nil
	}
	switch key {
	case "esc":
		m.focusTask(m.Drag.TaskID)
		m.Drag = DragState{}
		m.Status = StatusBar{Text: "drag cancelled"}
	case " ", "enter":
		over, ok := m.selectedTask()
		if !ok {
			return m.drop(string(m.cursorColumn()))
		}
		if over.ID == m.Drag.TaskID {
			m.Drag = DragState{}
			m.Status = StatusBar{Text: "dropped in place"}
			return m, nil
		}
		return m.drop(over.ID)
	case "c":
		return m.drop(string(m.cursorColumn()))
	}
	return m, nil
}

// drop applies the move optimistically and persists it. The persisted reply
// replaces the optimistic board whether or not the write succeeded.
func (m Model) drop(overID string) (Model, tea.Cmd) {
	activeID := m.Drag.TaskID
	m.Drag = DragState{}

	celebrate := false
	next, ok := board.TryMove(m.Snapshot, activeID, overID, func(from, to model.Column) {
		celebrate = board.Celebrates(from, to)
	})
	if !ok {
		m.Status = StatusBar{Text: "nothing to drop there"}
		return m, nil
	}
	m.Snapshot = next
	m.focusTask(activeID)
	if celebrate {
		m.Status = StatusBar{Text: celebration}
	} else {
		m.Status = StatusBar{Text: "moved"}
	}
	return m.track(persistCmd(m.ctx, m.boards, next, activeID))
}

func nextDueWindow(w board.DueWindow) board.DueWindow {
	for i, known := range board.DueWindows {
		if known == w {
			return board.DueWindows[(i+1)%len(board.DueWindows)]
		}
	}
	return board.DueAll
}

func (m Model) boardData() views.BoardData {
	now := m.clock()
	visible := m.visible()
	dropTarget := ""
	if m.Drag.Active {
		if t, ok := m.selectedTask(); ok {
			dropTarget = t.ID
		}
	}

	data := views.BoardData{FilterLabel: filterLabel(m.Filter)}
	for ci, c := range model.Columns {
		col := views.ColumnData{
			ID:         string(c),
			Title:      c.Title(),
			Selected:   ci == m.Cursor.Column,
			DropTarget: m.Drag.Active && ci == m.Cursor.Column && dropTarget == "",
		}
		for ri, t := range visible.Tasks(c) {
			col.Cards = append(col.Cards, views.CardData{
				ID:         t.ID,
				Title:      t.Title,
				Priority:   string(t.Priority),
				DueLabel:   views.DueLabel(t.DueAt, now),
				Overdue:    model.IsOverdue(t, c == model.ColumnDone, now),
				Tags:       t.Tags,
				Recurrence: string(t.Recurrence),
				Selected:   !m.Drag.Active && ci == m.Cursor.Column && ri == m.Cursor.Row,
				Dragging:   m.Drag.Active && t.ID == m.Drag.TaskID,
				DropTarget: t.ID == dropTarget && t.ID != m.Drag.TaskID,
			})
		}
		data.Columns = append(data.Columns, col)
	}
	return data
}

func filterLabel(f board.Filter) string {
	if !f.Active() {
		return ""
	}
	var parts []string
	if f.Priority != "" {
		parts = append(parts, "priority="+string(f.Priority))
	}
	if len(f.Tags) > 0 {
		parts = append(parts, "tags="+strings.Join(f.Tags, ","))
	}
	if f.Due != "" && f.Due != board.DueAll {
		parts = append(parts, "due="+string(f.Due))
	}
	if strings.TrimSpace(f.Query) != "" {
		parts = append(parts, fmt.Sprintf("query=%q", f.Query))
	}
	return strings.Join(parts, " ")
}

func (m Model) detailData() (views.DetailData, bool) {
	t, ok := m.selectedTask()
	if !ok {
		return views.DetailData{}, false
	}
	_, col, _ := m.Snapshot.Find(t.ID)
	data := views.DetailData{
		Title:      t.Title,
		Column:     col.Title(),
		Priority:   string(t.Priority),
		DueLabel:   views.DueLabel(t.DueAt, m.clock()),
		Tags:       t.Tags,
		Recurrence: string(t.Recurrence),
		NoteView:   views.RenderMarkdown(t.Note, 40),
	}
	if m.SubtasksFor == t.ID {
		for _, s := range m.Subtasks {
			data.Subtasks = append(data.Subtasks, views.SubtaskData{Title: s.Title, Done: s.Done})
		}
	}
	return data, true
}

// syncBubbleData pushes model state into the bubbles components after each update.
func (m *Model) syncBubbleData() {
	if !m.DetailVisible || m.CurrentView != ViewBoard {
		return
	}
	data, ok := m.detailData()
	if !ok {
		m.noteViewport.SetContent("(no task selected)")
		return
	}
	m.noteViewport.SetContent(views.RenderDetail(data))
}

// syncScheduler hands the engine the next due time of every schedule.
func (m *Model) syncScheduler() {
	if m.Scheduler == nil {
		return
	}
	now := m.clock()
	events := make([]scheduler.DueEvent, 0, len(m.Snapshot.Schedules))
	for _, s := range m.Snapshot.Schedules {
		due := s.NextAt
		if !due.After(now) {
			due = now.Add(overdueRetry)
		}
		events = append(events, scheduler.DueEvent{ScheduleID: s.ID, Title: s.Template.Title, DueAt: due})
	}
	if err := m.Scheduler.Sync(events); err != nil {
		m.fail(err)
	}
}
