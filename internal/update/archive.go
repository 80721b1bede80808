package update

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/sandeepkv93/czar/internal/model"
	"github.com/sandeepkv93/czar/internal/views"
)

func (m *Model) clampArchiveCursor() {
	m.ArchiveCursor = clamp(m.ArchiveCursor, len(m.Snapshot.Archived))
}

func (m Model) selectedArchived() (model.Task, bool) {
	if m.ArchiveCursor < 0 || m.ArchiveCursor >= len(m.Snapshot.Archived) {
		return model.Task{}, false
	}
	return m.Snapshot.Archived[m.ArchiveCursor], true
}

func (m Model) handleArchiveKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		m.ArchiveCursor = clamp(m.ArchiveCursor+1, len(m.Snapshot.Archived))
	case "k", "up":
		m.ArchiveCursor = clamp(m.ArchiveCursor-1, len(m.Snapshot.Archived))
	case "u", "enter":
		t, ok := m.selectedArchived()
		if !ok {
			return m, nil
		}
		return m.track(restoreCmd(m.ctx, m.boards, m.Snapshot, t.ID, t.Title))
	case "r":
		return m.track(refreshCmd(m.ctx, m.boards, m.Snapshot, "archive refreshed"))
	}
	return m, nil
}

func (m Model) archiveRows() []views.ArchiveRowData {
	rows := make([]views.ArchiveRowData, 0, len(m.Snapshot.Archived))
	for i, t := range m.Snapshot.Archived {
		rows = append(rows, views.ArchiveRowData{
			ID:       t.ID,
			Title:    t.Title,
			Created:  humanize.Time(t.CreatedAt),
			Selected: i == m.ArchiveCursor,
		})
	}
	return rows
}

func (m Model) scheduleRows() []views.ScheduleData {
	rows := make([]views.ScheduleData, 0, len(m.Snapshot.Schedules))
	for _, s := range m.Snapshot.Schedules {
		rows = append(rows, views.ScheduleData{
			Title:     s.Template.Title,
			Frequency: string(s.Template.Frequency),
			NextLabel: humanize.RelTime(s.NextAt, m.clock(), "ago", "from now"),
		})
	}
	return rows
}
