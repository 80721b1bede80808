package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const columnWidth = 30

var (
	columnStyle         = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1).Width(columnWidth)
	selectedColumnStyle = columnStyle.BorderForeground(lipgloss.Color("12"))
	dropColumnStyle     = columnStyle.BorderForeground(lipgloss.Color("11"))
	columnTitleStyle    = lipgloss.NewStyle().Bold(true)
	cardStyle           = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240")).Width(columnWidth - 4)
	selectedCardStyle   = cardStyle.BorderForeground(lipgloss.Color("12"))
	draggingCardStyle   = cardStyle.BorderStyle(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("11"))
	dropTargetStyle     = cardStyle.BorderForeground(lipgloss.Color("11"))
	tagStyle            = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	overdueStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dueStyle            = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	doneStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

var priorityColors = map[string]lipgloss.Color{
	"Urgent":               lipgloss.Color("9"),
	"Important":            lipgloss.Color("11"),
	"Inevitably important": lipgloss.Color("13"),
}

type CardData struct {
	ID         string
	Title      string
	Priority   string
	DueLabel   string
	Overdue    bool
	Tags       []string
	Recurrence string
	Selected   bool
	Dragging   bool
	DropTarget bool
}

type ColumnData struct {
	ID         string
	Title      string
	Cards      []CardData
	Selected   bool
	DropTarget bool
}

type BoardData struct {
	Columns     []ColumnData
	FilterLabel string
}

type HabitRowData struct {
	Title     string
	Streak    int
	DoneToday bool
	Completed bool
	// CompletedOn is the day key the habit was formed, empty if unknown.
	CompletedOn string
	Selected    bool
}

type ArchiveRowData struct {
	ID       string
	Title    string
	Created  string
	Selected bool
}

type SubtaskData struct {
	Title string
	Done  bool
}

type ScheduleData struct {
	Title     string
	Frequency string
	NextLabel string
}

type DetailData struct {
	Title      string
	Column     string
	Priority   string
	DueLabel   string
	Tags       []string
	Recurrence string
	NoteView   string
	Subtasks   []SubtaskData
}

// DueLabel describes due relative to now: "today", "tomorrow" or a humanized
// distance such as "3 days from now".
func DueLabel(due *time.Time, now time.Time) string {
	if due == nil {
		return ""
	}
	local := due.In(now.Location())
	y1, m1, d1 := local.Date()
	y2, m2, d2 := now.Date()
	today := time.Date(y2, m2, d2, 0, 0, 0, 0, now.Location())
	day := time.Date(y1, m1, d1, 0, 0, 0, 0, now.Location())
	switch {
	case day.Equal(today):
		return "today"
	case day.Equal(today.AddDate(0, 0, 1)):
		return "tomorrow"
	case day.Equal(today.AddDate(0, 0, -1)):
		return "yesterday"
	}
	return humanize.RelTime(day, today, "ago", "from now")
}

func RenderBoard(data BoardData) string {
	cols := make([]string, 0, len(data.Columns))
	for _, col := range data.Columns {
		cols = append(cols, renderColumn(col))
	}
	out := lipgloss.JoinHorizontal(lipgloss.Top, cols...)
	if data.FilterLabel != "" {
		out = mutedStyle.Render("filter: "+data.FilterLabel) + "\n" + out
	}
	return out
}

func renderColumn(col ColumnData) string {
	var b strings.Builder
	b.WriteString(columnTitleStyle.Render(fmt.Sprintf("%s (%d)", col.Title, len(col.Cards))))
	b.WriteString("\n")
	if len(col.Cards) == 0 {
		b.WriteString(mutedStyle.Render("(empty)"))
	}
	for _, card := range col.Cards {
		b.WriteString(renderCard(card))
		b.WriteString("\n")
	}

	style := columnStyle
	switch {
	case col.DropTarget:
		style = dropColumnStyle
	case col.Selected:
		style = selectedColumnStyle
	}
	return style.Render(strings.TrimSuffix(b.String(), "\n"))
}

func renderCard(card CardData) string {
	maxWidth := columnWidth - 6
	title := card.Title
	if len(title) > maxWidth {
		title = title[:maxWidth-3] + "..."
	}
	lines := []string{title}

	var meta []string
	if card.Priority != "" {
		meta = append(meta, lipgloss.NewStyle().Foreground(priorityColors[card.Priority]).Render(card.Priority))
	}
	if card.Recurrence != "" {
		meta = append(meta, mutedStyle.Render("↻ "+card.Recurrence))
	}
	if len(meta) > 0 {
		lines = append(lines, strings.Join(meta, " "))
	}
	if card.DueLabel != "" {
		if card.Overdue {
			lines = append(lines, overdueStyle.Render("overdue · "+card.DueLabel))
		} else {
			lines = append(lines, dueStyle.Render("due "+card.DueLabel))
		}
	}
	if len(card.Tags) > 0 {
		tags := "#" + strings.Join(card.Tags, " #")
		if len(tags) > maxWidth {
			tags = tags[:maxWidth-3] + "..."
		}
		lines = append(lines, tagStyle.Render(tags))
	}

	style := cardStyle
	switch {
	case card.Dragging:
		style = draggingCardStyle
	case card.DropTarget:
		style = dropTargetStyle
	case card.Selected:
		style = selectedCardStyle
	}
	return style.Render(strings.Join(lines, "\n"))
}

func RenderHabits(rows []HabitRowData) string {
	var b strings.Builder
	b.WriteString(columnTitleStyle.Render("habits"))
	b.WriteString("\n")
	if len(rows) == 0 {
		b.WriteString(mutedStyle.Render("(no habits yet, try /habit add <title>)"))
		return b.String()
	}
	for _, row := range rows {
		cursor := " "
		if row.Selected {
			cursor = ">"
		}
		check := "[ ]"
		if row.DoneToday {
			check = "[x]"
		}
		line := fmt.Sprintf("%s %s %s  streak %d", cursor, check, row.Title, row.Streak)
		if row.Completed {
			formed := "✓ formed"
			if row.CompletedOn != "" {
				formed += " " + row.CompletedOn
			}
			line += " " + doneStyle.Render(formed)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderArchive(rows []ArchiveRowData) string {
	var b strings.Builder
	b.WriteString(columnTitleStyle.Render("archive"))
	b.WriteString("\n")
	if len(rows) == 0 {
		b.WriteString(mutedStyle.Render("(archive empty)"))
		return b.String()
	}
	for i, row := range rows {
		cursor := " "
		if row.Selected {
			cursor = ">"
		}
		b.WriteString(fmt.Sprintf("%s %d. %s %s\n", cursor, i+1, row.Title, mutedStyle.Render("(created "+row.Created+")")))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderDetail(data DetailData) string {
	var b strings.Builder
	b.WriteString(columnTitleStyle.Render(data.Title) + "\n")
	b.WriteString(fmt.Sprintf("column: %s\n", data.Column))
	if data.Priority != "" {
		b.WriteString(fmt.Sprintf("priority: %s\n", data.Priority))
	}
	if data.DueLabel != "" {
		b.WriteString(fmt.Sprintf("due: %s\n", data.DueLabel))
	}
	if len(data.Tags) > 0 {
		b.WriteString(fmt.Sprintf("tags: %s\n", strings.Join(data.Tags, ", ")))
	}
	if data.Recurrence != "" {
		b.WriteString(fmt.Sprintf("repeats: %s\n", data.Recurrence))
	}
	if len(data.Subtasks) > 0 {
		done := 0
		for _, s := range data.Subtasks {
			if s.Done {
				done++
			}
		}
		b.WriteString(fmt.Sprintf("\nsubtasks %d/%d:\n", done, len(data.Subtasks)))
		for i, s := range data.Subtasks {
			mark := "[ ]"
			if s.Done {
				mark = "[x]"
			}
			b.WriteString(fmt.Sprintf("%d. %s %s\n", i+1, mark, s.Title))
		}
	}
	if data.NoteView != "" {
		b.WriteString("\n" + data.NoteView)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderSchedules(rows []ScheduleData) string {
	if len(rows) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\nschedules:\n")
	for i, row := range rows {
		b.WriteString(fmt.Sprintf("%d. %s (%s) next %s\n", i+1, row.Title, row.Frequency, row.NextLabel))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderCommandPalette(active bool, inputView string) string {
	if !active {
		return ""
	}
	return "command: " + inputView
}

// RenderHelpPanel titles the rendered key help with the active context.
func RenderHelpPanel(context, keys string) string {
	return columnTitleStyle.Render("keys: "+strings.ToLower(context)) + "\n" + keys
}
