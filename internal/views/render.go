package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Frame is one full screen: a title bar, the active view beside an optional
// aside panel, then status, toast and key hints stacked below.
type Frame struct {
	Title       string
	Main        string
	Aside       string
	Status      string
	StatusError bool
	Toast       string
	Hints       string
}

const asideWidth = 44

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).MarginBottom(1)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	asideStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1).Width(asideWidth)
	toastStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("11")).Padding(0, 1)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func RenderFrame(f Frame) string {
	main := f.Main
	if aside := strings.TrimSpace(f.Aside); aside != "" {
		main = lipgloss.JoinHorizontal(lipgloss.Top, main, " ", asideStyle.Render(aside))
	}

	blocks := []string{titleStyle.Render(f.Title), main}
	if f.Status != "" {
		style := okStyle
		if f.StatusError {
			style = errorStyle
		}
		blocks = append(blocks, style.Render(f.Status))
	}
	if f.Toast != "" {
		blocks = append(blocks, toastStyle.Render(f.Toast))
	}
	if f.Hints != "" {
		blocks = append(blocks, mutedStyle.Render(f.Hints))
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

// RenderMarkdown renders a task note wrapped to width. On renderer errors the
// raw text is returned.
func RenderMarkdown(md string, width int) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	r, err := glamour.NewTermRenderer(glamour.WithStandardStyle("dark"), glamour.WithWordWrap(width))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
