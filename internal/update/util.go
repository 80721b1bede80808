package update

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// clamp bounds i to [0, n-1]; 0 when n is 0.
func clamp(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// track counts cmd as an in-flight store call and ticks the spinner for it.
// Every tracked cmd must answer with a message that calls done.
func (m Model) track(cmd tea.Cmd) (Model, tea.Cmd) {
	if cmd == nil {
		return m, nil
	}
	m.Pending++
	if m.Pending == 1 {
		return m, tea.Batch(cmd, m.syncSpinner.Tick)
	}
	return m, cmd
}

func (m *Model) done() {
	if m.Pending > 0 {
		m.Pending--
	}
}

func (m *Model) fail(err error) {
	if err == nil {
		return
	}
	m.LastError = err
	m.Status = StatusBar{Text: err.Error(), IsError: true}
}

// paletteSuggestions strips the slash from command suggestions and adds a
// "tag +x" completion per tag.
func paletteSuggestions(items, tags []string) []string {
	out := make([]string, 0, len(items)+len(tags))
	for _, item := range items {
		out = append(out, strings.TrimPrefix(item, "/"))
	}
	for _, tag := range tags {
		out = append(out, "tag +"+tag)
	}
	return out
}
