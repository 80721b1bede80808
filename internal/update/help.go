package update

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/czar/internal/views"
)

// contextKeys is the help.KeyMap for the panel: global keys on the short
// line, global plus the active context in the full view.
type contextKeys struct {
	global  []key.Binding
	context []key.Binding
}

func (k contextKeys) ShortHelp() []key.Binding { return k.global }

func (k contextKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.context, k.global}
}

func bind(keys, desc string) key.Binding {
	return key.NewBinding(key.WithKeys(keys), key.WithHelp(keys, desc))
}

// renderHelpView stacks the help groups so the panel stays narrow.
func (m Model) renderHelpView() string {
	groups := m.keyMap().FullHelp()
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		parts = append(parts, m.helpModel.FullHelpView([][]key.Binding{g}))
	}
	return views.RenderHelpPanel(m.helpContext(), strings.Join(parts, "\n\n"))
}

func (m Model) helpContext() string {
	if m.Drag.Active {
		return "drag"
	}
	return string(m.CurrentView)
}

func (m Model) keyMap() contextKeys {
	return contextKeys{
		global: []key.Binding{
			bind(m.Keys.Board, "board"),
			bind(m.Keys.Habits, "habits"),
			bind(m.Keys.Archive, "archive"),
			bind("/", "command palette"),
			bind(m.Keys.Help, "help"),
			bind(m.Keys.Quit, "quit"),
		},
		context: m.contextBindings(),
	}
}

func (m Model) contextBindings() []key.Binding {
	if m.Drag.Active {
		return []key.Binding{
			bind("h/j/k/l", "choose drop target"),
			bind("space/enter", "drop before highlighted card"),
			bind("c", "drop at top of column"),
			bind("esc", "cancel drag"),
		}
	}
	switch m.CurrentView {
	case ViewHabits:
		return []key.Binding{
			bind("j/k", "move"),
			bind("space/enter", "toggle today"),
			bind("n", "new habit"),
			bind("x", "delete habit"),
			bind("r", "reload"),
		}
	case ViewArchive:
		return []key.Binding{
			bind("j/k", "move"),
			bind("u/enter", "restore"),
			bind("r", "reload"),
		}
	default:
		return []key.Binding{
			bind("h/j/k/l", "move"),
			bind("space", "pick up card"),
			bind("enter", "detail pane"),
			bind("n", "new task"),
			bind("x", "archive"),
			bind("f/F", "due filter / clear"),
			bind("pgup/pgdown", "scroll detail"),
			bind("r", "reload"),
		}
	}
}
