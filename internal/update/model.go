package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/sandeepkv93/czar/internal/board"
	"github.com/sandeepkv93/czar/internal/commands"
	"github.com/sandeepkv93/czar/internal/model"
	"github.com/sandeepkv93/czar/internal/scheduler"
	"github.com/sandeepkv93/czar/internal/service"
	"github.com/sandeepkv93/czar/internal/storage"
)

type View string

const (
	ViewBoard   View = "Board"
	ViewHabits  View = "Habits"
	ViewArchive View = "Archive"
)

// Boards is what the board screens need from the store side.
type Boards interface {
	Bootstrap(ctx context.Context) (board.Snapshot, error)
	Refresh(ctx context.Context) (board.Snapshot, error)
	Persist(ctx context.Context, optimistic board.Snapshot, taskID string) (board.Snapshot, error)
	Create(ctx context.Context, snap board.Snapshot, in board.NewTask) (string, board.Snapshot, error)
	Edit(ctx context.Context, snap board.Snapshot, id string, patch storage.TaskPatch) (board.Snapshot, error)
	Archive(ctx context.Context, snap board.Snapshot, id string) (board.Snapshot, error)
	Restore(ctx context.Context, snap board.Snapshot, id string) (board.Snapshot, error)
	Subtasks(ctx context.Context, taskID string) ([]model.Subtask, error)
	AddSubtask(ctx context.Context, taskID, title string) ([]model.Subtask, error)
	SetSubtaskDone(ctx context.Context, taskID, id string, done bool) ([]model.Subtask, error)
	RemoveSubtask(ctx context.Context, taskID, id string) ([]model.Subtask, error)
}

type Habits interface {
	List(ctx context.Context, now time.Time) ([]service.HabitView, error)
	Create(ctx context.Context, title string) (model.Habit, error)
	Delete(ctx context.Context, id string) error
	ToggleToday(ctx context.Context, habitID string, now time.Time) (service.ToggleResult, error)
}

type Schedules interface {
	Create(ctx context.Context, tpl model.Template, timezone string, now time.Time) (model.Schedule, error)
	Delete(ctx context.Context, id string) error
	Materialize(ctx context.Context, now time.Time) (int, error)
}

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Board   string
	Habits  string
	Archive string
	Help    string
	Quit    string
}

// Cursor addresses a card in the filtered board: Column indexes model.Columns.
type Cursor struct {
	Column int
	Row    int
}

// DragState is the single in-flight drag. The picked-up card stays in place until
// it is dropped; the cursor marks the drop target meanwhile.
type DragState struct {
	Active bool
	TaskID string
	From   model.Column
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

// Options wires the model to its backends. Nil backends disable the screens
// that need them.
type Options struct {
	Context       context.Context
	Boards        Boards
	Habits        Habits
	Schedules     Schedules
	Scheduler     *scheduler.Engine
	Location      *time.Location
	SuggestedTags []string
	Now           func() time.Time
}

type Model struct {
	CurrentView   View
	Snapshot      board.Snapshot
	Filter        board.Filter
	Cursor        Cursor
	Drag          DragState
	Habits        []service.HabitView
	HabitCursor   int
	ArchiveCursor int
	DetailVisible bool
	SubtasksFor   string
	Subtasks      []model.Subtask
	SuggestedTags []string
	Palette       CommandPaletteState
	HelpVisible   bool
	Status        StatusBar
	Keys          GlobalKeyMap
	Quitting      bool
	LastError     error
	Scheduler     *scheduler.Engine
	// Pending counts store calls still in flight; the spinner runs while it is non-zero.
	Pending int

	ctx       context.Context
	boards    Boards
	habits    Habits
	schedules Schedules
	loc       *time.Location
	now       func() time.Time

	commandInput textinput.Model
	syncSpinner  spinner.Model
	helpModel    help.Model
	noteViewport viewport.Model
	width        int
}

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// BoardLoadedMsg carries the authoritative board after a load or a write. Err is
// the write's error, if any; Snapshot is valid either way.
type BoardLoadedMsg struct {
	Snapshot board.Snapshot
	Err      error
	Note     string
}

type HabitsLoadedMsg struct {
	Habits []service.HabitView
	Err    error
	Note   string
}

type HabitToggledMsg struct {
	Title  string
	Result service.ToggleResult
	Err    error
}

type SubtasksLoadedMsg struct {
	TaskID   string
	Subtasks []model.Subtask
	Err      error
}

// ScheduleDueMsg is emitted when the scheduler engine fires for a schedule.
type ScheduleDueMsg struct {
	Event scheduler.DueEvent
}

// RolloverMsg is sent at local midnight.
type RolloverMsg struct {
	Now time.Time
}

type MaterializedMsg struct {
	Count int
	Err   error
}

func NewModel(opts Options) Model {
	m := Model{
		CurrentView:   ViewBoard,
		Snapshot:      board.Empty(),
		Filter:        board.Filter{Due: board.DueAll},
		SuggestedTags: opts.SuggestedTags,
		Scheduler:     opts.Scheduler,
		Keys: GlobalKeyMap{
			Board:   "1",
			Habits:  "2",
			Archive: "3",
			Help:    "?",
			Quit:    "q",
		},
		ctx:       context.Background(),
		boards:    opts.Boards,
		habits:    opts.Habits,
		schedules: opts.Schedules,
		loc:       opts.Location,
		now:       opts.Now,
		width:     128,
	}
	if opts.Context != nil {
		m.ctx = opts.Context
	}
	if m.loc == nil {
		m.loc = time.Local
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.initBubbleComponents()
	return m
}

func (m *Model) initBubbleComponents() {
	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 60
	m.commandInput.ShowSuggestions = true
	m.refreshSuggestions()

	m.syncSpinner = spinner.New()
	m.syncSpinner.Spinner = spinner.Dot

	m.helpModel = help.New()
	m.noteViewport = viewport.New(42, 12)
}

// refreshSuggestions offers every command plus a tag completion for each known tag.
func (m *Model) refreshSuggestions() {
	m.commandInput.SetSuggestions(paletteSuggestions(commands.Suggestions, board.AllTags(m.Snapshot, m.SuggestedTags)))
}

func (m Model) clock() time.Time {
	return m.now().In(m.loc)
}
