package update

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/czar/internal/board"
	"github.com/sandeepkv93/czar/internal/model"
	"github.com/sandeepkv93/czar/internal/scheduler"
	"github.com/sandeepkv93/czar/internal/service"
	"github.com/sandeepkv93/czar/internal/storage"
)

var fixedNow = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

// fakeBoards keeps the board in memory. persistErr makes Persist fail and
// answer with stored, the way the real service answers with the re-fetched board.
type fakeBoards struct {
	stored     board.Snapshot
	persistErr error
	persisted  []string
	created    []board.NewTask
	edits      []storage.TaskPatch
}

func (f *fakeBoards) Bootstrap(ctx context.Context) (board.Snapshot, error) { return f.stored, nil }
func (f *fakeBoards) Refresh(ctx context.Context) (board.Snapshot, error)   { return f.stored, nil }

func (f *fakeBoards) Persist(ctx context.Context, optimistic board.Snapshot, taskID string) (board.Snapshot, error) {
	f.persisted = append(f.persisted, taskID)
	if f.persistErr != nil {
		return f.stored, f.persistErr
	}
	f.stored = optimistic
	return f.stored, nil
}

func (f *fakeBoards) Create(ctx context.Context, snap board.Snapshot, in board.NewTask) (string, board.Snapshot, error) {
	f.created = append(f.created, in)
	id := fmt.Sprintf("new-%d", len(f.created))
	cols := map[model.Column][]model.Task{}
	for c, tasks := range f.stored.Columns {
		cols[c] = tasks
	}
	cols[model.ColumnPending] = append(append([]model.Task{}, cols[model.ColumnPending]...), model.Task{ID: id, Title: in.Title})
	f.stored.Columns = cols
	return id, f.stored, nil
}

func (f *fakeBoards) Edit(ctx context.Context, snap board.Snapshot, id string, patch storage.TaskPatch) (board.Snapshot, error) {
	f.edits = append(f.edits, patch)
	return f.stored, nil
}

func (f *fakeBoards) Archive(ctx context.Context, snap board.Snapshot, id string) (board.Snapshot, error) {
	return f.stored, nil
}

func (f *fakeBoards) Restore(ctx context.Context, snap board.Snapshot, id string) (board.Snapshot, error) {
	return f.stored, nil
}

func (f *fakeBoards) Subtasks(ctx context.Context, taskID string) ([]model.Subtask, error) {
	return nil, nil
}

func (f *fakeBoards) AddSubtask(ctx context.Context, taskID, title string) ([]model.Subtask, error) {
	return []model.Subtask{{ID: "s1", TaskID: taskID, Title: title}}, nil
}

func (f *fakeBoards) SetSubtaskDone(ctx context.Context, taskID, id string, done bool) ([]model.Subtask, error) {
	return nil, nil
}

func (f *fakeBoards) RemoveSubtask(ctx context.Context, taskID, id string) ([]model.Subtask, error) {
	return nil, nil
}

func sampleBoard() board.Snapshot {
	return board.FromTasks([]board.Placed{
		{Column: model.ColumnPending, Task: model.Task{ID: "a", Title: "write docs", Position: 1, Tags: []string{"work"}}},
		{Column: model.ColumnPending, Task: model.Task{ID: "b", Title: "buy milk", Position: 2}},
		{Column: model.ColumnDone, Task: model.Task{ID: "c", Title: "file taxes", Position: 1}},
	})
}

func newTestModel(t *testing.T) (Model, *fakeBoards) {
	t.Helper()
	fake := &fakeBoards{stored: sampleBoard()}
	m := NewModel(Options{Boards: fake, Location: time.UTC, Now: func() time.Time { return fixedNow }})
	m.Snapshot = fake.stored
	return m, fake
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		updated, c := m.Update(msg)
		m = updated.(Model)
		cmd = c
	}
	return m, cmd
}

// collect runs cmd and returns every message it produces, flattening batches.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func boardLoaded(t *testing.T, cmd tea.Cmd) BoardLoadedMsg {
	t.Helper()
	for _, msg := range collect(cmd) {
		if loaded, ok := msg.(BoardLoadedMsg); ok {
			return loaded
		}
	}
	t.Fatal("expected a BoardLoadedMsg from cmd")
	return BoardLoadedMsg{}
}

func ids(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.ID
	}
	return out
}

func TestNewModelDefaults(t *testing.T) {
	m := NewModel(Options{})
	if m.CurrentView != ViewBoard {
		t.Fatalf("expected default view %q, got %q", ViewBoard, m.CurrentView)
	}
	if m.Keys.Quit != "q" {
		t.Fatalf("expected quit key q, got %q", m.Keys.Quit)
	}
	if m.Filter.Due != board.DueAll || m.Filter.Active() {
		t.Fatalf("expected inactive filter, got %+v", m.Filter)
	}
	if m.Snapshot.Count() != 0 {
		t.Fatalf("expected empty board, got %d tasks", m.Snapshot.Count())
	}
	if cmd := m.Init(); cmd != nil {
		t.Fatal("expected no init command without backends")
	}
}

func TestUpdateKeySwitchesView(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(t, m, "2")
	if m.CurrentView != ViewHabits {
		t.Fatalf("expected habits view, got %q", m.CurrentView)
	}
	m, _ = press(t, m, "3")
	if m.CurrentView != ViewArchive {
		t.Fatalf("expected archive view, got %q", m.CurrentView)
	}
	m, _ = press(t, m, "1")
	if m.CurrentView != ViewBoard {
		t.Fatalf("expected board view, got %q", m.CurrentView)
	}
}

func TestUpdateSwitchViewMsg(t *testing.T) {
	m, _ := newTestModel(t)
	updated, _ := m.Update(SwitchViewMsg{View: ViewArchive})
	next := updated.(Model)
	if next.CurrentView != ViewArchive {
		t.Fatalf("expected archive view, got %q", next.CurrentView)
	}

	updated, _ = next.Update(SwitchViewMsg{View: View("Unknown")})
	next = updated.(Model)
	if next.CurrentView != ViewArchive {
		t.Fatalf("expected view unchanged for unknown view, got %q", next.CurrentView)
	}
}

func TestUpdateStatusAndError(t *testing.T) {
	m, _ := newTestModel(t)
	updated, _ := m.Update(SetStatusMsg{Text: "ready"})
	next := updated.(Model)
	if next.Status.Text != "ready" || next.Status.IsError {
		t.Fatalf("unexpected status: %+v", next.Status)
	}

	updated, _ = next.Update(AppErrorMsg{Err: errors.New("boom")})
	next = updated.(Model)
	if next.LastError == nil || next.LastError.Error() != "boom" {
		t.Fatalf("expected last error boom, got: %v", next.LastError)
	}
	if !next.Status.IsError || next.Status.Text != "boom" {
		t.Fatalf("unexpected error status: %+v", next.Status)
	}

	updated, _ = next.Update(ClearStatusMsg{})
	next = updated.(Model)
	if next.Status.Text != "" || next.Status.IsError {
		t.Fatalf("expected cleared status, got: %+v", next.Status)
	}
}

func TestUpdateQuitKey(t *testing.T) {
	m, _ := newTestModel(t)
	next, cmd := press(t, m, "q")
	if !next.Quitting {
		t.Fatal("expected quitting flag true")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
}

func TestQuitKeyIgnoredWhileDragging(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(t, m, " ", "q")
	if m.Quitting {
		t.Fatal("expected q to be ignored during a drag")
	}
	if !m.Drag.Active {
		t.Fatal("expected drag to stay active")
	}
}

func TestDragAcrossColumnsCelebratesAndPersists(t *testing.T) {
	m, fake := newTestModel(t)

	m, _ = press(t, m, " ")
	if !m.Drag.Active || m.Drag.TaskID != "a" {
		t.Fatalf("expected drag of a, got %+v", m.Drag)
	}

	m, cmd := press(t, m, "l", "l", "l", " ")
	if m.Drag.Active {
		t.Fatal("expected drag to end on drop")
	}
	if got := ids(m.Snapshot.Tasks(model.ColumnDone)); strings.Join(got, ",") != "a,c" {
		t.Fatalf("expected optimistic done column a,c, got %v", got)
	}
	if got := ids(m.Snapshot.Tasks(model.ColumnPending)); strings.Join(got, ",") != "b" {
		t.Fatalf("expected pending column b, got %v", got)
	}
	if m.Status.Text != celebration {
		t.Fatalf("expected celebration status, got %q", m.Status.Text)
	}
	if m.Pending != 1 {
		t.Fatalf("expected one pending store call, got %d", m.Pending)
	}

	loaded := boardLoaded(t, cmd)
	if len(fake.persisted) != 1 || fake.persisted[0] != "a" {
		t.Fatalf("expected persist of a, got %v", fake.persisted)
	}
	updated, _ := m.Update(loaded)
	m = updated.(Model)
	if m.Pending != 0 {
		t.Fatalf("expected no pending calls, got %d", m.Pending)
	}
	if task, ok := m.selectedTask(); !ok || task.ID != "a" {
		t.Fatalf("expected cursor to follow the dropped card, got %+v", task)
	}
}

func TestDragWithinColumnReorders(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(t, m, "j", " ", "k", " ")
	if got := ids(m.Snapshot.Tasks(model.ColumnPending)); strings.Join(got, ",") != "b,a" {
		t.Fatalf("expected b,a, got %v", got)
	}
	if m.Status.Text != "moved" {
		t.Fatalf("expected moved status, got %q", m.Status.Text)
	}
}

func TestDropOnEmptyColumnLandsAtHead(t *testing.T) {
	m, _ := newTestModel(t)
	m, cmd := press(t, m, " ", "l", " ")
	if cmd == nil {
		t.Fatal("expected persist command")
	}
	if got := ids(m.Snapshot.Tasks(model.ColumnInProgress)); strings.Join(got, ",") != "a" {
		t.Fatalf("expected a in progress, got %v", got)
	}
}

func TestDropInPlaceSkipsWrite(t *testing.T) {
	m, fake := newTestModel(t)
	m, cmd := press(t, m, " ", " ")
	if cmd != nil {
		t.Fatal("expected no command for an in-place drop")
	}
	if m.Status.Text != "dropped in place" {
		t.Fatalf("unexpected status %q", m.Status.Text)
	}
	if len(fake.persisted) != 0 {
		t.Fatalf("expected no writes, got %v", fake.persisted)
	}
}

func TestEscCancelsDrag(t *testing.T) {
	m, _ := newTestModel(t)
	before := ids(m.Snapshot.Tasks(model.ColumnPending))
	m, cmd := press(t, m, " ", "l", "l", "esc")
	if cmd != nil {
		t.Fatal("expected no command on cancel")
	}
	if m.Drag.Active {
		t.Fatal("expected drag cleared")
	}
	if task, ok := m.selectedTask(); !ok || task.ID != "a" {
		t.Fatalf("expected cursor back on the picked card, got %+v", task)
	}
	if got := ids(m.Snapshot.Tasks(model.ColumnPending)); strings.Join(got, ",") != strings.Join(before, ",") {
		t.Fatalf("expected board unchanged, got %v", got)
	}
}

func TestFailedPersistShowsStoredBoard(t *testing.T) {
	m, fake := newTestModel(t)
	fake.persistErr = errors.New("disk full")

	m, cmd := press(t, m, " ", "l", "l", "l", " ")
	updated, _ := m.Update(boardLoaded(t, cmd))
	m = updated.(Model)

	if got := ids(m.Snapshot.Tasks(model.ColumnPending)); strings.Join(got, ",") != "a,b" {
		t.Fatalf("expected stored board after failure, got %v", got)
	}
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "disk full") {
		t.Fatalf("expected error status, got %+v", m.Status)
	}
}

func TestPaletteTypingRunsFilter(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(t, m, "/")
	if !m.Palette.Active {
		t.Fatal("expected palette to open")
	}
	m, _ = press(t, m, "filter #work", "enter")
	if m.Palette.Active {
		t.Fatal("expected palette to close after enter")
	}
	if len(m.Filter.Tags) != 1 || m.Filter.Tags[0] != "work" {
		t.Fatalf("expected work tag filter, got %+v", m.Filter)
	}
	if got := ids(m.visible().Tasks(model.ColumnPending)); strings.Join(got, ",") != "a" {
		t.Fatalf("expected only a visible, got %v", got)
	}
	if len(m.Snapshot.Tasks(model.ColumnPending)) != 2 {
		t.Fatal("expected filter to leave the snapshot alone")
	}
}

func TestPaletteAddCreatesTask(t *testing.T) {
	m, fake := newTestModel(t)
	m = m.openPalette("add write report p:urgent due:tomorrow #work")
	m, cmd := press(t, m, "enter")

	loaded := boardLoaded(t, cmd)
	if len(fake.created) != 1 {
		t.Fatalf("expected one create, got %d", len(fake.created))
	}
	in := fake.created[0]
	if in.Title != "write report" || in.Priority != model.PriorityUrgent {
		t.Fatalf("unexpected new task: %+v", in)
	}
	if in.DueAt == nil || !in.DueAt.Equal(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected due tomorrow, got %v", in.DueAt)
	}
	updated, _ := m.Update(loaded)
	m = updated.(Model)
	if len(m.Snapshot.Tasks(model.ColumnPending)) != 3 {
		t.Fatalf("expected new task on the board, got %v", ids(m.Snapshot.Tasks(model.ColumnPending)))
	}
}

func TestPaletteMoveToDone(t *testing.T) {
	m, fake := newTestModel(t)
	m = m.openPalette("move done")
	m, cmd := press(t, m, "enter")
	if cmd == nil {
		t.Fatal("expected persist command")
	}
	if got := ids(m.Snapshot.Tasks(model.ColumnDone)); strings.Join(got, ",") != "a,c" {
		t.Fatalf("expected a at the head of done, got %v", got)
	}
	if m.Status.Text != celebration {
		t.Fatalf("expected celebration, got %q", m.Status.Text)
	}
	boardLoaded(t, cmd)
	if len(fake.persisted) != 1 {
		t.Fatalf("expected one persist, got %v", fake.persisted)
	}
}

func TestPaletteTagMergesTags(t *testing.T) {
	m, fake := newTestModel(t)
	m = m.openPalette("tag +home -WORK")
	_, cmd := press(t, m, "enter")
	boardLoaded(t, cmd)
	if len(fake.edits) != 1 || !fake.edits[0].SetTags {
		t.Fatalf("expected a tag edit, got %+v", fake.edits)
	}
	if got := fake.edits[0].Tags; len(got) != 1 || got[0] != "home" {
		t.Fatalf("expected tags [home], got %v", got)
	}
}

func TestPaletteErrorsLandInStatus(t *testing.T) {
	m, _ := newTestModel(t)
	m = m.openPalette("teleport")
	m, cmd := press(t, m, "enter")
	if cmd != nil {
		t.Fatal("expected no command for a bad input")
	}
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "unsupported command") {
		t.Fatalf("expected error status, got %+v", m.Status)
	}
}

func TestPaletteEscCloses(t *testing.T) {
	m, _ := newTestModel(t)
	m = m.openPalette("add something")
	m, _ = press(t, m, "esc")
	if m.Palette.Active {
		t.Fatal("expected palette closed")
	}
	if m.commandInput.Value() != "" {
		t.Fatalf("expected input cleared, got %q", m.commandInput.Value())
	}
}

func TestDueFilterKeyCycles(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(t, m, "f")
	if m.Filter.Due != board.DueWindows[1] {
		t.Fatalf("expected second due window, got %q", m.Filter.Due)
	}
	m, _ = press(t, m, "F")
	if m.Filter.Active() {
		t.Fatalf("expected filters cleared, got %+v", m.Filter)
	}
}

func TestHabitToggledPromotionNote(t *testing.T) {
	m, _ := newTestModel(t)
	updated, _ := m.Update(HabitToggledMsg{Title: "read", Result: service.ToggleResult{Done: true, Streak: 21, Promoted: true}})
	next := updated.(Model)
	if !strings.Contains(next.Status.Text, "habit formed") {
		t.Fatalf("expected promotion note, got %q", next.Status.Text)
	}
}

func TestViewContainsCoreState(t *testing.T) {
	m, _ := newTestModel(t)
	m.Status = StatusBar{Text: "all good"}
	out := m.View()
	for _, want := range []string{"view: Board", "tasks: 3", "status: all good", "write docs", "Pending"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output: %q", want, out)
		}
	}
}

func TestClamp(t *testing.T) {
	cases := []struct{ i, n, want int }{
		{-1, 3, 0}, {0, 0, 0}, {5, 0, 0}, {5, 3, 2}, {1, 3, 1},
	}
	for _, tc := range cases {
		if got := clamp(tc.i, tc.n); got != tc.want {
			t.Fatalf("clamp(%d, %d) = %d, want %d", tc.i, tc.n, got, tc.want)
		}
	}
}

func TestHelpPanelFollowsContext(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(t, m, "?")
	if !m.HelpVisible {
		t.Fatal("expected help to be visible")
	}
	if !strings.Contains(m.View(), "keys: board") {
		t.Fatalf("expected help panel in view, got:\n%s", m.View())
	}
	if out := m.renderHelpView(); !strings.Contains(out, "pick up card") || !strings.Contains(out, "command palette") {
		t.Fatalf("expected board and global bindings, got:\n%s", out)
	}

	m, _ = press(t, m, " ")
	if out := m.renderHelpView(); !strings.Contains(out, "keys: drag") || !strings.Contains(out, "cancel drag") {
		t.Fatalf("expected drag help, got:\n%s", out)
	}
}

func TestFailedMaterializeRearmsSchedule(t *testing.T) {
	m, fake := newTestModel(t)
	engine := scheduler.NewEngine(1)
	m.Scheduler = engine
	fake.stored.Schedules = []model.Schedule{{
		ID:       "rent",
		Template: model.Template{Title: "pay rent", Frequency: model.FrequencyMonthly},
		NextAt:   fixedNow.Add(-time.Hour),
	}}
	m.Pending = 1

	updated, cmd := m.Update(MaterializedMsg{Err: errors.New("store down")})
	m = updated.(Model)
	if !m.Status.IsError || m.Pending != 1 {
		t.Fatalf("expected error status with a refresh in flight, got %+v pending=%d", m.Status, m.Pending)
	}
	if engine.Pending() != 0 {
		t.Fatalf("engine should not be armed before the refresh lands, got %d", engine.Pending())
	}

	updated, _ = m.Update(boardLoaded(t, cmd))
	m = updated.(Model)
	if engine.Pending() != 1 {
		t.Fatalf("expected the overdue schedule to be re-armed, got %d pending", engine.Pending())
	}
	if !m.Status.IsError || m.Pending != 0 {
		t.Fatalf("expected the error to stay visible after the refresh, got %+v pending=%d", m.Status, m.Pending)
	}
}

func TestHabitRowsShowFormedDayInLocalTime(t *testing.T) {
	east := time.FixedZone("east", 2*60*60)
	m := NewModel(Options{Boards: &fakeBoards{}, Location: east, Now: func() time.Time { return fixedNow }})
	formedAt := time.Date(2026, 3, 3, 23, 30, 0, 0, time.UTC)
	m.Habits = []service.HabitView{
		{Habit: model.Habit{ID: "h1", Title: "read", Completed: true, CompletedAt: &formedAt}, Streak: 21},
		{Habit: model.Habit{ID: "h2", Title: "run"}, Streak: 2},
	}

	rows := m.habitRows()
	if rows[0].CompletedOn != "2026-03-04" {
		t.Fatalf("expected local formed day, got %q", rows[0].CompletedOn)
	}
	if rows[1].CompletedOn != "" {
		t.Fatalf("expected no formed day for an open habit, got %q", rows[1].CompletedOn)
	}
}
