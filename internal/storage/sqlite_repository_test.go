package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func setupRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "czar-test.db")
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := MigrateUp(db); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	repo, err := NewSQLiteRepository(db)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	return repo
}

func setupBoard(t *testing.T, repo *SQLiteRepository) Board {
	t.Helper()
	board, err := repo.EnsureBoard(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ensure board: %v", err)
	}
	return board
}

func parseRFC3339(t *testing.T, value string) time.Time {
	t.Helper()
	out, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return out
}

func TestEnsureBoardIsIdempotent(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	first, err := repo.EnsureBoard(ctx, "alice")
	if err != nil {
		t.Fatalf("ensure board: %v", err)
	}
	second, err := repo.EnsureBoard(ctx, "alice")
	if err != nil {
		t.Fatalf("ensure board again: %v", err)
	}
	if first.ID == "" || first.ID != second.ID {
		t.Fatalf("expected the same board twice, got %q and %q", first.ID, second.ID)
	}

	other, err := repo.EnsureBoard(ctx, "bob")
	if err != nil {
		t.Fatalf("ensure other board: %v", err)
	}
	if other.ID == first.ID {
		t.Fatal("expected separate boards per owner")
	}

	if _, err := repo.EnsureBoard(ctx, "  "); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestTaskCreateListAndOrdering(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	board := setupBoard(t, repo)
	created := parseRFC3339(t, "2026-02-09T12:00:00Z")
	due := parseRFC3339(t, "2026-02-10T09:00:00Z")

	tail, err := repo.CreateTask(ctx, TaskRow{
		BoardID:   board.ID,
		ColumnID:  "pending",
		Title:     "Tail task",
		Tags:      []string{"home", "Money"},
		DueAt:     &due,
		Priority:  "Urgent",
		Position:  DefaultTaskPosition,
		CreatedAt: created,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if tail.ID == "" || tail.Position != DefaultTaskPosition {
		t.Fatalf("expected generated id and tail position, got %#v", tail)
	}
	if _, err := repo.CreateTask(ctx, TaskRow{BoardID: board.ID, ColumnID: "pending", Title: "Head", Position: 1, CreatedAt: created}); err != nil {
		t.Fatalf("create head: %v", err)
	}

	tasks, err := repo.ListTasks(ctx, board.ID)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 2 || tasks[0].Title != "Head" || tasks[1].ID != tail.ID {
		t.Fatalf("unexpected order: %#v", tasks)
	}
	got := tasks[1]
	if len(got.Tags) != 2 || got.Tags[1] != "Money" || got.DueAt == nil || !got.DueAt.Equal(due) || got.Priority != "Urgent" {
		t.Fatalf("round trip lost fields: %#v", got)
	}
}

func TestCreateTaskKeepsZeroPosition(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	board := setupBoard(t, repo)

	if _, err := repo.CreateTask(ctx, TaskRow{BoardID: board.ID, ColumnID: "pending", Title: "One", Position: 1}); err != nil {
		t.Fatalf("create one: %v", err)
	}
	zero, err := repo.CreateTask(ctx, TaskRow{BoardID: board.ID, ColumnID: "pending", Title: "Zero", Position: 0})
	if err != nil {
		t.Fatalf("create zero: %v", err)
	}
	if zero.Position != 0 {
		t.Fatalf("expected position 0 to be kept, got %v", zero.Position)
	}

	tasks, err := repo.ListTasks(ctx, board.ID)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 2 || tasks[0].Title != "Zero" || tasks[0].Position != 0 {
		t.Fatalf("expected the zero task first, got %#v", tasks)
	}
}

func TestTaskPatchAndMove(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	board := setupBoard(t, repo)
	due := parseRFC3339(t, "2026-02-10T09:00:00Z")

	task, err := repo.CreateTask(ctx, TaskRow{BoardID: board.ID, ColumnID: "pending", Title: "Draft", DueAt: &due})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	title := "Final"
	if err := repo.UpdateTask(ctx, task.ID, TaskPatch{Title: &title, ClearDue: true, Tags: []string{"x"}, SetTags: true}); err != nil {
		t.Fatalf("update task: %v", err)
	}
	got, err := repo.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Title != "Final" || got.DueAt != nil || len(got.Tags) != 1 || got.Note != "" {
		t.Fatalf("unexpected patched task: %#v", got)
	}

	if err := repo.MoveTask(ctx, task.ID, "done", 42.5); err != nil {
		t.Fatalf("move task: %v", err)
	}
	got, _ = repo.GetTask(ctx, task.ID)
	if got.ColumnID != "done" || got.Position != 42.5 {
		t.Fatalf("unexpected placement: %s %v", got.ColumnID, got.Position)
	}

	if err := repo.MoveTask(ctx, "missing", "done", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.UpdateTask(ctx, "missing", TaskPatch{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty patch on missing task, got %v", err)
	}
	if err := repo.MoveTask(ctx, task.ID, "nowhere", 1); err == nil {
		t.Fatal("expected check constraint failure for unknown column")
	}
}

func TestArchiveAndRestore(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	board := setupBoard(t, repo)
	base := parseRFC3339(t, "2026-02-09T12:00:00Z")

	var ids []string
	for i, title := range []string{"old", "mid", "new"} {
		row, err := repo.CreateTask(ctx, TaskRow{BoardID: board.ID, ColumnID: "action", Title: title, CreatedAt: base.Add(time.Duration(i) * time.Hour)})
		if err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
		ids = append(ids, row.ID)
	}

	archived := true
	for _, id := range []string{ids[0], ids[2]} {
		if err := repo.UpdateTask(ctx, id, TaskPatch{Archived: &archived}); err != nil {
			t.Fatalf("archive: %v", err)
		}
	}

	active, _ := repo.ListTasks(ctx, board.ID)
	if len(active) != 1 || active[0].ID != ids[1] {
		t.Fatalf("unexpected active tasks: %#v", active)
	}
	gone, err := repo.ListArchivedTasks(ctx, board.ID)
	if err != nil {
		t.Fatalf("list archived: %v", err)
	}
	if len(gone) != 2 || gone[0].Title != "new" || gone[1].Title != "old" {
		t.Fatalf("expected archived newest first, got %#v", gone)
	}

	restored := false
	if err := repo.UpdateTask(ctx, ids[0], TaskPatch{Archived: &restored}); err != nil {
		t.Fatalf("restore: %v", err)
	}
	active, _ = repo.ListTasks(ctx, board.ID)
	if len(active) != 2 {
		t.Fatalf("expected restored task back on board, got %d", len(active))
	}
}

func TestSubtasks(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	board := setupBoard(t, repo)
	task, err := repo.CreateTask(ctx, TaskRow{BoardID: board.ID, ColumnID: "pending", Title: "Parent"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	second, _ := repo.InsertSubtask(ctx, SubtaskRow{TaskID: task.ID, Title: "second", Position: 2})
	if _, err := repo.InsertSubtask(ctx, SubtaskRow{TaskID: task.ID, Title: "first", Position: 1}); err != nil {
		t.Fatalf("insert subtask: %v", err)
	}
	if err := repo.UpdateSubtask(ctx, second.ID, true); err != nil {
		t.Fatalf("update subtask: %v", err)
	}

	subs, err := repo.ListSubtasks(ctx, task.ID)
	if err != nil {
		t.Fatalf("list subtasks: %v", err)
	}
	if len(subs) != 2 || subs[0].Title != "first" || !subs[1].Done {
		t.Fatalf("unexpected subtasks: %#v", subs)
	}

	if err := repo.DeleteSubtask(ctx, subs[0].ID); err != nil {
		t.Fatalf("delete subtask: %v", err)
	}
	if err := repo.DeleteSubtask(ctx, subs[0].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHabitLogsAreUniquePerDay(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	board := setupBoard(t, repo)

	habit, err := repo.CreateHabit(ctx, HabitRow{BoardID: board.ID, Title: "Walk"})
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	if _, err := repo.InsertHabitLog(ctx, HabitLogRow{HabitID: habit.ID, Day: "2026-02-09"}); err != nil {
		t.Fatalf("insert log: %v", err)
	}
	_, err = repo.InsertHabitLog(ctx, HabitLogRow{HabitID: habit.ID, Day: "2026-02-09"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if _, err := repo.InsertHabitLog(ctx, HabitLogRow{HabitID: habit.ID, Day: "2026-02-10"}); err != nil {
		t.Fatalf("insert second day: %v", err)
	}

	logs, err := repo.ListHabitLogs(ctx, []string{habit.ID})
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(logs) != 2 || logs[0].Day != "2026-02-10" {
		t.Fatalf("unexpected logs: %#v", logs)
	}

	none, err := repo.ListHabitLogs(ctx, nil)
	if err != nil || len(none) != 0 {
		t.Fatalf("expected empty logs for no ids, got %#v, %v", none, err)
	}
}

func TestHabitCompletionAndCascade(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	board := setupBoard(t, repo)
	now := parseRFC3339(t, "2026-03-01T08:00:00Z")

	habit, _ := repo.CreateHabit(ctx, HabitRow{BoardID: board.ID, Title: "Meditate", CreatedAt: now})
	if _, err := repo.InsertHabitLog(ctx, HabitLogRow{HabitID: habit.ID, Day: "2026-03-01"}); err != nil {
		t.Fatalf("insert log: %v", err)
	}
	if err := repo.UpdateHabit(ctx, habit.ID, true, &now); err != nil {
		t.Fatalf("update habit: %v", err)
	}

	habits, err := repo.ListHabits(ctx, board.ID)
	if err != nil {
		t.Fatalf("list habits: %v", err)
	}
	if len(habits) != 1 || !habits[0].Completed || habits[0].CompletedAt == nil || !habits[0].CompletedAt.Equal(now) {
		t.Fatalf("unexpected habit: %#v", habits)
	}

	if err := repo.DeleteHabit(ctx, habit.ID); err != nil {
		t.Fatalf("delete habit: %v", err)
	}
	logs, _ := repo.ListHabitLogs(ctx, []string{habit.ID})
	if len(logs) != 0 {
		t.Fatalf("expected logs removed with habit, got %d", len(logs))
	}
}

func TestSchedules(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	board := setupBoard(t, repo)
	later := parseRFC3339(t, "2026-03-01T00:00:00Z")
	sooner := parseRFC3339(t, "2026-02-15T00:00:00Z")

	monthly, err := repo.CreateSchedule(ctx, ScheduleRow{BoardID: board.ID, Title: "Rent", Frequency: "monthly", NextAt: later, Tags: []string{"money"}})
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	if monthly.Timezone != "UTC" {
		t.Fatalf("expected default timezone, got %q", monthly.Timezone)
	}
	if _, err := repo.CreateSchedule(ctx, ScheduleRow{BoardID: board.ID, Title: "Review", Frequency: "weekly", NextAt: sooner}); err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	if _, err := repo.CreateSchedule(ctx, ScheduleRow{BoardID: board.ID, Title: "Bad", Frequency: "yearly", NextAt: sooner}); err == nil {
		t.Fatal("expected frequency check to reject yearly")
	}

	list, err := repo.ListSchedules(ctx, board.ID)
	if err != nil {
		t.Fatalf("list schedules: %v", err)
	}
	if len(list) != 2 || list[0].Title != "Review" || list[1].Tags[0] != "money" {
		t.Fatalf("unexpected schedules: %#v", list)
	}

	next := parseRFC3339(t, "2026-04-01T00:00:00Z")
	if err := repo.UpdateScheduleNextAt(ctx, monthly.ID, next); err != nil {
		t.Fatalf("advance schedule: %v", err)
	}
	if err := repo.DeleteSchedule(ctx, list[0].ID); err != nil {
		t.Fatalf("delete schedule: %v", err)
	}
	list, _ = repo.ListSchedules(ctx, board.ID)
	if len(list) != 1 || !list[0].NextAt.Equal(next) {
		t.Fatalf("unexpected schedules after update: %#v", list)
	}
}

func TestMappingDropsUnknownEnums(t *testing.T) {
	task := ToTask(TaskRow{ID: "t1", Title: "x", Priority: "Whenever", Recurrence: "hourly"})
	if task.Priority != "" || task.Recurrence != "" || task.Tags == nil {
		t.Fatalf("unexpected mapping: %#v", task)
	}
	row := FromTemplate("b1", ToSchedule(ScheduleRow{Title: "Rent", Frequency: "monthly", Tags: []string{"money"}}).Template)
	if row.ColumnID != "pending" || row.Position != DefaultTaskPosition || row.Recurrence != "monthly" || row.Tags[0] != "money" {
		t.Fatalf("unexpected template row: %#v", row)
	}
}
