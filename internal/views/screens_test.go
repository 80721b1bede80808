package views

import (
	"strings"
	"testing"
	"time"
)

func TestDueLabel(t *testing.T) {
	now := time.Date(2026, 5, 6, 15, 0, 0, 0, time.UTC)
	at := func(days int) *time.Time {
		d := time.Date(2026, 5, 6+days, 9, 0, 0, 0, time.UTC)
		return &d
	}
	cases := []struct {
		name string
		due  *time.Time
		want string
	}{
		{"none", nil, ""},
		{"today", at(0), "today"},
		{"tomorrow", at(1), "tomorrow"},
		{"yesterday", at(-1), "yesterday"},
		{"later", at(3), "3 days from now"},
		{"earlier", at(-3), "3 days ago"},
	}
	for _, tc := range cases {
		if got := DueLabel(tc.due, now); got != tc.want {
			t.Fatalf("%s: DueLabel = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestRenderBoardShowsCardsAndFilter(t *testing.T) {
	out := RenderBoard(BoardData{
		FilterLabel: "tags=work",
		Columns: []ColumnData{
			{ID: "pending", Title: "Pending", Cards: []CardData{{ID: "a", Title: "write docs", Priority: "Urgent", Tags: []string{"work"}, DueLabel: "today", Overdue: true}}},
			{ID: "done", Title: "Done"},
		},
	})
	for _, want := range []string{"filter: tags=work", "Pending (1)", "write docs", "Urgent", "#work", "overdue", "(empty)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in board: %q", want, out)
		}
	}
}

func TestRenderHabitsMarksFormedHabits(t *testing.T) {
	out := RenderHabits([]HabitRowData{
		{Title: "read", Streak: 21, DoneToday: true, Completed: true, CompletedOn: "2026-03-22", Selected: true},
		{Title: "walk", Streak: 21, Completed: true},
		{Title: "run", Streak: 0},
	})
	if !strings.Contains(out, "> [x] read  streak 21") {
		t.Fatalf("unexpected habit row: %q", out)
	}
	if !strings.Contains(out, "formed 2026-03-22") {
		t.Fatalf("expected formed date: %q", out)
	}
	if !strings.Contains(out, "walk  streak 21 ") || !strings.Contains(out, "✓ formed") {
		t.Fatalf("expected undated formed marker: %q", out)
	}
	if !strings.Contains(out, "  [ ] run  streak 0") {
		t.Fatalf("unexpected habit row: %q", out)
	}
}

func TestRenderMarkdownEmptyNote(t *testing.T) {
	if got := RenderMarkdown("   ", 40); got != "" {
		t.Fatalf("expected empty render for blank note, got %q", got)
	}
}

func TestRenderFrameSkipsEmptyParts(t *testing.T) {
	out := RenderFrame(Frame{Title: "czar", Main: "body", Aside: "  \n", Status: "boom", StatusError: true})
	if !strings.Contains(out, "czar") || !strings.Contains(out, "body") || !strings.Contains(out, "boom") {
		t.Fatalf("missing frame parts: %q", out)
	}
	if strings.Contains(out, "╭") {
		t.Fatalf("blank aside and toast should not draw a border: %q", out)
	}
}
