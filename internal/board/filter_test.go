package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/czar/internal/model"
)

// Wednesday.
var filterNow = time.Date(2026, 2, 11, 15, 0, 0, 0, time.UTC)

func due(t time.Time) *time.Time { return &t }

func filterFixture() Snapshot {
	return FromTasks([]Placed{
		{model.ColumnPending, model.Task{ID: "rent", Title: "Pay rent", Priority: model.PriorityUrgent, Tags: []string{"Home", "money"}, DueAt: due(filterNow.Add(2 * time.Hour)), Position: 1}},
		{model.ColumnPending, model.Task{ID: "gym", Title: "Gym session", Priority: model.PriorityImportant, Tags: []string{"health"}, DueAt: due(time.Date(2026, 2, 15, 20, 0, 0, 0, time.UTC)), Position: 2}},
		{model.ColumnInProgress, model.Task{ID: "tax", Title: "File taxes", Priority: model.PriorityUrgent, Tags: []string{"money"}, DueAt: due(time.Date(2026, 2, 9, 9, 0, 0, 0, time.UTC)), Position: 1}},
		{model.ColumnAction, model.Task{ID: "trip", Title: "Plan trip", Tags: []string{"home"}, DueAt: due(time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)), Position: 1}},
		{model.ColumnDone, model.Task{ID: "read", Title: "Read book", Position: 1}},
	})
}

func visible(s Snapshot) []string {
	var out []string
	for _, c := range model.Columns {
		out = append(out, ids(s.Tasks(c))...)
	}
	return out
}

func TestFilterZeroValueIsIdentity(t *testing.T) {
	s := filterFixture()
	assert.False(t, Filter{}.Active())
	assert.Equal(t, s, Filter{Due: DueAll}.Apply(s, filterNow))
}

func TestFilterByPriority(t *testing.T) {
	got := Filter{Priority: model.PriorityUrgent}.Apply(filterFixture(), filterNow)
	assert.Equal(t, []string{"rent", "tax"}, visible(got))
}

func TestFilterTagsAreConjunctiveAndCaseInsensitive(t *testing.T) {
	s := filterFixture()
	assert.Equal(t, []string{"rent", "trip"}, visible(Filter{Tags: []string{"HOME"}}.Apply(s, filterNow)))
	assert.Equal(t, []string{"rent"}, visible(Filter{Tags: []string{"home", "Money"}}.Apply(s, filterNow)))
}

func TestFilterDueWindows(t *testing.T) {
	s := filterFixture()
	tests := []struct {
		window DueWindow
		want   []string
	}{
		{DueToday, []string{"rent"}},
		{DueWeek, []string{"rent", "gym"}},
		{DueOverdue, []string{"tax"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.window), func(t *testing.T) {
			assert.Equal(t, tt.want, visible(Filter{Due: tt.window}.Apply(s, filterNow)))
		})
	}
}

func TestFilterWeekOnSundayRunsToNextSunday(t *testing.T) {
	sunday := time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC)
	got := Filter{Due: DueWeek}.Apply(filterFixture(), sunday)
	assert.Equal(t, []string{"gym", "trip"}, visible(got))
}

func TestFilterQueryIsFuzzy(t *testing.T) {
	got := Filter{Query: "ayrent"}.Apply(filterFixture(), filterNow)
	assert.Equal(t, []string{"rent"}, visible(got))
}

func TestFilterDoesNotTouchInput(t *testing.T) {
	s := filterFixture()
	_ = Filter{Priority: model.PriorityImportant}.Apply(s, filterNow)
	assert.Equal(t, 5, s.Count())
}

func TestParseDueWindow(t *testing.T) {
	w, err := ParseDueWindow(" Week ")
	require.NoError(t, err)
	assert.Equal(t, DueWeek, w)

	w, err = ParseDueWindow("")
	require.NoError(t, err)
	assert.Equal(t, DueAll, w)

	_, err = ParseDueWindow("someday")
	assert.Error(t, err)
}

func TestAllTags(t *testing.T) {
	s := filterFixture()
	s.Archived = []model.Task{{ID: "old", Tags: []string{"archive"}}}
	got := AllTags(s, []string{"work", "Health"})
	assert.Equal(t, []string{"archive", "Health", "Home", "money", "work"}, got)
}
