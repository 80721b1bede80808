package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// sqliteTimeLayout is fixed width so timestamps sort correctly as text.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db, now: time.Now}, nil
}

// OpenSQLite opens the database at path, applies pending migrations and returns
// a ready repository.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	// foreign_keys is per connection; the DSN makes every pooled connection enforce it.
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; this also keeps ":memory:" to a single database.
	db.SetMaxOpenConns(1)
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) EnsureBoard(ctx context.Context, owner string) (Board, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return Board{}, ErrNotAuthenticated
	}
	row := r.db.QueryRowContext(ctx, `SELECT id, owner, title, created_at FROM boards WHERE owner = ?`, owner)
	board, err := scanBoard(row)
	if err == nil {
		return board, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Board{}, err
	}

	board = Board{ID: uuid.NewString(), Owner: owner, Title: "My Board", CreatedAt: r.now().UTC()}
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO boards (id, owner, title, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (owner) DO NOTHING`,
		board.ID, board.Owner, board.Title, mustTime(board.CreatedAt),
	); err != nil {
		return Board{}, err
	}
	// Another connection may have won the insert; read back whichever row exists.
	return scanBoard(r.db.QueryRowContext(ctx, `SELECT id, owner, title, created_at FROM boards WHERE owner = ?`, owner))
}

const taskColumns = `id, board_id, column_id, title, note, priority, due_at, tags, recurrence, position, archived, created_at`

func (r *SQLiteRepository) ListTasks(ctx context.Context, boardID string) ([]TaskRow, error) {
	return collect(ctx, r.db, scanTask, `SELECT `+taskColumns+` FROM tasks WHERE board_id = ? AND archived = 0 ORDER BY position ASC, created_at ASC`, boardID)
}

func (r *SQLiteRepository) ListArchivedTasks(ctx context.Context, boardID string) ([]TaskRow, error) {
	return collect(ctx, r.db, scanTask, `SELECT `+taskColumns+` FROM tasks WHERE board_id = ? AND archived = 1 ORDER BY created_at DESC`, boardID)
}

func (r *SQLiteRepository) GetTask(ctx context.Context, id string) (TaskRow, error) {
	task, err := scanTask(r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TaskRow{}, ErrNotFound
		}
		return TaskRow{}, err
	}
	return task, nil
}

// CreateTask inserts in, assigning an id and a creation time where they are
// unset. Position is stored as given; zero is a valid sort key.
func (r *SQLiteRepository) CreateTask(ctx context.Context, in TaskRow) (TaskRow, error) {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = r.now().UTC()
	}
	tags, err := encodeTags(in.Tags)
	if err != nil {
		return TaskRow{}, err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.BoardID, in.ColumnID, in.Title, in.Note, in.Priority, nullTime(in.DueAt), tags,
		in.Recurrence, in.Position, boolInt(in.Archived), mustTime(in.CreatedAt),
	)
	if err != nil {
		return TaskRow{}, err
	}
	return in, nil
}

func (r *SQLiteRepository) UpdateTask(ctx context.Context, id string, patch TaskPatch) error {
	if patch.IsEmpty() {
		_, err := r.GetTask(ctx, id)
		return err
	}
	sets := make([]string, 0, 8)
	args := make([]any, 0, 9)
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Note != nil {
		set("note", *patch.Note)
	}
	if patch.Priority != nil {
		set("priority", *patch.Priority)
	}
	switch {
	case patch.ClearDue:
		set("due_at", nil)
	case patch.DueAt != nil:
		set("due_at", nullTime(patch.DueAt))
	}
	if patch.SetTags {
		tags, err := encodeTags(patch.Tags)
		if err != nil {
			return err
		}
		set("tags", tags)
	}
	if patch.Recurrence != nil {
		set("recurrence", *patch.Recurrence)
	}
	if patch.Archived != nil {
		set("archived", boolInt(*patch.Archived))
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, `UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) MoveTask(ctx context.Context, id, columnID string, position float64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tasks SET column_id = ?, position = ? WHERE id = ?`, columnID, position, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

// collect runs query and scans every row with scan. An empty result is a
// non-nil empty slice.
func collect[T any](ctx context.Context, db *sql.DB, scan func(scanner) (T, error), query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListSubtasks(ctx context.Context, taskID string) ([]SubtaskRow, error) {
	return collect(ctx, r.db, scanSubtask, `
		SELECT id, task_id, title, done, position, created_at
		FROM subtasks WHERE task_id = ? ORDER BY position ASC, created_at ASC`, taskID)
}

func (r *SQLiteRepository) InsertSubtask(ctx context.Context, in SubtaskRow) (SubtaskRow, error) {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = r.now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subtasks (id, task_id, title, done, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		in.ID, in.TaskID, in.Title, boolInt(in.Done), in.Position, mustTime(in.CreatedAt),
	)
	if err != nil {
		return SubtaskRow{}, err
	}
	return in, nil
}

func (r *SQLiteRepository) UpdateSubtask(ctx context.Context, id string, done bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE subtasks SET done = ? WHERE id = ?`, boolInt(done), id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeleteSubtask(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subtasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListHabits(ctx context.Context, boardID string) ([]HabitRow, error) {
	return collect(ctx, r.db, scanHabit, `
		SELECT id, board_id, title, completed, completed_at, created_at
		FROM habits WHERE board_id = ? ORDER BY created_at ASC`, boardID)
}

func (r *SQLiteRepository) CreateHabit(ctx context.Context, in HabitRow) (HabitRow, error) {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = r.now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO habits (id, board_id, title, completed, completed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		in.ID, in.BoardID, in.Title, boolInt(in.Completed), nullTime(in.CompletedAt), mustTime(in.CreatedAt),
	)
	if err != nil {
		return HabitRow{}, err
	}
	return in, nil
}

func (r *SQLiteRepository) DeleteHabit(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) UpdateHabit(ctx context.Context, id string, completed bool, completedAt *time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE habits SET completed = ?, completed_at = ? WHERE id = ?`,
		boolInt(completed), nullTime(completedAt), id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListHabitLogs(ctx context.Context, habitIDs []string) ([]HabitLogRow, error) {
	if len(habitIDs) == 0 {
		return []HabitLogRow{}, nil
	}
	args := make([]any, len(habitIDs))
	for i, id := range habitIDs {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(habitIDs)), ", ")
	return collect(ctx, r.db, scanHabitLog, `
		SELECT id, habit_id, day, created_at
		FROM habit_logs WHERE habit_id IN (`+placeholders+`) ORDER BY day DESC`, args...)
}

func (r *SQLiteRepository) InsertHabitLog(ctx context.Context, in HabitLogRow) (HabitLogRow, error) {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = r.now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO habit_logs (id, habit_id, day, created_at) VALUES (?, ?, ?, ?)`,
		in.ID, in.HabitID, in.Day, mustTime(in.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return HabitLogRow{}, fmt.Errorf("%w: habit %s already logged on %s", ErrDuplicate, in.HabitID, in.Day)
		}
		return HabitLogRow{}, err
	}
	return in, nil
}

func (r *SQLiteRepository) DeleteHabitLog(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM habit_logs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) CreateSchedule(ctx context.Context, in ScheduleRow) (ScheduleRow, error) {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = r.now().UTC()
	}
	if in.Timezone == "" {
		in.Timezone = "UTC"
	}
	tags, err := encodeTags(in.Tags)
	if err != nil {
		return ScheduleRow{}, err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO schedules (id, board_id, title, note, priority, tags, frequency, timezone, next_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.BoardID, in.Title, in.Note, in.Priority, tags, in.Frequency, in.Timezone,
		mustTime(in.NextAt), mustTime(in.CreatedAt),
	)
	if err != nil {
		return ScheduleRow{}, err
	}
	return in, nil
}

func (r *SQLiteRepository) ListSchedules(ctx context.Context, boardID string) ([]ScheduleRow, error) {
	return collect(ctx, r.db, scanSchedule, `
		SELECT id, board_id, title, note, priority, tags, frequency, timezone, next_at, created_at
		FROM schedules WHERE board_id = ? ORDER BY next_at ASC`, boardID)
}

func (r *SQLiteRepository) UpdateScheduleNextAt(ctx context.Context, id string, nextAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE schedules SET next_at = ? WHERE id = ?`, mustTime(nextAt), id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeleteSchedule(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC().Format(sqliteTimeLayout)
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	tm, err := time.Parse(sqliteTimeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(raw), nil
}

func decodeTags(raw string) ([]string, error) {
	out := []string{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBoard(s scanner) (Board, error) {
	var out Board
	var created string
	if err := s.Scan(&out.ID, &out.Owner, &out.Title, &created); err != nil {
		return Board{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return Board{}, err
	}
	out.CreatedAt = createdAt
	return out, nil
}

func scanTask(s scanner) (TaskRow, error) {
	var out TaskRow
	var due sql.NullString
	var tags string
	var archived int
	var created string
	if err := s.Scan(&out.ID, &out.BoardID, &out.ColumnID, &out.Title, &out.Note, &out.Priority, &due, &tags,
		&out.Recurrence, &out.Position, &archived, &created); err != nil {
		return TaskRow{}, err
	}
	dueAt, err := parseNullableTime(due)
	if err != nil {
		return TaskRow{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return TaskRow{}, err
	}
	decoded, err := decodeTags(tags)
	if err != nil {
		return TaskRow{}, err
	}
	out.DueAt = dueAt
	out.Tags = decoded
	out.Archived = archived == 1
	out.CreatedAt = createdAt
	return out, nil
}

func scanSubtask(s scanner) (SubtaskRow, error) {
	var out SubtaskRow
	var done int
	var created string
	if err := s.Scan(&out.ID, &out.TaskID, &out.Title, &done, &out.Position, &created); err != nil {
		return SubtaskRow{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return SubtaskRow{}, err
	}
	out.Done = done == 1
	out.CreatedAt = createdAt
	return out, nil
}

func scanHabit(s scanner) (HabitRow, error) {
	var out HabitRow
	var completed int
	var completedRaw sql.NullString
	var created string
	if err := s.Scan(&out.ID, &out.BoardID, &out.Title, &completed, &completedRaw, &created); err != nil {
		return HabitRow{}, err
	}
	completedAt, err := parseNullableTime(completedRaw)
	if err != nil {
		return HabitRow{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return HabitRow{}, err
	}
	out.Completed = completed == 1
	out.CompletedAt = completedAt
	out.CreatedAt = createdAt
	return out, nil
}

func scanHabitLog(s scanner) (HabitLogRow, error) {
	var out HabitLogRow
	var created string
	if err := s.Scan(&out.ID, &out.HabitID, &out.Day, &created); err != nil {
		return HabitLogRow{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return HabitLogRow{}, err
	}
	out.CreatedAt = createdAt
	return out, nil
}

func scanSchedule(s scanner) (ScheduleRow, error) {
	var out ScheduleRow
	var tags string
	var next string
	var created string
	if err := s.Scan(&out.ID, &out.BoardID, &out.Title, &out.Note, &out.Priority, &tags, &out.Frequency,
		&out.Timezone, &next, &created); err != nil {
		return ScheduleRow{}, err
	}
	decoded, err := decodeTags(tags)
	if err != nil {
		return ScheduleRow{}, err
	}
	nextAt, err := parseRequiredTime(next)
	if err != nil {
		return ScheduleRow{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return ScheduleRow{}, err
	}
	out.Tags = decoded
	out.NextAt = nextAt
	out.CreatedAt = createdAt
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
