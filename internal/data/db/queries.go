package db

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries groups the SQL statements used by the stores.
type Queries struct {
	db DBTX
}

// New returns queries bound to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns queries bound to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Task is a row of the tasks table.
type Task struct {
	ID        int64
	Content   string
	TaskDate  string
	Version   int64
	Position  int64
	CreatedAt int64
	UpdatedAt int64
}

// TaskPersonnel is a row of the task_personnel table.
type TaskPersonnel struct {
	TaskID  int64
	Ordinal int64
	Name    string
}

// Person is a row of the personnel table.
type Person struct {
	Name      string
	CreatedAt int64
}

// ActivityLog is a row of the activity_log table.
type ActivityLog struct {
	ID        int64
	Action    string
	TaskID    sql.NullInt64
	Details   string
	CreatedAt int64
}

const taskColumns = "id, content, task_date, version, position, created_at, updated_at"

func scanTask(row interface{ Scan(...any) error }) (Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.Content, &t.TaskDate, &t.Version, &t.Position, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (q *Queries) queryTasks(ctx context.Context, query string, args ...any) ([]Task, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// InsertTaskParams are the columns of a new task.
type InsertTaskParams struct {
	Content   string
	TaskDate  string
	Position  int64
	CreatedAt int64
	UpdatedAt int64
}

// InsertTask inserts a task at version 1 and returns its id.
func (q *Queries) InsertTask(ctx context.Context, arg InsertTaskParams) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO tasks (content, task_date, version, position, created_at, updated_at)
		 VALUES (?, ?, 1, ?, ?, ?)`,
		arg.Content, arg.TaskDate, arg.Position, arg.CreatedAt, arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetTask returns one task. Returns sql.ErrNoRows when absent.
func (q *Queries) GetTask(ctx context.Context, id int64) (Task, error) {
	return scanTask(q.db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id))
}

// ListTasksByDate returns one date's tasks ordered by position.
func (q *Queries) ListTasksByDate(ctx context.Context, taskDate string) ([]Task, error) {
	return q.queryTasks(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE task_date = ? ORDER BY position", taskDate)
}

// ListTasksInRange returns tasks dated from..to inclusive ordered by date and position.
func (q *Queries) ListTasksInRange(ctx context.Context, from, to string) ([]Task, error) {
	return q.queryTasks(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE task_date BETWEEN ? AND ? ORDER BY task_date, position", from, to)
}

// CountTasksByDate returns the length of one date's list.
func (q *Queries) CountTasksByDate(ctx context.Context, taskDate string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks WHERE task_date = ?", taskDate).Scan(&n)
	return n, err
}

// UpdateTaskParams are the mutable columns of a task.
type UpdateTaskParams struct {
	ID        int64
	Content   string
	TaskDate  string
	Version   int64
	Position  int64
	UpdatedAt int64
}

// UpdateTask overwrites a task's mutable columns.
func (q *Queries) UpdateTask(ctx context.Context, arg UpdateTaskParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE tasks SET content = ?, task_date = ?, version = ?, position = ?, updated_at = ?
		 WHERE id = ?`,
		arg.Content, arg.TaskDate, arg.Version, arg.Position, arg.UpdatedAt, arg.ID,
	)
	return err
}

// ParkPositions moves every position of a date below zero so the list can
// be renumbered without tripping the (task_date, position) unique index.
func (q *Queries) ParkPositions(ctx context.Context, taskDate string) error {
	_, err := q.db.ExecContext(ctx,
		"UPDATE tasks SET position = -position - 1 WHERE task_date = ? AND position >= 0", taskDate)
	return err
}

// SetTaskPosition sets one task's position.
func (q *Queries) SetTaskPosition(ctx context.Context, id, position int64) error {
	_, err := q.db.ExecContext(ctx, "UPDATE tasks SET position = ? WHERE id = ?", position, id)
	return err
}

// DeleteTask removes a task; its personnel rows cascade.
func (q *Queries) DeleteTask(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	return err
}

// ListTaskPersonnel returns one task's names in display order.
func (q *Queries) ListTaskPersonnel(ctx context.Context, taskID int64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT name FROM task_personnel WHERE task_id = ? ORDER BY ordinal", taskID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ListTaskPersonnelInRange returns personnel rows for tasks dated from..to.
func (q *Queries) ListTaskPersonnelInRange(ctx context.Context, from, to string) ([]TaskPersonnel, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT tp.task_id, tp.ordinal, tp.name
		 FROM task_personnel tp JOIN tasks t ON t.id = tp.task_id
		 WHERE t.task_date BETWEEN ? AND ?
		 ORDER BY tp.task_id, tp.ordinal`, from, to)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []TaskPersonnel
	for rows.Next() {
		var tp TaskPersonnel
		if err := rows.Scan(&tp.TaskID, &tp.Ordinal, &tp.Name); err != nil {
			return nil, err
		}
		out = append(out, tp)
	}
	return out, rows.Err()
}

// ReplaceTaskPersonnel rewrites a task's names in the given order.
func (q *Queries) ReplaceTaskPersonnel(ctx context.Context, taskID int64, names []string) error {
	if _, err := q.db.ExecContext(ctx, "DELETE FROM task_personnel WHERE task_id = ?", taskID); err != nil {
		return fmt.Errorf("clear personnel: %w", err)
	}
	for i, name := range names {
		if _, err := q.db.ExecContext(ctx,
			"INSERT INTO task_personnel (task_id, ordinal, name) VALUES (?, ?, ?)",
			taskID, i, name,
		); err != nil {
			return fmt.Errorf("insert personnel %q: %w", name, err)
		}
	}
	return nil
}

// ListPersonnel returns the roster ordered by name.
func (q *Queries) ListPersonnel(ctx context.Context) ([]Person, error) {
	rows, err := q.db.QueryContext(ctx, "SELECT name, created_at FROM personnel ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Person
	for rows.Next() {
		var p Person
		if err := rows.Scan(&p.Name, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// InsertPerson adds a roster entry.
func (q *Queries) InsertPerson(ctx context.Context, arg Person) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO personnel (name, created_at) VALUES (?, ?)", arg.Name, arg.CreatedAt)
	return err
}

// DeletePerson removes a roster entry and returns the number of rows removed.
func (q *Queries) DeletePerson(ctx context.Context, name string) (int64, error) {
	res, err := q.db.ExecContext(ctx, "DELETE FROM personnel WHERE name = ?", name)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// InsertActivityParams are the columns of a new activity entry.
type InsertActivityParams struct {
	Action    string
	TaskID    sql.NullInt64
	Details   string
	CreatedAt int64
}

// InsertActivity appends an activity entry.
func (q *Queries) InsertActivity(ctx context.Context, arg InsertActivityParams) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO activity_log (action, task_id, details, created_at) VALUES (?, ?, ?, ?)",
		arg.Action, arg.TaskID, arg.Details, arg.CreatedAt,
	)
	return err
}

// ListActivity returns entries newest first.
func (q *Queries) ListActivity(ctx context.Context, limit, offset int64) ([]ActivityLog, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, action, task_id, details, created_at FROM activity_log
		 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []ActivityLog
	for rows.Next() {
		var a ActivityLog
		if err := rows.Scan(&a.ID, &a.Action, &a.TaskID, &a.Details, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountActivity returns the number of entries.
func (q *Queries) CountActivity(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM activity_log").Scan(&n)
	return n, err
}
