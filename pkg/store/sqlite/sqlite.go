// Package sqlite implements store.Store on a single SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/matzehuels/stackplan/pkg/store"
	"github.com/matzehuels/stackplan/pkg/task"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS tasks (
	id              TEXT PRIMARY KEY,
	title           TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT '',
	priority        TEXT NOT NULL DEFAULT '',
	start_date      TEXT NOT NULL DEFAULT '',
	due_date        TEXT NOT NULL DEFAULT '',
	estimated_hours REAL,
	owner_id        TEXT NOT NULL DEFAULT '',
	project_id      TEXT NOT NULL DEFAULT '',
	position        INTEGER NOT NULL DEFAULT 0,
	updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS dependencies (
	task_id       TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	blocked_by_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	UNIQUE(task_id, blocked_by_id)
);

CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id, position, id);
CREATE INDEX IF NOT EXISTS idx_dependencies_blocker ON dependencies(blocked_by_id);
`

// Store wraps a sql.DB holding the task tables.
type Store struct {
	conn *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) the database file and applies the schema.
// Foreign keys are switched on so deleting a task removes its edges.
func Open(ctx context.Context, path string) (*Store, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	conn, err := sql.Open("sqlite3", path+sep+"_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open db: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if _, err := conn.ExecContext(ctx, schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

const taskColumns = `id, title, status, priority, start_date, due_date, estimated_hours, owner_id, project_id, position`

func (s *Store) ListTasks(ctx context.Context, projectID string) ([]task.Task, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE ?1 = '' OR project_id = ?1
		 ORDER BY position, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		var (
			t                task.Task
			status, priority string
			hours            sql.NullFloat64
		)
		if err := rows.Scan(&t.ID, &t.Title, &status, &priority, &t.StartDate, &t.DueDate,
			&hours, &t.OwnerID, &t.ProjectID, &t.Position); err != nil {
			return nil, fmt.Errorf("sqlite: scan task: %w", err)
		}
		t.Status = task.Status(status)
		t.Priority = task.Priority(priority)
		if hours.Valid {
			t.EstimatedHours = &hours.Float64
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *Store) ListDependencies(ctx context.Context, projectID string) ([]task.Dependency, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT d.task_id, d.blocked_by_id FROM dependencies d
		 JOIN tasks t ON t.id = d.task_id
		 JOIN tasks b ON b.id = d.blocked_by_id
		 WHERE ?1 = '' OR (t.project_id = ?1 AND b.project_id = ?1)
		 ORDER BY d.task_id, d.blocked_by_id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list dependencies: %w", err)
	}
	defer rows.Close()

	deps := []task.Dependency{}
	for rows.Next() {
		var d task.Dependency
		if err := rows.Scan(&d.TaskID, &d.BlockedByID); err != nil {
			return nil, fmt.Errorf("sqlite: scan dependency: %w", err)
		}
		deps = append(deps, d)
	}
	return deps, rows.Err()
}

func (s *Store) UpsertTask(ctx context.Context, t task.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	var hours sql.NullFloat64
	if t.EstimatedHours != nil {
		hours = sql.NullFloat64{Float64: *t.EstimatedHours, Valid: true}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title, status = excluded.status, priority = excluded.priority,
		   start_date = excluded.start_date, due_date = excluded.due_date,
		   estimated_hours = excluded.estimated_hours, owner_id = excluded.owner_id,
		   project_id = excluded.project_id, position = excluded.position,
		   updated_at = excluded.updated_at`,
		t.ID, t.Title, string(t.Status), string(t.Priority), t.StartDate, t.DueDate,
		hours, t.OwnerID, t.ProjectID, t.Position)
	if err != nil {
		return fmt.Errorf("sqlite: upsert task %s: %w", t.ID, err)
	}
	for _, b := range t.BlockedBy {
		if err := addDependency(ctx, tx, task.Dependency{TaskID: t.ID, BlockedByID: b}); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete task %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) AddDependency(ctx context.Context, d task.Dependency) error {
	if d.TaskID == d.BlockedByID {
		return store.ErrSelfDependency
	}
	return addDependency(ctx, s.conn, d)
}

func (s *Store) RemoveDependency(ctx context.Context, taskID, blockedByID string) error {
	_, err := s.conn.ExecContext(ctx,
		`DELETE FROM dependencies WHERE task_id = ? AND blocked_by_id = ?`, taskID, blockedByID)
	if err != nil {
		return fmt.Errorf("sqlite: remove dependency: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func addDependency(ctx context.Context, db execer, d task.Dependency) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO dependencies (task_id, blocked_by_id) VALUES (?, ?)
		 ON CONFLICT DO NOTHING`, d.TaskID, d.BlockedByID)
	if isForeignKey(err) {
		return fmt.Errorf("%w: %s -> %s", store.ErrNotFound, d.TaskID, d.BlockedByID)
	}
	if err != nil {
		return fmt.Errorf("sqlite: add dependency: %w", err)
	}
	return nil
}

func isForeignKey(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintForeignKey
}
