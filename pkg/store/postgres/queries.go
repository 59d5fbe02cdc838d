package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/matzehuels/stackplan/pkg/store"
	"github.com/matzehuels/stackplan/pkg/task"
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const taskColumns = `id, title, status, priority, start_date, due_date, estimated_hours, owner_id, project_id, position`

func queryListTasks(ctx context.Context, db executor, projectID string) ([]task.Task, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE $1::text = '' OR project_id = $1
		 ORDER BY position, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func queryListDependencies(ctx context.Context, db executor, projectID string) ([]task.Dependency, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT d.task_id, d.blocked_by_id FROM dependencies d
		 JOIN tasks t ON t.id = d.task_id
		 JOIN tasks b ON b.id = d.blocked_by_id
		 WHERE $1::text = '' OR (t.project_id = $1 AND b.project_id = $1)
		 ORDER BY d.task_id, d.blocked_by_id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list dependencies: %w", err)
	}
	defer rows.Close()

	deps := []task.Dependency{}
	for rows.Next() {
		var d task.Dependency
		if err := rows.Scan(&d.TaskID, &d.BlockedByID); err != nil {
			return nil, fmt.Errorf("scan dependency: %w", err)
		}
		deps = append(deps, d)
	}
	return deps, rows.Err()
}

func queryUpsertTask(ctx context.Context, db executor, t task.Task) error {
	var hours sql.NullFloat64
	if t.EstimatedHours != nil {
		hours = sql.NullFloat64{Float64: *t.EstimatedHours, Valid: true}
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
		   title = EXCLUDED.title, status = EXCLUDED.status, priority = EXCLUDED.priority,
		   start_date = EXCLUDED.start_date, due_date = EXCLUDED.due_date,
		   estimated_hours = EXCLUDED.estimated_hours, owner_id = EXCLUDED.owner_id,
		   project_id = EXCLUDED.project_id, position = EXCLUDED.position, updated_at = now()`,
		t.ID, t.Title, string(t.Status), string(t.Priority), t.StartDate, t.DueDate,
		hours, t.OwnerID, t.ProjectID, t.Position)
	return err
}

func queryDeleteTask(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
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

func queryAddDependency(ctx context.Context, db executor, d task.Dependency) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO dependencies (task_id, blocked_by_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		d.TaskID, d.BlockedByID)
	return err
}

func queryRemoveDependency(ctx context.Context, db executor, taskID, blockedByID string) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM dependencies WHERE task_id = $1 AND blocked_by_id = $2`,
		taskID, blockedByID)
	return err
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (task.Task, error) {
	var (
		t                task.Task
		status, priority string
		hours            sql.NullFloat64
	)
	err := row.Scan(&t.ID, &t.Title, &status, &priority, &t.StartDate, &t.DueDate,
		&hours, &t.OwnerID, &t.ProjectID, &t.Position)
	if err != nil {
		return task.Task{}, fmt.Errorf("scan task: %w", err)
	}
	t.Status = task.Status(status)
	t.Priority = task.Priority(priority)
	if hours.Valid {
		t.EstimatedHours = &hours.Float64
	}
	return t, nil
}
