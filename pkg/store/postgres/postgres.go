// Package postgres implements store.Store backed by PostgreSQL.
//
// The schema is versioned with golang-migrate; pending migrations run when
// the store is opened. Deleting a task cascades to its dependency rows.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"

	"github.com/matzehuels/stackplan/pkg/store"
	"github.com/matzehuels/stackplan/pkg/task"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements store.Store backed by a PostgreSQL database.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open connects to the database at databaseURL, configures the connection
// pool and runs pending migrations.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return New(db), nil
}

// New wraps an open database whose schema is already migrated.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListTasks(ctx context.Context, projectID string) (tasks []task.Task, err error) {
	err = retry(ctx, func() error {
		tasks, err = queryListTasks(ctx, s.db, projectID)
		return err
	})
	return tasks, err
}

func (s *Store) ListDependencies(ctx context.Context, projectID string) (deps []task.Dependency, err error) {
	err = retry(ctx, func() error {
		deps, err = queryListDependencies(ctx, s.db, projectID)
		return err
	})
	return deps, err
}

func (s *Store) UpsertTask(ctx context.Context, t task.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return retry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if err := queryUpsertTask(ctx, tx, t); err != nil {
			return err
		}
		for _, b := range t.BlockedBy {
			if err := queryAddDependency(ctx, tx, task.Dependency{TaskID: t.ID, BlockedByID: b}); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return retry(ctx, func() error { return queryDeleteTask(ctx, s.db, id) })
}

func (s *Store) AddDependency(ctx context.Context, d task.Dependency) error {
	if d.TaskID == d.BlockedByID {
		return store.ErrSelfDependency
	}
	return retry(ctx, func() error { return queryAddDependency(ctx, s.db, d) })
}

func (s *Store) RemoveDependency(ctx context.Context, taskID, blockedByID string) error {
	return retry(ctx, func() error { return queryRemoveDependency(ctx, s.db, taskID, blockedByID) })
}

// retry runs fn with backoff, retrying connection-level failures.
func retry(ctx context.Context, fn func() error) error {
	return store.RetryWithBackoff(ctx, func() error { return classify(fn()) })
}

// classify maps driver errors onto store errors. Foreign key violations
// mean an endpoint is missing; connection and serialization failures are
// marked retryable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, driver.ErrBadConn) {
		return store.Retryable(err)
	}
	var pe *pq.Error
	if errors.As(err, &pe) {
		switch {
		case pe.Code == "23503":
			return fmt.Errorf("%w: %s", store.ErrNotFound, pe.Detail)
		case pe.Code.Class() == "08", pe.Code == "40001", pe.Code == "40P01":
			return store.Retryable(err)
		}
	}
	return err
}
