// Package store persists tasks and blocked-by dependencies.
//
// A Store is the persistence collaborator of the planning cores: the
// service layer reads a snapshot from it, runs the cycle pre-check in
// memory and writes the accepted edge back. Single edits are not checked
// for cycles by stores; self loops are refused, and [Seed] refuses a
// cyclic snapshot as a whole.
//
// # Backends
//
//   - [MemoryStore]: process-local, used by tests and the demo server
//   - [FileStore]: a JSON or YAML dataset on disk, used by the CLI
//   - store/sqlite: a single-file database
//   - store/postgres: a shared database with versioned migrations
//   - store/mongo: tasks and dependencies as two collections
//
// # Semantics
//
// Every backend lists tasks ordered by position then id and dependencies
// ordered by task id then blocker id. An empty project id lists everything;
// otherwise only the project's tasks and the edges between them are
// returned. DeleteTask removes the task's edges in both directions.
// AddDependency and RemoveDependency are idempotent.
package store

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	pkgio "github.com/matzehuels/stackplan/pkg/io"
	"github.com/matzehuels/stackplan/pkg/task"
)

var (
	// ErrNotFound is returned when a task does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSelfDependency is returned for an edge from a task to itself.
	ErrSelfDependency = errors.New("task cannot block itself")
)

// Store is the task persistence interface.
type Store interface {
	// ListTasks returns the tasks of a project, or all tasks when
	// projectID is empty.
	ListTasks(ctx context.Context, projectID string) ([]task.Task, error)

	// ListDependencies returns the edges whose endpoints both belong to the
	// project, or all edges when projectID is empty.
	ListDependencies(ctx context.Context, projectID string) ([]task.Dependency, error)

	// UpsertTask creates or replaces a task. Entries in BlockedBy are
	// stored as dependencies.
	UpsertTask(ctx context.Context, t task.Task) error

	// DeleteTask removes a task and every edge touching it.
	DeleteTask(ctx context.Context, id string) error

	// AddDependency stores an edge. Storing an existing edge is a no-op.
	// ErrNotFound is returned when either endpoint is missing.
	AddDependency(ctx context.Context, d task.Dependency) error

	// RemoveDependency deletes an edge. Removing a missing edge is a no-op.
	RemoveDependency(ctx context.Context, taskID, blockedByID string) error

	// Close releases the backend's resources.
	Close() error
}

// Load reads a full snapshot from s.
func Load(ctx context.Context, s Store, projectID string) (task.Snapshot, error) {
	tasks, err := s.ListTasks(ctx, projectID)
	if err != nil {
		return task.Snapshot{}, err
	}
	deps, err := s.ListDependencies(ctx, projectID)
	if err != nil {
		return task.Snapshot{}, err
	}
	return task.Snapshot{Tasks: tasks, Dependencies: deps}, nil
}

// Seed writes every task and edge of a snapshot into s. A snapshot whose
// edges form a cycle is refused before anything is written.
func Seed(ctx context.Context, s Store, snap task.Snapshot) error {
	snap = snap.Normalize()
	if err := pkgio.Acyclic(snap); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	for _, t := range snap.Tasks {
		if err := s.UpsertTask(ctx, t); err != nil {
			return fmt.Errorf("seed task %s: %w", t.ID, err)
		}
	}
	for _, d := range snap.Dependencies {
		if err := s.AddDependency(ctx, d); err != nil {
			return fmt.Errorf("seed dependency %s -> %s: %w", d.TaskID, d.BlockedByID, err)
		}
	}
	return nil
}

func compareTasks(a, b task.Task) int {
	if c := cmp.Compare(a.Position, b.Position); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func sortTasks(tasks []task.Task) { slices.SortFunc(tasks, compareTasks) }

func sortDependencies(deps []task.Dependency) { slices.SortFunc(deps, task.CompareDependencies) }

// blockedBy converts a task's BlockedBy list into edges.
func blockedBy(t task.Task) []task.Dependency {
	out := make([]task.Dependency, 0, len(t.BlockedBy))
	for _, b := range t.BlockedBy {
		out = append(out, task.Dependency{TaskID: t.ID, BlockedByID: b})
	}
	return out
}
