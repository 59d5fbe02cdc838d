// Package service wires a task store to the planning cores.
//
// Every call works on a fresh snapshot read from the store. Dependency
// edits rebuild the graph from that snapshot, run the cycle pre-check in
// memory and only then write the edge back. A failed write is not rolled
// back in memory: the next call re-reads the store, so the in-memory graph
// never outlives a single request.
package service

import (
	"context"
	stderrors "errors"
	"slices"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/stackplan/pkg/depgraph"
	"github.com/matzehuels/stackplan/pkg/errors"
	"github.com/matzehuels/stackplan/pkg/observability"
	"github.com/matzehuels/stackplan/pkg/pipeline"
	"github.com/matzehuels/stackplan/pkg/store"
	"github.com/matzehuels/stackplan/pkg/task"
)

// Service serves dependency edits and timelines for one store.
type Service struct {
	store  store.Store
	runner *pipeline.Runner
	logger *log.Logger
}

// New creates a service. A nil runner gets an uncached one and a nil
// logger the default logger.
func New(s store.Store, runner *pipeline.Runner, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	return &Service{store: s, runner: runner, logger: logger}
}

// Store returns the underlying store.
func (s *Service) Store() store.Store { return s.store }

// Snapshot reads the tasks and edges of a project concurrently.
func (s *Service) Snapshot(ctx context.Context, projectID string) (task.Snapshot, error) {
	var snap task.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tasks, err := s.store.ListTasks(gctx, projectID)
		snap.Tasks = tasks
		return err
	})
	g.Go(func() error {
		deps, err := s.store.ListDependencies(gctx, projectID)
		snap.Dependencies = deps
		return err
	})
	if err := g.Wait(); err != nil {
		return task.Snapshot{}, errors.Wrap(errors.ErrCodeStorage, err, "load project %q", projectID)
	}
	return snap, nil
}

// graph loads a snapshot and builds its dependency graph.
func (s *Service) graph(ctx context.Context, projectID string) (task.Snapshot, *depgraph.Graph, error) {
	snap, err := s.Snapshot(ctx, projectID)
	if err != nil {
		return task.Snapshot{}, nil, err
	}
	g, err := depgraph.FromSnapshot(snap)
	if err != nil {
		return task.Snapshot{}, nil, errors.Wrap(errors.ErrCodeInternal, err, "inconsistent edges in project %q", projectID)
	}
	return snap, g, nil
}

// CheckDependency reports whether making taskID blocked by blockerID would
// close a cycle. It returns nil when the edge is safe and the cycle path
// otherwise. Nothing is written.
func (s *Service) CheckDependency(ctx context.Context, projectID, taskID, blockerID string) (depgraph.Path, error) {
	_, g, err := s.graph(ctx, projectID)
	if err != nil {
		return nil, err
	}
	path, err := g.WouldCreateCycle(taskID, blockerID)
	if err != nil {
		return nil, graphError(err)
	}
	return path, nil
}

// AddDependency makes taskID blocked by blockerID and reports whether a new
// edge was stored. Adding an existing edge returns false and no error.
//
// A refused edge returns an error with code CYCLE_REJECTED, or
// SELF_DEPENDENCY for a self reference; both wrap a *depgraph.CycleError
// carrying the path. Ids missing from the project return UNKNOWN_TASK.
func (s *Service) AddDependency(ctx context.Context, projectID, taskID, blockerID string) (bool, error) {
	_, g, err := s.graph(ctx, projectID)
	if err != nil {
		return false, err
	}

	path, err := g.WouldCreateCycle(taskID, blockerID)
	if err != nil {
		return false, graphError(err)
	}
	if path != nil {
		observability.Graph().OnCycleRejected(ctx, projectID, path)
		s.logger.Warn("rejected dependency", "task", taskID, "blocked_by", blockerID, "path", path.String())
		cycle := &depgraph.CycleError{Path: path}
		if taskID == blockerID {
			return false, errors.Wrap(errors.ErrCodeSelfDependency, cycle, "task %s cannot block itself", taskID)
		}
		return false, errors.Wrap(errors.ErrCodeCycleRejected, cycle, "%s would close the cycle %s", blockerID, path)
	}

	added, err := g.AddDependency(taskID, blockerID)
	if err != nil {
		return false, graphError(err)
	}
	if !added {
		return false, nil
	}

	if err := s.store.AddDependency(ctx, task.Dependency{TaskID: taskID, BlockedByID: blockerID}); err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return false, errors.Wrap(errors.ErrCodeUnknownTask, err, "task was deleted concurrently")
		}
		return false, errors.Wrap(errors.ErrCodeStorage, err, "persist dependency %s -> %s", taskID, blockerID)
	}

	observability.Graph().OnDependencyAdded(ctx, projectID, taskID, blockerID)
	s.logger.Info("added dependency", "task", taskID, "blocked_by", blockerID)
	return true, nil
}

// RemoveDependency deletes the edge if present. Removing a missing edge is
// a no-op.
func (s *Service) RemoveDependency(ctx context.Context, projectID, taskID, blockerID string) error {
	_, g, err := s.graph(ctx, projectID)
	if err != nil {
		return err
	}
	if !g.RemoveDependency(taskID, blockerID) {
		return nil
	}
	if err := s.store.RemoveDependency(ctx, taskID, blockerID); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "remove dependency %s -> %s", taskID, blockerID)
	}
	observability.Graph().OnDependencyRemoved(ctx, projectID, taskID, blockerID)
	s.logger.Info("removed dependency", "task", taskID, "blocked_by", blockerID)
	return nil
}

// Badges summarizes the direct dependencies of one task.
type Badges struct {
	TaskID    string   `json:"task_id"`
	BlockedBy []string `json:"blocked_by"`
	Blocking  []string `json:"blocking"`
	// OpenBlockers counts blockers that are not done yet.
	OpenBlockers int `json:"open_blockers"`
}

// IsBlocked reports whether any blocker is still open.
func (b Badges) IsBlocked() bool { return b.OpenBlockers > 0 }

// Badges returns the blockers and dependents of a task.
func (s *Service) Badges(ctx context.Context, projectID, taskID string) (Badges, error) {
	snap, g, err := s.graph(ctx, projectID)
	if err != nil {
		return Badges{}, err
	}
	if !g.Has(taskID) {
		return Badges{}, errors.New(errors.ErrCodeUnknownTask, "unknown task %q", taskID)
	}
	b := Badges{
		TaskID:    taskID,
		BlockedBy: g.BlockersOf(taskID),
		Blocking:  g.BlockedOf(taskID),
	}
	slices.Sort(b.BlockedBy)
	slices.Sort(b.Blocking)
	for _, id := range b.BlockedBy {
		if t, ok := snap.Task(id); ok && !t.IsDone() {
			b.OpenBlockers++
		}
	}
	return b, nil
}

// Timeline lays out and renders a project's plan.
func (s *Service) Timeline(ctx context.Context, projectID string, opts pipeline.Options) (*pipeline.Result, error) {
	snap, err := s.Snapshot(ctx, projectID)
	if err != nil {
		return nil, err
	}
	opts.ProjectID = projectID
	return s.runner.ForProject(projectID).Execute(ctx, snap, opts)
}

// graphError maps depgraph sentinels to coded errors.
func graphError(err error) error {
	switch {
	case stderrors.Is(err, depgraph.ErrUnknownTask):
		return errors.New(errors.ErrCodeUnknownTask, "%v", err)
	case stderrors.Is(err, depgraph.ErrSelfDependency):
		return errors.New(errors.ErrCodeSelfDependency, "%v", err)
	}
	return errors.Wrap(errors.ErrCodeInternal, err, "dependency graph")
}
