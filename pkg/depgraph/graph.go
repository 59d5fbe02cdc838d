package depgraph

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/stackplan/pkg/task"
)

var (
	// ErrInvalidTaskID is returned by [Graph.AddTask] when the id is empty.
	ErrInvalidTaskID = errors.New("task ID must not be empty")

	// ErrDuplicateTask is returned by [Graph.AddTask] when a task with the
	// same id is already present.
	ErrDuplicateTask = errors.New("duplicate task ID")

	// ErrUnknownTask is returned when either endpoint of an edge operation
	// is not in the graph. This usually means a stale id from a deleted task.
	ErrUnknownTask = errors.New("unknown task")

	// ErrSelfDependency is returned by [Graph.AddDependency] when a task is
	// proposed as its own blocker.
	ErrSelfDependency = errors.New("task cannot block itself")

	// ErrCycle is the sentinel wrapped by [*CycleError].
	ErrCycle = errors.New("dependency would create a cycle")
)

// Path is a sequence of task ids along blocked-by edges. A cycle path starts
// and ends with the same id.
type Path []string

// String renders the path as "A → B → C → A".
func (p Path) String() string { return strings.Join(p, " → ") }

// CycleError reports a refused edit together with the path it would close.
type CycleError struct {
	Path Path
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrCycle, e.Path)
}

// Unwrap allows errors.Is(err, ErrCycle).
func (e *CycleError) Unwrap() error { return ErrCycle }

// Graph is the blocked-by edge set over a task id vertex set.
//
// The zero value is not usable; use [New], [FromTasks] or [FromSnapshot].
type Graph struct {
	order    []string            // task ids in insertion order
	tasks    map[string]struct{} // vertex set
	blockers map[string][]string // taskID -> ids it is blocked by
	blocking map[string][]string // blockerID -> ids it blocks
	edges    int
}

// New creates a graph over the given task ids with no edges.
// Empty and duplicate ids are skipped.
func New(ids ...string) *Graph {
	g := &Graph{
		tasks:    make(map[string]struct{}, len(ids)),
		blockers: make(map[string][]string),
		blocking: make(map[string][]string),
	}
	for _, id := range ids {
		_ = g.AddTask(id)
	}
	return g
}

// FromTasks builds a graph from tasks and their BlockedBy lists.
// Returns ErrUnknownTask if a BlockedBy entry references a task that is not
// in the list, or ErrSelfDependency for a self loop.
func FromTasks(tasks []task.Task) (*Graph, error) {
	return FromSnapshot(task.Snapshot{Tasks: tasks})
}

// FromSnapshot builds a graph from a snapshot's tasks and merged edge set.
// The result is not checked for cycles; use [Graph.Validate] for that.
func FromSnapshot(s task.Snapshot) (*Graph, error) {
	g := New(taskIDs(s.Tasks)...)
	for _, d := range s.Edges() {
		if _, err := g.AddDependency(d.TaskID, d.BlockedByID); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// WouldCreateCycle reports whether making taskID blocked by blockerID would
// close a cycle in the graph described by tasks. Edges that reference tasks
// outside the list are ignored. See [Graph.WouldCreateCycle].
func WouldCreateCycle(taskID, blockerID string, tasks []task.Task) (Path, error) {
	g := New(taskIDs(tasks)...)
	for _, t := range tasks {
		for _, b := range t.BlockedBy {
			_, _ = g.AddDependency(t.ID, b)
		}
	}
	return g.WouldCreateCycle(taskID, blockerID)
}

func taskIDs(tasks []task.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

// AddTask adds a vertex with no edges.
func (g *Graph) AddTask(id string) error {
	if id == "" {
		return ErrInvalidTaskID
	}
	if g.Has(id) {
		return ErrDuplicateTask
	}
	g.tasks[id] = struct{}{}
	g.order = append(g.order, id)
	return nil
}

// Has reports whether the task is a vertex of the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.tasks[id]
	return ok
}

func (g *Graph) requireKnown(ids ...string) error {
	for _, id := range ids {
		if !g.Has(id) {
			return fmt.Errorf("%w: %q", ErrUnknownTask, id)
		}
	}
	return nil
}

// AddDependency inserts the edge taskID blocked-by blockerID.
//
// Callers must have checked [Graph.WouldCreateCycle] first; this method
// does not search for cycles. Inserting an existing pair is a no-op that
// returns false and no error. Unknown ids return ErrUnknownTask and a self
// loop returns ErrSelfDependency.
func (g *Graph) AddDependency(taskID, blockerID string) (bool, error) {
	if err := g.requireKnown(taskID, blockerID); err != nil {
		return false, err
	}
	if taskID == blockerID {
		return false, ErrSelfDependency
	}
	if slices.Contains(g.blockers[taskID], blockerID) {
		return false, nil
	}
	g.blockers[taskID] = append(g.blockers[taskID], blockerID)
	g.blocking[blockerID] = append(g.blocking[blockerID], taskID)
	g.edges++
	return true, nil
}

// Link checks for a cycle and inserts the edge in one call. It returns a
// *CycleError when the edge is refused.
func (g *Graph) Link(taskID, blockerID string) error {
	path, err := g.WouldCreateCycle(taskID, blockerID)
	if err != nil {
		return err
	}
	if path != nil {
		return &CycleError{Path: path}
	}
	_, err = g.AddDependency(taskID, blockerID)
	return err
}

// RemoveDependency removes the edge if present and reports whether it did.
// Removing a missing edge is a no-op.
func (g *Graph) RemoveDependency(taskID, blockerID string) bool {
	if !slices.Contains(g.blockers[taskID], blockerID) {
		return false
	}
	g.blockers[taskID] = slices.DeleteFunc(g.blockers[taskID], func(s string) bool { return s == blockerID })
	g.blocking[blockerID] = slices.DeleteFunc(g.blocking[blockerID], func(s string) bool { return s == taskID })
	g.edges--
	return true
}

// BlockersOf returns the ids taskID is directly blocked by, in insertion order.
func (g *Graph) BlockersOf(taskID string) []string { return slices.Clone(g.blockers[taskID]) }

// BlockedOf returns the ids directly blocked by taskID, in insertion order.
func (g *Graph) BlockedOf(taskID string) []string { return slices.Clone(g.blocking[taskID]) }

// Tasks returns all task ids in insertion order.
func (g *Graph) Tasks() []string { return slices.Clone(g.order) }

// TaskCount returns the number of vertices.
func (g *Graph) TaskCount() int { return len(g.order) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return g.edges }

// Edges returns a sorted copy of the edge set.
func (g *Graph) Edges() []task.Dependency {
	out := make([]task.Dependency, 0, g.edges)
	for _, id := range g.order {
		for _, b := range g.blockers[id] {
			out = append(out, task.Dependency{TaskID: id, BlockedByID: b})
		}
	}
	slices.SortFunc(out, task.CompareDependencies)
	return out
}
