package store

import (
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/stackplan/pkg/task"
)

// MemoryStore keeps tasks in process memory. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]task.Task
	deps  map[task.Dependency]struct{}
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks: make(map[string]task.Task),
		deps:  make(map[task.Dependency]struct{}),
	}
}

// NewMemoryStoreFrom returns a store seeded with a snapshot.
func NewMemoryStoreFrom(snap task.Snapshot) (*MemoryStore, error) {
	s := NewMemoryStore()
	if err := Seed(context.Background(), s, snap); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MemoryStore) ListTasks(_ context.Context, projectID string) ([]task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if projectID == "" || t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	sortTasks(out)
	return out, nil
}

func (s *MemoryStore) ListDependencies(_ context.Context, projectID string) ([]task.Dependency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]task.Dependency, 0, len(s.deps))
	for d := range s.deps {
		if projectID == "" || (s.tasks[d.TaskID].ProjectID == projectID && s.tasks[d.BlockedByID].ProjectID == projectID) {
			out = append(out, d)
		}
	}
	sortDependencies(out)
	return out, nil
}

func (s *MemoryStore) UpsertTask(_ context.Context, t task.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	edges := blockedBy(t)
	for _, d := range edges {
		if _, ok := s.tasks[d.BlockedByID]; !ok {
			return ErrNotFound
		}
	}
	t.BlockedBy = nil
	s.tasks[t.ID] = t
	for _, d := range edges {
		s.deps[d] = struct{}{}
	}
	return nil
}

func (s *MemoryStore) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(s.tasks, id)
	for d := range s.deps {
		if d.TaskID == id || d.BlockedByID == id {
			delete(s.deps, d)
		}
	}
	return nil
}

func (s *MemoryStore) AddDependency(_ context.Context, d task.Dependency) error {
	if d.TaskID == d.BlockedByID {
		return ErrSelfDependency
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[d.TaskID]; !ok {
		return ErrNotFound
	}
	if _, ok := s.tasks[d.BlockedByID]; !ok {
		return ErrNotFound
	}
	s.deps[d] = struct{}{}
	return nil
}

func (s *MemoryStore) RemoveDependency(_ context.Context, taskID, blockedByID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deps, task.Dependency{TaskID: taskID, BlockedByID: blockedByID})
	return nil
}

// Snapshot returns the full store contents.
func (s *MemoryStore) Snapshot() task.Snapshot {
	tasks, _ := s.ListTasks(context.Background(), "")
	deps, _ := s.ListDependencies(context.Background(), "")
	return task.Snapshot{Tasks: slices.Clip(tasks), Dependencies: deps}
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
