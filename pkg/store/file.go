package store

import (
	"context"
	"errors"
	"io/fs"
	"sync"

	pkgio "github.com/matzehuels/stackplan/pkg/io"
	"github.com/matzehuels/stackplan/pkg/task"
)

// FileStore keeps a dataset file in memory and rewrites it after every
// change. It is meant for the CLI, where one process owns the file.
type FileStore struct {
	path string
	mem  *MemoryStore
	mu   sync.Mutex // serializes write-backs
}

// OpenFileStore loads path, or starts empty when the file does not exist
// yet. The format follows the extension (.json, .yaml, .yml).
func OpenFileStore(path string) (*FileStore, error) {
	if _, err := pkgio.FormatOf(path); err != nil {
		return nil, err
	}
	snap, err := pkgio.ImportFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	mem, err := NewMemoryStoreFrom(snap)
	if err != nil {
		return nil, err
	}
	return &FileStore{path: path, mem: mem}, nil
}

// Path returns the dataset file.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) ListTasks(ctx context.Context, projectID string) ([]task.Task, error) {
	return s.mem.ListTasks(ctx, projectID)
}

func (s *FileStore) ListDependencies(ctx context.Context, projectID string) ([]task.Dependency, error) {
	return s.mem.ListDependencies(ctx, projectID)
}

func (s *FileStore) UpsertTask(ctx context.Context, t task.Task) error {
	return s.write(s.mem.UpsertTask(ctx, t))
}

func (s *FileStore) DeleteTask(ctx context.Context, id string) error {
	return s.write(s.mem.DeleteTask(ctx, id))
}

func (s *FileStore) AddDependency(ctx context.Context, d task.Dependency) error {
	return s.write(s.mem.AddDependency(ctx, d))
}

func (s *FileStore) RemoveDependency(ctx context.Context, taskID, blockedByID string) error {
	return s.write(s.mem.RemoveDependency(ctx, taskID, blockedByID))
}

// write persists the current contents unless the preceding change failed.
func (s *FileStore) write(err error) error {
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return pkgio.ExportFile(s.mem.Snapshot(), s.path)
}

func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
