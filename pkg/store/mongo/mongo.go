// Package mongo implements store.Store on MongoDB.
//
// Tasks live in the "tasks" collection keyed by task id. Each dependency
// is one document in "dependencies" whose _id joins both endpoints, so
// inserting an edge twice replaces the same document.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/stackplan/pkg/store"
	"github.com/matzehuels/stackplan/pkg/task"
)

// Collection names.
const (
	TasksCollection        = "tasks"
	DependenciesCollection = "dependencies"
)

// Store implements store.Store on a MongoDB database.
type Store struct {
	client *mongo.Client
	tasks  *mongo.Collection
	deps   *mongo.Collection
}

var _ store.Store = (*Store)(nil)

type dependencyDoc struct {
	ID          string `bson:"_id"`
	TaskID      string `bson:"task_id"`
	BlockedByID string `bson:"blocked_by_id"`
}

func depID(taskID, blockedByID string) string { return taskID + "|" + blockedByID }

// Open connects to uri, verifies the connection and ensures indexes.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client: client,
		tasks:  db.Collection(TasksCollection),
		deps:   db.Collection(DependenciesCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.tasks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "position", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("mongo: create task index: %w", err)
	}
	_, err = s.deps.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "task_id", Value: 1}}},
		{Keys: bson.D{{Key: "blocked_by_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo: create dependency indexes: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

func projectFilter(projectID string) bson.M {
	if projectID == "" {
		return bson.M{}
	}
	return bson.M{"project_id": projectID}
}

func (s *Store) ListTasks(ctx context.Context, projectID string) ([]task.Task, error) {
	var tasks []task.Task
	err := retry(ctx, func() error {
		opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}, {Key: "_id", Value: 1}})
		cur, err := s.tasks.Find(ctx, projectFilter(projectID), opts)
		if err != nil {
			return err
		}
		tasks = []task.Task{}
		return cur.All(ctx, &tasks)
	})
	if err != nil {
		return nil, fmt.Errorf("mongo: list tasks: %w", err)
	}
	return tasks, nil
}

func (s *Store) ListDependencies(ctx context.Context, projectID string) ([]task.Dependency, error) {
	filter := bson.M{}
	if projectID != "" {
		ids, err := s.taskIDs(ctx, projectID)
		if err != nil {
			return nil, err
		}
		filter = bson.M{"task_id": bson.M{"$in": ids}, "blocked_by_id": bson.M{"$in": ids}}
	}

	var docs []dependencyDoc
	err := retry(ctx, func() error {
		opts := options.Find().SetSort(bson.D{{Key: "task_id", Value: 1}, {Key: "blocked_by_id", Value: 1}})
		cur, err := s.deps.Find(ctx, filter, opts)
		if err != nil {
			return err
		}
		docs = nil
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, fmt.Errorf("mongo: list dependencies: %w", err)
	}

	deps := make([]task.Dependency, len(docs))
	for i, d := range docs {
		deps[i] = task.Dependency{TaskID: d.TaskID, BlockedByID: d.BlockedByID}
	}
	return deps, nil
}

func (s *Store) taskIDs(ctx context.Context, projectID string) ([]string, error) {
	vals, err := s.tasks.Distinct(ctx, "_id", projectFilter(projectID))
	if err != nil {
		return nil, fmt.Errorf("mongo: list task ids: %w", err)
	}
	ids := make([]string, 0, len(vals))
	for _, v := range vals {
		if id, ok := v.(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *Store) UpsertTask(ctx context.Context, t task.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	edges := t.BlockedBy
	t.BlockedBy = nil

	_, err := s.tasks.ReplaceOne(ctx, bson.M{"_id": t.ID}, t, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo: upsert task %s: %w", t.ID, err)
	}
	for _, b := range edges {
		if err := s.AddDependency(ctx, task.Dependency{TaskID: t.ID, BlockedByID: b}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.tasks.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongo: delete task %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	_, err = s.deps.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"task_id": id},
		bson.M{"blocked_by_id": id},
	}})
	if err != nil {
		return fmt.Errorf("mongo: delete edges of %s: %w", id, err)
	}
	return nil
}

func (s *Store) AddDependency(ctx context.Context, d task.Dependency) error {
	if d.TaskID == d.BlockedByID {
		return store.ErrSelfDependency
	}
	n, err := s.tasks.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": bson.A{d.TaskID, d.BlockedByID}}})
	if err != nil {
		return fmt.Errorf("mongo: check endpoints: %w", err)
	}
	if n != 2 {
		return fmt.Errorf("%w: %s -> %s", store.ErrNotFound, d.TaskID, d.BlockedByID)
	}

	doc := dependencyDoc{ID: depID(d.TaskID, d.BlockedByID), TaskID: d.TaskID, BlockedByID: d.BlockedByID}
	_, err = s.deps.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo: add dependency: %w", err)
	}
	return nil
}

func (s *Store) RemoveDependency(ctx context.Context, taskID, blockedByID string) error {
	_, err := s.deps.DeleteOne(ctx, bson.M{"_id": depID(taskID, blockedByID)})
	if err != nil {
		return fmt.Errorf("mongo: remove dependency: %w", err)
	}
	return nil
}

// retry runs fn with backoff, retrying network errors and timeouts.
func retry(ctx context.Context, fn func() error) error {
	return store.RetryWithBackoff(ctx, func() error {
		err := fn()
		if err != nil && (mongo.IsNetworkError(err) || mongo.IsTimeout(err)) && !errors.Is(err, context.Canceled) {
			return store.Retryable(err)
		}
		return err
	})
}
