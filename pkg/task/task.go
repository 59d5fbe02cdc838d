// Package task defines the planning data model shared by every stackplan
// component: tasks, blocked-by dependencies and the immutable snapshot that
// the dependency graph and the timeline layout are computed from.
//
// Dates are carried as the raw strings received from storage. They are
// parsed leniently by the timeline package, which treats an unparsable date
// as absent instead of failing the whole layout.
package task

import (
	"cmp"
	"slices"
)

// Status is the workflow state of a task.
type Status string

const (
	StatusBacklog    Status = "backlog"
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
	StatusBlocked    Status = "blocked"
)

// Statuses lists every valid status in workflow order.
var Statuses = []Status{StatusBacklog, StatusTodo, StatusInProgress, StatusReview, StatusDone, StatusBlocked}

// IsDone reports whether the task is complete. Connectors leaving a done
// blocker are drawn as complete.
func (s Status) IsDone() bool { return s == StatusDone }

// Priority is an optional urgency marker.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists every valid priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Task is a unit of planned work.
type Task struct {
	ID             string   `json:"id" yaml:"id" bson:"_id"`
	Title          string   `json:"title" yaml:"title" bson:"title"`
	Status         Status   `json:"status,omitempty" yaml:"status,omitempty" bson:"status,omitempty"`
	Priority       Priority `json:"priority,omitempty" yaml:"priority,omitempty" bson:"priority,omitempty"`
	StartDate      string   `json:"start_date,omitempty" yaml:"start_date,omitempty" bson:"start_date,omitempty"`
	DueDate        string   `json:"due_date,omitempty" yaml:"due_date,omitempty" bson:"due_date,omitempty"`
	EstimatedHours *float64 `json:"estimated_hours,omitempty" yaml:"estimated_hours,omitempty" bson:"estimated_hours,omitempty"`
	OwnerID        string   `json:"owner_id,omitempty" yaml:"owner_id,omitempty" bson:"owner_id,omitempty"`
	ProjectID      string   `json:"project_id,omitempty" yaml:"project_id,omitempty" bson:"project_id,omitempty"`
	Position       int      `json:"position" yaml:"position" bson:"position"`

	// BlockedBy lists ids of tasks this task waits on. It is an alternative
	// to the snapshot's Dependencies list; both are merged by Snapshot.Edges.
	BlockedBy []string `json:"blocked_by,omitempty" yaml:"blocked_by,omitempty" bson:"blocked_by,omitempty"`
}

// IsDone reports whether the task's status is done.
func (t Task) IsDone() bool { return t.Status.IsDone() }

// HasDates reports whether at least one of the raw date fields is set.
// It does not check that the value parses.
func (t Task) HasDates() bool { return t.StartDate != "" || t.DueDate != "" }

// Dependency is a blocked-by edge: TaskID cannot complete before BlockedByID.
type Dependency struct {
	TaskID      string `json:"task_id" yaml:"task_id" bson:"task_id"`
	BlockedByID string `json:"blocked_by_id" yaml:"blocked_by_id" bson:"blocked_by_id"`
}

// CompareDependencies orders dependencies by task id, then blocker id.
// It is a comparison function for slices.SortFunc.
func CompareDependencies(a, b Dependency) int {
	if c := cmp.Compare(a.TaskID, b.TaskID); c != 0 {
		return c
	}
	return cmp.Compare(a.BlockedByID, b.BlockedByID)
}

// Snapshot is the full task set and edge set for one invocation. It is
// treated as immutable once built.
type Snapshot struct {
	Tasks        []Task       `json:"tasks" yaml:"tasks"`
	Dependencies []Dependency `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// Edges returns the union of the explicit dependency list and every task's
// BlockedBy field, deduplicated and sorted.
func (s Snapshot) Edges() []Dependency {
	seen := make(map[Dependency]struct{}, len(s.Dependencies))
	var out []Dependency
	add := func(d Dependency) {
		if _, ok := seen[d]; ok {
			return
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	for _, d := range s.Dependencies {
		add(d)
	}
	for _, t := range s.Tasks {
		for _, b := range t.BlockedBy {
			add(Dependency{TaskID: t.ID, BlockedByID: b})
		}
	}
	slices.SortFunc(out, CompareDependencies)
	return out
}

// Task returns the task with the given id.
func (s Snapshot) Task(id string) (Task, bool) {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// Index maps task ids to their position in Tasks.
func (s Snapshot) Index() map[string]int {
	m := make(map[string]int, len(s.Tasks))
	for i, t := range s.Tasks {
		m[t.ID] = i
	}
	return m
}

// ForProject returns the tasks of one project and the edges among them.
// An empty projectID returns the snapshot unchanged.
func (s Snapshot) ForProject(projectID string) Snapshot {
	if projectID == "" {
		return s
	}
	var out Snapshot
	keep := make(map[string]bool)
	for _, t := range s.Tasks {
		if t.ProjectID == projectID {
			out.Tasks = append(out.Tasks, t)
			keep[t.ID] = true
		}
	}
	for _, d := range s.Dependencies {
		if keep[d.TaskID] && keep[d.BlockedByID] {
			out.Dependencies = append(out.Dependencies, d)
		}
	}
	return out
}

// Normalize folds every task's BlockedBy into Dependencies and clears the
// per-task lists, so that stores only ever persist one edge representation.
func (s Snapshot) Normalize() Snapshot {
	out := Snapshot{
		Tasks:        make([]Task, len(s.Tasks)),
		Dependencies: s.Edges(),
	}
	for i, t := range s.Tasks {
		t.BlockedBy = nil
		out.Tasks[i] = t
	}
	return out
}
