package task

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Validate checks the structural fields of a task. Dates are not checked:
// a malformed date is a layout concern, not a data error.
func (t *Task) Validate() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.ID, validation.Required, validation.Length(1, 128)),
		validation.Field(&t.Title, validation.Length(0, 512)),
		validation.Field(&t.Status, validation.In(toAny(Statuses)...)),
		validation.Field(&t.Priority, validation.In(toAny(Priorities)...)),
		validation.Field(&t.EstimatedHours, validation.Min(0.0)),
		validation.Field(&t.Position, validation.Min(0)),
		validation.Field(&t.BlockedBy, validation.Each(validation.NotIn(t.ID).Error("task cannot block itself"))),
	)
}

// Validate checks the snapshot for structural integrity:
//   - every task is valid and ids are unique
//   - every edge references known tasks
//   - no edge is a self loop
//
// Acyclicity is not checked here; see depgraph.Graph.Validate.
func (s *Snapshot) Validate() error {
	ids := make(map[string]bool, len(s.Tasks))
	for i := range s.Tasks {
		t := &s.Tasks[i]
		if err := t.Validate(); err != nil {
			return fmt.Errorf("tasks[%d]: %w", i, err)
		}
		if ids[t.ID] {
			return fmt.Errorf("tasks[%d]: duplicate task id %q", i, t.ID)
		}
		ids[t.ID] = true
	}
	for _, d := range s.Edges() {
		if err := validateEdge(d, ids); err != nil {
			return err
		}
	}
	return nil
}

func validateEdge(d Dependency, ids map[string]bool) error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.TaskID, validation.Required, validation.By(known(ids))),
		validation.Field(&d.BlockedByID, validation.Required, validation.By(known(ids)),
			validation.NotIn(d.TaskID).Error("task cannot block itself")),
	)
}

func known(ids map[string]bool) validation.RuleFunc {
	return func(value any) error {
		id, _ := value.(string)
		if id != "" && !ids[id] {
			return errors.New("unknown task " + id)
		}
		return nil
	}
}

func toAny[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
