package timeline

import (
	"errors"
	"time"

	"github.com/matzehuels/stackplan/pkg/task"
)

// Span is a task's effective date range, inclusive on both ends.
type Span struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the number of calendar days covered by the span.
func (s Span) Days() int { return daysBetween(s.Start, s.End) + 1 }

// EffectiveSpan returns the dates a task is drawn with. A missing or
// unparsable start falls back to the due date and vice versa. ok is false
// when neither date is usable. Problems found on the way are returned as
// diagnostics.
func EffectiveSpan(t task.Task) (span Span, ok bool, diags []Diagnostic) {
	start, okStart, d := parseField(t.ID, "start_date", t.StartDate)
	diags = append(diags, d...)
	due, okDue, d := parseField(t.ID, "due_date", t.DueDate)
	diags = append(diags, d...)

	switch {
	case okStart && okDue:
		span = Span{Start: start, End: due}
	case okStart:
		span = Span{Start: start, End: start}
	case okDue:
		span = Span{Start: due, End: due}
	default:
		return Span{}, false, diags
	}

	if span.End.Before(span.Start) {
		diags = append(diags, Diagnostic{
			Kind:    DiagInvertedRange,
			TaskID:  t.ID,
			Field:   "due_date",
			Value:   t.DueDate,
			Message: "due date precedes start date; drawn with dates swapped",
		})
		span.Start, span.End = span.End, span.Start
	}
	return span, true, diags
}

func parseField(taskID, field, value string) (time.Time, bool, []Diagnostic) {
	d, err := ParseDate(value)
	switch {
	case err == nil:
		return d, true, nil
	case errors.Is(err, ErrNoDate):
		return time.Time{}, false, nil
	default:
		return time.Time{}, false, []Diagnostic{{
			Kind:    DiagInvalidDate,
			TaskID:  taskID,
			Field:   field,
			Value:   value,
			Message: err.Error(),
		}}
	}
}

// resolved pairs a task with its effective span.
type resolved struct {
	task  task.Task
	index int // position in the input, for stable ordering
	span  Span
	dated bool
}

// resolve computes effective spans for all tasks once.
func resolve(tasks []task.Task) ([]resolved, []Diagnostic) {
	out := make([]resolved, len(tasks))
	var diags []Diagnostic
	for i, t := range tasks {
		span, ok, d := EffectiveSpan(t)
		out[i] = resolved{task: t, index: i, span: span, dated: ok}
		diags = append(diags, d...)
	}
	return out, diags
}

// Undated returns the tasks without any usable date, in input order.
func Undated(tasks []task.Task) []task.Task {
	var out []task.Task
	for _, t := range tasks {
		if _, ok, _ := EffectiveSpan(t); !ok {
			out = append(out, t)
		}
	}
	return out
}
