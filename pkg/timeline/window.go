package timeline

import (
	"time"

	"github.com/matzehuels/stackplan/pkg/task"
)

// WindowSource records how a window was chosen.
type WindowSource string

const (
	WindowExplicit WindowSource = "explicit"
	WindowInferred WindowSource = "inferred"
	WindowDefault  WindowSource = "default"
)

// Window is the visible date range, inclusive, at day precision.
type Window struct {
	Start  time.Time    `json:"start"`
	End    time.Time    `json:"end"`
	Source WindowSource `json:"source"`
}

// Days returns the number of days in the window.
func (w Window) Days() int { return daysBetween(w.Start, w.End) + 1 }

// Contains reports whether day d lies within the window.
func (w Window) Contains(d time.Time) bool {
	d = Day(d)
	return !d.Before(w.Start) && !d.After(w.End)
}

// InferWindow returns the raw, unpadded window spanning the effective dates
// of all dated tasks: from the earliest start to the latest end. ok is false
// when no task has a usable date.
func InferWindow(tasks []task.Task) (Window, bool) {
	res, _ := resolve(tasks)
	return inferWindow(res)
}

func inferWindow(res []resolved) (Window, bool) {
	var w Window
	found := false
	for _, r := range res {
		if !r.dated {
			continue
		}
		if !found || r.span.Start.Before(w.Start) {
			w.Start = r.span.Start
		}
		if !found || r.span.End.After(w.End) {
			w.End = r.span.End
		}
		found = true
	}
	if found {
		w.Source = WindowInferred
	}
	return w, found
}

// ComputeDateWindow chooses the visible date range.
//
// An explicit bound always wins for its side. A missing bound comes from
// the inferred window extended by opts.PaddingDays. When no task has a
// usable date the default window runs from today minus the padding to
// today plus opts.HorizonDays. If the resulting end precedes the start the
// end is clamped to the start.
func ComputeDateWindow(tasks []task.Task, start, end *time.Time, now time.Time, opts Options) Window {
	res, _ := resolve(tasks)
	w, _ := computeWindow(res, start, end, now, opts.WithDefaults())
	return w
}

func computeWindow(res []resolved, start, end *time.Time, now time.Time, opts Options) (Window, []Diagnostic) {
	var diags []Diagnostic
	raw, ok := inferWindow(res)
	today := Day(now)

	w := Window{Source: WindowInferred}
	switch {
	case start != nil && end != nil:
		w.Source = WindowExplicit
	case !ok:
		w.Source = WindowDefault
	}

	switch {
	case start != nil:
		w.Start = Day(*start)
	case ok:
		w.Start = raw.Start.AddDate(0, 0, -opts.padding())
	default:
		w.Start = today.AddDate(0, 0, -opts.padding())
	}

	switch {
	case end != nil:
		w.End = Day(*end)
	case ok:
		w.End = raw.End.AddDate(0, 0, opts.padding())
	default:
		w.End = today.AddDate(0, 0, opts.horizon())
	}

	if w.Source == WindowDefault {
		diags = append(diags, Diagnostic{
			Kind:    DiagDefaultWindow,
			Message: "no dated tasks; using default window around today",
		})
	}
	if w.End.Before(w.Start) {
		diags = append(diags, Diagnostic{
			Kind:    DiagClampedWindow,
			Message: "window end precedes start; clamped to start",
		})
		w.End = w.Start
	}
	return w, diags
}
