package timeline

import (
	"fmt"
	"time"

	"github.com/matzehuels/stackplan/pkg/task"
)

// Request is the input of [Build].
type Request struct {
	Tasks        []task.Task
	Dependencies []task.Dependency

	Zoom Zoom
	// Start and End optionally pin either side of the window.
	Start, End *time.Time
	// ColumnWidth in pixels; zero uses the zoom's default.
	ColumnWidth float64
	// Now is the clock reading used for the today flag and marker, and for
	// the default window. It is required.
	Now time.Time

	Options Options
}

// Layout is the complete, serializable result of [Build].
type Layout struct {
	Zoom        Zoom    `json:"zoom"`
	ColumnWidth float64 `json:"column_width"`
	Window      Window  `json:"window"`
	Options     Options `json:"options"`

	Columns    []DateColumn `json:"columns"`
	Rows       []RowEntry   `json:"rows"`
	Undated    []task.Task  `json:"undated,omitempty"`
	Connectors []Connector  `json:"connectors,omitempty"`

	// Today is the x offset of the today marker, nil when hidden.
	Today *float64 `json:"today,omitempty"`

	// Width and Height cover the column grid and all rows; Height includes
	// Options.HeaderHeight.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Row returns the row entry for a task id.
func (l *Layout) Row(taskID string) (RowEntry, bool) {
	for _, r := range l.Rows {
		if r.Task.ID == taskID {
			return r, true
		}
	}
	return RowEntry{}, false
}

// Build computes a full layout. It fails only for an invalid request:
// unknown zoom, negative column width, invalid options or a zero Now.
// Bad task dates never fail the build; they are reported in Diagnostics.
func Build(req Request) (*Layout, error) {
	if !req.Zoom.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidZoom, req.Zoom)
	}
	if req.ColumnWidth < 0 {
		return nil, fmt.Errorf("%w: %g", ErrInvalidColumnWidth, req.ColumnWidth)
	}
	if req.Now.IsZero() {
		return nil, ErrMissingNow
	}
	if err := req.Options.Validate(); err != nil {
		return nil, err
	}

	opts := req.Options.WithDefaults()
	colWidth := req.ColumnWidth
	if colWidth == 0 {
		colWidth = req.Zoom.DefaultColumnWidth()
	}

	res, diags := resolve(req.Tasks)
	window, wdiags := computeWindow(res, req.Start, req.End, req.Now, opts)
	diags = append(diags, wdiags...)

	l := &Layout{
		Zoom:        req.Zoom,
		ColumnWidth: colWidth,
		Window:      window,
		Options:     opts,
		Columns:     BuildDateColumns(window, req.Zoom, colWidth, req.Now),
		Rows:        layoutRows(res, window, req.Zoom, colWidth, opts),
		Diagnostics: diags,
	}
	for _, r := range res {
		if !r.dated {
			l.Undated = append(l.Undated, r.task)
		}
	}

	edges := task.Snapshot{Tasks: req.Tasks, Dependencies: req.Dependencies}.Edges()
	l.Connectors = RouteDependencies(l.Rows, edges, opts)

	if x, ok := TodayMarkerOffset(window, req.Zoom, colWidth, req.Now); ok {
		l.Today = &x
	}

	l.Width = float64(len(l.Columns)) * colWidth
	l.Height = opts.HeaderHeight + float64(len(l.Rows))*opts.RowHeight
	return l, nil
}
