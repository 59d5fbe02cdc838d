package timeline

import (
	"cmp"
	"slices"
	"time"

	"github.com/matzehuels/stackplan/pkg/task"
)

// Bar is the rectangle drawn for one task. Coordinates are pixels with y
// growing downward from the top of the first row.
type Bar struct {
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the bar's right edge.
func (b Bar) Right() float64 { return b.Left + b.Width }

// Bottom returns the y coordinate of the bar's lower edge.
func (b Bar) Bottom() float64 { return b.Top + b.Height }

// CenterX returns the horizontal center of the bar.
func (b Bar) CenterX() float64 { return b.Left + b.Width/2 }

// CenterY returns the vertical center of the bar.
func (b Bar) CenterY() float64 { return b.Top + b.Height/2 }

// RowEntry places one dated task on the timeline.
type RowEntry struct {
	Task task.Task `json:"task"`
	Row  int       `json:"row"`
	Span Span      `json:"span"`
	Bar  Bar       `json:"bar"`
}

// LayoutTasks assigns a row and a bar to every dated task. Undated tasks
// are skipped; see [Undated].
//
// Rows follow a stable sort by project id, then position, then input
// order. There is no packing: each task owns its row. The bar starts at the
// effective start and ends after the last day of the effective end, and is
// never narrower than opts.MinBarWidth.
func LayoutTasks(tasks []task.Task, w Window, z Zoom, columnWidth float64, opts Options) []RowEntry {
	res, _ := resolve(tasks)
	if columnWidth <= 0 {
		columnWidth = z.DefaultColumnWidth()
	}
	return layoutRows(res, w, z, columnWidth, opts.WithDefaults())
}

func layoutRows(res []resolved, w Window, z Zoom, columnWidth float64, opts Options) []RowEntry {
	dated := make([]resolved, 0, len(res))
	for _, r := range res {
		if r.dated {
			dated = append(dated, r)
		}
	}
	slices.SortStableFunc(dated, func(a, b resolved) int {
		return cmp.Or(
			cmp.Compare(a.task.ProjectID, b.task.ProjectID),
			cmp.Compare(a.task.Position, b.task.Position),
			cmp.Compare(a.index, b.index),
		)
	})

	origin := z.Truncate(w.Start)
	rows := make([]RowEntry, len(dated))
	for i, r := range dated {
		rows[i] = RowEntry{
			Task: r.task,
			Row:  i,
			Span: r.span,
			Bar:  barFor(r.span, i, origin, z, columnWidth, opts),
		}
	}
	return rows
}

func barFor(s Span, row int, origin time.Time, z Zoom, columnWidth float64, opts Options) Bar {
	left := xOf(origin, s.Start, z, columnWidth)
	right := xOf(origin, s.End.AddDate(0, 0, 1), z, columnWidth)
	return Bar{
		Left:   left,
		Width:  max(opts.MinBarWidth, right-left),
		Top:    float64(row)*opts.RowHeight + opts.rowGap(),
		Height: opts.BarHeight,
	}
}

// xOf maps day d to a pixel offset from the first column's anchor.
func xOf(origin, d time.Time, z Zoom, columnWidth float64) float64 {
	return z.offset(origin, d, columnWidth)
}
