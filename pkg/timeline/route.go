package timeline

import (
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/stackplan/pkg/task"
)

// RouteKind is the connector shape.
type RouteKind string

const (
	// RouteCurve is a horizontal-biased cubic curve, used when the blocked
	// bar starts at or after the blocker's bar ends.
	RouteCurve RouteKind = "curve"
	// RouteDetour is a right-angle path through the gutter next to the
	// blocker's row, used when the blocked bar starts before the blocker's
	// bar ends.
	RouteDetour RouteKind = "detour"
)

// edgeTolerance absorbs float error between a bar's computed right edge
// and the next day's left offset.
const edgeTolerance = 1e-6

// Point is a pixel coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Route is a routed connector. For curves Points holds the start point,
// both control points and the end point. For detours it holds every
// corner from start to end. Path is the equivalent SVG path data.
type Route struct {
	Kind   RouteKind `json:"kind"`
	Points []Point   `json:"points"`
	Path   string    `json:"path"`
}

// Connector routes one blocked-by edge from the blocker's bar to the
// blocked task's bar.
type Connector struct {
	FromTaskID string `json:"from_task_id"` // blocker
	ToTaskID   string `json:"to_task_id"`   // blocked task
	FromRow    int    `json:"from_row"`
	ToRow      int    `json:"to_row"`
	FromBar    Bar    `json:"from_bar"`
	ToBar      Bar    `json:"to_bar"`
	// IsComplete is true when the blocker is done. It only affects styling.
	IsComplete bool  `json:"is_complete"`
	Route      Route `json:"route"`
}

// RouteDependencyLine connects the right edge of from to the left edge of
// to at their vertical centers. The shape is decided only by whether
// to.Left < from.Right: a task that starts the day after its blocker ends
// touches the blocker's edge and still gets a curve.
func RouteDependencyLine(from, to Bar, opts Options) Route {
	opts = opts.WithDefaults()
	start := Point{X: from.Right(), Y: from.CenterY()}
	end := Point{X: to.Left, Y: to.CenterY()}

	if to.Left < from.Right()-edgeTolerance {
		return detour(from, to, start, end, opts)
	}
	return curve(start, end, opts)
}

func curve(start, end Point, opts Options) Route {
	dx := max((end.X-start.X)/2, opts.Gutter)
	c1 := Point{X: start.X + dx, Y: start.Y}
	c2 := Point{X: end.X - dx, Y: end.Y}

	var b strings.Builder
	b.WriteString("M " + pt(start))
	b.WriteString(" C " + pt(c1) + ", " + pt(c2) + ", " + pt(end))
	return Route{Kind: RouteCurve, Points: []Point{start, c1, c2, end}, Path: b.String()}
}

// detour exits right, drops into the gutter between the blocker's row and
// its neighbour on the target's side, runs back left past the target's
// left edge, then enters the target from the left.
func detour(from, to Bar, start, end Point, opts Options) Route {
	gutterY := from.Bottom() + opts.rowGap()
	if to.CenterY() < from.CenterY() {
		gutterY = from.Top - opts.rowGap()
	}
	exitX := start.X + opts.Gutter
	entryX := end.X - opts.Gutter

	pts := []Point{
		start,
		{X: exitX, Y: start.Y},
		{X: exitX, Y: gutterY},
		{X: entryX, Y: gutterY},
		{X: entryX, Y: end.Y},
		end,
	}

	var b strings.Builder
	b.WriteString("M " + pt(start))
	b.WriteString(" H " + num(exitX))
	b.WriteString(" V " + num(gutterY))
	b.WriteString(" H " + num(entryX))
	b.WriteString(" V " + num(end.Y))
	b.WriteString(" H " + num(end.X))
	return Route{Kind: RouteDetour, Points: pts, Path: b.String()}
}

// RouteDependencies returns one connector per edge whose two tasks are both
// laid out. Edges touching undated or unknown tasks are skipped. Edge order
// is preserved.
func RouteDependencies(rows []RowEntry, edges []task.Dependency, opts Options) []Connector {
	opts = opts.WithDefaults()
	byID := make(map[string]*RowEntry, len(rows))
	for i := range rows {
		byID[rows[i].Task.ID] = &rows[i]
	}

	var out []Connector
	for _, e := range edges {
		blocked, ok1 := byID[e.TaskID]
		blocker, ok2 := byID[e.BlockedByID]
		if !ok1 || !ok2 || blocked == blocker {
			continue
		}
		out = append(out, Connector{
			FromTaskID: blocker.Task.ID,
			ToTaskID:   blocked.Task.ID,
			FromRow:    blocker.Row,
			ToRow:      blocked.Row,
			FromBar:    blocker.Bar,
			ToBar:      blocked.Bar,
			IsComplete: blocker.Task.IsDone(),
			Route:      RouteDependencyLine(blocker.Bar, blocked.Bar, opts),
		})
	}
	return out
}

func pt(p Point) string { return num(p.X) + " " + num(p.Y) }

// num formats a coordinate with at most two decimals.
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
