package gantt

import (
	"bytes"
	"fmt"
	"strings"
)

// Style names accepted by [StyleByName].
const (
	StyleSimple = "simple"
	StyleStatus = "status"
)

// Styles lists every style name.
var Styles = []string{StyleSimple, StyleStatus}

// Style controls how each element of the chart is drawn. Coordinates are
// final SVG coordinates; the renderer has already applied the header offset.
type Style interface {
	// RenderDefs writes SVG <defs> content (markers, gradients).
	RenderDefs(buf *bytes.Buffer)
	// RenderColumn writes the header cell and grid band of a date column.
	RenderColumn(buf *bytes.Buffer, c Column)
	// RenderBar writes a task bar.
	RenderBar(buf *bytes.Buffer, b Bar)
	// RenderLabel writes a task's title.
	RenderLabel(buf *bytes.Buffer, b Bar)
	// RenderConnector writes a dependency connector.
	RenderConnector(buf *bytes.Buffer, c Connector)
	// RenderToday writes the today marker.
	RenderToday(buf *bytes.Buffer, x, top, bottom float64)
}

// Column is a date column ready to draw.
type Column struct {
	Label          string
	X, W           float64
	HeaderH        float64
	Bottom         float64
	Today, Weekend bool
	// WeekendX and WeekendW locate a weekend band inside a week column.
	WeekendX, WeekendW float64
}

// Bar is a task bar ready to draw.
type Bar struct {
	ID         string
	Label      string
	Status     string
	Priority   string
	X, Y, W, H float64
	Done       bool
}

// Connector is a routed dependency ready to draw.
type Connector struct {
	FromID, ToID string
	Path         string
	Complete     bool
}

// StyleByName returns the named style. An empty name selects
// [StyleStatus].
func StyleByName(name string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StyleStatus:
		return Status{}, nil
	case StyleSimple:
		return Simple{}, nil
	}
	return nil, fmt.Errorf("unknown style %q (must be one of: %s)", name, strings.Join(Styles, ", "))
}

// Simple draws everything in greys.
type Simple struct{}

func (Simple) RenderDefs(buf *bytes.Buffer) { renderArrowDefs(buf, "#555", "#bbb") }

func (Simple) RenderColumn(buf *bytes.Buffer, c Column) {
	renderColumn(buf, c, "#f2f2f2", "#fff6d5")
}

func (Simple) RenderBar(buf *bytes.Buffer, b Bar) {
	fill := "#777"
	if b.Done {
		fill = "#bbb"
	}
	renderBarRect(buf, b, fill, "#333")
}

func (Simple) RenderLabel(buf *bytes.Buffer, b Bar) { renderBarLabel(buf, b) }

func (Simple) RenderConnector(buf *bytes.Buffer, c Connector) {
	renderConnectorPath(buf, c, "#555", "#bbb")
}

func (Simple) RenderToday(buf *bytes.Buffer, x, top, bottom float64) {
	renderTodayLine(buf, x, top, bottom, "#333")
}

// Status colors bars by workflow status and outlines urgent tasks.
type Status struct{}

var statusColors = map[string]string{
	"backlog":     "#9aa5b1",
	"todo":        "#4a90d9",
	"in_progress": "#f5a623",
	"review":      "#9013fe",
	"done":        "#7ed321",
	"blocked":     "#d0021b",
}

func (Status) RenderDefs(buf *bytes.Buffer) { renderArrowDefs(buf, "#4a4a4a", "#7ed321") }

func (Status) RenderColumn(buf *bytes.Buffer, c Column) {
	renderColumn(buf, c, "#f5f7fa", "#e8f4fd")
}

func (Status) RenderBar(buf *bytes.Buffer, b Bar) {
	fill, ok := statusColors[b.Status]
	if !ok {
		fill = statusColors["todo"]
	}
	stroke := "none"
	if b.Priority == "urgent" {
		stroke = "#d0021b"
	}
	renderBarRect(buf, b, fill, stroke)
}

func (Status) RenderLabel(buf *bytes.Buffer, b Bar) { renderBarLabel(buf, b) }

func (Status) RenderConnector(buf *bytes.Buffer, c Connector) {
	renderConnectorPath(buf, c, "#4a4a4a", "#7ed321")
}

func (Status) RenderToday(buf *bytes.Buffer, x, top, bottom float64) {
	renderTodayLine(buf, x, top, bottom, "#d0021b")
}

func renderArrowDefs(buf *bytes.Buffer, open, done string) {
	buf.WriteString("  <defs>\n")
	for _, m := range []struct{ id, color string }{{"arrow", open}, {"arrow-done", done}} {
		fmt.Fprintf(buf, `    <marker id="%s" viewBox="0 0 10 10" refX="9" refY="5" markerWidth="6" markerHeight="6" orient="auto-start-reverse">`+
			`<path d="M 0 0 L 10 5 L 0 10 z" fill="%s"/></marker>`+"\n", m.id, m.color)
	}
	buf.WriteString("  </defs>\n")
}

func renderColumn(buf *bytes.Buffer, c Column, weekend, today string) {
	switch {
	case c.Today:
		fmt.Fprintf(buf, `  <rect class="column today" x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"/>`+"\n",
			c.X, c.HeaderH, c.W, c.Bottom-c.HeaderH, today)
	case c.Weekend:
		fmt.Fprintf(buf, `  <rect class="column weekend" x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"/>`+"\n",
			c.X, c.HeaderH, c.W, c.Bottom-c.HeaderH, weekend)
	}
	if c.WeekendW > 0 {
		fmt.Fprintf(buf, `  <rect class="weekend-band" x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"/>`+"\n",
			c.WeekendX, c.HeaderH, c.WeekendW, c.Bottom-c.HeaderH, weekend)
	}
	fmt.Fprintf(buf, `  <line class="grid" x1="%.2f" y1="0" x2="%.2f" y2="%.2f" stroke="#e0e0e0"/>`+"\n", c.X, c.X, c.Bottom)
	fmt.Fprintf(buf, `  <text class="column-label" x="%.2f" y="%.2f" font-family="sans-serif" font-size="11" text-anchor="middle" fill="#444">%s</text>`+"\n",
		c.X+c.W/2, c.HeaderH*0.6, EscapeXML(c.Label))
}

func renderBarRect(buf *bytes.Buffer, b Bar, fill, stroke string) {
	fmt.Fprintf(buf, `  <rect class="bar" id="bar-%s" x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="4" fill="%s" stroke="%s"/>`+"\n",
		EscapeXML(b.ID), b.X, b.Y, b.W, b.H, fill, stroke)
}

func renderBarLabel(buf *bytes.Buffer, b Bar) {
	label, inside := FitLabel(b.Label, b.W)
	if label == "" {
		return
	}
	x, fill := b.X+labelPadding, "#fff"
	if !inside {
		x, fill = b.X+b.W+labelPadding, "#222"
	}
	fmt.Fprintf(buf, `  <text class="bar-label" data-task="%s" x="%.2f" y="%.2f" font-family="sans-serif" font-size="%.0f" dominant-baseline="central" fill="%s">%s</text>`+"\n",
		EscapeXML(b.ID), x, b.Y+b.H/2, labelFontSize, fill, EscapeXML(label))
}

func renderConnectorPath(buf *bytes.Buffer, c Connector, open, done string) {
	color, marker, dash := open, "arrow", ` stroke-dasharray="4 3"`
	if c.Complete {
		color, marker, dash = done, "arrow-done", ""
	}
	fmt.Fprintf(buf, `  <path class="connector" data-from="%s" data-to="%s" d="%s" fill="none" stroke="%s" stroke-width="1.5"%s marker-end="url(#%s)"/>`+"\n",
		EscapeXML(c.FromID), EscapeXML(c.ToID), c.Path, color, dash, marker)
}

func renderTodayLine(buf *bytes.Buffer, x, top, bottom float64, color string) {
	fmt.Fprintf(buf, `  <line class="today-marker" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="2"/>`+"\n",
		x, top, x, bottom, color)
}
