package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/stackplan/pkg/render"
	"github.com/matzehuels/stackplan/pkg/task"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds status and dates to node labels.
	Detailed bool
	// Highlight is a path of task ids drawn in red, for example the cycle
	// a rejected dependency would have closed. Consecutive ids name the
	// edges to mark.
	Highlight []string
}

// ToDOT converts a snapshot to Graphviz DOT. Edges whose endpoints are not
// in the snapshot are skipped.
func ToDOT(s task.Snapshot, opts Options) string {
	onPath := make(map[string]bool, len(opts.Highlight))
	pathEdge := make(map[[2]string]bool, len(opts.Highlight))
	for i, id := range opts.Highlight {
		onPath[id] = true
		if i > 0 {
			// A cycle path reads task → blocker, edges point blocker → task.
			pathEdge[[2]string{id, opts.Highlight[i-1]}] = true
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	known := make(map[string]bool, len(s.Tasks))
	for _, t := range s.Tasks {
		known[t.ID] = true
		attrs := fmtAttrs(t, fmtLabel(t, opts.Detailed), onPath[t.ID])
		fmt.Fprintf(&buf, "  %q [%s];\n", t.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range s.Edges() {
		if !known[e.TaskID] || !known[e.BlockedByID] {
			continue
		}
		attr := ""
		if pathEdge[[2]string{e.BlockedByID, e.TaskID}] {
			attr = " [color=red, penwidth=2]"
		}
		fmt.Fprintf(&buf, "  %q -> %q%s;\n", e.BlockedByID, e.TaskID, attr)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(t task.Task, detailed bool) string {
	title := t.Title
	if title == "" {
		title = t.ID
	}
	if !detailed {
		return title
	}

	parts := []string{title}
	if t.Status != "" {
		parts = append(parts, "status: "+string(t.Status))
	}
	if t.StartDate != "" || t.DueDate != "" {
		parts = append(parts, orDash(t.StartDate)+" .. "+orDash(t.DueDate))
	}
	return strings.Join(parts, "\n")
}

func orDash(s string) string {
	if s == "" {
		return "?"
	}
	return s
}

func fmtAttrs(t task.Task, label string, highlighted bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if t.IsDone() {
		attrs = append(attrs, "fillcolor=lightgrey", "fontcolor=gray30")
	}
	if highlighted {
		attrs = append(attrs, "color=red", "penwidth=2")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-based root element with a plain
// pixel viewBox so the SVG scales in browsers.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
