// Package render turns computed plans into files.
//
// Two views are supported:
//
//   - [gantt] draws a timeline layout as bars on a date grid, with
//     blocked-by connectors between them
//   - [nodelink] draws the bare dependency graph with Graphviz
//
// Both produce SVG. [ToPDF] and [ToPNG] convert any SVG with the external
// rsvg-convert tool (from librsvg):
//
//	svg := gantt.RenderSVG(layout)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)
//
// [gantt]: github.com/matzehuels/stackplan/pkg/render/gantt
// [nodelink]: github.com/matzehuels/stackplan/pkg/render/nodelink
package render
