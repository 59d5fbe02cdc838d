// Package gantt renders a [timeline.Layout] as a Gantt chart.
//
// The layout already holds every coordinate; this package only draws it.
// Output formats are SVG ([RenderSVG]), PNG and PDF (via rsvg-convert) and
// JSON ([RenderJSON]), which is the layout itself for web clients that
// draw their own chart.
//
// Drawing is delegated to a [Style]. Two ship with the package: [Status]
// colors bars by workflow status, [Simple] uses greys only.
//
// [timeline.Layout]: github.com/matzehuels/stackplan/pkg/timeline.Layout
package gantt
