// Package timeline computes Gantt chart geometry from a task snapshot.
//
// # Overview
//
// Every function in this package is pure: it takes tasks, a zoom level, an
// optional date window and an explicit "now", and returns fresh layout
// values. Nothing reads the wall clock and nothing is retained between
// calls, so switching zoom levels is a plain recomputation and a stale
// result can be discarded without side effects.
//
// The main entry point is [Build], which runs the steps below and returns a
// serializable [Layout]:
//
//  1. [ComputeDateWindow] picks the visible date range, either explicit or
//     inferred from task dates and padded on both sides.
//  2. [BuildDateColumns] buckets the window into day, week or month columns.
//  3. [LayoutTasks] assigns one row per dated task and computes bar geometry.
//  4. [RouteDependencies] routes a connector for every blocked-by edge.
//  5. [TodayMarkerOffset] places the vertical "now" line.
//
// # Dates
//
// Task dates arrive as raw strings. [ParseDate] accepts plain dates
// (2006-01-02), RFC 3339 timestamps and naive date-times; all values are
// normalized to UTC midnight of their calendar day. A value that cannot be
// parsed is treated as absent and reported as a [Diagnostic]. A task with
// only one usable date renders as a one-day bar at that date; a task with
// none is listed in [Layout.Undated] and does not affect window inference.
//
// # Geometry
//
// All columns at a zoom level share the same pixel width. A date maps to
// x = (bucket index + fraction of the bucket elapsed) × column width, with
// the first column's anchor at x = 0. Bars therefore line up with the
// column grid at every zoom level, and month columns stretch or squeeze
// days proportionally. Vertical geometry is relative to the top of the
// first row; renderers add their own header offset.
//
// # Connectors
//
// A connector leaves the right edge of the blocker's bar and enters the left
// edge of the blocked task's bar. When the blocked bar starts after the
// blocker's bar ends the connector is a cubic curve; when it starts at or
// before that point the connector detours through the gutter next to the
// blocker's row so it never runs backwards through other bars.
package timeline
