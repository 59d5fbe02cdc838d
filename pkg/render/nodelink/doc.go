// Package nodelink renders the blocked-by graph as a node-link diagram
// using Graphviz.
//
// Edges point from the blocker to the task it blocks, so the diagram
// reads in execution order from left to right:
//
//	dot := nodelink.ToDOT(snapshot, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//
// [Options.Highlight] marks a path in red, which is how a rejected cycle
// is shown to the user.
package nodelink
