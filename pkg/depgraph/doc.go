// Package depgraph maintains the blocked-by relationships between tasks as
// a directed acyclic graph.
//
// # Overview
//
// An edge (task, blocker) means task cannot complete before blocker does.
// The graph must stay acyclic at all times, and the invariant is enforced
// before an edge is inserted, never after. Callers follow a two-step
// protocol:
//
//	path, err := g.WouldCreateCycle("C", "A")
//	if err != nil {
//	    // unknown task id: a stale reference, surface it
//	}
//	if path != nil {
//	    // refuse the edit and show path.String(), e.g. "C → A → B → C"
//	}
//	g.AddDependency("C", "A")
//
// [Graph.Link] runs both steps and returns a [*CycleError] on refusal.
//
// # Cycle Search
//
// [Graph.WouldCreateCycle] walks blocked-by edges outward from the proposed
// blocker with an iterative depth-first search and a visited set, so it runs
// in O(V+E) on diamond-heavy graphs and never recurses. If the search reaches
// the task gaining the edge, the parent pointers recorded during the walk
// yield the cycle path. A task proposed as its own blocker is reported as the
// two-element path [X, X].
//
// # Lookups
//
// [Graph.BlockersOf] and [Graph.BlockedOf] are direct, non-transitive lookups
// used for "blocked by N" and "blocking N" badges.
//
// # Concurrency
//
// Graph instances are not safe for concurrent mutation. Hosts rebuild a graph
// from a fresh snapshot per edit, or serialize edits externally.
package depgraph
