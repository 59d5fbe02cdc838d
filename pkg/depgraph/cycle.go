package depgraph

// WouldCreateCycle reports whether adding the edge taskID blocked-by
// blockerID would close a cycle.
//
// It returns nil when the edge is safe. Otherwise the returned path starts
// at taskID, continues through blockerID along existing blocked-by edges and
// ends back at taskID. A self reference returns [taskID, taskID]. Both ids
// must be in the graph, otherwise ErrUnknownTask is returned.
//
// The search is an iterative depth-first walk with a visited set, O(V+E).
func (g *Graph) WouldCreateCycle(taskID, blockerID string) (Path, error) {
	if err := g.requireKnown(taskID, blockerID); err != nil {
		return nil, err
	}
	if taskID == blockerID {
		return Path{taskID, taskID}, nil
	}

	parent := map[string]string{}
	visited := map[string]bool{blockerID: true}
	stack := []string{blockerID}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if id == taskID {
			return g.tracePath(taskID, blockerID, parent), nil
		}

		// Push in reverse so the first blocker is explored first.
		next := g.blockers[id]
		for i := len(next) - 1; i >= 0; i-- {
			b := next[i]
			if visited[b] {
				continue
			}
			visited[b] = true
			parent[b] = id
			stack = append(stack, b)
		}
	}
	return nil, nil
}

// tracePath rebuilds taskID → blockerID → … → taskID from parent pointers
// recorded while walking from blockerID.
func (g *Graph) tracePath(taskID, blockerID string, parent map[string]string) Path {
	var rev []string
	for id := taskID; id != blockerID; id = parent[id] {
		rev = append(rev, id)
	}
	rev = append(rev, blockerID)

	path := make(Path, 0, len(rev)+1)
	path = append(path, taskID)
	for i := len(rev) - 1; i >= 0; i-- {
		path = append(path, rev[i])
	}
	return path
}

// FindCycle scans the whole graph and returns the first cycle found, or nil
// for an acyclic graph. Tasks are visited in insertion order.
//
// It uses white/gray/black coloring with an explicit frame stack.
func (g *Graph) FindCycle() Path {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.order))
	for _, root := range g.order {
		if color[root] != white {
			continue
		}
		color[root] = gray
		stack := []frame{{id: root}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			children := g.blockers[top.id]
			if top.next == len(children) {
				color[top.id] = black
				stack = stack[:len(stack)-1]
				continue
			}
			child := children[top.next]
			top.next++
			switch color[child] {
			case white:
				color[child] = gray
				stack = append(stack, frame{id: child})
			case gray:
				return cycleFromStack(stack, child)
			}
		}
	}
	return nil
}

// frame is one level of the explicit DFS stack: a task and the index of the
// next blocker to visit.
type frame struct {
	id   string
	next int
}

// cycleFromStack cuts the gray segment of the stack that starts at back.
func cycleFromStack(stack []frame, back string) Path {
	var path Path
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].id != back {
			continue
		}
		for _, f := range stack[i:] {
			path = append(path, f.id)
		}
		break
	}
	return append(path, back)
}

// Validate returns a *CycleError if the graph contains a cycle.
// Graphs built only through WouldCreateCycle followed by AddDependency
// always validate.
func (g *Graph) Validate() error {
	if p := g.FindCycle(); p != nil {
		return &CycleError{Path: p}
	}
	return nil
}
