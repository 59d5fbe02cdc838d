package depgraph_test

import (
	"errors"
	"fmt"

	"github.com/matzehuels/stackplan/pkg/depgraph"
)

func ExampleGraph_WouldCreateCycle() {
	// A is blocked by B, B is blocked by C.
	g := depgraph.New("A", "B", "C")
	_, _ = g.AddDependency("A", "B")
	_, _ = g.AddDependency("B", "C")

	// Making C wait on A would close the loop.
	path, _ := g.WouldCreateCycle("C", "A")
	fmt.Println(path)

	// A waiting on C directly is fine.
	path, _ = g.WouldCreateCycle("A", "C")
	fmt.Println(path == nil)
	// Output:
	// C → A → B → C
	// true
}

func ExampleGraph_Link() {
	g := depgraph.New("design", "build", "launch")
	_ = g.Link("build", "design")
	_ = g.Link("launch", "build")

	err := g.Link("design", "launch")
	var ce *depgraph.CycleError
	if errors.As(err, &ce) {
		fmt.Println("refused:", ce.Path)
	}
	fmt.Println("blocked by design:", g.BlockedOf("design"))
	// Output:
	// refused: design → launch → build → design
	// blocked by design: [build]
}
