package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/stackplan/pkg/task"
)

func snapshot() task.Snapshot {
	return task.Snapshot{
		Tasks: []task.Task{
			{ID: "a", Title: "Design", Status: task.StatusDone},
			{ID: "b", Title: "Build", StartDate: "2026-01-08"},
			{ID: "c", Title: "Ship", BlockedBy: []string{"b"}},
		},
		Dependencies: []task.Dependency{
			{TaskID: "b", BlockedByID: "a"},
			{TaskID: "c", BlockedByID: "ghost"},
		},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(snapshot(), Options{})

	for _, want := range []string{
		"digraph G {",
		`"a" [label="Design", fillcolor=lightgrey, fontcolor=gray30];`,
		`"b" [label="Build"];`,
		`"a" -> "b";`,
		`"b" -> "c";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "ghost") {
		t.Error("dangling edge rendered")
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(snapshot(), Options{Detailed: true})
	if !strings.Contains(dot, `label="Build\n2026-01-08 .. ?"`) {
		t.Errorf("detailed label missing dates:\n%s", dot)
	}
	if !strings.Contains(dot, `status: done`) {
		t.Errorf("detailed label missing status:\n%s", dot)
	}
}

func TestToDOTHighlight(t *testing.T) {
	// c waits on b, b waits on a.
	dot := ToDOT(snapshot(), Options{Highlight: []string{"c", "b", "a"}})

	if !strings.Contains(dot, `"a" -> "b" [color=red, penwidth=2];`) {
		t.Errorf("edge a->b not highlighted:\n%s", dot)
	}
	if !strings.Contains(dot, `"b" -> "c" [color=red, penwidth=2];`) {
		t.Errorf("edge b->c not highlighted:\n%s", dot)
	}
	if !strings.Contains(dot, `"b" [label="Build", color=red, penwidth=2];`) {
		t.Errorf("node b not highlighted:\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox =\n%s\nwant\n%s", got, want)
	}

	plain := []byte(`<svg><g/></svg>`)
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("svg without viewBox was modified")
	}
}
