package io

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/stackplan/pkg/depgraph"
	"github.com/matzehuels/stackplan/pkg/task"
)

const sampleJSON = `{
  "tasks": [
    {"id": "design", "title": "Design", "status": "done", "start_date": "2026-01-05", "due_date": "2026-01-09", "estimated_hours": 6.5},
    {"id": "build", "title": "Build", "blocked_by": ["design"], "position": 1}
  ],
  "dependencies": [
    {"task_id": "build", "blocked_by_id": "design"}
  ]
}`

const sampleYAML = `tasks:
  - id: design
    title: Design
    status: done
    start_date: 2026-01-05
    due_date: 2026-01-09
    estimated_hours: 6.5
  - id: build
    title: Build
    blocked_by: [design]
    position: 1
dependencies:
  - task_id: build
    blocked_by_id: design
`

func TestReadJSON(t *testing.T) {
	s, err := ReadJSON(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Tasks) != 2 || s.Tasks[0].Status != task.StatusDone {
		t.Fatalf("tasks = %+v", s.Tasks)
	}
	if s.Tasks[0].EstimatedHours == nil || *s.Tasks[0].EstimatedHours != 6.5 {
		t.Errorf("estimated_hours = %v", s.Tasks[0].EstimatedHours)
	}
	if edges := s.Edges(); len(edges) != 1 {
		t.Errorf("edges = %v, want one merged edge", edges)
	}
}

func TestReadYAMLMatchesJSON(t *testing.T) {
	fromJSON, err := ReadJSON(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatal(err)
	}
	fromYAML, err := ReadYAML(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(fromJSON, fromYAML) {
		t.Errorf("YAML and JSON differ:\n%+v\n%+v", fromYAML, fromJSON)
	}
}

func TestReadRejects(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		wantPath string
	}{
		{"missing tasks", `{}`, ""},
		{"unknown top-level key", `{"tasks": [], "extra": 1}`, ""},
		{"bad status", `{"tasks": [{"id": "a", "status": "finished"}]}`, "tasks.0.status"},
		{"negative hours", `{"tasks": [{"id": "a", "estimated_hours": -1}]}`, "tasks.0.estimated_hours"},
		{"fractional position", `{"tasks": [{"id": "a", "position": 1.5}]}`, "tasks.0.position"},
		{"missing id", `{"tasks": [{"title": "x"}]}`, "tasks.0"},
		{"edge without blocker", `{"tasks": [{"id": "a"}], "dependencies": [{"task_id": "a"}]}`, "dependencies.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.doc))
			var se *SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("err = %v, want *SchemaError", err)
			}
			if se.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q (%s)", se.Path, tt.wantPath, se.Message)
			}
		})
	}
}

func TestReadRejectsInvalidGraph(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"duplicate id", `{"tasks": [{"id": "a"}, {"id": "a"}]}`},
		{"unknown blocker", `{"tasks": [{"id": "a", "blocked_by": ["ghost"]}]}`},
		{"self edge", `{"tasks": [{"id": "a"}], "dependencies": [{"task_id": "a", "blocked_by_id": "a"}]}`},
		{"two-task cycle", `{"tasks": [{"id": "a", "blocked_by": ["b"]}, {"id": "b", "blocked_by": ["a"]}]}`},
		{"cycle across lists", `{"tasks": [{"id": "a", "blocked_by": ["b"]}, {"id": "b"}, {"id": "c", "blocked_by": ["a"]}], "dependencies": [{"task_id": "b", "blocked_by_id": "c"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadJSON(strings.NewReader(tt.doc)); err == nil {
				t.Error("ReadJSON accepted invalid dataset")
			}
		})
	}
}

func TestReadRejectsCycle(t *testing.T) {
	doc := "tasks:\n  - id: a\n    blocked_by: [b]\n  - id: b\n    blocked_by: [a]\n"
	_, err := ReadYAML(strings.NewReader(doc))
	var ce *depgraph.CycleError
	if !errors.As(err, &ce) {
		t.Fatalf("ReadYAML error = %v, want *depgraph.CycleError", err)
	}
	if len(ce.Path) != 3 || ce.Path[0] != ce.Path[2] {
		t.Errorf("cycle path = %v, want a closed two-task loop", ce.Path)
	}

	path := filepath.Join(t.TempDir(), "plan.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ImportFile(path); !errors.Is(err, depgraph.ErrCycle) {
		t.Errorf("ImportFile error = %v, want ErrCycle", err)
	}
}

func TestReadYAMLUnknownField(t *testing.T) {
	if _, err := ReadYAML(strings.NewReader("tasks:\n  - id: a\n    colour: red\n")); err == nil {
		t.Error("ReadYAML accepted unknown field")
	}
}

func TestFileRoundTrip(t *testing.T) {
	s, err := ReadJSON(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	for _, name := range []string{"plan.json", "plan.yaml", "plan.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := ExportFile(s, path); err != nil {
				t.Fatal(err)
			}
			back, err := ImportFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(s, back) {
				t.Errorf("round trip changed dataset:\n%+v\n%+v", back, s)
			}
		})
	}
}

func TestFormatOf(t *testing.T) {
	if _, err := FormatOf("plan.toml"); err == nil {
		t.Error("FormatOf accepted .toml")
	}
	if f, _ := FormatOf("PLAN.YML"); f != FormatYAML {
		t.Errorf("FormatOf(PLAN.YML) = %q", f)
	}
	if _, err := ImportFile(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ImportFile(missing) err = %v", err)
	}
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(task.Snapshot{}, &buf); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadJSON(&buf); err != nil {
		t.Errorf("empty dataset did not round trip: %v", err)
	}
}
