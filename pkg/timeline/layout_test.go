package timeline

import (
	"errors"
	"reflect"
	"testing"

	"github.com/matzehuels/stackplan/pkg/task"
)

func TestLayoutTasksGeometry(t *testing.T) {
	w := Window{Start: date(2026, 1, 5), End: date(2026, 1, 31)}

	tests := []struct {
		name      string
		task      task.Task
		zoom      Zoom
		width     float64
		wantLeft  float64
		wantWidth float64
	}{
		{"day range", task.Task{ID: "a", StartDate: "2026-01-07", DueDate: "2026-01-09"}, ZoomDay, 40, 80, 120},
		{"day single start", task.Task{ID: "a", StartDate: "2026-01-07"}, ZoomDay, 40, 80, 40},
		{"day single due", task.Task{ID: "a", DueDate: "2026-01-07"}, ZoomDay, 40, 80, 40},
		{"day same start and due", task.Task{ID: "a", StartDate: "2026-01-07", DueDate: "2026-01-07"}, ZoomDay, 40, 80, 40},
		{"invalid start falls back to due", task.Task{ID: "a", StartDate: "??", DueDate: "2026-01-06"}, ZoomDay, 40, 40, 40},
		{"week range", task.Task{ID: "a", StartDate: "2026-01-12", DueDate: "2026-01-25"}, ZoomWeek, 84, 84, 168},
		{"week one day", task.Task{ID: "a", StartDate: "2026-01-12"}, ZoomWeek, 84, 84, 12},
		{"month one day hits minimum", task.Task{ID: "a", DueDate: "2026-01-01"}, ZoomMonth, 120, 0, DefaultMinBarWidth},
		{"month whole month", task.Task{ID: "a", StartDate: "2026-02-01", DueDate: "2026-02-28"}, ZoomMonth, 120, 120, 120},
		{"inverted range is swapped", task.Task{ID: "a", StartDate: "2026-01-09", DueDate: "2026-01-07"}, ZoomDay, 40, 80, 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := LayoutTasks([]task.Task{tt.task}, w, tt.zoom, tt.width, Options{})
			if len(rows) != 1 {
				t.Fatalf("len(rows) = %d, want 1", len(rows))
			}
			b := rows[0].Bar
			if b.Left != tt.wantLeft || b.Width != tt.wantWidth {
				t.Errorf("bar = (left %v, width %v), want (%v, %v)", b.Left, b.Width, tt.wantLeft, tt.wantWidth)
			}
			if b.Width < DefaultMinBarWidth {
				t.Errorf("bar width %v below minimum", b.Width)
			}
		})
	}
}

func TestLayoutTasksRowOrder(t *testing.T) {
	tasks := []task.Task{
		{ID: "b0", ProjectID: "b", Position: 0, StartDate: "2026-01-05"},
		{ID: "a2", ProjectID: "a", Position: 2, StartDate: "2026-01-05"},
		{ID: "undated", ProjectID: "a", Position: 0},
		{ID: "a1", ProjectID: "a", Position: 1, StartDate: "2026-01-20"},
		{ID: "a1-tie", ProjectID: "a", Position: 1, DueDate: "2026-01-06"},
	}
	w := Window{Start: date(2026, 1, 1), End: date(2026, 1, 31)}

	rows := LayoutTasks(tasks, w, ZoomDay, 0, Options{})

	var got []string
	for i, r := range rows {
		got = append(got, r.Task.ID)
		if r.Row != i {
			t.Errorf("rows[%d].Row = %d", i, r.Row)
		}
		wantTop := float64(i)*DefaultRowHeight + (DefaultRowHeight-DefaultBarHeight)/2
		if r.Bar.Top != wantTop || r.Bar.Height != DefaultBarHeight {
			t.Errorf("rows[%d] vertical = (%v, %v), want (%v, %v)", i, r.Bar.Top, r.Bar.Height, wantTop, DefaultBarHeight)
		}
	}
	want := []string{"a1", "a1-tie", "a2", "b0"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("row order = %v, want %v", got, want)
	}
}

func TestLayoutTasksDeterministic(t *testing.T) {
	tasks := sampleTasks()
	w := Window{Start: date(2026, 1, 1), End: date(2026, 3, 1)}

	for _, z := range Zooms {
		first := LayoutTasks(tasks, w, z, 0, Options{})
		for range 5 {
			if again := LayoutTasks(tasks, w, z, 0, Options{}); !reflect.DeepEqual(first, again) {
				t.Fatalf("%s: repeated layout differs", z)
			}
		}
	}
}

func TestRouteDependencyLine(t *testing.T) {
	from := Bar{Left: 100, Width: 50, Top: 6, Height: 24}

	tests := []struct {
		name     string
		to       Bar
		wantKind RouteKind
		wantPath string
	}{
		{
			name:     "target after blocker",
			to:       Bar{Left: 200, Width: 40, Top: 42, Height: 24},
			wantKind: RouteCurve,
			wantPath: "M 150 18 C 175 18, 175 54, 200 54",
		},
		{
			name:     "target overlaps blocker",
			to:       Bar{Left: 120, Width: 40, Top: 42, Height: 24},
			wantKind: RouteDetour,
			wantPath: "M 150 18 H 162 V 36 H 108 V 54 H 120",
		},
		{
			name:     "target starts exactly at blocker end",
			to:       Bar{Left: 150, Width: 40, Top: 42, Height: 24},
			wantKind: RouteCurve,
			wantPath: "M 150 18 C 162 18, 138 54, 150 54",
		},
		{
			name:     "target above blocker",
			to:       Bar{Left: 60, Width: 40, Top: -30, Height: 24},
			wantKind: RouteDetour,
			wantPath: "M 150 18 H 162 V 0 H 48 V -18 H 60",
		},
		{
			name:     "short gap uses gutter as minimum bend",
			to:       Bar{Left: 160, Width: 40, Top: 42, Height: 24},
			wantKind: RouteCurve,
			wantPath: "M 150 18 C 162 18, 148 54, 160 54",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := RouteDependencyLine(from, tt.to, Options{})
			if r.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", r.Kind, tt.wantKind)
			}
			if r.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", r.Path, tt.wantPath)
			}
			first, last := r.Points[0], r.Points[len(r.Points)-1]
			if first.X != from.Right() || last.X != tt.to.Left {
				t.Errorf("endpoints = %v → %v", first, last)
			}
		})
	}
}

func TestBuildBackToBackTasksCurve(t *testing.T) {
	tasks := []task.Task{
		{ID: "a", StartDate: "2026-01-10", DueDate: "2026-01-15"},
		{ID: "e", StartDate: "2026-01-16", DueDate: "2026-01-20", BlockedBy: []string{"a"}},
		{ID: "f", StartDate: "2026-01-14", DueDate: "2026-01-22", BlockedBy: []string{"a"}},
	}
	for _, z := range []Zoom{ZoomDay, ZoomWeek, ZoomMonth} {
		t.Run(string(z), func(t *testing.T) {
			l, err := Build(Request{Tasks: tasks, Zoom: z, Now: date(2026, 1, 12)})
			if err != nil {
				t.Fatal(err)
			}
			kinds := map[string]RouteKind{}
			for _, c := range l.Connectors {
				kinds[c.ToTaskID] = c.Route.Kind
			}
			if kinds["e"] != RouteCurve {
				t.Errorf("a→e (starts the day after a ends) = %s, want curve", kinds["e"])
			}
			if kinds["f"] != RouteDetour {
				t.Errorf("a→f (starts before a ends) = %s, want detour", kinds["f"])
			}
		})
	}
}

func TestRouteDependencies(t *testing.T) {
	tasks := []task.Task{
		{ID: "design", StartDate: "2026-01-05", DueDate: "2026-01-07", Status: task.StatusDone},
		{ID: "build", StartDate: "2026-01-12", DueDate: "2026-01-16", BlockedBy: []string{"design"}},
		{ID: "launch", DueDate: "2026-01-14"},
		{ID: "party"},
	}
	deps := []task.Dependency{
		{TaskID: "launch", BlockedByID: "build"},
		{TaskID: "party", BlockedByID: "launch"},
	}
	w := Window{Start: date(2026, 1, 5), End: date(2026, 1, 20)}
	rows := LayoutTasks(tasks, w, ZoomDay, 40, Options{})
	edges := task.Snapshot{Tasks: tasks, Dependencies: deps}.Edges()

	conns := RouteDependencies(rows, edges, Options{})
	if len(conns) != 2 {
		t.Fatalf("len(connectors) = %d, want 2 (undated edge skipped)", len(conns))
	}

	byTarget := map[string]Connector{}
	for _, c := range conns {
		byTarget[c.ToTaskID] = c
	}
	if c := byTarget["build"]; c.FromTaskID != "design" || !c.IsComplete || c.Route.Kind != RouteCurve {
		t.Errorf("design→build = %+v", c)
	}
	if c := byTarget["launch"]; c.FromTaskID != "build" || c.IsComplete || c.Route.Kind != RouteDetour {
		t.Errorf("build→launch = %+v", c)
	}
}

func TestTodayMarkerOffset(t *testing.T) {
	w := Window{Start: date(2026, 1, 5), End: date(2026, 1, 11)}

	tests := []struct {
		name   string
		zoom   Zoom
		width  float64
		now    int // day of January
		want   float64
		wantOK bool
	}{
		{"day middle of column", ZoomDay, 40, 7, 100, true},
		{"day first", ZoomDay, 40, 5, 20, true},
		{"week", ZoomWeek, 84, 7, 30, true},
		{"before window", ZoomDay, 40, 4, 0, false},
		{"after window", ZoomDay, 40, 20, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TodayMarkerOffset(w, tt.zoom, tt.width, date(2026, 1, tt.now).Add(15*3600e9))
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("TodayMarkerOffset = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	tasks := sampleTasks()
	req := Request{
		Tasks: tasks,
		Zoom:  ZoomWeek,
		Now:   date(2026, 1, 14),
	}

	l, err := Build(req)
	if err != nil {
		t.Fatal(err)
	}

	if l.ColumnWidth != DefaultWeekWidth {
		t.Errorf("ColumnWidth = %v", l.ColumnWidth)
	}
	if l.Window.Source != WindowInferred {
		t.Errorf("Window.Source = %s", l.Window.Source)
	}
	if len(l.Undated) != 1 || l.Undated[0].ID != "someday" {
		t.Errorf("Undated = %v", l.Undated)
	}
	if _, ok := l.Row("someday"); ok {
		t.Error("undated task was given a row")
	}
	if l.Today == nil {
		t.Error("Today marker should be visible")
	}
	if l.Width != float64(len(l.Columns))*DefaultWeekWidth {
		t.Errorf("Width = %v", l.Width)
	}
	if want := DefaultHeaderHeight + float64(len(l.Rows))*DefaultRowHeight; l.Height != want {
		t.Errorf("Height = %v, want %v", l.Height, want)
	}
	if len(l.Connectors) != 2 {
		t.Errorf("len(Connectors) = %d, want 2", len(l.Connectors))
	}

	var invalid int
	for _, d := range l.Diagnostics {
		if d.Kind == DiagInvalidDate {
			invalid++
			if d.TaskID != "typo" || d.Field != "due_date" {
				t.Errorf("diagnostic = %+v", d)
			}
		}
	}
	if invalid != 1 {
		t.Errorf("invalid date diagnostics = %d, want 1", invalid)
	}

	again, _ := Build(req)
	if !reflect.DeepEqual(l, again) {
		t.Error("Build is not deterministic")
	}
}

func TestBuildDefaultWindow(t *testing.T) {
	l, err := Build(Request{Tasks: []task.Task{{ID: "x"}}, Zoom: ZoomDay, Now: date(2026, 6, 1)})
	if err != nil {
		t.Fatal(err)
	}
	if l.Window.Source != WindowDefault {
		t.Errorf("Source = %s, want default", l.Window.Source)
	}
	if len(l.Rows) != 0 || len(l.Undated) != 1 {
		t.Errorf("rows = %d, undated = %d", len(l.Rows), len(l.Undated))
	}
	if len(l.Diagnostics) != 1 || l.Diagnostics[0].Kind != DiagDefaultWindow {
		t.Errorf("Diagnostics = %+v", l.Diagnostics)
	}
	if len(l.Columns) != DefaultPaddingDays+DefaultHorizonDays+1 {
		t.Errorf("len(Columns) = %d", len(l.Columns))
	}
}

func TestBuildErrors(t *testing.T) {
	now := date(2026, 1, 1)
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"bad zoom", Request{Zoom: "year", Now: now}, ErrInvalidZoom},
		{"negative width", Request{Zoom: ZoomDay, ColumnWidth: -1, Now: now}, ErrInvalidColumnWidth},
		{"missing now", Request{Zoom: ZoomDay}, ErrMissingNow},
		{"bad options", Request{Zoom: ZoomDay, Now: now, Options: Options{RowHeight: 10, BarHeight: 20}}, ErrInvalidOptions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Build(tt.req); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func sampleTasks() []task.Task {
	return []task.Task{
		{ID: "design", ProjectID: "web", Position: 0, StartDate: "2026-01-05", DueDate: "2026-01-09", Status: task.StatusDone},
		{ID: "build", ProjectID: "web", Position: 1, StartDate: "2026-01-12", DueDate: "2026-01-30", BlockedBy: []string{"design"}},
		{ID: "launch", ProjectID: "web", Position: 2, DueDate: "2026-02-02", BlockedBy: []string{"build"}},
		{ID: "typo", ProjectID: "web", Position: 3, StartDate: "2026-01-20", DueDate: "2026-02-31"},
		{ID: "someday", ProjectID: "web", Position: 4},
	}
}
