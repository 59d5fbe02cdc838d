package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/matzehuels/stackplan/pkg/cache"
	"github.com/matzehuels/stackplan/pkg/config"
	"github.com/matzehuels/stackplan/pkg/errors"
	"github.com/matzehuels/stackplan/pkg/io"
	"github.com/matzehuels/stackplan/pkg/render/gantt"
	"github.com/matzehuels/stackplan/pkg/store"
	"github.com/matzehuels/stackplan/pkg/task"
	"github.com/matzehuels/stackplan/pkg/timeline"
)

func samplePlan() task.Snapshot {
	return task.Snapshot{
		Tasks: []task.Task{
			{ID: "a", Title: "Design", Status: task.StatusDone, StartDate: "2026-01-05", DueDate: "2026-01-09", Position: 0},
			{ID: "b", Title: "Build", Status: task.StatusInProgress, StartDate: "2026-01-12", DueDate: "2026-01-16", Position: 1},
			{ID: "c", Title: "Launch", Position: 2},
		},
		Dependencies: []task.Dependency{{TaskID: "b", BlockedByID: "a"}},
	}
}

// writePlan writes the sample plan into a temp dir and isolates the XDG
// directories so that no user config or cache is read.
func writePlan(t *testing.T, name string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	path := filepath.Join(dir, name)
	if err := io.ExportFile(samplePlan(), path); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	var logs bytes.Buffer
	root := New(&logs, LogInfo).RootCommand()
	root.SetArgs(args)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	return root.ExecuteContext(context.Background())
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"svg"}},
		{"svg", []string{"svg"}},
		{"svg, png,dot", []string{"svg", "png", "dot"}},
	}
	for _, tt := range tests {
		if got := parseFormats(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseNow(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2026-01-10", time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), false},
		{"2026-01-10T15:04:05Z", time.Date(2026, 1, 10, 15, 4, 5, 0, time.UTC), false},
		{"yesterday", time.Time{}, true},
	}
	for _, tt := range tests {
		got, err := parseNow(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseNow(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && !got.Equal(tt.want) {
			t.Errorf("parseNow(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if got, _ := parseNow(""); got.IsZero() {
		t.Error("empty --now should read the clock")
	}
}

func TestTimelineFlagsOptions(t *testing.T) {
	cfg := config.Default().Timeline
	cfg.DayWidth = 33

	tests := []struct {
		name      string
		flags     timelineFlags
		wantZoom  string
		wantWidth float64
	}{
		{"config zoom", timelineFlags{now: "2026-01-10"}, "week", cfg.WeekWidth},
		{"day zoom width", timelineFlags{zoom: "day", now: "2026-01-10"}, "day", 33},
		{"explicit width", timelineFlags{zoom: "day", columnWidth: 50, now: "2026-01-10"}, "day", 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := tt.flags.options(cfg, nil)
			if err != nil {
				t.Fatal(err)
			}
			if opts.Zoom != tt.wantZoom || opts.ColumnWidth != tt.wantWidth {
				t.Errorf("zoom=%q width=%v, want %q %v", opts.Zoom, opts.ColumnWidth, tt.wantZoom, tt.wantWidth)
			}
			if opts.Now.IsZero() {
				t.Error("now not set")
			}
		})
	}

	if _, err := (&timelineFlags{now: "soon"}).options(cfg, nil); err == nil {
		t.Error("invalid --now accepted")
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "plan.json")
	artifacts := map[string][]byte{"svg": []byte("<svg/>"), "json": []byte("{}"), "dot": []byte("digraph{}")}

	tests := []struct {
		name    string
		formats []string
		output  string
		want    []string
	}{
		{"next to input", []string{"svg", "json"}, "", []string{"plan.layout.json", "plan.svg"}},
		{"single named output", []string{"dot"}, filepath.Join(dir, "graph.gv"), []string{"graph.gv"}},
		{"base path", []string{"dot", "svg"}, filepath.Join(dir, "out"), []string{"out.dot", "out.svg"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths, err := writeArtifacts(artifacts, tt.formats, input, tt.output)
			if err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, p := range paths {
				got = append(got, filepath.Base(p))
				if _, err := os.Stat(p); err != nil {
					t.Errorf("%s not written: %v", p, err)
				}
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("paths = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		cfg     config.StoreConfig
		wantErr bool
	}{
		{config.StoreConfig{Driver: config.StoreMemory}, false},
		{config.StoreConfig{Driver: config.StoreFile, DSN: filepath.Join(dir, "plan.yaml")}, false},
		{config.StoreConfig{Driver: config.StoreSQLite, DSN: filepath.Join(dir, "plan.db")}, false},
		{config.StoreConfig{Driver: config.StoreFile, DSN: filepath.Join(dir, "plan.txt")}, true},
		{config.StoreConfig{Driver: "etcd"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.cfg.Driver, func(t *testing.T) {
			s, err := openStore(ctx, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("openStore(%+v) error = %v, wantErr %v", tt.cfg, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer s.Close()
			if err := store.Seed(ctx, s, samplePlan()); err != nil {
				t.Fatal(err)
			}
			snap, err := store.Load(ctx, s, "")
			if err != nil || len(snap.Tasks) != 3 || len(snap.Dependencies) != 1 {
				t.Errorf("Load = %d tasks, %d deps, %v", len(snap.Tasks), len(snap.Dependencies), err)
			}
		})
	}
}

func TestOpenCache(t *testing.T) {
	ctx := context.Background()

	c, err := openCache(ctx, config.CacheConfig{Driver: config.CacheNone})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(cache.NullCache); !ok {
		t.Errorf("none driver gave %T", c)
	}

	dir := filepath.Join(t.TempDir(), "layouts")
	c, err = openCache(ctx, config.CacheConfig{Driver: config.CacheFile, Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	fc, ok := c.(*cache.FileCache)
	if !ok || fc.Dir() != dir {
		t.Errorf("file driver gave %T", c)
	}
}

func TestCheckCommand(t *testing.T) {
	plan := writePlan(t, "plan.yaml")

	if err := execute(t, "check", plan, "c", "b"); err != nil {
		t.Errorf("safe edge rejected: %v", err)
	}
	err := execute(t, "check", plan, "a", "b")
	if !errors.Is(err, errors.ErrCodeCycleRejected) {
		t.Errorf("cycle: got %v, want CYCLE_REJECTED", err)
	}
	if err := execute(t, "check", plan, "a", "zz"); !errors.Is(err, errors.ErrCodeUnknownTask) {
		t.Errorf("unknown blocker: got %v", err)
	}
}

func TestDepCommands(t *testing.T) {
	plan := writePlan(t, "plan.json")

	if err := execute(t, "dep", "add", plan, "c", "b"); err != nil {
		t.Fatal(err)
	}
	if err := execute(t, "dep", "add", plan, "a", "c"); !errors.Is(err, errors.ErrCodeCycleRejected) {
		t.Fatalf("cycle: got %v", err)
	}
	if err := execute(t, "dep", "ls", plan, "b"); err != nil {
		t.Fatal(err)
	}

	snap, err := io.ImportFile(plan)
	if err != nil {
		t.Fatal(err)
	}
	want := []task.Dependency{{TaskID: "b", BlockedByID: "a"}, {TaskID: "c", BlockedByID: "b"}}
	if got := snap.Edges(); !slices.Equal(got, want) {
		t.Errorf("edges after add = %v, want %v", got, want)
	}

	if err := execute(t, "dep", "rm", plan, "b", "a"); err != nil {
		t.Fatal(err)
	}
	snap, _ = io.ImportFile(plan)
	if got := snap.Edges(); !slices.Equal(got, want[1:]) {
		t.Errorf("edges after rm = %v, want %v", got, want[1:])
	}
}

func TestTaskCommands(t *testing.T) {
	plan := writePlan(t, "plan.yaml")

	err := execute(t, "task", "add", plan, "--id", "d", "--title", "Docs",
		"--start", "2026-01-19", "--blocked-by", "b", "--hours", "4")
	if err != nil {
		t.Fatal(err)
	}
	snap, _ := io.ImportFile(plan)
	d, ok := snap.Task("d")
	if !ok {
		t.Fatal("task d not saved")
	}
	if d.Position != 3 || d.EstimatedHours == nil || *d.EstimatedHours != 4 {
		t.Errorf("saved task = %+v", d)
	}
	if !slices.Contains(snap.Edges(), task.Dependency{TaskID: "d", BlockedByID: "b"}) {
		t.Error("blocker edge not saved")
	}

	if err := execute(t, "task", "add", plan, "--title", "Generated"); err != nil {
		t.Fatal(err)
	}
	snap, _ = io.ImportFile(plan)
	if len(snap.Tasks) != 5 {
		t.Errorf("got %d tasks, want 5", len(snap.Tasks))
	}

	if err := execute(t, "task", "add", plan, "--title", "Bad", "--start", "someday"); !errors.Is(err, errors.ErrCodeInvalidDate) {
		t.Errorf("bad date: got %v", err)
	}
	if err := execute(t, "task", "ls", plan); err != nil {
		t.Error(err)
	}

	if err := execute(t, "task", "rm", plan, "b"); err != nil {
		t.Fatal(err)
	}
	snap, _ = io.ImportFile(plan)
	for _, e := range snap.Edges() {
		if e.TaskID == "b" || e.BlockedByID == "b" {
			t.Errorf("edge %v survived task removal", e)
		}
	}
	if err := execute(t, "task", "rm", plan, "b"); !errors.Is(err, errors.ErrCodeUnknownTask) {
		t.Errorf("second rm: got %v", err)
	}
}

func TestLayoutCommand(t *testing.T) {
	plan := writePlan(t, "plan.yaml")
	out := filepath.Join(filepath.Dir(plan), "out.json")

	if err := execute(t, "layout", plan, "--now", "2026-01-10", "--zoom", "day", "-o", out); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	l, err := gantt.ParseJSON(data)
	if err != nil {
		t.Fatal(err)
	}
	if l.Zoom != timeline.ZoomDay || len(l.Rows) != 2 || len(l.Undated) != 1 {
		t.Errorf("layout zoom=%s rows=%d undated=%d", l.Zoom, len(l.Rows), len(l.Undated))
	}
}

func TestRenderCommand(t *testing.T) {
	plan := writePlan(t, "plan.yaml")
	base := filepath.Join(filepath.Dir(plan), "plan")

	if err := execute(t, "render", plan, "-f", "svg,dot,json", "--now", "2026-01-10", "--no-cache"); err != nil {
		t.Fatal(err)
	}
	for _, suffix := range []string{".svg", ".dot", ".layout.json"} {
		if _, err := os.Stat(base + suffix); err != nil {
			t.Errorf("missing %s: %v", suffix, err)
		}
	}

	if err := execute(t, "render", plan, "-f", "gif", "--now", "2026-01-10"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("bad format: got %v", err)
	}
}

func TestCompletionCommand(t *testing.T) {
	root := New(&bytes.Buffer{}, LogInfo).RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"completion", "fish"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(out.Bytes(), []byte("stackplan")) {
		t.Error("completion script does not mention stackplan")
	}
}
