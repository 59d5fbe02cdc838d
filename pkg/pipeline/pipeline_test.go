package pipeline

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/stackplan/pkg/cache"
	"github.com/matzehuels/stackplan/pkg/errors"
	"github.com/matzehuels/stackplan/pkg/observability"
	"github.com/matzehuels/stackplan/pkg/task"
)

var now = time.Date(2026, 1, 7, 9, 30, 0, 0, time.UTC)

func sampleSnapshot() task.Snapshot {
	return task.Snapshot{
		Tasks: []task.Task{
			{ID: "design", Title: "Design", Status: task.StatusDone, StartDate: "2026-01-05", DueDate: "2026-01-07", ProjectID: "web"},
			{ID: "build", Title: "Build", StartDate: "2026-01-08", DueDate: "2026-01-14", ProjectID: "web", Position: 1},
			{ID: "ship", Title: "Ship", DueDate: "soon", ProjectID: "web", Position: 2},
			{ID: "infra", Title: "Infra", StartDate: "2026-01-06", ProjectID: "ops"},
		},
		Dependencies: []task.Dependency{
			{TaskID: "build", BlockedByID: "design"},
			{TaskID: "ship", BlockedByID: "build"},
		},
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"json", false},
		{"dot", false},
		{"png", false},
		{"pdf", false},
		{"SVG", true},
		{"gif", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s", tt.format, errors.GetCode(err))
		}
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	opts := Options{Now: now}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Zoom != "week" || opts.Style != DefaultStyle || opts.Scale != DefaultScale {
		t.Errorf("defaults not applied: %+v", opts)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v", opts.Formats)
	}
	if opts.Timeline.RowHeight == 0 || opts.Logger == nil {
		t.Error("timeline defaults or logger missing")
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second call: %v", err)
	}
}

func TestValidateAndSetDefaultsErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"missing now", Options{}, errors.ErrCodeInvalidInput},
		{"bad zoom", Options{Now: now, Zoom: "year"}, errors.ErrCodeInvalidZoom},
		{"bad start", Options{Now: now, Start: "next week"}, errors.ErrCodeInvalidDate},
		{"bad end", Options{Now: now, End: "2026-02-30"}, errors.ErrCodeInvalidDate},
		{"negative width", Options{Now: now, ColumnWidth: -1}, errors.ErrCodeInvalidInput},
		{"bad format", Options{Now: now, Formats: []string{"svg", "gif"}}, errors.ErrCodeInvalidFormat},
		{"bad style", Options{Now: now, Style: "neon"}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := Options{Now: now}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	seen := map[cache.ArtifactKeyOpts]bool{}
	for _, f := range Formats {
		k := opts.ArtifactKeyOpts(f)
		if seen[k] {
			t.Errorf("duplicate key opts for %s: %+v", f, k)
		}
		seen[k] = true
	}

	interactive := opts
	interactive.Interactive = true
	if opts.ArtifactKeyOpts(FormatSVG) == interactive.ArtifactKeyOpts(FormatSVG) {
		t.Error("interactive svg shares a key with static svg")
	}
	if opts.ArtifactKeyOpts(FormatJSON) != interactive.ArtifactKeyOpts(FormatJSON) {
		t.Error("interactive flag changed the json key")
	}
}

func TestExecute(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), sampleSnapshot(), Options{
		Now:     now,
		Zoom:    "day",
		Formats: []string{FormatSVG, FormatJSON, FormatDOT},
	})
	if err != nil {
		t.Fatal(err)
	}

	if res.Stats.TaskCount != 4 || res.Stats.EdgeCount != 2 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if res.Stats.RowCount != 3 || res.Stats.UndatedCount != 1 {
		t.Errorf("rows = %d undated = %d, want 3 and 1", res.Stats.RowCount, res.Stats.UndatedCount)
	}
	if !strings.Contains(string(res.Artifacts[FormatSVG]), `id="bar-build"`) {
		t.Error("svg missing build bar")
	}
	if !strings.Contains(string(res.Artifacts[FormatJSON]), `"zoom": "day"`) {
		t.Error("json missing zoom")
	}
	if !strings.Contains(string(res.Artifacts[FormatDOT]), `"build" -> "ship"`) {
		t.Error("dot missing edge to undated task")
	}
	if res.SnapshotHash == "" {
		t.Error("SnapshotHash empty")
	}
}

func TestExecuteProjectFilter(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), sampleSnapshot(), Options{Now: now, ProjectID: "ops", Formats: []string{FormatJSON}})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Snapshot.Tasks) != 1 || res.Layout.Rows[0].Task.ID != "infra" {
		t.Errorf("project filter not applied: %+v", res.Snapshot.Tasks)
	}
}

type cacheRecorder struct {
	observability.NoopCacheHooks
	mu   sync.Mutex
	hits map[string]int
	miss map[string]int
}

func (c *cacheRecorder) OnCacheHit(_ context.Context, keyType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits[keyType]++
}

func (c *cacheRecorder) OnCacheMiss(_ context.Context, keyType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.miss[keyType]++
}

func TestRunnerCaching(t *testing.T) {
	rec := &cacheRecorder{hits: map[string]int{}, miss: map[string]int{}}
	observability.SetCacheHooks(rec)
	defer observability.Reset()

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil)
	ctx := context.Background()
	s := sampleSnapshot()
	opts := Options{Now: now, Formats: []string{FormatSVG, FormatJSON}}

	first, err := r.Execute(ctx, s, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.LayoutHit || first.CacheInfo.RenderHit {
		t.Fatalf("cold run hit cache: %+v", first.CacheInfo)
	}

	// Later the same day: everything is served from cache.
	opts.Now = now.Add(6 * time.Hour)
	second, err := r.Execute(ctx, s, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.LayoutHit || !second.CacheInfo.RenderHit {
		t.Errorf("warm run missed cache: %+v", second.CacheInfo)
	}
	if string(first.Artifacts[FormatSVG]) != string(second.Artifacts[FormatSVG]) {
		t.Error("cached svg differs")
	}

	// The next day moves the today marker, so the layout is recomputed.
	opts.Now = now.AddDate(0, 0, 1)
	third, err := r.Execute(ctx, s, opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.LayoutHit {
		t.Error("layout cached across days")
	}

	// A changed snapshot misses.
	s.Tasks[1].DueDate = "2026-01-20"
	opts.Now = now
	fourth, err := r.Execute(ctx, s, opts)
	if err != nil {
		t.Fatal(err)
	}
	if fourth.CacheInfo.LayoutHit {
		t.Error("layout cached across snapshot change")
	}

	opts.Refresh = true
	fifth, err := r.Execute(ctx, s, opts)
	if err != nil {
		t.Fatal(err)
	}
	if fifth.CacheInfo.LayoutHit || fifth.CacheInfo.RenderHit {
		t.Error("Refresh read from cache")
	}

	if rec.hits["layout"] != 1 || rec.hits["artifact"] != 1 {
		t.Errorf("hits = %v", rec.hits)
	}
	if rec.miss["layout"] != 4 {
		t.Errorf("layout misses = %d, want 4", rec.miss["layout"])
	}
}

func TestForProjectScopesKeys(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil)
	ctx := context.Background()
	s := sampleSnapshot()
	opts := Options{Now: now, Formats: []string{FormatJSON}}

	if _, err := r.ForProject("web").Layout(ctx, s, opts); err != nil {
		t.Fatal(err)
	}
	_, hit, err := r.ForProject("ops").LayoutWithCacheInfo(ctx, s, opts)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("project scopes share cache entries")
	}
	_, hit, _ = r.ForProject("web").LayoutWithCacheInfo(ctx, s, opts)
	if !hit {
		t.Error("same project missed cache")
	}
}

type pipelineRecorder struct {
	observability.NoopPipelineHooks
	mu      sync.Mutex
	invalid []string
	windows int
}

func (p *pipelineRecorder) OnInvalidDate(_ context.Context, taskID, field, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalid = append(p.invalid, taskID+"."+field+"="+value)
}

func (p *pipelineRecorder) OnDefaultWindow(context.Context, time.Time, time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.windows++
}

func TestDiagnosticsReachHooks(t *testing.T) {
	rec := &pipelineRecorder{}
	observability.SetPipelineHooks(rec)
	defer observability.Reset()

	r := NewRunner(nil, nil, nil)
	if _, err := r.Layout(context.Background(), sampleSnapshot(), Options{Now: now}); err != nil {
		t.Fatal(err)
	}
	if len(rec.invalid) != 1 || rec.invalid[0] != "ship.due_date=soon" {
		t.Errorf("invalid dates = %v", rec.invalid)
	}

	undated := task.Snapshot{Tasks: []task.Task{{ID: "a", Title: "A"}}}
	if _, err := r.Layout(context.Background(), undated, Options{Now: now}); err != nil {
		t.Fatal(err)
	}
	if rec.windows != 1 {
		t.Errorf("default window reported %d times", rec.windows)
	}
}

func TestSnapshotHash(t *testing.T) {
	a := sampleSnapshot()
	b := sampleSnapshot()
	ha, _ := SnapshotHash(a)
	hb, _ := SnapshotHash(b)
	if ha != hb {
		t.Error("equal snapshots hash differently")
	}

	// The raw BlockedBy field is hashed along with the merged edges.
	b.Dependencies = b.Dependencies[:1]
	b.Tasks[2].BlockedBy = []string{"build"}
	hb, _ = SnapshotHash(b)
	if ha == hb {
		t.Error("BlockedBy field is not part of the hash")
	}
}
