package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackplan/pkg/cache"
	"github.com/matzehuels/stackplan/pkg/observability"
	"github.com/matzehuels/stackplan/pkg/task"
	"github.com/matzehuels/stackplan/pkg/timeline"
)

// Runner executes the pipeline with caching. It holds no per-run state, so
// one Runner may serve concurrent requests.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching and a nil keyer
// selects the default keyer.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// ForProject returns a runner sharing r's cache whose keys are scoped to
// one project.
func (r *Runner) ForProject(projectID string) *Runner {
	return &Runner{
		Cache:  r.Cache,
		Keyer:  cache.ProjectKeyer(r.Keyer, projectID),
		Logger: r.Logger.With("project", projectID),
	}
}

// Execute runs layout and render for a snapshot.
func (r *Runner) Execute(ctx context.Context, s task.Snapshot, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if opts.ProjectID != "" {
		s = s.ForProject(opts.ProjectID)
	}

	hash, err := SnapshotHash(s)
	if err != nil {
		return nil, err
	}
	result := &Result{
		Snapshot:     s,
		SnapshotHash: hash,
		Stats: Stats{
			TaskCount: len(s.Tasks),
			EdgeCount: len(s.Edges()),
		},
	}

	layoutStart := time.Now()
	l, layoutHit, err := r.LayoutWithCacheInfo(ctx, s, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.RowCount = len(l.Rows)
	result.Stats.UndatedCount = len(l.Undated)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"rows", len(l.Rows),
		"undated", len(l.Undated),
		"connectors", len(l.Connectors),
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, s, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LayoutWithCacheInfo computes the layout, consulting the cache first, and
// reports whether it was a cache hit.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, s task.Snapshot, opts Options) (*timeline.Layout, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	hash, err := SnapshotHash(s)
	if err != nil {
		return nil, false, err
	}
	key := r.Keyer.LayoutKey(hash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cached timeline.Layout
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return &cached, true, nil
			}
		} else if err != nil {
			r.Logger.Warn("cache read failed", "key", key, "error", err)
		}
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnLayoutStart(ctx, opts.Zoom, len(s.Tasks))
	l, err := BuildLayout(s, opts)
	if err != nil {
		hooks.OnLayoutComplete(ctx, opts.Zoom, 0, time.Since(start), err)
		return nil, false, err
	}
	hooks.OnLayoutComplete(ctx, opts.Zoom, len(l.Rows), time.Since(start), nil)
	reportDiagnostics(ctx, opts.Logger, l)

	if data, err := json.Marshal(l); err == nil {
		r.store(ctx, key, "layout", data, cache.TTLLayout)
	}
	return l, false, nil
}

// Layout computes the layout with caching.
func (r *Runner) Layout(ctx context.Context, s task.Snapshot, opts Options) (*timeline.Layout, error) {
	l, _, err := r.LayoutWithCacheInfo(ctx, s, opts)
	return l, err
}

// RenderWithCacheInfo renders all requested formats. It reports a hit only
// when every format came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l *timeline.Layout, s task.Snapshot, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	base, err := artifactBase(l, s)
	if err != nil {
		return nil, false, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	if !opts.Refresh {
		for _, format := range opts.Formats {
			data, hit, err := r.Cache.Get(ctx, r.Keyer.ArtifactKey(base, opts.ArtifactKeyOpts(format)))
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return artifacts, true, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnRenderStart(ctx, opts.Formats)
	rendered, err := Render(l, s, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		r.store(ctx, r.Keyer.ArtifactKey(base, opts.ArtifactKeyOpts(format)), "artifact", data, cache.TTLArtifact)
	}
	return rendered, false, nil
}

// Render renders with caching.
func (r *Runner) Render(ctx context.Context, l *timeline.Layout, s task.Snapshot, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, s, opts)
	return artifacts, err
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) store(ctx context.Context, key, keyType string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// SnapshotHash is the content hash of a snapshot. Task order is part of
// the hash because it breaks row ordering ties.
func SnapshotHash(s task.Snapshot) (string, error) {
	h, err := cache.HashJSON(struct {
		Tasks []task.Task       `json:"tasks"`
		Edges []task.Dependency `json:"edges"`
	}{s.Tasks, s.Edges()})
	if err != nil {
		return "", fmt.Errorf("hash snapshot: %w", err)
	}
	return h, nil
}

// artifactBase keys artifacts by layout and snapshot. The dot format
// depends on edges between undated tasks, which the layout omits.
func artifactBase(l *timeline.Layout, s task.Snapshot) (string, error) {
	lh, err := cache.HashJSON(l)
	if err != nil {
		return "", fmt.Errorf("hash layout: %w", err)
	}
	sh, err := SnapshotHash(s)
	if err != nil {
		return "", err
	}
	return cache.Hash([]byte(lh + sh)), nil
}
