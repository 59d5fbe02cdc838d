package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackplan/pkg/buildinfo"
	"github.com/matzehuels/stackplan/pkg/cache"
	"github.com/matzehuels/stackplan/pkg/config"
	"github.com/matzehuels/stackplan/pkg/pipeline"
	"github.com/matzehuels/stackplan/pkg/store"
	"github.com/matzehuels/stackplan/pkg/store/mongo"
	"github.com/matzehuels/stackplan/pkg/store/postgres"
	"github.com/matzehuels/stackplan/pkg/store/sqlite"
	"github.com/matzehuels/stackplan/pkg/timeline"
)

// =============================================================================
// Constants
// =============================================================================

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   config.AppName,
		Short: "Stackplan lays out task plans as dependency-aware timelines",
		Long: `Stackplan keeps a plan's blocked-by relationships acyclic and lays the
plan out as a Gantt timeline with day, week or month columns.

Plans are JSON or YAML datasets; the serve command exposes the same
operations over HTTP on top of a sqlite, postgres or mongo store.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/stackplan/config.toml)")

	root.AddCommand(c.checkCommand())
	root.AddCommand(c.depCommand())
	root.AddCommand(c.taskCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// config loads the configuration once per process.
func (c *CLI) config() (config.Config, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	cfg, err := config.LoadOrDefault(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	c.cfg = &cfg
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. Without a configured
// cache driver the CLI falls back to the file cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	cc := cfg.Cache
	if cc.Driver == config.CacheNone {
		cc.Driver = config.CacheFile
	}
	if noCache {
		cc.Driver = config.CacheNone
	}
	cache, err := openCache(ctx, cc)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func openCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Driver {
	case config.CacheFile:
		dir := cfg.Dir
		if dir == "" {
			d, err := config.CacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
			dir = d
		}
		return cache.NewFileCache(dir)
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{URL: cfg.RedisURL, Prefix: cfg.Prefix})
	}
	return cache.NewNullCache(), nil
}

// =============================================================================
// Store Factory
// =============================================================================

// openStore opens the store selected by cfg.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.StoreMemory:
		return store.NewMemoryStore(), nil
	case config.StoreFile:
		return store.OpenFileStore(cfg.DSN)
	case config.StoreSQLite:
		return sqlite.Open(ctx, cfg.DSN)
	case config.StorePostgres:
		return postgres.Open(ctx, cfg.DSN)
	case config.StoreMongo:
		return mongo.Open(ctx, cfg.DSN, cfg.Database)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

// =============================================================================
// Options Helpers
// =============================================================================

// timelineFlags are the layout flags shared by layout, render, view and watch.
type timelineFlags struct {
	project     string
	zoom        string
	start       string
	end         string
	now         string
	columnWidth float64
}

func (f *timelineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.project, "project", "p", "", "only lay out tasks of this project")
	cmd.Flags().StringVarP(&f.zoom, "zoom", "z", "", "column granularity: day, week, month (default from config)")
	cmd.Flags().StringVar(&f.start, "start", "", "first day of the window (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "last day of the window (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.now, "now", "", "clock reading to lay out for (RFC 3339 or YYYY-MM-DD, default: current time)")
	cmd.Flags().Float64Var(&f.columnWidth, "column-width", 0, "column width in pixels (default from config)")
}

// options builds pipeline options from the flags on top of the config's
// timeline defaults.
func (f *timelineFlags) options(cfg config.TimelineConfig, logger *log.Logger) (pipeline.Options, error) {
	now, err := parseNow(f.now)
	if err != nil {
		return pipeline.Options{}, err
	}
	zoom := f.zoom
	if zoom == "" {
		zoom = cfg.Zoom
	}
	opts := pipeline.Options{
		ProjectID:   f.project,
		Zoom:        zoom,
		Start:       f.start,
		End:         f.end,
		ColumnWidth: f.columnWidth,
		Timeline:    cfg.Options,
		Now:         now,
		Logger:      logger,
	}
	if opts.ColumnWidth == 0 {
		if z, err := timeline.ParseZoom(zoom); err == nil {
			opts.ColumnWidth = cfg.ColumnWidth(z)
		}
	}
	return opts, nil
}

func parseNow(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := timeline.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q: want RFC 3339 or YYYY-MM-DD", s)
	}
	return t, nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// outputBase returns the path outputs are written next to: the -o value
// or the input path without its extension.
func outputBase(input, output string) string {
	if output != "" {
		return strings.TrimSuffix(output, filepath.Ext(output))
	}
	return strings.TrimSuffix(input, filepath.Ext(input))
}
