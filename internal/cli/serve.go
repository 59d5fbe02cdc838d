package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackplan/internal/api"
	"github.com/matzehuels/stackplan/pkg/io"
	"github.com/matzehuels/stackplan/pkg/pipeline"
	"github.com/matzehuels/stackplan/pkg/service"
	"github.com/matzehuels/stackplan/pkg/store"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr string
		seed string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the timeline and dependency API over HTTP.

The store, cache and listen address come from the config file. --seed loads
a plan file into the store before serving, which is mostly useful with the
memory store.

Endpoints:
  GET    /healthz
  GET    /projects/{project}/timeline          layout JSON
  GET    /projects/{project}/timeline.svg      rendered timeline
  GET    /projects/{project}/graph.dot         dependency graph
  GET    /projects/{project}/tasks/{task}/dependencies
  POST   /projects/{project}/tasks/{task}/dependencies
  POST   /projects/{project}/tasks/{task}/dependencies/check
  DELETE /projects/{project}/tasks/{task}/dependencies/{blocker}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, seed)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&seed, "seed", "", "plan file to load into the store first")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, seed string) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	defer st.Close()
	c.Logger.Info("opened store", "driver", cfg.Store.Driver)

	if seed != "" {
		snap, err := io.ImportFile(seed)
		if err != nil {
			return fmt.Errorf("load seed %s: %w", seed, err)
		}
		if err := store.Seed(ctx, st, snap); err != nil {
			return fmt.Errorf("seed store: %w", err)
		}
		c.Logger.Info("seeded store", "plan", seed, "tasks", len(snap.Tasks))
	}

	cc, err := openCache(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("open %s cache: %w", cfg.Cache.Driver, err)
	}
	runner := pipeline.NewRunner(cc, nil, c.Logger)
	defer runner.Close()

	srv := api.NewServer(service.New(st, runner, c.Logger),
		api.WithLogger(c.Logger),
		api.WithTimeout(time.Duration(cfg.Server.RequestTimeout)*time.Second),
		api.WithTimelineDefaults(cfg.Timeline.Options),
	)
	printInfo("Listening on %s", StyleHighlight.Render(addr))
	return srv.ListenAndServe(ctx, addr)
}
