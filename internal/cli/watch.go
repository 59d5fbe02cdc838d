package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackplan/pkg/io"
	"github.com/matzehuels/stackplan/pkg/pipeline"
)

// watchDebounce collapses the bursts of events editors produce on save.
const watchDebounce = 200 * time.Millisecond

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		flags timelineFlags
		ro    renderOpts
	)

	cmd := &cobra.Command{
		Use:   "watch [plan]",
		Short: "Re-render a plan whenever the file changes",
		Long: `Render a plan file, then watch it and render again after every change.

Takes the same flags as render. A plan that fails to load while it is being
edited is reported and skipped; the previous outputs stay in place. The
clock is read again on every render, so the today marker moves with time.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWatch(cmd.Context(), args[0], flags, ro)
		},
	}

	flags.register(cmd)
	ro.register(cmd)
	return cmd
}

func (c *CLI) runWatch(ctx context.Context, input string, flags timelineFlags, ro renderOpts) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	// Validate the flags once up front so that typos fail fast.
	if _, err := flags.options(cfg.Timeline, c.Logger); err != nil {
		return err
	}
	if err := pipeline.ValidateFormats(parseFormats(ro.formats)); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, ro.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	abs, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	// Watch the directory: editors often replace the file on save.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	logger := loggerFromContext(ctx)
	render := func() {
		p := newProgress(logger)
		snap, err := io.ImportFile(input)
		if err != nil {
			logger.Warn("skipping render", "plan", input, "error", err)
			return
		}
		opts, err := flags.options(cfg.Timeline, logger)
		if err != nil {
			logger.Error("invalid options", "error", err)
			return
		}
		ro.apply(&opts)
		paths, result, err := renderPlan(ctx, runner, snap, opts, input, ro.output)
		if err != nil {
			logger.Error("render failed", "plan", input, "error", err)
			return
		}
		for _, d := range result.Layout.Diagnostics {
			logger.Warn(d.Message, "kind", d.Kind, "task", d.TaskID)
		}
		p.done(fmt.Sprintf("Rendered %d task(s) to %d file(s)", result.Stats.TaskCount, len(paths)))
	}

	render()
	printInfo("Watching %s (ctrl+c to stop)", input)

	var (
		debounce *time.Timer
		fire     <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case <-fire:
			fire = nil
			render()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("plan changed", "op", ev.Op.String())
			if debounce == nil {
				debounce = time.NewTimer(watchDebounce)
			} else {
				debounce.Reset(watchDebounce)
			}
			fire = debounce.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "error", err)
		}
	}
}
