package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackplan/pkg/io"
	"github.com/matzehuels/stackplan/pkg/render/gantt"
)

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags   timelineFlags
		output  string
		noCache bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "layout [plan]",
		Short: "Compute the timeline layout of a plan",
		Long: `Compute the timeline layout of a plan file.

The output is the layout as JSON: the date window, one column per day, week
or month, a row and bar per dated task, the undated tasks, and connector
routes between dependent bars. It is the same document as 'render -f json'.

Layouts are cached per plan, options and calendar day.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], flags, output, noCache, refresh)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <plan>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when cached")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input string, flags timelineFlags, output string, noCache, refresh bool) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	snap, err := io.ImportFile(input)
	if err != nil {
		return fmt.Errorf("load plan %s: %w", input, err)
	}
	opts, err := flags.options(cfg.Timeline, c.Logger)
	if err != nil {
		return err
	}
	opts.Refresh = refresh
	if opts.ProjectID != "" {
		snap = snap.ForProject(opts.ProjectID)
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spin := newSpinner(ctx, fmt.Sprintf("Computing %s layout...", opts.Zoom))
	spin.Start()
	l, cacheHit, err := runner.LayoutWithCacheInfo(ctx, snap, opts)
	if err != nil {
		spin.StopWithError("Layout failed")
		return err
	}
	spin.Stop()

	data, err := gantt.RenderJSON(l)
	if err != nil {
		return err
	}
	outputPath := output
	if outputPath == "" {
		outputPath = outputBase(input, "") + ".layout.json"
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(len(snap.Tasks), len(snap.Edges()), len(l.Rows), cacheHit)
	printDiagnostics(l.Diagnostics)
	printNewline()
	printNextStep("Render", "stackplan render "+input)
	return nil
}
