package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackplan/pkg/io"
	"github.com/matzehuels/stackplan/pkg/pipeline"
	"github.com/matzehuels/stackplan/pkg/task"
)

// renderOpts holds the render flags that are not layout options.
type renderOpts struct {
	output         string  // output file (single format) or base path
	formats        string  // comma-separated formats
	style          string  // gantt style: simple, status
	interactive    bool    // embed hover script in the SVG
	hideConnectors bool    // omit dependency arrows
	detailed       bool    // status and dates in DOT node labels
	scale          float64 // PNG resolution multiplier
	noCache        bool
	refresh        bool
}

func (o renderOpts) apply(opts *pipeline.Options) {
	opts.Formats = parseFormats(o.formats)
	opts.Style = o.style
	opts.Interactive = o.interactive
	opts.HideConnectors = o.hideConnectors
	opts.Detailed = o.detailed
	opts.Scale = o.scale
	opts.Refresh = o.refresh
}

func (o *renderOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output file (single format) or base path (default: next to the plan)")
	cmd.Flags().StringVarP(&o.formats, "format", "f", "", "output format(s): svg (default), json, dot, png, pdf (comma-separated)")
	cmd.Flags().StringVar(&o.style, "style", "", "gantt style: status (default), simple")
	cmd.Flags().BoolVar(&o.interactive, "interactive", false, "highlight dependencies on hover (svg)")
	cmd.Flags().BoolVar(&o.hideConnectors, "hide-connectors", false, "omit dependency arrows")
	cmd.Flags().BoolVar(&o.detailed, "detailed", false, "show status and dates in graph nodes (dot)")
	cmd.Flags().Float64Var(&o.scale, "scale", pipeline.DefaultScale, "png resolution multiplier")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&o.refresh, "refresh", false, "recompute even when cached")
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags timelineFlags
		ro    renderOpts
	)

	cmd := &cobra.Command{
		Use:   "render [plan]",
		Short: "Render a plan as a timeline (SVG, PNG, PDF) or graph (DOT)",
		Long: `Render a plan file.

svg, png and pdf draw the Gantt timeline; json is the computed layout; dot
is the blocked-by graph in Graphviz syntax. png and pdf need rsvg-convert
on PATH.

With a single format, -o names the output file. With several, -o is the
base path and each output gets its format's extension.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], flags, ro)
		},
	}

	flags.register(cmd)
	ro.register(cmd)
	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, flags timelineFlags, ro renderOpts) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	opts, err := flags.options(cfg.Timeline, c.Logger)
	if err != nil {
		return err
	}
	ro.apply(&opts)
	if err := pipeline.ValidateFormats(opts.Formats); err != nil {
		return err
	}

	snap, err := io.ImportFile(input)
	if err != nil {
		return fmt.Errorf("load plan %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, ro.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	paths, result, err := renderPlan(ctx, runner, snap, opts, input, ro.output)
	if err != nil {
		return err
	}

	printSuccess("Rendered %d format(s)", len(paths))
	for _, p := range paths {
		printFile(p)
	}
	printStats(result.Stats.TaskCount, result.Stats.EdgeCount, result.Stats.RowCount,
		result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit)
	printDiagnostics(result.Layout.Diagnostics)
	return nil
}

// renderPlan runs the pipeline and writes every artifact. It returns the
// written paths sorted by format.
func renderPlan(ctx context.Context, runner *pipeline.Runner, snap task.Snapshot, opts pipeline.Options, input, output string) ([]string, *pipeline.Result, error) {
	spin := newSpinner(ctx, "Rendering...")
	spin.Start()
	result, err := runner.Execute(ctx, snap, opts)
	if err != nil {
		spin.StopWithError("Render failed")
		return nil, nil, err
	}
	spin.Stop()

	paths, err := writeArtifacts(result.Artifacts, opts.Formats, input, output)
	return paths, result, err
}

// writeArtifacts writes each rendered format next to input, or to output.
// The layout document gets a .layout.json suffix so that it never
// replaces a JSON plan.
func writeArtifacts(artifacts map[string][]byte, formats []string, input, output string) ([]string, error) {
	single := len(formats) == 1 && output != "" && filepath.Ext(output) != ""
	base := outputBase(input, output)

	formats = slices.Clone(formats)
	slices.Sort(formats)
	formats = slices.Compact(formats)

	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		path := base + "." + f
		if f == pipeline.FormatJSON {
			path = base + ".layout.json"
		}
		if single {
			path = output
		}
		if err := os.WriteFile(path, artifacts[f], 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
