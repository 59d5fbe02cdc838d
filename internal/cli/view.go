package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackplan/pkg/io"
	"github.com/matzehuels/stackplan/pkg/pipeline"
)

// viewCommand creates the interactive view command.
func (c *CLI) viewCommand() *cobra.Command {
	var flags timelineFlags

	cmd := &cobra.Command{
		Use:   "view [plan]",
		Short: "Browse a plan's timeline in the terminal",
		Long: `Show a plan's timeline in the terminal.

Press d, w or m to switch between day, week and month columns; the layout
is recomputed from the loaded plan. Use the arrow keys or j/k to move
between tasks and q to quit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runView(cmd.Context(), args[0], flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func (c *CLI) runView(ctx context.Context, input string, flags timelineFlags) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	snap, err := io.ImportFile(input)
	if err != nil {
		return fmt.Errorf("load plan %s: %w", input, err)
	}
	if flags.project != "" {
		snap = snap.ForProject(flags.project)
	}

	options := func(zoom string) (pipeline.Options, error) {
		f := flags
		f.zoom = zoom
		return f.options(cfg.Timeline, c.Logger)
	}
	zoom := flags.zoom
	if zoom == "" {
		zoom = cfg.Timeline.Zoom
	}

	model := NewTimelineModel(snap, zoom, options)
	if model.Err != nil {
		return model.Err
	}
	_, err = tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	return err
}
