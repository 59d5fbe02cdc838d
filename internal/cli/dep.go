package cli

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackplan/pkg/depgraph"
	"github.com/matzehuels/stackplan/pkg/errors"
	"github.com/matzehuels/stackplan/pkg/service"
	"github.com/matzehuels/stackplan/pkg/store"
)

// openPlan opens a dataset file as a store and wraps it in a service.
// Edits made through the service are written back to the file.
func (c *CLI) openPlan(path string) (*service.Service, error) {
	fs, err := store.OpenFileStore(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	return service.New(fs, nil, c.Logger), nil
}

// checkCommand creates the check command.
func (c *CLI) checkCommand() *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "check [plan] [task] [blocker]",
		Short: "Test whether a task may be blocked by another without a cycle",
		Long: `Test whether making TASK blocked by BLOCKER would close a dependency cycle.

Nothing is written. On rejection the cycle the edge would close is printed,
starting and ending at TASK, and the command exits non-zero.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheck(cmd.Context(), args[0], project, args[1], args[2])
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "restrict the graph to one project")
	return cmd
}

func (c *CLI) runCheck(ctx context.Context, file, project, taskID, blockerID string) error {
	svc, err := c.openPlan(file)
	if err != nil {
		return err
	}
	path, err := svc.CheckDependency(ctx, project, taskID, blockerID)
	if err != nil {
		return err
	}
	if path != nil {
		return rejected(taskID, blockerID, path)
	}
	printSuccess("%s may be blocked by %s", StyleHighlight.Render(taskID), StyleHighlight.Render(blockerID))
	return nil
}

func rejected(taskID, blockerID string, path []string) error {
	printError("%s cannot be blocked by %s", taskID, blockerID)
	printCyclePath(path)
	return errors.New(errors.ErrCodeCycleRejected, "dependency %s -> %s rejected", taskID, blockerID)
}

// depCommand creates the dep command group.
func (c *CLI) depCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dep",
		Short: "Add, remove and list blocked-by dependencies",
	}

	var project string
	cmd.PersistentFlags().StringVarP(&project, "project", "p", "", "restrict the graph to one project")

	cmd.AddCommand(&cobra.Command{
		Use:   "add [plan] [task] [blocker]",
		Short: "Make a task blocked by another, refusing cycles",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDepAdd(cmd.Context(), args[0], project, args[1], args[2])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:     "rm [plan] [task] [blocker]",
		Aliases: []string{"remove"},
		Short:   "Remove a blocked-by dependency",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDepRemove(cmd.Context(), args[0], project, args[1], args[2])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:     "ls [plan] [task]",
		Aliases: []string{"list"},
		Short:   "List what a task waits on and what waits on it",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDepList(cmd.Context(), args[0], project, args[1])
		},
	})

	return cmd
}

func (c *CLI) runDepAdd(ctx context.Context, file, project, taskID, blockerID string) error {
	svc, err := c.openPlan(file)
	if err != nil {
		return err
	}
	added, err := svc.AddDependency(ctx, project, taskID, blockerID)
	var cycle *depgraph.CycleError
	if stderrors.As(err, &cycle) {
		return rejected(taskID, blockerID, cycle.Path)
	}
	if err != nil {
		return err
	}
	if !added {
		printInfo("%s is already blocked by %s", taskID, blockerID)
		return nil
	}
	printSuccess("%s is now blocked by %s", StyleHighlight.Render(taskID), StyleHighlight.Render(blockerID))
	printFile(file)
	return nil
}

func (c *CLI) runDepRemove(ctx context.Context, file, project, taskID, blockerID string) error {
	svc, err := c.openPlan(file)
	if err != nil {
		return err
	}
	if err := svc.RemoveDependency(ctx, project, taskID, blockerID); err != nil {
		return err
	}
	printSuccess("%s is no longer blocked by %s", StyleHighlight.Render(taskID), StyleHighlight.Render(blockerID))
	return nil
}

func (c *CLI) runDepList(ctx context.Context, file, project, taskID string) error {
	svc, err := c.openPlan(file)
	if err != nil {
		return err
	}
	b, err := svc.Badges(ctx, project, taskID)
	if err != nil {
		return err
	}

	fmt.Println(StyleTitle.Render(taskID))
	printKeyValue("Blocked by", fmt.Sprintf("%d (%d open)", len(b.BlockedBy), b.OpenBlockers))
	for _, id := range b.BlockedBy {
		printDetail("%s", id)
	}
	printKeyValue("Blocking", fmt.Sprintf("%d", len(b.Blocking)))
	for _, id := range b.Blocking {
		printDetail("%s", id)
	}
	if b.IsBlocked() {
		printNewline()
		printWarning("%s has open blockers", taskID)
	}
	return nil
}
