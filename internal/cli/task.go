package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackplan/pkg/errors"
	"github.com/matzehuels/stackplan/pkg/store"
	"github.com/matzehuels/stackplan/pkg/task"
	"github.com/matzehuels/stackplan/pkg/timeline"
)

// taskCommand creates the task command group.
func (c *CLI) taskCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Add, list and remove tasks in a plan",
	}
	cmd.AddCommand(c.taskAddCommand())
	cmd.AddCommand(c.taskListCommand())
	cmd.AddCommand(c.taskRemoveCommand())
	return cmd
}

func (c *CLI) taskAddCommand() *cobra.Command {
	var (
		t        task.Task
		status   string
		priority string
		hours    float64
	)

	cmd := &cobra.Command{
		Use:   "add [plan]",
		Short: "Add or replace a task",
		Long: `Add a task to a plan file, creating the file if needed.

Without --id the task gets a random UUID. An existing task with the same id
is replaced. Blockers given with --blocked-by must already exist.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t.Status = task.Status(status)
			t.Priority = task.Priority(priority)
			if cmd.Flags().Changed("hours") {
				t.EstimatedHours = &hours
			}
			return c.runTaskAdd(cmd.Context(), args[0], t)
		},
	}

	cmd.Flags().StringVar(&t.ID, "id", "", "task id (default: random UUID)")
	cmd.Flags().StringVarP(&t.Title, "title", "t", "", "task title")
	cmd.Flags().StringVar(&t.StartDate, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&t.DueDate, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&t.ProjectID, "project", "p", "", "project id")
	cmd.Flags().StringVar(&t.OwnerID, "owner", "", "owner id")
	cmd.Flags().StringVar(&status, "status", string(task.StatusTodo), "status: backlog, todo, in_progress, review, done, blocked")
	cmd.Flags().StringVar(&priority, "priority", "", "priority: low, medium, high, urgent")
	cmd.Flags().Float64Var(&hours, "hours", 0, "estimated hours")
	cmd.Flags().StringSliceVar(&t.BlockedBy, "blocked-by", nil, "ids of tasks this task waits on")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func (c *CLI) runTaskAdd(ctx context.Context, file string, t task.Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	} else if err := errors.ValidateID("task", t.ID); err != nil {
		return err
	}
	for _, d := range []string{t.StartDate, t.DueDate} {
		if d == "" {
			continue
		}
		if _, err := timeline.ParseDate(d); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidDate, err, "invalid date %q", d)
		}
	}

	svc, err := c.openPlan(file)
	if err != nil {
		return err
	}
	snap, err := svc.Snapshot(ctx, "")
	if err != nil {
		return err
	}

	if existing, ok := snap.Task(t.ID); ok {
		t.Position = existing.Position
	} else {
		for _, other := range snap.Tasks {
			t.Position = max(t.Position, other.Position+1)
		}
	}
	// Blockers go through the cycle check one by one after the task exists.
	blockers := t.BlockedBy
	t.BlockedBy = nil

	if err := svc.Store().UpsertTask(ctx, t); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "save task %s", t.ID)
	}
	for _, b := range blockers {
		if _, err := svc.AddDependency(ctx, t.ProjectID, t.ID, b); err != nil {
			return err
		}
	}

	printSuccess("Saved task %s", StyleHighlight.Render(t.ID))
	printDetail("%s", t.Title)
	printFile(file)
	return nil
}

func (c *CLI) taskListCommand() *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:     "ls [plan]",
		Aliases: []string{"list"},
		Short:   "List tasks in row order",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTaskList(cmd.Context(), args[0], project)
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "only list tasks of this project")
	return cmd
}

func (c *CLI) runTaskList(ctx context.Context, file, project string) error {
	svc, err := c.openPlan(file)
	if err != nil {
		return err
	}
	snap, err := svc.Snapshot(ctx, project)
	if err != nil {
		return err
	}
	if len(snap.Tasks) == 0 {
		printInfo("No tasks")
		return nil
	}

	blockers := make(map[string]int)
	for _, d := range snap.Edges() {
		blockers[d.TaskID]++
	}

	rows := make([][]string, 0, len(snap.Tasks))
	for _, t := range snap.Tasks {
		rows = append(rows, []string{
			t.ID, t.Title, string(t.Status), orDash(t.StartDate), orDash(t.DueDate), strconv.Itoa(blockers[t.ID]),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Title", "Status", "Start", "Due", "Blockers").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			t := snap.Tasks[row]
			switch {
			case t.IsDone():
				return lipgloss.NewStyle().Foreground(colorDim)
			case col == 2:
				return lipgloss.NewStyle().Foreground(statusColor(t.Status))
			}
			return StyleValue
		})

	fmt.Println(tbl.Render())
	printDetail("%d tasks · %d edges", len(snap.Tasks), len(snap.Edges()))
	return nil
}

func (c *CLI) taskRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm [plan] [id]",
		Aliases: []string{"remove"},
		Short:   "Remove a task and its dependencies",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.openPlan(args[0])
			if err != nil {
				return err
			}
			err = svc.Store().DeleteTask(cmd.Context(), args[1])
			if stderrors.Is(err, store.ErrNotFound) {
				return errors.New(errors.ErrCodeUnknownTask, "unknown task %q", args[1])
			}
			if err != nil {
				return errors.Wrap(errors.ErrCodeStorage, err, "remove task %s", args[1])
			}
			printSuccess("Removed task %s", StyleHighlight.Render(args[1]))
			return nil
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
