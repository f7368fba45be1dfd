package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rpggio/tflies/internal/domain/sid"
	"github.com/rpggio/tflies/internal/domain/task"
	"github.com/rpggio/tflies/internal/timeparse"
)

func newCreateCommand(a *App) *cobra.Command {
	var opts struct {
		Parent      string
		Name        string
		Description string
		Priority    string
		Due         string
		Expect      string
	}

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a task",
		Long: `Create a task under a parent (the root by default).

The new task takes the first free index under its parent.

Examples:
  # Create a top level task
  tflies create -n "Release 1.2"

  # Create a sub-task due on a date, expected to take two hours
  tflies create -P 10 -n "Write changelog" -d 20250301 -e 2h

  # Due dates also accept natural language
  tflies create -n "Renew certificate" -d "next friday"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := opts.Name
			if name == "" && len(args) == 1 {
				name = args[0]
			}
			if name == "" {
				return fmt.Errorf("required flag(s) \"name\" not set")
			}

			parent, err := parseID(opts.Parent)
			if err != nil {
				return err
			}
			priority, err := task.ParsePriority(opts.Priority)
			if err != nil {
				return err
			}
			due, err := timeparse.ParseDue(opts.Due, a.Now())
			if err != nil {
				return err
			}
			expectArg := opts.Expect
			if !cmd.Flags().Changed("expect") {
				expectArg = a.cfg.Tasks.DefaultExpect
			}
			expect, err := timeparse.ParseDuration(expectArg)
			if err != nil {
				return err
			}

			item, err := a.svc.Create(cmd.Context(), task.CreateRequest{
				ParentID:    parent,
				Name:        name,
				Description: opts.Description,
				Priority:    priority,
				DueTime:     due,
				ExpectTime:  expect,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created task %s: %s\n", item.ID, item.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Parent, "parent", "P", "0", "Parent task ID")
	cmd.Flags().StringVarP(&opts.Name, "name", "n", "", "Task name")
	cmd.Flags().StringVarP(&opts.Description, "description", "t", "", "Task description")
	cmd.Flags().StringVarP(&opts.Priority, "priority", "p", "1", "Priority (name, short form or number)")
	cmd.Flags().StringVarP(&opts.Due, "due", "d", "none", "Due date (yyyymmdd, yyyymmdd-hhmmss+mmm, natural language or none)")
	cmd.Flags().StringVarP(&opts.Expect, "expect", "e", "", "Expected time (ms, s, m, min, h)")
	return cmd
}

func newUpdateCommand(a *App) *cobra.Command {
	var opts struct {
		Name        string
		Description string
		Priority    string
		Efficiency  string
		Due         string
		Expect      string
	}

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit task fields",
		Long: `Edit the fields of a task. Only the flags given are changed.

Examples:
  tflies update 10 -n "Release 1.3" -p major
  tflies update 1010 -d none`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			req := task.UpdateRequest{ID: id}
			flags := cmd.Flags()

			if flags.Changed("name") {
				req.Name = &opts.Name
			}
			if flags.Changed("description") {
				req.Description = &opts.Description
			}
			if flags.Changed("priority") {
				p, err := task.ParsePriority(opts.Priority)
				if err != nil {
					return err
				}
				req.Priority = &p
			}
			if flags.Changed("efficiency") {
				e, err := task.ParseEfficiency(opts.Efficiency)
				if err != nil {
					return err
				}
				req.Efficiency = &e
			}
			if flags.Changed("due") {
				due, err := timeparse.ParseDue(opts.Due, a.Now())
				if err != nil {
					return err
				}
				req.DueTime = &due
			}
			if flags.Changed("expect") {
				expect, err := timeparse.ParseDuration(opts.Expect)
				if err != nil {
					return err
				}
				req.ExpectTime = &expect
			}

			item, err := a.svc.Update(cmd.Context(), req)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s: %s\n", item.ID, item.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Name, "name", "n", "", "Task name")
	cmd.Flags().StringVarP(&opts.Description, "description", "t", "", "Task description")
	cmd.Flags().StringVarP(&opts.Priority, "priority", "p", "", "Priority (name, short form or number)")
	cmd.Flags().StringVarP(&opts.Efficiency, "efficiency", "f", "", "Efficiency rating (name, short form or number)")
	cmd.Flags().StringVarP(&opts.Due, "due", "d", "", "Due date, or none to clear it")
	cmd.Flags().StringVarP(&opts.Expect, "expect", "e", "", "Expected time, or none to clear it")
	return cmd
}

func newDeleteCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task with no sub-tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.svc.Delete(cmd.Context(), id); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", id)
			return nil
		},
	}
}

func newMoveCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <new-parent-id>",
		Short: "Move a task and its subtree under another parent",
		Long: `Move a task and its subtree under another parent.

Moving renumbers the task and all of its descendants to match their new
position. Time pieces move with their tasks.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := parseID(args[0])
			if err != nil {
				return err
			}
			target, err := parseID(args[1])
			if err != nil {
				return err
			}
			item, err := a.svc.Move(cmd.Context(), src, target)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Moved task %s to %s\n", src, item.ID)
			return nil
		},
	}
}

func newStatusCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Set the status of a task",
		Long: fmt.Sprintf(`Set the status of a task.

Valid statuses: %s`, statusChoices()),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			status, err := task.ParseStatus(args[1])
			if err != nil {
				return err
			}
			return setStatus(cmd, a, id, status)
		},
	}
}

func newDoneCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task as done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return setStatus(cmd, a, id, task.StatusDone)
		},
	}
}

func setStatus(cmd *cobra.Command, a *App, id sid.ID, status task.Status) error {
	item, err := a.svc.SetStatus(cmd.Context(), id, status)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Task %s is now %s\n", item.ID, item.Status)
	return nil
}

func statusChoices() string {
	var names []string
	for s := task.StatusTodo; s <= task.StatusDone; s++ {
		names = append(names, fmt.Sprintf("%s (%s)", s, s.Short()))
	}
	return strings.Join(names, ", ")
}
