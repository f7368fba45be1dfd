package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rpggio/tflies/internal/domain/sid"
)

func newListCommand(a *App) *cobra.Command {
	var opts struct {
		Level int
		JSON  bool
		Watch bool
	}

	cmd := &cobra.Command{
		Use:   "list [id]",
		Short: "List a subtree of tasks",
		Long: `List the task at id (the root by default) and its descendants.

Entries whose children are hidden by --level are marked with "+".
The running task is marked with "*".
With --watch the list is printed again whenever the database changes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := sid.Root
			if len(args) == 1 {
				var err error
				if id, err = parseID(args[0]); err != nil {
					return err
				}
			}
			if opts.Watch {
				if opts.JSON {
					return errors.New("--watch cannot be combined with --json")
				}
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return watchList(ctx, a, cmd.OutOrStdout(), id, opts.Level)
			}
			entries, err := a.svc.List(cmd.Context(), id, opts.Level)
			if err != nil {
				return err
			}
			if opts.JSON {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			return a.printer.Tree(cmd.OutOrStdout(), entries)
		},
	}

	cmd.Flags().IntVarP(&opts.Level, "level", "l", -1, "Levels to descend (-1 for all)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output in JSON format")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Reprint when the database changes")
	return cmd
}

func newShowCommand(a *App) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task with its time pieces",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			view, err := a.svc.Show(cmd.Context(), id)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), view)
			}
			return a.printer.Task(cmd.OutOrStdout(), view)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	return cmd
}

func newCurrentCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the running task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view, err := a.svc.Current(cmd.Context())
			if err != nil {
				return err
			}
			if view == nil {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No task is running")
				return nil
			}
			return a.printer.Task(cmd.OutOrStdout(), view)
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
