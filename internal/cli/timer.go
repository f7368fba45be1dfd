package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rpggio/tflies/internal/domain/task"
	"github.com/rpggio/tflies/internal/timeparse"
)

func newStartCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "start <id>",
		Short: "Start working on a task",
		Long: `Start a time piece on a task. Only one task can run at a time;
halt the running one first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			piece, err := a.svc.Start(cmd.Context(), id)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Started task %s at %s\n",
				piece.TaskID, timeparse.FormatTime(piece.BeginTime, a.printer.Loc))
			return nil
		},
	}
}

func newHaltCommand(a *App) *cobra.Command {
	var opts struct {
		Description string
		Efficiency  string
	}

	cmd := &cobra.Command{
		Use:     "halt",
		Aliases: []string{"stop"},
		Short:   "Stop the running task",
		Long: `Close the running time piece. The time spent is added to the task and
the task is paused.

Examples:
  tflies halt -t "drafted the outline" -e high`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eff, err := task.ParseEfficiency(opts.Efficiency)
			if err != nil {
				return err
			}
			piece, err := a.svc.Halt(cmd.Context(), task.HaltRequest{
				Description: opts.Description,
				Efficiency:  eff,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Halted task %s after %s\n",
				piece.TaskID, timeparse.FormatDuration(piece.Duration()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Description, "description", "t", "", "What was done in this piece")
	cmd.Flags().StringVarP(&opts.Efficiency, "efficiency", "e", "0", "Efficiency rating (name, short form or number)")
	return cmd
}
