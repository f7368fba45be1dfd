// Package cli provides the command-line interface for tflies.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/rpggio/tflies/internal/config"
	"github.com/rpggio/tflies/internal/domain/sid"
	"github.com/rpggio/tflies/internal/domain/task"
	"github.com/rpggio/tflies/internal/render"
	"github.com/rpggio/tflies/internal/sqlite"
)

// LoggerFactory builds the process logger once configuration is known. The
// returned closer, if any, is closed with the app.
type LoggerFactory func(cfg config.LogConfig) (*slog.Logger, io.Closer, error)

// App carries the state shared by every command of one invocation.
type App struct {
	Version   string
	Now       func() time.Time
	NewLogger LoggerFactory

	configPath string
	dbPath     string

	cfg     config.Config
	logger  *slog.Logger
	db      *sqlite.DB
	svc     *task.Service
	printer *render.Printer
	closers []io.Closer
}

// NewApp returns an app using the wall clock.
func NewApp(version string, newLogger LoggerFactory) *App {
	return &App{Version: version, Now: time.Now, NewLogger: newLogger}
}

// NewRootCommand creates the root command. Every subcommand runs against a
// forest loaded from the database; pending changes are flushed after the
// command succeeds.
func NewRootCommand(a *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "tflies",
		Short: "Hierarchical task and time tracking",
		Long: `tflies keeps a tree of tasks in a local SQLite file and records the
time spent on each one.

Task ids encode their position: 10 is the first child of the root,
1011 is the second child of task 10, and so on.`,
		Version:       a.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip for commands that never touch the database
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			return a.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a.svc == nil {
				return nil
			}
			return a.svc.Flush(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "Path to the task database (default from config)")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a YAML or TOML config file")

	root.AddCommand(
		newCreateCommand(a),
		newDeleteCommand(a),
		newUpdateCommand(a),
		newMoveCommand(a),
		newStatusCommand(a),
		newDoneCommand(a),
		newListCommand(a),
		newShowCommand(a),
		newCurrentCommand(a),
		newStartCommand(a),
		newHaltCommand(a),
		newServeCommand(a),
	)
	return root
}

func (a *App) open(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.DB.Path = a.dbPath
	}
	a.cfg = cfg

	a.logger = slog.New(slog.DiscardHandler)
	if a.NewLogger != nil {
		logger, closer, err := a.NewLogger(cfg.Log)
		if err != nil {
			return fmt.Errorf("set up logging: %w", err)
		}
		a.logger = logger
		if closer != nil {
			a.closers = append(a.closers, closer)
		}
	}

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return err
	}
	a.db = db
	a.closers = append(a.closers, db)

	a.svc = task.NewService(sqlite.NewTaskRepository(db), a.logger, a.Now)
	a.printer = &render.Printer{Now: a.Now, Loc: time.Local}
	return a.svc.Load(cmd.Context())
}

// Close releases the database and the log file, in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseID(arg string) (sid.ID, error) {
	id, err := sid.Parse(arg)
	if err != nil {
		return sid.Invalid, fmt.Errorf("%w: %q", task.ErrInvalidIdentifier, arg)
	}
	return id, nil
}
