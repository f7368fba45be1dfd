package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/rpggio/tflies/internal/mcp"
	"github.com/rpggio/tflies/internal/timeparse"
)

func newServeCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the task tree as MCP tools over stdio",
		Long: `Run an MCP server on stdin and stdout. Logs go to stderr or the
configured log file so stdout stays clean for JSON-RPC.

Every mutating tool call is saved before it returns.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			expect, err := timeparse.ParseDuration(a.cfg.Tasks.DefaultExpect)
			if err != nil {
				return err
			}
			server := mcp.NewServer(mcp.Config{
				Tasks:         a.svc,
				Version:       a.Version,
				DefaultExpect: expect,
				Now:           a.Now,
				Logger:        a.logger,
			})
			return runStdio(cmd.Context(), a, server)
		},
	}
}

func runStdio(parent context.Context, a *App, server *mcp.Server) error {
	a.logger.Info("starting stdio transport")

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	go func() {
		select {
		case <-stop:
			a.logger.Info("shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	// Run blocks until stdin closes or the context is canceled
	if err := server.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		a.logger.Error("stdio server error", "error", err)
		return err
	}
	return nil
}
