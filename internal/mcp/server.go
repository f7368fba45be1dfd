package mcp

import (
	"context"
	"log/slog"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/tflies/internal/domain/sid"
	"github.com/rpggio/tflies/internal/domain/task"
)

// TaskService defines the task operations needed by MCP.
type TaskService interface {
	Flush(ctx context.Context) error
	Create(ctx context.Context, req task.CreateRequest) (*task.Item, error)
	Update(ctx context.Context, req task.UpdateRequest) (*task.Item, error)
	Delete(ctx context.Context, id sid.ID) error
	List(ctx context.Context, id sid.ID, depth int) ([]task.ListEntry, error)
	Show(ctx context.Context, id sid.ID) (*task.TaskView, error)
	Move(ctx context.Context, srcID, targetID sid.ID) (*task.Item, error)
	Start(ctx context.Context, id sid.ID) (*task.TimePiece, error)
	Halt(ctx context.Context, req task.HaltRequest) (*task.TimePiece, error)
	SetStatus(ctx context.Context, id sid.ID, status task.Status) (*task.Item, error)
	Current(ctx context.Context) (*task.TaskView, error)
}

// Config contains server configuration.
type Config struct {
	Tasks   TaskService
	Version string
	// DefaultExpect is applied by create_task when no expect time is given.
	DefaultExpect int64
	// Now anchors relative due dates. Defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// Server exposes a task service as MCP tools.
type Server struct {
	mcp    *sdkmcp.Server
	tasks  TaskService
	expect int64
	now    func() time.Time
	logger *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "tflies",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       logger,
	})

	registerDocResources(server)
	server.AddReceivingMiddleware(trafficLoggingMiddleware(logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(logger, "outbound"))

	s := &Server{
		mcp:    server,
		tasks:  cfg.Tasks,
		expect: cfg.DefaultExpect,
		now:    now,
		logger: logger,
	}
	s.registerTools()
	return s
}

// Run serves over transport until the client disconnects or ctx is canceled.
func (s *Server) Run(ctx context.Context, transport sdkmcp.Transport) error {
	return s.mcp.Run(ctx, transport)
}
