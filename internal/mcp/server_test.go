package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/tflies/internal/domain/task"
	"github.com/rpggio/tflies/internal/sqlite"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *task.Service) {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := func() time.Time { return testNow }
	svc := task.NewService(sqlite.NewTaskRepository(db), nil, clock)
	require.NoError(t, svc.Load(context.Background()))

	srv := NewServer(Config{Tasks: svc, Version: "test", DefaultExpect: 1_800_000, Now: clock})
	return srv, svc
}

func clientSession(t *testing.T, srv *Server) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	ct, st := sdkmcp.NewInMemoryTransports()

	ss, err := srv.mcp.Connect(ctx, st, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs
}

func callTool(t *testing.T, cs *sdkmcp.ClientSession, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	result, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err, "CallTool %s", name)
	return result
}

func decode[T any](t *testing.T, result *sdkmcp.CallToolResult) T {
	t.Helper()
	require.False(t, result.IsError, "tool error: %s", toolText(result))
	var out T
	raw, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func toolText(result *sdkmcp.CallToolResult) string {
	for _, c := range result.Content {
		if text, ok := c.(*sdkmcp.TextContent); ok {
			return text.Text
		}
	}
	return ""
}

func TestServer_ListsTools(t *testing.T) {
	srv, _ := newTestServer(t)
	cs := clientSession(t, srv)

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{
		"create_task", "update_task", "delete_task", "list_tasks", "show_task",
		"move_task", "start_task", "halt_task", "set_status", "current_task",
	}, names)
}

func TestServer_TaskWorkflow(t *testing.T) {
	srv, svc := newTestServer(t)
	cs := clientSession(t, srv)

	created := decode[taskOutput](t, callTool(t, cs, "create_task", map[string]any{
		"name":     "release",
		"priority": "major",
		"due":      "20240315",
	}))
	require.EqualValues(t, 10, created.Task.ID)
	require.Equal(t, task.PriorityMajor, created.Task.Priority)
	require.Equal(t, int64(1_800_000), created.Task.ExpectTime, "default expect time")
	require.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC).UnixMilli(), created.Task.DueTime)

	child := decode[taskOutput](t, callTool(t, cs, "create_task", map[string]any{
		"parent_id": 10,
		"name":      "changelog",
		"expect":    "2h",
	}))
	require.EqualValues(t, 1010, child.Task.ID)
	require.Equal(t, int64(7_200_000), child.Task.ExpectTime)

	listed := decode[listTasksOutput](t, callTool(t, cs, "list_tasks", map[string]any{"depth": 1}))
	require.Len(t, listed.Tasks, 2)
	require.True(t, listed.Tasks[1].Truncated)

	started := decode[pieceOutput](t, callTool(t, cs, "start_task", map[string]any{"id": 1010}))
	require.True(t, started.Piece.InFlight())

	current := decode[currentTaskOutput](t, callTool(t, cs, "current_task", map[string]any{}))
	require.True(t, current.Running)
	require.EqualValues(t, 1010, current.Task.Item.ID)

	halted := decode[pieceOutput](t, callTool(t, cs, "halt_task", map[string]any{
		"description": "drafted",
		"efficiency":  "high",
	}))
	require.Equal(t, task.EfficiencyHigh, halted.Piece.Efficiency)

	moved := decode[taskOutput](t, callTool(t, cs, "move_task", map[string]any{"id": 1010, "parent_id": 0}))
	require.EqualValues(t, 11, moved.Task.ID)

	shown := decode[taskViewOutput](t, callTool(t, cs, "show_task", map[string]any{"id": 11}))
	require.Len(t, shown.Task.Pieces, 1)
	require.EqualValues(t, 11, shown.Task.Pieces[0].TaskID)

	done := decode[taskOutput](t, callTool(t, cs, "set_status", map[string]any{"id": 11, "status": "done"}))
	require.Equal(t, task.StatusDone, done.Task.Status)

	name := "release 1.2"
	updated := decode[taskOutput](t, callTool(t, cs, "update_task", map[string]any{"id": 10, "name": name}))
	require.Equal(t, name, updated.Task.Name)

	decode[deleteTaskOutput](t, callTool(t, cs, "delete_task", map[string]any{"id": 11}))

	require.NoError(t, svc.Load(context.Background()), "tool calls were flushed")
	view, err := svc.Show(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, name, view.Item.Name)
	_, err = svc.Show(context.Background(), 11)
	require.ErrorIs(t, err, task.ErrUnknownTask)
}

func TestServer_ToolErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	cs := clientSession(t, srv)

	tests := []struct {
		name string
		tool string
		args map[string]any
		code string
	}{
		{"invalid id", "show_task", map[string]any{"id": 201}, "INVALID_IDENTIFIER"},
		{"unknown task", "start_task", map[string]any{"id": 10}, "UNKNOWN_TASK"},
		{"nothing running", "halt_task", map[string]any{}, "CONFLICT"},
		{"bad priority", "create_task", map[string]any{"name": "x", "priority": "urgent"}, "INVALID_INPUT"},
		{"bad duration", "create_task", map[string]any{"name": "x", "expect": "soon"}, "INVALID_INPUT"},
		{"root", "delete_task", map[string]any{"id": 0}, "CONFLICT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, cs, tt.tool, tt.args)
			require.True(t, result.IsError)
			require.Contains(t, toolText(result), tt.code)
		})
	}
}

func TestMapError(t *testing.T) {
	require.Nil(t, MapError(nil))

	err := MapError(task.ErrUnknownTask)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "UNKNOWN_TASK", apiErr.Code)
	require.Same(t, apiErr, MapError(apiErr), "already mapped errors pass through")

	plain := context.Canceled
	require.Equal(t, plain, MapError(plain))
}
