package mcp

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/tflies/internal/domain/sid"
	"github.com/rpggio/tflies/internal/domain/task"
	"github.com/rpggio/tflies/internal/timeparse"
)

type createTaskInput struct {
	ParentID    int64  `json:"parent_id,omitempty" jsonschema:"parent task id, 0 or omitted for the root"`
	Name        string `json:"name" jsonschema:"task name"`
	Description string `json:"description,omitempty" jsonschema:"task description"`
	Priority    string `json:"priority,omitempty" jsonschema:"priority name, short form or number (undefined trivial minor major critical blocker)"`
	Due         string `json:"due,omitempty" jsonschema:"due date as yyyymmdd or yyyymmdd-hhmmss+mmm or natural language"`
	Expect      string `json:"expect,omitempty" jsonschema:"expected time such as 30min or 2h"`
}

type updateTaskInput struct {
	ID          int64   `json:"id" jsonschema:"task id"`
	Name        *string `json:"name,omitempty" jsonschema:"new name"`
	Description *string `json:"description,omitempty" jsonschema:"new description"`
	Priority    *string `json:"priority,omitempty" jsonschema:"new priority"`
	Efficiency  *string `json:"efficiency,omitempty" jsonschema:"new efficiency rating"`
	Due         *string `json:"due,omitempty" jsonschema:"new due date, or none to clear it"`
	Expect      *string `json:"expect,omitempty" jsonschema:"new expected time, or none to clear it"`
}

type taskIDInput struct {
	ID int64 `json:"id" jsonschema:"task id"`
}

type listTasksInput struct {
	ID    int64 `json:"id,omitempty" jsonschema:"subtree root, 0 or omitted for the whole tree"`
	Depth *int  `json:"depth,omitempty" jsonschema:"levels to descend, omitted or negative for all"`
}

type moveTaskInput struct {
	ID       int64 `json:"id" jsonschema:"task to move"`
	ParentID int64 `json:"parent_id" jsonschema:"new parent id"`
}

type haltTaskInput struct {
	Description string `json:"description,omitempty" jsonschema:"what was done in this piece"`
	Efficiency  string `json:"efficiency,omitempty" jsonschema:"efficiency rating (undefined, extremely low ... extremely high)"`
}

type setStatusInput struct {
	ID     int64  `json:"id" jsonschema:"task id"`
	Status string `json:"status" jsonschema:"todo, in progress, paused or done"`
}

type taskOutput struct {
	Task task.Item `json:"task"`
}

type taskViewOutput struct {
	Task *task.TaskView `json:"task,omitempty"`
}

type listTasksOutput struct {
	Tasks []task.ListEntry `json:"tasks"`
}

type pieceOutput struct {
	Piece task.TimePiece `json:"piece"`
}

type deleteTaskOutput struct {
	Deleted int64 `json:"deleted"`
}

type currentTaskOutput struct {
	Running bool           `json:"running"`
	Task    *task.TaskView `json:"task,omitempty"`
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "create_task",
		Description: "Create a task under a parent; the task takes the first free index",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in createTaskInput) (*sdkmcp.CallToolResult, taskOutput, error) {
		req := task.CreateRequest{
			ParentID:    sid.ID(in.ParentID),
			Name:        in.Name,
			Description: in.Description,
			DueTime:     task.Unset,
			ExpectTime:  s.expect,
		}
		var err error
		if in.Priority != "" {
			if req.Priority, err = task.ParsePriority(in.Priority); err != nil {
				return nil, taskOutput{}, MapError(err)
			}
		}
		if in.Due != "" {
			if req.DueTime, err = timeparse.ParseDue(in.Due, s.now()); err != nil {
				return nil, taskOutput{}, MapError(err)
			}
		}
		if in.Expect != "" {
			if req.ExpectTime, err = timeparse.ParseDuration(in.Expect); err != nil {
				return nil, taskOutput{}, MapError(err)
			}
		}

		item, err := s.tasks.Create(ctx, req)
		if err != nil {
			return nil, taskOutput{}, MapError(err)
		}
		if err := s.flush(ctx); err != nil {
			return nil, taskOutput{}, err
		}
		return nil, taskOutput{Task: *item}, nil
	})

	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "update_task",
		Description: "Edit task fields; omitted fields are left unchanged",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in updateTaskInput) (*sdkmcp.CallToolResult, taskOutput, error) {
		req, err := s.updateRequest(in)
		if err != nil {
			return nil, taskOutput{}, MapError(err)
		}
		item, err := s.tasks.Update(ctx, req)
		if err != nil {
			return nil, taskOutput{}, MapError(err)
		}
		if err := s.flush(ctx); err != nil {
			return nil, taskOutput{}, err
		}
		return nil, taskOutput{Task: *item}, nil
	})

	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "delete_task",
		Description: "Delete a task that has no sub-tasks and is not running",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in taskIDInput) (*sdkmcp.CallToolResult, deleteTaskOutput, error) {
		if err := s.tasks.Delete(ctx, sid.ID(in.ID)); err != nil {
			return nil, deleteTaskOutput{}, MapError(err)
		}
		if err := s.flush(ctx); err != nil {
			return nil, deleteTaskOutput{}, err
		}
		return nil, deleteTaskOutput{Deleted: in.ID}, nil
	})

	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "list_tasks",
		Description: "List a subtree in pre-order; entries with hidden children are marked truncated",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in listTasksInput) (*sdkmcp.CallToolResult, listTasksOutput, error) {
		depth := -1
		if in.Depth != nil {
			depth = *in.Depth
		}
		entries, err := s.tasks.List(ctx, sid.ID(in.ID), depth)
		if err != nil {
			return nil, listTasksOutput{}, MapError(err)
		}
		if entries == nil {
			entries = []task.ListEntry{}
		}
		return nil, listTasksOutput{Tasks: entries}, nil
	})

	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "show_task",
		Description: "Get a task with its time pieces",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in taskIDInput) (*sdkmcp.CallToolResult, taskViewOutput, error) {
		view, err := s.tasks.Show(ctx, sid.ID(in.ID))
		if err != nil {
			return nil, taskViewOutput{}, MapError(err)
		}
		return nil, taskViewOutput{Task: view}, nil
	})

	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "move_task",
		Description: "Move a task and its subtree under a new parent; returns the task under its new id",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in moveTaskInput) (*sdkmcp.CallToolResult, taskOutput, error) {
		item, err := s.tasks.Move(ctx, sid.ID(in.ID), sid.ID(in.ParentID))
		if err != nil {
			return nil, taskOutput{}, MapError(err)
		}
		if err := s.flush(ctx); err != nil {
			return nil, taskOutput{}, err
		}
		return nil, taskOutput{Task: *item}, nil
	})

	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "start_task",
		Description: "Start a time piece on a task; fails if any task is already running",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in taskIDInput) (*sdkmcp.CallToolResult, pieceOutput, error) {
		piece, err := s.tasks.Start(ctx, sid.ID(in.ID))
		if err != nil {
			return nil, pieceOutput{}, MapError(err)
		}
		if err := s.flush(ctx); err != nil {
			return nil, pieceOutput{}, err
		}
		return nil, pieceOutput{Piece: *piece}, nil
	})

	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "halt_task",
		Description: "Close the running time piece and add its duration to the task",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in haltTaskInput) (*sdkmcp.CallToolResult, pieceOutput, error) {
		eff := task.EfficiencyUndefined
		if in.Efficiency != "" {
			var err error
			if eff, err = task.ParseEfficiency(in.Efficiency); err != nil {
				return nil, pieceOutput{}, MapError(err)
			}
		}
		piece, err := s.tasks.Halt(ctx, task.HaltRequest{Description: in.Description, Efficiency: eff})
		if err != nil {
			return nil, pieceOutput{}, MapError(err)
		}
		if err := s.flush(ctx); err != nil {
			return nil, pieceOutput{}, err
		}
		return nil, pieceOutput{Piece: *piece}, nil
	})

	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "set_status",
		Description: "Override the status of a task",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in setStatusInput) (*sdkmcp.CallToolResult, taskOutput, error) {
		status, err := task.ParseStatus(in.Status)
		if err != nil {
			return nil, taskOutput{}, MapError(err)
		}
		item, err := s.tasks.SetStatus(ctx, sid.ID(in.ID), status)
		if err != nil {
			return nil, taskOutput{}, MapError(err)
		}
		if err := s.flush(ctx); err != nil {
			return nil, taskOutput{}, err
		}
		return nil, taskOutput{Task: *item}, nil
	})

	sdkmcp.AddTool(s.mcp, &sdkmcp.Tool{
		Name:        "current_task",
		Description: "Get the running task, if any",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ struct{}) (*sdkmcp.CallToolResult, currentTaskOutput, error) {
		view, err := s.tasks.Current(ctx)
		if err != nil {
			return nil, currentTaskOutput{}, MapError(err)
		}
		return nil, currentTaskOutput{Running: view != nil, Task: view}, nil
	})
}

func (s *Server) updateRequest(in updateTaskInput) (task.UpdateRequest, error) {
	req := task.UpdateRequest{ID: sid.ID(in.ID), Name: in.Name, Description: in.Description}
	if in.Priority != nil {
		p, err := task.ParsePriority(*in.Priority)
		if err != nil {
			return req, err
		}
		req.Priority = &p
	}
	if in.Efficiency != nil {
		e, err := task.ParseEfficiency(*in.Efficiency)
		if err != nil {
			return req, err
		}
		req.Efficiency = &e
	}
	if in.Due != nil {
		due, err := timeparse.ParseDue(*in.Due, s.now())
		if err != nil {
			return req, err
		}
		req.DueTime = &due
	}
	if in.Expect != nil {
		expect, err := timeparse.ParseDuration(*in.Expect)
		if err != nil {
			return req, err
		}
		req.ExpectTime = &expect
	}
	return req, nil
}

// flush persists a successful mutation. The change stays applied in memory
// when the write fails, so the next mutating call retries it.
func (s *Server) flush(ctx context.Context) error {
	if err := s.tasks.Flush(ctx); err != nil {
		s.logger.Error("flush after tool call failed", "error", err)
		return MapError(fmt.Errorf("changes applied but not saved: %w", err))
	}
	return nil
}
