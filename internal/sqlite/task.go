package sqlite

import (
	"context"
	"fmt"

	"github.com/rpggio/tflies/internal/domain/sid"
	"github.com/rpggio/tflies/internal/domain/task"
	"github.com/rpggio/tflies/internal/repository"
)

// TaskRepository implements task.Repository for SQLite
type TaskRepository struct {
	db *DB
}

var _ task.Repository = (*TaskRepository)(nil)

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// EnsureSchema creates whichever of the Tasks and TimePieces tables is missing
func (r *TaskRepository) EnsureSchema(ctx context.Context) error {
	return r.db.RunMigrations(ctx)
}

// ListTasks reads every task row, in storage order
func (r *TaskRepository) ListTasks(ctx context.Context) ([]task.Item, error) {
	query := `
		SELECT
			TaskID, Name, COALESCE(ParentTaskID, -1), COALESCE(Status, 0),
			COALESCE(Priority, 0), COALESCE(CreateTime, 0), COALESCE(UpdateTime, 0),
			COALESCE(DueTime, -1), COALESCE(CostTime, 0), COALESCE(ExpectTime, -1),
			COALESCE(Efficiency, 0), COALESCE(TimePiecesTable, ''), COALESCE(Description, '')
		FROM Tasks
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var items []task.Item
	for rows.Next() {
		var (
			item             task.Item
			id, parent       int64
			status, priority int
			efficiency       int
		)
		if err := rows.Scan(
			&id,
			&item.Name,
			&parent,
			&status,
			&priority,
			&item.CreateTime,
			&item.UpdateTime,
			&item.DueTime,
			&item.CostTime,
			&item.ExpectTime,
			&efficiency,
			&item.TimePiecesTable,
			&item.Description,
		); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		item.ID = sid.ID(id)
		item.ParentID = sid.ID(parent)
		item.Status = task.Status(status)
		item.Priority = task.Priority(priority)
		item.Efficiency = task.Efficiency(efficiency)
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return items, nil
}

// UpsertTask inserts a task row or replaces the row with the same id
func (r *TaskRepository) UpsertTask(ctx context.Context, item *task.Item) error {
	if item == nil {
		return repository.ErrInvalidInput
	}

	query := `
		INSERT OR REPLACE INTO Tasks (
			TaskID, Name, ParentTaskID, Status, Priority, CreateTime, UpdateTime,
			DueTime, CostTime, ExpectTime, Efficiency, TimePiecesTable, Description
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := withRetry(ctx, func() error {
		_, err := r.db.ExecContext(ctx, query,
			int64(item.ID),
			item.Name,
			int64(item.ParentID),
			int(item.Status),
			int(item.Priority),
			item.CreateTime,
			item.UpdateTime,
			item.DueTime,
			item.CostTime,
			item.ExpectTime,
			int(item.Efficiency),
			item.TimePiecesTable,
			item.Description,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to upsert task: %w", err)
	}

	return nil
}

// DeleteTask removes a task row; its time pieces are left to DeleteTimePiecesByTask
func (r *TaskRepository) DeleteTask(ctx context.Context, id sid.ID) error {
	var affected int64
	err := withRetry(ctx, func() error {
		result, err := r.db.ExecContext(ctx, `DELETE FROM Tasks WHERE TaskID = ?`, int64(id))
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}
