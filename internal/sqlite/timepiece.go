package sqlite

import (
	"context"
	"fmt"

	"github.com/rpggio/tflies/internal/domain/sid"
	"github.com/rpggio/tflies/internal/domain/task"
	"github.com/rpggio/tflies/internal/repository"
)

// ListTimePieces reads every time piece row
func (r *TaskRepository) ListTimePieces(ctx context.Context) ([]task.TimePiece, error) {
	query := `
		SELECT
			PiecesID, COALESCE(TaskID, -1), COALESCE(SerialNumber, -1), COALESCE(Efficiency, 0),
			COALESCE(BeginTime, 0), COALESCE(EndTime, 0), COALESCE(Description, '')
		FROM TimePieces
		ORDER BY TaskID, SerialNumber
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list time pieces: %w", err)
	}
	defer rows.Close()

	var pieces []task.TimePiece
	for rows.Next() {
		var (
			piece      task.TimePiece
			taskID     int64
			efficiency int
		)
		if err := rows.Scan(
			&piece.ID,
			&taskID,
			&piece.SerialNumber,
			&efficiency,
			&piece.BeginTime,
			&piece.EndTime,
			&piece.Description,
		); err != nil {
			return nil, fmt.Errorf("failed to scan time piece: %w", err)
		}
		piece.TaskID = sid.ID(taskID)
		piece.Efficiency = task.Efficiency(efficiency)
		pieces = append(pieces, piece)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate time pieces: %w", err)
	}

	return pieces, nil
}

// UpsertTimePiece inserts a time piece row or replaces the row with the same id
func (r *TaskRepository) UpsertTimePiece(ctx context.Context, piece *task.TimePiece) error {
	if piece == nil {
		return repository.ErrInvalidInput
	}

	query := `
		INSERT OR REPLACE INTO TimePieces (
			PiecesID, TaskID, SerialNumber, Efficiency, BeginTime, EndTime, Description
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	err := withRetry(ctx, func() error {
		_, err := r.db.ExecContext(ctx, query,
			piece.ID,
			int64(piece.TaskID),
			piece.SerialNumber,
			int(piece.Efficiency),
			piece.BeginTime,
			piece.EndTime,
			piece.Description,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to upsert time piece: %w", err)
	}

	return nil
}

// DeleteTimePiece removes one time piece row
func (r *TaskRepository) DeleteTimePiece(ctx context.Context, id int64) error {
	var affected int64
	err := withRetry(ctx, func() error {
		result, err := r.db.ExecContext(ctx, `DELETE FROM TimePieces WHERE PiecesID = ?`, id)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete time piece: %w", err)
	}

	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// DeleteTimePiecesByTask removes every time piece owned by a task
func (r *TaskRepository) DeleteTimePiecesByTask(ctx context.Context, taskID sid.ID) error {
	err := withRetry(ctx, func() error {
		_, err := r.db.ExecContext(ctx, `DELETE FROM TimePieces WHERE TaskID = ?`, int64(taskID))
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete time pieces: %w", err)
	}

	return nil
}
