package task

import (
	"context"

	"github.com/rpggio/tflies/internal/domain/sid"
)

// Repository is the flat row store behind a forest.
type Repository interface {
	EnsureSchema(ctx context.Context) error
	ListTasks(ctx context.Context) ([]Item, error)
	ListTimePieces(ctx context.Context) ([]TimePiece, error)
	UpsertTask(ctx context.Context, item *Item) error
	DeleteTask(ctx context.Context, id sid.ID) error
	UpsertTimePiece(ctx context.Context, piece *TimePiece) error
	DeleteTimePiece(ctx context.Context, id int64) error
	DeleteTimePiecesByTask(ctx context.Context, taskID sid.ID) error
}
