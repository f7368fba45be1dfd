package mocks

import (
	"context"

	"github.com/rpggio/tflies/internal/domain/sid"
	"github.com/rpggio/tflies/internal/domain/task"
	"github.com/stretchr/testify/mock"
)

// TaskRepository is a mock for task.Repository.
type TaskRepository struct {
	mock.Mock
}

func (m *TaskRepository) EnsureSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *TaskRepository) ListTasks(ctx context.Context) ([]task.Item, error) {
	args := m.Called(ctx)
	if items, ok := args.Get(0).([]task.Item); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TaskRepository) ListTimePieces(ctx context.Context) ([]task.TimePiece, error) {
	args := m.Called(ctx)
	if pieces, ok := args.Get(0).([]task.TimePiece); ok {
		return pieces, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TaskRepository) UpsertTask(ctx context.Context, item *task.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *TaskRepository) DeleteTask(ctx context.Context, id sid.ID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *TaskRepository) UpsertTimePiece(ctx context.Context, piece *task.TimePiece) error {
	args := m.Called(ctx, piece)
	return args.Error(0)
}

func (m *TaskRepository) DeleteTimePiece(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *TaskRepository) DeleteTimePiecesByTask(ctx context.Context, taskID sid.ID) error {
	args := m.Called(ctx, taskID)
	return args.Error(0)
}
