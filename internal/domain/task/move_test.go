package task

import (
	"testing"
	"time"

	"github.com/rpggio/tflies/internal/domain/sid"
	"github.com/stretchr/testify/require"
)

func newMoveForest(t *testing.T) (*Forest, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	f := NewForest(nil, clock.Now)
	for _, c := range []struct {
		parent sid.ID
		name   string
	}{
		{sid.Root, "a"},
		{10, "a0"},
		{10, "a1"},
		{sid.Root, "b"},
	} {
		_, err := f.Create(c.parent, NewItem(c.name))
		require.NoError(t, err)
	}
	_, err := f.Start(1010)
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = f.Halt("first", EfficiencyNormal)
	require.NoError(t, err)
	return f, clock
}

func TestForest_Move(t *testing.T) {
	f, clock := newMoveForest(t)
	a, _ := f.Get(10)
	a0, _ := f.Get(1010)
	pieceID := a0.Pieces()[0].ID
	createdA := a.Item().CreateTime

	clock.Advance(time.Minute)
	moved, err := f.Move(10, 11)
	require.NoError(t, err)
	require.Equal(t, sid.ID(1110), moved.ID())
	require.Equal(t, sid.ID(11), moved.Item().ParentID)
	require.Equal(t, "a", moved.Item().Name)
	require.Equal(t, createdA, moved.Item().CreateTime)
	require.Equal(t, StateDirty, moved.State())

	movedA0, err := f.Get(111010)
	require.NoError(t, err)
	require.Equal(t, "a0", movedA0.Item().Name)
	require.Same(t, moved, movedA0.Parent())
	pieces := movedA0.Pieces()
	require.Len(t, pieces, 1)
	require.Equal(t, pieceID, pieces[0].ID, "piece ids survive a move")
	require.Equal(t, sid.ID(111010), pieces[0].TaskID)
	require.Equal(t, PieceDirty, movedA0.pieces[0].State)

	_, err = f.Get(111011)
	require.NoError(t, err)

	require.True(t, a.Tombstoned())
	require.True(t, a0.Tombstoned())
	require.Empty(t, a0.Pieces())
	require.Len(t, f.Root().Children(), 1)
	require.Equal(t, clock.Ms(), f.Root().Item().UpdateTime)
}

func TestForest_Move_Rejections(t *testing.T) {
	f, _ := newMoveForest(t)

	_, err := f.Move(sid.Root, 11)
	require.ErrorIs(t, err, ErrOperationConflict)
	_, err = f.Move(10, 1010)
	require.ErrorIs(t, err, ErrOperationConflict, "into own subtree")
	_, err = f.Move(10, 10)
	require.ErrorIs(t, err, ErrOperationConflict)
	_, err = f.Move(1010, 10)
	require.ErrorIs(t, err, ErrOperationConflict, "already under target")
	_, err = f.Move(10, 12)
	require.ErrorIs(t, err, ErrUnknownTask)

	_, err = f.Start(1011)
	require.NoError(t, err)
	_, err = f.Move(10, 11)
	require.ErrorIs(t, err, ErrOperationConflict, "running node in subtree")

	a, _ := f.Get(10)
	require.False(t, a.Tombstoned())
	require.Equal(t, 5, f.Len())
}

func TestForest_Move_ReusesTombstonedSlot(t *testing.T) {
	f, _ := newMoveForest(t)
	_, err := f.Create(11, NewItem("b0"))
	require.NoError(t, err)
	require.NoError(t, f.Delete(1110))
	old, _ := f.Get(1110)

	moved, err := f.Move(1011, 11)
	require.NoError(t, err)
	require.Same(t, old, moved)
	require.False(t, moved.Tombstoned())
	require.Equal(t, "a1", moved.Item().Name)
}
