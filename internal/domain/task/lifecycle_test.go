package task

import (
	"testing"
	"time"

	"github.com/rpggio/tflies/internal/domain/sid"
	"github.com/stretchr/testify/require"
)

func newLifecycleForest(t *testing.T) (*Forest, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	f := NewForest(nil, clock.Now)
	_, err := f.Create(sid.Root, NewItem("a"))
	require.NoError(t, err)
	_, err = f.Create(sid.Root, NewItem("b"))
	require.NoError(t, err)
	return f, clock
}

func TestLifecycle_HaltWithoutStart(t *testing.T) {
	f, _ := newLifecycleForest(t)

	_, err := f.Halt("nothing", EfficiencyNormal)
	require.ErrorIs(t, err, ErrOperationConflict)

	a, _ := f.Get(10)
	require.Equal(t, StatusTodo, a.Item().Status)
	require.Empty(t, a.Pieces())
}

func TestLifecycle_StartHalt(t *testing.T) {
	f, clock := newLifecycleForest(t)
	a, _ := f.Get(10)

	started, err := f.Start(10)
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, a.Item().Status)
	require.True(t, started.InFlight())
	require.Same(t, a, f.Running())
	begin := clock.Ms()

	clock.Advance(90 * time.Second)
	halted, err := f.Halt("wrote tests", EfficiencyHigh)
	require.NoError(t, err)
	require.Equal(t, begin, halted.BeginTime)
	require.Equal(t, clock.Ms(), halted.EndTime)
	require.Equal(t, int64(90_000), halted.Duration())
	require.Equal(t, halted.EndTime-halted.BeginTime, halted.Duration())
	require.Equal(t, 0, halted.SerialNumber)
	require.Equal(t, "wrote tests", halted.Description)

	item := a.Item()
	require.Equal(t, StatusPaused, item.Status)
	require.Equal(t, int64(90_000), item.CostTime)
	require.Equal(t, EfficiencyHigh, item.Efficiency)
	require.Equal(t, clock.Ms(), item.UpdateTime)
	require.Len(t, a.Pieces(), 1)
	require.Nil(t, a.InFlight())
	require.Nil(t, f.Running())

	second, err := f.Start(10)
	require.NoError(t, err)
	require.Greater(t, second.ID, halted.ID, "piece ids increase across the forest")
	clock.Advance(30 * time.Second)
	second, err = f.Halt("", EfficiencyUndefined)
	require.NoError(t, err)
	require.Equal(t, 1, second.SerialNumber)
	require.Equal(t, int64(120_000), a.Item().CostTime)
	require.Equal(t, EfficiencyHigh, a.Item().Efficiency, "undefined rating keeps the last one")
}

func TestLifecycle_OnePieceInFlight(t *testing.T) {
	f, _ := newLifecycleForest(t)

	_, err := f.Start(10)
	require.NoError(t, err)

	_, err = f.Start(10)
	require.ErrorIs(t, err, ErrOperationConflict)
	_, err = f.Start(11)
	require.ErrorIs(t, err, ErrOperationConflict)

	b, _ := f.Get(11)
	require.Equal(t, StatusTodo, b.Item().Status)
}

func TestLifecycle_Rejections(t *testing.T) {
	f, _ := newLifecycleForest(t)

	_, err := f.Start(sid.Root)
	require.ErrorIs(t, err, ErrOperationConflict)
	_, err = f.Start(12)
	require.ErrorIs(t, err, ErrUnknownTask)
	_, err = f.Start(201)
	require.ErrorIs(t, err, ErrInvalidIdentifier)

	require.NoError(t, f.Delete(11))
	_, err = f.Start(11)
	require.ErrorIs(t, err, ErrOperationConflict)
	_, err = f.SetStatus(11, StatusDone)
	require.ErrorIs(t, err, ErrOperationConflict)
}

func TestLifecycle_HaltInvalidEfficiency(t *testing.T) {
	f, _ := newLifecycleForest(t)
	_, err := f.Start(10)
	require.NoError(t, err)

	_, err = f.Halt("", Efficiency(42))
	require.ErrorIs(t, err, ErrInvalidInput)
	require.NotNil(t, f.Running(), "piece stays in flight")
}

func TestLifecycle_SetStatus(t *testing.T) {
	f, clock := newLifecycleForest(t)

	clock.Advance(time.Minute)
	n, err := f.SetStatus(10, StatusDone)
	require.NoError(t, err)
	require.Equal(t, StatusDone, n.Item().Status)
	require.Equal(t, clock.Ms(), n.Item().UpdateTime)

	_, err = f.SetStatus(10, Status(7))
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.SetStatus(10, Status(-1))
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Equal(t, StatusDone, n.Item().Status)
}
