package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpggio/tflies/internal/repository"
	"github.com/stretchr/testify/require"
)

func shortRetries(t *testing.T) {
	t.Helper()
	initial, elapsed := retryInitialInterval, retryMaxElapsed
	retryInitialInterval, retryMaxElapsed = time.Millisecond, 50*time.Millisecond
	t.Cleanup(func() {
		retryInitialInterval, retryMaxElapsed = initial, elapsed
	})
}

func TestWithRetry_RetriesBusy(t *testing.T) {
	shortRetries(t)
	calls := 0
	err := withRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked (5) (SQLITE_BUSY)")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestWithRetry_PermanentError(t *testing.T) {
	shortRetries(t)
	boom := errors.New("no such table: Tasks")
	calls := 0
	err := withRetry(context.Background(), func() error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, calls)
}

func TestWithRetry_GivesUp(t *testing.T) {
	shortRetries(t)
	err := withRetry(context.Background(), func() error {
		return errors.New("database is locked")
	})
	require.ErrorIs(t, err, repository.ErrBusy)
}
