package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestListWatch_ReprintsOnChange(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("create", "-n", "First")

	prev := watchDebounce
	watchDebounce = 20 * time.Millisecond
	t.Cleanup(func() { watchDebounce = prev })

	app := NewApp("test", nil)
	app.Now = func() time.Time { return env.now }
	cmd := NewRootCommand(app)
	var out syncBuffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--db", env.dbPath, "list", "--watch"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "First")
	}, 5*time.Second, 20*time.Millisecond)

	env.mustRun("create", "-n", "Second")
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Second")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
	require.NoError(t, app.Close())
}

func TestListWatch_RejectsJSON(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run("list", "--watch", "--json")
	require.ErrorContains(t, err, "--watch")
}
