package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rpggio/tflies/internal/domain/sid"
)

var watchDebounce = 300 * time.Millisecond

// watchList prints the subtree, then reloads and prints it again whenever
// another process writes the database. It returns when ctx is canceled.
func watchList(ctx context.Context, a *App, w io.Writer, id sid.ID, level int) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dbPath, err := filepath.Abs(a.cfg.DB.Path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(dbPath)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(dbPath), err)
	}
	dbName := filepath.Base(dbPath)

	render := func() error {
		entries, err := a.svc.List(ctx, id, level)
		if err != nil {
			return err
		}
		return a.printer.Tree(w, entries)
	}
	if err := render(); err != nil {
		return err
	}

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// sqlite also writes -journal and -wal files next to the database
			if event.Has(fsnotify.Write) && strings.HasPrefix(filepath.Base(event.Name), dbName) {
				debounce = time.After(watchDebounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("watcher error", "error", err)
		case <-debounce:
			debounce = nil
			if err := a.svc.Load(ctx); err != nil {
				a.logger.Warn("reload failed", "error", err)
				continue
			}
			_, _ = fmt.Fprintln(w)
			if err := render(); err != nil {
				return err
			}
		}
	}
}
