package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pagepulse/pagepulse/internal/state"
)

// reloadSettleWindow coalesces the burst of filesystem events one save
// produces (editors write via rename-and-replace, emitting several) into a
// single reload.
const reloadSettleWindow = 200 * time.Millisecond

// Watch monitors path and calls onChange with a freshly loaded Config once
// per settled burst of file changes. A reload that fails to parse or validate
// is logged and swallowed; the previous config stays active and onChange is
// not called. Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	pending := state.NewDebounced[struct{}](reloadSettleWindow)
	pending.OnSettle(func(struct{}) { reload(path, onChange) })
	defer pending.Close()

	slog.Info("config: watching for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			pending.Set(struct{}{})

			// An atomic save replaced the inode; watch the new one.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}

func reload(path string, onChange func(*Config)) {
	cfg, err := Load(path)
	if err != nil {
		slog.Error("config: reload failed, keeping previous config",
			"path", path, "err", err)
		return
	}
	slog.Info("config: reloaded", "path", path)
	onChange(cfg)
}
