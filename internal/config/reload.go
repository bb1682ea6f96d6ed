package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/smazurov/camcap/internal/logging"
)

// DefaultReloadDebounce collapses the burst of events an editor save produces.
const DefaultReloadDebounce = 500 * time.Millisecond

// WatchLogging re-reads the [logging] table of path whenever the file
// changes, merges it over the running settings (starting from running) and
// passes the result to apply, so log levels can be raised during a long
// capture without restarting it. Keys the file omits keep their running
// value. A file that fails to parse keeps the previous settings. Watching
// stops when ctx is done.
func WatchLogging(ctx context.Context, path string, debounce time.Duration, running logging.Config, logger *slog.Logger, apply func(logging.Config)) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	// The directory is watched so files replaced by rename are still seen
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	logger.Debug("Config watcher started", "path", path, "debounce", debounce)
	go watchLogging(ctx, watcher, path, debounce, running, logger, apply)
	return nil
}

func watchLogging(ctx context.Context, watcher *fsnotify.Watcher, path string, debounce time.Duration, running logging.Config, logger *slog.Logger, apply func(logging.Config)) {
	defer watcher.Close()

	path = filepath.Clean(path)
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Debug("Config watcher stopped")
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(debounce)
			timerC = timer.C

		case <-timerC:
			timerC = nil
			cfg, err := ReadLoggingConfig(path)
			if err != nil {
				logger.Warn("Failed to reload logging config", "error", err)
				continue
			}
			running = running.Merge(cfg)
			logger.Info("Logging config reloaded", "level", running.Level, "format", running.Format)
			apply(running)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Config watcher error", "error", err)
		}
	}
}
