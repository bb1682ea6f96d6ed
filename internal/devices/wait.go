package devices

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/smazurov/camcap/internal/events"
	"github.com/smazurov/camcap/internal/logging"
)

// WaitForDevice blocks until a node exists at path or ctx is done. Stable
// paths such as /dev/v4l/by-id/... are handled even when their parent
// directories do not exist yet.
func WaitForDevice(ctx context.Context, path string, bus *events.Bus) error {
	logger := logging.GetLogger("devices").With("path", path)

	if exists(path) {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create device watcher: %w", err)
	}
	defer watcher.Close()

	dir, err := nearestDir(filepath.Dir(path))
	if err != nil {
		return err
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	// The node may have appeared before the watch was in place
	if exists(path) {
		announce(bus, path)
		return nil
	}

	logger.Info("Waiting for device", "watching", dir)

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("device %s did not appear: %w", path, ctx.Err())

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("device watcher closed")
			}
			if event.Op&fsnotify.Create == 0 {
				continue
			}
			logger.Debug("Device directory changed", "name", event.Name, "op", event.Op.String())

			// A missing parent directory was created, descend into it
			if isAncestor(event.Name, path) {
				if next, err := nearestDir(filepath.Dir(path)); err == nil && next != dir {
					if err := watcher.Add(next); err != nil {
						logger.Warn("Failed to watch directory", "dir", next, "error", err)
					} else {
						dir = next
					}
				}
			}

			if exists(path) {
				logger.Info("Device appeared")
				announce(bus, path)
				return nil
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("device watcher closed")
			}
			logger.Warn("Device watcher error", "error", err)
		}
	}
}

func announce(bus *events.Bus, path string) {
	bus.Publish(events.DeviceDiscoveryEvent{
		DevicePath: path,
		Action:     "added",
		Timestamp:  time.Now().Format(time.RFC3339),
	})
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// nearestDir returns dir or its closest existing ancestor.
func nearestDir(dir string) (string, error) {
	for {
		if fi, err := os.Stat(dir); err == nil {
			if !fi.IsDir() {
				return "", fmt.Errorf("%s is not a directory", dir)
			}
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no existing parent directory for %s", dir)
		}
		dir = parent
	}
}

func isAncestor(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != "." && !filepath.IsAbs(rel) && rel[0] != '.'
}
