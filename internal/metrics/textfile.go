package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WriteTextfile writes every registered metric to path in the text
// exposition format, for node_exporter's textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// RunTextfileWriter rewrites the textfile every interval until ctx is done,
// then once more so the file holds the final counters. Write failures are
// logged and do not stop the writer.
func RunTextfileWriter(ctx context.Context, path string, interval time.Duration, logger *slog.Logger) error {
	if interval <= 0 {
		return fmt.Errorf("metrics interval must be positive, got %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := WriteTextfile(path); err != nil {
				logger.Warn("Failed to write metrics", "path", path, "error", err)
			}
			return nil
		case <-ticker.C:
			if err := WriteTextfile(path); err != nil {
				logger.Warn("Failed to write metrics", "path", path, "error", err)
			}
		}
	}
}
