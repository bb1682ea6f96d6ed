// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to systemd journal when available (Linux systems with journald)
//   - Logs to stdout (or stderr, see Config.Output) when a terminal, pipe,
//     or file is connected
//   - Logs to both when both are available
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",      // Global log level: debug, info, warn, error
//		Format: "text",      // Output format: text or json
//		Output: "stderr",    // Keep stdout free for frame data
//		Modules: map[string]string{
//			"capture": "debug",  // Per-module overrides
//			"devices": "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("mymodule")
//	logger.Info("Starting up", "device", "/dev/video0")
//	logger.Debug("Details", "config", cfg)
//	logger.Warn("Something unusual", "error", err)
//	logger.Error("Failed", "error", err)
//
// Add contextual attributes:
//
//	logger := logging.GetLogger("capture").With("device", path)
//	logger.Info("Capture started")  // Includes device in all logs
//
// # Log Levels
//
//	debug - Verbose debugging information
//	info  - General operational messages
//	warn  - Warning conditions
//	error - Error conditions
//
// # Output Destinations
//
// The system automatically detects available outputs:
//
//	Journal available + stdout available → both
//	Journal available only              → JournalHandler
//	Stdout available only               → TextHandler or JSONHandler
//
// Journal availability is checked via [github.com/coreos/go-systemd/v22/journal.Enabled].
//
// # Viewing Logs
//
// When running as a systemd service or on a system with journald:
//
//	journalctl -t camcap              # All camcap logs
//	journalctl -t camcap -f           # Follow live
//	journalctl -t camcap --since "5m" # Last 5 minutes
//	journalctl -t camcap -p err       # Errors only
//
// Filter by structured fields:
//
//	journalctl -t camcap CAMCAP_MODULE=capture
//	journalctl -t camcap CAMCAP_DEVICE=/dev/video0
//	journalctl -t camcap CAMCAP_SESSION=<id>   # One capture run
//
// # Configuration
//
// Log levels can be set globally or per-module. Module-specific levels
// override the global level for that module only.
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//	output = "stderr"
//	capture = "debug"   # any other key is a module level
//	devices = "warn"
//
// Edits to this table are applied while a capture runs.
package logging
