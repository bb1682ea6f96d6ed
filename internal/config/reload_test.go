package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smazurov/camcap/internal/logging"
)

var base = logging.Config{Level: "info", Format: "text"}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestWatchLoggingReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camcap.toml")
	writeConfig(t, path, "[logging]\nlevel = \"info\"\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan logging.Config, 4)
	err := WatchLogging(ctx, path, 50*time.Millisecond, base, logging.Discard(), func(cfg logging.Config) {
		received <- cfg
	})
	if err != nil {
		t.Fatal(err)
	}

	writeConfig(t, path, "[logging]\nlevel = \"debug\"\ncapture = \"warn\"\n")

	select {
	case cfg := <-received:
		if cfg.Level != "debug" || cfg.Modules["capture"] != "warn" {
			t.Errorf("reloaded config = %+v", cfg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for reload")
	}
}

func TestWatchLoggingDebounce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camcap.toml")
	writeConfig(t, path, "[logging]\nlevel = \"info\"\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan logging.Config, 10)
	if err := WatchLogging(ctx, path, 200*time.Millisecond, base, logging.Discard(), func(cfg logging.Config) {
		received <- cfg
	}); err != nil {
		t.Fatal(err)
	}

	for _, level := range []string{"warn", "error", "debug"} {
		writeConfig(t, path, "[logging]\nlevel = \""+level+"\"\n")
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case cfg := <-received:
		if cfg.Level != "debug" {
			t.Errorf("Level = %q, want the last write", cfg.Level)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for reload")
	}

	select {
	case cfg := <-received:
		t.Errorf("burst produced a second reload: %+v", cfg)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatchLoggingKeepsSettingsOnParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camcap.toml")
	writeConfig(t, path, "[logging]\nlevel = \"info\"\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan logging.Config, 1)
	if err := WatchLogging(ctx, path, 50*time.Millisecond, base, logging.Discard(), func(cfg logging.Config) {
		received <- cfg
	}); err != nil {
		t.Fatal(err)
	}

	writeConfig(t, path, "[logging\nbroken")

	select {
	case cfg := <-received:
		t.Errorf("invalid file applied: %+v", cfg)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatchLoggingMissingFile(t *testing.T) {
	err := WatchLogging(context.Background(), filepath.Join(t.TempDir(), "none.toml"), time.Millisecond, base, logging.Discard(), func(logging.Config) {})
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWatchLoggingStops(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camcap.toml")
	writeConfig(t, path, "[logging]\nlevel = \"info\"\n")

	ctx, cancel := context.WithCancel(context.Background())
	received := make(chan logging.Config, 1)
	if err := WatchLogging(ctx, path, 20*time.Millisecond, base, logging.Discard(), func(cfg logging.Config) {
		received <- cfg
	}); err != nil {
		t.Fatal(err)
	}
	cancel()
	time.Sleep(50 * time.Millisecond)

	writeConfig(t, path, "[logging]\nlevel = \"debug\"\n")
	select {
	case <-received:
		t.Error("reload after stop")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatchLoggingReplacedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "camcap.toml")
	writeConfig(t, path, "[logging]\nlevel = \"info\"\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan logging.Config, 4)
	if err := WatchLogging(ctx, path, 50*time.Millisecond, base, logging.Discard(), func(cfg logging.Config) {
		received <- cfg
	}); err != nil {
		t.Fatal(err)
	}

	// Editors often write a temp file and rename it over the original
	tmp := filepath.Join(dir, ".camcap.toml.swp")
	writeConfig(t, tmp, "[logging]\nlevel = \"error\"\n")
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-received:
		if cfg.Level != "error" {
			t.Errorf("Level = %q, want error", cfg.Level)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for reload after rename")
	}
}

func TestWatchLoggingKeepsUnsetKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camcap.toml")
	writeConfig(t, path, "[logging]\nlevel = \"info\"\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Started with --logging-format json and a module override from the CLI
	running := logging.Config{
		Level:   "info",
		Format:  "json",
		Output:  "stderr",
		Modules: map[string]string{"devices": "warn"},
	}
	received := make(chan logging.Config, 4)
	if err := WatchLogging(ctx, path, 50*time.Millisecond, running, logging.Discard(), func(cfg logging.Config) {
		received <- cfg
	}); err != nil {
		t.Fatal(err)
	}

	writeConfig(t, path, "[logging]\nlevel = \"debug\"\ncapture = \"debug\"\n")
	cfg := waitReload(t, received)
	if cfg.Level != "debug" || cfg.Format != "json" || cfg.Output != "stderr" {
		t.Errorf("reloaded config = %+v, want debug level with json format and stderr output kept", cfg)
	}
	if cfg.Modules["capture"] != "debug" || cfg.Modules["devices"] != "warn" {
		t.Errorf("Modules = %v", cfg.Modules)
	}

	// A later edit that sets the format switches it
	writeConfig(t, path, "[logging]\nformat = \"text\"\n")
	for cfg = waitReload(t, received); cfg.Format != "text"; cfg = waitReload(t, received) {
		// late event from the first write
	}
	if cfg.Level != "debug" {
		t.Errorf("second reload = %+v, want text format with debug level kept", cfg)
	}
}

func waitReload(t *testing.T, received <-chan logging.Config) logging.Config {
	t.Helper()
	select {
	case cfg := <-received:
		return cfg
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for reload")
		return logging.Config{}
	}
}
