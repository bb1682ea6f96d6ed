// Package sink opens the byte destination for captured frames.
package sink

import (
	"fmt"
	"io"
	"os"
)

// Sink is where frame bytes go.
type Sink interface {
	io.Writer
	io.Closer
	// Name describes the destination for logs.
	Name() string
}

// IsStdout reports whether path selects standard output.
func IsStdout(path string) bool {
	return path == "" || path == "-"
}

// Open returns a sink for path. An empty path or "-" selects standard
// output; anything else is created or truncated as a regular file.
func Open(path string) (Sink, error) {
	if IsStdout(path) {
		return stdout{}, nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output %s: %w", path, err)
	}
	return &file{f: f}, nil
}

type file struct {
	f *os.File
}

func (s *file) Write(b []byte) (int, error) { return s.f.Write(b) }

func (s *file) Name() string { return s.f.Name() }

// Close flushes the file to disk before closing it.
func (s *file) Close() error {
	if err := s.f.Sync(); err != nil {
		_ = s.f.Close()
		return fmt.Errorf("failed to sync %s: %w", s.f.Name(), err)
	}
	return s.f.Close()
}

// stdout never closes the process's standard output.
type stdout struct{}

func (stdout) Write(b []byte) (int, error) { return os.Stdout.Write(b) }

func (stdout) Name() string { return "stdout" }

func (stdout) Close() error { return nil }
