package capture

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/smazurov/camcap/internal/metrics"
)

func TestCapture(t *testing.T) {
	dev := newFakeDevice(t)
	sink := &recordingSink{dev: dev}

	err := Capture(context.Background(), dev, sink, Request{PixelFormat: pixA, Width: 640, Height: 480}, 5, testConfig())
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if len(sink.writes) != 5 {
		t.Errorf("got %d writes, want 5", len(sink.writes))
	}
	if dev.streaming || len(dev.mem) != 0 {
		t.Error("capture left the device streaming or mapped")
	}

	// Protocol order: capabilities, format, buffers, stream on ... stream off, unmap.
	want := []string{"querycap", "setformat AAAA 640x480", "reqbufs 4", "querybuf 0", "map 0"}
	if got := dev.calls[:len(want)]; !equalStrings(got, want) {
		t.Errorf("protocol start = %v, want %v", got, want)
	}
	if got := dev.last(1)[0]; got != "reqbufs 0" {
		t.Errorf("last call = %s, want reqbufs 0", got)
	}
}

func TestCaptureRejections(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*fakeDevice)
		req    Request
		frames int
		want   error
	}{
		{
			name:   "zero frames",
			req:    Request{PixelFormat: pixA, Width: 640, Height: 480},
			frames: 0,
			want:   ErrConfiguration,
		},
		{
			name:   "not a capture device",
			setup:  func(d *fakeDevice) { d.caps.DeviceCaps = 0x04000000 },
			req:    Request{PixelFormat: pixA, Width: 640, Height: 480},
			frames: 1,
			want:   ErrConfiguration,
		},
		{
			name:   "no streaming",
			setup:  func(d *fakeDevice) { d.caps.DeviceCaps = 0x00000001 },
			req:    Request{PixelFormat: pixA, Width: 640, Height: 480},
			frames: 1,
			want:   ErrConfiguration,
		},
		{
			name:   "querycap fails",
			setup:  func(d *fakeDevice) { d.capsErr = errInjected },
			req:    Request{PixelFormat: pixA, Width: 640, Height: 480},
			frames: 1,
			want:   ErrDevice,
		},
		{
			name:   "unsupported size",
			req:    Request{PixelFormat: pixA, Width: 1, Height: 1},
			frames: 1,
			want:   ErrConfiguration,
		},
		{
			name:   "timeout",
			setup:  func(d *fakeDevice) { d.waits = []Readiness{Ready, Timeout} },
			req:    Request{PixelFormat: pixA, Width: 640, Height: 480},
			frames: 3,
			want:   ErrTimeout,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newFakeDevice(t)
			if tt.setup != nil {
				tt.setup(dev)
			}
			err := Capture(context.Background(), dev, &recordingSink{dev: dev}, tt.req, tt.frames, testConfig())
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if dev.streaming || len(dev.mem) != 0 {
				t.Error("device left streaming or mapped")
			}
		})
	}
}

func TestCaptureLegacyCapabilities(t *testing.T) {
	dev := newFakeDevice(t)
	// Without DEVICE_CAPS the top-level capabilities apply.
	dev.caps = Capabilities{Capabilities: 0x04000001, DeviceCaps: 0}

	if _, err := CheckCapabilities(dev); err != nil {
		t.Fatalf("CheckCapabilities: %v", err)
	}
}

func logLine(t *testing.T, out, msg string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, `msg="`+msg+`"`) {
			return line
		}
	}
	t.Fatalf("no %q line in:\n%s", msg, out)
	return ""
}

func TestCaptureLogsSummary(t *testing.T) {
	req := Request{PixelFormat: pixA, Width: 640, Height: 480}

	t.Run("finished", func(t *testing.T) {
		dev := newFakeDevice(t)
		// Totals from an earlier run on the same device are not reported
		metrics.RecordFrame(dev.Path(), 5000)

		var buf bytes.Buffer
		cfg := testConfig()
		cfg.Logger = slog.New(slog.NewTextHandler(&buf, nil))

		if err := Capture(context.Background(), dev, &recordingSink{dev: dev}, req, 3, cfg); err != nil {
			t.Fatalf("Capture: %v", err)
		}
		line := logLine(t, buf.String(), "Capture finished")
		if !strings.Contains(line, "frames=3 bytes=300 timeouts=0") {
			t.Errorf("summary line = %s", line)
		}
		if !strings.Contains(line, "session=") {
			t.Errorf("summary line has no session: %s", line)
		}
	})

	t.Run("failed", func(t *testing.T) {
		dev := newFakeDevice(t)
		dev.waits = []Readiness{Ready, Timeout}

		var buf bytes.Buffer
		cfg := testConfig()
		cfg.Logger = slog.New(slog.NewTextHandler(&buf, nil))

		err := Capture(context.Background(), dev, &recordingSink{dev: dev}, req, 3, cfg)
		if !errors.Is(err, ErrTimeout) {
			t.Fatalf("got %v, want ErrTimeout", err)
		}
		line := logLine(t, buf.String(), "Capture incomplete")
		if !strings.Contains(line, "frames=1 bytes=100 timeouts=1") {
			t.Errorf("summary line = %s", line)
		}
		if strings.Contains(buf.String(), "Capture finished") {
			t.Error("failed run logged Capture finished")
		}
	})
}
