// Package capture negotiates a capture format with a V4L2-style device,
// arms a pool of mmap'd driver buffers and runs the capture loop that
// hands each filled buffer's bytes to a sink.
package capture

import (
	"context"
	"fmt"
	"io"

	"github.com/smazurov/camcap/internal/metrics"
	"github.com/smazurov/camcap/pkg/linuxav/v4l2"
)

// CheckCapabilities queries the device and rejects nodes that cannot do
// streaming video capture.
func CheckCapabilities(dev Device) (Capabilities, error) {
	caps, err := dev.QueryCapabilities()
	if err != nil {
		return Capabilities{}, newError(KindDevice, "query capabilities", err)
	}
	eff := caps.Effective()
	if eff&v4l2.CapVideoCapture == 0 {
		return caps, newError(KindConfiguration, "query capabilities",
			fmt.Errorf("%s is not a video capture device", dev.Path()))
	}
	if eff&v4l2.CapStreaming == 0 {
		return caps, newError(KindConfiguration, "query capabilities",
			fmt.Errorf("%s does not support streaming i/o", dev.Path()))
	}
	return caps, nil
}

// Capture runs the whole protocol against an open device: capability
// check, negotiation, configure, arm, start, frames captures and stop.
// On any failure the stream is turned off and the buffers unmapped before
// the error is returned. The caller keeps ownership of dev. The frames,
// bytes and timeouts of the run are logged whether it succeeds or not.
func Capture(ctx context.Context, dev Device, sink io.Writer, req Request, frames int, cfg Config) (err error) {
	if frames <= 0 {
		return newError(KindConfiguration, "capture",
			fmt.Errorf("frame count must be positive, got %d", frames))
	}
	cfg = cfg.withDefaults()
	logger := cfg.Logger.With("device", dev.Path())

	caps, err := CheckCapabilities(dev)
	if err != nil {
		return err
	}
	logger.Debug("Device capabilities", "driver", caps.Driver, "card", caps.Card, "caps", fmt.Sprintf("%#08x", caps.Effective()))

	format, err := Negotiate(dev, req)
	if err != nil {
		return err
	}

	sess := NewSession(dev, sink, cfg)
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			logger.Warn("Failed to release session", "error", cerr)
		}
	}()

	// Totals are cumulative per device, so the run reports the difference
	before := metrics.GetCaptureSummary(dev.Path())
	defer func() {
		if err != nil {
			sum := metrics.GetCaptureSummary(dev.Path()).Since(before)
			logger.Warn("Capture incomplete",
				"session", sess.ID(),
				"frames", sum.Frames,
				"bytes", sum.Bytes,
				"timeouts", sum.Timeouts,
				"error", err)
		}
	}()

	if err := sess.Configure(format); err != nil {
		return err
	}
	if err := sess.Arm(cfg.Buffers); err != nil {
		return err
	}
	if err := sess.Start(); err != nil {
		return err
	}

	logger.Info("Capture started",
		"format", format.PixelFormat.Name(),
		"width", format.Width,
		"height", format.Height,
		"buffers", sess.Pool().Len(),
		"frames", frames)

	if err := sess.Run(ctx, frames); err != nil {
		return err
	}
	if err := sess.Stop(); err != nil {
		return err
	}

	sum := metrics.GetCaptureSummary(dev.Path()).Since(before)
	logger.Info("Capture finished",
		"session", sess.ID(),
		"frames", sum.Frames,
		"bytes", sum.Bytes,
		"timeouts", sum.Timeouts)
	return nil
}
