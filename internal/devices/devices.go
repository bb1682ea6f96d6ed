// Package devices connects the capture core to real V4L2 device nodes.
package devices

import (
	"errors"
	"io"

	"github.com/smazurov/camcap/internal/capture"
)

// ErrUnsupportedPlatform is returned where V4L2 is unavailable.
var ErrUnsupportedPlatform = errors.New("V4L2 capture is only supported on Linux")

// Handle is an open capture device. The caller closes it once the
// capture session has been stopped.
type Handle interface {
	capture.Device
	io.Closer
}

// DeviceInfo describes a video capture node found on the system.
type DeviceInfo struct {
	DevicePath string
	DeviceName string
	DeviceID   string
	Caps       uint32
}
