//go:build linux

package devices

import (
	"errors"
	"time"

	"github.com/smazurov/camcap/internal/capture"
	"github.com/smazurov/camcap/pkg/linuxav/v4l2"
	"golang.org/x/sys/unix"
)

var _ capture.Device = (*v4l2Device)(nil)

// v4l2Device adapts a V4L2 node to capture.Device.
type v4l2Device struct {
	dev *v4l2.Device
}

// OpenV4L2 opens a V4L2 device node for capture.
func OpenV4L2(path string) (Handle, error) {
	dev, err := v4l2.Open(path)
	if err != nil {
		return nil, err
	}
	return &v4l2Device{dev: dev}, nil
}

// FindDevices lists the video capture nodes on the system.
func FindDevices() ([]DeviceInfo, error) {
	found, err := v4l2.FindDevices()
	if err != nil {
		return nil, err
	}
	devices := make([]DeviceInfo, len(found))
	for i, d := range found {
		devices[i] = DeviceInfo{
			DevicePath: d.DevicePath,
			DeviceName: d.DeviceName,
			DeviceID:   d.DeviceID,
			Caps:       d.Caps,
		}
	}
	return devices, nil
}

func (d *v4l2Device) Path() string { return d.dev.Path() }

func (d *v4l2Device) Close() error { return d.dev.Close() }

func (d *v4l2Device) QueryCapabilities() (capture.Capabilities, error) {
	c, err := d.dev.Capability()
	if err != nil {
		return capture.Capabilities{}, err
	}
	return capture.Capabilities{
		Driver:       c.Driver,
		Card:         c.Card,
		BusInfo:      c.BusInfo,
		Version:      c.Version,
		Capabilities: c.Capabilities,
		DeviceCaps:   c.DeviceCaps,
	}, nil
}

func (d *v4l2Device) EnumFormat(index uint32) (capture.FormatDesc, error) {
	f, err := d.dev.EnumFormat(index)
	if errors.Is(err, unix.EINVAL) {
		return capture.FormatDesc{}, capture.ErrExhausted
	}
	if err != nil {
		return capture.FormatDesc{}, err
	}
	return capture.FormatDesc{
		PixelFormat: capture.PixelFormat(f.PixelFormat),
		Description: f.FormatName,
		Emulated:    f.Emulated,
	}, nil
}

func (d *v4l2Device) EnumFrameSize(pf capture.PixelFormat, index uint32) (capture.FrameSize, error) {
	fs, err := d.dev.EnumFrameSize(uint32(pf), index)
	// ENOTTY means the driver has no frame size enumeration at all
	if errors.Is(err, unix.EINVAL) || errors.Is(err, unix.ENOTTY) {
		return capture.FrameSize{}, capture.ErrExhausted
	}
	if err != nil {
		return capture.FrameSize{}, err
	}
	return capture.FrameSize{
		Kind:       capture.FrameSizeKind(fs.Type),
		Width:      fs.Width,
		Height:     fs.Height,
		MinWidth:   fs.MinWidth,
		MaxWidth:   fs.MaxWidth,
		StepWidth:  fs.StepWidth,
		MinHeight:  fs.MinHeight,
		MaxHeight:  fs.MaxHeight,
		StepHeight: fs.StepHeight,
	}, nil
}

func (d *v4l2Device) SetFormat(f capture.StreamFormat) (capture.StreamFormat, error) {
	applied, err := d.dev.SetFormat(v4l2.PixFormat{
		Width:       f.Width,
		Height:      f.Height,
		PixelFormat: uint32(f.PixelFormat),
		Field:       f.Field,
	})
	if err != nil {
		return capture.StreamFormat{}, err
	}
	return capture.StreamFormat{
		PixelFormat: capture.PixelFormat(applied.PixelFormat),
		Width:       applied.Width,
		Height:      applied.Height,
		Field:       applied.Field,
	}, nil
}

func (d *v4l2Device) RequestBuffers(count uint32) (uint32, error) {
	return d.dev.RequestBuffers(count)
}

func (d *v4l2Device) QueryBuffer(index uint32) (uint32, uint32, error) {
	return d.dev.QueryBuffer(index)
}

func (d *v4l2Device) MapBuffer(length, offset uint32) ([]byte, error) {
	return d.dev.Mmap(offset, length)
}

func (d *v4l2Device) UnmapBuffer(mem []byte) error {
	return d.dev.Munmap(mem)
}

func (d *v4l2Device) Enqueue(index uint32) error {
	return d.dev.QueueBuffer(index)
}

func (d *v4l2Device) Dequeue() (uint32, uint32, error) {
	return d.dev.DequeueBuffer()
}

func (d *v4l2Device) StreamOn() error { return d.dev.StreamOn() }

func (d *v4l2Device) StreamOff() error { return d.dev.StreamOff() }

func (d *v4l2Device) WaitReady(timeout time.Duration) (capture.Readiness, error) {
	ready, err := d.dev.WaitReadable(timeout)
	if errors.Is(err, unix.EINTR) {
		return capture.Interrupted, nil
	}
	if err != nil {
		return capture.Ready, err
	}
	if !ready {
		return capture.Timeout, nil
	}
	return capture.Ready, nil
}
