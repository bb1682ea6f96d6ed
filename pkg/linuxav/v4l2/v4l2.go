// Package v4l2 provides pure Go bindings to the Video4Linux2 (V4L2) API
// for device enumeration, format negotiation, and mmap streaming I/O.
//
// This package does not use cgo, enabling simple cross-compilation for
// different Linux architectures (amd64, arm64, arm).
//
// # Device Enumeration
//
// Use FindDevices to discover all V4L2 video capture devices:
//
//	devices, err := v4l2.FindDevices()
//	for _, dev := range devices {
//	    fmt.Printf("%s: %s\n", dev.DevicePath, dev.DeviceName)
//	}
//
// # Format Queries
//
// Formats and frame sizes are enumerated one index at a time. The kernel
// reports the end of an enumeration with EINVAL:
//
//	dev, _ := v4l2.Open("/dev/video0")
//	defer dev.Close()
//	for i := uint32(0); ; i++ {
//	    f, err := dev.EnumFormat(i)
//	    if errors.Is(err, unix.EINVAL) {
//	        break
//	    }
//	}
//
// # Streaming
//
// Memory-mapped streaming follows the kernel's call order:
//
//	dev.SetFormat(v4l2.PixFormat{...})
//	n, _ := dev.RequestBuffers(4)
//	length, offset, _ := dev.QueryBuffer(0)
//	mem, _ := dev.Mmap(offset, length)
//	dev.QueueBuffer(0)
//	dev.StreamOn()
//	ready, _ := dev.WaitReadable(2 * time.Second)
//	index, used, _ := dev.DequeueBuffer()
//
// Name tables for pixel formats and capability bits are available on every
// platform; the device functions are Linux only.
package v4l2
