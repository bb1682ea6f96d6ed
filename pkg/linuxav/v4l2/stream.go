//go:build linux

package v4l2

import (
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// RequestBuffers asks the driver for count mmap buffers and returns the
// number granted. A count of zero releases all buffers.
func (d *Device) RequestBuffers(count uint32) (uint32, error) {
	req := v4l2Requestbuffers{
		count:  count,
		typ:    BufTypeVideoCapture,
		memory: MemoryMMAP,
	}
	if err := ioctl(d.fd, vidiocReqbufs, unsafe.Pointer(&req)); err != nil {
		return 0, err
	}
	return req.count, nil
}

// QueryBuffer returns the length and mmap offset of buffer index.
func (d *Device) QueryBuffer(index uint32) (length, offset uint32, err error) {
	buf := v4l2Buffer{
		index:  index,
		typ:    BufTypeVideoCapture,
		memory: MemoryMMAP,
	}
	if err := ioctl(d.fd, vidiocQuerybuf, unsafe.Pointer(&buf)); err != nil {
		return 0, 0, err
	}
	return buf.length, buf.offset, nil
}

// Mmap maps a driver buffer shared and read/write.
func (d *Device) Mmap(offset, length uint32) ([]byte, error) {
	return unix.Mmap(d.fd, int64(offset), int(length), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

// Munmap releases a region returned by Mmap.
func (d *Device) Munmap(b []byte) error {
	return unix.Munmap(b)
}

// QueueBuffer hands buffer index to the driver.
func (d *Device) QueueBuffer(index uint32) error {
	buf := v4l2Buffer{
		index:  index,
		typ:    BufTypeVideoCapture,
		memory: MemoryMMAP,
	}
	return ioctl(d.fd, vidiocQbuf, unsafe.Pointer(&buf))
}

// DequeueBuffer takes the oldest filled buffer back from the driver.
func (d *Device) DequeueBuffer() (index, bytesUsed uint32, err error) {
	buf := v4l2Buffer{
		typ:    BufTypeVideoCapture,
		memory: MemoryMMAP,
	}
	if err := ioctl(d.fd, vidiocDqbuf, unsafe.Pointer(&buf)); err != nil {
		return 0, 0, err
	}
	return buf.index, buf.bytesused, nil
}

// StreamOn starts capture.
func (d *Device) StreamOn() error {
	typ := uint32(BufTypeVideoCapture)
	return ioctl(d.fd, vidiocStreamon, unsafe.Pointer(&typ))
}

// StreamOff stops capture and returns all queued buffers to the application.
func (d *Device) StreamOff() error {
	typ := uint32(BufTypeVideoCapture)
	return ioctl(d.fd, vidiocStreamoff, unsafe.Pointer(&typ))
}

// WaitReadable polls the device until a buffer can be dequeued or timeout
// elapses. It returns false on timeout. A signal interrupting the wait is
// reported as EINTR so the caller decides whether to retry.
func (d *Device) WaitReadable(timeout time.Duration) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(d.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, int(timeout.Milliseconds()))
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	if fds[0].Revents&(unix.POLLERR|unix.POLLNVAL|unix.POLLHUP) != 0 {
		return false, unix.EIO
	}
	return true, nil
}
