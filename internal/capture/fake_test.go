package capture

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/smazurov/camcap/internal/logging"
)

var errInjected = errors.New("injected failure")

// fakeDevice simulates a driver. It records every call in order and
// tracks which buffers are queued and which regions are mapped.
type fakeDevice struct {
	t    *testing.T
	path string

	caps    Capabilities
	capsErr error

	formats      []FormatDesc
	sizes        map[PixelFormat][]FrameSize
	formatErrAt  int // index that fails, -1 for never
	sizeErrAt    int
	endless      bool
	setFormatErr error
	adjust       func(StreamFormat) StreamFormat

	granted     uint32 // 0 grants what was asked
	reqErr      error
	releaseErr  error
	bufLen      uint32
	queryErrAt  int
	mapErrAt    int
	enqueueFail int // 1-based enqueue call that fails, 0 for never
	streamOnErr error
	streamOff   error
	dequeueErr  error

	readyOrder []uint32
	bytesUsed  uint32
	waits      []Readiness // scripted results, Ready afterwards
	waitErr    error

	calls        []string
	mem          map[*byte]uint32
	queued       map[uint32]bool
	unmapped     []uint32
	mapCalls     []uint32
	enqueueCalls int
	dequeued     int
	lastDequeued uint32
	streaming    bool
}

func newFakeDevice(t *testing.T) *fakeDevice {
	t.Helper()
	return &fakeDevice{
		t:    t,
		path: "/dev/fake-" + t.Name(),
		caps: Capabilities{
			Driver:       "fake",
			Card:         "Fake Camera",
			Capabilities: 0x84000001,
			DeviceCaps:   0x04000001,
		},
		formats: []FormatDesc{
			{PixelFormat: pixA, Description: "Format A"},
			{PixelFormat: pixB, Description: "Format B"},
			{PixelFormat: pixC, Description: "Format C"},
		},
		sizes: map[PixelFormat][]FrameSize{
			pixA: {{Kind: FrameSizeDiscrete, Width: 640, Height: 480}},
		},
		formatErrAt: -1,
		sizeErrAt:   -1,
		bufLen:      1024,
		queryErrAt:  -1,
		mapErrAt:    -1,
		bytesUsed:   100,
		mem:         make(map[*byte]uint32),
		queued:      make(map[uint32]bool),
	}
}

var (
	pixA = PixelFormat(0x41414141)
	pixB = PixelFormat(0x42424242)
	pixC = PixelFormat(0x43434343)
)

func (f *fakeDevice) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeDevice) Path() string { return f.path }

func (f *fakeDevice) QueryCapabilities() (Capabilities, error) {
	f.record("querycap")
	return f.caps, f.capsErr
}

func (f *fakeDevice) EnumFormat(index uint32) (FormatDesc, error) {
	if int(index) == f.formatErrAt {
		return FormatDesc{}, errInjected
	}
	if f.endless {
		return FormatDesc{PixelFormat: pixA}, nil
	}
	if int(index) >= len(f.formats) {
		return FormatDesc{}, ErrExhausted
	}
	return f.formats[index], nil
}

func (f *fakeDevice) EnumFrameSize(pf PixelFormat, index uint32) (FrameSize, error) {
	if int(index) == f.sizeErrAt {
		return FrameSize{}, errInjected
	}
	sizes := f.sizes[pf]
	if int(index) >= len(sizes) {
		return FrameSize{}, ErrExhausted
	}
	return sizes[index], nil
}

func (f *fakeDevice) SetFormat(sf StreamFormat) (StreamFormat, error) {
	f.record("setformat %s %dx%d", sf.PixelFormat, sf.Width, sf.Height)
	if f.setFormatErr != nil {
		return StreamFormat{}, f.setFormatErr
	}
	if f.adjust != nil {
		return f.adjust(sf), nil
	}
	return sf, nil
}

func (f *fakeDevice) RequestBuffers(count uint32) (uint32, error) {
	f.record("reqbufs %d", count)
	if count == 0 {
		return 0, f.releaseErr
	}
	if f.reqErr != nil {
		return 0, f.reqErr
	}
	if f.granted != 0 {
		return f.granted, nil
	}
	return count, nil
}

func (f *fakeDevice) QueryBuffer(index uint32) (uint32, uint32, error) {
	f.record("querybuf %d", index)
	if int(index) == f.queryErrAt {
		return 0, 0, errInjected
	}
	return f.bufLen, index * f.bufLen, nil
}

func (f *fakeDevice) MapBuffer(length, offset uint32) ([]byte, error) {
	index := offset / f.bufLen
	f.record("map %d", index)
	if int(index) == f.mapErrAt {
		return nil, errInjected
	}
	mem := make([]byte, length)
	f.mem[&mem[0]] = index
	f.mapCalls = append(f.mapCalls, index)
	return mem, nil
}

func (f *fakeDevice) UnmapBuffer(mem []byte) error {
	index, ok := f.mem[&mem[0]]
	if !ok {
		f.t.Errorf("unmap of a region that is not mapped")
		return errInjected
	}
	delete(f.mem, &mem[0])
	f.record("unmap %d", index)
	f.unmapped = append(f.unmapped, index)
	return nil
}

func (f *fakeDevice) Enqueue(index uint32) error {
	f.enqueueCalls++
	f.record("enqueue %d", index)
	if f.enqueueCalls == f.enqueueFail {
		return errInjected
	}
	if f.queued[index] {
		f.t.Errorf("buffer %d queued twice", index)
	}
	f.queued[index] = true
	return nil
}

func (f *fakeDevice) Dequeue() (uint32, uint32, error) {
	if f.dequeueErr != nil {
		f.record("dequeue error")
		return 0, 0, f.dequeueErr
	}
	var index uint32
	if len(f.readyOrder) > 0 {
		index = f.readyOrder[f.dequeued%len(f.readyOrder)]
	} else {
		index = uint32(f.dequeued % len(f.queued))
	}
	f.dequeued++
	f.record("dequeue %d", index)
	if !f.queued[index] {
		f.t.Errorf("driver dequeued buffer %d that was not queued", index)
	}
	f.queued[index] = false
	f.lastDequeued = index
	return index, f.bytesUsed, nil
}

func (f *fakeDevice) StreamOn() error {
	f.record("streamon")
	if f.streamOnErr != nil {
		return f.streamOnErr
	}
	f.streaming = true
	return nil
}

func (f *fakeDevice) StreamOff() error {
	f.record("streamoff")
	f.streaming = false
	for i := range f.queued {
		f.queued[i] = false
	}
	return f.streamOff
}

func (f *fakeDevice) WaitReady(_ time.Duration) (Readiness, error) {
	f.record("wait")
	if f.waitErr != nil {
		return Ready, f.waitErr
	}
	if len(f.waits) > 0 {
		r := f.waits[0]
		f.waits = f.waits[1:]
		return r, nil
	}
	return Ready, nil
}

// last returns the final n recorded calls.
func (f *fakeDevice) last(n int) []string {
	if n > len(f.calls) {
		n = len(f.calls)
	}
	return f.calls[len(f.calls)-n:]
}

// recordingSink logs writes into the device's call list and fails the test
// if a write happens while the buffer is still queued to the driver.
type recordingSink struct {
	dev     *fakeDevice
	writes  [][]byte
	err     error
	short   bool
	failAt  int // 1-based write that fails, 0 for never
	written int
}

func (s *recordingSink) Write(b []byte) (int, error) {
	s.written++
	s.dev.record("write %d", s.dev.lastDequeued)
	if s.dev.queued[s.dev.lastDequeued] {
		s.dev.t.Errorf("write from buffer %d while driver owns it", s.dev.lastDequeued)
	}
	if s.failAt != 0 && s.written == s.failAt {
		if s.short {
			return len(b) / 2, nil
		}
		return 0, s.err
	}
	s.writes = append(s.writes, append([]byte(nil), b...))
	return len(b), nil
}

func testConfig() Config {
	return Config{
		Buffers: 4,
		Timeout: 10 * time.Millisecond,
		Logger:  logging.Discard(),
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
