package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/smazurov/camcap/internal/events"
	"github.com/smazurov/camcap/internal/logging"
	"github.com/smazurov/camcap/internal/metrics"
)

// DefaultTimeout is the readiness wait used when Config.Timeout is zero.
const DefaultTimeout = 2 * time.Second

// DefaultBuffers is the pool size used when Config.Buffers is zero.
const DefaultBuffers = 4

// State is a streaming session state. States only move forward.
type State int

// Session states.
const (
	StateIdle State = iota
	StateConfigured
	StateArmed
	StateStreaming
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConfigured:
		return "configured"
	case StateArmed:
		return "armed"
	case StateStreaming:
		return "streaming"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Owner records who may touch a buffer's memory.
type Owner int

// Buffer owners.
const (
	OwnerApplication Owner = iota
	OwnerDriver
)

// Config tunes a capture session.
type Config struct {
	// Buffers is the number of driver buffers to arm.
	Buffers int
	// Timeout bounds each readiness wait, not the whole run.
	Timeout time.Duration
	// Bus receives session events. Optional.
	Bus *events.Bus
	// Logger defaults to the "capture" module logger.
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.Buffers == 0 {
		c.Buffers = DefaultBuffers
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Logger == nil {
		c.Logger = logging.GetLogger("capture")
	}
	return c
}

// Frame describes a captured frame after it was written and requeued.
type Frame struct {
	Sequence  uint64
	Index     uint32
	BytesUsed uint32
}

// Session drives one device through configure, arm, start, capture and
// stop. A session is single use and not safe for concurrent use.
type Session struct {
	id     string
	dev    Device
	sink   io.Writer
	cfg    Config
	logger *slog.Logger

	state  State
	format StreamFormat
	pool   *Pool
	owners []Owner
	frames uint64
}

// NewSession creates an idle session writing frames to sink.
func NewSession(dev Device, sink io.Writer, cfg Config) *Session {
	cfg = cfg.withDefaults()
	id := uuid.NewString()
	return &Session{
		id:     id,
		dev:    dev,
		sink:   sink,
		cfg:    cfg,
		logger: cfg.Logger.With("device", dev.Path(), "session", id),
		state:  StateIdle,
	}
}

// ID identifies the session in logs and events.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() State { return s.state }

// Format returns the configured stream format.
func (s *Session) Format() StreamFormat { return s.format }

// Pool returns the armed buffer pool, or nil before Arm.
func (s *Session) Pool() *Pool { return s.pool }

// Owner returns who holds buffer index.
func (s *Session) Owner(index uint32) Owner { return s.owners[index] }

// Frames returns the number of frames captured so far.
func (s *Session) Frames() uint64 { return s.frames }

// Configure sets f on the device. A driver that adjusts the dimensions or
// pixel format instead of applying them rejects the request.
func (s *Session) Configure(f StreamFormat) error {
	if err := s.expect("configure", StateIdle); err != nil {
		return err
	}
	f.Field = FieldNone

	applied, err := s.dev.SetFormat(f)
	if err != nil {
		return s.fail(newError(KindDevice, "set format", err))
	}
	if applied.PixelFormat != f.PixelFormat || applied.Width != f.Width || applied.Height != f.Height {
		return s.fail(newError(KindConfiguration, "set format",
			fmt.Errorf("driver applied %s %dx%d instead of %s %dx%d",
				applied.PixelFormat, applied.Width, applied.Height,
				f.PixelFormat, f.Width, f.Height)))
	}

	s.format = f
	s.transition(StateConfigured)
	return nil
}

// Arm requests and maps count buffers.
func (s *Session) Arm(count int) error {
	if err := s.expect("arm", StateConfigured); err != nil {
		return err
	}

	pool, err := ArmPool(s.dev, count)
	if err != nil {
		return s.fail(err)
	}
	s.pool = pool
	s.owners = make([]Owner, pool.Len())
	metrics.SetBuffersArmed(s.dev.Path(), pool.Len())
	s.logger.Debug("Buffers armed", "requested", count, "granted", pool.Len())

	s.transition(StateArmed)
	return nil
}

// Start hands every buffer to the driver and turns the stream on.
func (s *Session) Start() error {
	if err := s.expect("start", StateArmed); err != nil {
		return err
	}

	for i := range s.owners {
		idx := uint32(i)
		if err := s.dev.Enqueue(idx); err != nil {
			return s.failStreaming(newError(KindDevice, fmt.Sprintf("queue buffer %d", idx), err))
		}
		s.owners[i] = OwnerDriver
	}
	if err := s.dev.StreamOn(); err != nil {
		return s.failStreaming(newError(KindDevice, "stream on", err))
	}

	s.transition(StateStreaming)
	return nil
}

// CaptureOne waits for a filled buffer, writes its valid bytes to the sink
// and requeues it. The buffer is requeued even when the write fails. Any
// error is fatal: the stream is turned off and the pool unmapped before
// CaptureOne returns.
func (s *Session) CaptureOne(timeout time.Duration) (Frame, error) {
	if err := s.expect("capture", StateStreaming); err != nil {
		return Frame{}, err
	}

	if err := s.waitReady(timeout); err != nil {
		return Frame{}, s.fail(err)
	}

	idx, used, err := s.dev.Dequeue()
	if err != nil {
		return Frame{}, s.fail(newError(KindDevice, "dequeue buffer", err))
	}
	if int(idx) >= len(s.owners) {
		return Frame{}, s.fail(newError(KindDevice, "dequeue buffer",
			fmt.Errorf("driver returned buffer %d of %d", idx, len(s.owners))))
	}
	if s.owners[idx] != OwnerDriver {
		return Frame{}, s.fail(newError(KindDevice, "dequeue buffer",
			fmt.Errorf("buffer %d dequeued while not queued", idx)))
	}
	s.owners[idx] = OwnerApplication

	buf := s.pool.Buffer(idx)
	if used > buf.Length {
		return Frame{}, s.fail(newError(KindDevice, "dequeue buffer",
			fmt.Errorf("buffer %d reports %d bytes used of %d", idx, used, buf.Length)))
	}

	werr := s.write(buf.Data[:used])

	qerr := s.dev.Enqueue(idx)
	if qerr == nil {
		s.owners[idx] = OwnerDriver
	}

	if werr != nil {
		return Frame{}, s.fail(newError(KindSink, "write frame", werr))
	}
	if qerr != nil {
		return Frame{}, s.fail(newError(KindDevice, fmt.Sprintf("requeue buffer %d", idx), qerr))
	}

	s.frames++
	frame := Frame{Sequence: s.frames, Index: idx, BytesUsed: used}
	metrics.RecordFrame(s.dev.Path(), int(used))
	s.cfg.Bus.Publish(events.FrameCapturedEvent{
		SessionID:  s.id,
		DevicePath: s.dev.Path(),
		Sequence:   frame.Sequence,
		Index:      idx,
		BytesUsed:  used,
		Timestamp:  time.Now().Format(time.RFC3339),
	})
	return frame, nil
}

// Run captures until frames frames have been written. The context is
// checked between frames; on cancellation the session is shut down and
// the context's error returned.
func (s *Session) Run(ctx context.Context, frames int) error {
	for n := 0; n < frames; n++ {
		if err := ctx.Err(); err != nil {
			s.logger.Info("Capture cancelled", "frames", s.frames)
			if cerr := s.Close(); cerr != nil {
				s.logger.Warn("Cleanup after cancel failed", "error", cerr)
			}
			return err
		}
		if _, err := s.CaptureOne(s.cfg.Timeout); err != nil {
			return err
		}
	}
	return nil
}

// Stop turns the stream off and unmaps the pool. It is only valid while
// streaming; stopping twice is an invalid transition.
func (s *Session) Stop() error {
	if err := s.expect("stop", StateStreaming); err != nil {
		return err
	}

	var errs []error
	if err := s.dev.StreamOff(); err != nil {
		errs = append(errs, newError(KindDevice, "stream off", err))
	}
	s.releaseOwners()
	if err := s.teardown(); err != nil {
		errs = append(errs, newError(KindResource, "teardown", err))
	}
	s.transition(StateStopped)
	return errors.Join(errs...)
}

// Close releases whatever the session still holds, from any state, and
// leaves it stopped. Closing a stopped session does nothing.
func (s *Session) Close() error {
	if s.state == StateStopped {
		return nil
	}
	err := s.unwind(s.state == StateStreaming)
	s.transition(StateStopped)
	return err
}

func (s *Session) waitReady(timeout time.Duration) error {
	start := time.Now()
	for {
		r, err := s.dev.WaitReady(timeout)
		if err != nil {
			return newError(KindDevice, "wait for frame", err)
		}
		switch r {
		case Ready:
			metrics.ObserveWait(s.dev.Path(), time.Since(start))
			return nil
		case Interrupted:
			metrics.RecordInterrupt(s.dev.Path())
			s.logger.Debug("Wait interrupted, retrying")
			continue
		case Timeout:
			metrics.RecordTimeout(s.dev.Path())
			return newError(KindTimeout, "wait for frame",
				fmt.Errorf("no frame within %s", timeout))
		default:
			return newError(KindDevice, "wait for frame", fmt.Errorf("unexpected readiness %d", r))
		}
	}
}

func (s *Session) write(b []byte) error {
	n, err := s.sink.Write(b)
	if err != nil {
		return err
	}
	if n < len(b) {
		return io.ErrShortWrite
	}
	return nil
}

func (s *Session) expect(op string, want State) error {
	if s.state != want {
		return newError(KindState, op,
			fmt.Errorf("session is %s, want %s", s.state, want))
	}
	return nil
}

// fail unwinds a fatal error and moves the session to stopped.
func (s *Session) fail(err error) error {
	return s.failWith(err, s.state == StateStreaming)
}

// failStreaming unwinds a failure raised while the stream may be partially
// started, so stream off is attempted regardless of state.
func (s *Session) failStreaming(err error) error {
	return s.failWith(err, true)
}

func (s *Session) failWith(err error, streamOff bool) error {
	if cerr := s.unwind(streamOff); cerr != nil {
		s.logger.Warn("Cleanup after failure incomplete", "error", cerr)
	}
	kind := KindOf(err)
	s.logger.Error("Capture failed", "kind", kind, "error", err)
	metrics.RecordError(s.dev.Path(), string(kind))
	s.cfg.Bus.Publish(events.CaptureErrorEvent{
		SessionID:  s.id,
		DevicePath: s.dev.Path(),
		Kind:       string(kind),
		Error:      err.Error(),
		Timestamp:  time.Now().Format(time.RFC3339),
	})
	s.transition(StateStopped)
	return err
}

// unwind stops the data plane, then releases mapped memory.
func (s *Session) unwind(streamOff bool) error {
	var errs []error
	if streamOff {
		if err := s.dev.StreamOff(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stream off: %w", err))
		}
		s.releaseOwners()
	}
	if err := s.teardown(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// releaseOwners records that stream off returned every buffer.
func (s *Session) releaseOwners() {
	for i := range s.owners {
		s.owners[i] = OwnerApplication
	}
}

func (s *Session) teardown() error {
	if s.pool == nil {
		return nil
	}
	err := s.pool.Teardown()
	metrics.SetBuffersArmed(s.dev.Path(), s.pool.Mapped())
	return err
}

func (s *Session) transition(to State) {
	from := s.state
	if from == to {
		return
	}
	s.state = to
	s.logger.Debug("Session state changed", "from", from, "to", to)
	s.cfg.Bus.Publish(events.SessionStateChangedEvent{
		SessionID:  s.id,
		DevicePath: s.dev.Path(),
		From:       from.String(),
		To:         to.String(),
		Timestamp:  time.Now().Format(time.RFC3339),
	})
}
