package capture

import (
	"errors"
	"time"

	"github.com/smazurov/camcap/pkg/linuxav/v4l2"
)

// ErrExhausted is returned by a Device enumeration call once the index is
// past the last entry. It is the only enumeration error that is not a failure.
var ErrExhausted = errors.New("enumeration exhausted")

// PixelFormat is a FourCC pixel format code.
type PixelFormat uint32

// String renders the FourCC code.
func (p PixelFormat) String() string { return v4l2.FormatFourCC(uint32(p)) }

// Name returns the short human name, or the FourCC for unknown formats.
func (p PixelFormat) Name() string { return v4l2.PixelFormatName(uint32(p)) }

// FormatDesc is one entry of a device's pixel format enumeration.
type FormatDesc struct {
	PixelFormat PixelFormat
	Description string
	Emulated    bool
}

// FrameSizeKind tags a FrameSize. Values follow the kernel's numbering.
type FrameSizeKind uint32

// Frame size kinds.
const (
	FrameSizeDiscrete   FrameSizeKind = v4l2.FrmsizeTypeDiscrete
	FrameSizeContinuous FrameSizeKind = v4l2.FrmsizeTypeContinuous
	FrameSizeStepwise   FrameSizeKind = v4l2.FrmsizeTypeStepwise
)

func (k FrameSizeKind) String() string {
	switch k {
	case FrameSizeDiscrete:
		return "discrete"
	case FrameSizeContinuous:
		return "continuous"
	case FrameSizeStepwise:
		return "stepwise"
	default:
		return "unknown"
	}
}

// FrameSize describes which dimensions a pixel format accepts. Width and
// Height are set for discrete sizes; the range fields for the other kinds.
type FrameSize struct {
	Kind       FrameSizeKind
	Width      uint32
	Height     uint32
	MinWidth   uint32
	MaxWidth   uint32
	StepWidth  uint32
	MinHeight  uint32
	MaxHeight  uint32
	StepHeight uint32
}

// FieldNone is progressive scan, the only field order used for capture.
const FieldNone = v4l2.FieldNone

// StreamFormat is the negotiated capture format.
type StreamFormat struct {
	PixelFormat PixelFormat
	Width       uint32
	Height      uint32
	Field       uint32
}

// Capabilities is the device's QUERYCAP report.
type Capabilities struct {
	Driver       string
	Card         string
	BusInfo      string
	Version      uint32
	Capabilities uint32
	DeviceCaps   uint32
}

// Effective returns the capability bits of the opened node.
func (c Capabilities) Effective() uint32 {
	if c.Capabilities&v4l2.CapDeviceCaps != 0 {
		return c.DeviceCaps
	}
	return c.Capabilities
}

// Readiness is the outcome of a successful readiness wait.
type Readiness int

// Readiness outcomes.
const (
	Ready Readiness = iota
	Timeout
	Interrupted
)

func (r Readiness) String() string {
	switch r {
	case Ready:
		return "ready"
	case Timeout:
		return "timeout"
	case Interrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Device is the control and data plane of an open capture device. The
// caller owns the device handle; the capture core never opens or closes it.
type Device interface {
	Path() string
	QueryCapabilities() (Capabilities, error)
	// EnumFormat returns ErrExhausted past the last format.
	EnumFormat(index uint32) (FormatDesc, error)
	// EnumFrameSize returns ErrExhausted past the last size.
	EnumFrameSize(pf PixelFormat, index uint32) (FrameSize, error)
	// SetFormat returns the format the driver actually applied.
	SetFormat(f StreamFormat) (StreamFormat, error)
	// RequestBuffers returns the number of buffers granted. Zero releases them.
	RequestBuffers(count uint32) (uint32, error)
	QueryBuffer(index uint32) (length, offset uint32, err error)
	MapBuffer(length, offset uint32) ([]byte, error)
	UnmapBuffer(mem []byte) error
	Enqueue(index uint32) error
	Dequeue() (index, bytesUsed uint32, err error)
	StreamOn() error
	StreamOff() error
	WaitReady(timeout time.Duration) (Readiness, error)
}
