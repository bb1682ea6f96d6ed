package capture

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies capture errors.
type Kind string

// Error kinds.
const (
	KindConfiguration Kind = "configuration"
	KindDevice        Kind = "device"
	KindTimeout       Kind = "timeout"
	KindResource      Kind = "resource"
	KindSink          Kind = "sink"
	KindState         Kind = "state"
)

// Sentinels for errors.Is, one per kind.
var (
	ErrConfiguration     = errors.New("configuration error")
	ErrDevice            = errors.New("device error")
	ErrTimeout           = errors.New("timeout")
	ErrResource          = errors.New("resource error")
	ErrSink              = errors.New("sink error")
	ErrInvalidTransition = errors.New("invalid state transition")
)

var kindSentinels = map[Kind]error{
	KindConfiguration: ErrConfiguration,
	KindDevice:        ErrDevice,
	KindTimeout:       ErrTimeout,
	KindResource:      ErrResource,
	KindSink:          ErrSink,
	KindState:         ErrInvalidTransition,
}

// Error is a classified capture failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Op)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of a capture error, or "" for other errors.
func KindOf(err error) Kind {
	var ue *UnsupportedError
	if errors.As(err, &ue) {
		return KindConfiguration
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// UnsupportedError reports a pixel format or frame size the device does not
// offer, along with everything it does offer for that query.
type UnsupportedError struct {
	PixelFormat PixelFormat
	Width       uint32
	Height      uint32
	// Formats is set when the pixel format was rejected.
	Formats []FormatDesc
	// Sizes is set when the frame size was rejected.
	Sizes []FrameSize
}

func (e *UnsupportedError) Error() string {
	if e.Formats != nil {
		names := make([]string, len(e.Formats))
		for i, f := range e.Formats {
			names[i] = f.PixelFormat.String()
		}
		return fmt.Sprintf("pixel format %s not supported (device offers: %s)",
			e.PixelFormat, strings.Join(names, ", "))
	}
	return fmt.Sprintf("frame size %dx%d not supported for %s",
		e.Width, e.Height, e.PixelFormat)
}

// Is reports UnsupportedError as a configuration error.
func (e *UnsupportedError) Is(target error) bool {
	return target == ErrConfiguration
}
