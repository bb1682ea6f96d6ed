package events

// Event type constants for kelindar/event.
const (
	TypeSessionStateChanged uint32 = iota + 1
	TypeFrameCaptured
	TypeCaptureError
	TypeDeviceDiscovery
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// SessionStateChangedEvent is published on every streaming session transition.
type SessionStateChangedEvent struct {
	SessionID  string `json:"session_id"`
	DevicePath string `json:"device_path"`
	From       string `json:"from"`
	To         string `json:"to"`
	Timestamp  string `json:"timestamp"`
}

// Type returns the event type identifier for SessionStateChangedEvent.
func (e SessionStateChangedEvent) Type() uint32 { return TypeSessionStateChanged }

// FrameCapturedEvent is published after a frame has been written to the sink.
// It carries sizes only; buffer memory never leaves the session.
type FrameCapturedEvent struct {
	SessionID  string `json:"session_id"`
	DevicePath string `json:"device_path"`
	Sequence   uint64 `json:"sequence"`
	Index      uint32 `json:"index"`
	BytesUsed  uint32 `json:"bytes_used"`
	Timestamp  string `json:"timestamp"`
}

// Type returns the event type identifier for FrameCapturedEvent.
func (e FrameCapturedEvent) Type() uint32 { return TypeFrameCaptured }

// CaptureErrorEvent is published when a session fails and unwinds.
type CaptureErrorEvent struct {
	SessionID  string `json:"session_id"`
	DevicePath string `json:"device_path"`
	Kind       string `json:"kind"`
	Error      string `json:"error"`
	Timestamp  string `json:"timestamp"`
}

// Type returns the event type identifier for CaptureErrorEvent.
func (e CaptureErrorEvent) Type() uint32 { return TypeCaptureError }

// DeviceDiscoveryEvent reports a device node appearing or disappearing.
type DeviceDiscoveryEvent struct {
	DevicePath string `json:"device_path"`
	Action     string `json:"action"`
	Timestamp  string `json:"timestamp"`
}

// Type returns the event type identifier for DeviceDiscoveryEvent.
func (e DeviceDiscoveryEvent) Type() uint32 { return TypeDeviceDiscovery }
