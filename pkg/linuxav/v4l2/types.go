package v4l2

// DeviceInfo contains information about a V4L2 device.
type DeviceInfo struct {
	DevicePath string
	DeviceName string
	DeviceID   string // Stable identifier (from /dev/v4l/by-id/ or synthetic)
	Caps       uint32
}

// Capability is the decoded result of VIDIOC_QUERYCAP.
type Capability struct {
	Driver       string
	Card         string
	BusInfo      string
	Version      uint32
	Capabilities uint32
	DeviceCaps   uint32
}

// EffectiveCaps returns the capabilities of the opened node. Drivers that
// expose several nodes report per-node caps in DeviceCaps.
func (c Capability) EffectiveCaps() uint32 {
	if c.Capabilities&CapDeviceCaps != 0 {
		return c.DeviceCaps
	}
	return c.Capabilities
}

// FormatInfo contains information about a supported pixel format.
type FormatInfo struct {
	PixelFormat uint32
	FormatName  string
	Emulated    bool
}

// FrameSize is one VIDIOC_ENUM_FRAMESIZES entry. Width and Height are set
// for discrete entries; the Min/Max/Step fields for stepwise and continuous ones.
type FrameSize struct {
	Type       uint32
	Width      uint32
	Height     uint32
	MinWidth   uint32
	MaxWidth   uint32
	StepWidth  uint32
	MinHeight  uint32
	MaxHeight  uint32
	StepHeight uint32
}

// PixFormat is the single-planar image format passed to VIDIOC_S_FMT.
type PixFormat struct {
	Width        uint32
	Height       uint32
	PixelFormat  uint32
	Field        uint32
	BytesPerLine uint32
	SizeImage    uint32
}

// Capability flags.
const (
	CapVideoCapture = 0x00000001
	CapReadWrite    = 0x01000000
	CapStreaming    = 0x04000000
	CapDeviceCaps   = 0x80000000
)

// Format flags.
const (
	FmtFlagEmulated = 0x0002
)

// Frame size types.
const (
	FrmsizeTypeDiscrete   = 1
	FrmsizeTypeContinuous = 2
	FrmsizeTypeStepwise   = 3
)

// Buffer type, memory and field values used for single-planar mmap capture.
const (
	BufTypeVideoCapture = 1
	MemoryMMAP          = 1
	FieldNone           = 1
)
