package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/smazurov/camcap/internal/capture"
	"github.com/smazurov/camcap/internal/devices"
	"github.com/smazurov/camcap/pkg/linuxav/v4l2"
)

// FormatFrameSize renders one frame size descriptor on a single line.
func FormatFrameSize(fs capture.FrameSize) string {
	switch fs.Kind {
	case capture.FrameSizeDiscrete:
		return fmt.Sprintf("%dx%d", fs.Width, fs.Height)
	case capture.FrameSizeStepwise:
		return fmt.Sprintf("From %dx%d to %dx%d by %dx%d",
			fs.MinWidth, fs.MinHeight, fs.MaxWidth, fs.MaxHeight, fs.StepWidth, fs.StepHeight)
	case capture.FrameSizeContinuous:
		return fmt.Sprintf("Any dimension between %dx%d and %dx%d",
			fs.MinWidth, fs.MinHeight, fs.MaxWidth, fs.MaxHeight)
	default:
		return fmt.Sprintf("Unknown frame size type %d", uint32(fs.Kind))
	}
}

// PrintCandidates lists what the device offers after a rejected request.
// It returns false when err is not an *capture.UnsupportedError.
func PrintCandidates(w io.Writer, err error) bool {
	var unsupported *capture.UnsupportedError
	if !errors.As(err, &unsupported) {
		return false
	}

	if unsupported.Formats != nil {
		fmt.Fprintf(w, "Pixel format %s is not supported! Please select from the following:\n", unsupported.PixelFormat)
		for _, f := range unsupported.Formats {
			fmt.Fprintf(w, "%s\n", f.PixelFormat.Name())
		}
		return true
	}

	fmt.Fprintf(w, "Frame size %dx%d is not supported for %s! Please select from the following:\n",
		unsupported.Width, unsupported.Height, unsupported.PixelFormat.Name())
	for _, fs := range unsupported.Sizes {
		fmt.Fprintln(w, FormatFrameSize(fs))
	}
	return true
}

// PrintCapabilities writes the capability report of an open device.
func PrintCapabilities(w io.Writer, caps capture.Capabilities) {
	fmt.Fprintf(w, "Driver = %q\n", caps.Driver)
	fmt.Fprintf(w, "Card = %q\n", caps.Card)
	fmt.Fprintf(w, "Bus info = %q\n", caps.BusInfo)
	fmt.Fprintf(w, "V4L2 driver version = %s\n", formatKernelVersion(caps.Version))
	fmt.Fprintf(w, "Capabilities = 0x%08x\n", caps.Capabilities)
	if caps.Capabilities&v4l2.CapDeviceCaps != 0 {
		fmt.Fprintf(w, "Device caps = 0x%08x\n", caps.DeviceCaps)
	}
	for _, c := range v4l2.CapabilityNames(caps.Effective()) {
		fmt.Fprintf(w, "%s - %s\n", c.Name, c.Description)
	}
}

// PrintFormats writes every pixel format and its frame sizes.
func PrintFormats(w io.Writer, dev capture.Device) error {
	formats, err := capture.ListPixelFormats(dev)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Got %d formats of type V4L2_BUF_TYPE_VIDEO_CAPTURE:\n", len(formats))
	for _, f := range formats {
		desc := f.Description
		if f.Emulated {
			desc += " (emulated)"
		}
		fmt.Fprintf(w, "\tDescription: %q; Pixelformat: %s\n", desc, f.PixelFormat.Name())

		sizes, err := capture.ListFrameSizes(dev, f.PixelFormat)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\tFrame sizes:\n")
		for _, fs := range sizes {
			fmt.Fprintf(w, "\t\t%s\n", FormatFrameSize(fs))
		}
	}
	return nil
}

// PrintPixelFormats writes the table of known pixel formats.
func PrintPixelFormats(w io.Writer) {
	for _, pf := range v4l2.PixelFormats {
		fmt.Fprintf(w, "%s (0x%08x) - %q\n", pf.Name, pf.Code, pf.Description)
	}
}

// formatKernelVersion decodes KERNEL_VERSION(a, b, c) packing.
func formatKernelVersion(v uint32) string {
	return fmt.Sprintf("%d.%d.%d", (v>>16)&0xff, (v>>8)&0xff, v&0xff)
}

// PrintDevices writes one line per discovered capture node.
func PrintDevices(w io.Writer, found []devices.DeviceInfo) {
	if len(found) == 0 {
		fmt.Fprintln(w, "No video capture devices found")
		return
	}
	for _, d := range found {
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.DevicePath, d.DeviceID, d.DeviceName)
	}
}
