package capture

import (
	"errors"
	"fmt"
)

// maxEnumEntries bounds an enumeration against drivers that never report
// the end of the list.
const maxEnumEntries = 4096

// ListPixelFormats returns every pixel format the device offers for capture,
// in the order reported. A device with no formats yields an empty slice.
func ListPixelFormats(dev Device) ([]FormatDesc, error) {
	formats := []FormatDesc{}
	for i := uint32(0); i < maxEnumEntries; i++ {
		f, err := dev.EnumFormat(i)
		if errors.Is(err, ErrExhausted) {
			return formats, nil
		}
		if err != nil {
			return nil, newError(KindDevice, fmt.Sprintf("enumerate format %d", i), err)
		}
		formats = append(formats, f)
	}
	return nil, newError(KindDevice, "enumerate formats",
		fmt.Errorf("no end of list after %d entries", maxEnumEntries))
}

// ListFrameSizes returns every frame size descriptor the device reports
// for pf, in the order reported.
func ListFrameSizes(dev Device, pf PixelFormat) ([]FrameSize, error) {
	sizes := []FrameSize{}
	for i := uint32(0); i < maxEnumEntries; i++ {
		fs, err := dev.EnumFrameSize(pf, i)
		if errors.Is(err, ErrExhausted) {
			return sizes, nil
		}
		if err != nil {
			return nil, newError(KindDevice, fmt.Sprintf("enumerate frame size %d for %s", i, pf), err)
		}
		sizes = append(sizes, fs)
	}
	return nil, newError(KindDevice, "enumerate frame sizes",
		fmt.Errorf("no end of list after %d entries", maxEnumEntries))
}
