package capture

// Request is the format a caller asks for.
type Request struct {
	PixelFormat PixelFormat
	Width       uint32
	Height      uint32
}

// ValidateFormat reports whether the device offers pf.
func ValidateFormat(dev Device, pf PixelFormat) (bool, error) {
	formats, err := ListPixelFormats(dev)
	if err != nil {
		return false, err
	}
	return containsFormat(formats, pf), nil
}

// ValidateSize reports whether any frame size descriptor for pf accepts
// width x height.
func ValidateSize(dev Device, pf PixelFormat, width, height uint32) (bool, error) {
	sizes, err := ListFrameSizes(dev, pf)
	if err != nil {
		return false, err
	}
	return anySizeMatches(sizes, width, height), nil
}

// SizeMatches reports whether a single descriptor accepts width x height.
//
// Stepwise sizes form an integer grid per axis starting at the minimum;
// both bounds are inclusive and the maximum itself is always accepted.
// Descriptors of unknown kind match nothing.
func SizeMatches(fs FrameSize, width, height uint32) bool {
	switch fs.Kind {
	case FrameSizeDiscrete:
		return fs.Width == width && fs.Height == height
	case FrameSizeContinuous:
		return inRange(width, fs.MinWidth, fs.MaxWidth) &&
			inRange(height, fs.MinHeight, fs.MaxHeight)
	case FrameSizeStepwise:
		return onGrid(width, fs.MinWidth, fs.MaxWidth, fs.StepWidth) &&
			onGrid(height, fs.MinHeight, fs.MaxHeight, fs.StepHeight)
	default:
		return false
	}
}

// Negotiate confirms req against the device's enumerations. The size is
// only checked once the pixel format is known to be offered. Rejections
// return an *UnsupportedError carrying the full candidate list.
func Negotiate(dev Device, req Request) (StreamFormat, error) {
	formats, err := ListPixelFormats(dev)
	if err != nil {
		return StreamFormat{}, err
	}
	if !containsFormat(formats, req.PixelFormat) {
		return StreamFormat{}, &UnsupportedError{
			PixelFormat: req.PixelFormat,
			Width:       req.Width,
			Height:      req.Height,
			Formats:     formats,
		}
	}

	sizes, err := ListFrameSizes(dev, req.PixelFormat)
	if err != nil {
		return StreamFormat{}, err
	}
	if !anySizeMatches(sizes, req.Width, req.Height) {
		return StreamFormat{}, &UnsupportedError{
			PixelFormat: req.PixelFormat,
			Width:       req.Width,
			Height:      req.Height,
			Sizes:       sizes,
		}
	}

	return StreamFormat{
		PixelFormat: req.PixelFormat,
		Width:       req.Width,
		Height:      req.Height,
		Field:       FieldNone,
	}, nil
}

func containsFormat(formats []FormatDesc, pf PixelFormat) bool {
	for _, f := range formats {
		if f.PixelFormat == pf {
			return true
		}
	}
	return false
}

func anySizeMatches(sizes []FrameSize, width, height uint32) bool {
	for _, fs := range sizes {
		if SizeMatches(fs, width, height) {
			return true
		}
	}
	return false
}

func inRange(v, lo, hi uint32) bool {
	return lo <= v && v <= hi
}

// onGrid reports whether v is lo plus a whole number of steps, or one of
// the bounds. The maximum is accepted even when it is off the step grid,
// since drivers advertise it as a supported size (240 from 120 by 16).
func onGrid(v, lo, hi, step uint32) bool {
	if !inRange(v, lo, hi) {
		return false
	}
	if v == lo || v == hi {
		return true
	}
	if step == 0 {
		return false
	}
	return (v-lo)%step == 0
}
