//go:build linux

package v4l2

import "unsafe"

// EnumFormat returns the capture format at index. The kernel returns EINVAL
// once index is past the last format.
func (d *Device) EnumFormat(index uint32) (FormatInfo, error) {
	desc := v4l2Fmtdesc{
		index: index,
		typ:   BufTypeVideoCapture,
	}
	if err := ioctl(d.fd, vidiocEnumFmt, unsafe.Pointer(&desc)); err != nil {
		return FormatInfo{}, err
	}
	return FormatInfo{
		PixelFormat: desc.pixelformat,
		FormatName:  cstr(desc.description[:]),
		Emulated:    desc.flags&FmtFlagEmulated != 0,
	}, nil
}

// EnumFrameSize returns the frame size entry at index for pixelFormat.
// Drivers without frame size enumeration return ENOTTY.
func (d *Device) EnumFrameSize(pixelFormat, index uint32) (FrameSize, error) {
	fs := v4l2Frmsizeenum{
		index:       index,
		pixelFormat: pixelFormat,
	}
	if err := ioctl(d.fd, vidiocEnumFramesizes, unsafe.Pointer(&fs)); err != nil {
		return FrameSize{}, err
	}

	out := FrameSize{Type: fs.typ}
	switch fs.typ {
	case FrmsizeTypeDiscrete:
		out.Width = fs.u[0]
		out.Height = fs.u[1]
	default:
		out.MinWidth = fs.u[0]
		out.MaxWidth = fs.u[1]
		out.StepWidth = fs.u[2]
		out.MinHeight = fs.u[3]
		out.MaxHeight = fs.u[4]
		out.StepHeight = fs.u[5]
	}
	return out, nil
}

// SetFormat issues VIDIOC_S_FMT and returns the format the driver applied,
// which may differ from the request.
func (d *Device) SetFormat(pf PixFormat) (PixFormat, error) {
	f := v4l2Format{typ: BufTypeVideoCapture}
	f.pix.width = pf.Width
	f.pix.height = pf.Height
	f.pix.pixelformat = pf.PixelFormat
	f.pix.field = pf.Field
	if err := ioctl(d.fd, vidiocSFmt, unsafe.Pointer(&f)); err != nil {
		return PixFormat{}, err
	}
	return decodePixFormat(&f.pix), nil
}

// GetFormat issues VIDIOC_G_FMT.
func (d *Device) GetFormat() (PixFormat, error) {
	f := v4l2Format{typ: BufTypeVideoCapture}
	if err := ioctl(d.fd, vidiocGFmt, unsafe.Pointer(&f)); err != nil {
		return PixFormat{}, err
	}
	return decodePixFormat(&f.pix), nil
}

func decodePixFormat(p *v4l2PixFormat) PixFormat {
	return PixFormat{
		Width:        p.width,
		Height:       p.height,
		PixelFormat:  p.pixelformat,
		Field:        p.field,
		BytesPerLine: p.bytesperline,
		SizeImage:    p.sizeimage,
	}
}
