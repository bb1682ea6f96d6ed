//go:build !linux

package devices

// OpenV4L2 reports that capture is unavailable on this platform.
func OpenV4L2(_ string) (Handle, error) {
	return nil, ErrUnsupportedPlatform
}

// FindDevices returns no devices on platforms without V4L2.
func FindDevices() ([]DeviceInfo, error) {
	return []DeviceInfo{}, nil
}
