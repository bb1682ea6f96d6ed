package v4l2

// FormatFourCC converts a 4-byte pixel format to a human-readable string.
func FormatFourCC(format uint32) string {
	b := make([]byte, 4)
	b[0] = byte(format & 0xFF)
	b[1] = byte((format >> 8) & 0xFF)
	b[2] = byte((format >> 16) & 0xFF)
	b[3] = byte((format >> 24) & 0xFF)
	return string(b)
}

// FourCC packs four characters into a pixel format code.
func FourCC(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

// ParseFourCC packs a 1-4 character string into a pixel format code,
// padding short codes with spaces the way the kernel does ("Y10 ").
func ParseFourCC(s string) (uint32, bool) {
	if len(s) == 0 || len(s) > 4 {
		return 0, false
	}
	b := []byte("    ")
	copy(b, s)
	return FourCC(b[0], b[1], b[2], b[3]), true
}
