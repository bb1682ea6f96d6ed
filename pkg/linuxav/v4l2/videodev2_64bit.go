//go:build linux && (amd64 || arm64 || riscv64 || loong64)

package v4l2

import "unsafe"

// Compile-time struct size assertions.
// These will cause build failures if struct sizes don't match kernel expectations.
var (
	_ [208]byte = [unsafe.Sizeof(v4l2Format{})]byte{}
	_ [88]byte  = [unsafe.Sizeof(v4l2Buffer{})]byte{}
)

// IOCTL constants for 64-bit architectures.
const (
	vidiocGFmt     = 0xc0d05604
	vidiocSFmt     = 0xc0d05605
	vidiocQuerybuf = 0xc0585609
	vidiocQbuf     = 0xc058560f
	vidiocDqbuf    = 0xc0585611
)

// v4l2Format has size 208 bytes. The fmt union is 8-byte aligned because
// it contains v4l2_window, which holds pointers.
type v4l2Format struct {
	typ uint32        // offset 0
	_   uint32        // padding
	pix v4l2PixFormat // offset 8
	_   [152]byte     // rest of the 200-byte union
}

// v4l2Buffer has size 88 bytes.
type v4l2Buffer struct {
	index     uint32   // offset 0
	typ       uint32   // offset 4
	bytesused uint32   // offset 8
	flags     uint32   // offset 12
	field     uint32   // offset 16
	_         uint32   // padding
	timestamp [16]byte // offset 24 - struct timeval
	timecode  [16]byte // offset 40
	sequence  uint32   // offset 56
	memory    uint32   // offset 60
	offset    uint32   // offset 64 - union m, mmap offset in the low word
	_         uint32   // rest of union m
	length    uint32   // offset 72
	reserved2 uint32   // offset 76
	requestFD uint32   // offset 80
	_         uint32   // padding to 88
}
