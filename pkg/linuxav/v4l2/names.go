package v4l2

import "strings"

// PixelFormatEntry describes a known pixel format.
type PixelFormatEntry struct {
	Code        uint32
	Name        string
	Description string
}

// Common pixel formats.
var (
	PixFmtYUYV  = FourCC('Y', 'U', 'Y', 'V')
	PixFmtMJPEG = FourCC('M', 'J', 'P', 'G')
	PixFmtH264  = FourCC('H', '2', '6', '4')
	PixFmtHEVC  = FourCC('H', 'E', 'V', 'C')
	PixFmtNV12  = FourCC('N', 'V', '1', '2')
)

// PixelFormats is the table of pixel formats known by name.
var PixelFormats = []PixelFormatEntry{
	{FourCC('R', 'G', 'B', '1'), "RGB332", "8-bit RGB 3-3-2"},
	{FourCC('R', '4', '4', '4'), "RGB444", "16-bit xxxxrrrr ggggbbbb"},
	{FourCC('R', 'G', 'B', 'O'), "RGB555", "16-bit RGB 5-5-5"},
	{FourCC('R', 'G', 'B', 'P'), "RGB565", "16-bit RGB 5-6-5"},
	{FourCC('R', 'G', 'B', 'Q'), "RGB555X", "16-bit RGB 5-5-5 BE"},
	{FourCC('R', 'G', 'B', 'R'), "RGB565X", "16-bit RGB 5-6-5 BE"},
	{FourCC('B', 'G', 'R', 'H'), "BGR666", "18-bit BGR 6-6-6"},
	{FourCC('B', 'G', 'R', '3'), "BGR24", "24-bit BGR 8-8-8"},
	{FourCC('R', 'G', 'B', '3'), "RGB24", "24-bit RGB 8-8-8"},
	{FourCC('B', 'G', 'R', '4'), "BGR32", "32-bit BGR 8-8-8-8"},
	{FourCC('R', 'G', 'B', '4'), "RGB32", "32-bit RGB 8-8-8-8"},
	{FourCC('G', 'R', 'E', 'Y'), "GREY", "8-bit Greyscale"},
	{FourCC('Y', '1', '0', ' '), "Y10", "10-bit Greyscale"},
	{FourCC('Y', '1', '2', ' '), "Y12", "12-bit Greyscale"},
	{FourCC('Y', '1', '6', ' '), "Y16", "16-bit Greyscale"},
	{FourCC('P', 'A', 'L', '8'), "PAL8", "8-bit Palette"},
	{FourCC('Y', 'V', 'U', '9'), "YVU410", "Planar YVU 4:1:0"},
	{FourCC('Y', 'V', '1', '2'), "YVU420", "Planar YVU 4:2:0"},
	{PixFmtYUYV, "YUYV", "YUYV 4:2:2"},
	{FourCC('Y', 'Y', 'U', 'V'), "YYUV", "YYUV 4:2:2"},
	{FourCC('Y', 'V', 'Y', 'U'), "YVYU", "YVYU 4:2:2"},
	{FourCC('U', 'Y', 'V', 'Y'), "UYVY", "UYVY 4:2:2"},
	{FourCC('V', 'Y', 'U', 'Y'), "VYUY", "VYUY 4:2:2"},
	{FourCC('4', '2', '2', 'P'), "YUV422P", "Planar YUV 4:2:2"},
	{FourCC('4', '1', '1', 'P'), "YUV411P", "Planar YUV 4:1:1"},
	{FourCC('Y', '4', '1', 'P'), "Y41P", "YUV 4:1:1 (Packed)"},
	{FourCC('Y', '4', '4', '4'), "YUV444", "16-bit A/XYUV 4-4-4-4"},
	{FourCC('Y', 'U', 'V', 'O'), "YUV555", "16-bit A/XYUV 1-5-5-5"},
	{FourCC('Y', 'U', 'V', 'P'), "YUV565", "16-bit YUV 5-6-5"},
	{FourCC('Y', 'U', 'V', '4'), "YUV32", "32-bit A/XYUV 8-8-8-8"},
	{FourCC('Y', 'U', 'V', '9'), "YUV410", "Planar YUV 4:1:0"},
	{FourCC('Y', 'U', '1', '2'), "YUV420", "Planar YUV 4:2:0"},
	{FourCC('H', 'M', '1', '2'), "HM12", "YUV 4:2:0 (16x16 Macroblocks)"},
	{FourCC('M', '4', '2', '0'), "M420", "YUV 4:2:0 (M420)"},
	{PixFmtNV12, "NV12", "Y/CbCr 4:2:0"},
	{FourCC('N', 'V', '2', '1'), "NV21", "Y/CrCb 4:2:0"},
	{FourCC('N', 'V', '1', '6'), "NV16", "Y/CbCr 4:2:2"},
	{FourCC('N', 'V', '6', '1'), "NV61", "Y/CrCb 4:2:2"},
	{FourCC('N', 'V', '2', '4'), "NV24", "Y/CbCr 4:4:4"},
	{FourCC('N', 'V', '4', '2'), "NV42", "Y/CrCb 4:4:4"},
	{FourCC('N', 'M', '1', '2'), "NV12M", "Y/CbCr 4:2:0 (N-C)"},
	{FourCC('B', 'A', '8', '1'), "SBGGR8", "8-bit Bayer BGBG/GRGR"},
	{FourCC('G', 'B', 'R', 'G'), "SGBRG8", "8-bit Bayer GBGB/RGRG"},
	{FourCC('G', 'R', 'B', 'G'), "SGRBG8", "8-bit Bayer GRGR/BGBG"},
	{FourCC('R', 'G', 'G', 'B'), "SRGGB8", "8-bit Bayer RGRG/GBGB"},
	{FourCC('B', 'Y', 'R', '2'), "SBGGR16", "16-bit Bayer BGBG/GRGR"},
	{PixFmtMJPEG, "MJPEG", "Motion-JPEG"},
	{FourCC('J', 'P', 'E', 'G'), "JPEG", "JFIF JPEG"},
	{FourCC('d', 'v', 's', 'd'), "DV", "1394"},
	{FourCC('M', 'P', 'E', 'G'), "MPEG", "MPEG-1/2/4"},
	{PixFmtH264, "H264", "H.264"},
	{FourCC('A', 'V', 'C', '1'), "H264_NO_SC", "H.264 (No Start Codes)"},
	{FourCC('M', '2', '6', '4'), "H264_MVC", "H.264 MVC"},
	{FourCC('H', '2', '6', '3'), "H263", "H.263"},
	{FourCC('M', 'P', 'G', '1'), "MPEG1", "MPEG-1 ES"},
	{FourCC('M', 'P', 'G', '2'), "MPEG2", "MPEG-2 ES"},
	{FourCC('M', 'P', 'G', '4'), "MPEG4", "MPEG-4 Part 2 ES"},
	{FourCC('X', 'V', 'I', 'D'), "XVID", "Xvid"},
	{FourCC('V', 'P', '8', '0'), "VP8", "VP8"},
	{FourCC('V', 'P', '9', '0'), "VP9", "VP9"},
	{PixFmtHEVC, "HEVC", "HEVC"},
}

// PixelFormatName returns the short name of a pixel format, falling back
// to its FourCC when the format is not in the table.
func PixelFormatName(code uint32) string {
	for _, e := range PixelFormats {
		if e.Code == code {
			return e.Name
		}
	}
	return FormatFourCC(code)
}

// ParsePixelFormat resolves a short name ("MJPEG") or a raw FourCC ("MJPG").
// Names are matched case-insensitively; FourCC codes are case sensitive.
func ParsePixelFormat(s string) (uint32, bool) {
	for _, e := range PixelFormats {
		if strings.EqualFold(e.Name, s) {
			return e.Code, true
		}
	}
	return ParseFourCC(s)
}

// capabilityNames lists capability bits in kernel header order.
var capabilityNames = []struct {
	bit         uint32
	name        string
	description string
}{
	{0x00000001, "V4L2_CAP_VIDEO_CAPTURE", "Is a video capture device"},
	{0x00000002, "V4L2_CAP_VIDEO_OUTPUT", "Is a video output device"},
	{0x00000004, "V4L2_CAP_VIDEO_OVERLAY", "Can do video overlay"},
	{0x00000010, "V4L2_CAP_VBI_CAPTURE", "Is a raw VBI capture device"},
	{0x00000020, "V4L2_CAP_VBI_OUTPUT", "Is a raw VBI output device"},
	{0x00000040, "V4L2_CAP_SLICED_VBI_CAPTURE", "Is a sliced VBI capture device"},
	{0x00000080, "V4L2_CAP_SLICED_VBI_OUTPUT", "Is a sliced VBI output device"},
	{0x00000100, "V4L2_CAP_RDS_CAPTURE", "RDS data capture"},
	{0x00000200, "V4L2_CAP_VIDEO_OUTPUT_OVERLAY", "Can do video output overlay"},
	{0x00000400, "V4L2_CAP_HW_FREQ_SEEK", "Can do hardware frequency seek"},
	{0x00000800, "V4L2_CAP_RDS_OUTPUT", "Is an RDS encoder"},
	{0x00001000, "V4L2_CAP_VIDEO_CAPTURE_MPLANE", "Is a multi-planar video capture device"},
	{0x00002000, "V4L2_CAP_VIDEO_OUTPUT_MPLANE", "Is a multi-planar video output device"},
	{0x00004000, "V4L2_CAP_VIDEO_M2M_MPLANE", "Is a multi-planar mem-to-mem device"},
	{0x00008000, "V4L2_CAP_VIDEO_M2M", "Is a mem-to-mem device"},
	{0x00010000, "V4L2_CAP_TUNER", "Has a tuner"},
	{0x00020000, "V4L2_CAP_AUDIO", "Has audio support"},
	{0x00040000, "V4L2_CAP_RADIO", "Is a radio device"},
	{0x00080000, "V4L2_CAP_MODULATOR", "Has a modulator"},
	{0x00100000, "V4L2_CAP_SDR_CAPTURE", "Is an SDR capture device"},
	{0x00200000, "V4L2_CAP_EXT_PIX_FORMAT", "Supports the extended pixel format"},
	{0x00400000, "V4L2_CAP_SDR_OUTPUT", "Is an SDR output device"},
	{0x00800000, "V4L2_CAP_META_CAPTURE", "Is a metadata capture device"},
	{0x01000000, "V4L2_CAP_READWRITE", "Read/write systemcalls"},
	{0x04000000, "V4L2_CAP_STREAMING", "Streaming I/O ioctls"},
	{0x08000000, "V4L2_CAP_META_OUTPUT", "Is a metadata output device"},
	{0x10000000, "V4L2_CAP_TOUCH", "Is a touch device"},
	{0x20000000, "V4L2_CAP_IO_MC", "Is input/output controlled by the media controller"},
	{0x80000000, "V4L2_CAP_DEVICE_CAPS", "Sets device capabilities field"},
}

// CapabilityName is a set capability bit with its description.
type CapabilityName struct {
	Bit         uint32
	Name        string
	Description string
}

// CapabilityNames returns the named capability bits set in caps.
func CapabilityNames(caps uint32) []CapabilityName {
	var names []CapabilityName
	for _, c := range capabilityNames {
		if caps&c.bit != 0 {
			names = append(names, CapabilityName{Bit: c.bit, Name: c.name, Description: c.description})
		}
	}
	return names
}
