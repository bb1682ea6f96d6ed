package v4l2

import "testing"

func TestFourCC(t *testing.T) {
	if got := FormatFourCC(PixFmtMJPEG); got != "MJPG" {
		t.Errorf("FormatFourCC(MJPEG) = %q, want MJPG", got)
	}
	if PixFmtYUYV != 0x56595559 {
		t.Errorf("YUYV = %#x, want 0x56595559", PixFmtYUYV)
	}
}

func TestParseFourCC(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
		ok   bool
	}{
		{"YUYV", PixFmtYUYV, true},
		{"Y10", FourCC('Y', '1', '0', ' '), true},
		{"", 0, false},
		{"TOOLONG", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseFourCC(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParseFourCC(%q) = %#x, %v; want %#x, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParsePixelFormat(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
	}{
		{"MJPEG", PixFmtMJPEG},
		{"mjpeg", PixFmtMJPEG},
		{"MJPG", PixFmtMJPEG},
		{"H264", PixFmtH264},
		{"yuyv", PixFmtYUYV},
		{"NV12", PixFmtNV12},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePixelFormat(tt.in)
			if !ok || got != tt.want {
				t.Errorf("ParsePixelFormat(%q) = %#x, %v; want %#x", tt.in, got, ok, tt.want)
			}
		})
	}
}

func TestPixelFormatName(t *testing.T) {
	if got := PixelFormatName(PixFmtMJPEG); got != "MJPEG" {
		t.Errorf("PixelFormatName(MJPG) = %q", got)
	}
	unknown := FourCC('Z', 'Z', 'Z', 'Z')
	if got := PixelFormatName(unknown); got != "ZZZZ" {
		t.Errorf("PixelFormatName(unknown) = %q, want ZZZZ", got)
	}
}

func TestPixelFormatTableUnique(t *testing.T) {
	seen := make(map[uint32]string)
	for _, e := range PixelFormats {
		if prev, ok := seen[e.Code]; ok {
			t.Errorf("%s and %s share code %s", prev, e.Name, FormatFourCC(e.Code))
		}
		seen[e.Code] = e.Name
	}
}

func TestCapabilityNames(t *testing.T) {
	names := CapabilityNames(CapVideoCapture | CapStreaming)
	if len(names) != 2 {
		t.Fatalf("got %d names, want 2", len(names))
	}
	if names[0].Name != "V4L2_CAP_VIDEO_CAPTURE" || names[1].Name != "V4L2_CAP_STREAMING" {
		t.Errorf("unexpected names: %+v", names)
	}
	if len(CapabilityNames(0)) != 0 {
		t.Error("no bits should yield no names")
	}
}
