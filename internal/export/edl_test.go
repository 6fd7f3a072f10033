package export

import (
	"strings"
	"testing"

	"github.com/reelcut/reelcut-server/internal/cutlist"
)

func TestGenerateEDL_RecordTimesRunBackToBack(t *testing.T) {
	segments := []cutlist.Segment{
		{Start: 0, End: 2},
		{Start: 3, End: 8},
	}

	edl := GenerateEDL("My Cut", "projects/u1/p1/full.mp4", segments, 30)

	if !strings.HasPrefix(edl, "TITLE: My Cut\nFCM: NON-DROP FRAME\n") {
		t.Fatalf("unexpected header:\n%s", edl)
	}

	wantEvents := []string{
		"001  AX       V     C        00:00:00:00 00:00:02:00 00:00:00:00 00:00:02:00",
		"002  AX       V     C        00:00:03:00 00:00:08:00 00:00:02:00 00:00:07:00",
	}
	for _, want := range wantEvents {
		if !strings.Contains(edl, want) {
			t.Errorf("EDL missing event %q:\n%s", want, edl)
		}
	}
	if !strings.Contains(edl, "* MEDIA PATH:  projects/u1/p1/full.mp4") {
		t.Errorf("EDL missing media path:\n%s", edl)
	}
}

func TestGenerateEDL_DropFrameFlag(t *testing.T) {
	edl := GenerateEDL("t", "m", []cutlist.Segment{{Start: 0, End: 1}}, 29.97)
	if !strings.Contains(edl, "FCM: DROP FRAME") {
		t.Errorf("29.97fps should mark drop frame:\n%s", edl)
	}
}

func TestGenerateEDL_FractionalSeconds(t *testing.T) {
	edl := GenerateEDL("t", "m", []cutlist.Segment{{Start: 1.5, End: 2.5}}, 30)
	if !strings.Contains(edl, "00:00:01:15 00:00:02:15") {
		t.Errorf("fractional seconds should map to frames:\n%s", edl)
	}
}

func TestSanitizeName(t *testing.T) {
	cases := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"My Project", 64, "My Project"},
		{"../../etc/passwd", 64, ".._.._etc_passwd"},
		{"a\x00b\ncd", 64, "abcd"},
		{"  padded  ", 64, "padded"},
		{"abcdef", 3, "abc"},
		{"weird:*chars?", 64, "weird__chars_"},
	}
	for _, tc := range cases {
		if got := SanitizeName(tc.in, tc.maxLen); got != tc.want {
			t.Errorf("SanitizeName(%q, %d) = %q, want %q", tc.in, tc.maxLen, got, tc.want)
		}
	}
}

func TestValidateFrameRate(t *testing.T) {
	if err := ValidateFrameRate(23.976); err != nil {
		t.Errorf("ValidateFrameRate(23.976) = %v", err)
	}
	for _, bad := range []float64{0, -1, 500} {
		if err := ValidateFrameRate(bad); err == nil {
			t.Errorf("ValidateFrameRate(%v) should fail", bad)
		}
	}
}
