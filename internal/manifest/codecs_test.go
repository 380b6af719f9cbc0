package manifest

import (
	"testing"

	"marlin/internal/media"
)

func TestParseCodecs(t *testing.T) {
	tests := []struct {
		name   string
		codecs string
		vcodec string
		acodec string
	}{
		{"video and audio", "avc1.64001f,mp4a.40.2", "avc1.64001f", "mp4a.40.2"},
		{"video only", "avc1.66.30", "avc1.66.30", media.CodecNone},
		{"audio only", "mp4a.40.2", media.CodecNone, "mp4a.40.2"},
		{"hevc with dolby", "hev1.1.6.L93.B0,ec-3", "hev1.1.6.L93.B0", "ec-3"},
		{"vp9 opus", "vp09.00.10.08,opus", "vp09.00.10.08", "opus"},
		{"empty", "", "", ""},
		{"two unknown tokens assumed video,audio", "foo.1,bar.2", "foo.1", "bar.2"},
		{"single unknown token", "zzz.9", "", ""},
		{"whitespace tolerated", " avc1.4d401e , mp4a.40.2 ", "avc1.4d401e", "mp4a.40.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, a := ParseCodecs(tt.codecs, nil)
			if v != tt.vcodec || a != tt.acodec {
				t.Errorf("ParseCodecs(%q) = (%q, %q), want (%q, %q)",
					tt.codecs, v, a, tt.vcodec, tt.acodec)
			}
		})
	}
}

func TestParseCodecsWarnsOnUnknown(t *testing.T) {
	var warnings []string
	ParseCodecs("avc1.64001f,wat.123", func(msg string) { warnings = append(warnings, msg) })
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning for unknown codec, got %d: %v", len(warnings), warnings)
	}
}
