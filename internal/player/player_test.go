package player

import (
	"testing"

	"marlin/internal/media"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"mpv", "mpv"},
		{"vlc", "vlc"},
		{"iina", "iina"},
		{"celluloid", "celluloid"},
		{"unknown", "mpv"},
	}

	for _, tt := range tests {
		if got := New(tt.name).Name(); got != tt.want {
			t.Errorf("New(%q).Name() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestPlayURL(t *testing.T) {
	tests := []struct {
		name   string
		format media.Format
		want   string
	}{
		{
			"direct URL",
			media.Format{URL: "https://cdn.example.com/v.mp4", Protocol: media.ProtoHTTP},
			"https://cdn.example.com/v.mp4",
		},
		{
			"hls uses variant URL",
			media.Format{
				URL:         "https://cdn.example.com/v/hls-720.m3u8",
				ManifestURL: "https://cdn.example.com/v/master.m3u8",
				Protocol:    media.ProtoM3U8Native,
			},
			"https://cdn.example.com/v/hls-720.m3u8",
		},
		{
			"dash segments use manifest",
			media.Format{
				URL:         "https://cdn.example.com/v/seg-$Number$.m4s",
				ManifestURL: "https://cdn.example.com/v/manifest.mpd",
				Protocol:    media.ProtoDASHSegments,
			},
			"https://cdn.example.com/v/manifest.mpd",
		},
		{
			"manifest fallback",
			media.Format{ManifestURL: "https://cdn.example.com/v/master.m3u8"},
			"https://cdn.example.com/v/master.m3u8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := playURL(&tt.format); got != tt.want {
				t.Errorf("playURL = %q, want %q", got, tt.want)
			}
		})
	}
}
