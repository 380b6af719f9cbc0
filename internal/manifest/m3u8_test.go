package manifest

import (
	"errors"
	"testing"

	"marlin/internal/media"
)

const masterPlaylist = `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=500000,RESOLUTION=640x360,CODECS="avc1.66.30,mp4a.40.2"
low/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=1500000,RESOLUTION=1280x720,CODECS="avc1.64001f,mp4a.40.2"
mid/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=3000000,RESOLUTION=1920x1080,CODECS="avc1.640028,mp4a.40.2"
high/index.m3u8
`

func TestParseM3U8Master(t *testing.T) {
	formats, err := ParseM3U8(masterPlaylist, "https://cdn.example.com/video/master.m3u8", M3U8Options{
		VideoID: "vid123",
		Ext:     "mp4",
		M3U8ID:  "hls",
		Fatal:   true,
	})
	if err != nil {
		t.Fatalf("ParseM3U8: %v", err)
	}
	if len(formats) != 3 {
		t.Fatalf("expected 3 formats, got %d", len(formats))
	}

	wantTBR := []float64{500, 1500, 3000}
	wantWidth := []int{640, 1280, 1920}
	wantHeight := []int{360, 720, 1080}
	wantURL := []string{
		"https://cdn.example.com/video/low/index.m3u8",
		"https://cdn.example.com/video/mid/index.m3u8",
		"https://cdn.example.com/video/high/index.m3u8",
	}

	for i, f := range formats {
		if f.TBR == nil || *f.TBR != wantTBR[i] {
			t.Errorf("formats[%d].TBR = %v, want %v", i, f.TBR, wantTBR[i])
		}
		if f.Width == nil || *f.Width != wantWidth[i] {
			t.Errorf("formats[%d].Width = %v, want %d", i, f.Width, wantWidth[i])
		}
		if f.Height == nil || *f.Height != wantHeight[i] {
			t.Errorf("formats[%d].Height = %v, want %d", i, f.Height, wantHeight[i])
		}
		if f.URL != wantURL[i] {
			t.Errorf("formats[%d].URL = %q, want %q", i, f.URL, wantURL[i])
		}
		if f.Protocol != media.ProtoM3U8Native {
			t.Errorf("formats[%d].Protocol = %q, want %q", i, f.Protocol, media.ProtoM3U8Native)
		}
		if f.Vcodec == "" || f.Vcodec == media.CodecNone {
			t.Errorf("formats[%d].Vcodec = %q, want a video codec", i, f.Vcodec)
		}
		if f.ManifestURL != "https://cdn.example.com/video/master.m3u8" {
			t.Errorf("formats[%d].ManifestURL = %q", i, f.ManifestURL)
		}
	}

	if formats[0].FormatID != "hls-500" {
		t.Errorf("formats[0].FormatID = %q, want \"hls-500\"", formats[0].FormatID)
	}
}

func TestParseM3U8MediaPlaylist(t *testing.T) {
	doc := `#EXTM3U
#EXT-X-TARGETDURATION:10
#EXTINF:9.8,
seg0.ts
#EXTINF:9.8,
seg1.ts
#EXT-X-ENDLIST
`
	formats, err := ParseM3U8(doc, "https://cdn.example.com/media.m3u8", M3U8Options{M3U8ID: "hls", Ext: "mp4", Fatal: true})
	if err != nil {
		t.Fatalf("ParseM3U8: %v", err)
	}
	if len(formats) != 1 {
		t.Fatalf("expected 1 format for media playlist, got %d", len(formats))
	}
	f := formats[0]
	if f.URL != "https://cdn.example.com/media.m3u8" {
		t.Errorf("URL = %q, want the playlist URL itself", f.URL)
	}
	if f.Protocol != media.ProtoM3U8Native {
		t.Errorf("Protocol = %q, want m3u8_native", f.Protocol)
	}
	if f.TBR != nil {
		t.Errorf("TBR = %v, want nil for a flat media playlist", *f.TBR)
	}
}

func TestParseM3U8EncryptedMediaPlaylistFallsBack(t *testing.T) {
	doc := `#EXTM3U
#EXT-X-TARGETDURATION:10
#EXT-X-KEY:METHOD=AES-128,URI="key.bin"
#EXTINF:9.8,
seg0.ts
#EXT-X-ENDLIST
`
	formats, err := ParseM3U8(doc, "https://cdn.example.com/media.m3u8", M3U8Options{Fatal: true})
	if err != nil {
		t.Fatalf("ParseM3U8: %v", err)
	}
	if len(formats) != 1 {
		t.Fatalf("expected 1 format, got %d", len(formats))
	}
	if formats[0].Protocol != media.ProtoM3U8 {
		t.Errorf("Protocol = %q, want m3u8 (native cannot decrypt)", formats[0].Protocol)
	}
}

func TestParseM3U8AudioRendition(t *testing.T) {
	doc := `#EXTM3U
#EXT-X-MEDIA:TYPE=AUDIO,GROUP-ID="aud",NAME="English",LANGUAGE="en",URI="audio/en.m3u8"
#EXT-X-STREAM-INF:BANDWIDTH=2000000,RESOLUTION=1280x720,CODECS="avc1.64001f,mp4a.40.2",AUDIO="aud"
video/720p.m3u8
`
	formats, err := ParseM3U8(doc, "https://cdn.example.com/master.m3u8", M3U8Options{M3U8ID: "hls", Fatal: true})
	if err != nil {
		t.Fatalf("ParseM3U8: %v", err)
	}
	if len(formats) != 2 {
		t.Fatalf("expected 2 formats (rendition + variant), got %d", len(formats))
	}

	audio := formats[0]
	if audio.Vcodec != media.CodecNone {
		t.Errorf("audio rendition Vcodec = %q, want %q", audio.Vcodec, media.CodecNone)
	}
	if audio.Language != "en" {
		t.Errorf("audio rendition Language = %q, want \"en\"", audio.Language)
	}
	if audio.FormatID != "hls-aud-English" {
		t.Errorf("audio rendition FormatID = %q", audio.FormatID)
	}

	// The variant references the audio group, so its own audio track
	// lives elsewhere.
	variant := formats[1]
	if variant.Acodec != media.CodecNone {
		t.Errorf("variant Acodec = %q, want %q after audio-group reference", variant.Acodec, media.CodecNone)
	}
	if variant.Vcodec != "avc1.64001f" {
		t.Errorf("variant Vcodec = %q", variant.Vcodec)
	}
}

func TestParseM3U8MissingBandwidth(t *testing.T) {
	doc := `#EXTM3U
#EXT-X-STREAM-INF:RESOLUTION=640x360
low.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=1500000,RESOLUTION=1280x720
mid.m3u8
`
	formats, err := ParseM3U8(doc, "https://cdn.example.com/master.m3u8", M3U8Options{Fatal: true})
	if err != nil {
		t.Fatalf("ParseM3U8: %v", err)
	}
	if len(formats) != 2 {
		t.Fatalf("expected 2 formats, got %d", len(formats))
	}
	if formats[0].TBR != nil {
		t.Errorf("formats[0].TBR = %v, want nil when BANDWIDTH is absent", *formats[0].TBR)
	}
	if formats[0].Width == nil || *formats[0].Width != 640 {
		t.Errorf("formats[0].Width = %v, want 640", formats[0].Width)
	}
	if formats[1].TBR == nil || *formats[1].TBR != 1500 {
		t.Errorf("formats[1].TBR = %v, want 1500", formats[1].TBR)
	}
}

func TestParseM3U8FatalFlag(t *testing.T) {
	doc := "<html><body>not a playlist</body></html>"

	if _, err := ParseM3U8(doc, "https://example.com/x", M3U8Options{Fatal: true}); err == nil {
		t.Error("expected error for non-M3U8 document with Fatal")
	} else {
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("expected *ParseError, got %T", err)
		}
	}

	formats, err := ParseM3U8(doc, "https://example.com/x", M3U8Options{Fatal: false})
	if err != nil {
		t.Errorf("non-fatal parse returned error: %v", err)
	}
	if len(formats) != 0 {
		t.Errorf("non-fatal parse returned %d formats, want 0", len(formats))
	}
}

func TestParseM3U8Dedupe(t *testing.T) {
	doc := `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=500000
same/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=800000
same/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=1500000
other/index.m3u8
`
	formats, err := ParseM3U8(doc, "https://cdn.example.com/master.m3u8", M3U8Options{Fatal: true})
	if err != nil {
		t.Fatalf("ParseM3U8: %v", err)
	}
	if len(formats) != 2 {
		t.Fatalf("expected 2 formats after de-duplication, got %d", len(formats))
	}
	// First occurrence wins.
	if formats[0].TBR == nil || *formats[0].TBR != 500 {
		t.Errorf("kept variant TBR = %v, want 500", formats[0].TBR)
	}
}

func TestParseM3U8DRMDetection(t *testing.T) {
	doc := `#EXTM3U
#EXT-X-SESSION-KEY:METHOD=SAMPLE-AES,URI="skd://key-id",KEYFORMAT="com.apple.streamingkeydelivery"
#EXT-X-STREAM-INF:BANDWIDTH=500000
low.m3u8
`
	_, err := ParseM3U8(doc, "https://cdn.example.com/master.m3u8", M3U8Options{Fatal: true})
	if !errors.Is(err, ErrDRM) {
		t.Errorf("expected ErrDRM for FairPlay playlist, got %v", err)
	}
}

func TestParseM3U8LiveFormatID(t *testing.T) {
	formats, err := ParseM3U8(masterPlaylist, "https://cdn.example.com/video/master.m3u8", M3U8Options{
		M3U8ID: "hls",
		Live:   true,
		Fatal:  true,
	})
	if err != nil {
		t.Fatalf("ParseM3U8: %v", err)
	}
	for i, f := range formats {
		if f.FormatID != "hls" {
			t.Errorf("formats[%d].FormatID = %q, want bandwidth-free \"hls\" for live", i, f.FormatID)
		}
	}
}
