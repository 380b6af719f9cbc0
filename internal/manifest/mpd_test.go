package manifest

import (
	"errors"
	"strings"
	"testing"

	"marlin/internal/media"
)

const vodMPD = `<?xml version="1.0" encoding="UTF-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="static" mediaPresentationDuration="PT10M0S">
  <Period>
    <AdaptationSet mimeType="video/mp4" frameRate="25">
      <SegmentTemplate media="video/$RepresentationID$/seg-$Number$.m4s" initialization="video/$RepresentationID$/init.mp4" startNumber="1" timescale="1000" duration="4000"/>
      <Representation id="video-800k" bandwidth="800000" width="1024" height="576" codecs="avc1.4d401f"/>
      <Representation id="video-2000k" bandwidth="2000000" width="1920" height="1080" codecs="avc1.640028"/>
    </AdaptationSet>
    <AdaptationSet mimeType="audio/mp4" lang="en">
      <SegmentTemplate media="audio/$RepresentationID$/seg-$Number$.m4s" startNumber="1" timescale="1000" duration="4000"/>
      <Representation id="audio-128k" bandwidth="128000" audioSamplingRate="48000" codecs="mp4a.40.2"/>
    </AdaptationSet>
  </Period>
</MPD>`

func TestParseMPDFormats(t *testing.T) {
	formats, err := ParseMPD([]byte(vodMPD), "https://cdn.example.com/video/manifest.mpd", MPDOptions{
		VideoID: "vid123",
		MPDID:   "dash",
		Fatal:   true,
	})
	if err != nil {
		t.Fatalf("ParseMPD: %v", err)
	}
	if len(formats) != 3 {
		t.Fatalf("expected 3 formats, got %d", len(formats))
	}

	var videoCount, audioCount int
	for _, f := range formats {
		if f.Vcodec != media.CodecNone {
			videoCount++
		} else {
			audioCount++
		}
		if f.Protocol != media.ProtoDASHSegments {
			t.Errorf("%s: Protocol = %q, want http_dash_segments", f.FormatID, f.Protocol)
		}
		if f.DASH == nil {
			t.Errorf("%s: missing DASH segment info", f.FormatID)
		}
	}
	if videoCount != 2 || audioCount != 1 {
		t.Errorf("got %d video and %d audio formats, want 2 and 1", videoCount, audioCount)
	}

	v := formats[0]
	if v.FormatID != "dash-video-800k" {
		t.Errorf("FormatID = %q, want \"dash-video-800k\"", v.FormatID)
	}
	if v.TBR == nil || *v.TBR != 800 {
		t.Errorf("TBR = %v, want 800", v.TBR)
	}
	if v.Width == nil || *v.Width != 1024 || v.Height == nil || *v.Height != 576 {
		t.Errorf("resolution = %s, want 1024x576", v.Resolution())
	}
	if v.FPS == nil || *v.FPS != 25 {
		t.Errorf("FPS = %v, want 25 (inherited from AdaptationSet)", v.FPS)
	}
	if v.Ext != "mp4" || v.Container != "mp4_dash" {
		t.Errorf("Ext/Container = %q/%q", v.Ext, v.Container)
	}

	// 600s at 800kbit/s is 60MB.
	if v.FilesizeApprox == nil || *v.FilesizeApprox != 60000000 {
		t.Errorf("FilesizeApprox = %v, want 60000000", v.FilesizeApprox)
	}
	if v.Filesize != nil {
		t.Error("Filesize must stay nil; the estimate belongs in FilesizeApprox")
	}

	// 600s duration and 4s segments give 150 segments.
	if v.DASH.SegmentCount == nil || *v.DASH.SegmentCount != 150 {
		t.Errorf("SegmentCount = %v, want 150", v.DASH.SegmentCount)
	}
	if v.DASH.MediaTemplate != "video/video-800k/seg-$Number$.m4s" {
		t.Errorf("MediaTemplate = %q ($RepresentationID$ should be expanded, $Number$ kept)", v.DASH.MediaTemplate)
	}
	if v.DASH.InitTemplate != "video/video-800k/init.mp4" {
		t.Errorf("InitTemplate = %q", v.DASH.InitTemplate)
	}

	a := formats[2]
	if a.ASR == nil || *a.ASR != 48000 {
		t.Errorf("audio ASR = %v, want 48000", a.ASR)
	}
	if a.Language != "en" {
		t.Errorf("audio Language = %q, want \"en\"", a.Language)
	}
	if a.Acodec != "mp4a.40.2" {
		t.Errorf("audio Acodec = %q", a.Acodec)
	}
}

func TestParseMPDDRMFlag(t *testing.T) {
	doc := `<?xml version="1.0"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="static" mediaPresentationDuration="PT60S">
  <Period>
    <AdaptationSet mimeType="video/mp4">
      <ContentProtection schemeIdUri="urn:uuid:edef8ba9-79d6-4ace-a3c8-27dcd51d21ed"/>
      <SegmentTemplate media="seg-$Number$.m4s" timescale="1" duration="4"/>
      <Representation id="v1" bandwidth="1000000" codecs="avc1.4d401f"/>
    </AdaptationSet>
  </Period>
</MPD>`
	formats, err := ParseMPD([]byte(doc), "https://cdn.example.com/manifest.mpd", MPDOptions{Fatal: true})
	if err != nil {
		t.Fatalf("ParseMPD: %v", err)
	}
	if len(formats) != 1 {
		t.Fatalf("expected DRM format to still be emitted, got %d formats", len(formats))
	}
	if !formats[0].DRM {
		t.Error("DRM flag not set for protected representation")
	}
}

func TestParseMPDDirectBaseURL(t *testing.T) {
	doc := `<?xml version="1.0"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="static" mediaPresentationDuration="PT30S">
  <Period>
    <AdaptationSet mimeType="audio/mp4">
      <Representation id="a1" bandwidth="128000" codecs="mp4a.40.2">
        <BaseURL>audio/full.m4a</BaseURL>
      </Representation>
    </AdaptationSet>
  </Period>
</MPD>`
	formats, err := ParseMPD([]byte(doc), "https://cdn.example.com/show/manifest.mpd", MPDOptions{MPDID: "dash", Fatal: true})
	if err != nil {
		t.Fatalf("ParseMPD: %v", err)
	}
	if len(formats) != 1 {
		t.Fatalf("expected 1 format, got %d", len(formats))
	}
	f := formats[0]
	if f.Protocol != media.ProtoHTTP {
		t.Errorf("Protocol = %q, want http for unfragmented media", f.Protocol)
	}
	if f.URL != "https://cdn.example.com/show/audio/full.m4a" {
		t.Errorf("URL = %q", f.URL)
	}
	if f.Vcodec != media.CodecNone {
		t.Errorf("Vcodec = %q, want none for the audio adaptation set", f.Vcodec)
	}
}

func TestParseMPDFatalFlag(t *testing.T) {
	doc := []byte("this is not xml at all <<<")

	if _, err := ParseMPD(doc, "https://example.com/x.mpd", MPDOptions{Fatal: true}); err == nil {
		t.Error("expected error for invalid MPD with Fatal")
	} else {
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("expected *ParseError, got %T", err)
		}
	}

	formats, err := ParseMPD(doc, "https://example.com/x.mpd", MPDOptions{Fatal: false})
	if err != nil || len(formats) != 0 {
		t.Errorf("non-fatal parse = (%d formats, %v), want (0, nil)", len(formats), err)
	}
}

func TestParseMPDDynamicManifest(t *testing.T) {
	doc := strings.Replace(vodMPD, `type="static"`, `type="dynamic"`, 1)
	formats, err := ParseMPD([]byte(doc), "https://example.com/live.mpd", MPDOptions{Fatal: true})
	if err != nil {
		t.Fatalf("ParseMPD: %v", err)
	}
	if len(formats) != 0 {
		t.Errorf("dynamic manifest yielded %d formats, want 0", len(formats))
	}
}

func TestParseMPDSkipsTextTracks(t *testing.T) {
	doc := `<?xml version="1.0"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="static" mediaPresentationDuration="PT30S">
  <Period>
    <AdaptationSet mimeType="text/vtt" lang="en">
      <Representation id="sub1" bandwidth="1000">
        <BaseURL>subs/en.vtt</BaseURL>
      </Representation>
    </AdaptationSet>
    <AdaptationSet mimeType="video/mp4">
      <Representation id="v1" bandwidth="500000" codecs="avc1.4d401e">
        <BaseURL>video.mp4</BaseURL>
      </Representation>
    </AdaptationSet>
  </Period>
</MPD>`
	formats, err := ParseMPD([]byte(doc), "https://example.com/x.mpd", MPDOptions{Fatal: true})
	if err != nil {
		t.Fatalf("ParseMPD: %v", err)
	}
	if len(formats) != 1 {
		t.Fatalf("expected text track to be skipped, got %d formats", len(formats))
	}
	if formats[0].FormatID != "v1" {
		t.Errorf("FormatID = %q, want \"v1\"", formats[0].FormatID)
	}
}

func TestParseXSDuration(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"PT10M0S", 600},
		{"PT1H2M3S", 3723},
		{"PT30.5S", 30.5},
		{"P0DT0H3M30S", 210},
	}
	for _, tt := range tests {
		got := parseXSDuration(tt.in)
		if got == nil || *got != tt.want {
			t.Errorf("parseXSDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if parseXSDuration("garbage") != nil {
		t.Error("parseXSDuration accepted garbage")
	}
}
