// Package media defines shared types for the marlin application.
// Format is the wire contract between extractors and everything
// downstream (ranking, selection, download, playback): exactly the
// fields a manifest specified are populated, absent numeric fields
// stay nil and are never defaulted to zero.
package media

import (
	"fmt"
	"strings"
)

// Download protocols. A Format's Protocol tells the downloader how the
// URL must be fetched: a single progressive file, a segmented playlist,
// or a legacy streaming protocol.
const (
	ProtoHTTP         = "http"
	ProtoM3U8         = "m3u8"
	ProtoM3U8Native   = "m3u8_native"
	ProtoDASHSegments = "http_dash_segments"
	ProtoRTMP         = "rtmp"
	ProtoRTSP         = "rtsp"
)

// CodecNone marks a track that is intentionally absent ("this format
// carries no video/audio"). Distinct from the empty string, which
// means the codec is simply unknown.
const CodecNone = "none"

// Format describes one concrete, independently selectable rendition of
// a media title.
type Format struct {
	FormatID    string
	URL         string // entry point; never empty for a parser-returned Format
	ManifestURL string // master manifest this variant came from, if any
	Ext         string
	Protocol    string
	Vcodec      string // codec identifier, CodecNone, or "" when unknown
	Acodec      string

	Width  *int
	Height *int
	FPS    *float64
	TBR    *float64 // total bitrate, kbit/s
	VBR    *float64
	ABR    *float64
	ASR    *int // audio sample rate, Hz

	Filesize       *int64
	FilesizeApprox *int64 // estimated, never authoritative

	// Explicit ranking overrides. Quality dominates all measured
	// signals; Preference forces or forbids a format outright.
	Quality            *float64
	Preference         *float64
	LanguagePreference *float64
	SourcePreference   *float64

	Language   string
	FormatNote string
	Container  string

	// DRM is set when the manifest signals content protection. The
	// format is still emitted so callers can detect and report it.
	DRM bool

	// Segment template info for http_dash_segments formats.
	DASH *DASHSegments
}

// DASHSegments records what a segmented downloader needs to enumerate
// DASH media segments: the expanded templates plus timing. $Number$
// and $Time$ placeholders are left in MediaTemplate for the downloader
// to fill per segment.
type DASHSegments struct {
	BaseURL         string
	MediaTemplate   string
	InitTemplate    string
	StartNumber     int64
	Timescale       int64
	SegmentDuration *float64 // seconds, if declared
	SegmentCount    *int64   // derived from period duration when computable
}

// HasVideo reports whether the format carries (or may carry) a video
// track. An unknown codec counts as present; only the explicit
// CodecNone sentinel excludes a track.
func (f *Format) HasVideo() bool { return f.Vcodec != CodecNone }

// HasAudio reports whether the format carries (or may carry) an audio track.
func (f *Format) HasAudio() bool { return f.Acodec != CodecNone }

// Resolution returns a human-readable WxH string, or "audio only" /
// "unknown" when dimensions are absent.
func (f *Format) Resolution() string {
	if f.Width != nil && f.Height != nil {
		return fmt.Sprintf("%dx%d", *f.Width, *f.Height)
	}
	if !f.HasVideo() {
		return "audio only"
	}
	return "unknown"
}

// Info is the normalized result of one extraction: identity, display
// metadata, and the candidate formats found for the title.
type Info struct {
	ID        string
	Title     string
	Thumbnail string
	Duration  *float64 // seconds
	Formats   []Format
	Subtitles []Subtitle
}

// Subtitle represents a subtitle track discovered alongside the media.
type Subtitle struct {
	Language string
	Label    string
	URL      string
}

// DedupeFormats drops formats whose URL was already seen, keeping the
// first occurrence and preserving document order.
func DedupeFormats(formats []Format) []Format {
	seen := make(map[string]bool, len(formats))
	out := formats[:0]
	for _, f := range formats {
		if seen[f.URL] {
			continue
		}
		seen[f.URL] = true
		out = append(out, f)
	}
	return out
}

// DetermineExt infers a container extension from a URL path, falling
// back to defaultExt when the path has no recognizable suffix.
func DetermineExt(rawURL, defaultExt string) string {
	path := rawURL
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if i := strings.LastIndex(path, "."); i >= 0 {
		ext := path[i+1:]
		if len(ext) > 0 && len(ext) <= 5 && !strings.ContainsAny(ext, "/.") {
			return strings.ToLower(ext)
		}
	}
	return defaultExt
}

// Pointer constructors for optional fields, used at parse sites and in
// tests where a value is known to be present.

func Int(v int) *int           { return &v }
func Int64(v int64) *int64     { return &v }
func Float(v float64) *float64 { return &v }
