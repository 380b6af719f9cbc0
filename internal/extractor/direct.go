package extractor

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"marlin/internal/manifest"
	"marlin/internal/media"
)

// Direct handles URLs that point straight at a manifest or media file,
// recognized by extension.
type Direct struct {
	deps Deps
}

func NewDirect(deps Deps) *Direct { return &Direct{deps: deps} }

func (d *Direct) Name() string { return "direct" }

var directExts = map[string]bool{
	"m3u8": true, "mpd": true,
	"mp4": true, "webm": true, "mkv": true, "flv": true,
	"m4a": true, "mp3": true, "ogg": true, "opus": true, "aac": true,
}

func (d *Direct) Match(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	return directExts[media.DetermineExt(rawURL, "")]
}

func (d *Direct) Extract(rawURL string) (*media.Info, error) {
	videoID := videoIDFromURL(rawURL)
	info := &media.Info{
		ID:    videoID,
		Title: videoID,
	}

	var formats []media.Format
	var err error
	switch media.DetermineExt(rawURL, "") {
	case "m3u8":
		formats, err = manifest.FetchM3U8(d.deps.Fetcher, rawURL, manifest.M3U8Options{
			VideoID: videoID,
			Ext:     "mp4",
			M3U8ID:  "hls",
			Fatal:   true,
			Warn:    d.deps.warn,
		})
	case "mpd":
		formats, err = manifest.FetchMPD(d.deps.Fetcher, rawURL, manifest.MPDOptions{
			VideoID: videoID,
			MPDID:   "dash",
			Fatal:   true,
			Warn:    d.deps.warn,
		})
	default:
		ext := media.DetermineExt(rawURL, "mp4")
		formats = []media.Format{{
			FormatID: "direct",
			URL:      rawURL,
			Ext:      ext,
			Protocol: media.ProtoHTTP,
		}}
	}
	if err != nil {
		return nil, err
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoFormats, rawURL)
	}

	info.Formats = formats
	return info, nil
}

// videoIDFromURL derives a stable identifier from the URL path.
func videoIDFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	base := path.Base(u.Path)
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	if base == "" || base == "/" || base == "." {
		return u.Host
	}
	return base
}
