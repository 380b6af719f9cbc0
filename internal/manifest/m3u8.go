package manifest

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"marlin/internal/media"
)

// M3U8Options controls ParseM3U8 behavior.
type M3U8Options struct {
	VideoID       string
	Ext           string // default container extension for variants (e.g. "mp4")
	EntryProtocol string // media.ProtoM3U8Native unless overridden
	M3U8ID        string // format_id prefix, e.g. "hls"
	Preference    *float64
	Live          bool // keep format_ids free of bandwidth, which drifts on live streams
	Fatal         bool // document-fatal failures return a *ParseError instead of an empty list
	Warn          func(string)
}

var (
	resolutionPattern = regexp.MustCompile(`(\d+)[xX](\d+)`)
	// Unified Streaming Platform encodes per-track bitrates in variant URLs.
	uspBitratePattern = regexp.MustCompile(`audio.*?(?:%3D|=)(\d+)(?:-video.*?(?:%3D|=)(\d+))?`)
	fairplayPattern   = regexp.MustCompile(`#EXT-X-SESSION-KEY:.*?URI="skd://`)
	encryptedPattern  = regexp.MustCompile(`#EXT-X-KEY:METHOD=(?:AES-128|SAMPLE-AES)`)
)

// ParseM3U8 parses an HLS playlist document into format records.
//
// A master playlist yields one record per #EXT-X-STREAM-INF variant
// plus one per #EXT-X-MEDIA audio rendition carrying its own URI. A
// media playlist (detected via #EXT-X-TARGETDURATION, which must not
// appear in master playlists) yields exactly one record pointing at
// the document URL itself. Nested master playlists are not fetched;
// following them is the caller's decision.
func ParseM3U8(doc, baseURL string, opts M3U8Options) ([]media.Format, error) {
	warn := opts.Warn
	if warn == nil {
		warn = func(string) {}
	}
	entryProtocol := opts.EntryProtocol
	if entryProtocol == "" {
		entryProtocol = media.ProtoM3U8Native
	}

	if !strings.Contains(doc, "#EXTM3U") {
		if opts.Fatal {
			return nil, &ParseError{Kind: "m3u8", URL: baseURL, VideoID: opts.VideoID, Reason: "document is not an M3U8 playlist"}
		}
		warn("skipping invalid M3U8 document")
		return nil, nil
	}

	// Adobe Flash Access and Apple FairPlay streams cannot be fetched
	// by any downloader we drive; surface the DRM signal instead.
	if strings.Contains(doc, "#EXT-X-FAXS-CM:") || fairplayPattern.MatchString(doc) {
		return nil, ErrDRM
	}

	// Media playlists describe segments of a single rendition, so the
	// playlist itself is the one format. Native segment handling cannot
	// decrypt, hence the fallback to the external m3u8 protocol when
	// the playlist carries encryption keys.
	if strings.Contains(doc, "#EXT-X-TARGETDURATION") {
		protocol := entryProtocol
		if protocol == media.ProtoM3U8Native && encryptedPattern.MatchString(doc) {
			protocol = media.ProtoM3U8
		}
		return []media.Format{{
			FormatID:   opts.M3U8ID,
			URL:        baseURL,
			Ext:        opts.Ext,
			Protocol:   protocol,
			Preference: opts.Preference,
		}}, nil
	}

	var formats []media.Format
	groups := make(map[string][]map[string]string)

	// EXT-X-MEDIA tags are collected first so that variants can consult
	// rendition groups even when the tags appear after EXT-X-STREAM-INF.
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, "#EXT-X-MEDIA:") {
			m := ParseAttributes(line)
			mediaType, groupID, name := m["TYPE"], m["GROUP-ID"], m["NAME"]
			if mediaType == "" || groupID == "" || name == "" {
				warn("EXT-X-MEDIA tag missing TYPE, GROUP-ID or NAME")
				continue
			}
			groups[groupID] = append(groups[groupID], m)
			if mediaType != "AUDIO" && mediaType != "VIDEO" {
				continue
			}
			uri := m["URI"]
			if uri == "" {
				continue
			}
			f := media.Format{
				FormatID:    joinID(opts.M3U8ID, groupID, name),
				URL:         resolveURL(baseURL, uri),
				ManifestURL: baseURL,
				Language:    m["LANGUAGE"],
				Ext:         opts.Ext,
				Protocol:    entryProtocol,
				Preference:  opts.Preference,
			}
			if mediaType == "AUDIO" {
				f.Vcodec = media.CodecNone
			}
			formats = append(formats, f)
		}
	}

	var lastStreamInf map[string]string
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case strings.HasPrefix(line, "#EXT-X-STREAM-INF:"):
			lastStreamInf = ParseAttributes(line)
		case strings.HasPrefix(line, "#"), strings.TrimSpace(line) == "":
			continue
		default:
			if lastStreamInf == nil {
				continue // URI line without a preceding variant tag
			}
			f := parseVariant(line, baseURL, lastStreamInf, groups, len(formats), opts, entryProtocol, warn)
			formats = append(formats, f)
			lastStreamInf = nil
		}
	}

	return media.DedupeFormats(formats), nil
}

// parseVariant builds the format record for one EXT-X-STREAM-INF tag
// and its URI line.
func parseVariant(uriLine, baseURL string, inf map[string]string, groups map[string][]map[string]string,
	index int, opts M3U8Options, entryProtocol string, warn func(string)) media.Format {

	var tbr *float64
	bandwidth := inf["AVERAGE-BANDWIDTH"]
	if bandwidth == "" {
		bandwidth = inf["BANDWIDTH"]
	}
	if bandwidth != "" {
		if v, err := strconv.ParseFloat(bandwidth, 64); err == nil {
			tbr = media.Float(v / 1000)
		} else {
			warn("malformed bandwidth attribute " + bandwidth)
		}
	}

	var idParts []string
	if opts.M3U8ID != "" {
		idParts = append(idParts, opts.M3U8ID)
	}
	// Live stream bandwidth drifts over time, which would make the
	// format_id unstable across playlist refreshes.
	if !opts.Live {
		switch {
		case streamName(inf, groups) != "":
			idParts = append(idParts, streamName(inf, groups))
		case tbr != nil:
			idParts = append(idParts, strconv.Itoa(int(*tbr)))
		default:
			idParts = append(idParts, strconv.Itoa(index))
		}
	}

	f := media.Format{
		FormatID:    strings.Join(idParts, "-"),
		URL:         resolveURL(baseURL, strings.TrimSpace(uriLine)),
		ManifestURL: baseURL,
		TBR:         tbr,
		Ext:         opts.Ext,
		Protocol:    entryProtocol,
		Preference:  opts.Preference,
	}

	if fr := inf["FRAME-RATE"]; fr != "" {
		if v, err := strconv.ParseFloat(fr, 64); err == nil {
			f.FPS = media.Float(v)
		}
	}
	if res := inf["RESOLUTION"]; res != "" {
		if m := resolutionPattern.FindStringSubmatch(res); m != nil {
			w, _ := strconv.Atoi(m[1])
			h, _ := strconv.Atoi(m[2])
			f.Width, f.Height = media.Int(w), media.Int(h)
		} else {
			warn("malformed resolution attribute " + res)
		}
	}
	if m := uspBitratePattern.FindStringSubmatch(f.URL); m != nil {
		if abr, err := strconv.ParseFloat(m[1], 64); err == nil {
			f.ABR = media.Float(abr / 1000)
		}
		if m[2] != "" {
			if vbr, err := strconv.ParseFloat(m[2], 64); err == nil {
				f.VBR = media.Float(vbr / 1000)
			}
		}
	}

	f.Vcodec, f.Acodec = ParseCodecs(inf["CODECS"], warn)

	// A variant that references an audio rendition group with its own
	// URI carries no audio of its own: the audio track lives in the
	// rendition's playlist. Only trust this when codecs were declared;
	// manifests in the wild reference groups from complete formats.
	if audioGroupID := inf["AUDIO"]; audioGroupID != "" && f.Vcodec != "" && f.Vcodec != media.CodecNone {
		if group := groups[audioGroupID]; len(group) > 0 && group[0]["URI"] != "" {
			f.Acodec = media.CodecNone
		}
	}

	return f
}

// streamName returns the variant's NAME attribute, or the name of the
// video rendition group it references.
func streamName(inf map[string]string, groups map[string][]map[string]string) string {
	if name := inf["NAME"]; name != "" {
		return name
	}
	groupID := inf["VIDEO"]
	if groupID == "" {
		return ""
	}
	group := groups[groupID]
	if len(group) == 0 {
		return groupID
	}
	if name := group[0]["NAME"]; name != "" {
		return name
	}
	return groupID
}

func joinID(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "-")
}

// resolveURL resolves ref against base unless ref is already absolute.
func resolveURL(base, ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
