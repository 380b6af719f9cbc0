package manifest

import (
	"encoding/xml"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"marlin/internal/media"
)

// MPDOptions controls ParseMPD behavior.
type MPDOptions struct {
	VideoID string
	MPDID   string // format_id prefix, e.g. "dash"
	Fatal   bool
	Warn    func(string)
}

// XML document model. Attribute inheritance (AdaptationSet values
// apply to Representations that do not override them) is resolved
// after unmarshalling, not in the schema.

type mpdDocument struct {
	XMLName                   xml.Name    `xml:"MPD"`
	Type                      string      `xml:"type,attr"`
	MediaPresentationDuration string      `xml:"mediaPresentationDuration,attr"`
	BaseURL                   string      `xml:"BaseURL"`
	Periods                   []mpdPeriod `xml:"Period"`
}

type mpdPeriod struct {
	Duration        string              `xml:"duration,attr"`
	BaseURL         string              `xml:"BaseURL"`
	SegmentTemplate *mpdSegmentTemplate `xml:"SegmentTemplate"`
	AdaptationSets  []mpdAdaptationSet  `xml:"AdaptationSet"`
}

type mpdAdaptationSet struct {
	MimeType          string               `xml:"mimeType,attr"`
	Codecs            string               `xml:"codecs,attr"`
	Lang              string               `xml:"lang,attr"`
	Width             string               `xml:"width,attr"`
	Height            string               `xml:"height,attr"`
	FrameRate         string               `xml:"frameRate,attr"`
	AudioSamplingRate string               `xml:"audioSamplingRate,attr"`
	BaseURL           string               `xml:"BaseURL"`
	ContentProtection []mpdContentProtect  `xml:"ContentProtection"`
	SegmentTemplate   *mpdSegmentTemplate  `xml:"SegmentTemplate"`
	Representations   []mpdRepresentation  `xml:"Representation"`
}

type mpdRepresentation struct {
	ID                string              `xml:"id,attr"`
	Bandwidth         string              `xml:"bandwidth,attr"`
	MimeType          string              `xml:"mimeType,attr"`
	Codecs            string              `xml:"codecs,attr"`
	Width             string              `xml:"width,attr"`
	Height            string              `xml:"height,attr"`
	FrameRate         string              `xml:"frameRate,attr"`
	AudioSamplingRate string              `xml:"audioSamplingRate,attr"`
	BaseURL           string              `xml:"BaseURL"`
	ContentProtection []mpdContentProtect `xml:"ContentProtection"`
	SegmentTemplate   *mpdSegmentTemplate `xml:"SegmentTemplate"`
	SegmentList       *mpdSegmentList     `xml:"SegmentList"`
}

type mpdContentProtect struct {
	SchemeIDURI string `xml:"schemeIdUri,attr"`
}

type mpdSegmentTemplate struct {
	Media           string              `xml:"media,attr"`
	Initialization  string              `xml:"initialization,attr"`
	StartNumber     string              `xml:"startNumber,attr"`
	Timescale       string              `xml:"timescale,attr"`
	Duration        string              `xml:"duration,attr"`
	SegmentTimeline *mpdSegmentTimeline `xml:"SegmentTimeline"`
}

type mpdSegmentList struct {
	Timescale      string `xml:"timescale,attr"`
	Duration       string `xml:"duration,attr"`
	Initialization *struct {
		SourceURL string `xml:"sourceURL,attr"`
	} `xml:"Initialization"`
	SegmentURLs []struct {
		Media string `xml:"media,attr"`
	} `xml:"SegmentURL"`
}

type mpdSegmentTimeline struct {
	S []struct {
		T string `xml:"t,attr"`
		D string `xml:"d,attr"`
		R string `xml:"r,attr"`
	} `xml:"S"`
}

// xsDurationPattern matches the xs:duration subset manifests use,
// e.g. PT1H2M3.5S or P0Y0M0DT0H3M30S.
var xsDurationPattern = regexp.MustCompile(
	`^P(?:(\d+(?:\.\d+)?)Y)?(?:(\d+(?:\.\d+)?)M)?(?:(\d+(?:\.\d+)?)D)?` +
		`(?:T(?:(\d+(?:\.\d+)?)H)?(?:(\d+(?:\.\d+)?)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// parseXSDuration converts an ISO 8601 duration into seconds.
func parseXSDuration(s string) *float64 {
	m := xsDurationPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil
	}
	mult := []float64{365 * 86400, 30 * 86400, 86400, 3600, 60, 1}
	total, any := 0.0, false
	for i, part := range m[1:] {
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil
		}
		total += v * mult[i]
		any = true
	}
	if !any {
		return nil
	}
	return &total
}

// ParseMPD parses a DASH MPD document into format records, one per
// audio/video Representation. Dynamic (live) manifests produce no
// formats. DRM-protected representations are still emitted, flagged,
// so callers can report them instead of silently missing streams.
func ParseMPD(doc []byte, baseURL string, opts MPDOptions) ([]media.Format, error) {
	warn := opts.Warn
	if warn == nil {
		warn = func(string) {}
	}

	var mpd mpdDocument
	if err := xml.Unmarshal(doc, &mpd); err != nil {
		if opts.Fatal {
			return nil, &ParseError{Kind: "mpd", URL: baseURL, VideoID: opts.VideoID, Reason: "document is not an MPD manifest", Err: err}
		}
		warn("skipping invalid MPD document")
		return nil, nil
	}
	if mpd.Type == "dynamic" {
		return nil, nil
	}

	mpdDuration := parseXSDuration(mpd.MediaPresentationDuration)
	var formats []media.Format

	for _, period := range mpd.Periods {
		periodDuration := parseXSDuration(period.Duration)
		if periodDuration == nil {
			periodDuration = mpdDuration
		}
		for _, aset := range period.AdaptationSets {
			for _, rep := range aset.Representations {
				f, ok := parseRepresentation(&mpd, &period, &aset, &rep, baseURL, periodDuration, opts, warn)
				if ok {
					formats = append(formats, f)
				}
			}
		}
	}

	return formats, nil
}

// parseRepresentation builds the format record for one Representation,
// resolving attributes inherited from the enclosing AdaptationSet.
func parseRepresentation(mpd *mpdDocument, period *mpdPeriod, aset *mpdAdaptationSet, rep *mpdRepresentation,
	mpdURL string, periodDuration *float64, opts MPDOptions, warn func(string)) (media.Format, bool) {

	mimeType := inherit(rep.MimeType, aset.MimeType)
	contentType := strings.SplitN(mimeType, "/", 2)[0]
	switch contentType {
	case "video", "audio":
	case "text", "application":
		return media.Format{}, false // subtitles and metadata tracks are not selectable formats
	default:
		warn(fmt.Sprintf("unknown MIME type %q in MPD manifest", mimeType))
		return media.Format{}, false
	}

	bandwidth, err := strconv.ParseInt(rep.Bandwidth, 10, 64)
	if err != nil || bandwidth < 0 {
		warn(fmt.Sprintf("representation %q has no usable bandwidth", rep.ID))
		bandwidth = 0
	}

	// BaseURL chains: representation-level relative URLs resolve
	// against ancestor BaseURLs, which in turn resolve against the
	// manifest location.
	repBase := mpdURL
	for _, b := range []string{mpd.BaseURL, period.BaseURL, aset.BaseURL, rep.BaseURL} {
		if b = strings.TrimSpace(b); b != "" {
			repBase = resolveURL(repBase, b)
		}
	}

	formatID := opts.MPDID
	if formatID != "" {
		formatID += "-"
	}
	if rep.ID != "" {
		formatID += rep.ID
	} else {
		formatID += fmt.Sprintf("%s=%d", contentType, bandwidth)
	}

	f := media.Format{
		FormatID:    formatID,
		ManifestURL: mpdURL,
		Ext:         mimeTypeExt(mimeType),
		Container:   mimeTypeExt(mimeType) + "_dash",
		FormatNote:  "DASH " + contentType,
		Language:    normalizeLang(aset.Lang),
		DRM:         len(rep.ContentProtection) > 0 || len(aset.ContentProtection) > 0,
	}
	if bandwidth > 0 {
		f.TBR = media.Float(float64(bandwidth) / 1000)
	}
	if w := intAttr(inherit(rep.Width, aset.Width)); w != nil {
		f.Width = w
	}
	if h := intAttr(inherit(rep.Height, aset.Height)); h != nil {
		f.Height = h
	}
	if fps := frameRate(inherit(rep.FrameRate, aset.FrameRate)); fps != nil {
		f.FPS = fps
	}
	if asr := intAttr(inherit(rep.AudioSamplingRate, aset.AudioSamplingRate)); asr != nil {
		f.ASR = asr
	}

	f.Vcodec, f.Acodec = ParseCodecs(inherit(rep.Codecs, aset.Codecs), warn)
	// Codecs alone can be ambiguous; the adaptation set's content type
	// settles which track the representation carries.
	if f.Vcodec == "" && f.Acodec == "" {
		if contentType == "audio" {
			f.Vcodec = media.CodecNone
		} else {
			f.Acodec = media.CodecNone
		}
	}

	tmpl := rep.SegmentTemplate
	if tmpl == nil {
		tmpl = aset.SegmentTemplate
	}
	if tmpl == nil {
		tmpl = period.SegmentTemplate
	}

	switch {
	case tmpl != nil && tmpl.Media != "":
		seg := &media.DASHSegments{
			BaseURL:       repBase,
			MediaTemplate: expandTemplate(tmpl.Media, rep.ID, bandwidth),
			InitTemplate:  expandTemplate(tmpl.Initialization, rep.ID, bandwidth),
			StartNumber:   1,
			Timescale:     1,
		}
		if n := int64Attr(tmpl.StartNumber); n != nil {
			seg.StartNumber = *n
		}
		if ts := int64Attr(tmpl.Timescale); ts != nil && *ts > 0 {
			seg.Timescale = *ts
		}
		if d := int64Attr(tmpl.Duration); d != nil && *d > 0 {
			segDur := float64(*d) / float64(seg.Timescale)
			seg.SegmentDuration = media.Float(segDur)
			if periodDuration != nil {
				seg.SegmentCount = media.Int64(int64(math.Ceil(*periodDuration / segDur)))
			}
		} else if tl := tmpl.SegmentTimeline; tl != nil {
			count := int64(0)
			for _, s := range tl.S {
				count++
				if r := int64Attr(s.R); r != nil {
					count += *r
				}
			}
			seg.SegmentCount = media.Int64(count)
		}
		f.URL = mpdURL
		if f.URL == "" {
			f.URL = repBase
		}
		f.Protocol = media.ProtoDASHSegments
		f.DASH = seg
	case rep.SegmentList != nil:
		seg := &media.DASHSegments{
			BaseURL:     repBase,
			StartNumber: 1,
			Timescale:   1,
		}
		if ts := int64Attr(rep.SegmentList.Timescale); ts != nil && *ts > 0 {
			seg.Timescale = *ts
		}
		if d := int64Attr(rep.SegmentList.Duration); d != nil && *d > 0 {
			seg.SegmentDuration = media.Float(float64(*d) / float64(seg.Timescale))
		}
		seg.SegmentCount = media.Int64(int64(len(rep.SegmentList.SegmentURLs)))
		if rep.SegmentList.Initialization != nil {
			seg.InitTemplate = rep.SegmentList.Initialization.SourceURL
		}
		f.URL = mpdURL
		if f.URL == "" {
			f.URL = repBase
		}
		f.Protocol = media.ProtoDASHSegments
		f.DASH = seg
	default:
		// Unfragmented media with a direct URL.
		f.URL = repBase
		f.Protocol = media.ProtoHTTP
	}

	if f.URL == "" {
		warn(fmt.Sprintf("representation %q has no resolvable URL, dropping", rep.ID))
		return media.Format{}, false
	}

	// Duration times bandwidth gives a rough size when the manifest
	// does not state one. Stored as approximate, never as Filesize.
	if periodDuration != nil && bandwidth > 0 {
		f.FilesizeApprox = media.Int64(int64(*periodDuration * float64(bandwidth) / 8))
	}

	return f, true
}

// expandTemplate substitutes the identifiers that are constant per
// representation. $Number$ and $Time$ (with optional printf-style
// width specifiers) vary per segment and stay in the template.
func expandTemplate(tmpl, repID string, bandwidth int64) string {
	if tmpl == "" {
		return ""
	}
	tmpl = strings.ReplaceAll(tmpl, "$RepresentationID$", repID)
	tmpl = strings.ReplaceAll(tmpl, "$Bandwidth$", strconv.FormatInt(bandwidth, 10))
	return strings.ReplaceAll(tmpl, "$$", "$")
}

func inherit(own, parent string) string {
	if own != "" {
		return own
	}
	return parent
}

func intAttr(s string) *int {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

func int64Attr(s string) *int64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

// frameRate parses either a plain number or the num/den form.
func frameRate(s string) *float64 {
	if s == "" {
		return nil
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return nil
		}
		v := n / d
		return &v
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// normalizeLang drops the "no linguistic content" placeholder codes.
func normalizeLang(lang string) string {
	switch lang {
	case "mul", "und", "zxx", "mis":
		return ""
	}
	return lang
}

// mimeTypeExt maps a MIME type to a container extension.
func mimeTypeExt(mimeType string) string {
	_, sub, _ := strings.Cut(mimeType, "/")
	switch sub {
	case "x-ms-wmv":
		return "wmv"
	case "x-mp4-fragmented":
		return "mp4"
	}
	return sub
}
