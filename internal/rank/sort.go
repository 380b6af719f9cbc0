// Package rank orders format lists from worst to best. The comparator
// is stable, total, and nil-aware: a missing quality signal compares
// below any present value on that field but ties with other missing
// values, so the decision falls through to the next field instead of
// inventing an order.
package rank

import (
	"sort"
	"strings"

	"marlin/internal/media"
)

// DefaultFieldOrder is the key priority used when the caller does not
// supply its own, highest priority first.
var DefaultFieldOrder = []string{
	"preference", "language_preference", "quality", "tbr", "filesize",
	"vbr", "height", "width", "proto_preference", "ext_preference",
	"abr", "audio_ext_preference", "fps", "filesize_approx",
	"source_preference", "format_id",
}

// Track-missing penalties. An audio-only format loses to a video-only
// one, and both lose to a complete format of comparable bitrate.
const (
	audioOnlyPenalty = -50
	videoOnlyPenalty = -40
)

// Extension preference tables, worst to best. PreferFree flips the
// ranking toward patent-unencumbered containers.
var (
	videoExtOrder     = []string{"webm", "flv", "mp4"}
	videoExtOrderFree = []string{"flv", "mp4", "webm"}
	audioExtOrder     = []string{"webm", "opus", "ogg", "mp3", "aac", "m4a"}
	audioExtOrderFree = []string{"aac", "mp3", "m4a", "webm", "ogg", "opus"}
)

// Options tune sorting behavior.
type Options struct {
	// FieldOrder overrides DefaultFieldOrder. Unknown field names rank
	// as missing for every format, which leaves relative order alone.
	FieldOrder []string
	// PreferFree ranks free containers/codecs above non-free ones.
	PreferFree bool
}

// Sort orders formats in place from worst to best. Equal-ranked
// formats keep their input order, two runs over the same input yield
// the same output, and no combination of missing fields can make the
// comparison fail.
func Sort(formats []media.Format, opts Options) {
	fields := opts.FieldOrder
	if len(fields) == 0 {
		fields = DefaultFieldOrder
	}

	keys := make([]sortKey, len(formats))
	for i := range formats {
		keys[i] = makeKey(&formats[i], fields, opts.PreferFree)
	}

	indices := make([]int, len(formats))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return keys[indices[a]].less(&keys[indices[b]])
	})

	sorted := make([]media.Format, len(formats))
	for i, idx := range indices {
		sorted[i] = formats[idx]
	}
	copy(formats, sorted)
}

// sortKey is the per-format comparison tuple. Numeric slots compare
// first; the format_id string breaks remaining ties.
type sortKey struct {
	nums     []float64
	formatID string
}

func (k *sortKey) less(other *sortKey) bool {
	for i, v := range k.nums {
		if v != other.nums[i] {
			return v < other.nums[i]
		}
	}
	return k.formatID < other.formatID
}

const missing = -1

func makeKey(f *media.Format, fields []string, preferFree bool) sortKey {
	k := sortKey{nums: make([]float64, 0, len(fields))}
	for _, field := range fields {
		if field == "format_id" {
			k.formatID = f.FormatID
			continue
		}
		k.nums = append(k.nums, fieldValue(f, field, preferFree))
	}
	return k
}

// fieldValue computes one numeric key slot. Missing values map to a
// constant below every value a parser emits, so unknown never beats
// known but all unknowns tie.
func fieldValue(f *media.Format, field string, preferFree bool) float64 {
	switch field {
	case "preference":
		return preferenceValue(f, preferFree)
	case "language_preference":
		return floatOrMissing(f.LanguagePreference)
	case "quality":
		return floatOrMissing(f.Quality)
	case "tbr":
		if f.TBR == nil && f.ABR != nil && f.VBR != nil {
			return *f.ABR + *f.VBR
		}
		return floatOrMissing(f.TBR)
	case "filesize":
		return int64OrMissing(f.Filesize)
	case "vbr":
		return floatOrMissing(f.VBR)
	case "height":
		return intOrMissing(f.Height)
	case "width":
		return intOrMissing(f.Width)
	case "proto_preference":
		return protoPreference(f)
	case "ext_preference":
		if !f.HasVideo() {
			return 0
		}
		return extPreference(ext(f), videoExtTable(preferFree))
	case "abr":
		return floatOrMissing(f.ABR)
	case "audio_ext_preference":
		if f.HasVideo() {
			return 0
		}
		return extPreference(ext(f), audioExtTable(preferFree))
	case "asr":
		return intOrMissing(f.ASR)
	case "fps":
		return floatOrMissing(f.FPS)
	case "filesize_approx":
		return int64OrMissing(f.FilesizeApprox)
	case "source_preference":
		return floatOrMissing(f.SourcePreference)
	default:
		return missing
	}
}

// preferenceValue applies the derived track penalties on top of the
// explicit override: a caller-set Preference is taken as-is, otherwise
// formats missing a track are pushed below complete ones.
func preferenceValue(f *media.Format, preferFree bool) float64 {
	if f.Preference != nil {
		return *f.Preference
	}
	pref := 0.0
	switch ext(f) {
	case "f4f", "f4m": // no downloader support
		pref -= 0.5
	}
	if !f.HasVideo() {
		pref += audioOnlyPenalty
	} else if !f.HasAudio() {
		pref += videoOnlyPenalty
	}
	return pref
}

// protoPreference ranks progressive HTTP above segmented protocols and
// both above rtmp/rtsp, whose resumability is unreliable.
func protoPreference(f *media.Format) float64 {
	protocol := f.Protocol
	if protocol == "" {
		protocol = determineProtocol(f.URL)
	}
	switch protocol {
	case media.ProtoHTTP, "https":
		return 0
	case media.ProtoRTMP, media.ProtoRTSP, "mms":
		return -0.5
	default: // m3u8, m3u8_native, http_dash_segments, ...
		return -0.1
	}
}

func determineProtocol(rawURL string) string {
	switch {
	case strings.HasPrefix(rawURL, "rtmp"):
		return media.ProtoRTMP
	case strings.HasPrefix(rawURL, "rtsp"):
		return media.ProtoRTSP
	case strings.HasPrefix(rawURL, "mms"):
		return "mms"
	}
	if media.DetermineExt(rawURL, "") == "m3u8" {
		return media.ProtoM3U8
	}
	return media.ProtoHTTP
}

func extPreference(ext string, order []string) float64 {
	for i, e := range order {
		if e == ext {
			return float64(i)
		}
	}
	return missing
}

func videoExtTable(preferFree bool) []string {
	if preferFree {
		return videoExtOrderFree
	}
	return videoExtOrder
}

func audioExtTable(preferFree bool) []string {
	if preferFree {
		return audioExtOrderFree
	}
	return audioExtOrder
}

func ext(f *media.Format) string {
	if f.Ext != "" {
		return f.Ext
	}
	return media.DetermineExt(f.URL, "")
}

func floatOrMissing(v *float64) float64 {
	if v == nil {
		return missing
	}
	return *v
}

func intOrMissing(v *int) float64 {
	if v == nil {
		return missing
	}
	return float64(*v)
}

func int64OrMissing(v *int64) float64 {
	if v == nil {
		return missing
	}
	return float64(*v)
}
