package manifest

import (
	"fmt"
	"strings"

	"marlin/internal/media"
)

// RFC 6381 codec ID prefixes, keyed by the token before the first dot.
var (
	videoCodecPrefixes = map[string]bool{
		"avc1": true, "avc2": true, "avc3": true, "avc4": true,
		"hev1": true, "hev2": true, "hvc1": true, "hvc2": true,
		"vp08": true, "vp09": true, "vp8": true, "vp9": true,
		"av01": true, "mp4v": true, "h263": true, "h264": true,
		"theora": true, "dvh1": true, "dvhe": true,
	}
	audioCodecPrefixes = map[string]bool{
		"mp4a": true, "opus": true, "vorbis": true, "mp3": true,
		"aac": true, "ac-3": true, "ec-3": true, "eac3": true,
		"dtsc": true, "dtse": true, "dtsh": true, "dtsl": true,
		"flac": true, "alac": true,
	}
)

// ParseCodecs classifies a comma-separated RFC 6381 codecs string
// (e.g. "avc1.64001f,mp4a.40.2") into a video and an audio codec ID.
// When at least one token is recognized, the missing slot is reported
// as media.CodecNone. When nothing is recognized but exactly two
// tokens are present, they are assumed to be video,audio in that
// order. Unrecognized tokens produce a warning, never an abort.
func ParseCodecs(codecs string, warn func(string)) (vcodec, acodec string) {
	codecs = strings.TrimSpace(codecs)
	if codecs == "" {
		return "", ""
	}

	tokens := strings.Split(codecs, ",")
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		base := tok
		if i := strings.IndexByte(base, '.'); i >= 0 {
			base = base[:i]
		}
		switch {
		case videoCodecPrefixes[base]:
			if vcodec == "" {
				vcodec = tok
			}
		case audioCodecPrefixes[base]:
			if acodec == "" {
				acodec = tok
			}
		default:
			if warn != nil {
				warn(fmt.Sprintf("unrecognized codec %q", tok))
			}
		}
	}

	if vcodec == "" && acodec == "" {
		if len(tokens) == 2 {
			return strings.TrimSpace(tokens[0]), strings.TrimSpace(tokens[1])
		}
		return "", ""
	}
	if vcodec == "" {
		vcodec = media.CodecNone
	}
	if acodec == "" {
		acodec = media.CodecNone
	}
	return vcodec, acodec
}
