package rank

import (
	"github.com/samber/lo"

	"marlin/internal/media"
)

// Boundary pickers over a sorted (worst to best) format list. Each
// returns nil when no format satisfies the filter.

// Best returns the highest-ranked format.
func Best(formats []media.Format) *media.Format {
	if len(formats) == 0 {
		return nil
	}
	return &formats[len(formats)-1]
}

// Worst returns the lowest-ranked format.
func Worst(formats []media.Format) *media.Format {
	if len(formats) == 0 {
		return nil
	}
	return &formats[0]
}

// BestVideo returns the highest-ranked format that carries a video track.
func BestVideo(formats []media.Format) *media.Format {
	return Best(lo.Filter(formats, func(f media.Format, _ int) bool {
		return f.HasVideo()
	}))
}

// BestAudio returns the highest-ranked format that carries an audio track.
func BestAudio(formats []media.Format) *media.Format {
	return Best(lo.Filter(formats, func(f media.Format, _ int) bool {
		return f.HasAudio()
	}))
}

// ByID returns the format with the given format_id.
func ByID(formats []media.Format, id string) *media.Format {
	f, ok := lo.Find(formats, func(f media.Format) bool {
		return f.FormatID == id
	})
	if !ok {
		return nil
	}
	return &f
}

// Pick resolves a format selector: "best", "worst", "bestvideo",
// "bestaudio", or a literal format_id.
func Pick(formats []media.Format, selector string) *media.Format {
	switch selector {
	case "", "best":
		return Best(formats)
	case "worst":
		return Worst(formats)
	case "bestvideo":
		return BestVideo(formats)
	case "bestaudio":
		return BestAudio(formats)
	default:
		return ByID(formats, selector)
	}
}
