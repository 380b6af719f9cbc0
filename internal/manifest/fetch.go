package manifest

import "marlin/internal/media"

// Fetcher is the single HTTP primitive the manifest layer consumes.
// Implementations must follow redirects and report the final URL so
// relative playlist entries resolve correctly.
type Fetcher interface {
	FetchText(url string) (body string, finalURL string, err error)
}

// FetchM3U8 downloads an M3U8 playlist and parses it. A failed
// download follows the same fatal contract as a failed parse.
func FetchM3U8(fetcher Fetcher, m3u8URL string, opts M3U8Options) ([]media.Format, error) {
	body, finalURL, err := fetcher.FetchText(m3u8URL)
	if err != nil {
		if opts.Fatal {
			return nil, &ParseError{Kind: "m3u8", URL: m3u8URL, VideoID: opts.VideoID, Reason: "downloading playlist", Err: err}
		}
		if opts.Warn != nil {
			opts.Warn("failed to download m3u8 playlist: " + err.Error())
		}
		return nil, nil
	}
	return ParseM3U8(body, finalURL, opts)
}

// FetchMPD downloads a DASH manifest and parses it.
func FetchMPD(fetcher Fetcher, mpdURL string, opts MPDOptions) ([]media.Format, error) {
	body, finalURL, err := fetcher.FetchText(mpdURL)
	if err != nil {
		if opts.Fatal {
			return nil, &ParseError{Kind: "mpd", URL: mpdURL, VideoID: opts.VideoID, Reason: "downloading manifest", Err: err}
		}
		if opts.Warn != nil {
			opts.Warn("failed to download MPD manifest: " + err.Error())
		}
		return nil, nil
	}
	return ParseMPD([]byte(body), finalURL, opts)
}
