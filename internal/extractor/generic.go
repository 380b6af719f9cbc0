package extractor

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"marlin/internal/manifest"
	"marlin/internal/media"
)

// Generic is the fallback extractor: it scrapes an HTML page for
// manifest and media URLs. DOM parsing first, a regex sweep over the
// raw document second (players routinely hide playlist URLs inside
// inline script blobs).
type Generic struct {
	deps Deps
}

func NewGeneric(deps Deps) *Generic { return &Generic{deps: deps} }

func (g *Generic) Name() string { return "generic" }

func (g *Generic) Match(rawURL string) bool {
	u, err := url.Parse(rawURL)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

var inlineManifestPattern = regexp.MustCompile(`https?://[^\s"'<>\\]+?\.(?:m3u8|mpd)(?:\?[^\s"'<>\\]*)?`)

func (g *Generic) Extract(rawURL string) (*media.Info, error) {
	page, finalURL, err := g.deps.Fetcher.FetchText(rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}

	info := &media.Info{
		ID:        videoIDFromURL(finalURL),
		Title:     pageTitle(doc),
		Thumbnail: metaContent(doc, "og:image"),
	}

	candidates := g.collectCandidates(doc, page, finalURL)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoFormats, rawURL)
	}

	var formats []media.Format
	var drm bool
	for _, candidate := range candidates {
		fs, err := g.formatsFor(candidate, info.ID)
		if err != nil {
			if errors.Is(err, manifest.ErrDRM) {
				drm = true
			}
			g.deps.warn(fmt.Sprintf("format source %s failed: %v", candidate, err))
			continue
		}
		formats = append(formats, fs...)
	}
	formats = media.DedupeFormats(formats)
	if len(formats) == 0 {
		if drm {
			return nil, manifest.ErrDRM
		}
		return nil, fmt.Errorf("%w for %s", ErrNoFormats, rawURL)
	}

	info.Formats = formats
	info.Subtitles = collectSubtitles(doc, finalURL)
	return info, nil
}

// collectCandidates gathers media URLs from meta tags, video/source
// elements, and inline script text, in that order, de-duplicated.
func (g *Generic) collectCandidates(doc *goquery.Document, page, baseURL string) []string {
	var candidates []string
	seen := make(map[string]bool)
	add := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return
		}
		resolved := resolveAgainst(baseURL, raw)
		if !seen[resolved] {
			seen[resolved] = true
			candidates = append(candidates, resolved)
		}
	}

	for _, prop := range []string{"og:video:secure_url", "og:video:url", "og:video"} {
		if v := metaContent(doc, prop); v != "" {
			add(v)
		}
	}

	doc.Find("video").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			add(src)
		}
		s.Find("source").Each(func(_ int, source *goquery.Selection) {
			if src, ok := source.Attr("src"); ok {
				add(src)
			}
		})
	})

	for _, m := range inlineManifestPattern.FindAllString(page, -1) {
		add(m)
	}

	return candidates
}

// formatsFor parses one candidate URL into format records. Manifest
// failures are non-fatal here; the caller falls through to the next
// candidate.
func (g *Generic) formatsFor(candidate, videoID string) ([]media.Format, error) {
	switch media.DetermineExt(candidate, "") {
	case "m3u8":
		return manifest.FetchM3U8(g.deps.Fetcher, candidate, manifest.M3U8Options{
			VideoID: videoID,
			Ext:     "mp4",
			M3U8ID:  "hls",
			Warn:    g.deps.warn,
		})
	case "mpd":
		return manifest.FetchMPD(g.deps.Fetcher, candidate, manifest.MPDOptions{
			VideoID: videoID,
			MPDID:   "dash",
			Warn:    g.deps.warn,
		})
	case "mp4", "webm", "mkv", "flv", "m4a", "mp3", "ogg", "opus", "aac":
		return []media.Format{{
			FormatID: "page-" + media.DetermineExt(candidate, "mp4"),
			URL:      candidate,
			Ext:      media.DetermineExt(candidate, "mp4"),
			Protocol: media.ProtoHTTP,
		}}, nil
	default:
		return nil, fmt.Errorf("no recognizable media extension in %q", candidate)
	}
}

func collectSubtitles(doc *goquery.Document, baseURL string) []media.Subtitle {
	var subs []media.Subtitle
	doc.Find("video track").Each(func(_ int, s *goquery.Selection) {
		kind := s.AttrOr("kind", "")
		if kind != "subtitles" && kind != "captions" {
			return
		}
		src, ok := s.Attr("src")
		if !ok {
			return
		}
		subs = append(subs, media.Subtitle{
			Language: s.AttrOr("srclang", ""),
			Label:    s.AttrOr("label", ""),
			URL:      resolveAgainst(baseURL, src),
		})
	})
	return subs
}

func pageTitle(doc *goquery.Document) string {
	if t := metaContent(doc, "og:title"); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func metaContent(doc *goquery.Document, property string) string {
	content := ""
	doc.Find(fmt.Sprintf(`meta[property=%q], meta[name=%q]`, property, property)).EachWithBreak(
		func(_ int, s *goquery.Selection) bool {
			if v, ok := s.Attr("content"); ok && strings.TrimSpace(v) != "" {
				content = strings.TrimSpace(v)
				return false
			}
			return true
		})
	return content
}

func resolveAgainst(base, ref string) string {
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
