// Package extractor resolves page or manifest URLs into normalized
// media.Info results. Site support is an explicit, compile-time list
// of extractors tried in order; the generic HTML extractor is last and
// matches everything.
package extractor

import (
	"errors"
	"fmt"

	"marlin/internal/manifest"
	"marlin/internal/media"
)

// ErrNoFormats is reported when every format source an extractor tried
// came up empty.
var ErrNoFormats = errors.New("no video formats found")

// Extractor resolves one class of URLs into extraction results.
type Extractor interface {
	// Name identifies the extractor in logs and format IDs.
	Name() string

	// Match reports whether this extractor handles the URL.
	Match(rawURL string) bool

	// Extract fetches the page or manifest and returns normalized
	// metadata with the candidate formats.
	Extract(rawURL string) (*media.Info, error)
}

// Deps carries what every extractor needs: the HTTP primitive and a
// warning sink for non-fatal parse anomalies.
type Deps struct {
	Fetcher manifest.Fetcher
	Warn    func(string)
}

func (d Deps) warn(msg string) {
	if d.Warn != nil {
		d.Warn(msg)
	}
}

// All returns the extractor list in matching order. The direct
// extractor claims manifest/media URLs by extension; the generic one
// takes whatever is left.
func All(deps Deps) []Extractor {
	return []Extractor{
		NewDirect(deps),
		NewGeneric(deps),
	}
}

// Find returns the first extractor matching the URL.
func Find(rawURL string, deps Deps) (Extractor, error) {
	for _, e := range All(deps) {
		if e.Match(rawURL) {
			return e, nil
		}
	}
	return nil, fmt.Errorf("no extractor for %q", rawURL)
}

// Extract runs the matching extractor for the URL.
func Extract(rawURL string, deps Deps) (*media.Info, error) {
	e, err := Find(rawURL, deps)
	if err != nil {
		return nil, err
	}
	return e.Extract(rawURL)
}
