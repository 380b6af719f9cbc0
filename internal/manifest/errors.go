package manifest

import (
	"errors"
	"fmt"
)

// ErrDRM signals that a manifest is protected by DRM the tool cannot
// and will not attempt to defeat. Callers detect it with errors.Is and
// decide whether to refuse or just skip the source.
var ErrDRM = errors.New("manifest is DRM protected")

// ParseError reports a document-fatal parse failure: the input was not
// a valid manifest at all. Per-entry malformations never produce a
// ParseError; they are skipped with a warning instead.
type ParseError struct {
	Kind    string // "m3u8" or "mpd"
	URL     string
	VideoID string
	Reason  string
	Err     error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parsing %s manifest", e.Kind)
	if e.VideoID != "" {
		msg += " for " + e.VideoID
	}
	if e.URL != "" {
		msg += " (" + e.URL + ")"
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }
