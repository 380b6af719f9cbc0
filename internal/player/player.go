// Package player launches an external media player on a selected
// format. All invocations use exec.Command with explicit argument
// slices; nothing passes through a shell.
package player

import (
	"marlin/internal/media"
)

// Player is the interface for media player implementations.
type Player interface {
	// Play starts playback and blocks until the player exits.
	Play(f *media.Format, title string, subs []media.Subtitle) error

	// Name returns the player name.
	Name() string

	// Available checks if the player binary exists in PATH.
	Available() bool
}

// New creates a player by name.
func New(name string) Player {
	switch name {
	case "mpv":
		return &MPV{}
	case "vlc":
		return &VLC{}
	case "iina", "celluloid":
		return &Generic{name: name}
	default:
		return &MPV{}
	}
}

// playURL picks the URL a player can open directly. Segmented DASH
// formats need the manifest; players cannot expand segment templates.
func playURL(f *media.Format) string {
	if f.Protocol == media.ProtoDASHSegments && f.ManifestURL != "" {
		return f.ManifestURL
	}
	if f.URL != "" {
		return f.URL
	}
	return f.ManifestURL
}
