// Package download provides ffmpeg-based media downloading.
// Uses exec.Command with explicit argument slices and validates
// output paths against directory traversal attacks.
package download

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"marlin/internal/httputil"
	"marlin/internal/media"
)

// outputExt picks a container that can hold the format's streams
// without re-encoding.
func outputExt(f *media.Format) string {
	if !f.HasVideo() {
		switch f.Ext {
		case "m4a", "mp3", "ogg", "opus", "aac":
			return f.Ext
		}
		return "m4a"
	}
	return "mkv"
}

// Download fetches one format to a local file using ffmpeg. Segmented
// protocols (HLS, DASH) are handled by ffmpeg's own demuxers; the
// manifest URL is passed when the format carries one so variant
// playlists resolve correctly.
func Download(ctx context.Context, f *media.Format, title, outputDir string) (string, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	absDir, err := filepath.Abs(outputDir)
	if err != nil {
		return "", fmt.Errorf("resolving output directory: %w", err)
	}
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	filename := httputil.SanitizeFilename(title) + "." + outputExt(f)
	outputPath, err := httputil.SafeDownloadPath(absDir, filename)
	if err != nil {
		return "", fmt.Errorf("invalid output path: %w", err)
	}

	inputURL := f.URL
	// DASH segment URLs may still contain template placeholders; hand
	// ffmpeg the manifest and let its demuxer expand them.
	if f.Protocol == media.ProtoDASHSegments && f.ManifestURL != "" {
		inputURL = f.ManifestURL
	}
	if inputURL == "" {
		inputURL = f.ManifestURL
	}
	if inputURL == "" {
		return "", fmt.Errorf("format %s has no downloadable URL", f.FormatID)
	}

	args := []string{
		"-y",
		"-i", inputURL,
		"-c", "copy",
		"-metadata", fmt.Sprintf("title=%s", title),
		outputPath,
	}

	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	fmt.Fprintf(os.Stderr, "Downloading to: %s\n", outputPath)

	if err := cmd.Run(); err != nil {
		os.Remove(outputPath)
		return "", fmt.Errorf("ffmpeg download failed: %w", err)
	}

	return outputPath, nil
}
