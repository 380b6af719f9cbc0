package player

import (
	"fmt"
	"os"
	"os/exec"

	"marlin/internal/media"
)

// MPV implements the Player interface for mpv.
type MPV struct{}

func (m *MPV) Name() string { return "mpv" }

func (m *MPV) Available() bool {
	_, err := exec.LookPath("mpv")
	return err == nil
}

// Play launches mpv with the given format.
func (m *MPV) Play(f *media.Format, title string, subs []media.Subtitle) error {
	args := []string{
		playURL(f),
		"--force-media-title=" + title,
		"--really-quiet",
	}

	for _, sub := range subs {
		if sub.URL != "" {
			args = append(args, "--sub-file="+sub.URL)
			break // add primary track only, mpv loads it lazily
		}
	}

	cmd := exec.Command("mpv", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		// mpv returns non-zero on user quit, which is normal
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 4 {
			return nil
		}
		return fmt.Errorf("running mpv: %w", err)
	}
	return nil
}
