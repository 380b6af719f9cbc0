package player

import (
	"fmt"
	"os"
	"os/exec"

	"marlin/internal/media"
)

// VLC implements the Player interface for VLC media player.
type VLC struct{}

func (v *VLC) Name() string { return "vlc" }

func (v *VLC) Available() bool {
	_, err := exec.LookPath("vlc")
	return err == nil
}

func (v *VLC) Play(f *media.Format, title string, subs []media.Subtitle) error {
	args := []string{
		playURL(f),
		"--meta-title", title,
		"--play-and-exit",
	}

	for _, sub := range subs {
		if sub.URL != "" {
			args = append(args, "--sub-file", sub.URL)
			break
		}
	}

	cmd := exec.Command("vlc", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			// VLC exits non-zero on user close
			return nil
		}
		return fmt.Errorf("running vlc: %w", err)
	}
	return nil
}
