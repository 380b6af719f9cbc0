package player

import (
	"fmt"
	"os"
	"os/exec"

	"marlin/internal/media"
)

// Generic implements the Player interface for players like iina and
// celluloid that accept mpv-compatible arguments.
type Generic struct {
	name string
}

func (g *Generic) Name() string { return g.name }

func (g *Generic) Available() bool {
	_, err := exec.LookPath(g.name)
	return err == nil
}

func (g *Generic) Play(f *media.Format, title string, subs []media.Subtitle) error {
	args := []string{
		playURL(f),
		"--force-media-title=" + title,
	}

	for _, sub := range subs {
		if sub.URL != "" {
			args = append(args, "--sub-file="+sub.URL)
			break
		}
	}

	cmd := exec.Command(g.name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return nil
		}
		return fmt.Errorf("running %s: %w", g.name, err)
	}
	return nil
}
