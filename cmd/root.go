// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"marlin/internal/config"
	"marlin/internal/extractor"
	"marlin/internal/history"
	"marlin/internal/httputil"
	"marlin/internal/manifest"
	"marlin/internal/media"
	"marlin/internal/player"
	"marlin/internal/rank"
	"marlin/internal/ui"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagFormat     string
	flagQuality    string
	flagPlayer     string
	flagSort       []string
	flagPreferFree bool
	flagJSON       bool
	flagDebug      bool
)

// cfg holds the loaded configuration (merged: defaults < config file < flags).
var cfg *config.Config

var log = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "marlin <url>",
	Short: "Play and download media streams from the terminal",
	Long: `Marlin resolves a page or manifest URL into its available formats,
ranks them, and plays the selection with mpv/vlc or downloads it with ffmpeg.`,
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: loadConfig,
	RunE:              playRun,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagFormat, "format", "f", "", "Format selector: best | worst | bestvideo | bestaudio | <format_id>")
	rootCmd.PersistentFlags().StringVarP(&flagQuality, "quality", "q", "", "Shorthand for --format")
	rootCmd.PersistentFlags().StringVar(&flagPlayer, "player", "", "Media player: mpv | vlc | iina | celluloid")
	rootCmd.PersistentFlags().StringSliceVar(&flagSort, "sort", nil, "Ranking field order, e.g. height,tbr")
	rootCmd.PersistentFlags().BoolVar(&flagPreferFree, "prefer-free", false, "Prefer free containers and codecs when ranking")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "Output metadata as JSON instead of playing")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(formatsCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if flagPlayer != "" {
		cfg.Player = flagPlayer
	}
	if flagQuality != "" {
		cfg.Quality = flagQuality
	}
	if flagFormat != "" {
		cfg.Quality = flagFormat
	}
	if len(flagSort) > 0 {
		cfg.FormatSort = flagSort
	}
	if flagPreferFree {
		cfg.PreferFree = true
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if cfg.Debug {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}

	return nil
}

// extractorDeps wires the HTTP fetcher and warning sink the extractors use.
func extractorDeps() extractor.Deps {
	return extractor.Deps{
		Fetcher: httputil.NewFetcher(),
		Warn: func(msg string) {
			log.Warn(msg)
		},
	}
}

// resolve extracts the URL and returns its metadata with formats
// sorted worst to best.
func resolve(rawURL string) (*media.Info, error) {
	if err := httputil.ValidateURL(rawURL); err != nil {
		return nil, err
	}

	log.Debugf("extracting %s", rawURL)
	info, err := extractor.Extract(rawURL, extractorDeps())
	if err != nil {
		if errors.Is(err, manifest.ErrDRM) {
			return nil, fmt.Errorf("%w (protected streams cannot be played or downloaded)", err)
		}
		return nil, err
	}
	log.Debugf("found %d formats for %s", len(info.Formats), info.ID)

	rank.Sort(info.Formats, cfg.RankOptions())
	return info, nil
}

// selectFormat applies the configured selector, falling back to the
// interactive picker on a terminal when nothing was requested.
func selectFormat(info *media.Info) (*media.Format, error) {
	selector := cfg.Quality
	explicit := flagFormat != "" || flagQuality != ""

	if !explicit && ui.IsInteractive() {
		f, err := ui.PickFormat(info.Title, info.Formats)
		if err != nil {
			return nil, err
		}
		if f == nil {
			return nil, fmt.Errorf("no format selected")
		}
		return f, nil
	}

	f := rank.Pick(info.Formats, selector)
	if f == nil {
		return nil, fmt.Errorf("no format matches %q", selector)
	}
	return f, nil
}

func playRun(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}

	info, err := resolve(args[0])
	if err != nil {
		return err
	}

	if flagJSON {
		return writeJSON(info)
	}

	f, err := selectFormat(info)
	if err != nil {
		return err
	}
	log.Debugf("selected format %s (%s)", f.FormatID, f.Protocol)

	p := player.New(cfg.Player)
	if !p.Available() {
		return fmt.Errorf("player %q not found in PATH", cfg.Player)
	}

	title := info.Title
	if title == "" {
		title = info.ID
	}

	if err := p.Play(f, title, info.Subtitles); err != nil {
		return fmt.Errorf("playback failed: %w", err)
	}

	recordHistory(args[0], title, f.FormatID, "play")
	return nil
}

// recordHistory is best-effort: a failed write never fails the command.
func recordHistory(url, title, formatID, action string) {
	if !cfg.History {
		return
	}
	path, err := config.HistoryPath()
	if err != nil {
		log.Debugf("history path: %v", err)
		return
	}
	store, err := history.Open(path)
	if err != nil {
		log.Debugf("opening history: %v", err)
		return
	}
	defer store.Close()
	if err := store.Add(url, title, formatID, action); err != nil {
		log.Debugf("recording history: %v", err)
	}
}

// formatJSON is the stable machine-readable shape of one format.
type formatJSON struct {
	FormatID   string   `json:"format_id"`
	URL        string   `json:"url"`
	Ext        string   `json:"ext"`
	Protocol   string   `json:"protocol"`
	Vcodec     string   `json:"vcodec,omitempty"`
	Acodec     string   `json:"acodec,omitempty"`
	Width      *int     `json:"width,omitempty"`
	Height     *int     `json:"height,omitempty"`
	FPS        *float64 `json:"fps,omitempty"`
	TBR        *float64 `json:"tbr,omitempty"`
	Filesize   *int64   `json:"filesize,omitempty"`
	Language   string   `json:"language,omitempty"`
	FormatNote string   `json:"format_note,omitempty"`
	DRM        bool     `json:"drm,omitempty"`
}

func writeJSON(info *media.Info) error {
	formats := make([]formatJSON, len(info.Formats))
	for i, f := range info.Formats {
		formats[i] = formatJSON{
			FormatID:   f.FormatID,
			URL:        f.URL,
			Ext:        f.Ext,
			Protocol:   f.Protocol,
			Vcodec:     f.Vcodec,
			Acodec:     f.Acodec,
			Width:      f.Width,
			Height:     f.Height,
			FPS:        f.FPS,
			TBR:        f.TBR,
			Filesize:   f.Filesize,
			Language:   f.Language,
			FormatNote: f.FormatNote,
			DRM:        f.DRM,
		}
	}

	out := map[string]interface{}{
		"id":        info.ID,
		"title":     info.Title,
		"thumbnail": info.Thumbnail,
		"formats":   formats,
	}
	if len(info.Subtitles) > 0 {
		out["subtitles"] = info.Subtitles
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
