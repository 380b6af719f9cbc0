// Package config handles TOML-based configuration loading and
// validation. The file is parsed as data only.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"marlin/internal/rank"
)

// Config holds all application configuration.
type Config struct {
	Player      string   `toml:"player"`
	Quality     string   `toml:"quality"`
	FormatSort  []string `toml:"format_sort"`
	PreferFree  bool     `toml:"prefer_free_formats"`
	History     bool     `toml:"history"`
	DownloadDir string   `toml:"download_dir"`
	Debug       bool     `toml:"debug"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Player:      "mpv",
		Quality:     "best",
		History:     true,
		DownloadDir: "~/Videos/marlin",
		Debug:       false,
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "marlin"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "marlin"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file and merges with defaults.
// If the config file doesn't exist, defaults are returned.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	validPlayers := map[string]bool{
		"mpv": true, "vlc": true, "iina": true, "celluloid": true,
	}
	if !validPlayers[strings.ToLower(c.Player)] {
		return fmt.Errorf("unsupported player %q (valid: mpv, vlc, iina, celluloid)", c.Player)
	}

	if err := validateQuality(c.Quality); err != nil {
		return err
	}

	valid := make(map[string]bool, len(rank.DefaultFieldOrder))
	for _, f := range rank.DefaultFieldOrder {
		valid[f] = true
	}
	for _, f := range c.FormatSort {
		if !valid[f] {
			return fmt.Errorf("unknown format_sort field %q", f)
		}
	}

	return nil
}

// validateQuality accepts the named selectors plus exact format IDs.
// An ID is anything non-empty; it only fails later if no format
// carries it.
func validateQuality(q string) error {
	switch q {
	case "", "best", "worst", "bestvideo", "bestaudio":
		return nil
	}
	if strings.TrimSpace(q) == "" {
		return fmt.Errorf("quality cannot be blank")
	}
	return nil
}

// RankOptions translates the config into sorter options.
func (c *Config) RankOptions() rank.Options {
	return rank.Options{
		FieldOrder: c.FormatSort,
		PreferFree: c.PreferFree,
	}
}

// ExpandDownloadDir resolves ~ in the download directory path.
func (c *Config) ExpandDownloadDir() (string, error) {
	dir := c.DownloadDir
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home dir: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}
	return filepath.Abs(dir)
}

// HistoryPath returns the path to the history database.
func HistoryPath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "marlin", "history.db"), nil
}
