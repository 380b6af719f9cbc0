package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"marlin/internal/download"
)

var flagOutputDir string

var getCmd = &cobra.Command{
	Use:   "get <url>",
	Short: "Download the selected format with ffmpeg",
	Args:  cobra.ExactArgs(1),
	RunE:  getRun,
}

func init() {
	getCmd.Flags().StringVarP(&flagOutputDir, "output-dir", "o", "", "Download directory (default from config)")
}

func getRun(cmd *cobra.Command, args []string) error {
	info, err := resolve(args[0])
	if err != nil {
		return err
	}

	f, err := selectFormat(info)
	if err != nil {
		return err
	}
	log.Debugf("downloading format %s (%s)", f.FormatID, f.Protocol)

	if f.DRM {
		return fmt.Errorf("format %s is DRM protected and cannot be downloaded", f.FormatID)
	}

	dir := flagOutputDir
	if dir == "" {
		dir, err = cfg.ExpandDownloadDir()
		if err != nil {
			return fmt.Errorf("resolving download dir: %w", err)
		}
	}

	title := info.Title
	if title == "" {
		title = info.ID
	}

	outputPath, err := download.Download(cmd.Context(), f, title, dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Downloaded: %s\n", outputPath)

	recordHistory(args[0], title, f.FormatID, "download")
	return nil
}
