package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"marlin/internal/ui"
)

var formatsCmd = &cobra.Command{
	Use:   "formats <url>",
	Short: "List the available formats, worst to best",
	Args:  cobra.ExactArgs(1),
	RunE:  formatsRun,
}

func formatsRun(cmd *cobra.Command, args []string) error {
	info, err := resolve(args[0])
	if err != nil {
		return err
	}

	if flagJSON {
		return writeJSON(info)
	}

	fmt.Printf("Formats for %s (%d found, worst to best):\n", info.Title, len(info.Formats))

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEXT\tRESOLUTION\tFPS\tTBR\tCODECS\tPROTO\tNOTE")
	for _, f := range info.Formats {
		fps := "-"
		if f.FPS != nil {
			fps = fmt.Sprintf("%.0f", *f.FPS)
		}
		tbr := "-"
		if f.TBR != nil {
			tbr = fmt.Sprintf("%.0fk", *f.TBR)
		}
		note := f.FormatNote
		if f.DRM {
			if note != "" {
				note += ", "
			}
			note += "drm"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			f.FormatID, f.Ext, f.Resolution(), fps, tbr, ui.DescribeCodecs(f), f.Protocol, note)
	}
	return w.Flush()
}
