package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/vrnotify/internal/imagefile"
	"github.com/jmylchreest/vrnotify/internal/pixel"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List supported file types and pixel layouts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "File types: %s\n\n", strings.Join(imagefile.Extensions(), " "))
		fmt.Fprintf(out, "%-8s %5s %5s\n", "LAYOUT", "BPP", "ALPHA")
		for _, f := range pixel.Formats() {
			alpha := "no"
			if f.HasAlpha() {
				alpha = "yes"
			}
			fmt.Fprintf(out, "%-8s %5d %5s\n", f, f.BytesPerPixel(), alpha)
		}
		fmt.Fprintf(out, "\nOutput: %d bytes per pixel, blue-green-red-alpha\n", pixel.BytesPerPixel)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}
