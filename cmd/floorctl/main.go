// Command floorctl builds floor geometry from a building manifest without a
// server or database.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	format    string
	assetsDir string
	verbose   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:          "floorctl",
		Short:        "Turn SVG floor plans into 3D floor geometry",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != "json" && opts.format != "yaml" {
				return fmt.Errorf("invalid --format %q: must be json or yaml", opts.format)
			}
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.format, "format", "yaml", "output format: json or yaml")
	rootCmd.PersistentFlags().StringVar(&opts.assetsDir, "assets", "", "directory that /assets/ sources resolve to")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline progress to stderr")

	rootCmd.AddCommand(newBuildCmd(opts), newHeightCmd(opts), newClassifyCmd(opts))
	return rootCmd
}
