package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/johngerving/3D-Building-Map-sub000/internal/engine"
)

type heightResult struct {
	Index  int     `json:"index" yaml:"index"`
	Height float64 `json:"height" yaml:"height"`
}

func newHeightCmd(root *rootOptions) *cobra.Command {
	var (
		manifest string
		index    int
	)

	cmd := &cobra.Command{
		Use:   "height",
		Short: "Print the stack height of the floor at an index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := loadManifest(manifest)
			if err != nil {
				return err
			}
			if index < 0 || index > len(b.Floors) {
				return fmt.Errorf("--index %d out of range [0, %d]", index, len(b.Floors))
			}
			return writeOutput(cmd.OutOrStdout(), root.format, heightResult{
				Index:  index,
				Height: engine.HeightForIndex(b.Floors, index),
			})
		},
	}

	cmd.Flags().StringVar(&manifest, "manifest", "building.yaml", "building manifest file")
	cmd.Flags().IntVar(&index, "index", 0, "floor index, 0 is the ground floor")
	return cmd
}
