package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/johngerving/3D-Building-Map-sub000/internal/engine"
	"github.com/johngerving/3D-Building-Map-sub000/internal/svgdoc"
)

type layerSummary struct {
	ID      string `json:"id" yaml:"id"`
	Fills   int    `json:"fills" yaml:"fills"`
	Strokes int    `json:"strokes" yaml:"strokes"`
}

type classifySummary struct {
	File     string         `json:"file" yaml:"file"`
	Paths    int            `json:"paths" yaml:"paths"`
	Layers   []layerSummary `json:"layers" yaml:"layers"`
	Warnings []string       `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func newClassifyCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "classify file.svg",
		Short: "Show how a floor plan's paths group into layers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			doc, err := svgdoc.Parse(f)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			classes, warnings := engine.ClassifyDocument(doc, slog.Default())
			out := classifySummary{File: args[0], Paths: len(doc.Paths)}
			classes.Each(func(g *engine.ClassifiedGroup) {
				out.Layers = append(out.Layers, layerSummary{
					ID:      string(g.ID),
					Fills:   len(g.FillPaths),
					Strokes: len(g.StrokePaths),
				})
			})
			for _, w := range warnings {
				out.Warnings = append(out.Warnings, w.String())
			}
			return writeOutput(cmd.OutOrStdout(), root.format, out)
		},
	}
}
