// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/elastic/sensorchart/internal/chart"
	"github.com/elastic/sensorchart/internal/source"
	"github.com/elastic/sensorchart/internal/surface"
	"github.com/elastic/sensorchart/internal/telemetry"
)

var (
	renderOutput      string
	renderSaveRecords string
	renderPathOnly    bool
	renderJSON        bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Fetch readings once and render the chart",
	Long: `Fetches readings from the configured source and renders one chart.

The image goes to stdout unless --output is set. When --output ends in .svg or
.png and --format is not given, the extension picks the format.

Examples:
  sensorchart render --url http://localhost:8000/api/device_parameter/1/measurements -o chart.svg
  sensorchart render --url readings.ndjson --since 24h -o chart.png
  sensorchart render --url es+http://localhost:9200 --index 'sensors-*' --json
  sensorchart render --url http://sensor/api --save-records snapshot.parquet`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFrom(cmd.Context())
		if err != nil {
			return err
		}
		log := telemetry.FromContext(cmd.Context())

		opts, err := surfaceOptions(cfg)
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("format") {
			if f, ok := formatFromOutput(renderOutput); ok {
				opts.Format = f
			}
		}

		r, err := chart.NewRenderer(chartConfig(cfg))
		if err != nil {
			return err
		}
		f, err := openSource(cfg)
		if err != nil {
			return err
		}
		rec := &recordingFetcher{Fetcher: f}

		out, err := chart.NewChart(r, rec, cfg.Source.Timeout).Render(cmd.Context())
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"samples": out.SampleCount,
			"gaps":    out.GapCount,
		}).Debug("rendered chart")

		if renderSaveRecords != "" {
			if err := source.WriteFile(renderSaveRecords, rec.Records()); err != nil {
				return fmt.Errorf("save readings: %w", err)
			}
		}

		write := func(w io.Writer) error {
			switch {
			case renderJSON:
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(chartDocument{RenderOutput: out, Path: surface.PathData(out)})
			case renderPathOnly:
				_, err := fmt.Fprintln(w, surface.PathData(out))
				return err
			default:
				return surface.Draw(w, out, opts)
			}
		}

		if renderOutput == "" || renderOutput == "-" {
			stdout := cmd.OutOrStdout()
			if opts.Format == surface.FormatPNG && !renderJSON && !renderPathOnly && isTerminal(stdout) {
				return fmt.Errorf("refusing to write PNG to a terminal; use --output or redirect stdout")
			}
			return write(stdout)
		}
		if err := writeAtomic(renderOutput, write); err != nil {
			return err
		}
		log.WithField("path", renderOutput).Info("chart written")
		return nil
	},
}

// chartDocument is the JSON form of a render.
type chartDocument struct {
	*chart.RenderOutput
	Path string `json:"path"`
}

func formatFromOutput(path string) (surface.Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return surface.FormatPNG, true
	case ".svg":
		return surface.FormatSVG, true
	default:
		return "", false
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func init() {
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Write the chart to this file instead of stdout")
	renderCmd.Flags().StringVar(&renderSaveRecords, "save-records", "", "Also save the fetched readings (.json, .ndjson or .parquet)")
	renderCmd.Flags().BoolVar(&renderPathOnly, "path-only", false, "Print only the SVG path data of the line")
	renderCmd.Flags().BoolVar(&renderJSON, "json", false, "Print the computed chart as JSON")
	renderCmd.MarkFlagsMutuallyExclusive("path-only", "json")

	rootCmd.AddCommand(renderCmd)
}
