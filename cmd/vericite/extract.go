// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/vericite/internal/report"
)

var extractCmd = &cobra.Command{
	Use:   "extract [pdf or identifier]",
	Short: "List the citation candidates found in a PDF without validating them",
	Long: `Extract locates the references section and prints every candidate line
with its page and extraction method (text_layer, ocr or remote). Nothing is
sent to the search backend.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringP("format", "f", report.FormatText, "output format: text, json or yaml")
	extractCmd.Flags().Int("fallback-pages", 0, "when no references heading is found, scan only the last N pages")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if err := checkFormat(format); err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	path, err := a.pdfPath(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	r, err := a.pipeline.Extract(cmd.Context(), path)
	if err != nil && (r == nil || len(r.Candidates) == 0) {
		return err
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: extraction stopped early: %v\n", err)
	}

	w := cmd.OutOrStdout()
	switch format {
	case report.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r.Candidates)
	case report.FormatYAML:
		return yaml.NewEncoder(w).Encode(r.Candidates)
	}

	for _, c := range r.Candidates {
		fmt.Fprintf(w, "%4d  %-10s  %s\n", c.OriginPage+1, c.Method, c.Text)
	}
	fmt.Fprintf(w, "\n%d candidates from page %d (%s strategy)\n", len(r.Candidates), r.StartPage+1, r.Strategy)
	return err
}
