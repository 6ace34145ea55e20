// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var locateCmd = &cobra.Command{
	Use:   "locate [pdfs...]",
	Short: "Report the page where each PDF's references section starts",
	Long: `Locate runs only the section finder: the document outline is checked
first, then the last fifth of the pages, then the rest. Pages are printed
1-based together with the stage that found the heading.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLocate,
}

func init() {
	rootCmd.AddCommand(locateCmd)
}

func runLocate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	w := cmd.OutOrStdout()
	failed := 0
	for _, arg := range args {
		path, err := a.pdfPath(cmd.Context(), arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed  %s: %v\n", arg, err)
			failed++
			continue
		}
		res, pages, err := a.pipeline.Locate(cmd.Context(), path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed  %s: %v\n", path, err)
			failed++
			continue
		}
		if !res.Found() {
			fmt.Fprintf(w, "%s: no references heading in %d pages\n", path, pages)
			continue
		}
		fmt.Fprintf(w, "%s: page %d of %d (%s)\n", path, res.Page+1, pages, res.Stage)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d document(s) failed", failed, len(args))
	}
	return nil
}
