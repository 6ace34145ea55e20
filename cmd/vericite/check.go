// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/vericite/internal/pipeline"
	"github.com/pdiddy/vericite/internal/report"
)

var checkCmd = &cobra.Command{
	Use:   "check [files, identifiers, or citations...]",
	Short: "Verify the citations in PDFs, text files, or quoted citation strings",
	Long: `Check locates the references section of each PDF, extracts the cited
entries, and looks each one up in the configured bibliographic index.

Arguments that are existing .pdf files are treated as papers. Other existing
files are read as one citation per line. DOIs, arXiv IDs, and http(s) URLs
are downloaded to the download directory and checked as papers. Any other
argument longer than the minimum line length is checked as a single citation.

Documents are checked concurrently (see --jobs). A document that cannot be
opened fails only itself; the command exits non-zero if any document failed,
or with --strict, if any citation is unverified.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringP("format", "f", report.FormatText, "output format: text, json or yaml")
	checkCmd.Flags().Bool("strict", false, "exit non-zero when any citation is unverified")
	checkCmd.Flags().IntP("jobs", "j", 0, "documents to check concurrently (default from config, 2)")
	checkCmd.Flags().Int("fallback-pages", 0, "when no references heading is found, scan only the last N pages")

	rootCmd.AddCommand(checkCmd)
}

// batchResult counts per-input outcomes across a check.
type batchResult struct {
	Checked    int
	Failed     int
	Unverified int
}

// HasFailures reports whether any input failed outright.
func (b batchResult) HasFailures() bool { return b.Failed > 0 }

func runCheck(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	strict, _ := cmd.Flags().GetBool("strict")
	if err := checkFormat(format); err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	reports := make([]*pipeline.Report, len(args))
	errs := make([]error, len(args))

	var g errgroup.Group
	g.SetLimit(a.cfg.Jobs)
	for i, arg := range args {
		g.Go(func() error {
			reports[i], errs[i] = a.run(ctx, arg)
			return nil
		})
	}
	g.Wait()

	var result batchResult
	var done []*pipeline.Report
	for i, r := range reports {
		if errs[i] != nil {
			fmt.Fprintf(os.Stderr, "failed  %s: %v\n", args[i], errs[i])
			result.Failed++
		} else {
			result.Checked++
		}
		if r != nil && (errs[i] == nil || len(r.Verdicts) > 0) {
			done = append(done, r)
			result.Unverified += r.Summary.Unverified
		}
	}

	if err := report.Write(cmd.OutOrStdout(), format, done); err != nil {
		return err
	}

	if result.HasFailures() {
		return fmt.Errorf("%d of %d input(s) failed", result.Failed, len(args))
	}
	if strict && result.Unverified > 0 {
		return fmt.Errorf("%d unverified citation(s)", result.Unverified)
	}
	return nil
}

func checkFormat(format string) error {
	if !slices.Contains(report.Formats(), format) {
		return fmt.Errorf("unknown format %q (want %s)", format, strings.Join(report.Formats(), ", "))
	}
	return nil
}
