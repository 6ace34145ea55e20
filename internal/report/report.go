// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders check results and history for the terminal or
// for machines (JSON, YAML).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/vericite/internal/locate"
	"github.com/pdiddy/vericite/internal/pipeline"
	"github.com/pdiddy/vericite/internal/store"
	"github.com/pdiddy/vericite/pkg/types"
)

// Output formats accepted by Write.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the accepted output formats.
func Formats() []string { return []string{FormatText, FormatJSON, FormatYAML} }

// Write renders reports in format. Text output separates reports with a
// blank line; JSON and YAML emit a single document holding all reports.
func Write(w io.Writer, format string, reports []*pipeline.Report) error {
	switch format {
	case "", FormatText:
		for i, r := range reports {
			if i > 0 {
				fmt.Fprintln(w)
			}
			WriteTable(w, r)
		}
		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want %s)", format, strings.Join(Formats(), ", "))
	}
}

// WriteTable writes one report as a human-readable table.
func WriteTable(w io.Writer, r *pipeline.Report) {
	fmt.Fprintf(w, "%s\n", r.Source)
	switch {
	case r.LocateStage == "" || r.Strategy == "text":
	case r.ReferencesPage == locate.NotFound:
		fmt.Fprintf(w, "references: not found, scanned from page %d\n", r.StartPage+1)
	default:
		fmt.Fprintf(w, "references: page %d (%s)\n", r.ReferencesPage+1, r.LocateStage)
	}

	if len(r.Verdicts) == 0 {
		fmt.Fprintf(w, "No citations checked (%d candidates).\n", len(r.Candidates))
		return
	}

	fmt.Fprintf(w, "%-3s  %-4s  %-14s  %-7s  %-28s  %s\n", "", "Page", "Result", "Score", "DOI", "Citation")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, v := range r.Verdicts {
		mark := "ok"
		if !v.IsVerified {
			mark = "!!"
		}
		doi := v.MatchedDOI
		if doi == "" {
			doi = v.Detail
		}
		fmt.Fprintf(w, "%-3s  %-4d  %-14s  %-7.1f  %-28s  %s\n",
			mark, v.OriginPage+1, v.Reason, v.ConfidenceScore, truncate(doi, 28), truncate(v.CitationText, 60))
	}

	fmt.Fprintf(w, "\n%s\n", SummaryLine(r.Summary))
}

// SummaryLine formats s as "N verified, M unverified (reason: n, ...)".
func SummaryLine(s types.Summary) string {
	line := fmt.Sprintf("%d verified, %d unverified of %d candidates", s.Verified, s.Unverified, s.Candidates)
	var parts []string
	for reason, n := range s.ByReason {
		if reason == types.ReasonVerified || n == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %d", reason, n))
	}
	if len(parts) == 0 {
		return line
	}
	sort.Strings(parts)
	return line + " (" + strings.Join(parts, ", ") + ")"
}

// WriteRuns lists recorded runs, newest first.
func WriteRuns(w io.Writer, runs []store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	fmt.Fprintf(w, "%-5s  %-19s  %-8s  %-5s  %-8s  %-10s  %s\n",
		"ID", "Started", "Verified", "Total", "Stage", "Strategy", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, r := range runs {
		fmt.Fprintf(w, "%-5d  %-19s  %-8d  %-5d  %-8s  %-10s  %s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Verified,
			r.Verified+r.Unverified, r.Stage, r.Strategy, r.Source)
	}
}

// WriteHits lists past verdicts found by a history search.
func WriteHits(w io.Writer, hits []store.VerdictHit) {
	if len(hits) == 0 {
		fmt.Fprintln(w, "No matching citations.")
		return
	}
	for _, h := range hits {
		fmt.Fprintf(w, "[run %d] %s  %s  %s\n", h.RunID, h.Reason, truncate(h.Source, 40), truncate(h.CitationText, 70))
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
