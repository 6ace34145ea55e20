// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package locate finds the page where a document's references section
// begins. It consults the outline first, then scans the last fifth of the
// document, then the remainder, and returns the first page whose text has
// a standalone references heading.
package locate

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/pdiddy/vericite/internal/document"
)

// NotFound is returned when no stage finds a references heading. It is a
// sentinel, not an error: callers choose the fallback policy.
const NotFound = -1

// tailFraction is the share of the document skipped before the tail scan.
const tailFraction = 0.8

// Stage names the scan that produced a result.
type Stage string

const (
	StageOutline Stage = "outline"
	StageTail    Stage = "tail"
	StageFull    Stage = "full"
	StageNone    Stage = "none"
)

// headingTerms lists section titles that open a references section.
var headingTerms = []string{
	`references`,
	`reference list`,
	`bibliography`,
	`works cited`,
	`literature cited`,
	`参考文献`,
	`參考文獻`,
	`références`,
	`referencias`,
	`referências`,
	`literaturverzeichnis`,
	`bibliografia`,
	`литература`,
}

// headingRe matches a whole line consisting of an optional enumerator
// ("12.", "4.1", "VII.") and one of headingTerms.
var headingRe = regexp.MustCompile(
	`(?im)^\s*(?:(?:\d+(?:\.\d+)*\.?|[ivxlc]+\.)\s*)?(?:` +
		strings.Join(headingTerms, "|") +
		`)\s*$`)

// IsHeading reports whether line, on its own, is a references heading.
func IsHeading(line string) bool {
	return headingRe.MatchString(strings.TrimSpace(line))
}

// hasHeading reports whether any line of text is a references heading.
// Mentions of the terms inside running prose never match.
func hasHeading(text string) bool {
	return headingRe.MatchString(text)
}

// Result carries the located page and the stage that found it.
type Result struct {
	Page  int
	Stage Stage
}

// Found reports whether a heading was located.
func (r Result) Found() bool { return r.Page != NotFound }

// Locator scans documents for a references heading.
type Locator struct {
	Logger *slog.Logger
}

// New returns a Locator that logs to logger. A nil logger discards output.
func New(logger *slog.Logger) *Locator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Locator{Logger: logger}
}

// Locate returns the 0-based page index where the references section
// begins, or NotFound. The only error is context cancellation.
func (l *Locator) Locate(ctx context.Context, doc document.Document) (int, error) {
	res, err := l.LocateDetailed(ctx, doc)
	return res.Page, err
}

// LocateDetailed is Locate plus the stage that produced the answer.
func (l *Locator) LocateDetailed(ctx context.Context, doc document.Document) (Result, error) {
	n := doc.PageCount()

	if page, ok := scanOutline(doc, n); ok {
		l.Logger.Debug("references heading found in outline", "page", page)
		return Result{Page: page, Stage: StageOutline}, nil
	}

	tailStart := int(float64(n) * tailFraction)

	page, err := l.scanPages(ctx, doc, tailStart, n)
	if err != nil {
		return Result{Page: NotFound, Stage: StageNone}, err
	}
	if page != NotFound {
		return Result{Page: page, Stage: StageTail}, nil
	}

	page, err = l.scanPages(ctx, doc, 0, tailStart)
	if err != nil {
		return Result{Page: NotFound, Stage: StageNone}, err
	}
	if page != NotFound {
		return Result{Page: page, Stage: StageFull}, nil
	}

	return Result{Page: NotFound, Stage: StageNone}, nil
}

// scanOutline returns the first outline target whose title is a references
// heading, converted to a 0-based index. Targets past the last page are
// ignored.
func scanOutline(doc document.Document, pageCount int) (int, bool) {
	for _, entry := range doc.Outline() {
		if !IsHeading(entry.Title) {
			continue
		}
		page := max(0, entry.TargetPage-1)
		if page >= pageCount {
			continue
		}
		return page, true
	}
	return NotFound, false
}

// scanPages checks pages [from, to) in order. Pages whose text cannot be
// read are skipped.
func (l *Locator) scanPages(ctx context.Context, doc document.Document, from, to int) (int, error) {
	for i := from; i < to; i++ {
		if err := ctx.Err(); err != nil {
			return NotFound, err
		}

		text, err := doc.PageText(i)
		if err != nil {
			l.Logger.Debug("skipping unreadable page", "page", i+1, "error", err)
			continue
		}
		if hasHeading(text) {
			return i, nil
		}
	}
	return NotFound, nil
}
