// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs a full citation check: open the document, locate
// its references section, extract candidates, and validate them. Each
// Check owns its document and extraction strategy, so independent checks
// can run concurrently.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pdiddy/vericite/internal/document"
	"github.com/pdiddy/vericite/internal/extract"
	"github.com/pdiddy/vericite/internal/locate"
	"github.com/pdiddy/vericite/internal/ocr"
	"github.com/pdiddy/vericite/internal/store"
	"github.com/pdiddy/vericite/internal/validate"
	"github.com/pdiddy/vericite/pkg/types"
)

// Report is the outcome of checking one source.
type Report struct {
	Source string `json:"source" yaml:"source"`
	// ReferencesPage is the located page (0-based) or locate.NotFound.
	ReferencesPage int          `json:"references_page" yaml:"references_page"`
	LocateStage    locate.Stage `json:"locate_stage" yaml:"locate_stage"`
	// FellBack is true when no heading was found and extraction started at
	// the configured fallback page.
	FellBack  bool   `json:"fell_back" yaml:"fell_back"`
	StartPage int    `json:"start_page" yaml:"start_page"`
	Strategy  string `json:"strategy" yaml:"strategy"`

	Candidates []types.CitationCandidate `json:"candidates" yaml:"candidates"`
	Verdicts   []types.ValidationVerdict `json:"verdicts" yaml:"verdicts"`
	Summary    types.Summary             `json:"summary" yaml:"summary"`

	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Recorder persists finished runs. *store.Store implements it.
type Recorder interface {
	RecordRun(ctx context.Context, run store.Run) (int64, error)
}

// Pipeline holds the stage configuration shared by every check.
type Pipeline struct {
	Config    types.Config
	Validator *validate.Validator

	// Open opens a document. Defaults to document.Open.
	Open func(path string) (document.Document, error)
	// NewStrategy builds a fresh extraction strategy for one check.
	// Defaults to extract.New with an engine from NewEngine.
	NewStrategy func() (extract.Strategy, error)
	// NewEngine builds the OCR engine for one check when OCR is enabled.
	// Nil leaves image-only pages unread.
	NewEngine func(languages []string) ocr.Engine
	// Recorder, when set, receives every completed check.
	Recorder Recorder
	Logger   *slog.Logger
}

// New returns a Pipeline with the default document opener and strategy
// factory. Callers that want OCR set NewEngine.
func New(cfg types.Config, v *validate.Validator, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := &Pipeline{
		Config:    cfg,
		Validator: v,
		Logger:    logger,
	}
	p.Open = func(path string) (document.Document, error) {
		return document.Open(path)
	}
	p.NewStrategy = func() (extract.Strategy, error) {
		var engine ocr.Engine
		if p.Config.OCR.Enabled && p.NewEngine != nil {
			engine = p.NewEngine(p.Config.OCR.Languages)
		}
		return extract.New(p.Config, engine, p.Logger)
	}
	return p
}

// Locate opens path and reports where its references section starts.
func (p *Pipeline) Locate(ctx context.Context, path string) (locate.Result, int, error) {
	doc, err := p.Open(path)
	if err != nil {
		return locate.Result{Page: locate.NotFound, Stage: locate.StageNone}, 0, err
	}
	defer doc.Close()

	res, err := locate.New(p.Logger).LocateDetailed(ctx, doc)
	return res, doc.PageCount(), err
}

// Extract opens path, locates the references section, and returns the
// candidates without validating them.
func (p *Pipeline) Extract(ctx context.Context, path string) (*Report, error) {
	r := &Report{Source: path, StartedAt: time.Now()}
	err := p.extract(ctx, r)
	r.Summary = types.Summarize(len(r.Candidates), nil)
	r.Elapsed = time.Since(r.StartedAt)
	return r, err
}

// Check runs every stage on the document at path. On failure the returned
// report holds whatever the completed stages produced.
func (p *Pipeline) Check(ctx context.Context, path string) (*Report, error) {
	r := &Report{Source: path, StartedAt: time.Now()}
	if err := p.extract(ctx, r); err != nil {
		r.Summary = types.Summarize(len(r.Candidates), nil)
		r.Elapsed = time.Since(r.StartedAt)
		return r, err
	}
	return r, p.validate(ctx, r)
}

// CheckText validates raw text with one citation per line.
func (p *Pipeline) CheckText(ctx context.Context, source, text string) (*Report, error) {
	r := &Report{
		Source:         source,
		ReferencesPage: locate.NotFound,
		LocateStage:    locate.StageNone,
		Strategy:       "text",
		StartedAt:      time.Now(),
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len([]rune(line)) > p.Config.Extraction.MinLineChars {
			r.Candidates = append(r.Candidates, types.CitationCandidate{Text: line, Method: types.MethodTextLayer})
		}
	}
	return r, p.validate(ctx, r)
}

// CheckTextFile validates a plain-text file with one citation per line.
func (p *Pipeline) CheckTextFile(ctx context.Context, path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return p.CheckText(ctx, path, string(data))
}

func (p *Pipeline) extract(ctx context.Context, r *Report) error {
	r.ReferencesPage = locate.NotFound
	r.LocateStage = locate.StageNone

	doc, err := p.Open(r.Source)
	if err != nil {
		return err
	}
	defer doc.Close()

	res, err := locate.New(p.Logger).LocateDetailed(ctx, doc)
	r.ReferencesPage, r.LocateStage = res.Page, res.Stage
	if err != nil {
		return fmt.Errorf("locating references: %w", err)
	}

	r.StartPage, r.FellBack = StartPage(res.Page, doc.PageCount(), p.Config.Extraction.FallbackPages)
	p.Logger.Info("references located", "source", r.Source, "page", res.Page, "stage", res.Stage,
		"start", r.StartPage, "fallback", r.FellBack)

	strategy, err := p.NewStrategy()
	if err != nil {
		return fmt.Errorf("building extraction strategy: %w", err)
	}
	defer strategy.Close()
	r.Strategy = strategy.Name()

	r.Candidates, err = strategy.Extract(ctx, doc, r.StartPage)
	if err != nil {
		return fmt.Errorf("extracting citations: %w", err)
	}
	p.Logger.Info("candidates extracted", "source", r.Source, "strategy", r.Strategy, "count", len(r.Candidates))
	return nil
}

func (p *Pipeline) validate(ctx context.Context, r *Report) error {
	var err error
	if len(r.Candidates) > 0 {
		r.Verdicts, err = p.Validator.Validate(ctx, r.Candidates)
	}
	r.Summary = types.Summarize(len(r.Candidates), r.Verdicts)
	r.Elapsed = time.Since(r.StartedAt)
	if err != nil {
		return fmt.Errorf("validating citations: %w", err)
	}

	p.Logger.Info("citations validated", "source", r.Source, "verified", r.Summary.Verified,
		"unverified", r.Summary.Unverified, "elapsed", r.Elapsed)
	p.record(ctx, r)
	return nil
}

func (p *Pipeline) record(ctx context.Context, r *Report) {
	if p.Recorder == nil {
		return
	}
	_, err := p.Recorder.RecordRun(ctx, store.Run{
		Source:         r.Source,
		StartedAt:      r.StartedAt,
		ReferencesPage: r.ReferencesPage,
		Stage:          string(r.LocateStage),
		Strategy:       r.Strategy,
		Candidates:     r.Summary.Candidates,
		Verified:       r.Summary.Verified,
		Unverified:     r.Summary.Unverified,
		Verdicts:       r.Verdicts,
	})
	if err != nil {
		p.Logger.Warn("recording run failed", "source", r.Source, "err", err)
	}
}

// StartPage picks where extraction begins. A located page is used as-is.
// Otherwise extraction starts at page 0, or at the last fallbackPages
// pages when fallbackPages is positive.
func StartPage(located, pageCount, fallbackPages int) (start int, fellBack bool) {
	if located != locate.NotFound {
		return located, false
	}
	if fallbackPages > 0 && fallbackPages < pageCount {
		return pageCount - fallbackPages, true
	}
	return 0, true
}
