// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns the pages of a document into citation candidates.
// Two strategies exist: Local reads the text layer and falls back to OCR
// for image-only pages, Remote delegates the whole document to an external
// vision service. Both implement Strategy so the pipeline can swap them.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pdiddy/vericite/internal/document"
	"github.com/pdiddy/vericite/internal/ocr"
	"github.com/pdiddy/vericite/pkg/types"
)

// Strategy names accepted by New.
const (
	StrategyLocal  = "local"
	StrategyRemote = "remote"
)

// Strategy extracts candidates from doc starting at page start (0-based).
// Implementations return candidates in page order. An empty result is not
// an error.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, doc document.Document, start int) ([]types.CitationCandidate, error)
	Close() error
}

// New builds the strategy named by cfg.Extraction.Strategy. engine is the
// OCR engine used by the local strategy; nil or cfg.OCR.Enabled == false
// disables OCR fallback.
func New(cfg types.Config, engine ocr.Engine, logger *slog.Logger) (Strategy, error) {
	switch cfg.Extraction.Strategy {
	case "", StrategyLocal:
		if !cfg.OCR.Enabled {
			engine = nil
		}
		return NewLocal(cfg.Extraction, cfg.OCR, engine, logger), nil
	case StrategyRemote:
		r, err := NewRemote(cfg.Remote, cfg.Extraction.MinLineChars, logger)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown extraction strategy %q (want %s or %s)", cfg.Extraction.Strategy, StrategyLocal, StrategyRemote)
	}
}

// splitLines returns the lines of text whose trimmed length exceeds minChars,
// trimmed.
func splitLines(text string, minChars int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len([]rune(line)) > minChars {
			out = append(out, line)
		}
	}
	return out
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
