// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pdiddy/vericite/internal/document"
	"github.com/pdiddy/vericite/internal/ocr"
	"github.com/pdiddy/vericite/pkg/types"
)

// Local reads each page's text layer and falls back to OCR when a page
// carries too little text. The OCR engine is initialized lazily, at most
// once per Local.
type Local struct {
	MinPageChars  int
	MinLineChars  int
	DPI           int
	OCRConfidence float64

	ocr    *ocr.Capability
	logger *slog.Logger

	warnOnce sync.Once
}

// NewLocal returns a Local strategy. A nil engine disables OCR fallback.
func NewLocal(cfg types.ExtractionConfig, ocrCfg types.OCRConfig, engine ocr.Engine, logger *slog.Logger) *Local {
	l := &Local{
		MinPageChars:  cfg.MinPageChars,
		MinLineChars:  cfg.MinLineChars,
		DPI:           ocrCfg.DPI,
		OCRConfidence: ocrCfg.Confidence,
		logger:        orDiscard(logger),
	}
	if engine != nil {
		l.ocr = ocr.NewCapability(engine)
	}
	return l
}

// Name returns "local".
func (l *Local) Name() string { return StrategyLocal }

// Extract walks pages [start, PageCount). Pages that fail to read or
// recognize are logged and skipped. On cancellation the candidates found
// so far are returned with ctx.Err().
func (l *Local) Extract(ctx context.Context, doc document.Document, start int) ([]types.CitationCandidate, error) {
	if start < 0 {
		start = 0
	}

	var out []types.CitationCandidate
	for i := start; i < doc.PageCount(); i++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		text, err := doc.PageText(i)
		if err != nil {
			l.logger.Debug("text layer unreadable", "page", i, "err", err)
			text = ""
		}

		if len([]rune(strings.TrimSpace(text))) > l.MinPageChars {
			for _, line := range splitLines(text, l.MinLineChars) {
				out = append(out, types.CitationCandidate{Text: line, OriginPage: i, Method: types.MethodTextLayer})
			}
			continue
		}

		out = append(out, l.recognize(ctx, doc, i)...)
	}
	return out, nil
}

func (l *Local) recognize(ctx context.Context, doc document.Document, page int) []types.CitationCandidate {
	if l.ocr == nil {
		l.logger.Debug("page has no text layer and OCR is disabled", "page", page)
		return nil
	}
	if !l.ocr.Available(ctx) {
		l.warnOnce.Do(func() {
			l.logger.Warn("OCR unavailable, image-only pages will be skipped", "engine", l.ocr.Name(), "err", l.ocr.Err())
		})
		return nil
	}

	img, err := doc.PageImage(page, l.DPI)
	if err != nil {
		l.logger.Warn("page render failed", "page", page, "err", err)
		return nil
	}

	blocks, err := l.ocr.Recognize(ctx, img)
	if err != nil {
		l.logger.Warn("OCR failed", "page", page, "err", err)
		return nil
	}

	var out []types.CitationCandidate
	for _, b := range blocks {
		if b.Confidence <= l.OCRConfidence {
			continue
		}
		text := strings.TrimSpace(b.Text)
		if len([]rune(text)) <= l.MinLineChars {
			continue
		}
		out = append(out, types.CitationCandidate{Text: text, OriginPage: page, Method: types.MethodOCR})
	}
	l.logger.Debug("page recognized", "page", page, "blocks", len(blocks), "kept", len(out))
	return out
}

// Close releases the OCR engine if it was initialized.
func (l *Local) Close() error {
	if l.ocr == nil {
		return nil
	}
	return l.ocr.Close()
}
