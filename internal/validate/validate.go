// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate checks citation candidates against a bibliographic
// search backend and classifies each one. Queries run concurrently with a
// bounded worker count, but verdicts are always returned in candidate
// order.
package validate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/vericite/internal/search"
	"github.com/pdiddy/vericite/pkg/types"
)

// Detail recorded when a match clears the threshold but carries no DOI.
const detailNoDOI = "match has no DOI"

// Cache stores backend answers keyed by backend and citation text. A hit
// with no matches is a remembered "no match".
type Cache interface {
	Lookup(ctx context.Context, backend, query string) (matches []search.Match, ok bool, err error)
	Remember(ctx context.Context, backend, query string, matches []search.Match) error
}

// Validator classifies candidates using Searcher.
type Validator struct {
	Searcher search.Searcher

	// Threshold is the score a match must exceed to count as verified.
	Threshold float64
	// MinChars is the trimmed length below which a candidate is skipped.
	MinChars int
	// Timeout bounds each Search call, including any rate-limit wait inside
	// it. Zero means no limit. Backends from search.New time their own
	// requests, so New leaves this unset.
	Timeout time.Duration
	// Concurrency caps in-flight queries. Values below 1 mean 1.
	Concurrency int

	Cache  Cache
	Logger *slog.Logger
}

// New returns a Validator configured from cfg. cache may be nil.
func New(s search.Searcher, cfg types.ValidationConfig, cache Cache, logger *slog.Logger) *Validator {
	return &Validator{
		Searcher:    s,
		Threshold:   search.Threshold(cfg),
		MinChars:    cfg.MinChars,
		Concurrency: cfg.Concurrency,
		Cache:       cache,
		Logger:      logger,
	}
}

// Validate returns one verdict per candidate whose trimmed text is at
// least MinChars long, in input order. A failed query yields an api_error
// or network_error verdict for that candidate only. If ctx is cancelled,
// the verdicts completed so far are returned with ctx.Err().
func (v *Validator) Validate(ctx context.Context, candidates []types.CitationCandidate) ([]types.ValidationVerdict, error) {
	logger := v.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	limit := v.Concurrency
	if limit < 1 {
		limit = 1
	}

	results := make([]*types.ValidationVerdict, len(candidates))
	var g errgroup.Group
	g.SetLimit(limit)

	skipped := 0
	for i, c := range candidates {
		if len([]rune(strings.TrimSpace(c.Text))) < v.MinChars {
			skipped++
			continue
		}
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if verdict, ok := v.check(ctx, logger, c); ok {
				results[i] = &verdict
			}
			return nil
		})
	}
	g.Wait()

	out := make([]types.ValidationVerdict, 0, len(candidates)-skipped)
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	logger.Debug("validation finished", "candidates", len(candidates), "skipped", skipped, "verdicts", len(out))
	return out, ctx.Err()
}

// check produces the verdict for c. ok is false when ctx was cancelled
// before the backend answered.
func (v *Validator) check(ctx context.Context, logger *slog.Logger, c types.CitationCandidate) (types.ValidationVerdict, bool) {
	if ctx.Err() != nil {
		return types.ValidationVerdict{}, false
	}
	query := strings.TrimSpace(c.Text)
	backend := v.Searcher.Name()
	verdict := types.ValidationVerdict{
		CitationText: c.Text,
		OriginPage:   c.OriginPage,
		Method:       c.Method,
		Backend:      backend,
	}

	if v.Cache != nil {
		matches, ok, err := v.Cache.Lookup(ctx, backend, query)
		if err != nil {
			logger.Warn("cache lookup failed", "err", err)
		} else if ok {
			verdict.Cached = true
			v.classify(&verdict, matches)
			return verdict, true
		}
	}

	qctx := ctx
	if v.Timeout > 0 {
		var cancel context.CancelFunc
		qctx, cancel = context.WithTimeout(ctx, v.Timeout)
		defer cancel()
	}

	matches, err := v.Searcher.Search(qctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return verdict, false
		}
		var se *search.StatusError
		if errors.As(err, &se) {
			verdict.Reason = types.ReasonAPIError
			verdict.Detail = fmt.Sprintf("HTTP %d", se.StatusCode)
		} else {
			verdict.Reason = types.ReasonNetworkError
			verdict.Detail = err.Error()
		}
		logger.Debug("query failed", "backend", backend, "reason", verdict.Reason, "err", err)
		return verdict, true
	}

	v.classify(&verdict, matches)

	if v.Cache != nil {
		if err := v.Cache.Remember(ctx, backend, query, matches); err != nil {
			logger.Warn("cache write failed", "err", err)
		}
	}
	return verdict, true
}

// classify fills verdict from the backend's best match.
func (v *Validator) classify(verdict *types.ValidationVerdict, matches []search.Match) {
	if len(matches) == 0 {
		verdict.Reason = types.ReasonNoMatch
		return
	}

	best := matches[0]
	verdict.ConfidenceScore = best.Score
	verdict.MatchedDOI = best.DOI
	verdict.MatchedTitle = best.Title

	switch {
	case best.Score > v.Threshold && best.DOI != "":
		verdict.IsVerified = true
		verdict.Reason = types.ReasonVerified
	case best.Score > v.Threshold:
		verdict.Reason = types.ReasonLowConfidence
		verdict.Detail = detailNoDOI
	default:
		verdict.Reason = types.ReasonLowConfidence
	}
}
