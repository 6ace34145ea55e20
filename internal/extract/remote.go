// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"

	"github.com/pdiddy/vericite/internal/document"
	"github.com/pdiddy/vericite/internal/httputil"
	"github.com/pdiddy/vericite/pkg/types"
)

// ErrRemoteExtraction is returned when the remote service cannot be
// reached or answers with a non-2xx status.
var ErrRemoteExtraction = errors.New("remote extraction failed")

// Remote posts the whole PDF to an extraction service and converts the
// returned lines into candidates.
type Remote struct {
	Endpoint     string
	APIKey       string
	UserAgent    string
	MaxRetries   int
	MinLineChars int
	Client       *http.Client

	logger *slog.Logger
}

// remoteResponse is the service's JSON reply.
type remoteResponse struct {
	Pages []struct {
		Page  int      `json:"page"`
		Lines []string `json:"lines"`
	} `json:"pages"`
}

// NewRemote returns a Remote strategy. The endpoint must be an absolute URL.
func NewRemote(cfg types.RemoteConfig, minLineChars int, logger *slog.Logger) (*Remote, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("remote endpoint %q is not an absolute URL", cfg.Endpoint)
	}
	return &Remote{
		Endpoint:     cfg.Endpoint,
		APIKey:       cfg.APIKey,
		UserAgent:    cfg.UserAgent,
		MaxRetries:   cfg.MaxRetries,
		MinLineChars: minLineChars,
		Client:       &http.Client{Timeout: cfg.Timeout},
		logger:       orDiscard(logger),
	}, nil
}

// Name returns "remote".
func (r *Remote) Name() string { return StrategyRemote }

// Extract uploads doc and returns the service's lines from page start on,
// sorted by page.
func (r *Remote) Extract(ctx context.Context, doc document.Document, start int) ([]types.CitationCandidate, error) {
	if start < 0 {
		start = 0
	}

	data, err := os.ReadFile(doc.Path())
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrRemoteExtraction, doc.Path(), err)
	}

	u, err := url.Parse(r.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing endpoint: %w", ErrRemoteExtraction, err)
	}
	q := u.Query()
	q.Set("start_page", strconv.Itoa(start))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %w", ErrRemoteExtraction, err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("Accept", "application/json")
	if r.UserAgent != "" {
		req.Header.Set("User-Agent", r.UserAgent)
	}
	if r.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.APIKey)
	}

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}

	r.logger.Debug("posting document", "endpoint", u.Host, "bytes", len(data), "start_page", start)
	resp, err := httputil.DoWithRetry(ctx, client, req, r.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRemoteExtraction, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrRemoteExtraction, resp.StatusCode, bytes.TrimSpace(body))
	}

	var parsed remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ErrRemoteExtraction, err)
	}

	sort.SliceStable(parsed.Pages, func(i, j int) bool {
		return parsed.Pages[i].Page < parsed.Pages[j].Page
	})

	var out []types.CitationCandidate
	for _, p := range parsed.Pages {
		if p.Page < start {
			continue
		}
		for _, line := range p.Lines {
			for _, text := range splitLines(line, r.MinLineChars) {
				out = append(out, types.CitationCandidate{Text: text, OriginPage: p.Page, Method: types.MethodRemote})
			}
		}
	}
	return out, nil
}

// Close is a no-op; Remote holds no per-run resources.
func (r *Remote) Close() error { return nil }
