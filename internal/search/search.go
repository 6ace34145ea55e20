// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search looks up a free-text bibliographic reference in a
// scholarly metadata service and returns its best match. Backends share a
// per-host rate limiter so concurrent validators stay within each
// service's polite-use budget.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/time/rate"

	"github.com/pdiddy/vericite/internal/httputil"
	"github.com/pdiddy/vericite/pkg/types"
)

// Backend names accepted by New.
const (
	BackendCrossref        = "crossref"
	BackendOpenAlex        = "openalex"
	BackendSemanticScholar = "semantic_scholar"
)

// Calibrated accept thresholds. Each backend scores on its own scale, so a
// value only makes sense for the backend it was tuned against.
var defaultThresholds = map[string]float64{
	BackendCrossref:        35.0,
	BackendOpenAlex:        100.0,
	BackendSemanticScholar: 50.0,
}

// Match is the best record a backend found for a query.
type Match struct {
	Score float64
	DOI   string
	Title string
}

// Searcher queries one bibliographic service. Search returns at most one
// match; an empty slice means the service found nothing.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string) ([]Match, error)
}

// StatusError reports a non-2xx answer from a backend. Transport failures
// are returned as plain wrapped errors instead, so callers can tell the
// two apart with errors.As.
type StatusError struct {
	Backend    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Backend, e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Backend, e.StatusCode, e.Body)
}

// New returns the backend named name configured from cfg.
func New(name string, cfg types.ValidationConfig) (Searcher, error) {
	switch name {
	case "", BackendCrossref:
		return &Crossref{client: newClient(crossrefWorksURL, cfg), Mailto: cfg.Mailto}, nil
	case BackendOpenAlex:
		return &OpenAlex{client: newClient(openAlexWorksURL, cfg), Mailto: cfg.Mailto}, nil
	case BackendSemanticScholar:
		return &SemanticScholar{client: newClient(semanticMatchURL, cfg), APIKey: cfg.APIKey}, nil
	default:
		return nil, fmt.Errorf("unknown search backend %q (want %s, %s or %s)",
			name, BackendCrossref, BackendOpenAlex, BackendSemanticScholar)
	}
}

// Names lists the supported backends.
func Names() []string {
	return []string{BackendCrossref, BackendOpenAlex, BackendSemanticScholar}
}

// Threshold returns the accept threshold for cfg: the configured value when
// positive, else the backend's calibrated default.
func Threshold(cfg types.ValidationConfig) float64 {
	if cfg.AcceptThreshold > 0 {
		return cfg.AcceptThreshold
	}
	name := cfg.Backend
	if name == "" {
		name = BackendCrossref
	}
	return defaultThresholds[name]
}

// NormalizeQuery lowercases text, drops punctuation, and collapses
// whitespace. It is the cache key for a citation.
func NormalizeQuery(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

var limiters = struct {
	sync.Mutex
	byHost map[string]*rate.Limiter
}{byHost: make(map[string]*rate.Limiter)}

// hostLimiter returns the process-wide limiter for host. The first caller
// for a host fixes its rate.
func hostLimiter(host string, rps float64) *rate.Limiter {
	limiters.Lock()
	defer limiters.Unlock()
	if l, ok := limiters.byHost[host]; ok {
		return l
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	l := rate.NewLimiter(limit, 1)
	limiters.byHost[host] = l
	return l
}

// client is the HTTP plumbing shared by every backend.
type client struct {
	endpoint  string
	http      *http.Client
	userAgent string
	rps       float64
	// timeout bounds one request after the limiter has admitted it.
	timeout time.Duration
}

func newClient(endpoint string, cfg types.ValidationConfig) client {
	ua := cfg.UserAgent
	if ua == "" {
		ua = types.DefaultUserAgent
	}
	if cfg.Mailto != "" && !strings.Contains(ua, "mailto:") {
		ua = fmt.Sprintf("%s (mailto:%s)", ua, cfg.Mailto)
	}
	return client{
		endpoint:  endpoint,
		http:      &http.Client{},
		userAgent: ua,
		rps:       cfg.RateLimit,
		timeout:   cfg.Timeout,
	}
}

// getJSON waits for the host's limiter, sends a GET to endpoint?params,
// and decodes a 2xx body into v. Time spent queued on the limiter does not
// count against the request timeout.
func (c client) getJSON(ctx context.Context, backend string, params url.Values, header http.Header, v any) error {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return fmt.Errorf("parsing %s endpoint: %w", backend, err)
	}
	u.RawQuery = params.Encode()

	if err := hostLimiter(u.Host, c.rps).Wait(ctx); err != nil {
		return fmt.Errorf("%s rate limiter: %w", backend, err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", backend, err)
	}
	for k, vs := range header {
		for _, hv := range vs {
			req.Header.Add(k, hv)
		}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 1)
	if err != nil {
		return fmt.Errorf("%s request: %w", backend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return &StatusError{Backend: backend, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing %s response: %w", backend, err)
	}
	return nil
}

// bareDOI strips resolver prefixes from a DOI.
func bareDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	for _, p := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "doi:"} {
		if len(doi) >= len(p) && strings.EqualFold(doi[:len(p)], p) {
			return doi[len(p):]
		}
	}
	return doi
}
