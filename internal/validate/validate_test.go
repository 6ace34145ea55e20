// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/pdiddy/vericite/internal/search"
	"github.com/pdiddy/vericite/pkg/types"
)

// fakeSearcher answers from a table keyed by query. Queries listed in
// block wait for their context to end.
type fakeSearcher struct {
	answers map[string][]search.Match
	errs    map[string]error
	block   map[string]bool
	calls   atomic.Int32
}

func (f *fakeSearcher) Name() string { return "fake" }

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]search.Match, error) {
	f.calls.Add(1)
	if f.block[query] {
		<-ctx.Done()
		return nil, fmt.Errorf("fake request: %w", ctx.Err())
	}
	if err := f.errs[query]; err != nil {
		return nil, err
	}
	return f.answers[query], nil
}

type memCache struct {
	mu      sync.Mutex
	entries map[string][]search.Match
}

func newMemCache() *memCache { return &memCache{entries: make(map[string][]search.Match)} }

func (c *memCache) Lookup(_ context.Context, backend, query string) ([]search.Match, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.entries[backend+"|"+query]
	return m, ok, nil
}

func (c *memCache) Remember(_ context.Context, backend, query string, matches []search.Match) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[backend+"|"+query] = matches
	return nil
}

const (
	vaswani    = "Vaswani, A., et al. (2017). Attention is all you need. NeurIPS."
	fabricated = "Quibble, Z. (2031). Hyperdimensional citation engines. J. Imaginary Res."
)

func testValidator(s search.Searcher) *Validator {
	cfg := types.DefaultConfig().Validation
	return New(s, cfg, nil, nil)
}

func cand(text string, page int) types.CitationCandidate {
	return types.CitationCandidate{Text: text, OriginPage: page, Method: types.MethodTextLayer}
}

func TestValidate_Verified(t *testing.T) {
	s := &fakeSearcher{answers: map[string][]search.Match{
		vaswani: {{Score: 92.3, DOI: "10.48550/arXiv.1706.03762", Title: "Attention Is All You Need"}},
	}}

	got, err := testValidator(s).Validate(context.Background(), []types.CitationCandidate{cand(vaswani, 11)})
	require.NoError(t, err)
	require.Len(t, got, 1)

	v := got[0]
	assert.True(t, v.IsVerified)
	assert.Equal(t, types.ReasonVerified, v.Reason)
	assert.Equal(t, "10.48550/arXiv.1706.03762", v.MatchedDOI)
	assert.Equal(t, 92.3, v.ConfidenceScore)
	assert.Equal(t, 11, v.OriginPage)
	assert.Equal(t, "fake", v.Backend)
	assert.False(t, v.Cached)
}

func TestValidate_NoMatch(t *testing.T) {
	s := &fakeSearcher{}

	got, err := testValidator(s).Validate(context.Background(), []types.CitationCandidate{cand(fabricated, 3)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].IsVerified)
	assert.Equal(t, types.ReasonNoMatch, got[0].Reason)
}

// The accept threshold is a calibration value for the default backend and
// may be revised; these cases pin behaviour relative to it, not its value.
func TestValidate_Threshold(t *testing.T) {
	threshold := search.Threshold(types.DefaultConfig().Validation)

	tests := []struct {
		name       string
		match      search.Match
		wantReason types.ReasonCode
		wantDetail string
	}{
		{"above threshold with DOI", search.Match{Score: threshold + 0.1, DOI: "10.1/a"}, types.ReasonVerified, ""},
		{"exactly threshold", search.Match{Score: threshold, DOI: "10.1/a"}, types.ReasonLowConfidence, ""},
		{"below threshold", search.Match{Score: threshold / 2, DOI: "10.1/a"}, types.ReasonLowConfidence, ""},
		{"above threshold without DOI", search.Match{Score: threshold * 2}, types.ReasonLowConfidence, detailNoDOI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSearcher{answers: map[string][]search.Match{vaswani: {tt.match}}}

			got, err := testValidator(s).Validate(context.Background(), []types.CitationCandidate{cand(vaswani, 0)})
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, tt.wantReason, got[0].Reason)
			assert.Equal(t, tt.wantReason == types.ReasonVerified, got[0].IsVerified)
			assert.Equal(t, tt.match.Score, got[0].ConfidenceScore)
			assert.Equal(t, tt.wantDetail, got[0].Detail)
		})
	}
}

func TestValidate_ErrorsAreIsolated(t *testing.T) {
	timeout := "Slow, S. (2020). A reference the backend never answers."
	status := "Broken, B. (2019). A reference that triggers a server error."
	refused := "Refused, R. (2018). A reference whose connection is refused."

	s := &fakeSearcher{
		answers: map[string][]search.Match{
			vaswani: {{Score: 92.3, DOI: "10.48550/arXiv.1706.03762"}},
		},
		block: map[string]bool{timeout: true},
		errs: map[string]error{
			status:  &search.StatusError{Backend: "fake", StatusCode: 503},
			refused: errors.New("dial tcp 127.0.0.1:443: connect: connection refused"),
		},
	}
	v := testValidator(s)
	v.Timeout = 20 * time.Millisecond

	input := []types.CitationCandidate{cand(vaswani, 0), cand(timeout, 0), cand(status, 1), cand(refused, 1), cand(fabricated, 2)}
	got, err := v.Validate(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, got, 5)

	assert.Equal(t, types.ReasonVerified, got[0].Reason)

	assert.Equal(t, types.ReasonNetworkError, got[1].Reason)
	assert.Contains(t, got[1].Detail, "deadline exceeded")

	assert.Equal(t, types.ReasonAPIError, got[2].Reason)
	assert.Equal(t, "HTTP 503", got[2].Detail)

	assert.Equal(t, types.ReasonNetworkError, got[3].Reason)
	assert.Contains(t, got[3].Detail, "connection refused")

	assert.Equal(t, types.ReasonNoMatch, got[4].Reason)
}

func TestValidate_OrderAndShortCandidates(t *testing.T) {
	s := &fakeSearcher{}
	var input []types.CitationCandidate
	for i := range 40 {
		input = append(input, cand(fmt.Sprintf("Author %02d. Some title of a cited paper.", i), i))
		if i%5 == 0 {
			input = append(input, cand("3", i), cand("Page 12", i), cand("   ", i))
		}
	}

	v := testValidator(s)
	v.Concurrency = 8
	got, err := v.Validate(context.Background(), input)
	require.NoError(t, err)

	require.Len(t, got, 40)
	assert.LessOrEqual(t, len(got), len(input))
	for i, verdict := range got {
		assert.Equal(t, i, verdict.OriginPage)
		assert.NotEqual(t, "3", verdict.CitationText)
		assert.NotEqual(t, "Page 12", verdict.CitationText)
	}
	assert.Equal(t, int32(40), s.calls.Load())
}

// queuedSearcher admits one query per tick, the way a rate-limited backend
// does, and verifies everything it is asked about.
type queuedSearcher struct {
	limiter *rate.Limiter
}

func (q *queuedSearcher) Name() string { return "queued" }

func (q *queuedSearcher) Search(ctx context.Context, _ string) ([]search.Match, error) {
	if err := q.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return []search.Match{{Score: 99, DOI: "10.1000/queued"}}, nil
}

func TestValidate_QueueingIsNotATimeout(t *testing.T) {
	cfg := types.DefaultConfig().Validation
	cfg.Timeout = 20 * time.Millisecond
	cfg.Concurrency = 8

	s := &queuedSearcher{limiter: rate.NewLimiter(rate.Every(15*time.Millisecond), 1)}
	v := New(s, cfg, nil, nil)
	assert.Zero(t, v.Timeout)

	var input []types.CitationCandidate
	for i := range 8 {
		input = append(input, cand(fmt.Sprintf("Author %02d. A paper waiting its turn at the backend.", i), i))
	}
	got, err := v.Validate(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, got, 8)
	for _, verdict := range got {
		assert.Equal(t, types.ReasonVerified, verdict.Reason, verdict.Detail)
	}
}

func TestValidate_Empty(t *testing.T) {
	got, err := testValidator(&fakeSearcher{}).Validate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestValidate_CancelledReturnsPartial(t *testing.T) {
	hang := "Hang, H. (2001). A query that never returns."
	s := &fakeSearcher{block: map[string]bool{hang: true}}
	v := testValidator(s)
	v.Timeout = 0
	v.Concurrency = 1

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	input := []types.CitationCandidate{cand(vaswani, 0), cand(hang, 1), cand(fabricated, 2)}
	got, err := v.Validate(ctx, input)
	assert.ErrorIs(t, err, context.Canceled)

	require.Len(t, got, 1)
	assert.Equal(t, vaswani, got[0].CitationText)
}

func TestValidate_Cache(t *testing.T) {
	s := &fakeSearcher{
		answers: map[string][]search.Match{vaswani: {{Score: 92.3, DOI: "10.48550/arXiv.1706.03762"}}},
		errs:    map[string]error{"Flaky, F. (2000). Server error here.": &search.StatusError{StatusCode: 500}},
	}
	cache := newMemCache()
	v := testValidator(s)
	v.Cache = cache

	input := []types.CitationCandidate{cand(vaswani, 0), cand(fabricated, 1), cand("Flaky, F. (2000). Server error here.", 2)}

	first, err := v.Validate(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, int32(3), s.calls.Load())
	assert.Len(t, cache.entries, 2, "api errors are not cached")

	second, err := v.Validate(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, int32(4), s.calls.Load())

	require.Len(t, second, 3)
	assert.True(t, second[0].Cached)
	assert.True(t, second[1].Cached)
	assert.False(t, second[2].Cached)
	for i := range first {
		assert.Equal(t, first[i].Reason, second[i].Reason)
	}
}
