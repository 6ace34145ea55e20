// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// semanticMatchURL is the Semantic Scholar title-match endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticMatchURL = "https://api.semanticscholar.org/graph/v1/paper/search/match"

// SemanticScholar matches references with the Semantic Scholar paper
// title-match endpoint. The endpoint answers 404 when nothing matches.
type SemanticScholar struct {
	client
	APIKey string
}

// Name returns the backend identifier.
func (b *SemanticScholar) Name() string { return BackendSemanticScholar }

// Search returns the closest title match for query.
func (b *SemanticScholar) Search(ctx context.Context, query string) ([]Match, error) {
	params := url.Values{
		"query":  {query},
		"fields": {"title,externalIds"},
	}
	var header http.Header
	if b.APIKey != "" {
		header = http.Header{"x-api-key": {b.APIKey}}
	}

	var sr semanticMatchResponse
	err := b.getJSON(ctx, BackendSemanticScholar, params, header, &sr)
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if len(sr.Data) == 0 {
		return nil, nil
	}
	p := sr.Data[0]
	return []Match{{
		Score: p.MatchScore,
		DOI:   bareDOI(p.ExternalIDs.DOI),
		Title: p.Title,
	}}, nil
}

type semanticMatchResponse struct {
	Data []struct {
		PaperID     string              `json:"paperId"`
		Title       string              `json:"title"`
		MatchScore  float64             `json:"matchScore"`
		ExternalIDs semanticExternalIDs `json:"externalIds"`
	} `json:"data"`
}

// semanticExternalIDs holds the identifiers we read. CorpusId is numeric.
type semanticExternalIDs struct {
	DOI      string `json:"DOI"`
	ArXiv    string `json:"ArXiv"`
	CorpusID int    `json:"CorpusId"`
}
