// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"net/url"
)

// crossrefWorksURL is the Crossref works endpoint. Declared as a var so
// tests can substitute an httptest server.
var crossrefWorksURL = "https://api.crossref.org/works"

// Crossref matches references with Crossref's query.bibliographic search.
// Scores are unbounded relevance values; well-formed references to indexed
// works usually land well above 35.
type Crossref struct {
	client
	// Mailto opts into Crossref's polite pool.
	Mailto string
}

// Name returns the backend identifier.
func (b *Crossref) Name() string { return BackendCrossref }

// Search returns the top-ranked work for query.
func (b *Crossref) Search(ctx context.Context, query string) ([]Match, error) {
	params := url.Values{
		"query.bibliographic": {query},
		"rows":                {"1"},
		"select":              {"DOI,score,title"},
	}
	if b.Mailto != "" {
		params.Set("mailto", b.Mailto)
	}

	var cr crossrefResponse
	if err := b.getJSON(ctx, BackendCrossref, params, nil, &cr); err != nil {
		return nil, err
	}

	if len(cr.Message.Items) == 0 {
		return nil, nil
	}
	item := cr.Message.Items[0]
	m := Match{Score: item.Score, DOI: bareDOI(item.DOI)}
	if len(item.Title) > 0 {
		m.Title = item.Title[0]
	}
	return []Match{m}, nil
}

type crossrefResponse struct {
	Status  string `json:"status"`
	Message struct {
		TotalResults int            `json:"total-results"`
		Items        []crossrefItem `json:"items"`
	} `json:"message"`
}

type crossrefItem struct {
	DOI   string   `json:"DOI"`
	Score float64  `json:"score"`
	Title []string `json:"title"`
}
