// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"net/url"
)

// openAlexWorksURL is the OpenAlex works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexWorksURL = "https://api.openalex.org/works"

// OpenAlex matches references with OpenAlex full-text work search, using
// relevance_score as the match score.
type OpenAlex struct {
	client
	// Mailto is sent as the mailto parameter for polite pool access.
	Mailto string
}

// Name returns the backend identifier.
func (b *OpenAlex) Name() string { return BackendOpenAlex }

// Search returns the most relevant work for query.
func (b *OpenAlex) Search(ctx context.Context, query string) ([]Match, error) {
	params := url.Values{
		"search":   {query},
		"per_page": {"1"},
	}
	if b.Mailto != "" {
		params.Set("mailto", b.Mailto)
	}

	var oar openAlexResponse
	if err := b.getJSON(ctx, BackendOpenAlex, params, nil, &oar); err != nil {
		return nil, err
	}

	if len(oar.Results) == 0 {
		return nil, nil
	}
	w := oar.Results[0]
	return []Match{{
		Score: w.RelevanceScore,
		DOI:   bareDOI(w.DOI),
		Title: w.DisplayName,
	}}, nil
}

type openAlexResponse struct {
	Meta struct {
		Count int `json:"count"`
	} `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID             string  `json:"id"`
	DOI            string  `json:"doi"`
	DisplayName    string  `json:"display_name"`
	RelevanceScore float64 `json:"relevance_score"`
}
