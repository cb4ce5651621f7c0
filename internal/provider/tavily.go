// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

// tavilyAPIURL is the Tavily search endpoint. Declared as a var so tests can
// substitute an httptest server.
var tavilyAPIURL = "https://api.tavily.com/search"

// TavilySearch queries the Tavily web search API.
type TavilySearch struct {
	APIKey string
	Options
}

// Name returns the provider identifier.
func (t *TavilySearch) Name() types.Provider { return types.ProviderTavily }

// Execute runs one web search and returns up to TopK (default 3) records.
func (t *TavilySearch) Execute(ctx context.Context, q types.Query) types.ResultSet {
	k := t.topK(SearchTopK)
	return execute(ctx, types.ProviderTavily, "search", q, t.timeout(), func(ctx context.Context) (types.ResultSet, error) {
		if t.APIKey == "" {
			return nil, fmt.Errorf("tavily API key: %w", ErrMissingCredential)
		}

		body, err := json.Marshal(tavilyRequest{
			APIKey:      t.APIKey,
			Query:       q.Text,
			SearchDepth: "basic",
			MaxResults:  k,
		})
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyAPIURL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+t.APIKey)

		var tr tavilyResponse
		if err := doJSON(ctx, t.Options, types.ProviderTavily, "search", req, &tr); err != nil {
			return nil, err
		}

		hits := make([]Hit, 0, len(tr.Results))
		for _, r := range tr.Results {
			hits = append(hits, Hit{Title: r.Title, Snippet: r.Content, URL: r.URL})
		}
		return Normalize(hits, q, types.ProviderTavily, k), nil
	})
}

// Tavily API JSON structures.
type tavilyRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type tavilyResponse struct {
	Query   string         `json:"query"`
	Results []tavilyResult `json:"results"`
}

type tavilyResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}
