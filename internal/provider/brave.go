// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

// braveAPIURL is the Brave web search endpoint. Package-level var for test
// substitution.
var braveAPIURL = "https://api.search.brave.com/res/v1/web/search"

// BraveSearch queries the Brave Search API.
type BraveSearch struct {
	APIKey string
	Options
}

// Name returns the provider identifier.
func (b *BraveSearch) Name() types.Provider { return types.ProviderBrave }

// Execute runs one web search and returns up to TopK (default 3) records.
func (b *BraveSearch) Execute(ctx context.Context, q types.Query) types.ResultSet {
	k := b.topK(SearchTopK)
	return execute(ctx, types.ProviderBrave, "search", q, b.timeout(), func(ctx context.Context) (types.ResultSet, error) {
		if b.APIKey == "" {
			return nil, fmt.Errorf("brave API key: %w", ErrMissingCredential)
		}

		params := url.Values{
			"q":     {q.Text},
			"count": {strconv.Itoa(k)},
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, braveAPIURL+"?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("X-Subscription-Token", b.APIKey)

		var br braveResponse
		if err := doJSON(ctx, b.Options, types.ProviderBrave, "search", req, &br); err != nil {
			return nil, err
		}

		hits := make([]Hit, 0, len(br.Web.Results))
		for _, r := range br.Web.Results {
			hits = append(hits, Hit{Title: r.Title, Snippet: r.Description, URL: r.URL})
		}
		return Normalize(hits, q, types.ProviderBrave, k), nil
	})
}

// Brave Search API JSON structures.
type braveResponse struct {
	Web struct {
		Results []braveResult `json:"results"`
	} `json:"web"`
}

type braveResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}
