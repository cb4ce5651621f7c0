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

// githubAPIURL is the GitHub repository search endpoint. Package-level var
// for test substitution.
var githubAPIURL = "https://api.github.com/search/repositories"

// GitHubRepoIndex searches public GitHub repositories ordered by stars. The
// token is optional; unauthenticated calls are rate limited harder.
type GitHubRepoIndex struct {
	Token string
	Options
}

// Name returns the provider identifier.
func (g *GitHubRepoIndex) Name() types.Provider { return types.ProviderGitHub }

// Lookup returns up to TopK (default 5) repositories matching useCase.
func (g *GitHubRepoIndex) Lookup(ctx context.Context, useCase string) types.ResultSet {
	q := types.Query{Text: useCase, Category: types.CategoryRepoLookup}
	k := g.topK(CatalogTopK)
	return execute(ctx, types.ProviderGitHub, "lookup", q, g.timeout(), func(ctx context.Context) (types.ResultSet, error) {
		params := url.Values{
			"q":        {useCase},
			"sort":     {"stars"},
			"order":    {"desc"},
			"per_page": {strconv.Itoa(k)},
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, githubAPIURL+"?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
		if g.Token != "" {
			req.Header.Set("Authorization", "Bearer "+g.Token)
		}

		var sr githubSearchResponse
		if err := doJSON(ctx, g.Options, types.ProviderGitHub, "lookup", req, &sr); err != nil {
			return nil, err
		}

		hits := make([]Hit, 0, len(sr.Items))
		for _, r := range sr.Items {
			hits = append(hits, Hit{Title: r.FullName, Snippet: r.Description, URL: r.HTMLURL})
		}
		return Normalize(hits, q, types.ProviderGitHub, k), nil
	})
}

// GitHub search API JSON structures.
type githubSearchResponse struct {
	TotalCount int          `json:"total_count"`
	Items      []githubRepo `json:"items"`
}

type githubRepo struct {
	FullName    string `json:"full_name"`
	HTMLURL     string `json:"html_url"`
	Description string `json:"description"`
	Stars       int    `json:"stargazers_count"`
}
