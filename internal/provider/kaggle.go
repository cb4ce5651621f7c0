// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

// kaggleAPIURL is the Kaggle dataset list endpoint and kaggleDatasetURL the
// public page prefix for a dataset ref. Vars for test substitution.
var (
	kaggleAPIURL     = "https://www.kaggle.com/api/v1/datasets/list"
	kaggleDatasetURL = "https://www.kaggle.com/datasets/"
)

// KaggleCatalog looks up public datasets on Kaggle.
type KaggleCatalog struct {
	Username string
	Key      string
	Options
}

// Name returns the provider identifier.
func (c *KaggleCatalog) Name() types.Provider { return types.ProviderKaggle }

// Lookup searches datasets matching useCase and returns up to TopK
// (default 5) records.
func (c *KaggleCatalog) Lookup(ctx context.Context, useCase string) types.ResultSet {
	q := types.Query{Text: useCase, Category: types.CategoryDatasetLookup}
	k := c.topK(CatalogTopK)
	return execute(ctx, types.ProviderKaggle, "lookup", q, c.timeout(), func(ctx context.Context) (types.ResultSet, error) {
		if c.Username == "" || c.Key == "" {
			return nil, fmt.Errorf("kaggle username and key: %w", ErrMissingCredential)
		}

		params := url.Values{"search": {useCase}}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, kaggleAPIURL+"?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.SetBasicAuth(c.Username, c.Key)

		var datasets []kaggleDataset
		if err := doJSON(ctx, c.Options, types.ProviderKaggle, "lookup", req, &datasets); err != nil {
			return nil, err
		}

		hits := make([]Hit, 0, len(datasets))
		for _, d := range datasets {
			ref := strings.Trim(strings.TrimSpace(d.Ref), "/")
			if ref == "" {
				continue
			}
			hits = append(hits, Hit{
				Title:   d.Title,
				Snippet: d.Subtitle,
				URL:     kaggleDatasetURL + ref,
			})
		}
		return Normalize(hits, q, types.ProviderKaggle, k), nil
	})
}

// kaggleDataset is one element of the dataset list response.
type kaggleDataset struct {
	Ref      string `json:"ref"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}
