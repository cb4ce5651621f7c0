// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"fmt"
	"net/http"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

// Set is the adapter wiring of one pipeline: one Adapter per aggregated
// category plus the Generator used for narratives.
type Set struct {
	Adapters  map[types.Category]Adapter
	Generator Generator
}

// FromConfig builds the adapters selected in cfg with the given credentials.
// Missing credentials are not an error here; the affected adapter reports
// them as error records when called.
func FromConfig(cfg types.ProvidersConfig, creds types.Credentials, client *http.Client) (Set, error) {
	base := Options{
		Client:     client,
		Timeout:    cfg.Timeout,
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
	}
	searchOpts := base
	searchOpts.TopK = cfg.SearchTopK
	catalogOpts := base
	catalogOpts.TopK = cfg.CatalogTopK

	var search Adapter
	switch cfg.Search {
	case "", types.ProviderTavily:
		search = &TavilySearch{APIKey: creds.TavilyAPIKey, Options: searchOpts}
	case types.ProviderBrave:
		search = &BraveSearch{APIKey: creds.BraveAPIKey, Options: searchOpts}
	case types.ProviderStub:
		search = &StubSearch{TopK: cfg.SearchTopK}
	default:
		return Set{}, &types.ConfigurationError{
			Category: types.CategoryMarketResearch,
			Reason:   fmt.Sprintf("unknown search provider %q: use tavily or brave", cfg.Search),
		}
	}

	var gen Generator
	switch cfg.Generator {
	case "", types.ProviderGemini:
		gen = &GeminiGenerator{APIKey: creds.GeminiAPIKey, Model: cfg.GeminiModel, Options: base}
	case types.ProviderAnthropic:
		gen = &ClaudeGenerator{APIKey: creds.AnthropicAPIKey, Model: cfg.AnthropicModel, Options: base}
	case types.ProviderStub:
		gen = &StubGenerator{}
	default:
		return Set{}, &types.ConfigurationError{
			Category: types.CategoryUseCaseContext,
			Reason:   fmt.Sprintf("unknown generator %q: use gemini or anthropic", cfg.Generator),
		}
	}

	return Set{
		Adapters: map[types.Category]Adapter{
			types.CategoryMarketResearch:  search,
			types.CategoryIndustryInsight: search,
			types.CategoryDatasetLookup:   ForCatalog(&KaggleCatalog{Username: creds.KaggleUsername, Key: creds.KaggleKey, Options: catalogOpts}),
			types.CategoryRepoLookup:      ForCatalog(&GitHubRepoIndex{Token: creds.GitHubToken, Options: catalogOpts}),
		},
		Generator: gen,
	}, nil
}

// Offline returns a Set backed entirely by stubs, for dry runs.
func Offline() Set {
	search := &StubSearch{}
	catalog := ForCatalog(&StubCatalog{})
	return Set{
		Adapters: map[types.Category]Adapter{
			types.CategoryMarketResearch:  search,
			types.CategoryIndustryInsight: search,
			types.CategoryDatasetLookup:   catalog,
			types.CategoryRepoLookup:      catalog,
		},
		Generator: &StubGenerator{},
	}
}
