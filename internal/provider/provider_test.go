// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

var marketQuery = types.Query{Text: "Top competitors of Acme", Category: types.CategoryMarketResearch}

func TestNormalize(t *testing.T) {
	hits := []Hit{
		{Title: "  Acme   10-K ", Snippet: "line one\n\n  line two", URL: "https://acme.example/10k"},
		{Title: "relative", URL: "/about"},
		{Title: "", URL: "https://no-title.example"},
		{Title: "ftp", URL: "ftp://files.example"},
		{Title: "fourth", URL: "https://fourth.example"},
		{Title: "fifth", URL: "https://fifth.example"},
	}

	rs := Normalize(hits, marketQuery, types.ProviderTavily, 3)
	require.Len(t, rs, 3)

	assert.Equal(t, "Acme 10-K", rs[0].Title)
	assert.Equal(t, "line one line two", rs[0].Snippet)
	assert.Equal(t, types.CategoryMarketResearch, rs[0].Category)
	assert.Equal(t, marketQuery.Text, rs[0].Query)
	assert.Equal(t, types.ProviderTavily, rs[0].Source)

	assert.Equal(t, "https://no-title.example", rs[1].Title, "empty title falls back to URL")
	assert.Equal(t, "fourth", rs[2].Title)

	for _, r := range rs {
		assert.NoError(t, r.Validate())
	}
}

func TestNormalizeNeverNil(t *testing.T) {
	rs := Normalize(nil, marketQuery, types.ProviderBrave, 3)
	assert.NotNil(t, rs)
	assert.Empty(t, rs)
}

func TestNormalizeTruncatesSnippetRunes(t *testing.T) {
	long := strings.Repeat("é", MaxSnippetLen+50)
	rs := Normalize([]Hit{{Title: "t", Snippet: long, URL: "https://x.example"}}, marketQuery, types.ProviderStub, 0)
	require.Len(t, rs, 1)
	assert.Equal(t, MaxSnippetLen, len([]rune(rs[0].Snippet)))
}

func TestErrorRecord(t *testing.T) {
	rec := ErrorRecord(types.ProviderGitHub, marketQuery, errors.New("connection refused"))
	assert.True(t, rec.IsError)
	assert.Equal(t, types.PlaceholderURL, rec.URL)
	assert.Equal(t, "github: connection refused", rec.ErrorMessage)
	assert.NoError(t, rec.Validate())

	pErr := &types.ProviderError{Provider: types.ProviderGitHub, Op: "lookup", StatusCode: 403}
	rec = ErrorRecord(types.ProviderGitHub, marketQuery, pErr)
	assert.Equal(t, "github lookup: HTTP 403", rec.ErrorMessage)

	rec = ErrorRecord(types.ProviderStub, marketQuery, nil)
	assert.Equal(t, "stub: unknown error", rec.ErrorMessage)
}

func TestExecuteRecoversPanic(t *testing.T) {
	rs := execute(context.Background(), types.ProviderStub, "search", marketQuery, time.Second, func(context.Context) (types.ResultSet, error) {
		panic("index out of range")
	})
	require.Len(t, rs, 1)
	assert.True(t, rs[0].IsError)
	assert.Contains(t, rs[0].ErrorMessage, "panic: index out of range")
}

func TestExecuteTimeout(t *testing.T) {
	rs := execute(context.Background(), types.ProviderStub, "search", marketQuery, 10*time.Millisecond, func(ctx context.Context) (types.ResultSet, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	require.Len(t, rs, 1)
	assert.Contains(t, rs[0].ErrorMessage, "timed out after 10ms")
}

func TestExecuteNilBecomesEmpty(t *testing.T) {
	rs := execute(context.Background(), types.ProviderStub, "search", marketQuery, time.Second, func(context.Context) (types.ResultSet, error) {
		return nil, nil
	})
	assert.NotNil(t, rs)
	assert.Empty(t, rs)
}

func TestForCatalogStampsQuery(t *testing.T) {
	a := ForCatalog(&StubCatalog{})
	q := types.Query{Text: "Retail", Category: types.CategoryDatasetLookup}
	rs := a.Execute(context.Background(), q)
	require.Len(t, rs, CatalogTopK)
	for _, r := range rs {
		assert.Equal(t, types.CategoryDatasetLookup, r.Category)
		assert.Equal(t, "Retail", r.Query)
		assert.NoError(t, r.Validate())
	}
	assert.Equal(t, types.ProviderStub, a.Name())
}

func TestStubGenerator(t *testing.T) {
	q := types.Query{Text: "prompt", Category: types.CategoryUseCaseContext}

	g := &StubGenerator{}
	nt := g.Generate(context.Background(), q)
	assert.False(t, nt.Failed)
	assert.Equal(t, "AI Use Cases", nt.SourceCategory)
	assert.Equal(t, StubNarrative, nt.Body)
	assert.Equal(t, []string{"prompt"}, g.Prompts())

	g = &StubGenerator{Err: errors.New("quota exceeded")}
	nt = g.Generate(context.Background(), q)
	assert.True(t, nt.Failed)
	assert.Equal(t, "Error generating content: stub generate: quota exceeded", nt.Body)
}

func TestFromConfig(t *testing.T) {
	set, err := FromConfig(types.ProvidersConfig{}, types.Credentials{TavilyAPIKey: "k"}, nil)
	require.NoError(t, err)
	assert.Equal(t, types.ProviderTavily, set.Adapters[types.CategoryMarketResearch].Name())
	assert.Equal(t, types.ProviderTavily, set.Adapters[types.CategoryIndustryInsight].Name())
	assert.Equal(t, types.ProviderKaggle, set.Adapters[types.CategoryDatasetLookup].Name())
	assert.Equal(t, types.ProviderGitHub, set.Adapters[types.CategoryRepoLookup].Name())
	assert.Equal(t, types.ProviderGemini, set.Generator.Name())
	_, ok := set.Adapters[types.CategoryUseCaseContext]
	assert.False(t, ok, "use-case prompts go to the generator")

	set, err = FromConfig(types.ProvidersConfig{Search: types.ProviderBrave, Generator: types.ProviderAnthropic}, types.Credentials{}, nil)
	require.NoError(t, err)
	assert.Equal(t, types.ProviderBrave, set.Adapters[types.CategoryMarketResearch].Name())
	assert.Equal(t, types.ProviderAnthropic, set.Generator.Name())

	_, err = FromConfig(types.ProvidersConfig{Search: "bing"}, types.Credentials{}, nil)
	var cErr *types.ConfigurationError
	require.True(t, errors.As(err, &cErr))

	_, err = FromConfig(types.ProvidersConfig{Generator: "gpt"}, types.Credentials{}, nil)
	require.True(t, errors.As(err, &cErr))
	assert.Equal(t, types.CategoryUseCaseContext, cErr.Category)
}
