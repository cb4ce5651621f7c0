// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/usecase-engine/internal/aggregate"
	"github.com/pdiddy/usecase-engine/internal/plan"
	"github.com/pdiddy/usecase-engine/internal/provider"
	"github.com/pdiddy/usecase-engine/internal/report"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

var acme = types.ResearchRequest{EntityName: "Acme Corp", Domain: "Retail"}

// oneHit returns a single success record for every query.
func oneHit(q types.Query) ([]provider.Hit, error) {
	return provider.StubHits(q.Text, 1), nil
}

func stubRegistry(search provider.Adapter) aggregate.Registry {
	catalog := provider.ForCatalog(&provider.StubCatalog{
		Respond: func(useCase string) ([]provider.Hit, error) { return provider.StubHits(useCase, 1), nil },
	})
	return aggregate.Registry{
		types.CategoryMarketResearch:  search,
		types.CategoryIndustryInsight: search,
		types.CategoryDatasetLookup:   catalog,
		types.CategoryRepoLookup:      catalog,
	}
}

func spreadsheetRows(t *testing.T, res *Result) [][]string {
	t.Helper()
	art, ok := res.Artifact(types.FormatSpreadsheet)
	require.True(t, ok)
	f, err := excelize.OpenReader(bytes.NewReader(art.Bytes))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(report.SheetName)
	require.NoError(t, err)
	return rows
}

func TestRunAllProvidersSucceed(t *testing.T) {
	gen := &provider.StubGenerator{}
	p := New(plan.Default(), stubRegistry(&provider.StubSearch{Respond: oneHit}), gen, Options{})

	res, err := p.Run(context.Background(), acme)
	require.NoError(t, err)

	// One use-case prompt goes to the generator; every other query yields one row.
	aggregated := len(res.Queries) - 1
	rows := spreadsheetRows(t, res)
	assert.Len(t, rows, 1+aggregated)
	assert.Equal(t, report.Header, rows[0])

	for _, s := range Steps {
		assert.Equal(t, StateOK, res.Steps[s].State, "step %s", s)
	}
	assert.Equal(t, 0, res.FailedCalls)
	assert.Equal(t, "pipeline succeeded, 0 provider calls failed", res.Summary())
	assert.NotEmpty(t, res.RunID)

	require.Len(t, res.Artifacts, 2)
	assert.Equal(t, "market_research_Acme_Corp.xlsx", res.Artifacts[0].SuggestedFileName)
	assert.Equal(t, "Acme_Corp_AI_Use_Cases.docx", res.Artifacts[1].SuggestedFileName)

	require.Len(t, res.Narratives, 2)
	assert.Equal(t, "Industry Insights", res.Narratives[0].SourceCategory)
	assert.Contains(t, res.Narratives[0].Body, "Insight 1: Result 1 for Latest AI applications and trends in Retail industry")
	assert.Equal(t, "AI Use Cases", res.Narratives[1].SourceCategory)

	prompts := gen.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "### Industry Insights:\nInsight 1:")
	assert.Contains(t, prompts[0], `"Acme Corp" in the "Retail" industry`)
}

func TestRunSearchAlwaysFails(t *testing.T) {
	search := &provider.StubSearch{Respond: func(types.Query) ([]provider.Hit, error) {
		return nil, errors.New("HTTP 503 service unavailable")
	}}
	p := New(nil, stubRegistry(search), &provider.StubGenerator{}, Options{})

	res, err := p.Run(context.Background(), acme)
	require.NoError(t, err)

	searchQueries := 0
	for _, q := range res.Queries {
		if q.Category == types.CategoryMarketResearch || q.Category == types.CategoryIndustryInsight {
			searchQueries++
		}
	}

	errorRows := 0
	for _, row := range spreadsheetRows(t, res)[1:] {
		if row[2] == types.PlaceholderURL {
			errorRows++
			assert.True(t, strings.HasPrefix(row[1], report.ErrorPrefix), row[1])
			assert.Contains(t, row[1], "HTTP 503")
		}
	}
	assert.Equal(t, searchQueries, errorRows)

	assert.Equal(t, StateOK, res.Steps[StepPlan].State)
	assert.Equal(t, StateDegraded, res.Steps[StepAggregate].State)
	assert.Equal(t, StateOK, res.Steps[StepSynthesize].State)
	assert.Equal(t, searchQueries, res.FailedCalls)
	assert.Contains(t, res.Summary(), "pipeline succeeded")

	assert.Contains(t, res.Narratives[0].Body, "Error fetching insights:")
}

func TestRunRejectsEmptyEntity(t *testing.T) {
	search := &provider.StubSearch{}
	p := New(nil, stubRegistry(search), &provider.StubGenerator{}, Options{})

	res, err := p.Run(context.Background(), types.ResearchRequest{EntityName: "", Domain: "Retail"})
	require.Error(t, err)

	var aErr *AbortError
	require.True(t, errors.As(err, &aErr))
	assert.Equal(t, StepPlan, aErr.Step)
	var vErr *types.ValidationError
	assert.True(t, errors.As(err, &vErr))

	require.NotNil(t, res)
	assert.Empty(t, res.Artifacts)
	assert.Equal(t, StateFailed, res.Steps[StepPlan].State)
	assert.Equal(t, StateSkipped, res.Steps[StepSynthesize].State)
	assert.True(t, strings.HasPrefix(res.Summary(), "pipeline aborted at step plan: invalid entity name"))
	assert.Equal(t, 0, search.Calls())
}

func TestRunMissingAdapterAborts(t *testing.T) {
	reg := stubRegistry(&provider.StubSearch{})
	delete(reg, types.CategoryRepoLookup)
	p := New(nil, reg, &provider.StubGenerator{}, Options{})

	res, err := p.Run(context.Background(), acme)
	step, ok := IsAbort(err)
	require.True(t, ok)
	assert.Equal(t, StepAggregate, step)
	var cErr *types.ConfigurationError
	assert.True(t, errors.As(err, &cErr))
	assert.Empty(t, res.Artifacts)
}

func TestRunMissingGenerator(t *testing.T) {
	p := New(nil, stubRegistry(&provider.StubSearch{}), nil, Options{})

	_, err := p.Run(context.Background(), acme, types.FormatDocument)
	step, ok := IsAbort(err)
	require.True(t, ok)
	assert.Equal(t, StepNarrate, step)

	res, err := p.Run(context.Background(), acme, types.FormatSpreadsheet)
	require.NoError(t, err, "spreadsheet-only runs do not need a generator")
	assert.Equal(t, StateSkipped, res.Steps[StepNarrate].State)
	assert.Empty(t, res.Narratives)
}

func TestRunGeneratorFailureDegrades(t *testing.T) {
	gen := &provider.StubGenerator{Err: errors.New("quota exceeded")}
	p := New(nil, stubRegistry(&provider.StubSearch{Respond: oneHit}), gen, Options{})

	res, err := p.Run(context.Background(), acme, types.FormatDocument, types.FormatMarkdown)
	require.NoError(t, err)
	assert.Equal(t, StateDegraded, res.Steps[StepNarrate].State)
	assert.Equal(t, 1, res.FailedCalls)
	assert.True(t, res.Narratives[1].Failed)
	require.Len(t, res.Artifacts, 2)
	assert.Equal(t, types.FormatMarkdown, res.Artifacts[1].Format)
}

func TestRunConcurrentMatchesSequential(t *testing.T) {
	delay := func(q types.Query) time.Duration { return time.Duration(len(q.Text)%7) * time.Millisecond }
	clock := func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	seq := New(nil, stubRegistry(&provider.StubSearch{Delay: delay}), &provider.StubGenerator{}, Options{Now: clock})
	conc := New(nil, stubRegistry(&provider.StubSearch{Delay: delay}), &provider.StubGenerator{}, Options{Now: clock, Parallelism: 4})

	a, err := seq.Run(context.Background(), acme, types.FormatSpreadsheet)
	require.NoError(t, err)
	b, err := conc.Run(context.Background(), acme, types.FormatSpreadsheet)
	require.NoError(t, err)

	assert.Equal(t, a.ResultSet.Records(), b.ResultSet.Records())
	assert.Equal(t, a.Artifacts[0].Bytes, b.Artifacts[0].Bytes)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestRunProgress(t *testing.T) {
	var progress bytes.Buffer
	p := New(nil, stubRegistry(&provider.StubSearch{}), &provider.StubGenerator{}, Options{Progress: &progress})
	_, err := p.Run(context.Background(), acme, types.FormatSpreadsheet, types.FormatSpreadsheet)
	require.NoError(t, err)

	out := progress.String()
	assert.Contains(t, out, "plan: 9 queries for Acme Corp (Retail)")
	assert.Contains(t, out, "synthesize: market_research_Acme_Corp.xlsx")
	assert.Equal(t, 1, strings.Count(out, "synthesize:"), "duplicate formats are produced once")
}

func TestInsightsNarrative(t *testing.T) {
	assert.Equal(t, NoInsights, InsightsNarrative(nil).Body)

	long := strings.Repeat("x", 250)
	nt := InsightsNarrative([]types.ResultRecord{
		{Title: "Vision checkout", Snippet: long, URL: "https://a.example", Source: types.ProviderTavily},
		{IsError: true, ErrorMessage: "tavily: timeout", URL: types.PlaceholderURL},
	})
	assert.Equal(t, "Industry Insights", nt.SourceCategory)
	assert.Equal(t, types.ProviderTavily, nt.Source)
	assert.Equal(t, "Insight 1: Vision checkout\n"+strings.Repeat("x", 200)+"...\nRead more: https://a.example\n\nError fetching insights: tavily: timeout", nt.Body)
}

func TestWithInsights(t *testing.T) {
	assert.Equal(t, "Intro.\n\n### Industry Insights:\nI\n\nRest", WithInsights("Intro.\n\nRest", "I"))
	assert.Equal(t, "One line\n\n### Industry Insights:\nI", WithInsights("One line", "I"))
}
