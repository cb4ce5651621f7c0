// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

// StubSearch is an offline Adapter with scripted responses. The zero value
// returns SearchTopK deterministic example.com hits per query.
type StubSearch struct {
	// Respond overrides the default hits. A non-nil error becomes an error record.
	Respond func(q types.Query) ([]Hit, error)

	// Delay returns the latency to simulate for q.
	Delay func(q types.Query) time.Duration

	TopK  int
	calls atomic.Int64
}

// Name returns the provider identifier.
func (s *StubSearch) Name() types.Provider { return types.ProviderStub }

// Calls returns how many times Execute ran.
func (s *StubSearch) Calls() int { return int(s.calls.Load()) }

// Execute returns the scripted hits for q.
func (s *StubSearch) Execute(ctx context.Context, q types.Query) types.ResultSet {
	s.calls.Add(1)
	k := SearchTopK
	if s.TopK > 0 {
		k = s.TopK
	}
	return execute(ctx, types.ProviderStub, "search", q, DefaultTimeout, func(ctx context.Context) (types.ResultSet, error) {
		if err := sleep(ctx, s.Delay, q); err != nil {
			return nil, err
		}
		if s.Respond != nil {
			hits, err := s.Respond(q)
			if err != nil {
				return nil, err
			}
			return Normalize(hits, q, types.ProviderStub, k), nil
		}
		return Normalize(StubHits(q.Text, k), q, types.ProviderStub, k), nil
	})
}

// StubCatalog is an offline Catalog. The zero value returns CatalogTopK
// deterministic hits per use case.
type StubCatalog struct {
	Respond func(useCase string) ([]Hit, error)
	Delay   func(q types.Query) time.Duration
	calls   atomic.Int64
}

// Name returns the provider identifier.
func (s *StubCatalog) Name() types.Provider { return types.ProviderStub }

// Calls returns how many times Lookup ran.
func (s *StubCatalog) Calls() int { return int(s.calls.Load()) }

// Lookup returns the scripted hits for useCase.
func (s *StubCatalog) Lookup(ctx context.Context, useCase string) types.ResultSet {
	s.calls.Add(1)
	q := types.Query{Text: useCase}
	return execute(ctx, types.ProviderStub, "lookup", q, DefaultTimeout, func(ctx context.Context) (types.ResultSet, error) {
		if err := sleep(ctx, s.Delay, q); err != nil {
			return nil, err
		}
		hits := StubHits(useCase, CatalogTopK)
		if s.Respond != nil {
			var err error
			if hits, err = s.Respond(useCase); err != nil {
				return nil, err
			}
		}
		return Normalize(hits, q, types.ProviderStub, CatalogTopK), nil
	})
}

// StubGenerator is an offline Generator. The zero value returns a fixed
// body with two use-case sections.
type StubGenerator struct {
	Body string
	Err  error

	mu      sync.Mutex
	prompts []string
}

// StubNarrative is the body StubGenerator returns by default.
const StubNarrative = `### Use Case 1: Demand Forecasting
Objective: Predict store-level demand.
AI Application: Gradient-boosted models on sales history.

### Use Case 2: Customer Support Automation
Objective: Resolve routine tickets faster.
AI Application: Retrieval-augmented chat assistant.`

// Name returns the provider identifier.
func (g *StubGenerator) Name() types.Provider { return types.ProviderStub }

// Prompts returns every prompt received, in call order.
func (g *StubGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string{}, g.prompts...)
}

// Generate returns Body, or a failed narrative when Err is set.
func (g *StubGenerator) Generate(ctx context.Context, q types.Query) types.NarrativeText {
	g.mu.Lock()
	g.prompts = append(g.prompts, q.Text)
	g.mu.Unlock()
	return generate(ctx, types.ProviderStub, q, DefaultTimeout, func(ctx context.Context) (string, error) {
		if g.Err != nil {
			return "", g.Err
		}
		if g.Body != "" {
			return g.Body, nil
		}
		return StubNarrative, nil
	})
}

// StubHits returns n deterministic hits for text.
func StubHits(text string, n int) []Hit {
	hits := make([]Hit, 0, n)
	for i := 1; i <= n; i++ {
		hits = append(hits, Hit{
			Title:   fmt.Sprintf("Result %d for %s", i, text),
			Snippet: fmt.Sprintf("Example snippet %d about %s.", i, text),
			URL:     fmt.Sprintf("https://example.com/search?n=%d&q=%s", i, url.QueryEscape(text)),
		})
	}
	return hits
}

func sleep(ctx context.Context, delay func(types.Query) time.Duration, q types.Query) error {
	if delay == nil {
		return ctx.Err()
	}
	d := delay(q)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
