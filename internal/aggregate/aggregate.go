// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate runs planned queries against their providers and
// collects every result, success or failure, into one ordered result set.
package aggregate

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/usecase-engine/internal/provider"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

// AdapterFor resolves the adapter registered for a category.
type AdapterFor func(types.Category) (provider.Adapter, bool)

// Registry maps categories to adapters.
type Registry map[types.Category]provider.Adapter

// Lookup implements AdapterFor.
func (r Registry) Lookup(c types.Category) (provider.Adapter, bool) {
	a, ok := r[c]
	return a, ok && a != nil
}

// Options controls dispatch.
type Options struct {
	// Parallelism is the number of calls in flight. Values below 2 select
	// sequential dispatch in planner order.
	Parallelism int

	// Progress receives one line per call and a warning per failed call.
	// Nil discards progress.
	Progress io.Writer
}

// slot holds the outcome of one query. Each query owns exactly one slot so
// concurrent dispatch needs no shared mutable state.
type slot struct {
	records types.ResultSet
	outcome types.QueryOutcome
}

// Aggregate executes every query against the adapter for its category and
// returns the records in planner order, each query's records in provider
// order. All adapters are resolved before the first call; a missing adapter
// is a ConfigurationError and no provider is contacted. Provider failures
// never fail the aggregation: they appear as error records. When ctx is
// cancelled the remaining queries are recorded as cancelled.
func Aggregate(ctx context.Context, queries []types.Query, adapterFor AdapterFor, opts Options) (*types.AggregatedResultSet, error) {
	if adapterFor == nil {
		return nil, &types.ConfigurationError{Reason: "no adapter registry configured"}
	}

	adapters := make([]provider.Adapter, len(queries))
	for i, q := range queries {
		a, ok := adapterFor(q.Category)
		if !ok || a == nil {
			return nil, &types.ConfigurationError{
				Category: q.Category,
				Reason:   fmt.Sprintf("no adapter registered (query %d: %q)", i+1, q.Text),
			}
		}
		adapters[i] = a
	}

	w := opts.Progress
	if w == nil {
		w = io.Discard
	}
	w = &syncWriter{w: w}

	slots := make([]slot, len(queries))
	run := func(i int) {
		slots[i] = call(ctx, queries[i], adapters[i], w)
	}

	if opts.Parallelism > 1 {
		var g errgroup.Group
		g.SetLimit(opts.Parallelism)
		for i := range queries {
			g.Go(func() error {
				run(i)
				return nil
			})
		}
		g.Wait()
	} else {
		for i := range queries {
			run(i)
		}
	}

	var records []types.ResultRecord
	outcomes := make([]types.QueryOutcome, 0, len(slots))
	for _, s := range slots {
		records = append(records, s.records...)
		outcomes = append(outcomes, s.outcome)
	}
	return types.NewAggregatedResultSet(records, outcomes), nil
}

// call executes one query and sanitizes the adapter's output.
func call(ctx context.Context, q types.Query, a provider.Adapter, w io.Writer) slot {
	name := a.Name()
	start := time.Now()

	var rs types.ResultSet
	if err := ctx.Err(); err != nil {
		rs = types.ResultSet{provider.ErrorRecord(name, q, fmt.Errorf("cancelled before dispatch: %w", err))}
	} else {
		fmt.Fprintf(w, "querying %s via %s: %s\n", q.Category, name, firstLine(q.Text))
		rs = sanitize(a.Execute(ctx, q), q, name)
	}

	failed := rs.Failed()
	if failed {
		for _, r := range rs {
			if r.IsError {
				fmt.Fprintf(w, "warning: %s failed for %q: %s\n", name, firstLine(q.Text), r.ErrorMessage)
			}
		}
	}

	return slot{
		records: rs,
		outcome: types.QueryOutcome{
			Query:    q,
			Provider: name,
			Records:  len(rs),
			Failed:   failed,
			Duration: time.Since(start),
		},
	}
}

// sanitize enforces the record invariant on adapter output. Records are
// stamped with the query they answer; a record that fails validation is
// replaced by an error record describing the violation.
func sanitize(rs types.ResultSet, q types.Query, name types.Provider) types.ResultSet {
	out := make(types.ResultSet, 0, len(rs))
	for _, r := range rs {
		r.Category = q.Category
		r.Query = q.Text
		if r.Source == "" {
			r.Source = name
		}
		if err := r.Validate(); err != nil {
			r = provider.ErrorRecord(name, q, fmt.Errorf("invalid record from adapter: %v", err))
		}
		out = append(out, r)
	}
	return out
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i] + " ..."
		}
	}
	return s
}

// syncWriter serializes progress writes from concurrent calls.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
