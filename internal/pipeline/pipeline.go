// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences one research run: plan the queries, aggregate
// provider results, generate narratives, and synthesize the requested
// artifacts. Provider failures degrade a run; validation, configuration,
// and synthesis failures abort it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/usecase-engine/internal/aggregate"
	"github.com/pdiddy/usecase-engine/internal/plan"
	"github.com/pdiddy/usecase-engine/internal/provider"
	"github.com/pdiddy/usecase-engine/internal/report"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

// Step names, in execution order.
const (
	StepPlan       = "plan"
	StepAggregate  = "aggregate"
	StepNarrate    = "narrate"
	StepSynthesize = "synthesize"
)

// Steps lists the step names in execution order.
var Steps = []string{StepPlan, StepAggregate, StepNarrate, StepSynthesize}

// State is the outcome of one step.
type State string

const (
	StateOK       State = "ok"
	StateDegraded State = "degraded"
	StateSkipped  State = "skipped"
	StateFailed   State = "failed"
)

// StepStatus records how a step finished.
type StepStatus struct {
	State    State         `json:"state" yaml:"state"`
	Reason   string        `json:"reason,omitempty" yaml:"reason,omitempty"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// NoInsights is the industry-insight narrative body when nothing was found.
const NoInsights = "No relevant insights found."

// insightSnippetLen bounds the preview of each insight.
const insightSnippetLen = 200

// AbortError reports the step that stopped a run.
type AbortError struct {
	Step string
	Err  error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("pipeline aborted at step %s: %v", e.Step, e.Err)
}

func (e *AbortError) Unwrap() error { return e.Err }

// Result is everything a run produced. On abort it carries the step
// statuses and whatever was computed before the failing step, but no
// artifacts.
type Result struct {
	RunID       string                     `json:"run_id" yaml:"run_id"`
	Request     types.ResearchRequest      `json:"request" yaml:"request"`
	Queries     []types.Query              `json:"queries" yaml:"queries"`
	ResultSet   *types.AggregatedResultSet `json:"-" yaml:"-"`
	Narratives  []types.NarrativeText      `json:"narratives,omitempty" yaml:"narratives,omitempty"`
	Artifacts   []types.ReportArtifact     `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
	Steps       map[string]StepStatus      `json:"steps" yaml:"steps"`
	FailedCalls int                        `json:"failed_calls" yaml:"failed_calls"`
	StartedAt   time.Time                  `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time                  `json:"finished_at" yaml:"finished_at"`
}

// Aborted returns the failed step and its reason, if any.
func (r *Result) Aborted() (step, reason string, ok bool) {
	for _, s := range Steps {
		if st, found := r.Steps[s]; found && st.State == StateFailed {
			return s, st.Reason, true
		}
	}
	return "", "", false
}

// Summary is the one-line outcome of the run.
func (r *Result) Summary() string {
	if step, reason, ok := r.Aborted(); ok {
		return fmt.Sprintf("pipeline aborted at step %s: %s", step, reason)
	}
	return fmt.Sprintf("pipeline succeeded, %d provider calls failed", r.FailedCalls)
}

// Artifact returns the artifact of format f.
func (r *Result) Artifact(f types.Format) (types.ReportArtifact, bool) {
	for _, a := range r.Artifacts {
		if a.Format == f {
			return a, true
		}
	}
	return types.ReportArtifact{}, false
}

// Options tunes a Pipeline.
type Options struct {
	// Parallelism is passed to the aggregator; below 2 is sequential.
	Parallelism int

	// Formats are produced when Run is called without formats. Empty
	// selects types.DefaultFormats.
	Formats []types.Format

	// Progress receives human-readable progress lines. Nil discards them.
	Progress io.Writer

	// Now is the clock; nil uses time.Now.
	Now func() time.Time
}

// Pipeline runs research requests. It holds no per-run state and is safe
// for concurrent use when its adapters are.
type Pipeline struct {
	planner   *plan.Planner
	registry  aggregate.Registry
	generator provider.Generator
	opts      Options
}

// New assembles a pipeline. A nil planner selects the built-in templates.
// generator may be nil when no narrative format is ever requested.
func New(planner *plan.Planner, registry aggregate.Registry, generator provider.Generator, opts Options) *Pipeline {
	if planner == nil {
		planner = plan.Default()
	}
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{planner: planner, registry: registry, generator: generator, opts: opts}
}

// FromSet assembles a pipeline from a provider set.
func FromSet(planner *plan.Planner, set provider.Set, opts Options) *Pipeline {
	return New(planner, aggregate.Registry(set.Adapters), set.Generator, opts)
}

// Planner returns the planner the pipeline renders queries with.
func (p *Pipeline) Planner() *plan.Planner { return p.planner }

// Run executes one request and returns the artifacts of the given formats
// (the configured defaults when none are given). On abort the returned
// error is an *AbortError wrapping the typed cause, and the Result is still
// returned for inspection.
func (p *Pipeline) Run(ctx context.Context, req types.ResearchRequest, formats ...types.Format) (*Result, error) {
	formats = p.formats(formats)
	res := &Result{
		RunID:     uuid.NewString(),
		Request:   req,
		Steps:     make(map[string]StepStatus, len(Steps)),
		StartedAt: p.opts.Now(),
	}
	w := p.opts.Progress

	abort := func(step string, start time.Time, err error) (*Result, error) {
		res.Steps[step] = StepStatus{State: StateFailed, Reason: err.Error(), Duration: p.opts.Now().Sub(start)}
		for _, s := range Steps {
			if _, done := res.Steps[s]; !done {
				res.Steps[s] = StepStatus{State: StateSkipped, Reason: "aborted at step " + step}
			}
		}
		res.Artifacts = nil
		res.FinishedAt = p.opts.Now()
		fmt.Fprintf(w, "%s: aborted: %v\n", step, err)
		return res, &AbortError{Step: step, Err: err}
	}

	// plan
	start := p.opts.Now()
	queries, err := p.planner.PlanRequest(req)
	if err != nil {
		return abort(StepPlan, start, err)
	}
	res.Queries = queries
	res.Steps[StepPlan] = StepStatus{State: StateOK, Duration: p.opts.Now().Sub(start)}
	fmt.Fprintf(w, "plan: %d queries for %s (%s)\n", len(queries), strings.TrimSpace(req.EntityName), strings.TrimSpace(req.Domain))

	var searchQueries, prompts []types.Query
	for _, q := range queries {
		if q.Category == types.CategoryUseCaseContext {
			prompts = append(prompts, q)
			continue
		}
		searchQueries = append(searchQueries, q)
	}

	// aggregate
	start = p.opts.Now()
	set, err := aggregate.Aggregate(ctx, searchQueries, p.registry.Lookup, aggregate.Options{
		Parallelism: p.opts.Parallelism,
		Progress:    w,
	})
	if err != nil {
		return abort(StepAggregate, start, err)
	}
	res.ResultSet = set
	res.FailedCalls = set.FailedCalls()
	res.Steps[StepAggregate] = degradedIf(set.FailedCalls(), "provider calls failed", p.opts.Now().Sub(start))
	fmt.Fprintf(w, "aggregate: %d records, %d failed calls\n", set.Len(), set.FailedCalls())

	// narrate
	start = p.opts.Now()
	if !anyUsesNarratives(formats) {
		res.Steps[StepNarrate] = StepStatus{State: StateSkipped, Reason: "no requested format renders narratives"}
	} else {
		if len(prompts) > 0 && p.generator == nil {
			return abort(StepNarrate, start, &types.ConfigurationError{
				Category: types.CategoryUseCaseContext,
				Reason:   "no generator configured",
			})
		}
		insights := InsightsNarrative(set.ByCategory(types.CategoryIndustryInsight))
		res.Narratives = append(res.Narratives, insights)

		failed := 0
		for _, q := range prompts {
			fmt.Fprintf(w, "generating %s via %s\n", q.Category, p.generator.Name())
			nt := p.generator.Generate(ctx, types.Query{Text: WithInsights(q.Text, insights.Body), Category: q.Category})
			if nt.Failed {
				failed++
				fmt.Fprintf(w, "warning: %s generation failed: %s\n", p.generator.Name(), nt.Body)
			}
			res.Narratives = append(res.Narratives, nt)
		}
		res.FailedCalls += failed
		res.Steps[StepNarrate] = degradedIf(failed, "generations failed", p.opts.Now().Sub(start))
	}

	// synthesize
	start = p.opts.Now()
	meta := report.Meta{EntityName: req.EntityName, Domain: req.Domain}
	artifacts := make([]types.ReportArtifact, 0, len(formats))
	for _, f := range formats {
		art, err := report.Synthesize(set, res.Narratives, f, meta)
		if err != nil {
			return abort(StepSynthesize, start, err)
		}
		artifacts = append(artifacts, art)
		fmt.Fprintf(w, "synthesize: %s (%d bytes)\n", art.SuggestedFileName, len(art.Bytes))
	}
	res.Artifacts = artifacts
	res.Steps[StepSynthesize] = StepStatus{State: StateOK, Duration: p.opts.Now().Sub(start)}
	res.FinishedAt = p.opts.Now()

	fmt.Fprintln(w, res.Summary())
	return res, nil
}

func (p *Pipeline) formats(requested []types.Format) []types.Format {
	if len(requested) == 0 {
		requested = p.opts.Formats
	}
	if len(requested) == 0 {
		requested = types.DefaultFormats
	}
	seen := make(map[types.Format]bool, len(requested))
	out := make([]types.Format, 0, len(requested))
	for _, f := range requested {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

func anyUsesNarratives(formats []types.Format) bool {
	for _, f := range formats {
		if f.UsesNarratives() {
			return true
		}
	}
	return false
}

func degradedIf(failed int, what string, d time.Duration) StepStatus {
	if failed == 0 {
		return StepStatus{State: StateOK, Duration: d}
	}
	return StepStatus{State: StateDegraded, Reason: fmt.Sprintf("%d %s", failed, what), Duration: d}
}

// InsightsNarrative renders industry-insight records as the "Industry
// Insights" narrative: title, preview, and link per insight.
func InsightsNarrative(records []types.ResultRecord) types.NarrativeText {
	nt := types.NarrativeText{SourceCategory: types.CategoryIndustryInsight.Label()}
	var b strings.Builder
	n := 0
	for _, r := range records {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		if r.IsError {
			b.WriteString("Error fetching insights: " + r.ErrorMessage)
			continue
		}
		n++
		fmt.Fprintf(&b, "Insight %d: %s", n, r.Title)
		if r.Snippet != "" {
			fmt.Fprintf(&b, "\n%s", preview(r.Snippet))
		}
		fmt.Fprintf(&b, "\nRead more: %s", r.URL)
		if nt.Source == "" {
			nt.Source = r.Source
		}
	}
	nt.Body = b.String()
	if nt.Body == "" {
		nt.Body = NoInsights
	}
	return nt
}

// WithInsights inserts the insights after the first paragraph of prompt.
func WithInsights(prompt, insights string) string {
	section := "### Industry Insights:\n" + insights
	if i := strings.Index(prompt, "\n\n"); i >= 0 {
		return prompt[:i] + "\n\n" + section + prompt[i:]
	}
	return prompt + "\n\n" + section
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= insightSnippetLen {
		return s
	}
	return string(r[:insightSnippetLen]) + "..."
}

// IsAbort reports whether err stopped a run and returns the failing step.
func IsAbort(err error) (string, bool) {
	var aErr *AbortError
	if errors.As(err, &aErr) {
		return aErr.Step, true
	}
	return "", false
}
