// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package plan turns a research request into an ordered list of provider
// queries. Queries come from category-tagged text/template strings held in
// configuration, so adding a query is a config change rather than a code
// change.
package plan

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

// useCasePrompt asks the generative model for structured use cases. Each
// use case starts with a "### Use Case" line so the document renderer can
// promote it to a subheading.
const useCasePrompt = `You are an AI expert generating AI use cases for companies. Generate structured AI use cases for the company "{{.Entity}}" in the "{{.Domain}}" industry.

### Use Case 1: [Title]
Objective: Define the problem AI/ML will solve.
AI Application: Describe how AI/ML will be used.
Business Impact: Discuss benefits in operations, finance, and supply chain.

### Use Case 2: [Title]
(Repeat the structure for multiple use cases)

Provide at least 3 use cases.`

// DefaultTemplates is the built-in template set, in planning order.
var DefaultTemplates = []types.TemplateConfig{
	{Category: string(types.CategoryMarketResearch), Text: "Top competitors of {{.Entity}} in the {{.Domain}} industry"},
	{Category: string(types.CategoryMarketResearch), Text: "{{.Entity}} annual report and strategic goals"},
	{Category: string(types.CategoryMarketResearch), Text: "How {{.Entity}} is adopting AI in operations and customer experience"},
	{Category: string(types.CategoryMarketResearch), Text: "Industry leaders in {{.Domain}} and their AI adoption strategies"},
	{Category: string(types.CategoryMarketResearch), Text: "Market trends in {{.Domain}} industry related to AI, ML, and automation"},
	{Category: string(types.CategoryIndustryInsight), Text: "Latest AI applications and trends in {{.Domain}} industry"},
	{Category: string(types.CategoryUseCaseContext), Text: useCasePrompt},
	{Category: string(types.CategoryDatasetLookup), Text: "{{.Domain}}"},
	{Category: string(types.CategoryRepoLookup), Text: "{{.Domain}}"},
}

type queryTemplate struct {
	category types.Category
	tmpl     *template.Template
}

// Planner renders a fixed template set. It is safe for concurrent use.
type Planner struct {
	templates []queryTemplate
}

// templateData is the value templates are executed against.
type templateData struct {
	Entity string
	Domain string
}

// New compiles the template set. An empty set selects DefaultTemplates.
func New(cfgs []types.TemplateConfig) (*Planner, error) {
	if len(cfgs) == 0 {
		cfgs = DefaultTemplates
	}
	p := &Planner{templates: make([]queryTemplate, 0, len(cfgs))}
	for i, c := range cfgs {
		category, err := types.ParseCategory(c.Category)
		if err != nil {
			return nil, &types.ConfigurationError{Reason: fmt.Sprintf("template %d: %v", i+1, err)}
		}
		if strings.TrimSpace(c.Text) == "" {
			return nil, &types.ConfigurationError{Category: category, Reason: fmt.Sprintf("template %d is empty", i+1)}
		}
		tmpl, err := template.New(fmt.Sprintf("%s-%d", category, i+1)).
			Option("missingkey=error").
			Parse(c.Text)
		if err != nil {
			return nil, &types.ConfigurationError{Category: category, Reason: fmt.Sprintf("template %d: %v", i+1, err)}
		}
		p.templates = append(p.templates, queryTemplate{category: category, tmpl: tmpl})
	}
	return p, nil
}

// Default returns a planner over DefaultTemplates.
func Default() *Planner {
	p, err := New(DefaultTemplates)
	if err != nil {
		panic(fmt.Sprintf("plan: built-in templates: %v", err))
	}
	return p
}

// Len returns the number of queries every Plan call produces.
func (p *Planner) Len() int { return len(p.templates) }

// Categories returns the distinct categories of the template set in order
// of first appearance.
func (p *Planner) Categories() []types.Category {
	seen := make(map[types.Category]bool)
	var out []types.Category
	for _, t := range p.templates {
		if !seen[t.category] {
			seen[t.category] = true
			out = append(out, t.category)
		}
	}
	return out
}

// Plan validates the inputs and renders every template in order. Inputs are
// trimmed before rendering.
func (p *Planner) Plan(entityName, domain string) ([]types.Query, error) {
	data := templateData{
		Entity: strings.TrimSpace(entityName),
		Domain: strings.TrimSpace(domain),
	}
	if data.Entity == "" {
		return nil, &types.ValidationError{Field: "entity name", Reason: "must not be empty"}
	}
	if data.Domain == "" {
		return nil, &types.ValidationError{Field: "domain", Reason: "must not be empty"}
	}

	queries := make([]types.Query, 0, len(p.templates))
	for _, t := range p.templates {
		var buf bytes.Buffer
		if err := t.tmpl.Execute(&buf, data); err != nil {
			return nil, &types.ConfigurationError{Category: t.category, Reason: fmt.Sprintf("rendering %s: %v", t.tmpl.Name(), err)}
		}
		text := strings.TrimSpace(buf.String())
		if text == "" {
			return nil, &types.ConfigurationError{Category: t.category, Reason: fmt.Sprintf("%s rendered an empty query", t.tmpl.Name())}
		}
		queries = append(queries, types.Query{Text: text, Category: t.category})
	}
	return queries, nil
}

// PlanRequest is Plan for a ResearchRequest.
func (p *Planner) PlanRequest(req types.ResearchRequest) ([]types.Query, error) {
	return p.Plan(req.EntityName, req.Domain)
}
