// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the usecase-engine pipeline:
// the research request, planned queries, normalized result records, narrative
// text, aggregated result sets, and report artifacts.
package types

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ResearchRequest is the input of one pipeline run.
type ResearchRequest struct {
	// EntityName is the company or organization being researched.
	EntityName string `json:"entity_name" yaml:"entity_name"`

	// Domain is the industry the entity operates in (e.g. "Retail").
	Domain string `json:"domain" yaml:"domain"`
}

// Category classifies a query and its results by research purpose.
type Category string

const (
	CategoryMarketResearch  Category = "market_research"
	CategoryIndustryInsight Category = "industry_insight"
	CategoryUseCaseContext  Category = "use_case_context"
	CategoryDatasetLookup   Category = "dataset_lookup"
	CategoryRepoLookup      Category = "repo_lookup"
)

// Categories lists every known category in document order.
var Categories = []Category{
	CategoryMarketResearch,
	CategoryIndustryInsight,
	CategoryUseCaseContext,
	CategoryDatasetLookup,
	CategoryRepoLookup,
}

var categoryLabels = map[Category]string{
	CategoryMarketResearch:  "Market Research",
	CategoryIndustryInsight: "Industry Insights",
	CategoryUseCaseContext:  "AI Use Cases",
	CategoryDatasetLookup:   "Datasets",
	CategoryRepoLookup:      "Code Repositories",
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the human-readable section title for c.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// ParseCategory converts a configuration string into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Query is one templated provider request produced by the planner.
type Query struct {
	Text     string   `json:"text" yaml:"text"`
	Category Category `json:"category" yaml:"category"`
}

// Provider identifies the external source behind an adapter.
type Provider string

const (
	ProviderTavily    Provider = "tavily"
	ProviderBrave     Provider = "brave"
	ProviderGemini    Provider = "gemini"
	ProviderAnthropic Provider = "anthropic"
	ProviderKaggle    Provider = "kaggle"
	ProviderGitHub    Provider = "github"
	ProviderStub      Provider = "stub"
)

// PlaceholderURL is the reference written for records that carry no link.
const PlaceholderURL = "N/A"

// ResultRecord is the canonical normalized shape every adapter produces.
type ResultRecord struct {
	Category     Category `json:"category" yaml:"category"`
	Query        string   `json:"query,omitempty" yaml:"query,omitempty"`
	Title        string   `json:"title" yaml:"title"`
	Snippet      string   `json:"snippet,omitempty" yaml:"snippet,omitempty"`
	URL          string   `json:"url" yaml:"url"`
	Source       Provider `json:"source" yaml:"source"`
	IsError      bool     `json:"is_error,omitempty" yaml:"is_error,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty" yaml:"error_message,omitempty"`
}

// Validate checks the record invariant: an error record has a placeholder URL
// and a message; a success record has a title, an absolute http(s) URL and no
// message.
func (r ResultRecord) Validate() error {
	if r.IsError {
		if strings.TrimSpace(r.ErrorMessage) == "" {
			return fmt.Errorf("error record from %s has no message", r.Source)
		}
		if r.URL != PlaceholderURL {
			return fmt.Errorf("error record from %s has reference %q, want %q", r.Source, r.URL, PlaceholderURL)
		}
		return nil
	}
	if r.ErrorMessage != "" {
		return fmt.Errorf("record from %s carries an error message but is not marked as error", r.Source)
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("record from %s has an empty title", r.Source)
	}
	if !IsWebURL(r.URL) {
		return fmt.Errorf("record from %s has malformed reference %q", r.Source, r.URL)
	}
	return nil
}

// IsWebURL reports whether s is an absolute http or https URL with a host.
func IsWebURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ResultSet is the ordered, possibly empty output of one adapter call.
type ResultSet []ResultRecord

// Failed reports whether the set contains any error record.
func (s ResultSet) Failed() bool {
	for _, r := range s {
		if r.IsError {
			return true
		}
	}
	return false
}

// NarrativeText is free-form prose produced by a generative-text provider.
type NarrativeText struct {
	// SourceCategory is the section heading the body is rendered under.
	SourceCategory string   `json:"source_category" yaml:"source_category"`
	Body           string   `json:"body" yaml:"body"`
	Source         Provider `json:"source,omitempty" yaml:"source,omitempty"`

	// Failed marks a placeholder body written in place of a failed generation.
	Failed bool `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// QueryOutcome records how one query fared during aggregation.
type QueryOutcome struct {
	Query    Query         `json:"query" yaml:"query"`
	Provider Provider      `json:"provider" yaml:"provider"`
	Records  int           `json:"records" yaml:"records"`
	Failed   bool          `json:"failed" yaml:"failed"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// AggregatedResultSet holds every record of a run in planner order. It is
// built once by the aggregator and read-only afterwards.
type AggregatedResultSet struct {
	records  []ResultRecord
	outcomes []QueryOutcome
}

// NewAggregatedResultSet copies records and outcomes into a new set.
func NewAggregatedResultSet(records []ResultRecord, outcomes []QueryOutcome) *AggregatedResultSet {
	return &AggregatedResultSet{
		records:  append([]ResultRecord{}, records...),
		outcomes: append([]QueryOutcome{}, outcomes...),
	}
}

// Records returns a copy of the records in planner order.
func (s *AggregatedResultSet) Records() []ResultRecord {
	if s == nil {
		return []ResultRecord{}
	}
	return append([]ResultRecord{}, s.records...)
}

// Outcomes returns a copy of the per-query outcomes in planner order.
func (s *AggregatedResultSet) Outcomes() []QueryOutcome {
	if s == nil {
		return []QueryOutcome{}
	}
	return append([]QueryOutcome{}, s.outcomes...)
}

// Len returns the number of records.
func (s *AggregatedResultSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// FailedCalls returns the number of queries whose adapter reported an error.
func (s *AggregatedResultSet) FailedCalls() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, o := range s.outcomes {
		if o.Failed {
			n++
		}
	}
	return n
}

// ByCategory returns the records of one category in order.
func (s *AggregatedResultSet) ByCategory(c Category) []ResultRecord {
	var out []ResultRecord
	if s == nil {
		return out
	}
	for _, r := range s.records {
		if r.Category == c {
			out = append(out, r)
		}
	}
	return out
}

// Format selects the output document type.
type Format string

const (
	FormatSpreadsheet Format = "spreadsheet"
	FormatDocument    Format = "document"
	FormatMarkdown    Format = "markdown"
	FormatCitations   Format = "citations"
)

// DefaultFormats are produced when a caller requests none.
var DefaultFormats = []Format{FormatSpreadsheet, FormatDocument}

// ParseFormat converts a flag or request value into a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatSpreadsheet, FormatDocument, FormatMarkdown, FormatCitations:
		return f, nil
	case "xlsx":
		return FormatSpreadsheet, nil
	case "docx":
		return FormatDocument, nil
	case "md":
		return FormatMarkdown, nil
	case "csl", "yaml":
		return FormatCitations, nil
	}
	return "", fmt.Errorf("unsupported format %q: use spreadsheet, document, markdown, or citations", s)
}

// UsesNarratives reports whether the format renders narrative text.
func (f Format) UsesNarratives() bool {
	return f == FormatDocument || f == FormatMarkdown
}

// ReportArtifact is one finished output document.
type ReportArtifact struct {
	Format            Format `json:"format" yaml:"format"`
	Bytes             []byte `json:"bytes" yaml:"-"`
	SuggestedFileName string `json:"suggested_file_name" yaml:"suggested_file_name"`
	ContentType       string `json:"content_type" yaml:"content_type"`
}
