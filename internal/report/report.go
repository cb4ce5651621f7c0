// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders an aggregated result set and its narratives into
// downloadable artifacts: an XLSX spreadsheet, a DOCX document, a Markdown
// resource list, and CSL-YAML citations. Rendering is pure: no I/O, and
// identical input yields byte-identical output.
package report

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

// Content types of the produced artifacts.
const (
	ContentTypeXLSX     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeMarkdown = "text/markdown; charset=utf-8"
	ContentTypeYAML     = "application/yaml"
)

// ErrorPrefix starts the description of every error row.
const ErrorPrefix = "Error fetching results: "

// Meta carries the request fields the documents print.
type Meta struct {
	EntityName string
	Domain     string
}

// Synthesize renders rs and narratives as one artifact of the given format.
// It fails with a SynthesisError when rs is nil, the format is unknown, or a
// record violates the record invariant.
func Synthesize(rs *types.AggregatedResultSet, narratives []types.NarrativeText, format types.Format, meta Meta) (types.ReportArtifact, error) {
	if rs == nil {
		return types.ReportArtifact{}, &types.SynthesisError{Format: format, Reason: "result set is nil"}
	}
	records := rs.Records()
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return types.ReportArtifact{}, &types.SynthesisError{Format: format, Reason: fmt.Sprintf("record %d: %v", i+1, err)}
		}
	}

	meta.EntityName = strings.TrimSpace(meta.EntityName)
	meta.Domain = strings.TrimSpace(meta.Domain)
	base := FileBase(meta.EntityName)

	var (
		data []byte
		err  error
		art  = types.ReportArtifact{Format: format}
	)
	switch format {
	case types.FormatSpreadsheet:
		data, err = renderSpreadsheet(records)
		art.SuggestedFileName = "market_research_" + base + ".xlsx"
		art.ContentType = ContentTypeXLSX
	case types.FormatDocument:
		data, err = renderDocument(narratives, meta)
		art.SuggestedFileName = base + "_AI_Use_Cases.docx"
		art.ContentType = ContentTypeDOCX
	case types.FormatMarkdown:
		data = renderMarkdown(records, narratives, meta)
		art.SuggestedFileName = "ai_resources_" + base + ".md"
		art.ContentType = ContentTypeMarkdown
	case types.FormatCitations:
		data, err = renderCitations(records)
		art.SuggestedFileName = base + "_references.yaml"
		art.ContentType = ContentTypeYAML
	default:
		return types.ReportArtifact{}, &types.SynthesisError{Format: format, Reason: "unsupported format"}
	}
	if err != nil {
		return types.ReportArtifact{}, &types.SynthesisError{Format: format, Reason: err.Error()}
	}
	art.Bytes = data
	return art, nil
}

var dotRuns = regexp.MustCompile(`\.{2,}`)

// FileBase turns an entity name into a file name stem: whitespace runs and
// path separators become underscores, dot runs collapse to one dot, and
// leading or trailing dots are dropped.
func FileBase(entity string) string {
	entity = strings.NewReplacer("/", " ", "\\", " ").Replace(entity)
	base := strings.Join(strings.Fields(entity), "_")
	base = strings.Trim(dotRuns.ReplaceAllString(base, "."), ".")
	if base == "" {
		return "report"
	}
	return base
}

// useCaseCell is the first spreadsheet column for r: the query text for
// market research, otherwise the category label with the query.
func useCaseCell(r types.ResultRecord) string {
	switch {
	case r.Query == "":
		return r.Category.Label()
	case r.Category == types.CategoryMarketResearch || r.Category == "":
		return firstLine(r.Query)
	default:
		return r.Category.Label() + ": " + firstLine(r.Query)
	}
}

// description is the second spreadsheet column for r.
func description(r types.ResultRecord) string {
	if r.IsError {
		return ErrorPrefix + r.ErrorMessage
	}
	if r.Snippet != "" {
		return r.Snippet
	}
	return r.Title
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
