// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

var acme = Meta{EntityName: "Acme Corp", Domain: "Retail"}

func sampleSet() *types.AggregatedResultSet {
	records := []types.ResultRecord{
		{Category: types.CategoryMarketResearch, Query: "Top competitors of Acme Corp in the Retail industry", Title: "Acme rivals", Snippet: "Globex leads.", URL: "https://news.example/rivals", Source: types.ProviderTavily},
		{Category: types.CategoryMarketResearch, Query: "Acme Corp annual report and strategic goals", IsError: true, ErrorMessage: "tavily search: HTTP 500", URL: types.PlaceholderURL, Source: types.ProviderTavily},
		{Category: types.CategoryDatasetLookup, Query: "Retail", Title: "Retail Sales", URL: "https://www.kaggle.com/datasets/acme/retail-sales", Source: types.ProviderKaggle},
		{Category: types.CategoryRepoLookup, Query: "Retail", Title: "acme/forecast", Snippet: "Demand forecasting", URL: "https://github.com/acme/forecast", Source: types.ProviderGitHub},
	}
	return types.NewAggregatedResultSet(records, nil)
}

func sampleNarratives() []types.NarrativeText {
	return []types.NarrativeText{
		{SourceCategory: "Industry Insights", Body: "Insight 1: Computer vision checkout\nStores cut queues.\n\nInsight 2: Dynamic pricing"},
		{SourceCategory: "AI Use Cases", Body: "### Use Case 1: Demand Forecasting\nObjective: Predict demand.\nAI Application: Time series models.\n\n## Summary\nTwo & more <cases>."},
	}
}

func TestSynthesizeIsIdempotent(t *testing.T) {
	for _, f := range []types.Format{types.FormatSpreadsheet, types.FormatDocument, types.FormatMarkdown, types.FormatCitations} {
		t.Run(string(f), func(t *testing.T) {
			first, err := Synthesize(sampleSet(), sampleNarratives(), f, acme)
			require.NoError(t, err)
			for i := 0; i < 3; i++ {
				again, err := Synthesize(sampleSet(), sampleNarratives(), f, acme)
				require.NoError(t, err)
				assert.True(t, bytes.Equal(first.Bytes, again.Bytes), "run %d differs", i)
			}
			assert.Equal(t, f, first.Format)
			assert.NotEmpty(t, first.ContentType)
		})
	}
}

func TestSynthesizeFileNames(t *testing.T) {
	tests := []struct {
		format types.Format
		want   string
	}{
		{types.FormatSpreadsheet, "market_research_Acme_Corp.xlsx"},
		{types.FormatDocument, "Acme_Corp_AI_Use_Cases.docx"},
		{types.FormatMarkdown, "ai_resources_Acme_Corp.md"},
		{types.FormatCitations, "Acme_Corp_references.yaml"},
	}
	for _, tt := range tests {
		art, err := Synthesize(sampleSet(), nil, tt.format, acme)
		require.NoError(t, err)
		assert.Equal(t, tt.want, art.SuggestedFileName)
	}
	assert.Equal(t, "AT_T_Labs", FileBase(" AT/T  Labs "))
	assert.Equal(t, "report", FileBase("  "))
}

func TestFileBaseDots(t *testing.T) {
	tests := []struct {
		entity string
		want   string
	}{
		{"Acme Inc.", "Acme_Inc"},
		{"Amazon.com, Inc.", "Amazon.com,_Inc"},
		{"a...b", "a.b"},
		{".hidden co", "hidden_co"},
		{"...", "report"},
	}
	for _, tt := range tests {
		t.Run(tt.entity, func(t *testing.T) {
			assert.Equal(t, tt.want, FileBase(tt.entity))
		})
	}
}

func TestSpreadsheetRows(t *testing.T) {
	art, err := Synthesize(sampleSet(), nil, types.FormatSpreadsheet, acme)
	require.NoError(t, err)

	rows := readRows(t, art.Bytes)
	require.Len(t, rows, 5)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{"Top competitors of Acme Corp in the Retail industry", "Globex leads.", "https://news.example/rivals"}, rows[1])
	assert.Equal(t, []string{"Acme Corp annual report and strategic goals", "Error fetching results: tavily search: HTTP 500", "N/A"}, rows[2])
	assert.Equal(t, []string{"Datasets: Retail", "Retail Sales", "https://www.kaggle.com/datasets/acme/retail-sales"}, rows[3])
	assert.Equal(t, "Code Repositories: Retail", rows[4][0])
	for _, row := range rows {
		assert.Len(t, row, 3)
	}
}

func TestSpreadsheetEmptySet(t *testing.T) {
	art, err := Synthesize(types.NewAggregatedResultSet(nil, nil), nil, types.FormatSpreadsheet, acme)
	require.NoError(t, err)
	rows := readRows(t, art.Bytes)
	require.Len(t, rows, 1)
	assert.Equal(t, Header, rows[0])
}

func TestSpreadsheetIsCanonicalZip(t *testing.T) {
	art, err := Synthesize(sampleSet(), nil, types.FormatSpreadsheet, acme)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(art.Bytes), int64(len(art.Bytes)))
	require.NoError(t, err)
	for i := 1; i < len(zr.File); i++ {
		assert.Less(t, zr.File[i-1].Name, zr.File[i].Name)
	}
}

func TestDocumentHeadings(t *testing.T) {
	art, err := Synthesize(sampleSet(), sampleNarratives(), types.FormatDocument, acme)
	require.NoError(t, err)
	doc := readZipEntry(t, art.Bytes, "word/document.xml")

	assert.Contains(t, doc, `<w:pStyle w:val="Title"/></w:pPr><w:r><w:t xml:space="preserve">GenAI &amp; ML Use Cases for Acme Corp</w:t>`)
	assert.Contains(t, doc, `<w:t xml:space="preserve">Industry: </w:t></w:r><w:r><w:t xml:space="preserve">Retail</w:t>`)
	assert.Contains(t, doc, `<w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t xml:space="preserve">Industry Insights</w:t>`)
	assert.Contains(t, doc, `<w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t xml:space="preserve">AI Use Cases</w:t>`)
	assert.Contains(t, doc, `<w:pStyle w:val="Heading2"/></w:pPr><w:r><w:t xml:space="preserve">Use Case 1: Demand Forecasting</w:t>`)
	assert.Contains(t, doc, `<w:pStyle w:val="Heading2"/></w:pPr><w:r><w:t xml:space="preserve">Summary</w:t>`)
	assert.NotContains(t, doc, "### ")
	assert.Contains(t, doc, "Two &amp; more &lt;cases&gt;.")
	assert.Contains(t, doc, `<w:r><w:br/><w:t xml:space="preserve">Stores cut queues.</w:t></w:r>`)

	assert.Equal(t, 2, strings.Count(doc, `w:val="Heading2"`))
	assert.Equal(t, 2, strings.Count(doc, `w:val="Heading1"`))
}

func TestNarrativeBlocksWithoutMarkers(t *testing.T) {
	blocks := narrativeBlocks("plain text\nsecond line\n\n\n#### not a heading\n###no space")
	require.Len(t, blocks, 2)
	assert.Equal(t, docBlock{lines: []string{"plain text", "second line"}}, blocks[0])
	assert.Equal(t, docBlock{lines: []string{"#### not a heading", "###no space"}}, blocks[1])
	assert.Empty(t, narrativeBlocks("  \n\n "))
}

func TestDocumentEmptyInput(t *testing.T) {
	art, err := Synthesize(types.NewAggregatedResultSet(nil, nil), nil, types.FormatDocument, acme)
	require.NoError(t, err)
	doc := readZipEntry(t, art.Bytes, "word/document.xml")
	assert.Contains(t, doc, "GenAI &amp; ML Use Cases for Acme Corp")
	assert.NotContains(t, doc, "Heading1")
}

func TestMarkdown(t *testing.T) {
	art, err := Synthesize(sampleSet(), sampleNarratives(), types.FormatMarkdown, acme)
	require.NoError(t, err)
	md := string(art.Bytes)

	assert.True(t, strings.HasPrefix(md, "# AI Resource Collection: Acme Corp\n"))
	assert.Contains(t, md, "## Market Research\n\n1. [Acme rivals](https://news.example/rivals) - Globex leads.\n- Error fetching results: tavily search: HTTP 500\n")
	assert.Contains(t, md, "## Datasets\n\n1. [Retail Sales](https://www.kaggle.com/datasets/acme/retail-sales)\n")
	assert.Contains(t, md, "## Code Repositories\n\n1. [acme/forecast](https://github.com/acme/forecast) - Demand forecasting\n")
	assert.Contains(t, md, "## AI Use Cases\n\n### Use Case 1: Demand Forecasting\n")
}

func TestMarkdownEscapesLinkDestinations(t *testing.T) {
	set := types.NewAggregatedResultSet([]types.ResultRecord{
		{Category: types.CategoryMarketResearch, Query: "q", Title: "Paren page", URL: "https://wiki.example/Acme_(company) notes", Source: types.ProviderTavily},
		{Category: types.CategoryMarketResearch, Query: "q", Title: "Angle page", URL: "https://x.example/a<b>", Source: types.ProviderTavily},
	}, nil)
	art, err := Synthesize(set, nil, types.FormatMarkdown, acme)
	require.NoError(t, err)
	md := string(art.Bytes)

	assert.Contains(t, md, "1. [Paren page](https://wiki.example/Acme_%28company%29%20notes)\n")
	assert.Contains(t, md, "2. [Angle page](https://x.example/a%3Cb%3E)\n")
}

func TestCitations(t *testing.T) {
	art, err := Synthesize(sampleSet(), nil, types.FormatCitations, acme)
	require.NoError(t, err)

	var items []CSLItem
	require.NoError(t, yaml.Unmarshal(art.Bytes, &items))
	require.Len(t, items, 3, "error records are not cited")
	assert.Equal(t, "tavily-1", items[0].ID)
	assert.Equal(t, "webpage", items[0].Type)
	assert.Equal(t, "https://news.example/rivals", items[0].URL)
	assert.Equal(t, "Globex leads.", items[0].Abstract)
	assert.Equal(t, "kaggle-1", items[1].ID)
	assert.Equal(t, "Code Repositories", items[2].Genre)

	empty, err := Synthesize(types.NewAggregatedResultSet(nil, nil), nil, types.FormatCitations, acme)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(empty.Bytes))
}

func TestSynthesizeErrors(t *testing.T) {
	var sErr *types.SynthesisError

	_, err := Synthesize(nil, nil, types.FormatSpreadsheet, acme)
	require.True(t, errors.As(err, &sErr))
	assert.Contains(t, err.Error(), "nil")

	_, err = Synthesize(sampleSet(), nil, types.Format("pdf"), acme)
	require.True(t, errors.As(err, &sErr))
	assert.Equal(t, types.Format("pdf"), sErr.Format)

	bad := types.NewAggregatedResultSet([]types.ResultRecord{{Title: "x", URL: "not-a-url"}}, nil)
	_, err = Synthesize(bad, nil, types.FormatDocument, acme)
	require.True(t, errors.As(err, &sErr))
	assert.Contains(t, err.Error(), "record 1")
}

func readRows(t *testing.T, data []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	return rows
}

func readZipEntry(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(b)
	}
	t.Fatalf("entry %s not found", name)
	return ""
}
