// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		rec     ResultRecord
		wantErr string
	}{
		{
			name: "valid success record",
			rec:  ResultRecord{Title: "Acme 10-K", URL: "https://acme.example/10k", Source: ProviderTavily},
		},
		{
			name: "valid error record",
			rec:  ResultRecord{IsError: true, ErrorMessage: "tavily search: HTTP 500", URL: PlaceholderURL, Source: ProviderTavily},
		},
		{
			name:    "error record without message",
			rec:     ResultRecord{IsError: true, URL: PlaceholderURL, Source: ProviderTavily},
			wantErr: "no message",
		},
		{
			name:    "error record with real link",
			rec:     ResultRecord{IsError: true, ErrorMessage: "boom", URL: "https://x.example", Source: ProviderBrave},
			wantErr: "want \"N/A\"",
		},
		{
			name:    "success record with message",
			rec:     ResultRecord{Title: "t", URL: "https://x.example", ErrorMessage: "oops"},
			wantErr: "not marked as error",
		},
		{
			name:    "success record without title",
			rec:     ResultRecord{URL: "https://x.example"},
			wantErr: "empty title",
		},
		{
			name:    "relative reference",
			rec:     ResultRecord{Title: "t", URL: "/datasets/foo"},
			wantErr: "malformed reference",
		},
		{
			name:    "placeholder on success record",
			rec:     ResultRecord{Title: "t", URL: PlaceholderURL},
			wantErr: "malformed reference",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIsWebURL(t *testing.T) {
	assert.True(t, IsWebURL("https://github.com/acme/repo"))
	assert.True(t, IsWebURL("http://example.com"))
	assert.False(t, IsWebURL("ftp://example.com"))
	assert.False(t, IsWebURL("example.com"))
	assert.False(t, IsWebURL(""))
	assert.False(t, IsWebURL("https://"))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"spreadsheet", FormatSpreadsheet},
		{"XLSX", FormatSpreadsheet},
		{"document", FormatDocument},
		{"docx", FormatDocument},
		{" md ", FormatMarkdown},
		{"csl", FormatCitations},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" Market_Research ")
	require.NoError(t, err)
	assert.Equal(t, CategoryMarketResearch, c)
	assert.Equal(t, "Market Research", c.Label())

	_, err = ParseCategory("weather")
	assert.Error(t, err)
}

func TestAggregatedResultSetIsReadOnly(t *testing.T) {
	records := []ResultRecord{
		{Category: CategoryMarketResearch, Title: "a", URL: "https://a.example"},
		{Category: CategoryRepoLookup, IsError: true, ErrorMessage: "down", URL: PlaceholderURL},
	}
	outcomes := []QueryOutcome{{Failed: false}, {Failed: true}}
	set := NewAggregatedResultSet(records, outcomes)

	records[0].Title = "mutated"
	got := set.Records()
	assert.Equal(t, "a", got[0].Title, "set must not share the caller's slice")

	got[0].Title = "mutated again"
	assert.Equal(t, "a", set.Records()[0].Title, "Records must return a copy")

	assert.Equal(t, 2, set.Len())
	assert.Equal(t, 1, set.FailedCalls())
	assert.Len(t, set.ByCategory(CategoryRepoLookup), 1)
}

func TestNilAggregatedResultSet(t *testing.T) {
	var set *AggregatedResultSet
	assert.Equal(t, 0, set.Len())
	assert.NotNil(t, set.Records())
	assert.Equal(t, 0, set.FailedCalls())
}
