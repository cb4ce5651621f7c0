// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"fmt"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format. The field names and structure follow the CSL-JSON/CSL-YAML schema
// so that output is consumable by Pandoc and reference managers.
type CSLItem struct {
	ID       string `yaml:"id"`
	Type     string `yaml:"type"`
	Title    string `yaml:"title"`
	URL      string `yaml:"URL"`
	Abstract string `yaml:"abstract,omitempty"`
	Genre    string `yaml:"genre,omitempty"`
	Source   string `yaml:"source,omitempty"`
	Note     string `yaml:"note,omitempty"`
}

// Citations converts the non-error records to CSL items. IDs are
// "<provider>-<n>", numbered per provider in record order.
func Citations(records []types.ResultRecord) []CSLItem {
	items := []CSLItem{}
	counts := make(map[types.Provider]int)
	for _, r := range records {
		if r.IsError {
			continue
		}
		counts[r.Source]++
		items = append(items, CSLItem{
			ID:       fmt.Sprintf("%s-%d", r.Source, counts[r.Source]),
			Type:     "webpage",
			Title:    r.Title,
			URL:      r.URL,
			Abstract: r.Snippet,
			Genre:    r.Category.Label(),
			Source:   string(r.Source),
			Note:     firstLine(r.Query),
		})
	}
	return items
}

// renderCitations writes the citations as a CSL-YAML list.
func renderCitations(records []types.ResultRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Citations(records)); err != nil {
		return nil, fmt.Errorf("encoding citations: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
