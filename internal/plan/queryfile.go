// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package plan

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

// QueryFile is the on-disk representation of a planned query list. It lets
// a plan be reviewed or diffed before any provider is called.
type QueryFile struct {
	Request types.ResearchRequest `yaml:"request"`
	Queries []types.Query         `yaml:"queries"`
	Summary QuerySummary          `yaml:"summary"`
}

// QuerySummary stores plan statistics and a timestamp.
type QuerySummary struct {
	Total      int                    `yaml:"total"`
	ByCategory map[types.Category]int `yaml:"by_category"`
	Timestamp  time.Time              `yaml:"timestamp"`
}

// TemplateFile holds a template set in the same shape as the planner
// section of the config file.
type TemplateFile struct {
	Templates []types.TemplateConfig `yaml:"templates"`
}

// WriteQueryFile saves a request and its planned queries to a YAML file.
func WriteQueryFile(path string, req types.ResearchRequest, queries []types.Query) error {
	qf := QueryFile{
		Request: req,
		Queries: queries,
		Summary: QuerySummary{
			Total:      len(queries),
			ByCategory: make(map[types.Category]int),
			Timestamp:  time.Now().UTC(),
		},
	}
	for _, q := range queries {
		qf.Summary.ByCategory[q.Category]++
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}

// WriteTemplateFile saves a template set to a YAML file.
func WriteTemplateFile(path string, templates []types.TemplateConfig) error {
	data, err := yaml.Marshal(&TemplateFile{Templates: templates})
	if err != nil {
		return fmt.Errorf("marshaling template file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadTemplateFile loads a template set and checks that it compiles.
func ReadTemplateFile(path string) ([]types.TemplateConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template file: %w", err)
	}
	var tf TemplateFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing template file: %w", err)
	}
	if _, err := New(tf.Templates); err != nil {
		return nil, fmt.Errorf("template file %s: %w", path, err)
	}
	return tf.Templates, nil
}
