// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/usecase-engine/internal/pipeline"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

// Manifest is the on-disk record of one run. It lets a report be
// re-rendered later without querying providers again.
type Manifest struct {
	RunID      string                         `yaml:"run_id"`
	Request    types.ResearchRequest          `yaml:"request"`
	Queries    []types.Query                  `yaml:"queries"`
	Steps      map[string]pipeline.StepStatus `yaml:"steps"`
	Records    []types.ResultRecord           `yaml:"records"`
	Narratives []types.NarrativeText          `yaml:"narratives,omitempty"`
	Artifacts  []ArtifactRef                  `yaml:"artifacts,omitempty"`
	Summary    ManifestSummary                `yaml:"summary"`
}

// ManifestSummary stores run statistics and timestamps.
type ManifestSummary struct {
	Outcome     string    `yaml:"outcome"`
	Records     int       `yaml:"records"`
	FailedCalls int       `yaml:"failed_calls"`
	StartedAt   time.Time `yaml:"started_at"`
	FinishedAt  time.Time `yaml:"finished_at"`
}

// ManifestName is the manifest file name for a run.
func ManifestName(runID string) string {
	return "run-" + runID + ".yaml"
}

// NewManifest captures res and its stored artifacts.
func NewManifest(res *pipeline.Result, artifacts []ArtifactRef) *Manifest {
	return &Manifest{
		RunID:      res.RunID,
		Request:    res.Request,
		Queries:    res.Queries,
		Steps:      res.Steps,
		Records:    res.ResultSet.Records(),
		Narratives: res.Narratives,
		Artifacts:  artifacts,
		Summary: ManifestSummary{
			Outcome:     res.Summary(),
			Records:     res.ResultSet.Len(),
			FailedCalls: res.FailedCalls,
			StartedAt:   res.StartedAt,
			FinishedAt:  res.FinishedAt,
		},
	}
}

// Marshal encodes the manifest as YAML.
func (m *Manifest) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshaling manifest: %w", err)
	}
	return data, nil
}

// WriteManifest saves m to dir/run-<id>.yaml and returns the path.
func WriteManifest(dir string, m *Manifest) (string, error) {
	data, err := m.Marshal()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating manifest directory: %w", err)
	}
	path := filepath.Join(dir, ManifestName(m.RunID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing manifest: %w", err)
	}
	return path, nil
}

// ReadManifest loads a previously saved manifest from disk.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

// ResultSet rebuilds the aggregated result set recorded in the manifest.
func (m *Manifest) ResultSet() *types.AggregatedResultSet {
	return types.NewAggregatedResultSet(m.Records, nil)
}
