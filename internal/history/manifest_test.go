// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

func TestManifestWriteRead(t *testing.T) {
	dir := t.TempDir()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	res := sampleResult("run-42", started)
	res.Narratives = []types.NarrativeText{{SourceCategory: "AI Use Cases", Body: "### Use Case 1: Forecasting"}}

	path, err := WriteManifest(filepath.Join(dir, "runs"), NewManifest(res, Refs(res, nil)))
	require.NoError(t, err)
	assert.Equal(t, "run-run-42.yaml", filepath.Base(path))

	m, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "run-42", m.RunID)
	assert.Equal(t, res.Request, m.Request)
	assert.Equal(t, res.Queries, m.Queries)
	assert.Equal(t, res.Narratives, m.Narratives)
	assert.Equal(t, 3, m.Summary.Records)
	assert.Equal(t, 1, m.Summary.FailedCalls)
	assert.Equal(t, started, m.Summary.StartedAt)
	assert.Equal(t, 2*time.Second, m.Steps["aggregate"].Duration)
	assert.Equal(t, res.ResultSet.Records(), m.ResultSet().Records())
	require.Len(t, m.Artifacts, 1)
	assert.Equal(t, "market_research_Acme_Corp.xlsx", m.Artifacts[0].FileName)
}

func TestReadManifestErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadManifest(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("records: {not: [a list"), 0o644))
	_, err = ReadManifest(bad)
	assert.Error(t, err)
}
