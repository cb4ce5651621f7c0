// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

func TestQueryFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	req := types.ResearchRequest{EntityName: "Acme", Domain: "Retail"}
	queries, err := Default().PlanRequest(req)
	require.NoError(t, err)

	require.NoError(t, WriteQueryFile(path, req, queries))
	qf, err := ReadQueryFile(path)
	require.NoError(t, err)

	assert.Equal(t, req, qf.Request)
	assert.Equal(t, queries, qf.Queries)
	assert.Equal(t, 9, qf.Summary.Total)
	assert.Equal(t, 5, qf.Summary.ByCategory[types.CategoryMarketResearch])
	assert.Equal(t, 1, qf.Summary.ByCategory[types.CategoryRepoLookup])
}

func TestTemplateFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.yaml")
	require.NoError(t, WriteTemplateFile(path, DefaultTemplates))

	got, err := ReadTemplateFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultTemplates, got)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("templates:\n  - category: weather\n    text: \"{{.Domain}}\"\n"), 0o644))
	_, err = ReadTemplateFile(bad)
	var cErr *types.ConfigurationError
	assert.ErrorAs(t, err, &cErr)

	_, err = ReadTemplateFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
