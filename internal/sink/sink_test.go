// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sink

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

func TestDirPut(t *testing.T) {
	dir := t.TempDir()
	d := Dir{Path: filepath.Join(dir, "output")}

	loc, err := d.Put(context.Background(), "market_research_Acme.xlsx", "", []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "output", "market_research_Acme.xlsx"), loc)

	got, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))
}

func TestDirPutRejectsBadNames(t *testing.T) {
	d := Dir{Path: t.TempDir()}
	for _, name := range []string{"", "  ", "/", "../escape.md", "a/../../b"} {
		_, err := d.Put(context.Background(), name, "", nil)
		assert.Error(t, err, "name %q", name)
	}
}

func TestDirPutAllowsDotsInsideNames(t *testing.T) {
	d := Dir{Path: t.TempDir()}
	for _, name := range []string{"a..b.xlsx", "market_research_Amazon.com,_Inc..xlsx", "runs/v1..2/report.md"} {
		t.Run(name, func(t *testing.T) {
			loc, err := d.Put(context.Background(), name, "", []byte("x"))
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(d.Path, filepath.FromSlash(name)), loc)
			assert.FileExists(t, loc)
		})
	}
}

func TestStoreArtifacts(t *testing.T) {
	d := Dir{Path: t.TempDir()}
	arts := []types.ReportArtifact{
		{Format: types.FormatMarkdown, Bytes: []byte("# A"), SuggestedFileName: "a.md"},
		{Format: types.FormatCitations, Bytes: []byte("[]"), SuggestedFileName: "b.yaml"},
	}
	locs, err := StoreArtifacts(context.Background(), d, arts)
	require.NoError(t, err)
	require.Len(t, locs, 2)
	assert.Equal(t, "a.md", filepath.Base(locs[0]))
	assert.Equal(t, "b.yaml", filepath.Base(locs[1]))

	_, err = StoreArtifacts(context.Background(), d, []types.ReportArtifact{{SuggestedFileName: ""}})
	assert.Error(t, err)
}

func TestGCSPut(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/b/reports-bucket/o")
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(b))
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"bucket":"reports-bucket","name":"runs/a.md"}`)
	}))
	defer srv.Close()

	ctx := context.Background()
	g, err := NewGCS(ctx, " reports-bucket ", "/runs/",
		option.WithEndpoint(srv.URL+"/storage/v1/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	loc, err := g.Put(ctx, "a.md", "text/markdown", []byte("# Report"))
	require.NoError(t, err)
	assert.Equal(t, "gs://reports-bucket/runs/a.md", loc)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 1)
	assert.True(t, strings.Contains(bodies[0], "# Report"))
	assert.True(t, strings.Contains(bodies[0], "runs/a.md"))
}

func TestGCSPutServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"forbidden"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	ctx := context.Background()
	g, err := NewGCS(ctx, "b", "", option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication(), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = g.Put(ctx, "x.md", "", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `write gcs object "x.md"`)
}

func TestNewGCSRequiresBucket(t *testing.T) {
	_, err := NewGCS(context.Background(), " ", "")
	assert.Error(t, err)
}
