// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine runs the research pipeline and persists what a run
// produced: artifacts go to a sink, the run is recorded in the history
// database, and a YAML manifest is written next to local artifacts.
package engine

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/usecase-engine/internal/history"
	"github.com/pdiddy/usecase-engine/internal/pipeline"
	"github.com/pdiddy/usecase-engine/internal/sink"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

// Engine ties a pipeline to its storage. Sink, History and ManifestDir are
// optional; a nil or empty value skips that step.
type Engine struct {
	Pipeline    *pipeline.Pipeline
	Sink        sink.Sink
	History     *history.Store
	ManifestDir string

	// Progress receives storage progress lines. Nil discards them.
	Progress io.Writer
}

// Outcome is a finished run with the locations of its stored outputs.
type Outcome struct {
	Result    *pipeline.Result
	Artifacts []history.ArtifactRef
	Manifest  string
}

// Generate runs req and stores the results. Aborted runs are still
// recorded in history; the abort error is returned together with the
// outcome. Storage failures after a successful run are returned as errors.
func (e *Engine) Generate(ctx context.Context, req types.ResearchRequest, formats ...types.Format) (*Outcome, error) {
	w := e.Progress
	if w == nil {
		w = io.Discard
	}

	res, runErr := e.Pipeline.Run(ctx, req, formats...)
	if res == nil {
		return nil, runErr
	}
	out := &Outcome{Result: res}

	var locations []string
	if runErr == nil && e.Sink != nil {
		locs, err := sink.StoreArtifacts(ctx, e.Sink, res.Artifacts)
		if err != nil {
			return out, fmt.Errorf("storing artifacts: %w", err)
		}
		for _, loc := range locs {
			fmt.Fprintf(w, "wrote %s\n", loc)
		}
		locations = locs
	}
	out.Artifacts = history.Refs(res, locations)

	if e.ManifestDir != "" {
		path, err := history.WriteManifest(e.ManifestDir, history.NewManifest(res, out.Artifacts))
		if err != nil {
			return out, err
		}
		out.Manifest = path
		fmt.Fprintf(w, "manifest: %s\n", path)
	}

	if e.History != nil {
		if err := e.History.Save(ctx, res, out.Artifacts); err != nil {
			fmt.Fprintf(w, "warning: saving run %s to history: %v\n", res.RunID, err)
		}
	}

	return out, runErr
}
