// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/usecase-engine/internal/engine"
	"github.com/pdiddy/usecase-engine/internal/history"
	"github.com/pdiddy/usecase-engine/internal/pipeline"
	"github.com/pdiddy/usecase-engine/internal/plan"
	"github.com/pdiddy/usecase-engine/internal/provider"
	"github.com/pdiddy/usecase-engine/internal/secrets"
	"github.com/pdiddy/usecase-engine/internal/sink"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

const (
	defaultTimeout   = provider.DefaultTimeout
	defaultUserAgent = "usecase-engine/0.1"
	defaultOutputDir = "output"
)

// envKeyReplacer maps nested keys such as providers.search to
// USECASE_ENGINE_PROVIDERS_SEARCH.
var envKeyReplacer = strings.NewReplacer(".", "_")

func setDefaults(v *viper.Viper) {
	v.SetDefault("providers.timeout", defaultTimeout)
	v.SetDefault("providers.user_agent", defaultUserAgent)
	v.SetDefault("providers.search", string(types.ProviderTavily))
	v.SetDefault("providers.generator", string(types.ProviderGemini))
	v.SetDefault("providers.gemini_model", provider.DefaultGeminiModel)
	v.SetDefault("providers.anthropic_model", provider.DefaultClaudeModel)
	v.SetDefault("providers.search_top_k", provider.SearchTopK)
	v.SetDefault("providers.catalog_top_k", provider.CatalogTopK)
	v.SetDefault("providers.max_retries", 3)
	v.SetDefault("pipeline.parallelism", 1)
	v.SetDefault("pipeline.formats", []string{string(types.FormatSpreadsheet), string(types.FormatDocument)})
	v.SetDefault("history.path", filepath.Join(defaultOutputDir, "history.db"))
	v.SetDefault("output.dir", defaultOutputDir)
	v.SetDefault("server.addr", ":8080")
}

// loadConfig decodes the merged viper settings.
func loadConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Providers.Timeout <= 0 {
		cfg.Providers.Timeout = defaultTimeout
	}
	return cfg, nil
}

// parseFormats converts format names, accepting comma-separated values.
func parseFormats(names []string) ([]types.Format, error) {
	var formats []types.Format
	for _, n := range names {
		for _, part := range strings.Split(n, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			f, err := types.ParseFormat(part)
			if err != nil {
				return nil, err
			}
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// engineOptions are the per-command overrides applied on top of config.
type engineOptions struct {
	offline   bool
	noHistory bool
	outDir    string
	progress  io.Writer
}

// buildPipeline wires planner and providers from cfg.
func buildPipeline(cfg types.Config, offline bool, progress io.Writer) (*pipeline.Pipeline, error) {
	templates, err := plannerTemplates(cfg.Planner)
	if err != nil {
		return nil, err
	}
	planner, err := plan.New(templates)
	if err != nil {
		return nil, err
	}

	set := provider.Offline()
	if !offline {
		client := &http.Client{Timeout: cfg.Providers.Timeout + 5*time.Second}
		s, err := provider.FromConfig(cfg.Providers, secrets.Credentials(loadedSecrets), client)
		if err != nil {
			return nil, err
		}
		set = s
	}

	formats, err := parseFormats(cfg.Pipeline.Formats)
	if err != nil {
		return nil, fmt.Errorf("pipeline.formats: %w", err)
	}

	return pipeline.FromSet(planner, set, pipeline.Options{
		Parallelism: cfg.Pipeline.Parallelism,
		Formats:     formats,
		Progress:    progress,
	}), nil
}

// plannerTemplates returns the configured templates, read from the template
// file when one is set. Nil selects the built-in set.
func plannerTemplates(cfg types.PlannerConfig) ([]types.TemplateConfig, error) {
	if cfg.TemplateFile != "" {
		return plan.ReadTemplateFile(cfg.TemplateFile)
	}
	return cfg.Templates, nil
}

// buildEngine wires the pipeline with its sink and history store. The
// returned cleanup closes the history database.
func buildEngine(ctx context.Context, cfg types.Config, opts engineOptions) (*engine.Engine, func(), error) {
	p, err := buildPipeline(cfg, opts.offline, opts.progress)
	if err != nil {
		return nil, nil, err
	}

	outDir := cfg.Output.Dir
	if opts.outDir != "" {
		outDir = opts.outDir
	}
	if outDir == "" {
		outDir = defaultOutputDir
	}

	e := &engine.Engine{
		Pipeline:    p,
		Sink:        sink.Dir{Path: outDir},
		ManifestDir: filepath.Join(outDir, "runs"),
		Progress:    opts.progress,
	}
	if cfg.Output.GCSBucket != "" {
		g, err := sink.NewGCS(ctx, cfg.Output.GCSBucket, "reports")
		if err != nil {
			return nil, nil, err
		}
		e.Sink = g
	}

	cleanup := func() {}
	if !opts.noHistory && cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, nil, err
		}
		e.History = store
		cleanup = func() { store.Close() }
	}
	return e, cleanup, nil
}
