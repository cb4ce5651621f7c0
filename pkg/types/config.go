// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by adapters that make network requests.
type HTTPConfig struct {
	// Timeout bounds a single provider call, including retries.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "usecase-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// ProvidersConfig selects and tunes the provider adapters.
type ProvidersConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Search selects the web search backend: tavily or brave.
	Search Provider `json:"search" yaml:"search" mapstructure:"search"`

	// Generator selects the generative-text backend: gemini or anthropic.
	Generator Provider `json:"generator" yaml:"generator" mapstructure:"generator"`

	GeminiModel    string `json:"gemini_model" yaml:"gemini_model" mapstructure:"gemini_model"`
	AnthropicModel string `json:"anthropic_model" yaml:"anthropic_model" mapstructure:"anthropic_model"`

	// SearchTopK truncates search-style responses (default 3).
	SearchTopK int `json:"search_top_k" yaml:"search_top_k" mapstructure:"search_top_k"`

	// CatalogTopK truncates catalog-style responses (default 5).
	CatalogTopK int `json:"catalog_top_k" yaml:"catalog_top_k" mapstructure:"catalog_top_k"`

	// MaxRetries is the number of retries on HTTP 429 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// Credentials carries provider API keys. They are resolved outside the core
// and passed to adapter constructors.
type Credentials struct {
	TavilyAPIKey    string `json:"-" yaml:"-"`
	BraveAPIKey     string `json:"-" yaml:"-"`
	GeminiAPIKey    string `json:"-" yaml:"-"`
	AnthropicAPIKey string `json:"-" yaml:"-"`
	KaggleUsername  string `json:"-" yaml:"-"`
	KaggleKey       string `json:"-" yaml:"-"`
	GitHubToken     string `json:"-" yaml:"-"`
}

// TemplateConfig is one category-tagged query template.
type TemplateConfig struct {
	Category string `json:"category" yaml:"category" mapstructure:"category"`
	Text     string `json:"text" yaml:"text" mapstructure:"text"`
}

// PlannerConfig holds the query template set. An empty list selects the
// built-in templates.
type PlannerConfig struct {
	Templates []TemplateConfig `json:"templates" yaml:"templates" mapstructure:"templates"`

	// TemplateFile, when set, loads the templates from a YAML file instead.
	TemplateFile string `json:"template_file,omitempty" yaml:"template_file,omitempty" mapstructure:"template_file"`
}

// PipelineConfig holds orchestration settings.
type PipelineConfig struct {
	// Parallelism is the number of provider calls in flight. Values below 2
	// select sequential dispatch.
	Parallelism int `json:"parallelism" yaml:"parallelism" mapstructure:"parallelism"`

	// Formats lists the artifacts produced per run.
	Formats []string `json:"formats" yaml:"formats" mapstructure:"formats"`
}

// HistoryConfig locates the run history database.
type HistoryConfig struct {
	// Path is the SQLite database file (default "output/history.db").
	// An empty value disables history.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// OutputConfig selects where the CLI and server store artifacts.
type OutputConfig struct {
	// Dir is the local directory for artifacts and manifests.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// GCSBucket, when set, uploads artifacts to this bucket instead of Dir.
	GCSBucket string `json:"gcs_bucket,omitempty" yaml:"gcs_bucket,omitempty" mapstructure:"gcs_bucket"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr           string   `json:"addr" yaml:"addr" mapstructure:"addr"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// Config groups all settings of the application.
type Config struct {
	Providers ProvidersConfig `json:"providers" yaml:"providers" mapstructure:"providers"`
	Planner   PlannerConfig   `json:"planner" yaml:"planner" mapstructure:"planner"`
	Pipeline  PipelineConfig  `json:"pipeline" yaml:"pipeline" mapstructure:"pipeline"`
	History   HistoryConfig   `json:"history" yaml:"history" mapstructure:"history"`
	Output    OutputConfig    `json:"output" yaml:"output" mapstructure:"output"`
	Server    ServerConfig    `json:"server" yaml:"server" mapstructure:"server"`
}
