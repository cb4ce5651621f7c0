// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// ValidationError reports a malformed ResearchRequest. It aborts a run before
// any provider call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConfigurationError reports a wiring problem: an unknown or broken query
// template, or no adapter registered for a category the run needs.
type ConfigurationError struct {
	Category Category
	Reason   string
}

func (e *ConfigurationError) Error() string {
	if e.Category == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error for %s: %s", e.Category, e.Reason)
}

// ProviderError describes a failed external call. Adapters render it into an
// error record; it never leaves the adapter.
type ProviderError struct {
	Provider   Provider
	Op         string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Provider, e.Op)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": HTTP %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

// SynthesisError reports input the synthesizer cannot render. Given the
// aggregator's guarantees it indicates an internal bug.
type SynthesisError struct {
	Format Format
	Reason string
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesizing %s: %s", e.Format, e.Reason)
}
