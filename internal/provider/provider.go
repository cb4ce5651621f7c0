// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider wraps the external information sources (web search,
// generative text, dataset catalogs, repository indexes) behind small
// capability interfaces. Every adapter returns normalized records and turns
// its own failures into error records, so callers never handle a Go error
// from a provider call.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/usecase-engine/internal/httputil"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

// Default truncation and timeout values.
const (
	SearchTopK     = 3
	CatalogTopK    = 5
	DefaultTimeout = 30 * time.Second
	MaxSnippetLen  = 500
)

// ErrMissingCredential is reported when an adapter is called without the
// key its provider requires.
var ErrMissingCredential = errors.New("missing credential")

// Adapter executes one query against one external source.
type Adapter interface {
	Name() types.Provider
	Execute(ctx context.Context, q types.Query) types.ResultSet
}

// Catalog looks up resources (datasets, repositories) for a use-case string.
type Catalog interface {
	Name() types.Provider
	Lookup(ctx context.Context, useCase string) types.ResultSet
}

// Generator produces free-form prose from a prompt query.
type Generator interface {
	Name() types.Provider
	Generate(ctx context.Context, q types.Query) types.NarrativeText
}

// Options tunes an HTTP adapter. Zero values select the defaults.
type Options struct {
	Client     *http.Client
	Timeout    time.Duration
	UserAgent  string
	MaxRetries int
	TopK       int
}

func (o Options) client() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	return http.DefaultClient
}

func (o Options) timeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return DefaultTimeout
}

func (o Options) topK(def int) int {
	if o.TopK > 0 {
		return o.TopK
	}
	return def
}

// Hit is a raw provider result before normalization.
type Hit struct {
	Title   string
	Snippet string
	URL     string
}

// Normalize maps raw hits into records for q. Hits without an absolute
// http(s) URL are skipped, an empty title falls back to the URL, snippets
// are whitespace-collapsed and cut to MaxSnippetLen runes. At most k records
// are returned; k <= 0 keeps all. The result is never nil.
func Normalize(hits []Hit, q types.Query, source types.Provider, k int) types.ResultSet {
	out := make(types.ResultSet, 0, len(hits))
	for _, h := range hits {
		if k > 0 && len(out) == k {
			break
		}
		link := strings.TrimSpace(h.URL)
		if !types.IsWebURL(link) {
			continue
		}
		title := collapse(h.Title)
		if title == "" {
			title = link
		}
		out = append(out, types.ResultRecord{
			Category: q.Category,
			Query:    q.Text,
			Title:    title,
			Snippet:  truncateRunes(collapse(h.Snippet), MaxSnippetLen),
			URL:      link,
			Source:   source,
		})
	}
	return out
}

// ErrorRecord renders err as the single error record of a failed call.
func ErrorRecord(source types.Provider, q types.Query, err error) types.ResultRecord {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	if !strings.HasPrefix(msg, string(source)) {
		msg = string(source) + ": " + msg
	}
	return types.ResultRecord{
		Category:     q.Category,
		Query:        q.Text,
		URL:          types.PlaceholderURL,
		Source:       source,
		IsError:      true,
		ErrorMessage: msg,
	}
}

// FailedNarrative is the placeholder written when generation fails.
func FailedNarrative(source types.Provider, q types.Query, err error) types.NarrativeText {
	rec := ErrorRecord(source, q, err)
	return types.NarrativeText{
		SourceCategory: q.Category.Label(),
		Body:           "Error generating content: " + rec.ErrorMessage,
		Source:         source,
		Failed:         true,
	}
}

// ForCatalog lifts a Catalog into an Adapter that looks up Query.Text.
func ForCatalog(c Catalog) Adapter {
	return catalogAdapter{c}
}

type catalogAdapter struct {
	c Catalog
}

func (a catalogAdapter) Name() types.Provider { return a.c.Name() }

func (a catalogAdapter) Execute(ctx context.Context, q types.Query) types.ResultSet {
	rs := a.c.Lookup(ctx, q.Text)
	out := make(types.ResultSet, 0, len(rs))
	for _, r := range rs {
		r.Category = q.Category
		r.Query = q.Text
		out = append(out, r)
	}
	return out
}

// execute runs fn under the adapter timeout and converts every failure mode
// (returned error, timeout, panic) into a single error record.
func execute(ctx context.Context, source types.Provider, op string, q types.Query, timeout time.Duration, fn func(ctx context.Context) (types.ResultSet, error)) (rs types.ResultSet) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			rs = types.ResultSet{ErrorRecord(source, q, &types.ProviderError{
				Provider: source, Op: op, Err: fmt.Errorf("panic: %v", p),
			})}
		}
	}()

	rs, err := fn(ctx)
	if err != nil {
		return types.ResultSet{ErrorRecord(source, q, asProviderError(source, op, timeout, err))}
	}
	if rs == nil {
		return types.ResultSet{}
	}
	return rs
}

// generate is execute for generators.
func generate(ctx context.Context, source types.Provider, q types.Query, timeout time.Duration, fn func(ctx context.Context) (string, error)) (nt types.NarrativeText) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			nt = FailedNarrative(source, q, &types.ProviderError{
				Provider: source, Op: "generate", Err: fmt.Errorf("panic: %v", p),
			})
		}
	}()

	body, err := fn(ctx)
	if err == nil && strings.TrimSpace(body) == "" {
		err = errors.New("empty response")
	}
	if err != nil {
		return FailedNarrative(source, q, asProviderError(source, "generate", timeout, err))
	}
	return types.NarrativeText{
		SourceCategory: q.Category.Label(),
		Body:           strings.TrimSpace(body),
		Source:         source,
	}
}

func asProviderError(source types.Provider, op string, timeout time.Duration, err error) error {
	var pErr *types.ProviderError
	if errors.As(err, &pErr) {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			pErr.Err = fmt.Errorf("timed out after %s", timeout)
		case errors.Is(err, context.Canceled):
			pErr.Err = errors.New("cancelled")
		}
		return pErr
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		err = fmt.Errorf("timed out after %s", timeout)
	case errors.Is(err, context.Canceled):
		err = errors.New("cancelled")
	}
	return &types.ProviderError{Provider: source, Op: op, Err: err}
}

// doJSON sends req with retries on 429 and decodes a 2xx JSON body into out.
func doJSON(ctx context.Context, o Options, source types.Provider, op string, req *http.Request, out any) error {
	if o.UserAgent != "" {
		req.Header.Set("User-Agent", o.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(ctx, o.client(), req, o.MaxRetries)
	if err != nil {
		return &types.ProviderError{Provider: source, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		pErr := &types.ProviderError{Provider: source, Op: op, StatusCode: resp.StatusCode}
		if msg := collapse(string(body)); msg != "" {
			pErr.Err = errors.New(truncateRunes(msg, 200))
		}
		return pErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &types.ProviderError{Provider: source, Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
