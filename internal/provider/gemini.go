// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

// geminiAPIBase is the Generative Language API root. Package-level var for
// test substitution.
var geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta"

// DefaultGeminiModel is used when GeminiGenerator.Model is empty.
const DefaultGeminiModel = "gemini-1.5-flash"

// GeminiGenerator calls the Gemini generateContent API.
type GeminiGenerator struct {
	APIKey string
	Model  string
	Options
}

// Name returns the provider identifier.
func (g *GeminiGenerator) Name() types.Provider { return types.ProviderGemini }

// Generate sends q.Text as a single user turn and returns the concatenated
// text parts of the first candidate.
func (g *GeminiGenerator) Generate(ctx context.Context, q types.Query) types.NarrativeText {
	return generate(ctx, types.ProviderGemini, q, g.timeout(), func(ctx context.Context) (string, error) {
		if g.APIKey == "" {
			return "", fmt.Errorf("gemini API key: %w", ErrMissingCredential)
		}
		model := g.Model
		if model == "" {
			model = DefaultGeminiModel
		}

		body, err := json.Marshal(geminiRequest{
			Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: q.Text}}}},
		})
		if err != nil {
			return "", fmt.Errorf("marshaling request: %w", err)
		}

		endpoint := fmt.Sprintf("%s/models/%s:generateContent", geminiAPIBase, url.PathEscape(model))
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", g.APIKey)

		var gr geminiResponse
		if err := doJSON(ctx, g.Options, types.ProviderGemini, "generate", req, &gr); err != nil {
			return "", err
		}

		if gr.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("prompt blocked: %s", gr.PromptFeedback.BlockReason)
		}
		if len(gr.Candidates) == 0 {
			return "", errors.New("no candidates in response")
		}
		var b strings.Builder
		for _, p := range gr.Candidates[0].Content.Parts {
			b.WriteString(p.Text)
		}
		return b.String(), nil
	})
}

// Gemini API JSON structures.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}
