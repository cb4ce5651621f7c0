// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// DefaultClaudeModel is used when ClaudeGenerator.Model is empty.
const DefaultClaudeModel = "claude-sonnet-4-20250514"

const claudeMaxTokens = 4096

// ClaudeGenerator calls the Claude Messages API.
type ClaudeGenerator struct {
	APIKey string
	Model  string
	Options
}

// Name returns the provider identifier.
func (c *ClaudeGenerator) Name() types.Provider { return types.ProviderAnthropic }

// Generate sends q.Text as one user message and joins the text blocks of
// the reply.
func (c *ClaudeGenerator) Generate(ctx context.Context, q types.Query) types.NarrativeText {
	return generate(ctx, types.ProviderAnthropic, q, c.timeout(), func(ctx context.Context) (string, error) {
		if c.APIKey == "" {
			return "", fmt.Errorf("anthropic API key: %w", ErrMissingCredential)
		}
		model := c.Model
		if model == "" {
			model = DefaultClaudeModel
		}

		body, err := json.Marshal(claudeRequest{
			Model:     model,
			MaxTokens: claudeMaxTokens,
			Messages:  []claudeMessage{{Role: "user", Content: q.Text}},
		})
		if err != nil {
			return "", fmt.Errorf("marshaling request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", c.APIKey)
		req.Header.Set("anthropic-version", "2023-06-01")

		var cr claudeResponse
		if err := doJSON(ctx, c.Options, types.ProviderAnthropic, "generate", req, &cr); err != nil {
			return "", err
		}

		var parts []string
		for _, block := range cr.Content {
			if block.Type == "text" {
				parts = append(parts, block.Text)
			}
		}
		if len(parts) == 0 {
			return "", errors.New("no text content in response")
		}
		return strings.Join(parts, "\n\n"), nil
	})
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

// claudeMessage is a single message in the Claude API conversation.
type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

// claudeContent is a content block in the Claude API response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
