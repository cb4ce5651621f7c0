// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value. An optional .env file in the same directory is
// parsed with godotenv and its variables are mapped onto the same key names.
//
// Supported key files: tavily-api-key, brave-api-key, gemini-api-key, anthropic-api-key,
// kaggle-username, kaggle-key, github-token.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

// Key file names.
const (
	TavilyAPIKey    = "tavily-api-key"
	BraveAPIKey     = "brave-api-key"
	GeminiAPIKey    = "gemini-api-key"
	AnthropicAPIKey = "anthropic-api-key"
	KaggleUsername  = "kaggle-username"
	KaggleKey       = "kaggle-key"
	GitHubToken     = "github-token"
)

// EnvFile is the dotenv file name looked up inside the secrets directory.
const EnvFile = ".env"

// envKeys maps dotenv variable names to key file names.
var envKeys = map[string]string{
	"TAVILY_API_KEY":      TavilyAPIKey,
	"BRAVE_API_KEY":       BraveAPIKey,
	"GEMINI_API_KEY":      GeminiAPIKey,
	"ANTHROPIC_API_KEY":   AnthropicAPIKey,
	"KAGGLE_USERNAME":     KaggleUsername,
	"KAGGLE_KEY":          KaggleKey,
	"GITHUB_ACCESS_TOKEN": GitHubToken,
	"GITHUB_TOKEN":        GitHubToken,
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort. Values from
// dir/.env fill keys that have no file of their own.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	hasEnv := false
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == EnvFile {
			hasEnv = true
			continue
		}
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	if hasEnv {
		if err := mergeEnvFile(filepath.Join(dir, EnvFile), secrets); err != nil {
			return nil, err
		}
	}

	return secrets, nil
}

// mergeEnvFile adds recognized dotenv variables to secrets without
// overriding keys already loaded from files.
func mergeEnvFile(path string, secrets map[string]string) error {
	vars, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	for envName, value := range vars {
		key, ok := envKeys[envName]
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, exists := secrets[key]; !exists {
			secrets[key] = value
		}
	}
	return nil
}

// Credentials maps loaded secrets onto the credential set passed to provider
// constructors.
func Credentials(s map[string]string) types.Credentials {
	return types.Credentials{
		TavilyAPIKey:    s[TavilyAPIKey],
		BraveAPIKey:     s[BraveAPIKey],
		GeminiAPIKey:    s[GeminiAPIKey],
		AnthropicAPIKey: s[AnthropicAPIKey],
		KaggleUsername:  s[KaggleUsername],
		KaggleKey:       s[KaggleKey],
		GitHubToken:     s[GitHubToken],
	}
}
