// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sink stores report artifacts in a local directory or a Google
// Cloud Storage bucket.
package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"google.golang.org/api/option"
	gcsapi "google.golang.org/api/storage/v1"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

const defaultContentType = "application/octet-stream"

// Sink persists named blobs and reports where each one landed.
type Sink interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// StoreArtifacts writes every artifact under its suggested file name and
// returns the locations in the same order.
func StoreArtifacts(ctx context.Context, s Sink, artifacts []types.ReportArtifact) ([]string, error) {
	locations := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		loc, err := s.Put(ctx, a.SuggestedFileName, a.ContentType, a.Bytes)
		if err != nil {
			return locations, fmt.Errorf("storing %s: %w", a.SuggestedFileName, err)
		}
		locations = append(locations, loc)
	}
	return locations, nil
}

func cleanName(name string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(name), "/")
	if clean == "" {
		return "", errors.New("object name is required")
	}
	for _, seg := range strings.Split(clean, "/") {
		if seg == ".." {
			return "", fmt.Errorf("object name %q must not contain a .. segment", name)
		}
	}
	return clean, nil
}

// Dir writes blobs into a local directory.
type Dir struct {
	Path string
}

// Put writes data to Path/name, creating directories as needed.
func (d Dir) Put(_ context.Context, name, _ string, data []byte) (string, error) {
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(d.Path, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", dest, err)
	}
	return dest, nil
}

// GCS uploads blobs to a Cloud Storage bucket under an optional prefix.
type GCS struct {
	bucket  string
	prefix  string
	service *gcsapi.Service
}

// NewGCS creates a bucket sink. Credentials come from the environment
// unless opts supply them.
func NewGCS(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*GCS, error) {
	trimmed := strings.TrimSpace(bucket)
	if trimmed == "" {
		return nil, errors.New("gcs bucket is required")
	}
	service, err := gcsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs service: %w", err)
	}
	return &GCS{bucket: trimmed, prefix: strings.Trim(prefix, "/"), service: service}, nil
}

// Put uploads data and returns its gs:// URL.
func (g *GCS) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}
	if g.prefix != "" {
		clean = path.Join(g.prefix, clean)
	}
	if strings.TrimSpace(contentType) == "" {
		contentType = defaultContentType
	}

	object := &gcsapi.Object{Name: clean, ContentType: contentType}
	if _, err := g.service.Objects.Insert(g.bucket, object).Media(bytes.NewReader(data)).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("write gcs object %q: %w", clean, err)
	}
	return "gs://" + g.bucket + "/" + clean, nil
}
