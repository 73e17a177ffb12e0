package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/nulzo/image-router-mcp/internal/asset"
)

// Store writes generated images to disk. Each call names its own target
// directory; an empty directory falls back to the configured default, and an
// empty default means the current working directory.
type Store struct {
	client     *http.Client
	defaultDir string
}

func NewStore(client *http.Client, defaultDir string) *Store {
	if client == nil {
		client = http.DefaultClient
	}
	return &Store{client: client, defaultDir: defaultDir}
}

// SaveBytes persists raw image bytes under a generated filename and returns
// the written path.
func (s *Store) SaveBytes(dir, mimeType string, data []byte) (string, error) {
	target, err := s.ensureDir(dir)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("image-%s%s", uuid.NewString(), asset.ExtensionFor(mimeType))
	path := filepath.Join(target, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return path, nil
}

// SaveRef persists one aggregator image reference, which arrives either as
// an inline data URI or a plain URL, exactly as the upstream returned it.
func (s *Store) SaveRef(ctx context.Context, dir, ref string) (string, error) {
	if strings.HasPrefix(ref, "data:") {
		mime, data, err := asset.DecodeDataURI(ref)
		if err != nil {
			return "", err
		}
		return s.SaveBytes(dir, mime, data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build image download: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return s.SaveBytes(dir, resp.Header.Get("Content-Type"), data)
}

func (s *Store) ensureDir(dir string) (string, error) {
	if dir == "" {
		dir = s.defaultDir
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return dir, nil
}
