package asset

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nulzo/image-router-mcp/internal/logger"
)

// Asset is a call-scoped local copy of one reference image, required only by
// the direct provider's request format. It is created lazily, owned by the
// call that materialized it, and deleted by that call's Release.
type Asset struct {
	Source   string // the original URL or data URI
	Path     string // transient file on disk
	MimeType string

	data []byte
}

// Manager materializes reference images into transient files and guarantees
// their removal.
type Manager struct {
	client *http.Client
	dir    string
}

// NewManager builds a Manager writing into dir, or the OS temp directory
// when dir is empty. The client is used for remote fetches and may carry a
// proxy transport.
func NewManager(client *http.Client, dir string) *Manager {
	if client == nil {
		client = http.DefaultClient
	}
	if dir == "" {
		dir = os.TempDir()
	}
	return &Manager{client: client, dir: dir}
}

// Materialize turns one reference image into a transient local file. Data
// URIs are decoded in place; remote URLs are fetched. A fetch or decode
// failure surfaces as an error for the current attempt, not a fatal abort.
func (m *Manager) Materialize(ctx context.Context, ref string) (*Asset, error) {
	var (
		mime string
		data []byte
		err  error
	)

	if strings.HasPrefix(ref, "data:") {
		mime, data, err = DecodeDataURI(ref)
	} else {
		mime, data, err = m.fetchRemote(ctx, ref)
	}
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("imgref-%s%s", uuid.NewString(), ExtensionFor(mime))
	path := filepath.Join(m.dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write transient image: %w", err)
	}

	return &Asset{Source: ref, Path: path, MimeType: mime, data: data}, nil
}

// Release deletes the transient file. It is nil-safe, never returns an
// error, and must never block call completion: deletion failures are logged
// and swallowed.
func (m *Manager) Release(a *Asset) {
	if a == nil || a.Path == "" {
		return
	}
	if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
		logger.Debug("transient image cleanup failed", zap.String("path", a.Path), zap.Error(err))
	}
	a.Path = ""
}

// Inline returns the base64 payload the direct provider's inlineData part
// expects. Encoding lives here because it is coupled to how the bytes were
// materialized.
func (a *Asset) Inline() (mimeType, b64 string) {
	return a.MimeType, base64.StdEncoding.EncodeToString(a.data)
}

// DecodeDataURI splits an inline data URI into its media type and decoded
// bytes. Only base64 payloads are accepted.
func DecodeDataURI(uri string) (string, []byte, error) {
	// format: data:[<media type>][;base64],<data>
	comma := strings.Index(uri, ",")
	if comma == -1 {
		return "", nil, fmt.Errorf("invalid data URI")
	}

	meta := uri[:comma]
	payload := uri[comma+1:]

	mime := "image/png"
	parts := strings.Split(meta, ";")
	if len(parts) > 0 && strings.HasPrefix(parts[0], "data:") && len(parts[0]) > 5 {
		mime = parts[0][5:]
	}

	isBase64 := false
	for _, p := range parts {
		if p == "base64" {
			isBase64 = true
			break
		}
	}
	if !isBase64 {
		return "", nil, fmt.Errorf("only base64 data URIs are supported for images")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 image payload: %w", err)
	}
	return mime, data, nil
}

func (m *Manager) fetchRemote(ctx context.Context, url string) (string, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", nil, fmt.Errorf("failed to build image fetch: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("failed to fetch image: status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || !strings.HasPrefix(contentType, "image/") {
		contentType = "image/jpeg"
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, err
	}
	return contentType, body, nil
}

// ExtensionFor maps an image media type to a file extension, defaulting to
// .png for anything unrecognized.
func ExtensionFor(mime string) string {
	switch mime {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
