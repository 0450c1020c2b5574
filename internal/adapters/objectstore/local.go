package objectstore

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Local stores list photos on the local filesystem under a base directory.
// Stored URLs use the file scheme with a path relative to the base, so a
// document's photo reference survives the base directory moving.
type Local struct {
	baseDir string
}

func NewLocal(baseDir string) (*Local, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve object store path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create object store directory: %w", err)
	}
	return &Local{baseDir: abs}, nil
}

// Remove deletes the object the URL points to. Missing objects are not an
// error so that delete cascades stay idempotent.
func (l *Local) Remove(ctx context.Context, rawURL string) error {
	if rawURL == "" {
		return nil
	}
	path, err := l.resolve(rawURL)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove object: %w", err)
	}
	return nil
}

func (l *Local) resolve(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid object url %q: %w", rawURL, err)
	}
	if u.Scheme != "" && u.Scheme != "file" {
		return "", fmt.Errorf("unsupported object url scheme %q", u.Scheme)
	}

	rel := strings.TrimPrefix(u.Path, "/")
	path := filepath.Join(l.baseDir, filepath.FromSlash(rel))
	// Refuse paths escaping the base directory.
	if path != l.baseDir && !strings.HasPrefix(path, l.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("object url %q escapes store root", rawURL)
	}
	return path, nil
}
