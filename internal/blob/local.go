package blob

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// LocalStore writes blobs to a directory on the local filesystem.
type LocalStore struct {
	baseDir string
}

// NewLocalStore creates a new LocalStore rooted at baseDir, creating the
// directory if needed.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("upload directory is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

// Store writes r to baseDir/name. The reference is the sanitized name.
func (s *LocalStore) Store(ctx context.Context, r io.Reader, name string) (string, error) {
	clean, err := SanitizeName(name)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fullPath := filepath.Join(s.baseDir, clean)
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}

	counter := &countingReader{r: r}
	if _, err := io.Copy(f, counter); err != nil {
		f.Close()
		os.Remove(fullPath)
		return "", fmt.Errorf("write body: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close file: %w", err)
	}

	slog.Debug("blob stored", "store", "local", "name", clean, "bytes", counter.n)
	return clean, nil
}

var _ Store = (*LocalStore)(nil)
