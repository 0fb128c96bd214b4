// Package blob stores uploaded resume files and hands back an opaque
// reference that is recorded on the resume.
package blob

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

var ErrInvalidName = errors.New("invalid blob name")

// Store persists a blob under the given name and returns its reference.
type Store interface {
	Store(ctx context.Context, r io.Reader, name string) (string, error)
}

// SanitizeName reduces name to a single path element. Traversal patterns and
// empty names are rejected.
func SanitizeName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidName
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" || s == "." {
		return "", ErrInvalidName
	}
	return s, nil
}

// Extension returns the lowercased extension of a client supplied filename,
// keeping only ASCII letters and digits. Anything unusable yields "".
func Extension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(strings.ReplaceAll(filename, "\\", "/"))))
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" || len(ext) > 10 {
		return ""
	}
	for _, c := range ext {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ""
		}
	}
	return "." + ext
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
