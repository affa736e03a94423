// Package object abstracts where uploaded resumes and store snapshots live.
package object

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned by Open for a key that holds no object.
	ErrNotFound = errors.New("object not found")
	// ErrInvalidName rejects empty names and path traversal.
	ErrInvalidName = errors.New("invalid object name")
)

// ObjectStore saves and retrieves binary objects.
type ObjectStore interface {
	// Save stores r under namespace with a unique name derived from fileName and
	// returns the generated key and sniffed content type.
	Save(ctx context.Context, namespace string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	// Put stores r at an exact key, replacing any previous object.
	Put(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}

// NewKey builds "<namespace>/<uuid>_<fileName>" with both segments flattened
// to a single path element.
func NewKey(namespace, fileName string) (string, error) {
	dir, err := segment(namespace)
	if err != nil {
		return "", fmt.Errorf("namespace: %w", err)
	}
	name, err := segment(fileName)
	if err != nil {
		return "", fmt.Errorf("file name: %w", err)
	}
	return path.Join(dir, uuid.NewString()+"_"+name), nil
}

func segment(raw string) (string, error) {
	if strings.Contains(raw, "..") {
		return "", ErrInvalidName
	}
	s := strings.NewReplacer("/", "_", "\\", "_").Replace(strings.TrimSpace(raw))
	if s == "" {
		return "", ErrInvalidName
	}
	return s, nil
}

// Sniff detects the content type from the first 512 bytes of r and returns a
// reader that still yields the whole stream.
func Sniff(r io.Reader) (string, io.Reader, error) {
	var head [512]byte
	n, err := io.ReadFull(r, head[:])
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, fmt.Errorf("read head: %w", err)
	}
	return http.DetectContentType(head[:n]), io.MultiReader(bytes.NewReader(head[:n]), r), nil
}
