package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/landmarks/backend/pkg/logger"
)

// LocalStore keeps images on the local filesystem under a single root
// directory. It backs development setups and handler tests.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if !filepath.IsAbs(root) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		root = filepath.Join(cwd, root)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage/local: mkdir %s: %w", root, err)
	}
	return &LocalStore{root: root}, nil
}

func (l *LocalStore) abs(name string) (string, error) {
	cleaned := filepath.Clean(name)
	if cleaned == "." || strings.Contains(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage/local: invalid object name %q", name)
	}
	return filepath.Join(l.root, cleaned), nil
}

func (l *LocalStore) Put(_ context.Context, name string, reader io.Reader, size int64, contentType string) error {
	full, err := l.abs(name)
	if err != nil {
		return err
	}

	f, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("storage/local: create %s: %w", name, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, reader); err != nil {
		return fmt.Errorf("storage/local: write %s: %w", name, err)
	}

	logger.Info("image_uploaded", map[string]interface{}{
		"object_name":  name,
		"size":         size,
		"content_type": contentType,
		"root":         l.root,
	})
	return nil
}

func (l *LocalStore) Get(_ context.Context, name string) (io.ReadCloser, error) {
	full, err := l.abs(name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("storage/local: open %s: %w", name, err)
	}
	return f, nil
}

func (l *LocalStore) Delete(_ context.Context, name string) error {
	full, err := l.abs(name)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil {
		logger.Error("image_delete_failed", err, map[string]interface{}{
			"object_name": name,
			"root":        l.root,
		})
		return err
	}
	return nil
}
