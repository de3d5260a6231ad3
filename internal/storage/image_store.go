// Package storage keeps uploaded asset images on local disk.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/spec-kit/asset-tracker/internal/config"
	apperrors "github.com/spec-kit/asset-tracker/pkg/util/errorutil"
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// LocalImageStore writes images under Dir and serves them under Prefix.
type LocalImageStore struct {
	dir      string
	prefix   string
	maxBytes int64
}

// NewLocalImageStore creates the upload directory if needed.
func NewLocalImageStore(cfg config.StorageConfig) (*LocalImageStore, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	prefix := "/" + strings.Trim(cfg.PublicPrefix, "/")
	return &LocalImageStore{dir: cfg.UploadDir, prefix: prefix, maxBytes: int64(cfg.MaxUploadBytes)}, nil
}

// Dir returns the directory images are written to.
func (s *LocalImageStore) Dir() string {
	return s.dir
}

// Prefix returns the public URL prefix images are served under.
func (s *LocalImageStore) Prefix() string {
	return s.prefix
}

// Save stores an image and returns its public URL. Only image content types
// with a known extension are accepted, up to the configured size.
func (s *LocalImageStore) Save(_ context.Context, filename, contentType string, size int64, content io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !strings.HasPrefix(contentType, "image/") || !allowedExtensions[ext] {
		return "", apperrors.NewValidationError("only image files are allowed", map[string]any{"field": "image"})
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return "", apperrors.NewValidationError("image exceeds the upload size limit",
			map[string]any{"field": "image", "maxBytes": s.maxBytes})
	}

	name := "asset-" + uuid.NewString() + ext
	target := filepath.Join(s.dir, name)
	f, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}

	reader := content
	if s.maxBytes > 0 {
		reader = io.LimitReader(content, s.maxBytes+1)
	}
	written, copyErr := io.Copy(f, reader)
	closeErr := f.Close()
	if copyErr == nil && s.maxBytes > 0 && written > s.maxBytes {
		copyErr = apperrors.NewValidationError("image exceeds the upload size limit",
			map[string]any{"field": "image", "maxBytes": s.maxBytes})
	}
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(target)
		return "", err
	}
	return path.Join(s.prefix, name), nil
}

// Release deletes the image behind url. Unknown or foreign URLs are ignored.
func (s *LocalImageStore) Release(_ context.Context, url string) error {
	name, ok := strings.CutPrefix(url, s.prefix+"/")
	if !ok || name == "" || strings.ContainsAny(name, `/\`) || name == ".." {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
