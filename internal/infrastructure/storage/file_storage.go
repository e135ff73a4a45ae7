// Package storage implements the attachment store contract on the local
// filesystem: it accepts a bounded set of file types up to a size limit and
// hands back a stable retrieval URL. The workflow persists only the URL.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sbkim/settlement-flow/internal/application/port"
	"github.com/sbkim/settlement-flow/internal/domain/apperr"
)

// Config holds attachment store configuration
type Config struct {
	BaseDir  string
	BaseURL  string // URL prefix stored files are served under, e.g. "/files"
	MaxBytes int64
}

var allowedContentTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

// LocalAttachmentStore implements port.AttachmentStore on local disk.
type LocalAttachmentStore struct {
	cfg    Config
	logger *zap.Logger
}

// NewLocalAttachmentStore creates a new local attachment store
func NewLocalAttachmentStore(cfg Config, logger *zap.Logger) *LocalAttachmentStore {
	return &LocalAttachmentStore{
		cfg:    cfg,
		logger: logger,
	}
}

// Store validates and writes the attachment, returning its retrieval URL.
// Files land under <baseDir>/<ownerID>/ with a generated name; the original
// file name survives only in its extension.
func (s *LocalAttachmentStore) Store(_ context.Context, ownerID, fileName, contentType string, content []byte) (*port.StoredFile, error) {
	if len(content) == 0 {
		return nil, apperr.Validationf("file is empty")
	}
	if int64(len(content)) > s.cfg.MaxBytes {
		return nil, apperr.Validationf("file exceeds the %d byte limit", s.cfg.MaxBytes)
	}
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return nil, apperr.Validationf("unsupported file type %q", contentType)
	}
	if e := strings.ToLower(filepath.Ext(fileName)); e == ".jpeg" || e == ext {
		ext = e
	}

	name := fmt.Sprintf("%d_%s%s", time.Now().UnixMilli(), uuid.NewString()[:8], ext)
	relPath := filepath.Join(ownerID, name)
	fullPath := filepath.Join(s.cfg.BaseDir, relPath)

	if err := s.validatePath(fullPath); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		s.logger.Error("Failed to create attachment directory",
			zap.String("path", filepath.Dir(fullPath)),
			zap.Error(err))
		return nil, fmt.Errorf("create attachment directory: %w", err)
	}
	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write attachment",
			zap.String("path", fullPath),
			zap.Error(err))
		return nil, fmt.Errorf("write attachment: %w", err)
	}

	s.logger.Debug("Attachment stored",
		zap.String("path", relPath),
		zap.Int("size", len(content)))

	return &port.StoredFile{
		URL:      strings.TrimRight(s.cfg.BaseURL, "/") + "/" + filepath.ToSlash(relPath),
		FileName: filepath.ToSlash(relPath),
	}, nil
}

// validatePath rejects paths escaping the base directory.
func (s *LocalAttachmentStore) validatePath(fullPath string) error {
	base, err := filepath.Abs(s.cfg.BaseDir)
	if err != nil {
		return fmt.Errorf("resolve base directory: %w", err)
	}
	abs, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, base+string(os.PathSeparator)) {
		return apperr.Validationf("invalid file path")
	}
	return nil
}

var _ port.AttachmentStore = (*LocalAttachmentStore)(nil)
