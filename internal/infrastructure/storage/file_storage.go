package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/application/port"
)

// MaxDocumentSize caps a single supporting document at 10 MiB.
const MaxDocumentSize = 10 << 20

// LocalDocumentStore implements port.DocumentStore on the local filesystem.
// Documents are grouped per request under baseDir and addressed by the
// relative path returned from Save, which callers treat as opaque.
type LocalDocumentStore struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalDocumentStore creates a LocalDocumentStore rooted at baseDir.
func NewLocalDocumentStore(baseDir string, logger *zap.Logger) *LocalDocumentStore {
	return &LocalDocumentStore{
		baseDir: baseDir,
		logger:  logger,
	}
}

// Save writes the document under a per-request folder and returns the
// relative reference. The filename is sanitized before use.
func (s *LocalDocumentStore) Save(ctx context.Context, requestID int64, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("document is empty")
	}
	if len(data) > MaxDocumentSize {
		return "", fmt.Errorf("document exceeds maximum size of %d bytes", MaxDocumentSize)
	}

	relPath := filepath.Join(fmt.Sprintf("request_%d", requestID), sanitizeFilename(filename))
	fullPath := filepath.Join(s.baseDir, relPath)

	if err := s.validatePath(fullPath); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		s.logger.Error("Failed to create document directory",
			zap.String("path", filepath.Dir(fullPath)),
			zap.Error(err))
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		s.logger.Error("Failed to write document",
			zap.String("path", fullPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to write document: %w", err)
	}

	s.logger.Debug("Document saved",
		zap.Int64("request_id", requestID),
		zap.String("ref", relPath),
		zap.Int("size", len(data)))

	return relPath, nil
}

// Read returns the document content for a reference previously returned
// by Save.
func (s *LocalDocumentStore) Read(ctx context.Context, ref string) ([]byte, error) {
	fullPath := filepath.Join(s.baseDir, ref)

	if err := s.validatePath(fullPath); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		s.logger.Error("Failed to read document",
			zap.String("ref", ref),
			zap.Error(err))
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return content, nil
}

// validatePath ensures the resolved path stays within baseDir.
func (s *LocalDocumentStore) validatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return fmt.Errorf("path escapes base directory: %s", fullPath)
	}
	return nil
}

// sanitizeFilename strips directory components and replaces characters
// that are unsafe in filenames.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "document"
	}
	replacer := strings.NewReplacer(
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return replacer.Replace(name)
}

var _ port.DocumentStore = (*LocalDocumentStore)(nil)
