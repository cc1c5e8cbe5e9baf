package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"amicale-intake-backend/internal/domain"
)

// LocalDocumentStore stores documents as flat files in one upload directory
type LocalDocumentStore struct {
	cfg Config
}

// NewLocalDocumentStore creates the upload directory if needed
func NewLocalDocumentStore(cfg Config) (*LocalDocumentStore, error) {
	if cfg.UploadDir == "" {
		return nil, fmt.Errorf("upload directory is required")
	}
	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalDocumentStore{cfg: cfg}, nil
}

// StoredName computes the deterministic file name for a request slot
func StoredName(requestID int64, slot domain.DocumentSlot, filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	return fmt.Sprintf("%d_%s.%s", requestID, slot, ext)
}

func (s *LocalDocumentStore) Save(ctx context.Context, requestID int64, slot domain.DocumentSlot, filename string, content io.Reader) (string, error) {
	if !s.cfg.Allowed(filepath.Ext(filename)) {
		return "", fmt.Errorf("%s: %w", filename, ErrDisallowedType)
	}

	name := StoredName(requestID, slot, filename)
	fullPath, err := s.Path(name)
	if err != nil {
		return "", err
	}

	// Write to a temp file first so a failed copy never leaves a truncated document behind
	tmp, err := os.CreateTemp(s.cfg.UploadDir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	src := content
	if s.cfg.MaxFileBytes > 0 {
		src = io.LimitReader(content, s.cfg.MaxFileBytes+1)
	}
	written, err := io.Copy(tmp, src)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if s.cfg.MaxFileBytes > 0 && written > s.cfg.MaxFileBytes {
		return "", fmt.Errorf("%s: %w", filename, ErrFileTooLarge)
	}

	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return "", fmt.Errorf("failed to store file: %w", err)
	}
	return name, nil
}

func (s *LocalDocumentStore) Exists(ctx context.Context, name string) (bool, int64, error) {
	fullPath, err := s.Path(name)
	if err != nil {
		return false, 0, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	return true, info.Size(), nil
}

func (s *LocalDocumentStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	fullPath, err := s.Path(name)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

func (s *LocalDocumentStore) Remove(ctx context.Context, name string) error {
	fullPath, err := s.Path(name)
	if err != nil {
		return err
	}

	err = os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Path returns the filesystem path for a stored name. Names that would
// escape the upload directory are rejected.
func (s *LocalDocumentStore) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", errors.New("invalid document name")
	}
	return filepath.Join(s.cfg.UploadDir, name), nil
}

// UploadDir returns the configured upload directory
func (s *LocalDocumentStore) UploadDir() string {
	return s.cfg.UploadDir
}
