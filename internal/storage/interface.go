package storage

import (
	"context"
	"errors"
	"io"

	"amicale-intake-backend/internal/domain"
)

var (
	ErrDisallowedType = errors.New("file type not allowed")
	ErrFileTooLarge   = errors.New("file exceeds maximum size")
)

// DocumentStore persists the documents attached to a membership request
type DocumentStore interface {
	// Save writes the upload for slot and returns the stored name
	// ("{id}_{slot}.{ext}"). An existing file with the same name is replaced.
	Save(ctx context.Context, requestID int64, slot domain.DocumentSlot, filename string, content io.Reader) (string, error)

	// Exists checks if a stored file exists and returns its size
	Exists(ctx context.Context, name string) (exists bool, size int64, err error)

	// Open opens a stored file for reading
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Remove deletes a stored file. Missing files are not an error.
	Remove(ctx context.Context, name string) error
}
