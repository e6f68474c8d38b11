// Package storage archives imported statement files on disk, partitioned by bank.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no archived file matches the requested ID.
var ErrNotFound = errors.New("archived file not found")

// FileInfo contains metadata about an archived statement
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	Bank        string    `json:"bank"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Checksum    string    `json:"checksum"` // hex sha256 of the content
	Path        string    `json:"path"`     // Internal storage path
	CreatedAt   time.Time `json:"created_at"`
}

// Storage defines the archive operations used by the import pipeline
type Storage interface {
	// Store archives a file under bank. When the same content is already
	// archived for that bank the existing metadata is returned and stored is false.
	Store(ctx context.Context, bank, filename, contentType string, r io.Reader) (info *FileInfo, stored bool, err error)

	// Open retrieves an archived file by its ID
	Open(ctx context.Context, bank string, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error)

	// Delete removes an archived file
	Delete(ctx context.Context, bank string, fileID uuid.UUID) error

	// List returns all archived files for a bank
	List(ctx context.Context, bank string) ([]*FileInfo, error)

	// GetInfo returns metadata for a file without opening it
	GetInfo(ctx context.Context, bank string, fileID uuid.UUID) (*FileInfo, error)
}

// StorageType identifies the storage backend
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeNone  StorageType = "none"
)

// Config holds storage configuration
type Config struct {
	Type      StorageType
	LocalPath string
}

// New creates a Storage implementation based on configuration. It returns a
// nil Storage when archiving is disabled.
func New(cfg Config) (Storage, error) {
	switch cfg.Type {
	case StorageTypeNone:
		return nil, nil
	case StorageTypeLocal, "":
		return NewLocalStorage(cfg.LocalPath)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.Type)
	}
}
