package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LocalStorage implements Storage using the local filesystem
type LocalStorage struct {
	basePath string
	mu       sync.Mutex // serializes Store so checksum lookups see finished writes
}

// NewLocalStorage creates a new local filesystem storage
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{basePath: basePath}, nil
}

// Store archives the content under the bank directory. Identical content
// already archived for the bank is not written twice.
func (s *LocalStorage) Store(ctx context.Context, bank, filename, contentType string, r io.Reader) (*FileInfo, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bankDir := s.bankDir(bank)
	if err := os.MkdirAll(bankDir, 0755); err != nil {
		return nil, false, fmt.Errorf("failed to create bank directory: %w", err)
	}

	tmp, err := os.CreateTemp(bankDir, ".upload-*")
	if err != nil {
		return nil, false, fmt.Errorf("failed to create file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hash), r)
	closeErr := tmp.Close()
	if err != nil {
		return nil, false, fmt.Errorf("failed to write file: %w", err)
	}
	if closeErr != nil {
		return nil, false, fmt.Errorf("failed to write file: %w", closeErr)
	}
	checksum := hex.EncodeToString(hash.Sum(nil))

	existing, err := s.List(ctx, bank)
	if err != nil {
		return nil, false, err
	}
	for _, info := range existing {
		if info.Checksum == checksum {
			return info, false, nil
		}
	}

	fileID := uuid.New()
	storedFilename := fmt.Sprintf("%s_%s", fileID.String()[:8], sanitizeFilename(filepath.Base(filename)))
	if err := os.Rename(tmpPath, filepath.Join(bankDir, storedFilename)); err != nil {
		return nil, false, fmt.Errorf("failed to move file into place: %w", err)
	}

	info := &FileInfo{
		ID:          fileID,
		Bank:        bank,
		Name:        filepath.Base(filename),
		Size:        size,
		ContentType: contentType,
		Checksum:    checksum,
		Path:        storedFilename,
		CreatedAt:   time.Now(),
	}

	if err := s.saveMetadata(bank, info); err != nil {
		os.Remove(filepath.Join(bankDir, storedFilename))
		return nil, false, err
	}

	return info, true, nil
}

// Open retrieves an archived file by its ID
func (s *LocalStorage) Open(ctx context.Context, bank string, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error) {
	info, err := s.GetInfo(ctx, bank, fileID)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(s.bankDir(bank), info.Path))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	return f, info, nil
}

// Delete removes an archived file and its metadata
func (s *LocalStorage) Delete(ctx context.Context, bank string, fileID uuid.UUID) error {
	info, err := s.GetInfo(ctx, bank, fileID)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(s.bankDir(bank), info.Path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	if err := os.Remove(s.metaPath(bank, fileID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete metadata: %w", err)
	}

	return nil
}

// List returns all archived files for a bank
func (s *LocalStorage) List(ctx context.Context, bank string) ([]*FileInfo, error) {
	metaDir := filepath.Join(s.bankDir(bank), ".meta")
	if _, err := os.Stat(metaDir); os.IsNotExist(err) {
		return []*FileInfo{}, nil
	}

	entries, err := os.ReadDir(metaDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata: %w", err)
	}

	files := make([]*FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id, err := uuid.Parse(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}

		info, err := s.GetInfo(ctx, bank, id)
		if err != nil {
			continue
		}
		files = append(files, info)
	}

	return files, nil
}

// GetInfo returns metadata for a file without opening it
func (s *LocalStorage) GetInfo(_ context.Context, bank string, fileID uuid.UUID) (*FileInfo, error) {
	data, err := os.ReadFile(s.metaPath(bank, fileID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, fileID)
		}
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var info FileInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	return &info, nil
}

func (s *LocalStorage) bankDir(bank string) string {
	if bank == "" {
		bank = "unknown"
	}
	return filepath.Join(s.basePath, sanitizeFilename(bank))
}

func (s *LocalStorage) metaPath(bank string, fileID uuid.UUID) string {
	return filepath.Join(s.bankDir(bank), ".meta", fileID.String()+".json")
}

// saveMetadata saves file metadata to a JSON file
func (s *LocalStorage) saveMetadata(bank string, info *FileInfo) error {
	metaDir := filepath.Join(s.bankDir(bank), ".meta")
	if err := os.MkdirAll(metaDir, 0755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(s.metaPath(bank, info.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	return nil
}

// sanitizeFilename removes unsafe characters from filenames
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
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
