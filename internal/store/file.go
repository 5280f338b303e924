package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go-jobwatch-automation/internal/dedup"
)

// FileStore keeps the seen-set as a sorted JSON array of identifiers.
type FileStore struct {
	filePath string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{filePath: path}
}

func (fs *FileStore) Path() string {
	return fs.filePath
}

// Load reads the identifier array. A missing file is an empty set; an
// unreadable or corrupt one is an empty set plus ErrPersistence.
func (fs *FileStore) Load(ctx context.Context) (dedup.SeenSet, error) {
	data, err := os.ReadFile(fs.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return dedup.NewSeenSet(), nil
		}
		return dedup.NewSeenSet(), fmt.Errorf("%w: read %s: %v", ErrPersistence, fs.filePath, err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return dedup.NewSeenSet(), fmt.Errorf("%w: parse %s: %v", ErrPersistence, fs.filePath, err)
	}
	return dedup.NewSeenSet(ids...), nil
}

// Save writes the set through a temp file and a rename so a crash never
// leaves a half-written array behind.
func (fs *FileStore) Save(ctx context.Context, seen dedup.SeenSet) error {
	data, err := json.MarshalIndent(seen.IDs(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal seen ids: %w", err)
	}

	dir := filepath.Dir(fs.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(fs.filePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write seen ids: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fs.filePath); err != nil {
		return fmt.Errorf("failed to replace %s: %w", fs.filePath, err)
	}
	return nil
}

func (fs *FileStore) Close() error {
	return nil
}
