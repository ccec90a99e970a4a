package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/getkayan/medgas/domain"
)

// FileStorage keeps one JSON document per profile next to the configured path.
type FileStorage struct {
	mu   sync.Mutex
	path string
}

func init() {
	RegisterFactory("file", newFileStorage)
}

func newFileStorage(dsn, profile string) (domain.SessionStorage, error) {
	if dsn == "" {
		return nil, fmt.Errorf("persistence: file storage requires a path")
	}
	path := dsn
	if profile != DefaultProfile {
		ext := filepath.Ext(dsn)
		path = dsn[:len(dsn)-len(ext)] + "." + profile + ext
	}
	return NewFileStorage(path), nil
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (s *FileStorage) Path() string { return s.path }

func (s *FileStorage) Load(ctx context.Context) (*domain.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	var rec domain.SessionRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("persistence: decode %s: %w", s.path, err)
	}
	return &rec, nil
}

func (s *FileStorage) Save(ctx context.Context, rec *domain.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := *rec
	row.UpdatedAt = time.Now()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return writeJSONAtomic(s.path, &row)
}

func (s *FileStorage) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// writeJSONAtomic replaces path through a rename so a reader sees either the
// old document or the new one.
func writeJSONAtomic(path string, v any) error {
	// Compact encoding keeps the raw user document byte for byte.
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}

	if err := os.Rename(tmp, path); err == nil {
		return nil
	}

	defer os.Remove(tmp)

	if runtime.GOOS == "windows" {
		_ = os.Remove(path)
		return os.Rename(tmp, path)
	}
	return os.Rename(tmp, path)
}
