package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"vehicle-marketplace/models"
)

// Backend persists the session between process runs.
type Backend interface {
	Load() (models.Session, error)
	Save(models.Session) error
	Clear() error
}

// FileBackend stores the session as JSON in a file readable only by the owner.
type FileBackend struct {
	path string
}

// NewFileBackend returns a backend writing to path. The file and its parent
// directory are created on the first Save.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Load reads the stored session. A missing file is an empty session.
func (b *FileBackend) Load() (models.Session, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.Session{}, nil
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("session: read %s: %w", b.path, err)
	}

	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return models.Session{}, fmt.Errorf("session: decode %s: %w", b.path, err)
	}
	return s, nil
}

// Save replaces the stored session atomically.
func (b *FileBackend) Save(s models.Session) error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o700); err != nil {
		return fmt.Errorf("session: create dir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(b.path), ".session-*")
	if err != nil {
		return fmt.Errorf("session: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("session: chmod: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("session: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("session: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("session: rename: %w", err)
	}
	return nil
}

// Clear removes the stored session.
func (b *FileBackend) Clear() error {
	if err := os.Remove(b.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("session: remove %s: %w", b.path, err)
	}
	return nil
}

// MemoryBackend keeps the session in memory only.
type MemoryBackend struct {
	mu sync.Mutex
	s  models.Session
}

func NewMemoryBackend() *MemoryBackend { return &MemoryBackend{} }

func (b *MemoryBackend) Load() (models.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.s, nil
}

func (b *MemoryBackend) Save(s models.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.s = s
	return nil
}

func (b *MemoryBackend) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.s = models.Session{}
	return nil
}
