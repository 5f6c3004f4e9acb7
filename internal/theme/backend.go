package theme

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// MemoryBackend keeps the preference for the life of the process.
type MemoryBackend struct {
	mu    sync.Mutex
	theme Theme
}

func (m *MemoryBackend) Load() (Theme, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.theme == "" {
		return "", ErrNoPreference
	}
	return m.theme, nil
}

func (m *MemoryBackend) Save(t Theme) error {
	m.mu.Lock()
	m.theme = t
	m.mu.Unlock()
	return nil
}

// FileBackend stores the preference as JSON in a file.
type FileBackend struct {
	Path string
}

type fileData struct {
	Theme Theme `json:"theme"`
}

// DefaultPath returns <user config dir>/chessclient/theme.json.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "chessclient", "theme.json"), nil
}

func (f FileBackend) Load() (Theme, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNoPreference
	}
	if err != nil {
		return "", err
	}
	var d fileData
	if err := json.Unmarshal(b, &d); err != nil {
		return "", fmt.Errorf("decode %s: %w", f.Path, err)
	}
	if d.Theme == "" {
		return "", ErrNoPreference
	}
	return d.Theme, nil
}

func (f FileBackend) Save(t Theme) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return err
	}
	b, err := json.Marshal(fileData{Theme: t})
	if err != nil {
		return err
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.Path)
}
