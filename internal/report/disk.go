package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// DiskStore writes executions as JSON files into a directory. With no
// directory configured, a temp directory is created lazily on first use.
type DiskStore struct {
	mu  sync.Mutex
	dir string
}

// NewDiskStore creates a DiskStore rooted at dir, or at a lazily-created
// temp directory if dir is empty.
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir}
}

// Save writes an execution as a JSON file to disk.
func (s *DiskStore) Save(e *Execution) error {
	dir, err := s.ensureDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling execution %s: %w", e.ID, err)
	}
	path := filepath.Join(dir, e.ID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing execution %s: %w", e.ID, err)
	}
	return nil
}

// Load reads an execution from disk.
func (s *DiskStore) Load(id string) (*Execution, error) {
	dir, err := s.ensureDir()
	if err != nil {
		return nil, err
	}
	if id == "" || filepath.Base(id) != id {
		return nil, fmt.Errorf("invalid execution id %q", id)
	}
	data, err := os.ReadFile(filepath.Join(dir, id+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading execution %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading execution %s: %w", id, err)
	}
	var e Execution
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshalling execution %s: %w", id, err)
	}
	return &e, nil
}

// Dir returns the directory executions are written to, creating it if needed.
func (s *DiskStore) Dir() (string, error) {
	return s.ensureDir()
}

func (s *DiskStore) ensureDir() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dir != "" {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return "", fmt.Errorf("creating execution directory: %w", err)
		}
		return s.dir, nil
	}
	dir, err := os.MkdirTemp("", "rxlaunch-runs-*")
	if err != nil {
		return "", fmt.Errorf("creating execution directory: %w", err)
	}
	s.dir = dir
	return dir, nil
}
