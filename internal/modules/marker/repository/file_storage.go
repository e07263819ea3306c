package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/reshetovitsme/patchnotes-feed/internal/modules/marker/domain"
	"github.com/samber/oops"
)

// FileStorage implements marker.Repository using a JSON file
type FileStorage struct {
	path string
	mu   sync.RWMutex
}

// NewFileStorage creates a new file-based marker repository
func NewFileStorage(basePath string) (Repository, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, oops.With("base_path", basePath, "context", "failed to create storage directory").Wrap(err)
	}

	return &FileStorage{path: filepath.Join(basePath, "marker.json")}, nil
}

func (s *FileStorage) Load(_ context.Context) (domain.Marker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Marker{}, nil
		}
		return domain.Marker{}, oops.With("path", s.path, "context", "failed to read marker file").Wrap(err)
	}

	var marker domain.Marker
	if err := json.Unmarshal(data, &marker); err != nil {
		return domain.Marker{}, oops.With("path", s.path, "context", "failed to unmarshal marker").Wrap(err)
	}

	return marker, nil
}

func (s *FileStorage) Save(_ context.Context, marker domain.Marker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(marker, "", "  ")
	if err != nil {
		return oops.With("marker", marker.Value, "context", "failed to marshal marker").Wrap(err)
	}

	// Write through a temp file so a crash never leaves a truncated marker
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return oops.With("path", tmp, "context", "failed to write marker file").Wrap(err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return oops.With("path", s.path, "context", "failed to replace marker file").Wrap(err)
	}

	return nil
}

func (s *FileStorage) Close() error {
	return nil
}
