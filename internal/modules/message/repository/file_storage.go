package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/reshetovitsme/patchnotes-feed/internal/modules/message/domain"
	"github.com/samber/oops"
)

// FileStorage implements message.Repository using one JSON file per entry
type FileStorage struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileStorage creates a new file-based journal repository
func NewFileStorage(basePath string) (Repository, error) {
	messagePath := filepath.Join(basePath, "messages")
	if err := os.MkdirAll(messagePath, 0755); err != nil {
		return nil, oops.With("base_path", basePath, "context", "failed to create messages directory").Wrap(err)
	}

	return &FileStorage{basePath: messagePath}, nil
}

func (s *FileStorage) SaveMessage(message *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Zero-padded timestamps keep directory order chronological
	path := filepath.Join(s.basePath, fmt.Sprintf("%020d.json", message.Date.UnixNano()))
	data, err := json.MarshalIndent(message, "", "  ")
	if err != nil {
		return oops.With("message_id", message.ID, "context", "failed to marshal message").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return oops.With("message_id", message.ID, "path", path, "context", "failed to write message").Wrap(err)
	}
	return nil
}

func (s *FileStorage) GetMessages(limit int) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []*domain.Message{}, nil
		}
		return nil, oops.With("message_dir", s.basePath, "context", "failed to read messages directory").Wrap(err)
	}

	messages := []*domain.Message{}
	for i := len(entries) - 1; i >= 0 && len(messages) < limit; i-- {
		entry := entries[i]
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.basePath, entry.Name()))
		if err != nil {
			continue
		}

		var message domain.Message
		if err := json.Unmarshal(data, &message); err != nil {
			continue
		}

		messages = append(messages, &message)
	}

	return messages, nil
}
