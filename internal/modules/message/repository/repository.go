package repository

import (
	"github.com/reshetovitsme/patchnotes-feed/internal/modules/message/domain"
)

// Repository defines the interface for journal persistence
type Repository interface {
	SaveMessage(message *domain.Message) error
	// GetMessages returns up to limit messages, newest first
	GetMessages(limit int) ([]*domain.Message, error)
}
