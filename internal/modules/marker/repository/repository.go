package repository

import (
	"context"

	"github.com/reshetovitsme/patchnotes-feed/internal/modules/marker/domain"
)

// Repository persists the single publish marker
type Repository interface {
	// Load returns a zero marker when none was saved yet
	Load(ctx context.Context) (domain.Marker, error)
	Save(ctx context.Context, marker domain.Marker) error
	Close() error
}
