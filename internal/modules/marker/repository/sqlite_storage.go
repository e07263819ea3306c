package repository

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/reshetovitsme/patchnotes-feed/internal/modules/marker/domain"
	"github.com/samber/oops"
	_ "modernc.org/sqlite"
)

const markerName = "last_published"

// SQLiteStorage implements marker.Repository on a single-row SQLite table
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) markers.db under basePath
func NewSQLiteStorage(basePath string) (Repository, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, oops.With("base_path", basePath, "context", "failed to create storage directory").Wrap(err)
	}

	path := filepath.Join(basePath, "markers.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, oops.With("path", path, "context", "failed to open database").Wrap(err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS markers (
			name       TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`); err != nil {
		db.Close()
		return nil, oops.With("path", path, "context", "failed to create markers table").Wrap(err)
	}

	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) Load(ctx context.Context) (domain.Marker, error) {
	var marker domain.Marker
	var updatedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT value, updated_at FROM markers WHERE name = ?`, markerName,
	).Scan(&marker.Value, &updatedAt)
	if err == sql.ErrNoRows {
		return domain.Marker{}, nil
	}
	if err != nil {
		return domain.Marker{}, oops.With("context", "failed to query marker").Wrap(err)
	}

	marker.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return marker, nil
}

// Save upserts the marker row
func (s *SQLiteStorage) Save(ctx context.Context, marker domain.Marker) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO markers (name, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		markerName, marker.Value, marker.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return oops.With("marker", marker.Value, "context", "failed to upsert marker").Wrap(err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
