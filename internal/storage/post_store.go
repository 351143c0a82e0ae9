package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/blabbr/contentflow/internal/models"
)

// PostStore persists the scheduled post collection as a single snapshot.
// Load tolerates a missing or corrupted snapshot by returning an empty list
// so the scheduler can always start.
type PostStore interface {
	Save(posts []*models.ScheduledPost) error
	Load() ([]*models.ScheduledPost, error)
	Clear() error
	IsAvailable() bool
}

type fileStore struct {
	path string
}

func NewFileStore(path string) PostStore {
	return &fileStore{path: path}
}

func (s *fileStore) Save(posts []*models.ScheduledPost) error {
	if posts == nil {
		posts = []*models.ScheduledPost{}
	}

	data, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("failed to serialize posts: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		slog.Info(err.Error())
		return err
	}

	// Write through a temp file so a crash mid-write never corrupts the
	// existing snapshot.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		slog.Info(err.Error())
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (s *fileStore) Load() ([]*models.ScheduledPost, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*models.ScheduledPost{}, nil
		}
		slog.Info(err.Error())
		return []*models.ScheduledPost{}, nil
	}

	var posts []*models.ScheduledPost
	if err := json.Unmarshal(data, &posts); err != nil {
		slog.Info("scheduled posts snapshot is corrupted, starting empty: " + err.Error())
		return []*models.ScheduledPost{}, nil
	}

	if posts == nil {
		posts = []*models.ScheduledPost{}
	}
	return posts, nil
}

func (s *fileStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// IsAvailable probes the backing directory with a write+delete so callers can
// warn the user and degrade instead of failing later.
func (s *fileStore) IsAvailable() bool {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false
	}

	probe := filepath.Join(dir, ".storage_probe")
	if err := os.WriteFile(probe, []byte("probe"), 0o644); err != nil {
		return false
	}
	if err := os.Remove(probe); err != nil {
		return false
	}
	return true
}
