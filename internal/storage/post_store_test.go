package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blabbr/contentflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) PostStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "posts.json"))
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	posts := []*models.ScheduledPost{
		{
			ID:     "abc123",
			UserID: 7,
			Topic: models.Topic{
				Title:    "Content Marketing Basics",
				Keywords: []string{"content marketing", "SEO"},
			},
			ContentType:  models.ContentTypeBlog,
			Content:      "Some draft text",
			ScheduledFor: time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC),
			Status:       models.PostStatusScheduled,
			Platforms:    []string{models.PlatformWebsite, models.PlatformLinkedin},
			Recurrence:   models.RecurrenceOnce,
			CreatedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:           "def456",
			UserID:       7,
			ContentType:  models.ContentTypeLinkedin,
			Content:      "Another draft",
			ScheduledFor: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC),
			Status:       models.PostStatusFailed,
			Platforms:    []string{models.PlatformLinkedin},
			Recurrence:   models.RecurrenceWeekly,
			Error:        "LinkedIn API rate limit exceeded. Please try again later.",
		},
	}

	require.NoError(t, store.Save(posts))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "abc123", loaded[0].ID)
	assert.Equal(t, int64(7), loaded[0].UserID)
	assert.Equal(t, "Content Marketing Basics", loaded[0].Topic.Title)
	assert.Equal(t, []string{"content marketing", "SEO"}, loaded[0].Topic.Keywords)
	assert.True(t, loaded[0].ScheduledFor.Equal(posts[0].ScheduledFor))
	assert.Equal(t, models.PostStatusScheduled, loaded[0].Status)

	assert.Equal(t, models.PostStatusFailed, loaded[1].Status)
	assert.Equal(t, "LinkedIn API rate limit exceeded. Please try again later.", loaded[1].Error)
}

func TestFileStoreMissingFileLoadsEmpty(t *testing.T) {
	store := newTestStore(t)

	posts, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestFileStoreCorruptFileLoadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.json")
	require.NoError(t, os.WriteFile(path, []byte("{not valid json"), 0o644))

	store := NewFileStore(path)
	posts, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestFileStoreSaveNilWritesEmptyList(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(nil))

	posts, err := store.Load()
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestFileStoreClear(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save([]*models.ScheduledPost{{ID: "x"}}))
	require.NoError(t, store.Clear())

	posts, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, posts)

	// Clearing an already empty store is fine.
	require.NoError(t, store.Clear())
}

func TestFileStoreIsAvailable(t *testing.T) {
	store := newTestStore(t)
	assert.True(t, store.IsAvailable())
}
