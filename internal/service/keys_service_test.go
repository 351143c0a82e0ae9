package service

import (
	"context"
	"testing"

	"github.com/blabbr/contentflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKeyRepo struct {
	keys    []*models.ApiKey
	created int
}

func (f *fakeKeyRepo) GetByKey(ctx context.Context, apiKey string) (*int64, bool, error) {
	for _, k := range f.keys {
		if k.ApiKey == apiKey {
			id := k.UserID
			return &id, true, nil
		}
	}
	return nil, false, nil
}
func (f *fakeKeyRepo) GetByUserID(ctx context.Context, userID int64) ([]*models.ApiKey, error) {
	return f.keys, nil
}
func (f *fakeKeyRepo) Create(ctx context.Context, apiKey *models.ApiKey) (int64, error) {
	f.created++
	return int64(f.created), nil
}
func (f *fakeKeyRepo) CheckByUserID(ctx context.Context, keyID, userID int64) (bool, error) {
	for _, k := range f.keys {
		if k.ID == keyID && k.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}
func (f *fakeKeyRepo) Remove(ctx context.Context, id int64) error { return nil }

func TestCreateApiKeyEnforcesLimit(t *testing.T) {
	repo := &fakeKeyRepo{}
	svc := NewApiKeyService(repo)

	require.NoError(t, svc.Create(context.Background(), 7))
	assert.Equal(t, 1, repo.created)

	for i := 0; i < 5; i++ {
		repo.keys = append(repo.keys, &models.ApiKey{ID: int64(i + 1), UserID: 7})
	}

	err := svc.Create(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit")
	assert.Equal(t, 1, repo.created)
}

func TestGetUserIDByApiKey(t *testing.T) {
	repo := &fakeKeyRepo{keys: []*models.ApiKey{{ID: 1, UserID: 7, ApiKey: "k-abc"}}}
	svc := NewApiKeyService(repo)

	userID, err := svc.GetUserID(context.Background(), "k-abc")
	require.NoError(t, err)
	assert.Equal(t, int64(7), userID)

	_, err = svc.GetUserID(context.Background(), "missing")
	assert.Error(t, err)
}

func TestRemoveAPIKeyChecksOwnership(t *testing.T) {
	repo := &fakeKeyRepo{keys: []*models.ApiKey{{ID: 1, UserID: 7, ApiKey: "k-abc"}}}
	svc := NewApiKeyService(repo)

	require.NoError(t, svc.RemoveAPIKey(context.Background(), 7, 1))
	assert.Error(t, svc.RemoveAPIKey(context.Background(), 8, 1))
}
