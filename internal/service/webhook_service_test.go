package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	config "github.com/blabbr/contentflow/configs"
	"github.com/blabbr/contentflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPost() *models.ScheduledPost {
	return &models.ScheduledPost{
		ID:           "p1",
		Topic:        models.Topic{Title: "SEO Basics", Keywords: []string{"SEO"}},
		ContentType:  models.ContentTypeBlog,
		Content:      "draft",
		ScheduledFor: time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC),
		Platforms:    []string{models.PlatformWebsite},
		Recurrence:   models.RecurrenceOnce,
		CreatedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSendScheduledPostEchoesWebhookURL(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewWebhookService(config.Config{MakeWebhookURL: server.URL})

	user := &models.User{ID: 7, Name: "Jo", Email: "jo@example.com"}
	err := svc.SendScheduledPost(context.Background(), "", testPost(), user)
	require.NoError(t, err)

	assert.Equal(t, server.URL, received["url"])

	sp, ok := received["scheduledPost"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "p1", sp["id"])
	assert.Equal(t, true, sp["isAutomatedSchedule"])

	st, ok := sp["scheduledTime"].(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, st["iso"])
	assert.NotEmpty(t, st["formatted"])

	u, ok := received["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "jo@example.com", u["email"])
}

func TestSendOverrideBeatsConfiguredURL(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewWebhookService(config.Config{MakeWebhookURL: "http://configured.invalid/hook"})

	err := svc.SendScheduledPost(context.Background(), server.URL, testPost(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
}

func TestSendNotConfigured(t *testing.T) {
	svc := NewWebhookService(config.Config{})

	err := svc.SendScheduledPost(context.Background(), "", testPost(), nil)
	assert.ErrorIs(t, err, ErrWebhookNotConfigured)
}

func TestSendDetectsNoScenarioListening(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("There is no scenario listening for this webhook."))
	}))
	defer server.Close()

	svc := NewWebhookService(config.Config{MakeWebhookURL: server.URL})

	err := svc.SendScheduledPost(context.Background(), "", testPost(), nil)
	assert.ErrorIs(t, err, ErrNoScenarioListening)
}

func TestSendOtherFailureIncludesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	svc := NewWebhookService(config.Config{MakeWebhookURL: server.URL})

	err := svc.SendScheduledPost(context.Background(), "", testPost(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "boom")
}

func TestTestReturnsScenarioMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Scenario accepted the test"}`))
	}))
	defer server.Close()

	svc := NewWebhookService(config.Config{MakeWebhookURL: server.URL})

	msg, err := svc.Test(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "Scenario accepted the test", msg)
}
