package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	config "github.com/blabbr/contentflow/configs"
	"github.com/blabbr/contentflow/internal/models"
)

var (
	// ErrWebhookNotConfigured is a configuration error, never retried.
	ErrWebhookNotConfigured = errors.New("webhook URL is not configured. Please add the MAKE_WEBHOOK_URL environment variable or save one in settings")

	// ErrNoScenarioListening means the webhook exists but nothing consumes it.
	ErrNoScenarioListening = errors.New("there is no active scenario in Make.com listening for this webhook. Please check your Make.com setup")
)

type WebhookService interface {
	SendScheduledPost(ctx context.Context, webhookURL string, post *models.ScheduledPost, user *models.User) error
	SendContent(ctx context.Context, webhookURL string, topic models.Topic, contentType, content, platform string, images []models.UploadedImage, user *models.User) error
	Test(ctx context.Context, webhookURL string, user *models.User) (string, error)
}

type webhookService struct {
	cfg    config.Config
	client *http.Client
}

func NewWebhookService(cfg config.Config) WebhookService {
	return &webhookService{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// SendScheduledPost relays the full post payload. The scheduledTime block
// duplicates the timestamp in several formats because downstream scenarios
// consume whichever one they can parse.
func (s *webhookService) SendScheduledPost(ctx context.Context, webhookURL string, post *models.ScheduledPost, user *models.User) error {
	payload := map[string]interface{}{
		"scheduledPost": map[string]interface{}{
			"id": post.ID,
			"topic": map[string]interface{}{
				"title":    post.Topic.Title,
				"keywords": post.Topic.Keywords,
			},
			"contentType":  post.ContentType,
			"content":      post.Content,
			"scheduledFor": post.ScheduledFor.Format(time.RFC3339),
			"scheduledTime": map[string]interface{}{
				"timestamp": post.ScheduledFor.UnixMilli(),
				"iso":       post.ScheduledFor.Format(time.RFC3339),
				"formatted": post.ScheduledFor.Format("1/2/2006, 3:04:05 PM"),
				"date":      post.ScheduledFor.Format("1/2/2006"),
				"time":      post.ScheduledFor.Format("3:04:05 PM"),
			},
			"platforms":           post.Platforms,
			"recurrence":          post.Recurrence,
			"images":              post.Images,
			"createdAt":           post.CreatedAt.Format(time.RFC3339),
			"isAutomatedSchedule": true,
		},
	}

	_, err := s.send(ctx, webhookURL, payload, user)
	return err
}

func (s *webhookService) SendContent(ctx context.Context, webhookURL string, topic models.Topic, contentType, content, platform string, images []models.UploadedImage, user *models.User) error {
	title := topic.Title
	if title == "" {
		title = "Untitled Topic"
	}

	payload := map[string]interface{}{
		"content": map[string]interface{}{
			"topic":       title,
			"contentType": contentType,
			"text":        content,
			"keywords":    topic.Keywords,
			"images":      images,
			"platform":    platform,
			"timestamp":   time.Now().Format(time.RFC3339),
		},
	}

	_, err := s.send(ctx, webhookURL, payload, user)
	return err
}

func (s *webhookService) Test(ctx context.Context, webhookURL string, user *models.User) (string, error) {
	payload := map[string]interface{}{
		"test":      true,
		"timestamp": time.Now().Format(time.RFC3339),
		"message":   "This is a test connection from the Content Generation Engine",
	}

	return s.send(ctx, webhookURL, payload, user)
}

// send posts the payload, injecting the webhook's own URL as a top-level
// field. Make.com rejects payloads that do not echo the url parameter.
func (s *webhookService) send(ctx context.Context, webhookURL string, payload map[string]interface{}, user *models.User) (string, error) {
	if webhookURL == "" {
		webhookURL = s.cfg.MakeWebhookURL
	}
	if webhookURL == "" {
		slog.Info(ErrWebhookNotConfigured.Error())
		return "", ErrWebhookNotConfigured
	}

	if user != nil {
		userBlock := map[string]interface{}{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
		}
		if user.ProfilePicture != "" {
			userBlock["image"] = user.ProfilePicture
		}
		payload["user"] = userBlock
	}

	payload["url"] = webhookURL

	body, err := json.Marshal(payload)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("failed to serialize webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("failed to send request to webhook: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text := string(respBody)
		slog.Info(fmt.Sprintf("webhook responded with status %d: %s", resp.StatusCode, text))

		if strings.Contains(text, "no scenario") || strings.Contains(text, "not found") {
			return "", ErrNoScenarioListening
		}
		if text == "" {
			text = resp.Status
		}
		return "", fmt.Errorf("error from webhook (status %d): %s", resp.StatusCode, text)
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		var parsed struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(respBody, &parsed); err == nil && parsed.Message != "" {
			return parsed.Message, nil
		}
		return "Request processed successfully", nil
	}

	if len(respBody) > 0 {
		return fmt.Sprintf("Request processed. Response: %s", string(respBody)), nil
	}
	return "Request processed successfully", nil
}
