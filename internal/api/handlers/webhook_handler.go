package handlers

import (
	"errors"

	"github.com/blabbr/contentflow/internal/models"
	"github.com/blabbr/contentflow/internal/service"
	"github.com/gofiber/fiber/v2"
)

type WebhookHandler struct {
	wh service.WebhookService
	us service.UserService
}

func NewWebhookHandler(wh service.WebhookService, us service.UserService) *WebhookHandler {
	return &WebhookHandler{wh: wh, us: us}
}

func webhookErrorStatus(err error) int {
	if errors.Is(err, service.ErrWebhookNotConfigured) {
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusBadGateway
}

// Test fires a probe payload at the webhook so a user can verify their
// Make.com scenario before scheduling anything.
func (h *WebhookHandler) Test(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var body struct {
		WebhookURL string `json:"webhook_url"`
	}
	// Body is optional, an empty one falls back to the configured URL.
	_ = c.BodyParser(&body)

	user, err := h.us.GetUserInfo(c.Context(), userID)
	if err != nil {
		user = nil
	}

	message, err := h.wh.Test(c.Context(), body.WebhookURL, user)
	if err != nil {
		return c.Status(webhookErrorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": message,
	})
}

// SendContent pushes a single piece of generated content to the webhook
// without scheduling it.
func (h *WebhookHandler) SendContent(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var body struct {
		WebhookURL  string                 `json:"webhook_url"`
		Topic       models.Topic           `json:"topic"`
		ContentType string                 `json:"content_type"`
		Content     string                 `json:"content"`
		Platform    string                 `json:"platform"`
		Images      []models.UploadedImage `json:"images"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	if body.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "content is required",
		})
	}

	user, err := h.us.GetUserInfo(c.Context(), userID)
	if err != nil {
		user = nil
	}

	err = h.wh.SendContent(c.Context(), body.WebhookURL, body.Topic, body.ContentType, body.Content, body.Platform, body.Images, user)
	if err != nil {
		return c.Status(webhookErrorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Content sent to webhook",
	})
}
