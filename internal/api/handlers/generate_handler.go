package handlers

import (
	"errors"

	"github.com/blabbr/contentflow/internal/service"
	"github.com/blabbr/contentflow/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type GenerateHandler struct {
	s service.GenerateService
}

func NewGenerateHandler(service service.GenerateService) *GenerateHandler {
	return &GenerateHandler{s: service}
}

func (h *GenerateHandler) GenerateContent(c *fiber.Ctx) error {
	var req transfer.GenerateContentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	result, err := h.s.GenerateContent(c.Context(), req)
	if err != nil {
		status := fiber.StatusBadRequest
		if errors.Is(err, service.ErrGenerationNotConfigured) {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *GenerateHandler) ExtractKeywords(c *fiber.Ctx) error {
	var req transfer.ExtractKeywordsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	if req.Topic == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "topic is required",
		})
	}

	keywords, err := h.s.ExtractKeywords(c.Context(), req.Topic)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(keywords)
}
