package handlers

import (
	"github.com/blabbr/contentflow/internal/service"
	"github.com/gofiber/fiber/v2"
)

type UploadHandler struct {
	s service.AssetService
}

func NewUploadHandler(service service.AssetService) *UploadHandler {
	return &UploadHandler{s: service}
}

// UploadImages stores images ahead of post creation so the client can show
// public URLs immediately.
func (h *UploadHandler) UploadImages(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse form",
		})
	}

	files := form.File["images"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No files selected",
		})
	}

	images, err := h.s.UploadImages(c.Context(), files)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(images)
}
