package handlers

import (
	"fmt"
	"time"

	config "github.com/blabbr/contentflow/configs"
	"github.com/blabbr/contentflow/internal/service"
	"github.com/blabbr/contentflow/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type LinkedinHandler struct {
	s   service.LinkedinService
	cfg config.Config
}

func NewLinkedinHandler(cfg config.Config, service service.LinkedinService) *LinkedinHandler {
	return &LinkedinHandler{s: service, cfg: cfg}
}

// Connect starts the OAuth flow. The state carries the signed user ID so the
// callback knows which account to attach the connection to.
func (h *LinkedinHandler) Connect(c *fiber.Ctx) error {
	userID := GetUserID(c)

	state, err := utils.GenerateToken(h.cfg.SecretKey, fmt.Sprintf("%d", userID), 10*time.Minute)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	return c.Redirect(h.s.GetAuthURL(c.Context(), state))
}

func (h *LinkedinHandler) Callback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")

	if errParam := c.Query("error"); errParam != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "LinkedIn authorization was denied: " + errParam,
		})
	}

	claims, err := utils.ValidateToken(h.cfg.SecretKey, state)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid state parameter",
		})
	}

	var userID int64
	if _, err := fmt.Sscanf(claims.UserID, "%d", &userID); err != nil || userID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid state parameter",
		})
	}

	if err := h.s.Callback(c.Context(), code, userID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to connect LinkedIn account",
		})
	}

	return c.Redirect(h.cfg.FrontendURL+"/settings", fiber.StatusTemporaryRedirect)
}

func (h *LinkedinHandler) Connection(c *fiber.Ctx) error {
	userID := GetUserID(c)

	conn, err := h.s.Connection(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to check LinkedIn connection",
		})
	}

	if conn == nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"connected": false,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"connected":       conn.IsActive,
		"profile_name":    conn.ProfileName,
		"profile_email":   conn.ProfileEmail,
		"profile_picture": conn.ProfilePicture,
		"last_validated":  conn.LastValidated,
	})
}

func (h *LinkedinHandler) Disconnect(c *fiber.Ctx) error {
	userID := GetUserID(c)

	if err := h.s.Disconnect(c.Context(), userID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to disconnect LinkedIn account",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

// PostNow publishes directly, bypassing the schedule.
func (h *LinkedinHandler) PostNow(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var body struct {
		Content  string `json:"content"`
		ImageURL string `json:"image_url"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	postID, err := h.s.PostNow(c.Context(), userID, body.Content, body.ImageURL)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Posted to LinkedIn",
		"post_id": postID,
	})
}
