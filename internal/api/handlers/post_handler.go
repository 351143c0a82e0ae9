package handlers

import (
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/blabbr/contentflow/internal/models"
	"github.com/blabbr/contentflow/internal/scheduler"
	"github.com/blabbr/contentflow/internal/service"
	"github.com/blabbr/contentflow/internal/transfer"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const scheduledTimeLayout = "2006-01-02T15:04"

type PostHandler struct {
	sched  *scheduler.Service
	assets service.AssetService
}

func NewPostHandler(sched *scheduler.Service, assets service.AssetService) *PostHandler {
	return &PostHandler{sched: sched, assets: assets}
}

// CreatePost accepts a multipart form so image attachments ride along with
// the post fields. Everything is validated before any upload happens.
func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	form, err := c.MultipartForm()
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse form",
		})
	}

	creation := transfer.PostCreation{
		Title:         c.FormValue("title"),
		ContentType:   c.FormValue("content_type"),
		Content:       c.FormValue("content"),
		ScheduledTime: c.FormValue("scheduled_time"),
		Recurrence:    c.FormValue("recurrence"),
	}

	if keywordsStr := c.FormValue("keywords"); keywordsStr != "" {
		if err := json.Unmarshal([]byte(keywordsStr), &creation.Keywords); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "keywords must be a JSON array of strings",
			})
		}
	}
	if platformsStr := c.FormValue("platforms"); platformsStr != "" {
		if err := json.Unmarshal([]byte(platformsStr), &creation.Platforms); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "platforms must be a JSON array of strings",
			})
		}
	}

	if strings.TrimSpace(creation.Title) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "topic title is required",
		})
	}
	if strings.TrimSpace(creation.Content) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "content is required",
		})
	}
	if !models.ValidContentType(creation.ContentType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "content type is not valid",
		})
	}
	if len(creation.Platforms) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "at least one platform is required",
		})
	}
	for _, platform := range creation.Platforms {
		if !models.ValidPlatform(platform) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "platform " + platform + " is not supported",
			})
		}
	}

	scheduledFor, err := time.ParseInLocation(scheduledTimeLayout, creation.ScheduledTime, time.Local)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "scheduled_time must be in YYYY-MM-DDTHH:MM format",
		})
	}

	recurrence := creation.Recurrence
	if recurrence == "" {
		recurrence = models.RecurrenceOnce
	}
	if !models.ValidRecurrence(recurrence) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "recurrence is not valid",
		})
	}

	files := form.File["images"]
	if len(files) > models.MaxPostImages {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "a post can carry at most 5 images",
		})
	}

	images, err := h.assets.UploadImages(c.Context(), files)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to create post",
		})
	}

	post := &models.ScheduledPost{
		ID:     id,
		UserID: userID,
		Topic: models.Topic{
			Title:    creation.Title,
			Keywords: creation.Keywords,
		},
		ContentType:  creation.ContentType,
		Content:      creation.Content,
		ScheduledFor: scheduledFor,
		Status:       models.PostStatusScheduled,
		Platforms:    creation.Platforms,
		Recurrence:   recurrence,
		Images:       images,
		CreatedAt:    time.Now(),
	}

	if err := h.sched.SchedulePost(post); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to save post",
		})
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.Query("id")

	if postID != "" {
		post, err := h.ownedPost(postID, userID)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Post not found",
			})
		}
		return c.Status(fiber.StatusOK).JSON(post)
	}

	posts, err := h.sched.Posts(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list posts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) UpdatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var update transfer.PostUpdate
	if err := c.BodyParser(&update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	if _, err := h.ownedPost(update.ID, userID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Post not found",
		})
	}

	err := h.sched.UpdatePost(update.ID, func(post *models.ScheduledPost) error {
		if update.Content != "" {
			post.Content = update.Content
		}
		if update.ScheduledTime != "" {
			scheduledFor, err := time.ParseInLocation(scheduledTimeLayout, update.ScheduledTime, time.Local)
			if err != nil {
				return err
			}
			post.ScheduledFor = scheduledFor
		}
		if len(update.Platforms) > 0 {
			for _, platform := range update.Platforms {
				if !models.ValidPlatform(platform) {
					return fiber.NewError(fiber.StatusBadRequest, "platform "+platform+" is not supported")
				}
			}
			post.Platforms = update.Platforms
		}
		if update.Recurrence != "" {
			if !models.ValidRecurrence(update.Recurrence) {
				return fiber.NewError(fiber.StatusBadRequest, "recurrence is not valid")
			}
			post.Recurrence = update.Recurrence
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *PostHandler) RetryPost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.Query("id")

	if _, err := h.ownedPost(postID, userID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Post not found",
		})
	}

	if err := h.sched.RetryPost(postID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.Query("id")

	if _, err := h.ownedPost(postID, userID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Post not found",
		})
	}

	if err := h.sched.DeletePost(postID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to remove post",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

// TriggerCheck forces a check cycle outside the periodic schedule.
func (h *PostHandler) TriggerCheck(c *fiber.Ctx) error {
	h.sched.CheckNow()
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Check triggered",
	})
}

func (h *PostHandler) SchedulerStatus(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"running":           h.sched.Running(),
		"storage_available": h.sched.StorageAvailable(),
	})
}

func (h *PostHandler) ownedPost(postID string, userID int64) (*models.ScheduledPost, error) {
	if postID == "" {
		return nil, scheduler.ErrPostNotFound
	}
	post, err := h.sched.GetPost(postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, scheduler.ErrPostNotFound
	}
	return post, nil
}
