package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	config "github.com/blabbr/contentflow/configs"
	"github.com/blabbr/contentflow/internal/models"
	"github.com/blabbr/contentflow/internal/repository"
)

// PublishService fans a due post out to its target platforms and folds the
// per-platform results into a single outcome.
type PublishService interface {
	Publish(ctx context.Context, post *models.ScheduledPost) error
}

type publishService struct {
	cfg config.Config
	cr  repository.ConnectionRepository
	sr  repository.SettingsRepository
	ur  repository.UserRepository
	li  LinkedinService
	wh  WebhookService
}

func NewPublishService(cfg config.Config, cr repository.ConnectionRepository, sr repository.SettingsRepository, ur repository.UserRepository, li LinkedinService, wh WebhookService) PublishService {
	return &publishService{
		cfg: cfg,
		cr:  cr,
		sr:  sr,
		ur:  ur,
		li:  li,
		wh:  wh,
	}
}

// Publish attempts every platform the post targets. When some platforms
// succeed and others fail, the post still counts as published and the
// failures are recorded on post.Error. Only a clean sweep of failures
// returns an error.
func (s *publishService) Publish(ctx context.Context, post *models.ScheduledPost) error {
	if len(post.Platforms) == 0 {
		return errors.New("post has no target platforms")
	}

	user := s.lookupUser(ctx, post.UserID)
	webhookURL := s.webhookOverride(ctx, post.UserID)

	failures := make(map[string]string)

	var relayPlatforms []string
	for _, platform := range post.Platforms {
		if platform == models.PlatformLinkedin {
			if msg := s.publishLinkedin(ctx, post); msg != "" {
				failures[platform] = msg
			}
			continue
		}
		relayPlatforms = append(relayPlatforms, platform)
	}

	// The relay always runs, even for LinkedIn-only posts, so the Make
	// scenario sees every publication as a backup path. Its failure only
	// counts against the platforms that depend on it.
	if err := s.wh.SendScheduledPost(ctx, webhookURL, post, user); err != nil {
		slog.Info(fmt.Sprintf("webhook relay failed for post %s: %s", post.ID, err.Error()))
		for _, platform := range relayPlatforms {
			failures[platform] = err.Error()
		}
	}

	if len(failures) == 0 {
		post.Error = ""
		return nil
	}

	if len(failures) == len(post.Platforms) {
		var parts []string
		for _, platform := range post.Platforms {
			parts = append(parts, fmt.Sprintf("%s: %s", platform, failures[platform]))
		}
		return fmt.Errorf("All platforms failed: %s", strings.Join(parts, "; "))
	}

	var failed []string
	for _, platform := range post.Platforms {
		if _, ok := failures[platform]; ok {
			failed = append(failed, platform)
		}
	}
	post.Error = fmt.Sprintf("partial success - failed: %s", strings.Join(failed, ", "))
	return nil
}

// publishLinkedin returns an empty string on success or a user-facing
// failure message.
func (s *publishService) publishLinkedin(ctx context.Context, post *models.ScheduledPost) string {
	conn, err := s.cr.GetByUserID(ctx, post.UserID)
	if err != nil {
		slog.Info(err.Error())
		return "Failed to check LinkedIn connection"
	}
	if conn == nil || !conn.IsActive {
		return "LinkedIn not connected. Please connect your LinkedIn account in settings."
	}

	var imageURL string
	if len(post.Images) > 0 {
		imageURL = post.Images[0].URL
	}

	if _, err := s.li.PostUGC(ctx, conn, post.Content, imageURL); err != nil {
		return err.Error()
	}
	return ""
}

func (s *publishService) lookupUser(ctx context.Context, userID int64) *models.User {
	if userID == 0 {
		return nil
	}
	user, found, err := s.ur.GetByID(ctx, userID)
	if err != nil || !found {
		return nil
	}
	return user
}

// webhookOverride returns the user's saved webhook URL, if any. An empty
// string falls through to the globally configured one.
func (s *publishService) webhookOverride(ctx context.Context, userID int64) string {
	if userID == 0 {
		return ""
	}
	settings, found, err := s.sr.GetByUserID(ctx, userID)
	if err != nil || !found {
		return ""
	}
	return settings.WebhookURL
}
