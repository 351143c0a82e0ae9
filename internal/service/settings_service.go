package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/blabbr/contentflow/internal/models"
	"github.com/blabbr/contentflow/internal/repository"
)

type SettingsService interface {
	GetSettingsInfo(ctx context.Context, id int64) (*models.Settings, error)
	UpdateSettings(ctx context.Context, userID int64, webhookURL string, defaultPlatforms string) error
}

type settingsService struct {
	sr repository.SettingsRepository
}

func NewSettingsService(sr repository.SettingsRepository) SettingsService {
	return &settingsService{
		sr: sr,
	}
}

func (s *settingsService) GetSettingsInfo(ctx context.Context, id int64) (*models.Settings, error) {
	settings, isExist, err := s.sr.GetByUserID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !isExist {
		return &models.Settings{UserID: id}, nil
	}

	return settings, nil
}

func (s *settingsService) UpdateSettings(ctx context.Context, userID int64, webhookURL string, defaultPlatforms string) error {
	if webhookURL != "" {
		parsed, err := url.Parse(webhookURL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			err = errors.New("webhook URL is not valid")
			slog.Info(err.Error())
			return err
		}
	}

	for _, platform := range strings.Split(defaultPlatforms, ",") {
		platform = strings.TrimSpace(platform)
		if platform == "" {
			continue
		}
		if !models.ValidPlatform(platform) {
			return fmt.Errorf("platform %s is not supported", platform)
		}
	}

	settings := models.Settings{
		WebhookURL:       webhookURL,
		DefaultPlatforms: defaultPlatforms,
	}

	_, isExist, err := s.sr.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}

	if !isExist {
		settings.UserID = userID
		_, err = s.sr.Create(ctx, &settings)
		return err
	}

	return s.sr.UpdateSettings(ctx, &settings, userID)
}
