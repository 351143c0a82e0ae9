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
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	config "github.com/blabbr/contentflow/configs"
	"github.com/blabbr/contentflow/internal/models"
	"github.com/blabbr/contentflow/internal/repository"
	"github.com/blabbr/contentflow/internal/transfer"
	"github.com/blabbr/contentflow/pkg/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/linkedin"
)

const (
	LINKEDIN_AUTH_URL     = "https://www.linkedin.com/oauth/v2/authorization"
	LINKEDIN_USERINFO_URL = "https://api.linkedin.com/v2/userinfo"
	LINKEDIN_UGC_URL      = "https://api.linkedin.com/v2/ugcPosts"

	linkedinScopes = "openid profile email w_member_social"

	// Posts above this length are cut off with an ellipsis.
	linkedinMaxChars = 3000
)

var imagePlaceholderRe = regexp.MustCompile(`\[Image:.*?\]`)

type LinkedinService interface {
	GetAuthURL(ctx context.Context, stateToken string) string
	Callback(ctx context.Context, code string, userID int64) error
	Connection(ctx context.Context, userID int64) (*models.LinkedInConnection, error)
	Disconnect(ctx context.Context, userID int64) error
	PostUGC(ctx context.Context, conn *models.LinkedInConnection, content string, imageURL string) (string, error)
	PostNow(ctx context.Context, userID int64, content, imageURL string) (string, error)
	ValidateConnection(ctx context.Context, conn *models.LinkedInConnection) (bool, error)
}

type linkedinService struct {
	cfg config.Config
	cr  repository.ConnectionRepository

	client      *http.Client
	userInfoURL string
	ugcURL      string
}

func NewLinkedinService(cfg config.Config, cr repository.ConnectionRepository) LinkedinService {
	return &linkedinService{
		cfg:         cfg,
		cr:          cr,
		client:      &http.Client{Timeout: 30 * time.Second},
		userInfoURL: LINKEDIN_USERINFO_URL,
		ugcURL:      LINKEDIN_UGC_URL,
	}
}

func (s *linkedinService) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.LinkedinClientID,
		ClientSecret: s.cfg.LinkedinClientSecret,
		RedirectURL:  s.cfg.LinkedinRedirectURI,
		Scopes:       strings.Fields(linkedinScopes),
		Endpoint:     linkedin.Endpoint,
	}
}

// GetAuthURL builds the authorization URL. The state token is a signed JWT so
// the callback can be validated without server-side session storage.
func (s *linkedinService) GetAuthURL(ctx context.Context, stateToken string) string {
	params := url.Values{}
	params.Add("response_type", "code")
	params.Add("client_id", s.cfg.LinkedinClientID)
	params.Add("redirect_uri", s.cfg.LinkedinRedirectURI)
	params.Add("scope", linkedinScopes)
	params.Add("state", stateToken)

	return fmt.Sprintf("%s?%s", LINKEDIN_AUTH_URL, params.Encode())
}

func (s *linkedinService) Callback(ctx context.Context, code string, userID int64) error {
	if code == "" {
		err := errors.New("code is empty")
		slog.Info(err.Error())
		return err
	}

	oauth2Config := s.oauthConfig()
	if oauth2Config.ClientID == "" || oauth2Config.ClientSecret == "" || oauth2Config.RedirectURL == "" {
		err := errors.New("LinkedIn OAuth configuration is incomplete")
		slog.Info(err.Error())
		return err
	}

	token, err := oauth2Config.Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("LinkedIn token exchange failed: %w", err)
	}

	userInfo, err := s.fetchUserInfo(ctx, token.AccessToken)
	if err != nil {
		return err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(token.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	scope, _ := token.Extra("scope").(string)

	conn := &models.LinkedInConnection{
		UserID:         userID,
		ProfileID:      userInfo.Sub,
		ProfileName:    userInfo.Name,
		ProfileEmail:   userInfo.Email,
		ProfilePicture: userInfo.Picture,
		AccessToken:    encryptedAccessToken,
		Scope:          scope,
		TokenExpiresAt: token.Expiry,
		LastValidated:  time.Now(),
	}

	_, err = s.cr.Upsert(ctx, conn)
	if err != nil {
		return fmt.Errorf("error saving LinkedIn connection: %w", err)
	}

	return nil
}

func (s *linkedinService) fetchUserInfo(ctx context.Context, accessToken string) (*transfer.LinkedinUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("LinkedIn profile fetch failed: %s", resp.Status)
		slog.Info(err.Error())
		return nil, err
	}

	var userInfo transfer.LinkedinUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}

	return &userInfo, nil
}

func (s *linkedinService) Connection(ctx context.Context, userID int64) (*models.LinkedInConnection, error) {
	if userID == 0 {
		err := errors.New("UserID is not valid")
		slog.Info(err.Error())
		return nil, err
	}
	return s.cr.GetByUserID(ctx, userID)
}

func (s *linkedinService) Disconnect(ctx context.Context, userID int64) error {
	if userID == 0 {
		err := errors.New("UserID is not valid")
		slog.Info(err.Error())
		return err
	}

	err := s.cr.Remove(ctx, userID)
	if err != nil {
		return fmt.Errorf("error removing LinkedIn connection")
	}
	return nil
}

// cleanContent strips image placeholder markers and enforces the post length
// cap. The cut backs up to a rune boundary so the commentary stays valid
// UTF-8.
func cleanContent(content string) string {
	cleaned := strings.TrimSpace(imagePlaceholderRe.ReplaceAllString(content, ""))
	if len(cleaned) > linkedinMaxChars {
		limit := linkedinMaxChars - 3
		for limit > 0 && !utf8.RuneStart(cleaned[limit]) {
			limit--
		}
		cleaned = cleaned[:limit] + "..."
	}
	return cleaned
}

// PostUGC publishes a text share on behalf of the connected member. Image
// attachments need a separate asset upload flow, so an image URL only gets a
// warning and the share goes out text-only.
func (s *linkedinService) PostUGC(ctx context.Context, conn *models.LinkedInConnection, content string, imageURL string) (string, error) {
	cleaned := cleanContent(content)
	if cleaned == "" {
		return "", errors.New("content is empty after cleaning")
	}

	if imageURL != "" {
		slog.Info("image posting to LinkedIn is not supported, posting text only")
	}

	accessToken, err := utils.Decrypt(conn.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return "", fmt.Errorf("unable to decrypt access token: %w", err)
	}

	ugcPost := transfer.UGCPost{
		Author:         fmt.Sprintf("urn:li:person:%s", conn.ProfileID),
		LifecycleState: "PUBLISHED",
		SpecificContent: transfer.UGCSpecificContent{
			ShareContent: transfer.UGCShareContent{
				ShareCommentary:    transfer.UGCShareCommentary{Text: cleaned},
				ShareMediaCategory: "NONE",
			},
		},
		Visibility: transfer.UGCVisibility{
			MemberNetworkVisibility: "PUBLIC",
		},
	}

	body, err := json.Marshal(ugcPost)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.ugcURL, bytes.NewReader(body))
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("failed to send request to LinkedIn API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	if resp.StatusCode >= 300 {
		slog.Info(fmt.Sprintf("LinkedIn API error (status %d): %s", resp.StatusCode, string(respBody)))

		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return "", errors.New("LinkedIn access token expired. Please reconnect your LinkedIn account.")
		case http.StatusForbidden:
			return "", errors.New("Insufficient permissions to post to LinkedIn. Please check your app permissions.")
		case http.StatusTooManyRequests:
			return "", errors.New("LinkedIn API rate limit exceeded. Please try again later.")
		}

		var errorResp transfer.LinkedinErrorResponse
		if err := json.Unmarshal(respBody, &errorResp); err == nil && errorResp.Message != "" {
			return "", fmt.Errorf("LinkedIn posting failed: %s", errorResp.Message)
		}
		return "", fmt.Errorf("LinkedIn posting failed: %s", resp.Status)
	}

	var postResp transfer.LinkedinPostResponse
	if err := json.Unmarshal(respBody, &postResp); err != nil {
		slog.Info("failed to parse LinkedIn post response, but post was created")
		return "", nil
	}

	return postResp.ID, nil
}

// PostNow is the direct "share this immediately" path used by the API.
func (s *linkedinService) PostNow(ctx context.Context, userID int64, content, imageURL string) (string, error) {
	conn, err := s.cr.GetByUserID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("error checking LinkedIn connection")
	}
	if conn == nil || !conn.IsActive {
		return "", errors.New("LinkedIn not connected. Please connect your LinkedIn account in settings.")
	}

	return s.PostUGC(ctx, conn, content, imageURL)
}

func (s *linkedinService) ValidateConnection(ctx context.Context, conn *models.LinkedInConnection) (bool, error) {
	accessToken, err := utils.Decrypt(conn.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK, nil
}
