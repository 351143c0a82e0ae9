package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	config "github.com/blabbr/contentflow/configs"
	"github.com/blabbr/contentflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConnRepo struct {
	conn *models.LinkedInConnection
	err  error
}

func (f *fakeConnRepo) GetByUserID(ctx context.Context, userID int64) (*models.LinkedInConnection, error) {
	return f.conn, f.err
}
func (f *fakeConnRepo) Upsert(ctx context.Context, conn *models.LinkedInConnection) (int64, error) {
	return 1, nil
}
func (f *fakeConnRepo) ListExpiring(ctx context.Context, before time.Time) ([]*models.LinkedInConnection, error) {
	return nil, nil
}
func (f *fakeConnRepo) SetValidated(ctx context.Context, id int64, active bool) error { return nil }
func (f *fakeConnRepo) Remove(ctx context.Context, userID int64) error                { return nil }

type fakeSettingsRepo struct {
	settings *models.Settings
}

func (f *fakeSettingsRepo) GetByUserID(ctx context.Context, userID int64) (*models.Settings, bool, error) {
	if f.settings == nil {
		return nil, false, nil
	}
	return f.settings, true, nil
}
func (f *fakeSettingsRepo) Create(ctx context.Context, settings *models.Settings) (int64, error) {
	return 1, nil
}
func (f *fakeSettingsRepo) UpdateSettings(ctx context.Context, s *models.Settings, userID int64) error {
	return nil
}

type fakeUserRepo struct {
	user *models.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*models.User, bool, error) {
	if f.user == nil {
		return nil, false, nil
	}
	return f.user, true, nil
}
func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	return nil, false, nil
}
func (f *fakeUserRepo) Create(ctx context.Context, tx *sql.Tx, user *models.User) (int64, error) {
	return 1, nil
}
func (f *fakeUserRepo) Update(ctx context.Context, user *models.User) error { return nil }
func (f *fakeUserRepo) Remove(ctx context.Context, id int64) error          { return nil }

type fakeLinkedin struct {
	postErr error
	posted  int
}

func (f *fakeLinkedin) GetAuthURL(ctx context.Context, stateToken string) string { return "" }
func (f *fakeLinkedin) Callback(ctx context.Context, code string, userID int64) error {
	return nil
}
func (f *fakeLinkedin) Connection(ctx context.Context, userID int64) (*models.LinkedInConnection, error) {
	return nil, nil
}
func (f *fakeLinkedin) Disconnect(ctx context.Context, userID int64) error { return nil }
func (f *fakeLinkedin) PostUGC(ctx context.Context, conn *models.LinkedInConnection, content string, imageURL string) (string, error) {
	f.posted++
	return "urn:li:share:1", f.postErr
}
func (f *fakeLinkedin) PostNow(ctx context.Context, userID int64, content, imageURL string) (string, error) {
	return "", nil
}
func (f *fakeLinkedin) ValidateConnection(ctx context.Context, conn *models.LinkedInConnection) (bool, error) {
	return true, nil
}

type fakeWebhook struct {
	sendErr error
	sent    int
	lastURL string
}

func (f *fakeWebhook) SendScheduledPost(ctx context.Context, webhookURL string, post *models.ScheduledPost, user *models.User) error {
	f.sent++
	f.lastURL = webhookURL
	return f.sendErr
}
func (f *fakeWebhook) SendContent(ctx context.Context, webhookURL string, topic models.Topic, contentType, content, platform string, images []models.UploadedImage, user *models.User) error {
	return nil
}
func (f *fakeWebhook) Test(ctx context.Context, webhookURL string, user *models.User) (string, error) {
	return "", nil
}

func activeConn() *models.LinkedInConnection {
	return &models.LinkedInConnection{ID: 1, UserID: 7, ProfileID: "abc", IsActive: true}
}

func publishPost(platforms ...string) *models.ScheduledPost {
	return &models.ScheduledPost{
		ID:        "p1",
		UserID:    7,
		Content:   "hello world",
		Platforms: platforms,
	}
}

func newTestPublisher(cr *fakeConnRepo, sr *fakeSettingsRepo, li *fakeLinkedin, wh *fakeWebhook) PublishService {
	return NewPublishService(config.Config{}, cr, sr, &fakeUserRepo{}, li, wh)
}

func TestPublishLinkedinWithoutConnectionFails(t *testing.T) {
	li := &fakeLinkedin{}
	wh := &fakeWebhook{}
	svc := newTestPublisher(&fakeConnRepo{}, &fakeSettingsRepo{}, li, wh)

	err := svc.Publish(context.Background(), publishPost(models.PlatformLinkedin))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "All platforms failed")
	assert.Contains(t, err.Error(), "LinkedIn not connected")
	assert.Equal(t, 0, li.posted)
	// The backup relay still fires even though LinkedIn itself failed.
	assert.Equal(t, 1, wh.sent)
}

func TestPublishLinkedinOnlyStillRelaysToWebhook(t *testing.T) {
	li := &fakeLinkedin{}
	wh := &fakeWebhook{}
	svc := newTestPublisher(&fakeConnRepo{conn: activeConn()}, &fakeSettingsRepo{}, li, wh)

	post := publishPost(models.PlatformLinkedin)
	require.NoError(t, svc.Publish(context.Background(), post))
	assert.Equal(t, 1, li.posted)
	assert.Equal(t, 1, wh.sent)
	assert.Empty(t, post.Error)
}

func TestPublishLinkedinOnlyIgnoresRelayFailure(t *testing.T) {
	li := &fakeLinkedin{}
	wh := &fakeWebhook{sendErr: errors.New("error from webhook (status 500): boom")}
	svc := newTestPublisher(&fakeConnRepo{conn: activeConn()}, &fakeSettingsRepo{}, li, wh)

	// No selected platform depends on the relay, so its failure changes
	// nothing about the outcome.
	post := publishPost(models.PlatformLinkedin)
	require.NoError(t, svc.Publish(context.Background(), post))
	assert.Equal(t, 1, wh.sent)
	assert.Empty(t, post.Error)
}

func TestPublishWebsiteViaWebhook(t *testing.T) {
	wh := &fakeWebhook{}
	svc := newTestPublisher(&fakeConnRepo{}, &fakeSettingsRepo{}, &fakeLinkedin{}, wh)

	post := publishPost(models.PlatformWebsite)
	require.NoError(t, svc.Publish(context.Background(), post))
	assert.Empty(t, post.Error)
	assert.Equal(t, 1, wh.sent)
}

func TestPublishUsesSettingsWebhookOverride(t *testing.T) {
	wh := &fakeWebhook{}
	sr := &fakeSettingsRepo{settings: &models.Settings{UserID: 7, WebhookURL: "https://hook.eu1.make.com/custom"}}
	svc := newTestPublisher(&fakeConnRepo{}, sr, &fakeLinkedin{}, wh)

	require.NoError(t, svc.Publish(context.Background(), publishPost(models.PlatformWebsite)))
	assert.Equal(t, "https://hook.eu1.make.com/custom", wh.lastURL)
}

func TestPublishPartialSuccessRecordsNote(t *testing.T) {
	li := &fakeLinkedin{}
	wh := &fakeWebhook{sendErr: errors.New("error from webhook (status 500): boom")}
	svc := newTestPublisher(&fakeConnRepo{conn: activeConn()}, &fakeSettingsRepo{}, li, wh)

	post := publishPost(models.PlatformLinkedin, models.PlatformWebsite)
	err := svc.Publish(context.Background(), post)
	require.NoError(t, err)
	assert.Equal(t, "partial success - failed: website", post.Error)
	assert.Equal(t, 1, li.posted)
}

func TestPublishAllFailAggregatesMessages(t *testing.T) {
	li := &fakeLinkedin{postErr: errors.New("LinkedIn access token expired. Please reconnect your LinkedIn account.")}
	wh := &fakeWebhook{sendErr: ErrNoScenarioListening}
	svc := newTestPublisher(&fakeConnRepo{conn: activeConn()}, &fakeSettingsRepo{}, li, wh)

	err := svc.Publish(context.Background(), publishPost(models.PlatformLinkedin, models.PlatformWebsite))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "All platforms failed")
	assert.Contains(t, err.Error(), "linkedin: LinkedIn access token expired")
	assert.Contains(t, err.Error(), "website: "+ErrNoScenarioListening.Error())
}

func TestPublishConnectionLookupErrorIsConfigFailure(t *testing.T) {
	cr := &fakeConnRepo{err: errors.New("db down")}
	svc := newTestPublisher(cr, &fakeSettingsRepo{}, &fakeLinkedin{}, &fakeWebhook{})

	err := svc.Publish(context.Background(), publishPost(models.PlatformLinkedin))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to check LinkedIn connection")
}

func TestPublishNoPlatformsIsError(t *testing.T) {
	svc := newTestPublisher(&fakeConnRepo{}, &fakeSettingsRepo{}, &fakeLinkedin{}, &fakeWebhook{})
	assert.Error(t, svc.Publish(context.Background(), publishPost()))
}
