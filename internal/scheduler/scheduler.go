package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/blabbr/contentflow/internal/models"
	"github.com/blabbr/contentflow/internal/storage"
	"github.com/robfig/cron"
)

const (
	checkSpec      = "@every 1m0s"
	publishTimeout = 60 * time.Second
)

// ErrPostNotFound is returned when an operation targets an unknown post ID.
var ErrPostNotFound = errors.New("scheduled post not found")

// Dispatcher publishes a due post to its target platforms.
type Dispatcher interface {
	Publish(ctx context.Context, post *models.ScheduledPost) error
}

// RetryEnqueuer hands failed posts to a background retry queue. It is
// optional, a nil enqueuer simply disables retries.
type RetryEnqueuer interface {
	EnqueueRetry(postID string, attempt int) error
}

// Service owns the scheduled post collection and the periodic check loop
// that moves due posts through the publishing lifecycle.
type Service struct {
	store      storage.PostStore
	dispatcher Dispatcher
	retry      RetryEnqueuer
	cron       *cron.Cron

	mu      sync.Mutex // guards collection reads and writes through the store
	checkMu sync.Mutex // held while a check cycle is in flight

	runMu   sync.Mutex
	running bool
}

func New(store storage.PostStore, dispatcher Dispatcher, retry RetryEnqueuer) *Service {
	return &Service{
		store:      store,
		dispatcher: dispatcher,
		retry:      retry,
	}
}

// Start runs one check immediately, then begins the periodic loop. Calling
// Start on a running scheduler is a no-op.
func (s *Service) Start() {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.running {
		return
	}

	s.CheckNow()

	s.cron = cron.New()
	s.cron.AddFunc(checkSpec, s.CheckNow)
	s.cron.Start()
	s.running = true

	slog.Info("scheduler started")
}

// Stop halts the periodic loop. Idempotent.
func (s *Service) Stop() {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if !s.running {
		return
	}

	s.cron.Stop()
	s.cron = nil
	s.running = false

	slog.Info("scheduler stopped")
}

func (s *Service) Running() bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.running
}

func (s *Service) StorageAvailable() bool {
	return s.store.IsAvailable()
}

// CheckNow triggers a check cycle. If one is already in flight the call
// returns immediately, overlapping cycles would double-publish.
func (s *Service) CheckNow() {
	if !s.checkMu.TryLock() {
		return
	}
	defer s.checkMu.Unlock()

	s.checkAndPublish()
}

func (s *Service) checkAndPublish() {
	posts, err := s.load()
	if err != nil {
		slog.Info(err.Error())
		return
	}

	now := time.Now()
	for _, post := range posts {
		if !post.Due(now) {
			continue
		}
		s.publishPost(post.ID)
	}
}

// publishPost runs the full lifecycle for one post. The status is persisted
// before and after dispatch so a crash mid-publish leaves an inspectable
// "publishing" record rather than a silent retry.
func (s *Service) publishPost(postID string) {
	post, err := s.setStatus(postID, models.PostStatusPublishing, "")
	if err != nil {
		slog.Info(err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	publishErr := s.dispatcher.Publish(ctx, post)
	if publishErr != nil {
		slog.Info(fmt.Sprintf("publishing post %s failed: %s", postID, publishErr.Error()))

		if _, err := s.setStatus(postID, models.PostStatusFailed, publishErr.Error()); err != nil {
			slog.Info(err.Error())
		}
		if s.retry != nil {
			if err := s.retry.EnqueueRetry(postID, 1); err != nil {
				slog.Info(err.Error())
			}
		}
		return
	}

	// The dispatcher records partial failures on post.Error while still
	// reporting overall success.
	if _, err := s.setStatus(postID, models.PostStatusPublished, post.Error); err != nil {
		slog.Info(err.Error())
	}
}

// RetryPublish re-runs publishing for a failed post. Used by the retry
// worker, posts that recovered or were deleted in the meantime are skipped.
func (s *Service) RetryPublish(postID string) error {
	post, err := s.GetPost(postID)
	if err != nil {
		return err
	}
	if post.Status != models.PostStatusFailed {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := s.dispatcher.Publish(ctx, post); err != nil {
		if _, serr := s.setStatus(postID, models.PostStatusFailed, err.Error()); serr != nil {
			slog.Info(serr.Error())
		}
		return err
	}

	_, err = s.setStatus(postID, models.PostStatusPublished, post.Error)
	return err
}

// SchedulePost adds a post to the collection.
func (s *Service) SchedulePost(post *models.ScheduledPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.store.Load()
	if err != nil {
		return err
	}

	posts = append(posts, post)
	return s.store.Save(posts)
}

// Posts returns the collection ordered by scheduled time, newest first. When
// userID is non-zero only that user's posts are returned.
func (s *Service) Posts(userID int64) ([]*models.ScheduledPost, error) {
	posts, err := s.load()
	if err != nil {
		return nil, err
	}

	filtered := make([]*models.ScheduledPost, 0, len(posts))
	for _, post := range posts {
		if userID != 0 && post.UserID != userID {
			continue
		}
		filtered = append(filtered, post)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].ScheduledFor.After(filtered[j].ScheduledFor)
	})

	return filtered, nil
}

func (s *Service) GetPost(postID string) (*models.ScheduledPost, error) {
	posts, err := s.load()
	if err != nil {
		return nil, err
	}

	for _, post := range posts {
		if post.ID == postID {
			return post, nil
		}
	}
	return nil, ErrPostNotFound
}

// UpdatePost edits a pending or failed post. Editing a failed post puts it
// back on the schedule with its error cleared.
func (s *Service) UpdatePost(postID string, apply func(*models.ScheduledPost) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.store.Load()
	if err != nil {
		return err
	}

	for _, post := range posts {
		if post.ID != postID {
			continue
		}

		if post.Status == models.PostStatusPublishing || post.Status == models.PostStatusPublished {
			return fmt.Errorf("post in status %s cannot be edited", post.Status)
		}

		if err := apply(post); err != nil {
			return err
		}

		if post.Status == models.PostStatusFailed {
			post.Status = models.PostStatusScheduled
			post.Error = ""
		}

		return s.store.Save(posts)
	}

	return ErrPostNotFound
}

// RetryPost puts a failed post back on the schedule without editing it.
func (s *Service) RetryPost(postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.store.Load()
	if err != nil {
		return err
	}

	for _, post := range posts {
		if post.ID != postID {
			continue
		}
		if post.Status != models.PostStatusFailed {
			return fmt.Errorf("only failed posts can be retried, post is %s", post.Status)
		}
		post.Status = models.PostStatusScheduled
		post.Error = ""
		return s.store.Save(posts)
	}

	return ErrPostNotFound
}

func (s *Service) DeletePost(postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.store.Load()
	if err != nil {
		return err
	}

	for i, post := range posts {
		if post.ID == postID {
			posts = append(posts[:i], posts[i+1:]...)
			return s.store.Save(posts)
		}
	}

	return ErrPostNotFound
}

func (s *Service) load() ([]*models.ScheduledPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Load()
}

// setStatus does a fresh load-modify-save so concurrent edits to other posts
// are never clobbered. The returned post is the freshly loaded copy.
func (s *Service) setStatus(postID, status, errMsg string) (*models.ScheduledPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.store.Load()
	if err != nil {
		return nil, err
	}

	for _, post := range posts {
		if post.ID != postID {
			continue
		}
		post.Status = status
		post.Error = errMsg
		if err := s.store.Save(posts); err != nil {
			return nil, err
		}
		return post, nil
	}

	return nil, ErrPostNotFound
}
