package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/blabbr/contentflow/internal/models"
	"github.com/blabbr/contentflow/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDispatcher struct {
	mu      sync.Mutex
	calls   []string
	err     error
	note    string
	release chan struct{}
}

func (d *fakeDispatcher) Publish(ctx context.Context, post *models.ScheduledPost) error {
	if d.release != nil {
		<-d.release
	}
	d.mu.Lock()
	d.calls = append(d.calls, post.ID)
	d.mu.Unlock()
	if d.note != "" {
		post.Error = d.note
	}
	return d.err
}

func (d *fakeDispatcher) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

type fakeRetryEnqueuer struct {
	mu       sync.Mutex
	enqueued []string
}

func (e *fakeRetryEnqueuer) EnqueueRetry(postID string, attempt int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enqueued = append(e.enqueued, postID)
	return nil
}

func newTestService(t *testing.T, d Dispatcher, r RetryEnqueuer) *Service {
	t.Helper()
	store := storage.NewFileStore(filepath.Join(t.TempDir(), "posts.json"))
	return New(store, d, r)
}

func duePost(id string) *models.ScheduledPost {
	return &models.ScheduledPost{
		ID:           id,
		Content:      "hello",
		ScheduledFor: time.Now().Add(-time.Minute),
		Status:       models.PostStatusScheduled,
		Platforms:    []string{models.PlatformWebsite},
		Recurrence:   models.RecurrenceOnce,
	}
}

func TestCheckPublishesDuePost(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	svc := newTestService(t, dispatcher, nil)

	require.NoError(t, svc.SchedulePost(duePost("p1")))
	svc.CheckNow()

	post, err := svc.GetPost("p1")
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusPublished, post.Status)
	assert.Empty(t, post.Error)
	assert.Equal(t, 1, dispatcher.callCount())
}

func TestCheckLeavesFuturePostAlone(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	svc := newTestService(t, dispatcher, nil)

	post := duePost("p1")
	post.ScheduledFor = time.Now().Add(time.Hour)
	require.NoError(t, svc.SchedulePost(post))

	svc.CheckNow()

	got, err := svc.GetPost("p1")
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusScheduled, got.Status)
	assert.Equal(t, 0, dispatcher.callCount())
}

func TestCheckIsIdempotentBackToBack(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	svc := newTestService(t, dispatcher, nil)

	require.NoError(t, svc.SchedulePost(duePost("p1")))

	svc.CheckNow()
	svc.CheckNow()

	assert.Equal(t, 1, dispatcher.callCount())
}

func TestFailedPublishRecordsErrorAndEnqueuesRetry(t *testing.T) {
	dispatcher := &fakeDispatcher{err: errors.New("All platforms failed: website: boom")}
	retry := &fakeRetryEnqueuer{}
	svc := newTestService(t, dispatcher, retry)

	require.NoError(t, svc.SchedulePost(duePost("p1")))
	svc.CheckNow()

	post, err := svc.GetPost("p1")
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusFailed, post.Status)
	assert.Contains(t, post.Error, "boom")
	assert.Equal(t, []string{"p1"}, retry.enqueued)
}

func TestPartialFailureStillPublishes(t *testing.T) {
	dispatcher := &fakeDispatcher{note: "partial success - failed: linkedin"}
	svc := newTestService(t, dispatcher, nil)

	require.NoError(t, svc.SchedulePost(duePost("p1")))
	svc.CheckNow()

	post, err := svc.GetPost("p1")
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusPublished, post.Status)
	assert.Equal(t, "partial success - failed: linkedin", post.Error)
}

func TestCheckNowSkipsWhileInFlight(t *testing.T) {
	dispatcher := &fakeDispatcher{release: make(chan struct{})}
	svc := newTestService(t, dispatcher, nil)

	require.NoError(t, svc.SchedulePost(duePost("p1")))

	done := make(chan struct{})
	go func() {
		svc.CheckNow()
		close(done)
	}()

	// Give the first cycle time to grab the lock and block in Publish.
	time.Sleep(50 * time.Millisecond)

	// Must return immediately instead of queuing a second cycle.
	svc.CheckNow()

	close(dispatcher.release)
	<-done

	assert.Equal(t, 1, dispatcher.callCount())
}

func TestRetryPostResetsFailedPost(t *testing.T) {
	dispatcher := &fakeDispatcher{err: errors.New("nope")}
	svc := newTestService(t, dispatcher, nil)

	require.NoError(t, svc.SchedulePost(duePost("p1")))
	svc.CheckNow()

	require.NoError(t, svc.RetryPost("p1"))

	post, err := svc.GetPost("p1")
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusScheduled, post.Status)
	assert.Empty(t, post.Error)
}

func TestRetryPostRejectsNonFailed(t *testing.T) {
	svc := newTestService(t, &fakeDispatcher{}, nil)

	require.NoError(t, svc.SchedulePost(duePost("p1")))
	assert.Error(t, svc.RetryPost("p1"))
}

func TestUpdatePostReschedulesFailedPost(t *testing.T) {
	dispatcher := &fakeDispatcher{err: errors.New("nope")}
	svc := newTestService(t, dispatcher, nil)

	require.NoError(t, svc.SchedulePost(duePost("p1")))
	svc.CheckNow()

	err := svc.UpdatePost("p1", func(p *models.ScheduledPost) error {
		p.Content = "edited"
		return nil
	})
	require.NoError(t, err)

	post, err := svc.GetPost("p1")
	require.NoError(t, err)
	assert.Equal(t, "edited", post.Content)
	assert.Equal(t, models.PostStatusScheduled, post.Status)
	assert.Empty(t, post.Error)
}

func TestUpdatePostRejectsPublished(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	svc := newTestService(t, dispatcher, nil)

	require.NoError(t, svc.SchedulePost(duePost("p1")))
	svc.CheckNow()

	err := svc.UpdatePost("p1", func(p *models.ScheduledPost) error {
		p.Content = "edited"
		return nil
	})
	assert.Error(t, err)
}

func TestDeletePost(t *testing.T) {
	svc := newTestService(t, &fakeDispatcher{}, nil)

	require.NoError(t, svc.SchedulePost(duePost("p1")))
	require.NoError(t, svc.DeletePost("p1"))

	_, err := svc.GetPost("p1")
	assert.ErrorIs(t, err, ErrPostNotFound)

	assert.ErrorIs(t, svc.DeletePost("p1"), ErrPostNotFound)
}

func TestPostsFiltersByUserAndSortsNewestFirst(t *testing.T) {
	svc := newTestService(t, &fakeDispatcher{}, nil)

	early := duePost("p1")
	early.UserID = 1
	early.ScheduledFor = time.Now().Add(time.Hour)

	late := duePost("p2")
	late.UserID = 1
	late.ScheduledFor = time.Now().Add(2 * time.Hour)

	other := duePost("p3")
	other.UserID = 2

	require.NoError(t, svc.SchedulePost(early))
	require.NoError(t, svc.SchedulePost(late))
	require.NoError(t, svc.SchedulePost(other))

	posts, err := svc.Posts(1)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "p2", posts[0].ID)
	assert.Equal(t, "p1", posts[1].ID)
}

func TestStartStopIdempotent(t *testing.T) {
	svc := newTestService(t, &fakeDispatcher{}, nil)

	svc.Start()
	svc.Start()
	assert.True(t, svc.Running())

	svc.Stop()
	svc.Stop()
	assert.False(t, svc.Running())
}
