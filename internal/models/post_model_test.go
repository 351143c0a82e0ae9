package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDue(t *testing.T) {
	now := time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)

	post := &ScheduledPost{Status: PostStatusScheduled, ScheduledFor: now.Add(-time.Second)}
	assert.True(t, post.Due(now))

	// Exactly on time counts as due.
	post.ScheduledFor = now
	assert.True(t, post.Due(now))

	post.ScheduledFor = now.Add(time.Second)
	assert.False(t, post.Due(now))

	for _, status := range []string{PostStatusPublishing, PostStatusPublished, PostStatusFailed} {
		post = &ScheduledPost{Status: status, ScheduledFor: now.Add(-time.Hour)}
		assert.False(t, post.Due(now), status)
	}
}

func TestValidators(t *testing.T) {
	assert.True(t, ValidContentType(ContentTypeBlog))
	assert.False(t, ValidContentType("podcast"))

	assert.True(t, ValidPlatform(PlatformLinkedin))
	assert.False(t, ValidPlatform("myspace"))

	assert.True(t, ValidRecurrence(RecurrenceOnce))
	assert.False(t, ValidRecurrence("hourly"))
}
