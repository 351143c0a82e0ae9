package models

import "time"

type Topic struct {
	Title    string   `json:"title"`
	Keywords []string `json:"keywords"`
}

type UploadedImage struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Base64   string `json:"base64,omitempty"`
	FileName string `json:"file_name,omitempty"`
	FileType string `json:"file_type,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
}

type ScheduledPost struct {
	ID           string          `json:"id"`
	UserID       int64           `json:"user_id"`
	Topic        Topic           `json:"topic"`
	ContentType  string          `json:"content_type"`
	Content      string          `json:"content"`
	ScheduledFor time.Time       `json:"scheduled_for"`
	Status       string          `json:"status"` // scheduled, publishing, published, failed
	Platforms    []string        `json:"platforms"`
	Recurrence   string          `json:"recurrence"`
	Images       []UploadedImage `json:"images,omitempty"`
	Error        string          `json:"error,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

const (
	PostStatusScheduled  = "scheduled"
	PostStatusPublishing = "publishing"
	PostStatusPublished  = "published"
	PostStatusFailed     = "failed"
)

const (
	ContentTypeBlog       = "blog"
	ContentTypeLinkedin   = "linkedin"
	ContentTypeNewsletter = "newsletter"
)

const (
	PlatformWebsite   = "website"
	PlatformLinkedin  = "linkedin"
	PlatformTwitter   = "twitter"
	PlatformFacebook  = "facebook"
	PlatformInstagram = "instagram"
)

const (
	RecurrenceOnce    = "once"
	RecurrenceDaily   = "daily"
	RecurrenceWeekly  = "weekly"
	RecurrenceMonthly = "monthly"
)

const MaxPostImages = 5

// Due reports whether the post should be picked up by a check cycle.
func (p *ScheduledPost) Due(now time.Time) bool {
	return p.Status == PostStatusScheduled && !p.ScheduledFor.After(now)
}

func ValidContentType(ct string) bool {
	switch ct {
	case ContentTypeBlog, ContentTypeLinkedin, ContentTypeNewsletter:
		return true
	}
	return false
}

func ValidPlatform(p string) bool {
	switch p {
	case PlatformWebsite, PlatformLinkedin, PlatformTwitter, PlatformFacebook, PlatformInstagram:
		return true
	}
	return false
}

func ValidRecurrence(r string) bool {
	switch r {
	case RecurrenceOnce, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}
