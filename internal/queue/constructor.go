package queue

const TaskTypePublishRetry = "publish:retry"

const (
	maxRetryAttempts = 3
	baseRetryDelay   = 1 // minutes, doubled per attempt
)

type PublishRetryPayload struct {
	PostID  string `json:"post_id"`
	Attempt int    `json:"attempt"`
}
