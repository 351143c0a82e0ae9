package queue

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
)

// Enqueuer schedules publish retries with exponential backoff.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueueRetry schedules attempt n of republishing a failed post. Delays are
// 1m, 2m, 4m. Attempts past the cap are dropped.
func (e *Enqueuer) EnqueueRetry(postID string, attempt int) error {
	if attempt > maxRetryAttempts {
		log.Printf("post %s exhausted %d retry attempts", postID, maxRetryAttempts)
		return nil
	}

	payload := PublishRetryPayload{PostID: postID, Attempt: attempt}
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	delay := time.Duration(baseRetryDelay<<(attempt-1)) * time.Minute

	task := asynq.NewTask(TaskTypePublishRetry, taskPayload)
	_, err = e.client.Enqueue(task, asynq.ProcessIn(delay))
	if err != nil {
		return fmt.Errorf("failed to enqueue retry for post %s: %w", postID, err)
	}

	log.Printf("Retry scheduled: %+v in %s", payload, delay)
	return nil
}
