package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/blabbr/contentflow/internal/scheduler"
	"github.com/hibiken/asynq"
)

type Worker struct {
	sched *scheduler.Service
	enq   *Enqueuer
}

func NewWorker(sched *scheduler.Service, enq *Enqueuer) *Worker {
	return &Worker{sched: sched, enq: enq}
}

// HandlePublishRetryTask re-attempts a failed post. A still-failing post gets
// the next retry enqueued, posts that recovered or were deleted are left
// alone. Errors are absorbed here, asynq's own retry would fight the
// backoff schedule.
func (w *Worker) HandlePublishRetryTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishRetryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	err := w.sched.RetryPublish(payload.PostID)
	if errors.Is(err, scheduler.ErrPostNotFound) {
		return nil
	}
	if err != nil {
		log.Printf("Retry %d for post %s failed: %v", payload.Attempt, payload.PostID, err)
		if err := w.enq.EnqueueRetry(payload.PostID, payload.Attempt+1); err != nil {
			log.Printf("Error scheduling next retry for post %s: %v", payload.PostID, err)
		}
	}

	return nil
}
