package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// IngestJob describes a background fetch-parse-store task.
type IngestJob struct {
	ID         string    `json:"id"`
	Location   string    `json:"location"`
	Name       string    `json:"name"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// DefaultQueue is the Redis list key used for the ingest job queue.
const DefaultQueue = "jobs:ingest"

// NewIngestJob returns a job with a fresh ID.
func NewIngestJob(location, name string) IngestJob {
	return IngestJob{
		ID:         uuid.NewString(),
		Location:   location,
		Name:       name,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Enqueue pushes a job onto the left side of the queue list.
func Enqueue(ctx context.Context, r *Redis, queue string, job IngestJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue marshal: %w", err)
	}
	return r.client.LPush(ctx, keyPrefix+queue, data).Err()
}

// Dequeue blocks until a job is available on the right side of the list or
// the timeout expires. A timeout or shutdown yields (nil, nil) so the
// caller can loop and check its context.
func Dequeue(ctx context.Context, r *Redis, queue string, timeout time.Duration) (*IngestJob, error) {
	result, err := r.client.BRPop(ctx, timeout, keyPrefix+queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("queue dequeue: %w", err)
	}
	// BRPop returns [key, value].
	if len(result) < 2 {
		return nil, nil
	}
	return decodeJob(result[1])
}

func decodeJob(raw string) (*IngestJob, error) {
	var job IngestJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, fmt.Errorf("queue unmarshal: %w", err)
	}
	return &job, nil
}
