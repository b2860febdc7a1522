package store

import (
	"context"
	"fmt"
	"time"
)

// dequeueTimeout bounds how long Dequeue blocks waiting for work.
const dequeueTimeout = 5 * time.Second

// JobQueue is a reliable FIFO queue for async job IDs: Dequeue moves an
// entry into the queue's shared pending list (BRPOPLPUSH) so a crashed
// worker's claim is recoverable rather than lost, Ack removes it once
// processing completes, and Fail returns it to the back of the queue,
// behind jobs already waiting, for retry.
type JobQueue struct {
	client  *Client
	pending string
	ready   string
}

// NewJobQueue builds a JobQueue under the given queue name.
func NewJobQueue(client *Client, name string) *JobQueue {
	return &JobQueue{
		client:  client,
		ready:   "citation:queue:" + name,
		pending: "citation:queue:" + name + ":pending",
	}
}

// Enqueue pushes jobID onto the queue.
func (q *JobQueue) Enqueue(ctx context.Context, jobID string) error {
	if err := q.client.EnsureConnection(ctx); err != nil {
		return err
	}
	if err := q.client.GetClient().LPush(ctx, q.ready, jobID).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

// Lease is one claimed queue entry, held in the pending list until Ack or
// Fail resolves it.
type Lease struct {
	JobID string
}

// Dequeue blocks up to dequeueTimeout for a job, atomically moving it into
// the pending list. It returns (nil, nil) on timeout with no work
// available.
func (q *JobQueue) Dequeue(ctx context.Context) (*Lease, error) {
	if err := q.client.EnsureConnection(ctx); err != nil {
		return nil, err
	}
	jobID, err := q.client.GetClient().BRPopLPush(ctx, q.ready, q.pending, dequeueTimeout).Result()
	if err != nil {
		if isRedisNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &Lease{JobID: jobID}, nil
}

// Ack marks a leased job as successfully processed, removing it from the
// pending list.
func (q *JobQueue) Ack(ctx context.Context, lease *Lease) error {
	if err := q.client.EnsureConnection(ctx); err != nil {
		return err
	}
	if err := q.client.GetClient().LRem(ctx, q.pending, 1, lease.JobID).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

// Fail removes a leased job from the pending list and re-enqueues it for
// retry.
func (q *JobQueue) Fail(ctx context.Context, lease *Lease) error {
	if err := q.client.EnsureConnection(ctx); err != nil {
		return err
	}
	pipe := q.client.GetClient().TxPipeline()
	pipe.LRem(ctx, q.pending, 1, lease.JobID)
	pipe.LPush(ctx, q.ready, lease.JobID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}
