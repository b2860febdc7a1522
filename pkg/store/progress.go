package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/citationengine/engine/pkg/citation"
)

// jobTTL is the progress store's retention window (spec §6: "24h after
// completion").
const jobTTL = 24 * time.Hour

// ErrJobNotFound is returned by Get when no job is stored under the given
// ID, including one whose TTL has already elapsed.
var ErrJobNotFound = errors.New("job not found")

// ProgressStore persists Job state under a fixed TTL so clients can poll an
// async job's progress without the pipeline holding it in memory.
type ProgressStore struct {
	client *Client
	prefix string
}

// NewProgressStore builds a ProgressStore on top of an established Client.
func NewProgressStore(client *Client) *ProgressStore {
	return &ProgressStore{client: client, prefix: "citation:job:"}
}

func (s *ProgressStore) key(jobID string) string {
	return s.prefix + jobID
}

// Set stores (or overwrites) job, resetting its TTL.
func (s *ProgressStore) Set(ctx context.Context, job *citation.Job) error {
	if err := s.client.EnsureConnection(ctx); err != nil {
		return err
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encoding job: %w", err)
	}
	if err := s.client.GetClient().Set(ctx, s.key(job.ID), data, jobTTL).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

// Get retrieves a job by ID, returning ErrJobNotFound if it is absent or
// expired.
func (s *ProgressStore) Get(ctx context.Context, jobID string) (*citation.Job, error) {
	if err := s.client.EnsureConnection(ctx); err != nil {
		return nil, err
	}
	data, err := s.client.GetClient().Get(ctx, s.key(jobID)).Bytes()
	if err != nil {
		if isRedisNil(err) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	var job citation.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decoding job: %w", err)
	}
	return &job, nil
}

// SetText persists the source text an async job was submitted with, under
// the same TTL as the job record itself. This is the "payload" half of the
// job queue's enqueue(job_id, payload) contract (spec §6): rather than
// smuggling a callable or a large blob through the queue entry itself, the
// queue carries only the job ID and a worker reads the payload back out of
// the shared progress store.
func (s *ProgressStore) SetText(ctx context.Context, jobID, text string) error {
	if err := s.client.EnsureConnection(ctx); err != nil {
		return err
	}
	if err := s.client.GetClient().Set(ctx, s.textKey(jobID), text, jobTTL).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

// GetText retrieves the source text for jobID, returning ErrJobNotFound if
// it is absent or expired.
func (s *ProgressStore) GetText(ctx context.Context, jobID string) (string, error) {
	if err := s.client.EnsureConnection(ctx); err != nil {
		return "", err
	}
	text, err := s.client.GetClient().Get(ctx, s.textKey(jobID)).Result()
	if err != nil {
		if isRedisNil(err) {
			return "", ErrJobNotFound
		}
		return "", fmt.Errorf("redis connection failed: %w", err)
	}
	return text, nil
}

func (s *ProgressStore) textKey(jobID string) string {
	return s.prefix + jobID + ":text"
}

// Exists reports whether a job is currently stored (not expired).
func (s *ProgressStore) Exists(ctx context.Context, jobID string) (bool, error) {
	if err := s.client.EnsureConnection(ctx); err != nil {
		return false, err
	}
	n, err := s.client.GetClient().Exists(ctx, s.key(jobID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis connection failed: %w", err)
	}
	return n > 0, nil
}
