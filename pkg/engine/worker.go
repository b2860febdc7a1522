package engine

import (
	"context"
	"errors"

	"github.com/go-logr/logr"

	"github.com/citationengine/engine/pkg/citation"
	"github.com/citationengine/engine/pkg/metrics"
	"github.com/citationengine/engine/pkg/store"
)

// WorkerPool delivers exactly one job to exactly one worker at a time,
// running the full pipeline for each in isolation while multiple jobs run
// in parallel across workers (spec §5). The queue's payload half of its
// enqueue(job_id, payload) contract (spec §6) is the source text, which the
// router persisted into the shared progress store alongside the job record
// (store.ProgressStore.SetText) rather than carrying it through the queue
// entry itself.
type WorkerPool struct {
	Queue       *store.JobQueue
	Progress    *store.ProgressStore
	Pipeline    *Pipeline
	Concurrency int
	Log         logr.Logger
}

// Run starts Concurrency worker goroutines, each pulling jobs from the
// queue until ctx is cancelled.
func (p *WorkerPool) Run(ctx context.Context) error {
	n := p.Concurrency
	if n <= 0 {
		n = 1
	}

	done := make(chan struct{})
	for i := 0; i < n; i++ {
		go func(id int) {
			p.loop(ctx, id)
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < n; i++ {
		<-done
	}
	return ctx.Err()
}

func (p *WorkerPool) loop(ctx context.Context, workerID int) {
	for {
		if ctx.Err() != nil {
			return
		}
		lease, err := p.Queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			p.Log.Error(err, "dequeue failed", "worker", workerID)
			continue
		}
		if lease == nil {
			continue // dequeue timed out with no work available
		}
		p.process(ctx, lease)
	}
}

func (p *WorkerPool) process(ctx context.Context, lease *store.Lease) {
	metrics.RecordJobStart()

	job, err := p.Progress.Get(ctx, lease.JobID)
	if err != nil {
		p.Log.Error(err, "failed to load job", "job_id", lease.JobID)
		metrics.RecordJobComplete("failed")
		_ = p.Queue.Fail(ctx, lease)
		return
	}

	text, err := p.Progress.GetText(ctx, job.ID)
	if err != nil {
		job.Status = citation.JobFailed
		job.Error = "transport"
		_ = p.Progress.Set(ctx, job)
		metrics.RecordJobComplete("failed")
		_ = p.Queue.Fail(ctx, lease)
		return
	}

	if _, err := p.Pipeline.Run(ctx, job, text); err != nil {
		_ = p.Queue.Fail(ctx, lease)
		return
	}
	metrics.RecordJobComplete("completed")
	_ = p.Queue.Ack(ctx, lease)
}
