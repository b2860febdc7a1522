package engine

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-logr/logr"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/citationengine/engine/pkg/citation"
	"github.com/citationengine/engine/pkg/store"
	"github.com/citationengine/engine/pkg/verify"
)

func newTestStores(t *testing.T) (*store.ProgressStore, *store.JobQueue, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := store.NewClient(&redis.Options{Addr: mr.Addr()}, logr.Discard())
	require.NoError(t, client.EnsureConnection(context.Background()))

	progress := store.NewProgressStore(client)
	queue := store.NewJobQueue(client, "jobs")
	return progress, queue, func() { _ = client.Close(); mr.Close() }
}

func TestWorkerPool_ProcessesQueuedJobUsingPersistedText(t *testing.T) {
	progress, queue, cleanup := newTestStores(t)
	defer cleanup()

	ctx := context.Background()
	job := &citation.Job{ID: "job-1", Status: citation.JobQueued, Mode: citation.ModeAsync}
	require.NoError(t, progress.Set(ctx, job))
	require.NoError(t, progress.SetText(ctx, job.ID, "Lopez v. Sakuma, 183 Wn.2d 649 (2015)."))
	require.NoError(t, queue.Enqueue(ctx, job.ID))

	verifier := &verify.Verifier{
		Client:      verify.NewClient("http://127.0.0.1:0", ""),
		RateLimiter: verify.NewRateLimiterFacade(func(context.Context) error { return nil }),
		Breaker:     verify.NewCircuitBreaker("test"),
		Log:         logr.Discard(),
	}
	pool := &WorkerPool{
		Queue:    queue,
		Progress: progress,
		Pipeline: &Pipeline{Progress: progress, Queue: queue, Verifier: verifier, Log: logr.Discard()},
		Log:      logr.Discard(),
	}

	runCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	_ = pool.Run(runCtx)

	done, err := progress.Get(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, citation.JobCompleted, done.Status)
	require.NotNil(t, done.Result)
	require.NotEmpty(t, done.Result.Citations)
}
