package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/citationengine/engine/internal/logging"
	"github.com/citationengine/engine/pkg/citation"
	"github.com/citationengine/engine/pkg/cluster"
	"github.com/citationengine/engine/pkg/extractor"
	"github.com/citationengine/engine/pkg/metrics"
	"github.com/citationengine/engine/pkg/store"
	"github.com/citationengine/engine/pkg/verify"
)

// syncWallClockCap is the hard cap on sync-path execution before the job is
// promoted to async (spec §4.7/§5).
const syncWallClockCap = 30 * time.Second

// jobTimeout is the per-job overall timeout regardless of mode (spec §5).
const jobTimeout = 10 * time.Minute

// Pipeline runs §4.2-§4.6 end-to-end for one job, publishing progress to
// the store at each stage (spec §4.7).
type Pipeline struct {
	Progress *store.ProgressStore
	Queue    *store.JobQueue
	Verifier *verify.Verifier
	Log      logr.Logger
}

// RunSync executes the pipeline within syncWallClockCap. If the cap is
// exceeded, the job is handed to the async queue and RunSync reports
// promoted=true; the caller must acknowledge async_promoted rather than
// waiting further.
func (p *Pipeline) RunSync(ctx context.Context, job *citation.Job, text string) (result *citation.Result, promoted bool, err error) {
	syncCtx, cancel := context.WithTimeout(ctx, syncWallClockCap)
	defer cancel()

	type outcome struct {
		result *citation.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		r, runErr := p.Run(syncCtx, job, text)
		done <- outcome{r, runErr}
	}()

	select {
	case o := <-done:
		return o.result, false, o.err
	case <-syncCtx.Done():
		job.AsyncPromoted = true
		if err := p.Progress.SetText(ctx, job.ID, text); err != nil {
			return nil, false, err
		}
		if err := p.Queue.Enqueue(ctx, job.ID); err != nil {
			return nil, false, err
		}
		job.Mode = citation.ModeAsync
		job.Status = citation.JobQueued
		_ = p.Progress.Set(ctx, job)
		return nil, true, nil
	}
}

// Run executes extraction, clustering, context propagation, verification,
// and canonical-consistency splitting for job, publishing progress at
// every stage and checking ctx at every progress update and network-call
// boundary (spec §5).
func (p *Pipeline) Run(ctx context.Context, job *citation.Job, text string) (*citation.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	timer := metrics.NewTimer()
	job.Status = citation.JobRunning

	if err := p.publish(ctx, job, 0, "extracting"); err != nil {
		return nil, p.fail(ctx, job, err)
	}

	extractionTimer := metrics.NewTimer()
	citations := extractor.Extract(text)
	extractionTimer.RecordExtraction(countByReporter(citations))
	if err := p.publish(ctx, job, 20, "clustering"); err != nil {
		return nil, p.fail(ctx, job, err)
	}

	clusters := cluster.Cluster(citations, text)
	metrics.ClustersFormedTotal.Add(float64(len(clusters)))
	cluster.PropagateContext(clusters)
	if err := p.publish(ctx, job, 25, "verifying"); err != nil {
		return nil, p.fail(ctx, job, err)
	}

	p.Verifier.OnBatchProgress = func(done, total int) {
		pct := 25 + (65 * done / max(total, 1))
		step := fmt.Sprintf("verifying_batch_%d_of_%d", done, total)
		_ = p.publish(ctx, job, pct, step)
	}
	p.Verifier.Verify(ctx, clusters)

	if err := p.publish(ctx, job, 90, "assembling"); err != nil {
		return nil, p.fail(ctx, job, err)
	}

	metrics.ClusterSplitsTotal.Add(float64(cluster.CountSplits(clusters)))
	clusters = cluster.SplitByCanonical(clusters)
	result := &citation.Result{Citations: citations, Clusters: clusters, Stats: citation.NewStats(citations, clusters)}

	job.Status = citation.JobCompleted
	job.Result = result
	if err := p.publish(ctx, job, 100, "completed"); err != nil {
		return nil, p.fail(ctx, job, err)
	}

	timer.RecordPipeline(string(job.Mode))
	p.Log.V(1).Info("job completed", logging.PipelineFields(job.ID, "completed").ToZapArgs()...)
	return result, nil
}

// publish writes job's updated progress to the store and reports a
// cancellation error if ctx has already been cancelled, per §5's
// "checks for cancellation at every progress-update point" contract.
func (p *Pipeline) publish(ctx context.Context, job *citation.Job, pct int, step string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	job.ProgressPct = pct
	job.CurrentStep = step
	return p.Progress.Set(ctx, job)
}

func (p *Pipeline) fail(ctx context.Context, job *citation.Job, cause error) error {
	job.Status = citation.JobFailed
	if cause == context.DeadlineExceeded {
		job.Error = "timeout"
	} else {
		job.Error = cause.Error()
	}
	_ = p.Progress.Set(context.Background(), job)
	p.Log.Error(cause, "job failed", logging.PipelineFields(job.ID, job.CurrentStep).ToZapArgs()...)
	metrics.RecordJobComplete("failed")
	return cause
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// countByReporter tallies extracted citations by reporter tag, for the
// per-reporter extraction metric.
func countByReporter(citations []*citation.Citation) map[string]int {
	counts := make(map[string]int, len(citations))
	for _, c := range citations {
		counts[c.Reporter]++
	}
	return counts
}
