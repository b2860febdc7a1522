// Package engine implements the Core's router (spec §4.1) and pipeline
// control (spec §4.7): deciding sync vs. async execution for a submitted
// document, and orchestrating extraction, clustering, verification, and
// result assembly with progress reporting and cancellation.
package engine

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/citationengine/engine/internal/errors"
	"github.com/citationengine/engine/pkg/citation"
	"github.com/citationengine/engine/pkg/store"
)

// submitRequest is validated before the router acts on a submission,
// catching a malformed force_mode before it reaches the sync/async decision.
type submitRequest struct {
	Text      string `validate:"required"`
	ForceMode string `validate:"omitempty,oneof=sync async"`
}

var submitValidator = validator.New()

const (
	hardSizeCap         = 100 * 1024       // 100 KB: force_mode=sync still obeyed below this
	maxInputSize         = 10 * 1024 * 1024 // 10 MB: rejected outright
	defaultSyncThreshold = 5000             // bytes: shorter inputs run sync, even with force_mode=async
)

// Submission is the router's decision for a newly submitted document.
type Submission struct {
	JobID string
	Mode  citation.ExecutionMode
}

// Router decides sync vs. async execution for a submitted document and
// records the resulting Job in the progress store (spec §4.1).
type Router struct {
	Progress      *store.ProgressStore
	Queue         *store.JobQueue
	SyncThreshold int // bytes; 0 uses defaultSyncThreshold
}

// Submit validates text, creates the Job record, and decides its mode.
// force_mode, if non-empty, must be "sync" or "async".
func (r *Router) Submit(ctx context.Context, text string, forceMode string) (*Submission, error) {
	if err := submitValidator.Struct(submitRequest{Text: text, ForceMode: forceMode}); err != nil {
		return nil, errors.NewInputError("invalid_input: " + err.Error())
	}
	if len(text) > maxInputSize {
		return nil, errors.NewInputError("too_large: document exceeds the 10 MB input limit")
	}

	threshold := r.SyncThreshold
	if threshold <= 0 {
		threshold = defaultSyncThreshold
	}

	mode := citation.ModeAsync
	switch {
	case forceMode == "sync" && len(text) <= hardSizeCap:
		mode = citation.ModeSync
	case len(text) < threshold:
		mode = citation.ModeSync
	}

	job := &citation.Job{
		ID:     uuid.NewString(),
		Status: citation.JobQueued,
		Mode:   mode,
	}

	if err := r.Progress.Set(ctx, job); err != nil {
		return nil, err
	}
	if mode == citation.ModeAsync {
		if err := r.Progress.SetText(ctx, job.ID, text); err != nil {
			return nil, err
		}
		if err := r.Queue.Enqueue(ctx, job.ID); err != nil {
			return nil, err
		}
	}

	return &Submission{JobID: job.ID, Mode: mode}, nil
}
