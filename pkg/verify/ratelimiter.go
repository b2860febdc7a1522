package verify

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/citationengine/engine/pkg/metrics"
)

// NewRateLimiter builds the single process-wide token bucket toward the
// authority (spec §4.5 / §5: "A single process-wide token bucket at ≤ 180
// requests/minute ... sized for occasional burst of 50"). It must be
// shared by every worker in the process and is safe for concurrent use.
func NewRateLimiter(perMinute, burst int) *rate.Limiter {
	perSecond := float64(perMinute) / 60.0
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// WaitForToken blocks until the limiter releases a token (or ctx is
// cancelled), recording the wait time for observability.
func WaitForToken(ctx context.Context, limiter *rate.Limiter) error {
	start := time.Now()
	err := limiter.Wait(ctx)
	metrics.RecordRateLimiterWait(time.Since(start))
	return err
}
