package verify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/citationengine/engine/internal/errors"
	"github.com/citationengine/engine/internal/logging"
	"github.com/citationengine/engine/pkg/citation"
	"github.com/citationengine/engine/pkg/metrics"

	"github.com/go-logr/logr"
)

// maxConcurrentBatches is the fixed cap on in-flight authority batch calls
// (spec §4.5/§5: "permitted up to a small fixed degree (≤ 4)").
const maxConcurrentBatches = 4

// batchOverallTimeout bounds one batch round trip end-to-end (spec §4.5:
// "per-batch overall 60 s").
const batchOverallTimeout = 60 * time.Second

// Cache is the verification cache interface the Verifier consults before
// calling the authority, and populates after a successful verification.
// pkg/cache provides the Postgres-backed implementation.
type Cache interface {
	Get(ctx context.Context, citationText string) (*citation.VerificationResult, bool, error)
	Set(ctx context.Context, citationText string, result *citation.VerificationResult) error
}

// AlternateSource is one configured fallback public legal source, tried at
// most once per citation (spec §4.5 fallback path 2).
type AlternateSource interface {
	Name() string
	Lookup(ctx context.Context, query string) (*AuthorityCluster, error)
}

// Verifier orchestrates batch lookup, fallback, rate limiting, circuit
// breaking, and cluster propagation (spec §4.5).
type Verifier struct {
	Client      *Client
	RateLimiter *rateLimiterFacade
	Breaker     *CircuitBreaker
	Cache       Cache // nil disables caching
	Alternates  []AlternateSource
	Log         logr.Logger

	// OnBatchProgress, if set, is called after each batch completes (in
	// any order, since batches run concurrently) so a caller can report
	// per-batch progress (spec §4.7's "verifying_batch_k_of_n").
	OnBatchProgress func(done, total int)
}

// rateLimiterFacade narrows *rate.Limiter to the one method Verifier needs,
// so tests can substitute a fake without pulling in golang.org/x/time/rate.
type rateLimiterFacade struct {
	wait func(ctx context.Context) error
}

// NewRateLimiterFacade adapts a *rate.Limiter (via WaitForToken) into the
// facade Verifier consumes.
func NewRateLimiterFacade(wait func(ctx context.Context) error) *rateLimiterFacade {
	return &rateLimiterFacade{wait: wait}
}

// Verify fills canonical_* fields on every citation across clusters,
// respecting rate limits, the match acceptance filter, and cluster
// propagation. It never removes or reorders citations.
func (v *Verifier) Verify(ctx context.Context, clusters []*citation.Cluster) []*citation.VerificationFailure {
	var all []*citation.Citation
	for _, cl := range clusters {
		all = append(all, cl.Members...)
	}

	var failures []*citation.VerificationFailure
	remaining := v.consultCache(ctx, all, &failures)
	remaining = v.batchVerify(ctx, remaining, &failures)
	v.fallbackVerify(ctx, remaining, clusters, &failures)
	propagateWithinClusters(clusters)
	return failures
}

// consultCache checks the verification cache for each citation, returning
// the subset that still needs a live authority lookup.
func (v *Verifier) consultCache(ctx context.Context, all []*citation.Citation, failures *[]*citation.VerificationFailure) []*citation.Citation {
	if v.Cache == nil {
		return all
	}
	var remaining []*citation.Citation
	for _, c := range all {
		result, hit, err := v.Cache.Get(ctx, c.Text)
		metrics.RecordCacheLookup(hit && err == nil)
		if err != nil || !hit {
			remaining = append(remaining, c)
			continue
		}
		applyResult(c, result)
	}
	return remaining
}

// batchVerify partitions citations into batches of BatchSize and issues up
// to maxConcurrentBatches of them concurrently.
func (v *Verifier) batchVerify(ctx context.Context, cites []*citation.Citation, failures *[]*citation.VerificationFailure) []*citation.Citation {
	if len(cites) == 0 {
		return nil
	}

	batches := partition(cites, BatchSize)
	sem := semaphore.NewWeighted(maxConcurrentBatches)
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var unresolved []*citation.Citation
	var failuresMu sync.Mutex
	var done int32

	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			if contextDone(gctx) {
				return gctx.Err()
			}

			var batchFailures []*citation.VerificationFailure
			left := v.verifyBatch(gctx, batch, i, len(batches), &batchFailures)

			mu.Lock()
			unresolved = append(unresolved, left...)
			mu.Unlock()

			failuresMu.Lock()
			*failures = append(*failures, batchFailures...)
			failuresMu.Unlock()

			completed := int(atomic.AddInt32(&done, 1))
			if v.OnBatchProgress != nil {
				v.OnBatchProgress(completed, len(batches))
			}
			return nil
		})
	}
	_ = g.Wait()
	return unresolved
}

// verifyBatch issues one batch-lookup call and applies the match
// acceptance filter to each returned entry, returning citations that
// remain unverified.
func (v *Verifier) verifyBatch(ctx context.Context, batch []*citation.Citation, index, total int, failures *[]*citation.VerificationFailure) []*citation.Citation {
	v.Log.V(1).Info("verifying batch", logging.VerificationFields(index, total, len(batch)).ToZapArgs()...)

	batchCtx, cancel := context.WithTimeout(ctx, batchOverallTimeout)
	defer cancel()

	timer := metrics.NewTimer()
	entries, err := v.callBatch(batchCtx, batch)
	if err != nil {
		// One retry, then fallback for the whole batch (spec §4.5/§7).
		entries, err = v.callBatch(batchCtx, batch)
	}
	if err != nil {
		timer.RecordVerificationBatch("error")
		for _, c := range batch {
			*failures = append(*failures, &citation.VerificationFailure{
				CitationText: c.Text,
				Kind:         classify(err),
				Detail:       err.Error(),
			})
		}
		return batch
	}
	timer.RecordVerificationBatch("success")

	var unresolved []*citation.Citation
	for i, c := range batch {
		if i >= len(entries) {
			unresolved = append(unresolved, c)
			continue
		}
		if !v.applyEntry(c, entries[i], failures) {
			unresolved = append(unresolved, c)
		}
	}
	return unresolved
}

func (v *Verifier) callBatch(ctx context.Context, batch []*citation.Citation) ([]AuthorityEntry, error) {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}

	result, err := v.Breaker.Execute(func() (interface{}, error) {
		if err := v.RateLimiter.wait(ctx); err != nil {
			return nil, err
		}
		return v.Client.BatchLookup(ctx, texts)
	}, isRateLimited)
	if err != nil {
		metrics.RecordAuthorityCall("error")
		return nil, err
	}
	metrics.RecordAuthorityCall("success")
	return result.([]AuthorityEntry), nil
}

// applyEntry applies the match acceptance filter to one batch entry,
// populating c's canonical fields and caching the result on acceptance.
func (v *Verifier) applyEntry(c *citation.Citation, entry AuthorityEntry, failures *[]*citation.VerificationFailure) bool {
	if entry.Status == 404 || len(entry.Clusters) == 0 {
		*failures = append(*failures, &citation.VerificationFailure{CitationText: c.Text, Kind: citation.FailureNotFound})
		return false
	}

	cand := selectAccepted(c, entry.Clusters, failures)
	if cand == nil {
		return false
	}
	result := &citation.VerificationResult{
		CitationText:  c.Text,
		Found:         true,
		CanonicalName: cand.CaseName,
		CanonicalDate: cand.DateFiled,
		CanonicalURL:  cand.URL,
		Jurisdiction:  cand.Jurisdiction,
		Source:        citation.SourceBatchLookup,
	}
	applyResult(c, result)
	if v.Cache != nil {
		_ = v.Cache.Set(context.Background(), c.Text, result)
	}
	return true
}

// selectAccepted applies the match acceptance filter to every candidate and
// returns the one accepted candidate. Per SPEC_FULL.md §5's resolution of
// spec.md's "multiple passing candidates" open question, a match is only
// confident when exactly one candidate independently passes the filter;
// two or more passing candidates is treated as no match at all, the same
// as zero.
func selectAccepted(c *citation.Citation, candidates []AuthorityCluster, failures *[]*citation.VerificationFailure) *AuthorityCluster {
	var accepted []AuthorityCluster
	for _, cand := range candidates {
		ok, kind := AcceptCandidate(c, cand, len(candidates))
		if !ok {
			*failures = append(*failures, &citation.VerificationFailure{CitationText: c.Text, Kind: kind})
			continue
		}
		accepted = append(accepted, cand)
	}
	if len(accepted) != 1 {
		if len(accepted) > 1 {
			*failures = append(*failures, &citation.VerificationFailure{CitationText: c.Text, Kind: citation.FailureNameMismatch})
		}
		return nil
	}
	return &accepted[0]
}

// fallbackVerify runs the search-API and alternate-source paths for
// citations the batch path left unverified, but only when that citation's
// cluster still has no verified member (spec §4.5 fallback paths).
func (v *Verifier) fallbackVerify(ctx context.Context, cites []*citation.Citation, clusters []*citation.Cluster, failures *[]*citation.VerificationFailure) {
	clusterHasVerified := map[string]bool{}
	for _, cl := range clusters {
		for _, m := range cl.Members {
			if m.Verified == citation.Verified {
				clusterHasVerified[cl.ID] = true
			}
		}
	}

	for _, c := range cites {
		if contextDone(ctx) {
			return
		}
		if clusterHasVerified[c.ClusterID] {
			continue
		}
		if v.searchFallback(ctx, c, failures) {
			clusterHasVerified[c.ClusterID] = true
			continue
		}
		v.alternateFallback(ctx, c, failures)
	}
}

func (v *Verifier) searchFallback(ctx context.Context, c *citation.Citation, failures *[]*citation.VerificationFailure) bool {
	query := c.ExtractedCaseName + " " + c.Text
	result, err := v.Breaker.Execute(func() (interface{}, error) {
		if err := v.RateLimiter.wait(ctx); err != nil {
			return nil, err
		}
		return v.Client.Search(ctx, query)
	}, isRateLimited)
	if err != nil {
		*failures = append(*failures, &citation.VerificationFailure{CitationText: c.Text, Kind: classify(err), Detail: err.Error()})
		return false
	}

	candidates := result.([]AuthorityCluster)
	cand := selectAccepted(c, candidates, failures)
	if cand == nil {
		return false
	}
	r := &citation.VerificationResult{
		CitationText: c.Text, Found: true,
		CanonicalName: cand.CaseName, CanonicalDate: cand.DateFiled,
		CanonicalURL: cand.URL, Jurisdiction: cand.Jurisdiction,
		Source: citation.SourceSearchAPI,
	}
	applyResult(c, r)
	if v.Cache != nil {
		_ = v.Cache.Set(ctx, c.Text, r)
	}
	return true
}

func (v *Verifier) alternateFallback(ctx context.Context, c *citation.Citation, failures *[]*citation.VerificationFailure) {
	for _, alt := range v.Alternates {
		if contextDone(ctx) {
			return
		}
		candPtr, err := alt.Lookup(ctx, c.ExtractedCaseName+" "+c.Text)
		if err != nil || candPtr == nil {
			continue
		}
		cand := selectAccepted(c, []AuthorityCluster{*candPtr}, failures)
		if cand == nil {
			continue
		}
		r := &citation.VerificationResult{
			CitationText: c.Text, Found: true,
			CanonicalName: cand.CaseName, CanonicalDate: cand.DateFiled,
			CanonicalURL: cand.URL, Jurisdiction: cand.Jurisdiction,
			Source: citation.AlternateSourceName(alt.Name()),
		}
		applyResult(c, r)
		if v.Cache != nil {
			_ = v.Cache.Set(ctx, c.Text, r)
		}
		return
	}
}

// propagateWithinClusters implements spec §4.5's propagation rule: if any
// member of a cluster is verified, every other member is marked
// verified_by_parallel and inherits canonical fields, unless that would
// contradict the member's own accepted verification.
func propagateWithinClusters(clusters []*citation.Cluster) {
	for _, cl := range clusters {
		var source *citation.Citation
		for _, m := range cl.Members {
			if m.Verified == citation.Verified {
				source = m
				break
			}
		}
		if source == nil {
			continue
		}
		for _, m := range cl.Members {
			if m == source || m.Verified == citation.Verified {
				continue
			}
			m.Verified = citation.VerifiedByParallel
			m.CanonicalName = source.CanonicalName
			m.CanonicalDate = source.CanonicalDate
			m.CanonicalURL = source.CanonicalURL
			m.VerificationSource = string(source.VerificationSource)
		}
	}
}

func applyResult(c *citation.Citation, r *citation.VerificationResult) {
	if !r.Found {
		return
	}
	c.CanonicalName = r.CanonicalName
	c.CanonicalDate = r.CanonicalDate
	c.CanonicalURL = r.CanonicalURL
	c.VerificationSource = string(r.Source)
	c.Verified = citation.Verified
}

func partition(cites []*citation.Citation, size int) [][]*citation.Citation {
	var out [][]*citation.Citation
	for i := 0; i < len(cites); i += size {
		end := i + size
		if end > len(cites) {
			end = len(cites)
		}
		out = append(out, cites[i:end])
	}
	return out
}

func classify(err error) citation.FailureKind {
	switch errors.GetType(err) {
	case errors.ErrorTypeRateLimited:
		return citation.FailureRateLimited
	case errors.ErrorTypeTimeout:
		return citation.FailureTransportError
	default:
		return citation.FailureTransportError
	}
}

// isRateLimited reports whether err is the authority's rate-limit signal,
// the only failure kind that should count toward tripping the circuit
// breaker.
func isRateLimited(err error) bool {
	return errors.IsType(err, errors.ErrorTypeRateLimited)
}
