// Package citation defines the Core's data model: the Citation, Cluster,
// Job, VerificationResult, and VerificationFailure entities shared across
// the extraction, clustering, verification, and pipeline-control stages.
package citation

import "time"

// VerificationState is the tri-state a Citation's verification status can
// be in.
type VerificationState string

const (
	Unverified        VerificationState = "unverified"
	Verified          VerificationState = "verified"
	VerifiedByParallel VerificationState = "verified_by_parallel"
)

// Citation is one occurrence of a legal citation in the source text.
//
// extracted_* fields come exclusively from the input document; canonical_*
// fields come exclusively from the authority service. These two sets must
// never be mixed, even when one side is empty.
type Citation struct {
	// Text is the canonical string form, e.g. "183 Wn.2d 649".
	Text string `json:"text"`
	// Span is the half-open byte range [Start, End) into the original
	// input text. It is never recomputed against a normalized copy.
	Span Span `json:"span"`
	// Reporter is the tag identifying the reporter series, e.g. "Wn.2d",
	// "P.3d", "U.S.", "S. Ct.", "L. Ed. 2d", "F.2d", "WL".
	Reporter string `json:"reporter"`
	Volume   int    `json:"volume"`
	Page     int    `json:"page"`
	Pincite  int    `json:"pincite,omitempty"`

	// ExtractedCaseName and ExtractedDate come exclusively from the input
	// document. ExtractedDate is the bare four-digit year, e.g. "2015".
	ExtractedCaseName string `json:"extracted_case_name,omitempty"`
	ExtractedDate     string `json:"extracted_date,omitempty"`
	JurisdictionHint  string `json:"jurisdiction_hint,omitempty"`

	// CanonicalName, CanonicalDate, and CanonicalURL come exclusively from
	// the authority service. CanonicalDate carries the full filing date
	// the authority reports, e.g. "2015-03-01", not just a year.
	CanonicalName       string `json:"canonical_name,omitempty"`
	CanonicalDate       string `json:"canonical_date,omitempty"`
	CanonicalURL        string `json:"canonical_url,omitempty"`
	VerificationSource  string `json:"verification_source,omitempty"`

	Verified  VerificationState `json:"verified"`
	ClusterID string            `json:"cluster_id,omitempty"`
}

// Span is a half-open byte range [Start, End) into the original input text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes the span covers.
func (s Span) Len() int { return s.End - s.Start }

// Overlaps reports whether s and other share at least one byte.
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// ClusterType distinguishes how a Cluster was formed.
type ClusterType string

const (
	ClusterProximityBased   ClusterType = "proximity_based"
	ClusterSplitByCanonical ClusterType = "split_by_canonical"
)

// Cluster is one set of citations believed to refer to the same case.
//
// Invariants: every member shares ClusterID; if any member is verified, all
// members are reported as Verified or VerifiedByParallel; no cluster
// contains citations whose verified canonical names differ (enforced by
// the canonical-consistency splitter).
type Cluster struct {
	ID          string      `json:"cluster_id"`
	Members     []*Citation `json:"citations"`
	ClusterType ClusterType `json:"cluster_type"`

	CanonicalName string `json:"canonical_name,omitempty"`
	CanonicalDate string `json:"canonical_date,omitempty"`
	CanonicalURL  string `json:"canonical_url,omitempty"`

	// AmbiguousContext is set by the context metadata propagator when two
	// members disagree on extracted_case_name/extracted_date, and is
	// reported in the result. The verifier does not read it.
	AmbiguousContext bool `json:"ambiguous_context,omitempty"`
}

// JobStatus is a Job's lifecycle state.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// InputKind identifies how the job's source text was obtained, per the
// router's contract (§4.1); the Core never performs the decode itself.
type InputKind string

const (
	InputText            InputKind = "text"
	InputFileDerivedText InputKind = "file_derived_text"
	InputURLDerivedText  InputKind = "url_derived_text"
)

// ExecutionMode is the mode the router chose for a Job.
type ExecutionMode string

const (
	ModeSync  ExecutionMode = "sync"
	ModeAsync ExecutionMode = "async"
)

// Job is one end-to-end request, tracked in the progress store for the
// lifetime of its processing plus a 24h retention window.
type Job struct {
	ID        string        `json:"id"`
	InputKind InputKind     `json:"input_kind"`
	Mode      ExecutionMode `json:"mode"`
	Status    JobStatus     `json:"status"`

	// ProgressPct is 0..100 and monotonically non-decreasing until the job
	// reaches a terminal status.
	ProgressPct int    `json:"progress_pct"`
	CurrentStep string `json:"current_step,omitempty"`

	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`

	// AsyncPromoted is set when a job that started on the sync path was
	// converted to async because it exceeded the sync wall-clock cap.
	AsyncPromoted bool `json:"async_promoted,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Result is the assembled output of a completed job (§4.7). Its marshaled
// shape is exactly {clusters, stats}: each cluster nests its own ordered
// citations, so Citations is kept only as a convenience for callers that
// want the flat document-order list and is never itself serialized.
type Result struct {
	Citations []*Citation `json:"-"`
	Clusters  []*Cluster  `json:"clusters"`
	Stats     Stats       `json:"stats"`
}

// Stats summarizes a completed job's result, per §6's result payload
// schema.
type Stats struct {
	TotalCitations int `json:"total_citations"`
	Verified       int `json:"verified"`
	Clusters       int `json:"clusters"`
}

// NewStats computes Stats from a job's final citations and clusters.
func NewStats(citations []*Citation, clusters []*Cluster) Stats {
	stats := Stats{TotalCitations: len(citations), Clusters: len(clusters)}
	for _, c := range citations {
		if c.Verified == Verified || c.Verified == VerifiedByParallel {
			stats.Verified++
		}
	}
	return stats
}

// VerificationSource identifies which lookup path produced a
// VerificationResult.
type VerificationSource string

const (
	SourceBatchLookup VerificationSource = "batch_lookup"
	SourceSearchAPI   VerificationSource = "search_api"
)

// AlternateSourceName builds the "alternate_source_<name>" verification
// source tag for a configured alternate authority.
func AlternateSourceName(name string) VerificationSource {
	return VerificationSource("alternate_source_" + name)
}

// VerificationResult is the authority service's response for one citation.
//
// If Found is false, every canonical field must be empty.
type VerificationResult struct {
	CitationText string             `json:"citation_text"`
	Found        bool               `json:"found"`
	CanonicalName string            `json:"canonical_name,omitempty"`
	CanonicalDate string            `json:"canonical_date,omitempty"`
	CanonicalURL  string            `json:"canonical_url,omitempty"`
	Jurisdiction  string            `json:"jurisdiction,omitempty"`
	Source        VerificationSource `json:"source"`
	Error         string            `json:"error,omitempty"`
}

// FailureKind is the typed reason a citation could not be verified, used to
// decide whether to retry, fall back, or surface the failure.
type FailureKind string

const (
	FailureRateLimited         FailureKind = "rate_limited"
	FailureNotFound            FailureKind = "not_found"
	FailureJurisdictionMismatch FailureKind = "jurisdiction_mismatch"
	FailureNameMismatch        FailureKind = "name_mismatch"
	FailureDateMismatch        FailureKind = "date_mismatch"
	FailureTransportError      FailureKind = "transport_error"
)

// VerificationFailure is a typed error describing why a citation could not
// be verified.
type VerificationFailure struct {
	CitationText string
	Kind         FailureKind
	Detail       string
}

func (f *VerificationFailure) Error() string {
	if f.Detail == "" {
		return string(f.Kind) + ": " + f.CitationText
	}
	return string(f.Kind) + ": " + f.CitationText + " (" + f.Detail + ")"
}
