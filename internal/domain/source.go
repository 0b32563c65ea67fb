package domain

import (
	"context"
	"time"
)

// Result status values for a source probe.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Well-known failure reasons. Adapters may return free-form reasons for
// diagnostics; these two are checked programmatically.
const (
	ReasonTimeout       = "timeout"
	ReasonNotConfigured = "not configured"
)

// SourceResult is one adapter's output for one query. It is a tagged
// union: either a success payload or a failure reason, never both.
// Adapters return it by value and never raise past the probe boundary.
type SourceResult struct {
	SourceName string         `json:"source"`
	Query      string         `json:"query"`
	Status     string         `json:"status"`
	Data       map[string]any `json:"data,omitempty"`
	Error      string         `json:"error,omitempty"`
	ElapsedMs  int64          `json:"elapsed_ms"`
}

// OK reports whether the probe succeeded.
func (r *SourceResult) OK() bool {
	return r.Status == ResultSuccess
}

// Success builds a successful result for a source.
func Success(source, query string, data map[string]any, elapsed time.Duration) SourceResult {
	return SourceResult{
		SourceName: source,
		Query:      query,
		Status:     ResultSuccess,
		Data:       data,
		ElapsedMs:  elapsed.Milliseconds(),
	}
}

// Failure builds a failed result for a source. A failure is a valid
// terminal state, not an error condition for the pipeline.
func Failure(source, query, reason string, elapsed time.Duration) SourceResult {
	return SourceResult{
		SourceName: source,
		Query:      query,
		Status:     ResultError,
		Error:      reason,
		ElapsedMs:  elapsed.Milliseconds(),
	}
}

// AdapterTier classifies how expensive an adapter is to invoke.
type AdapterTier string

const (
	// TierFast adapters are structured-API lookups and always run.
	TierFast AdapterTier = "fast"

	// TierDeep adapters are multi-site enumeration tools, run on deep search.
	TierDeep AdapterTier = "deep"

	// TierUltraDeep adapters are the slowest exhaustive scans.
	TierUltraDeep AdapterTier = "ultra-deep"
)

// SourceAdapter wraps one intelligence source. Probe must never panic or
// return an in-band error: any internal failure (network, missing
// credential, tool not installed, malformed output, timeout) is captured
// and returned as a Failure result.
//
// Probe must be safe for concurrent use with other adapters and with
// itself on different queries.
type SourceAdapter interface {
	// Name is the stable identifier used in provenance and persistence.
	Name() string

	// Tier determines at which search depth the adapter is invoked.
	Tier() AdapterTier

	// Supports reports whether the adapter can handle the query type.
	Supports(t QueryType) bool

	// Timeout is the per-probe budget enforced by the orchestrator.
	Timeout() time.Duration

	// Probe queries the source. The context carries the timeout.
	Probe(ctx context.Context, query string) SourceResult
}
