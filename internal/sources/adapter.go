// Package sources implements the adapters that wrap external
// intelligence services and tools behind the SourceAdapter interface.
package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/openrecon/kite/internal/domain"
)

// base carries the identity, tier, query-type support and probe
// plumbing shared by every adapter. The probe wrapper enforces the
// adapter's rate limit and converts panics, timeouts and errors into
// Failure results so nothing escapes the probe boundary.
type base struct {
	name    string
	tier    domain.AdapterTier
	types   map[domain.QueryType]bool
	timeout time.Duration
	limiter *rate.Limiter
}

func newBase(name string, tier domain.AdapterTier, timeout time.Duration, limiter *rate.Limiter, types ...domain.QueryType) base {
	set := make(map[domain.QueryType]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return base{
		name:    name,
		tier:    tier,
		types:   set,
		timeout: timeout,
		limiter: limiter,
	}
}

func (b *base) Name() string             { return b.name }
func (b *base) Tier() domain.AdapterTier { return b.tier }
func (b *base) Timeout() time.Duration   { return b.timeout }

func (b *base) Supports(t domain.QueryType) bool { return b.types[t] }

// probe runs one lookup under the adapter's rate limit with full
// failure containment.
func (b *base) probe(ctx context.Context, query string, fn func(context.Context) (map[string]any, error)) (res domain.SourceResult) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res = domain.Failure(b.name, query, fmt.Sprintf("panic: %v", r), time.Since(start))
		}
	}()

	if err := b.limiter.Wait(ctx); err != nil {
		return domain.Failure(b.name, query, failureReason(err), time.Since(start))
	}

	data, err := fn(ctx)
	if err != nil {
		return domain.Failure(b.name, query, failureReason(err), time.Since(start))
	}

	return domain.Success(b.name, query, data, time.Since(start))
}

// notConfigured is the canonical result for a source missing its
// credential. It is returned without consuming the rate limit.
func (b *base) notConfigured(query string) domain.SourceResult {
	return domain.Failure(b.name, query, domain.ReasonNotConfigured, 0)
}

func failureReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ReasonTimeout
	}
	return err.Error()
}

// getJSON performs a GET request and decodes a JSON object body. Callers
// pass expected non-200 statuses through okStatus to map them to
// empty-but-successful payloads (a 404 from a breach index means "not
// found", not an error).
func getJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, okStatus ...int) (map[string]any, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "kite")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	for _, s := range okStatus {
		if resp.StatusCode == s {
			io.Copy(io.Discard, resp.Body)
			return nil, resp.StatusCode, nil
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, resp.StatusCode, err
	}

	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("malformed response: %w", err)
	}
	return out, resp.StatusCode, nil
}

// getJSONList is getJSON for endpoints that return a top-level array.
func getJSONList(ctx context.Context, client *http.Client, url string, headers map[string]string, okStatus ...int) ([]map[string]any, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "kite")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	for _, s := range okStatus {
		if resp.StatusCode == s {
			io.Copy(io.Discard, resp.Body)
			return nil, resp.StatusCode, nil
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, resp.StatusCode, err
	}

	var out []map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("malformed response: %w", err)
	}
	return out, resp.StatusCode, nil
}
