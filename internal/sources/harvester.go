package sources

import (
	"bufio"
	"bytes"
	"context"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/openrecon/kite/internal/domain"
)

// HarvesterAdapter harvests addresses and hosts for a domain by driving
// the theHarvester CLI tool.
type HarvesterAdapter struct {
	base
	path   string
	runner Runner
}

// NewHarvesterAdapter creates the domain harvesting adapter.
func NewHarvesterAdapter(path string, runner Runner) *HarvesterAdapter {
	if path == "" {
		path = "theHarvester"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &HarvesterAdapter{
		base: newBase("harvester", domain.TierUltraDeep, 180*time.Second,
			rate.NewLimiter(rate.Every(5*time.Second), 1),
			domain.TypeDomain),
		path:   path,
		runner: runner,
	}
}

// Probe runs the tool against the domain and splits its output into
// addresses and hosts.
func (a *HarvesterAdapter) Probe(ctx context.Context, query string) domain.SourceResult {
	return a.probe(ctx, query, func(ctx context.Context) (map[string]any, error) {
		out, err := a.runner.Run(ctx, a.path, "-d", query, "-b", "all")
		if err != nil {
			return nil, err
		}

		emails, hosts := parseHarvester(out, query)
		return map[string]any{
			"emails": emails,
			"hosts":  hosts,
		}, nil
	})
}

// parseHarvester pulls addresses and in-domain hostnames out of the
// tool's plain-text report.
func parseHarvester(out []byte, domainName string) ([]any, []any) {
	emailSet := make(map[string]struct{})
	hostSet := make(map[string]struct{})
	suffix := "." + strings.ToLower(domainName)

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "[") {
			continue
		}

		// Host lines may carry a resolved address after a colon.
		host, _, _ := strings.Cut(line, ":")
		host = strings.ToLower(strings.TrimSpace(host))

		if e := emailInText.FindString(line); e != "" {
			emailSet[strings.ToLower(e)] = struct{}{}
			continue
		}
		if host == strings.ToLower(domainName) || strings.HasSuffix(host, suffix) {
			hostSet[host] = struct{}{}
		}
	}

	return sortedAny(emailSet), sortedAny(hostSet)
}

func sortedAny(set map[string]struct{}) []any {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	// Deterministic output keeps cached results stable.
	sort.Strings(keys)

	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}
