package sources

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/openrecon/kite/internal/domain"
)

// HoleheAdapter checks which sites hold an account registered to an
// address by driving the holehe CLI tool.
type HoleheAdapter struct {
	base
	path   string
	runner Runner
}

// NewHoleheAdapter creates the account existence adapter.
func NewHoleheAdapter(path string, runner Runner) *HoleheAdapter {
	if path == "" {
		path = "holehe"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &HoleheAdapter{
		base: newBase("holehe", domain.TierDeep, 60*time.Second,
			rate.NewLimiter(rate.Every(2*time.Second), 1),
			domain.TypeEmail),
		path:   path,
		runner: runner,
	}
}

// Probe runs the tool in used-only mode and collects the confirmed
// sites.
func (a *HoleheAdapter) Probe(ctx context.Context, query string) domain.SourceResult {
	return a.probe(ctx, query, func(ctx context.Context) (map[string]any, error) {
		out, err := a.runner.Run(ctx, a.path, "--only-used", "--no-color", query)
		if err != nil {
			return nil, err
		}

		sites := parseHolehe(out)
		return map[string]any{
			"registered_sites": sites,
			"site_count":       len(sites),
		}, nil
	})
}

// parseHolehe reads "[+] site.com" confirmation lines.
func parseHolehe(out []byte) []any {
	var sites []any

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "[+]") {
			continue
		}

		site := strings.TrimSpace(strings.TrimPrefix(line, "[+]"))
		if site == "" || strings.Contains(site, " ") {
			continue
		}
		sites = append(sites, strings.ToLower(site))
	}

	return sites
}
