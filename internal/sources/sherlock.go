package sources

import (
	"bufio"
	"bytes"
	"context"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/openrecon/kite/internal/domain"
)

// SherlockAdapter enumerates a handle across social platforms by
// driving the sherlock CLI tool.
type SherlockAdapter struct {
	base
	path   string
	runner Runner
}

// NewSherlockAdapter creates the platform enumeration adapter. An empty
// path resolves the tool via PATH.
func NewSherlockAdapter(path string, runner Runner) *SherlockAdapter {
	if path == "" {
		path = "sherlock"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &SherlockAdapter{
		base: newBase("sherlock", domain.TierDeep, 90*time.Second,
			rate.NewLimiter(rate.Every(2*time.Second), 1),
			domain.TypeUsername, domain.TypeName),
		path:   path,
		runner: runner,
	}
}

// Probe runs the tool in found-only mode and parses its hit lines.
func (a *SherlockAdapter) Probe(ctx context.Context, query string) domain.SourceResult {
	username := strings.ToLower(strings.Join(strings.Fields(query), ""))

	return a.probe(ctx, query, func(ctx context.Context) (map[string]any, error) {
		timeoutSecs := strconv.Itoa(int(a.timeout.Seconds()) - 10)
		out, err := a.runner.Run(ctx, a.path,
			"--print-found", "--no-color", "--timeout", timeoutSecs, username)
		if err != nil {
			return nil, err
		}

		found := parseSherlock(out)
		return map[string]any{
			"username":       username,
			"found":          found,
			"platform_count": len(found),
		}, nil
	})
}

// parseSherlock reads "[+] Platform: https://..." hit lines.
func parseSherlock(out []byte) map[string]any {
	found := make(map[string]any)

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "[+]") {
			continue
		}

		rest := strings.TrimSpace(strings.TrimPrefix(line, "[+]"))
		platform, url, ok := strings.Cut(rest, ": ")
		if !ok || !strings.HasPrefix(url, "http") {
			continue
		}
		found[strings.ToLower(strings.TrimSpace(platform))] = strings.TrimSpace(url)
	}

	return found
}
