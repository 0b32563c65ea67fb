package sources

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/openrecon/kite/internal/domain"
)

// ShodanAdapter looks up exposed services for a host.
type ShodanAdapter struct {
	base
	cfg    domain.APIConfig
	client *http.Client
}

// NewShodanAdapter creates the host exposure adapter.
func NewShodanAdapter(cfg domain.APIConfig, client *http.Client) *ShodanAdapter {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &ShodanAdapter{
		base: newBase("shodan", domain.TierFast, 15*time.Second,
			rate.NewLimiter(rate.Every(time.Second), 1),
			domain.TypeIP),
		cfg:    cfg,
		client: client,
	}
}

// Probe fetches the host record. A 404 means the host is unknown to the
// scanner and yields an empty but successful result.
func (a *ShodanAdapter) Probe(ctx context.Context, query string) domain.SourceResult {
	if a.cfg.Key == "" {
		return a.notConfigured(query)
	}

	return a.probe(ctx, query, func(ctx context.Context) (map[string]any, error) {
		q := url.Values{}
		q.Set("key", a.cfg.Key)
		u := a.cfg.Endpoint + "/shodan/host/" + url.PathEscape(query) + "?" + q.Encode()

		body, status, err := getJSON(ctx, a.client, u, nil, http.StatusNotFound)
		if err != nil {
			return nil, err
		}
		if status == http.StatusNotFound {
			return map[string]any{
				"open_ports": []any{},
				"vulns":      []any{},
				"hostnames":  []any{},
			}, nil
		}

		out := map[string]any{
			"open_ports": body["ports"],
			"hostnames":  body["hostnames"],
			"org":        firstString(body, "org"),
			"isp":        firstString(body, "isp"),
			"country":    firstString(body, "country_name"),
		}

		// Shodan reports vulnerabilities either as a list or as a map of
		// CVE id to detail.
		switch vulns := body["vulns"].(type) {
		case []any:
			out["vulns"] = vulns
		case map[string]any:
			ids := make([]any, 0, len(vulns))
			for id := range vulns {
				ids = append(ids, id)
			}
			out["vulns"] = ids
		default:
			out["vulns"] = []any{}
		}

		return out, nil
	})
}
