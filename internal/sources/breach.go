package sources

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/openrecon/kite/internal/domain"
)

// BreachAdapter queries a breach index for a compromised address.
type BreachAdapter struct {
	base
	cfg    domain.APIConfig
	client *http.Client
}

// NewBreachAdapter creates the breach index adapter.
func NewBreachAdapter(cfg domain.APIConfig, client *http.Client) *BreachAdapter {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &BreachAdapter{
		base: newBase("breachdirectory", domain.TierFast, 10*time.Second,
			rate.NewLimiter(rate.Every(1500*time.Millisecond), 1),
			domain.TypeEmail),
		cfg:    cfg,
		client: client,
	}
}

// Probe looks up the address in the breach index. A 404 is a clean
// "never breached" success with an empty breach list.
func (a *BreachAdapter) Probe(ctx context.Context, query string) domain.SourceResult {
	if a.cfg.Key == "" {
		return a.notConfigured(query)
	}

	return a.probe(ctx, query, func(ctx context.Context) (map[string]any, error) {
		u := a.cfg.Endpoint + "/breachedaccount/" + url.PathEscape(query) + "?truncateResponse=false"
		headers := map[string]string{"hibp-api-key": a.cfg.Key}

		records, status, err := getJSONList(ctx, a.client, u, headers, http.StatusNotFound)
		if err != nil {
			return nil, err
		}
		if status == http.StatusNotFound {
			return map[string]any{"breaches": []any{}, "breach_count": 0}, nil
		}

		breaches := make([]any, 0, len(records))
		for _, r := range records {
			breaches = append(breaches, map[string]any{
				"name":         firstString(r, "Name", "name"),
				"date":         firstString(r, "BreachDate", "date"),
				"data_classes": r["DataClasses"],
			})
		}

		return map[string]any{
			"breaches":     breaches,
			"breach_count": len(breaches),
		}, nil
	})
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
