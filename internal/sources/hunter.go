package sources

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/openrecon/kite/internal/domain"
)

// HunterAdapter verifies address deliverability.
type HunterAdapter struct {
	base
	cfg    domain.APIConfig
	client *http.Client
}

// NewHunterAdapter creates the deliverability adapter.
func NewHunterAdapter(cfg domain.APIConfig, client *http.Client) *HunterAdapter {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HunterAdapter{
		base: newBase("hunter", domain.TierFast, 10*time.Second,
			rate.NewLimiter(rate.Every(time.Second), 1),
			domain.TypeEmail),
		cfg:    cfg,
		client: client,
	}
}

// Probe runs the verifier endpoint and keeps the verdict fields.
func (a *HunterAdapter) Probe(ctx context.Context, query string) domain.SourceResult {
	if a.cfg.Key == "" {
		return a.notConfigured(query)
	}

	return a.probe(ctx, query, func(ctx context.Context) (map[string]any, error) {
		q := url.Values{}
		q.Set("email", query)
		q.Set("api_key", a.cfg.Key)
		u := a.cfg.Endpoint + "/email-verifier?" + q.Encode()

		body, _, err := getJSON(ctx, a.client, u, nil)
		if err != nil {
			return nil, err
		}

		data, _ := body["data"].(map[string]any)
		result, _ := data["result"].(string)
		email, _ := data["email"].(string)

		out := map[string]any{
			"result": result,
			"email":  email,
			"score":  data["score"],
		}
		if d, ok := data["domain"].(string); ok && d != "" {
			out["domain"] = d
		}
		if org, ok := data["organization"].(string); ok && org != "" {
			out["organization"] = org
		}
		return out, nil
	})
}
