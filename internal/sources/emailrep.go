package sources

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/openrecon/kite/internal/domain"
)

// EmailRepAdapter queries an address reputation service.
type EmailRepAdapter struct {
	base
	cfg    domain.APIConfig
	client *http.Client
}

// NewEmailRepAdapter creates the reputation adapter.
func NewEmailRepAdapter(cfg domain.APIConfig, client *http.Client) *EmailRepAdapter {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &EmailRepAdapter{
		base: newBase("emailrep", domain.TierFast, 10*time.Second,
			rate.NewLimiter(rate.Every(time.Second), 1),
			domain.TypeEmail),
		cfg:    cfg,
		client: client,
	}
}

// Probe fetches the reputation record and flattens the risk flags.
func (a *EmailRepAdapter) Probe(ctx context.Context, query string) domain.SourceResult {
	if a.cfg.Key == "" {
		return a.notConfigured(query)
	}

	return a.probe(ctx, query, func(ctx context.Context) (map[string]any, error) {
		u := a.cfg.Endpoint + "/" + url.PathEscape(query)
		headers := map[string]string{"Key": a.cfg.Key}

		body, _, err := getJSON(ctx, a.client, u, headers)
		if err != nil {
			return nil, err
		}

		details, _ := body["details"].(map[string]any)
		disposable, _ := details["disposable"].(bool)
		spam, _ := details["spam"].(bool)
		malicious, _ := details["malicious_activity"].(bool)
		suspicious, _ := body["suspicious"].(bool)
		reputation, _ := body["reputation"].(string)

		return map[string]any{
			"reputation": reputation,
			"suspicious": suspicious || malicious,
			"disposable": disposable,
			"gibberish":  spam,
			"profiles":   details["profiles"],
		}, nil
	})
}
