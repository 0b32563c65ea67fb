package sources

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/openrecon/kite/internal/domain"
)

// NumverifyAdapter validates phone numbers. Without a credential it
// falls back to an offline prefix parse so phone targets still produce
// a result.
type NumverifyAdapter struct {
	base
	cfg             domain.APIConfig
	countryPrefixes map[string]string
	carrierPrefixes map[string]string
	client          *http.Client
}

// NewNumverifyAdapter creates the phone validation adapter.
func NewNumverifyAdapter(cfg domain.APIConfig, countryPrefixes, carrierPrefixes map[string]string, client *http.Client) *NumverifyAdapter {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &NumverifyAdapter{
		base: newBase("numverify", domain.TierFast, 10*time.Second,
			rate.NewLimiter(rate.Every(time.Second), 1),
			domain.TypePhone),
		cfg:             cfg,
		countryPrefixes: countryPrefixes,
		carrierPrefixes: carrierPrefixes,
		client:          client,
	}
}

// Probe validates the number via the API, or via the offline prefix
// tables when no credential is configured.
func (a *NumverifyAdapter) Probe(ctx context.Context, query string) domain.SourceResult {
	if a.cfg.Key == "" {
		return a.probe(ctx, query, func(context.Context) (map[string]any, error) {
			return a.offlineParse(query), nil
		})
	}

	return a.probe(ctx, query, func(ctx context.Context) (map[string]any, error) {
		q := url.Values{}
		q.Set("access_key", a.cfg.Key)
		q.Set("number", strings.TrimPrefix(query, "+"))
		u := a.cfg.Endpoint + "?" + q.Encode()

		body, _, err := getJSON(ctx, a.client, u, nil)
		if err != nil {
			return nil, err
		}

		valid, _ := body["valid"].(bool)
		return map[string]any{
			"valid":     valid,
			"carrier":   firstString(body, "carrier"),
			"line_type": firstString(body, "line_type"),
			"country":   firstString(body, "country_name"),
			"location":  firstString(body, "location"),
		}, nil
	})
}

// offlineParse resolves country and carrier by longest matching prefix.
// A number is considered valid when it is international format with a
// plausible digit count and a known country prefix.
func (a *NumverifyAdapter) offlineParse(number string) map[string]any {
	cleaned := strings.Map(func(r rune) rune {
		if r == '+' || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, number)

	country := longestPrefixMatch(a.countryPrefixes, cleaned)
	carrier := longestPrefixMatch(a.carrierPrefixes, cleaned)

	digits := strings.TrimPrefix(cleaned, "+")
	valid := strings.HasPrefix(cleaned, "+") && len(digits) >= 8 && len(digits) <= 15 && country != ""

	return map[string]any{
		"valid":     valid,
		"carrier":   carrier,
		"line_type": "unknown",
		"country":   country,
		"offline":   true,
	}
}

func longestPrefixMatch(table map[string]string, number string) string {
	prefixes := make([]string, 0, len(table))
	for p := range table {
		prefixes = append(prefixes, p)
	}
	// Longest prefix first so +336 wins over +33.
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })

	for _, p := range prefixes {
		if strings.HasPrefix(number, p) {
			return table[p]
		}
	}
	return ""
}
