package sources

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/openrecon/kite/internal/domain"
)

// WebSearchAdapter mines open-web search results for profiles, contact
// data and affiliations.
type WebSearchAdapter struct {
	base
	cfg    domain.APIConfig
	client *http.Client
}

var (
	emailInText = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phoneInText = regexp.MustCompile(`\+[0-9]{7,15}`)

	// profileHosts maps result-link hosts to platform names. The path's
	// first segment is taken as the handle.
	profileHosts = map[string]string{
		"github.com":        "github",
		"twitter.com":       "twitter",
		"x.com":             "twitter",
		"instagram.com":     "instagram",
		"facebook.com":      "facebook",
		"linkedin.com":      "linkedin",
		"medium.com":        "medium",
		"reddit.com":        "reddit",
		"gitlab.com":        "gitlab",
		"stackoverflow.com": "stackoverflow",
	}
)

// NewWebSearchAdapter creates the web search adapter.
func NewWebSearchAdapter(cfg domain.APIConfig, client *http.Client) *WebSearchAdapter {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &WebSearchAdapter{
		base: newBase("websearch", domain.TierFast, 15*time.Second,
			rate.NewLimiter(rate.Every(time.Second), 1),
			domain.TypeName, domain.TypeUsername, domain.TypeEmail, domain.TypeDomain),
		cfg:    cfg,
		client: client,
	}
}

// Probe issues the search and extracts structured findings from the
// organic results.
func (a *WebSearchAdapter) Probe(ctx context.Context, query string) domain.SourceResult {
	if a.cfg.Key == "" {
		return a.notConfigured(query)
	}

	return a.probe(ctx, query, func(ctx context.Context) (map[string]any, error) {
		q := url.Values{}
		q.Set("q", `"`+query+`"`)
		q.Set("engine", "google")
		q.Set("api_key", a.cfg.Key)
		u := a.cfg.Endpoint + "?" + q.Encode()

		body, _, err := getJSON(ctx, a.client, u, nil)
		if err != nil {
			return nil, err
		}

		organic, _ := body["organic_results"].([]any)
		return mineResults(organic), nil
	})
}

// mineResults walks organic search hits and pulls out profile links,
// addresses and phone numbers.
func mineResults(organic []any) map[string]any {
	var profiles []any
	emailSet := make(map[string]struct{})
	phoneSet := make(map[string]struct{})

	for _, item := range organic {
		hit, ok := item.(map[string]any)
		if !ok {
			continue
		}

		link, _ := hit["link"].(string)
		if platform, handle := matchProfile(link); platform != "" {
			profiles = append(profiles, map[string]any{
				"platform": platform,
				"url":      link,
				"username": handle,
			})
		}

		snippet, _ := hit["snippet"].(string)
		title, _ := hit["title"].(string)
		text := title + " " + snippet

		for _, e := range emailInText.FindAllString(text, -1) {
			emailSet[strings.ToLower(e)] = struct{}{}
		}
		for _, p := range phoneInText.FindAllString(text, -1) {
			phoneSet[p] = struct{}{}
		}
	}

	return map[string]any{
		"profiles": profiles,
		"emails":   setToList(emailSet),
		"phones":   setToList(phoneSet),
	}
}

// matchProfile recognizes a profile URL and returns its platform and
// handle. Non-profile links return empty strings.
func matchProfile(link string) (string, string) {
	u, err := url.Parse(link)
	if err != nil {
		return "", ""
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	platform, ok := profileHosts[host]
	if !ok {
		return "", ""
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "", ""
	}

	handle := segments[0]
	// LinkedIn and Reddit nest handles one level down.
	if (handle == "in" || handle == "user" || handle == "u") && len(segments) > 1 {
		handle = segments[1]
	}
	return platform, handle
}

func setToList(set map[string]struct{}) []any {
	out := make([]any, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	return out
}
