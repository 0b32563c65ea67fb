// Package detect classifies raw query strings into target types.
package detect

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/openrecon/kite/internal/domain"
)

var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern    = regexp.MustCompile(`^[+]?[(]?[0-9]{1,4}[)]?[-\s.]?[(]?[0-9]{1,4}[)]?[-\s.]?[0-9]{1,9}$`)
	ipPattern       = regexp.MustCompile(`^(?:[0-9]{1,3}\.){3}[0-9]{1,3}$`)
	domainPattern   = regexp.MustCompile(`^(?:[a-zA-Z0-9-]+\.)+[a-zA-Z]{2,}$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,30}$`)
)

// Detect classifies a query string. Classification is first-match over
// email, phone, IP, domain, URL, username and full name; a URL also
// yields its host as a domain type. Anything at least three characters
// long falls back to a low-confidence username guess.
func Detect(query string) domain.Detection {
	query = strings.TrimSpace(query)

	d := domain.Detection{
		Query:      query,
		Confidence: make(map[domain.QueryType]float64),
	}

	switch {
	case emailPattern.MatchString(query):
		d.Types = append(d.Types, domain.TypeEmail)
		d.Confidence[domain.TypeEmail] = 0.95

	case phonePattern.MatchString(strings.ReplaceAll(query, " ", "")):
		d.Types = append(d.Types, domain.TypePhone)
		d.Confidence[domain.TypePhone] = 0.90

	case ipPattern.MatchString(query):
		d.Types = append(d.Types, domain.TypeIP)
		d.Confidence[domain.TypeIP] = 1.0

	case domainPattern.MatchString(query) && strings.Contains(query, "."):
		d.Types = append(d.Types, domain.TypeDomain)
		d.Confidence[domain.TypeDomain] = 0.85

	case strings.HasPrefix(query, "http://") || strings.HasPrefix(query, "https://") || strings.HasPrefix(query, "www."):
		d.Types = append(d.Types, domain.TypeURL)
		d.Confidence[domain.TypeURL] = 1.0
		if host := extractHost(query); host != "" {
			d.Types = append(d.Types, domain.TypeDomain)
			d.Confidence[domain.TypeDomain] = 0.90
		}

	case usernamePattern.MatchString(query):
		d.Types = append(d.Types, domain.TypeUsername)
		d.Confidence[domain.TypeUsername] = 0.75

	case strings.Contains(query, " ") && len(strings.Fields(query)) >= 2:
		d.Types = append(d.Types, domain.TypeName)
		d.Confidence[domain.TypeName] = 0.80

	default:
		if len(query) >= 3 {
			d.Types = append(d.Types, domain.TypeUsername)
			d.Confidence[domain.TypeUsername] = 0.50
		}
	}

	d.Suggestions = suggestions(d.Types)
	return d
}

// Host extracts the host part of a URL query for domain searches.
func Host(query string) string {
	return extractHost(query)
}

func extractHost(query string) string {
	raw := query
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func suggestions(types []domain.QueryType) []string {
	var out []string
	for _, t := range types {
		switch t {
		case domain.TypeEmail:
			out = append(out,
				"Check breach databases for this address",
				"Probe account existence across platforms",
				"Verify deliverability and reputation",
			)
		case domain.TypePhone:
			out = append(out,
				"Identify the carrier and line type",
				"Resolve country and region",
			)
		case domain.TypeUsername:
			out = append(out,
				"Enumerate this handle across social platforms",
				"Run a deep search for exhaustive coverage",
			)
		case domain.TypeIP:
			out = append(out,
				"Look up open ports and exposed services",
				"Check for known vulnerabilities",
			)
		case domain.TypeDomain:
			out = append(out,
				"Harvest e-mail addresses for this domain",
				"Enumerate subdomains",
			)
		case domain.TypeName:
			out = append(out,
				"Generate username and e-mail variations",
				"Enumerate candidate handles across platforms",
			)
		}
	}
	return out
}
