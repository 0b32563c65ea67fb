package correlate

import (
	"strings"

	"github.com/openrecon/kite/internal/domain"
)

// extractFunc turns one successful source result into raw facts.
// Extractors are total: malformed or missing payload fields are skipped,
// never surfaced as errors.
type extractFunc func(e *Engine, query string, res domain.SourceResult) []domain.Fact

// professionalPlatforms decides whether a profile counts as professional
// rather than social.
var professionalPlatforms = map[string]bool{
	"linkedin":   true,
	"xing":       true,
	"angellist":  true,
	"crunchbase": true,
}

func defaultExtractors() map[string]extractFunc {
	return map[string]extractFunc{
		"breachdirectory": extractBreaches,
		"emailrep":        extractEmailRep,
		"hunter":          extractHunter,
		"numverify":       extractNumverify,
		"shodan":          extractShodan,
		"websearch":       extractWebSearch,
		"sherlock":        extractSherlock,
		"holehe":          extractHolehe,
		"harvester":       extractHarvester,
	}
}

// extractBreaches maps breach records to breach facts. A breach hit on
// the exact queried address also confirms the address itself.
func extractBreaches(_ *Engine, _ string, res domain.SourceResult) []domain.Fact {
	var facts []domain.Fact

	breaches := mapsOf(res.Data["breaches"])
	for _, b := range breaches {
		name := stringOf(b["name"])
		if name == "" {
			continue
		}
		facts = append(facts, domain.Fact{
			Type:       domain.FactBreach,
			Value:      name,
			Confidence: 1.0,
			Sources:    []string{res.SourceName},
			Context:    b,
		})
	}

	if len(breaches) > 0 && strings.Contains(res.Query, "@") {
		facts = append(facts, domain.Fact{
			Type:       domain.FactEmail,
			Value:      res.Query,
			Confidence: 1.0,
			Sources:    []string{res.SourceName},
		})
	}

	return facts
}

// extractEmailRep pulls linked profiles from a reputation lookup. The
// reputation flags themselves feed the risk scorer, not the fact set.
func extractEmailRep(_ *Engine, _ string, res domain.SourceResult) []domain.Fact {
	var facts []domain.Fact
	for _, platform := range stringsOf(res.Data["profiles"]) {
		facts = append(facts, profileFact(platform, "", platform, 0.8, res.SourceName))
	}
	return facts
}

// extractHunter maps a deliverability verification: a deliverable
// address at 0.9, its organization at 0.7 and its domain at 0.8.
func extractHunter(_ *Engine, _ string, res domain.SourceResult) []domain.Fact {
	var facts []domain.Fact

	email := stringOf(res.Data["email"])
	if email == "" {
		email = res.Query
	}
	if stringOf(res.Data["result"]) == "deliverable" {
		facts = append(facts, domain.Fact{
			Type:       domain.FactEmail,
			Value:      email,
			Confidence: 0.9,
			Sources:    []string{res.SourceName},
		})
	}

	if org := stringOf(res.Data["organization"]); org != "" {
		facts = append(facts, domain.Fact{
			Type:       domain.FactCompany,
			Value:      org,
			Confidence: 0.7,
			Sources:    []string{res.SourceName},
		})
	}
	if d := stringOf(res.Data["domain"]); d != "" {
		facts = append(facts, domain.Fact{
			Type:       domain.FactDomain,
			Value:      d,
			Confidence: 0.8,
			Sources:    []string{res.SourceName},
		})
	}

	return facts
}

// extractNumverify records a validated number; invalid numbers yield no
// facts (the validation outcome still reaches the risk scorer through
// the raw result).
func extractNumverify(_ *Engine, _ string, res domain.SourceResult) []domain.Fact {
	valid, _ := res.Data["valid"].(bool)
	if !valid {
		return nil
	}
	return []domain.Fact{{
		Type:       domain.FactPhone,
		Value:      res.Query,
		Confidence: 0.9,
		Sources:    []string{res.SourceName},
		Context: map[string]any{
			"carrier":   stringOf(res.Data["carrier"]),
			"line_type": stringOf(res.Data["line_type"]),
			"country":   stringOf(res.Data["country"]),
		},
	}}
}

// extractShodan pulls reverse-DNS hostnames as domain facts. Ports and
// vulnerabilities are consumed by the risk scorer, not the entity.
func extractShodan(_ *Engine, _ string, res domain.SourceResult) []domain.Fact {
	var facts []domain.Fact
	for _, host := range stringsOf(res.Data["hostnames"]) {
		facts = append(facts, domain.Fact{
			Type:       domain.FactDomain,
			Value:      host,
			Confidence: 0.8,
			Sources:    []string{res.SourceName},
		})
	}
	return facts
}

// extractWebSearch maps open-web search findings: profiles at 0.8,
// companies at 0.7, domains at 0.8, phones at 0.6 and e-mail addresses
// scored by the name heuristic.
func extractWebSearch(e *Engine, query string, res domain.SourceResult) []domain.Fact {
	var facts []domain.Fact

	for _, p := range mapsOf(res.Data["profiles"]) {
		platform := stringOf(p["platform"])
		u := stringOf(p["url"])
		if platform == "" && u == "" {
			continue
		}
		facts = append(facts, profileFact(stringOf(p["username"]), u, platform, 0.8, res.SourceName))
	}

	for _, email := range stringsOf(res.Data["emails"]) {
		facts = append(facts, domain.Fact{
			Type:       domain.FactEmail,
			Value:      email,
			Confidence: e.EmailConfidence(query, email),
			Sources:    []string{res.SourceName},
		})
	}

	for _, co := range stringsOf(res.Data["companies"]) {
		facts = append(facts, domain.Fact{
			Type:       domain.FactCompany,
			Value:      co,
			Confidence: 0.7,
			Sources:    []string{res.SourceName},
		})
	}

	for _, d := range stringsOf(res.Data["domains"]) {
		facts = append(facts, domain.Fact{
			Type:       domain.FactDomain,
			Value:      d,
			Confidence: 0.8,
			Sources:    []string{res.SourceName},
		})
	}

	for _, ph := range stringsOf(res.Data["phones"]) {
		facts = append(facts, domain.Fact{
			Type:       domain.FactPhone,
			Value:      ph,
			Confidence: 0.6,
			Sources:    []string{res.SourceName},
		})
	}

	return facts
}

// extractSherlock maps platform enumeration hits: a confirmed account is
// a 0.95 username fact plus one profile fact per platform.
func extractSherlock(_ *Engine, query string, res domain.SourceResult) []domain.Fact {
	found, _ := res.Data["found"].(map[string]any)
	if len(found) == 0 {
		return nil
	}

	username := stringOf(res.Data["username"])
	if username == "" {
		username = query
	}

	facts := []domain.Fact{{
		Type:       domain.FactUsername,
		Value:      username,
		Confidence: 0.95,
		Sources:    []string{res.SourceName},
	}}

	for platform, v := range found {
		facts = append(facts, profileFact(username, stringOf(v), platform, 0.95, res.SourceName))
	}

	return facts
}

// extractHolehe maps account-existence probes: each registered site is a
// 0.9 profile fact, and any hit confirms the queried address.
func extractHolehe(_ *Engine, _ string, res domain.SourceResult) []domain.Fact {
	sites := stringsOf(res.Data["registered_sites"])
	if len(sites) == 0 {
		return nil
	}

	var facts []domain.Fact
	for _, site := range sites {
		facts = append(facts, profileFact("", "", site, 0.9, res.SourceName))
	}

	if strings.Contains(res.Query, "@") {
		facts = append(facts, domain.Fact{
			Type:       domain.FactEmail,
			Value:      res.Query,
			Confidence: 0.9,
			Sources:    []string{res.SourceName},
		})
	}

	return facts
}

// extractHarvester maps domain harvesting output: addresses scored by
// the name heuristic, hosts as 0.8 domain facts.
func extractHarvester(e *Engine, query string, res domain.SourceResult) []domain.Fact {
	var facts []domain.Fact

	for _, email := range stringsOf(res.Data["emails"]) {
		facts = append(facts, domain.Fact{
			Type:       domain.FactEmail,
			Value:      email,
			Confidence: e.EmailConfidence(query, email),
			Sources:    []string{res.SourceName},
		})
	}

	for _, host := range stringsOf(res.Data["hosts"]) {
		facts = append(facts, domain.Fact{
			Type:       domain.FactDomain,
			Value:      host,
			Confidence: 0.8,
			Sources:    []string{res.SourceName},
		})
	}

	return facts
}

func profileFact(username, url, platform string, confidence float64, source string) domain.Fact {
	typ := domain.FactSocialProfile
	if professionalPlatforms[strings.ToLower(platform)] {
		typ = domain.FactProfessionalProfile
	}

	value := url
	if value == "" {
		value = platform
		if username != "" {
			value = platform + "/" + username
		}
	}

	return domain.Fact{
		Type:       typ,
		Value:      value,
		Confidence: confidence,
		Sources:    []string{source},
		Platform:   platform,
		URL:        url,
	}
}

// stringOf, stringsOf and mapsOf tolerate both native Go values and the
// generic shapes produced by JSON round-trips through the cache.

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}

func stringsOf(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		var out []string
		for _, item := range vv {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func mapsOf(v any) []map[string]any {
	switch vv := v.(type) {
	case []map[string]any:
		return vv
	case []any:
		var out []map[string]any
		for _, item := range vv {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}
