// Package correlate turns a heterogeneous bag of source results into
// one deduplicated, confidence-scored entity.
package correlate

import (
	"sort"
	"strings"

	"github.com/openrecon/kite/internal/domain"
)

// Category weights for the aggregate confidence score. The score is a
// coverage indicator (which categories of fact exist), not a calibrated
// probability.
var coverageWeights = []struct {
	typ      domain.FactType
	verified bool
	weight   float64
}{
	{domain.FactEmail, true, 0.30},
	{domain.FactUsername, true, 0.25},
	{domain.FactSocialProfile, false, 0.20},
	{domain.FactProfessionalProfile, false, 0.15},
	{domain.FactCompany, false, 0.10},
}

// verifiedThreshold splits facts into verified and potential.
const verifiedThreshold = 0.7

// authoritativeSources perform direct checks (breach lookups, account
// existence probes, deliverability verification); their facts count as
// verified regardless of confidence.
var authoritativeSources = map[string]bool{
	"breachdirectory": true,
	"holehe":          true,
	"hunter":          true,
	"sherlock":        true,
}

// Engine correlates source results for one query. It is a pure,
// total function over its inputs: an empty or all-failure bag yields an
// entity with empty fact sets and confidence zero, never an error.
type Engine struct {
	freeProviders map[string]bool
	extractors    map[string]extractFunc
}

// NewEngine creates a correlation engine with the given free e-mail
// provider table (nil falls back to the fixed default list).
func NewEngine(freeProviders []string) *Engine {
	if len(freeProviders) == 0 {
		freeProviders = domain.DefaultFreeProviders()
	}
	providers := make(map[string]bool, len(freeProviders))
	for _, p := range freeProviders {
		providers[strings.ToLower(p)] = true
	}
	return &Engine{
		freeProviders: providers,
		extractors:    defaultExtractors(),
	}
}

// Correlate extracts typed facts from every successful result,
// deduplicates them, derives the relationship graph and computes the
// coverage confidence. Failed results contribute zero facts and are
// absent from the entity's source set.
func (e *Engine) Correlate(query string, results []domain.SourceResult) *domain.Entity {
	entity := &domain.Entity{
		Query: query,
		Facts: make(map[domain.FactType][]domain.Fact),
	}

	var raw []domain.Fact
	sources := make(map[string]struct{})

	for _, res := range results {
		if !res.OK() {
			continue
		}
		sources[res.SourceName] = struct{}{}

		extract, ok := e.extractors[res.SourceName]
		if !ok {
			continue
		}
		raw = append(raw, extract(e, query, res)...)
	}

	e.dedupInto(entity, raw)

	entity.Sources = sortedKeys(sources)
	entity.Relationships = buildRelationships(entity)
	entity.ConfidenceScore = coverageScore(entity)

	return entity
}

// dedupInto groups facts by (type, normalized value), keeping the
// maximum confidence and the union of contributing sources.
func (e *Engine) dedupInto(entity *domain.Entity, raw []domain.Fact) {
	merged := make(map[string]*domain.Fact)
	var order []string

	for i := range raw {
		f := raw[i]
		f.Confidence = clamp01(f.Confidence)

		key := f.Key()
		existing, ok := merged[key]
		if !ok {
			cp := f
			cp.Sources = append([]string(nil), f.Sources...)
			merged[key] = &cp
			order = append(order, key)
			continue
		}

		if f.Confidence > existing.Confidence {
			existing.Confidence = f.Confidence
			existing.Context = f.Context
		}
		if existing.Platform == "" {
			existing.Platform = f.Platform
		}
		if existing.URL == "" {
			existing.URL = f.URL
		}
		existing.Sources = unionSources(existing.Sources, f.Sources)
	}

	for _, key := range order {
		f := merged[key]
		f.Verified = f.Confidence >= verifiedThreshold || anyAuthoritative(f.Sources)
		sort.Strings(f.Sources)
		entity.Facts[f.Type] = append(entity.Facts[f.Type], *f)
	}

	// Stable order inside each type for reproducible reports.
	for t := range entity.Facts {
		facts := entity.Facts[t]
		sort.SliceStable(facts, func(i, j int) bool {
			return facts[i].NormalizedValue() < facts[j].NormalizedValue()
		})
	}
}

// EmailConfidence scores a heuristically sourced address against the
// query name: 0.5 base, 0.9 when two or more name tokens match the
// local part, 0.7 for exactly one, discounted by 0.9 on free
// providers. A token matches when it appears in the local part or when
// a separator-delimited segment abbreviates it (j, j.doe, jdoe).
func (e *Engine) EmailConfidence(name, email string) float64 {
	confidence := 0.5

	local := strings.ToLower(email)
	if at := strings.Index(email, "@"); at >= 0 {
		local = strings.ToLower(email[:at])
	}
	segments := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})

	matches := 0
	for _, part := range strings.Fields(strings.ToLower(name)) {
		if tokenInLocal(part, local, segments) {
			matches++
		}
	}

	if matches >= 2 {
		confidence = 0.9
	} else if matches == 1 {
		confidence = 0.7
	}

	if e.freeProviders[strings.ToLower(emailDomain(email))] {
		confidence *= 0.9
	}

	return clamp01(confidence)
}

func tokenInLocal(token, local string, segments []string) bool {
	if strings.Contains(local, token) {
		return true
	}
	for _, seg := range segments {
		if strings.HasPrefix(token, seg) {
			return true
		}
	}
	return false
}

// buildRelationships derives the edge set over a finalized entity:
//   - every (verified email, verified username) pair links same_person at
//     min(confidences) * 0.8 — linkage is never more confident than its
//     weakest input, discounted for the inferential step;
//   - every verified username links has_profile to each discovered
//     profile platform at the username's own confidence (a direct
//     observation);
//   - every verified email whose domain matches a company links works_at
//     at the company's confidence.
func buildRelationships(entity *domain.Entity) []domain.Relationship {
	var rels []domain.Relationship

	emails := entity.Verified(domain.FactEmail)
	usernames := entity.Verified(domain.FactUsername)
	companies := entity.FactsOf(domain.FactCompany)

	for _, em := range emails {
		for _, un := range usernames {
			conf := em.Confidence
			if un.Confidence < conf {
				conf = un.Confidence
			}
			rels = append(rels, domain.Relationship{
				From:       "email:" + em.NormalizedValue(),
				Type:       domain.RelationSamePerson,
				To:         "username:" + un.NormalizedValue(),
				Confidence: clamp01(conf * 0.8),
			})
		}
	}

	profiles := append(entity.FactsOf(domain.FactSocialProfile),
		entity.FactsOf(domain.FactProfessionalProfile)...)
	for _, un := range usernames {
		seen := make(map[string]struct{})
		for _, p := range profiles {
			if p.Platform == "" {
				continue
			}
			if _, dup := seen[p.Platform]; dup {
				continue
			}
			seen[p.Platform] = struct{}{}
			rels = append(rels, domain.Relationship{
				From:       "username:" + un.NormalizedValue(),
				Type:       domain.RelationHasProfile,
				To:         "platform:" + p.Platform,
				Confidence: un.Confidence,
			})
		}
	}

	for _, em := range emails {
		emDomain := strings.ToLower(emailDomain(em.Value))
		if emDomain == "" {
			continue
		}
		for _, co := range companies {
			if strings.Contains(strings.ToLower(co.Value), emDomain) {
				rels = append(rels, domain.Relationship{
					From:       "email:" + em.NormalizedValue(),
					Type:       domain.RelationWorksAt,
					To:         "company:" + co.NormalizedValue(),
					Confidence: co.Confidence,
				})
			}
		}
	}

	return rels
}

func coverageScore(entity *domain.Entity) float64 {
	score := 0.0
	for _, w := range coverageWeights {
		var facts []domain.Fact
		if w.verified {
			facts = entity.Verified(w.typ)
		} else {
			facts = entity.FactsOf(w.typ)
		}
		if len(facts) > 0 {
			score += w.weight
		}
	}
	return clamp01(score)
}

func anyAuthoritative(sources []string) bool {
	for _, s := range sources {
		if authoritativeSources[s] {
			return true
		}
	}
	return false
}

func unionSources(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string(nil), a...), b...) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func emailDomain(email string) string {
	if at := strings.LastIndex(email, "@"); at >= 0 {
		return email[at+1:]
	}
	return ""
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
