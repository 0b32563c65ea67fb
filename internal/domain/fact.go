package domain

import "strings"

// FactType classifies an atomic extracted datum.
type FactType string

const (
	FactEmail               FactType = "email"
	FactUsername            FactType = "username"
	FactSocialProfile       FactType = "social_profile"
	FactProfessionalProfile FactType = "professional_profile"
	FactCompany             FactType = "company"
	FactDomain              FactType = "domain"
	FactPhone               FactType = "phone"
	FactBreach              FactType = "breach"
)

// Fact is one atomic extracted datum with provenance. Two facts are
// candidate-duplicates when their type matches and their normalized
// values are equal.
type Fact struct {
	Type       FactType `json:"type"`
	Value      string   `json:"value"`
	Confidence float64  `json:"confidence"` // always in [0,1]
	Sources    []string `json:"sources"`
	Verified   bool     `json:"verified"`

	// Platform is set for username and profile facts (the site the
	// account lives on).
	Platform string `json:"platform,omitempty"`

	// URL is set for profile facts.
	URL string `json:"url,omitempty"`

	// Context carries the raw source fragment the fact came from.
	Context map[string]any `json:"context,omitempty"`
}

// NormalizedValue returns the dedup key for the fact's value. Emails,
// domains and companies compare case-insensitively; usernames and URLs
// compare verbatim after trimming.
func (f *Fact) NormalizedValue() string {
	v := strings.TrimSpace(f.Value)
	switch f.Type {
	case FactEmail, FactDomain, FactCompany:
		return strings.ToLower(v)
	default:
		return v
	}
}

// Key returns the (type, normalized value) identity of the fact.
func (f *Fact) Key() string {
	return string(f.Type) + ":" + f.NormalizedValue()
}

// RelationType classifies a derived edge between two facts.
type RelationType string

const (
	RelationSamePerson RelationType = "same_person"
	RelationHasProfile RelationType = "has_profile"
	RelationWorksAt    RelationType = "works_at"
)

// Relationship is a directed edge between two facts. Relationships are
// recomputed on every correlation run, never stored independently.
type Relationship struct {
	From       string       `json:"from"`
	Type       RelationType `json:"type"`
	To         string       `json:"to"`
	Confidence float64      `json:"confidence"`
}

// Entity is the correlated, deduplicated view of all facts for one
// query. No two facts in a finalized entity share (type, normalized
// value); provenance accumulates, confidence keeps the maximum observed.
type Entity struct {
	Query string              `json:"query"`
	Facts map[FactType][]Fact `json:"facts"`

	// Relationships is the derived edge set over the entity's facts.
	Relationships []Relationship `json:"relationships"`

	// Sources is the set of source names that contributed at least one
	// successful result.
	Sources []string `json:"data_sources"`

	// ConfidenceScore is a coverage indicator in [0,1]: which categories
	// of fact exist, not a statistical confidence.
	ConfidenceScore float64 `json:"confidence_score"`
}

// FactsOf returns the deduplicated facts of one type (may be empty).
func (e *Entity) FactsOf(t FactType) []Fact {
	if e.Facts == nil {
		return nil
	}
	return e.Facts[t]
}

// Verified returns the verified subset of one fact type.
func (e *Entity) Verified(t FactType) []Fact {
	var out []Fact
	for _, f := range e.FactsOf(t) {
		if f.Verified {
			out = append(out, f)
		}
	}
	return out
}

// Potential returns the unverified subset of one fact type.
func (e *Entity) Potential(t FactType) []Fact {
	var out []Fact
	for _, f := range e.FactsOf(t) {
		if !f.Verified {
			out = append(out, f)
		}
	}
	return out
}
