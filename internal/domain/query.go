// Package domain defines the core interfaces and types for Kite.
package domain

// QueryType classifies what kind of target a query string looks like.
type QueryType string

const (
	TypeEmail    QueryType = "email"
	TypePhone    QueryType = "phone"
	TypeIP       QueryType = "ip"
	TypeDomain   QueryType = "domain"
	TypeURL      QueryType = "url"
	TypeUsername QueryType = "username"
	TypeName     QueryType = "name"
)

// Detection is the result of classifying a raw query string.
// A query may match multiple types (a URL also yields its domain).
type Detection struct {
	Query       string                `json:"query"`
	Types       []QueryType           `json:"detected_types"`
	Confidence  map[QueryType]float64 `json:"confidence"`
	Suggestions []string              `json:"suggestions"`
}

// Has reports whether the detection includes the given type.
func (d *Detection) Has(t QueryType) bool {
	for _, dt := range d.Types {
		if dt == t {
			return true
		}
	}
	return false
}

// Primary returns the first (highest priority) detected type.
func (d *Detection) Primary() QueryType {
	if len(d.Types) == 0 {
		return TypeName
	}
	return d.Types[0]
}

// SearchDepth tiers how many, and how slow, adapters are invoked.
type SearchDepth string

const (
	// DepthShallow runs only fast structured-API lookups.
	DepthShallow SearchDepth = "shallow"

	// DepthDeep adds multi-site enumeration tools (sherlock, theHarvester).
	DepthDeep SearchDepth = "deep"

	// DepthUltraDeep adds the slowest exhaustive scans (minutes per tool).
	DepthUltraDeep SearchDepth = "ultra-deep"
)

// SearchRequest describes one investigation run.
type SearchRequest struct {
	Query       string      `json:"query"`
	SearchTypes []QueryType `json:"search_types,omitempty"`
	DeepSearch  bool        `json:"deep_search"`
	Depth       SearchDepth `json:"depth,omitempty"`
}

// EffectiveDepth resolves the explicit depth override against the
// deep_search flag.
func (r *SearchRequest) EffectiveDepth() SearchDepth {
	if r.Depth != "" {
		return r.Depth
	}
	if r.DeepSearch {
		return DepthDeep
	}
	return DepthShallow
}
