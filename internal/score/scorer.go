// Package score computes the exposure risk of a target from raw source
// results. It is a pure decision stage: no I/O, no clock, no randomness.
package score

import (
	"sort"
	"strings"

	"github.com/openrecon/kite/internal/domain"
)

// Scorer turns source findings into a 0-100 risk score and tier. The
// critical-port table is injected so deployments can tune it.
type Scorer struct {
	criticalPorts map[int]string
}

// New creates a scorer. A nil port table falls back to the default set
// of remotely exploitable services.
func New(criticalPorts map[int]string) *Scorer {
	if criticalPorts == nil {
		criticalPorts = domain.DefaultCriticalPorts()
	}
	return &Scorer{criticalPorts: criticalPorts}
}

// Findings is the flattened risk-relevant view of all source results.
type Findings struct {
	BreachCount int

	ReputationChecked    bool
	Disposable           bool
	Gibberish            bool
	SuspiciousReputation bool

	PhoneChecked bool
	PhoneValid   bool
	LineType     string
	CarrierKnown bool

	OpenPorts     []int
	Vulns         []string
	CriticalPorts []string

	PlatformCount int
}

// Extract flattens raw source results into findings. Failed results and
// unknown payload shapes contribute nothing.
func (s *Scorer) Extract(results []domain.SourceResult) Findings {
	var f Findings

	for _, res := range results {
		if !res.OK() {
			continue
		}

		switch res.SourceName {
		case "breachdirectory":
			f.BreachCount += len(mapsOf(res.Data["breaches"]))

		case "emailrep":
			f.ReputationChecked = true
			f.Disposable, _ = res.Data["disposable"].(bool)
			f.Gibberish, _ = res.Data["gibberish"].(bool)
			f.SuspiciousReputation, _ = res.Data["suspicious"].(bool)

		case "numverify":
			f.PhoneChecked = true
			f.PhoneValid, _ = res.Data["valid"].(bool)
			f.LineType = strings.ToLower(stringOf(res.Data["line_type"]))
			f.CarrierKnown = stringOf(res.Data["carrier"]) != ""

		case "shodan":
			f.OpenPorts = append(f.OpenPorts, intsOf(res.Data["open_ports"])...)
			f.Vulns = append(f.Vulns, stringsOf(res.Data["vulns"])...)

		case "sherlock":
			if found, ok := res.Data["found"].(map[string]any); ok {
				f.PlatformCount += len(found)
			}
		}
	}

	for _, port := range f.OpenPorts {
		if name, ok := s.criticalPorts[port]; ok {
			f.CriticalPorts = append(f.CriticalPorts, name)
		}
	}
	sort.Strings(f.CriticalPorts)

	return f
}

// Score computes the overall risk for the detected target types. Each
// applicable category is scored independently; the overall risk is the
// worst category, clamped to [0, 100].
func (s *Scorer) Score(types []domain.QueryType, f Findings) (int, domain.RiskTier) {
	score := 0
	for _, t := range types {
		var c int
		switch t {
		case domain.TypeEmail:
			c = s.EmailScore(f)
		case domain.TypePhone:
			c = s.PhoneScore(f)
		case domain.TypeIP:
			c = s.IPScore(f)
		case domain.TypeUsername:
			c = s.UsernameScore(f)
		default:
			continue
		}
		if c > score {
			score = c
		}
	}
	score = clamp100(score)
	return score, TierFor(score)
}

// EmailScore scores address exposure: 10 per breach capped at 50, 20
// for a disposable or gibberish address, 30 for suspicious reputation.
func (s *Scorer) EmailScore(f Findings) int {
	score := f.BreachCount * 10
	if score > 50 {
		score = 50
	}
	if f.Disposable || f.Gibberish {
		score += 20
	}
	if f.SuspiciousReputation {
		score += 30
	}
	return clamp100(score)
}

// PhoneScore scores number exposure: 50 for an invalid number, 30 for a
// VOIP line, 20 for an unknown carrier.
func (s *Scorer) PhoneScore(f Findings) int {
	if !f.PhoneChecked {
		return 0
	}
	score := 0
	if !f.PhoneValid {
		score += 50
	}
	if f.LineType == "voip" {
		score += 30
	}
	if !f.CarrierKnown {
		score += 20
	}
	return clamp100(score)
}

// IPScore scores host exposure: 3 per open port capped at 30, 15 per
// known vulnerability capped at 50, plus 10 per open critical port.
func (s *Scorer) IPScore(f Findings) int {
	portScore := len(f.OpenPorts) * 3
	if portScore > 30 {
		portScore = 30
	}
	vulnScore := len(f.Vulns) * 15
	if vulnScore > 50 {
		vulnScore = 50
	}
	return clamp100(portScore + vulnScore + len(f.CriticalPorts)*10)
}

// UsernameScore scores handle exposure by footprint breadth: over 50
// platforms scores 30, over 20 scores 20, over 10 scores 10.
func (s *Scorer) UsernameScore(f Findings) int {
	switch {
	case f.PlatformCount > 50:
		return 30
	case f.PlatformCount > 20:
		return 20
	case f.PlatformCount > 10:
		return 10
	default:
		return 0
	}
}

// TierFor maps a score to its tier: 75 and above is critical, 50 high,
// 25 medium, below that low.
func TierFor(score int) domain.RiskTier {
	switch {
	case score >= 75:
		return domain.TierCritical
	case score >= 50:
		return domain.TierHigh
	case score >= 25:
		return domain.TierMedium
	default:
		return domain.TierLow
	}
}

func clamp100(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

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
			if s, ok := item.(string); ok {
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

// intsOf accepts native int slices and the float64 slices produced by
// JSON round-trips through the cache.
func intsOf(v any) []int {
	switch vv := v.(type) {
	case []int:
		return vv
	case []any:
		var out []int
		for _, item := range vv {
			switch n := item.(type) {
			case int:
				out = append(out, n)
			case float64:
				out = append(out, int(n))
			}
		}
		return out
	default:
		return nil
	}
}
