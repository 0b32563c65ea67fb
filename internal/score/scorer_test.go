package score

import (
	"math/rand"
	"testing"

	"github.com/openrecon/kite/internal/domain"
)

func TestEmailScore(t *testing.T) {
	s := New(nil)

	tests := []struct {
		name string
		f    Findings
		want int
	}{
		{"clean", Findings{}, 0},
		{"three breaches", Findings{BreachCount: 3}, 30},
		{"breach cap", Findings{BreachCount: 9}, 50},
		{"disposable", Findings{Disposable: true}, 20},
		{"gibberish", Findings{Gibberish: true}, 20},
		{"suspicious", Findings{SuspiciousReputation: true}, 30},
		{"worst case", Findings{BreachCount: 10, Disposable: true, SuspiciousReputation: true}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.EmailScore(tt.f); got != tt.want {
				t.Errorf("EmailScore = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPhoneScore(t *testing.T) {
	s := New(nil)

	tests := []struct {
		name string
		f    Findings
		want int
	}{
		{"unchecked", Findings{}, 0},
		{"valid known", Findings{PhoneChecked: true, PhoneValid: true, CarrierKnown: true}, 0},
		{"invalid", Findings{PhoneChecked: true, CarrierKnown: true}, 50},
		{"voip", Findings{PhoneChecked: true, PhoneValid: true, LineType: "voip", CarrierKnown: true}, 30},
		{"unknown carrier", Findings{PhoneChecked: true, PhoneValid: true}, 20},
		{"invalid voip unknown", Findings{PhoneChecked: true, LineType: "voip"}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.PhoneScore(tt.f); got != tt.want {
				t.Errorf("PhoneScore = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIPScore(t *testing.T) {
	s := New(nil)

	tests := []struct {
		name string
		f    Findings
		want int
	}{
		{"closed host", Findings{}, 0},
		{"port cap", Findings{OpenPorts: make([]int, 20)}, 30},
		{"vuln cap", Findings{Vulns: make([]string, 10)}, 50},
		// 3*3 + 2*15 + 1*10
		{"just below high", Findings{OpenPorts: make([]int, 3), Vulns: make([]string, 2), CriticalPorts: []string{"SSH"}}, 49},
		{"just at high", Findings{OpenPorts: make([]int, 3), Vulns: make([]string, 2), CriticalPorts: []string{"SSH", "RDP"}}, 59},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.IPScore(tt.f)
			if got != tt.want {
				t.Errorf("IPScore = %d, want %d", got, tt.want)
			}
		})
	}

	if _, tier := s.Score([]domain.QueryType{domain.TypeIP}, Findings{OpenPorts: make([]int, 3), Vulns: make([]string, 2), CriticalPorts: []string{"SSH"}}); tier != domain.TierMedium {
		t.Errorf("score 49 tier = %s, want medium", tier)
	}
	if _, tier := s.Score([]domain.QueryType{domain.TypeIP}, Findings{OpenPorts: make([]int, 3), Vulns: make([]string, 2), CriticalPorts: []string{"SSH", "RDP"}}); tier != domain.TierHigh {
		t.Errorf("score 59 tier = %s, want high", tier)
	}
}

func TestUsernameScore(t *testing.T) {
	s := New(nil)

	tests := []struct {
		platforms int
		want      int
	}{
		{0, 0},
		{10, 0},
		{11, 10},
		{20, 10},
		{21, 20},
		{50, 20},
		{51, 30},
		{55, 30},
	}

	for _, tt := range tests {
		if got := s.UsernameScore(Findings{PlatformCount: tt.platforms}); got != tt.want {
			t.Errorf("UsernameScore(%d platforms) = %d, want %d", tt.platforms, got, tt.want)
		}
	}
}

func TestTierBoundaries(t *testing.T) {
	tests := []struct {
		score int
		want  domain.RiskTier
	}{
		{0, domain.TierLow},
		{24, domain.TierLow},
		{25, domain.TierMedium},
		{49, domain.TierMedium},
		{50, domain.TierHigh},
		{74, domain.TierHigh},
		{75, domain.TierCritical},
		{100, domain.TierCritical},
	}

	for _, tt := range tests {
		if got := TierFor(tt.score); got != tt.want {
			t.Errorf("TierFor(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestExtract(t *testing.T) {
	s := New(nil)

	results := []domain.SourceResult{
		domain.Success("breachdirectory", "a@b.com", map[string]any{
			"breaches": []any{
				map[string]any{"name": "LeakOne"},
				map[string]any{"name": "LeakTwo"},
			},
		}, 0),
		domain.Success("emailrep", "a@b.com", map[string]any{
			"disposable": true,
			"suspicious": true,
		}, 0),
		domain.Success("shodan", "8.8.8.8", map[string]any{
			// float64 elements as produced by a JSON cache round-trip
			"open_ports": []any{float64(22), float64(80), float64(3389)},
			"vulns":      []any{"CVE-2024-0001"},
		}, 0),
		domain.Success("sherlock", "johndoe", map[string]any{
			"found": map[string]any{"github": "u", "twitter": "u"},
		}, 0),
		domain.Failure("numverify", "+33612345678", "not configured", 0),
	}

	f := s.Extract(results)

	if f.BreachCount != 2 {
		t.Errorf("BreachCount = %d, want 2", f.BreachCount)
	}
	if !f.Disposable || !f.SuspiciousReputation {
		t.Error("reputation flags not extracted")
	}
	if len(f.OpenPorts) != 3 {
		t.Errorf("OpenPorts = %v, want 3 ports", f.OpenPorts)
	}
	if len(f.CriticalPorts) != 2 {
		t.Errorf("CriticalPorts = %v, want SSH and RDP", f.CriticalPorts)
	}
	if f.PlatformCount != 2 {
		t.Errorf("PlatformCount = %d, want 2", f.PlatformCount)
	}
	if f.PhoneChecked {
		t.Error("failed lookup must not mark the phone as checked")
	}
}

func TestScoreWorstCategoryWins(t *testing.T) {
	s := New(nil)

	f := Findings{
		BreachCount:   1, // email 10
		PlatformCount: 55, // username 30
	}
	got, tier := s.Score([]domain.QueryType{domain.TypeEmail, domain.TypeUsername}, f)
	if got != 30 {
		t.Errorf("Score = %d, want 30", got)
	}
	if tier != domain.TierMedium {
		t.Errorf("tier = %s, want medium", tier)
	}
}

func TestScoreBoundsRandomized(t *testing.T) {
	s := New(nil)
	rng := rand.New(rand.NewSource(42))

	types := []domain.QueryType{domain.TypeEmail, domain.TypePhone, domain.TypeIP, domain.TypeUsername}

	for i := 0; i < 1000; i++ {
		f := Findings{
			BreachCount:          rng.Intn(30),
			ReputationChecked:    rng.Intn(2) == 0,
			Disposable:           rng.Intn(2) == 0,
			Gibberish:            rng.Intn(2) == 0,
			SuspiciousReputation: rng.Intn(2) == 0,
			PhoneChecked:         rng.Intn(2) == 0,
			PhoneValid:           rng.Intn(2) == 0,
			LineType:             []string{"", "mobile", "voip"}[rng.Intn(3)],
			CarrierKnown:         rng.Intn(2) == 0,
			OpenPorts:            make([]int, rng.Intn(40)),
			Vulns:                make([]string, rng.Intn(20)),
			CriticalPorts:        make([]string, rng.Intn(11)),
			PlatformCount:        rng.Intn(200),
		}

		score, tier := s.Score(types, f)
		if score < 0 || score > 100 {
			t.Fatalf("score %d out of bounds for %+v", score, f)
		}
		if tier != TierFor(score) {
			t.Fatalf("tier %s inconsistent with score %d", tier, score)
		}
	}
}
