package detect

import (
	"testing"

	"github.com/openrecon/kite/internal/domain"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		query string
		want  domain.QueryType
	}{
		{"john.doe@acme.com", domain.TypeEmail},
		{"+33612345678", domain.TypePhone},
		{"8.8.8.8", domain.TypeIP},
		{"acme.com", domain.TypeDomain},
		{"https://github.com/johndoe", domain.TypeURL},
		{"johndoe42", domain.TypeUsername},
		{"John Doe", domain.TypeName},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			d := Detect(tt.query)
			if !d.Has(tt.want) {
				t.Errorf("Detect(%q) types = %v, want %v included", tt.query, d.Types, tt.want)
			}
			if d.Confidence[tt.want] <= 0 {
				t.Errorf("Detect(%q) missing confidence for %v", tt.query, tt.want)
			}
		})
	}
}

func TestDetectURLYieldsDomain(t *testing.T) {
	d := Detect("https://www.example.org/profile")
	if !d.Has(domain.TypeURL) || !d.Has(domain.TypeDomain) {
		t.Fatalf("expected url+domain, got %v", d.Types)
	}
	if Host("https://www.example.org/profile") != "www.example.org" {
		t.Errorf("unexpected host: %s", Host("https://www.example.org/profile"))
	}
}

func TestDetectFallback(t *testing.T) {
	d := Detect("x!y")
	if !d.Has(domain.TypeUsername) {
		t.Fatalf("expected username fallback, got %v", d.Types)
	}
	if d.Confidence[domain.TypeUsername] != 0.50 {
		t.Errorf("fallback confidence = %v, want 0.50", d.Confidence[domain.TypeUsername])
	}
}

func TestDetectTooShort(t *testing.T) {
	d := Detect("ab")
	if len(d.Types) != 0 {
		t.Errorf("expected no types for 2-char query, got %v", d.Types)
	}
}

func TestDetectSuggestions(t *testing.T) {
	d := Detect("john.doe@acme.com")
	if len(d.Suggestions) == 0 {
		t.Error("expected suggestions for email query")
	}
}
