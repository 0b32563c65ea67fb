package variations

import (
	"reflect"
	"sort"
	"strings"
	"testing"
)

func TestDeterminism(t *testing.T) {
	g := New(nil)

	for _, name := range []string{"John Doe", "Ada", "Jean Claude Van Damme"} {
		a := g.NameVariations(name)
		b := g.NameVariations(name)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("NameVariations(%q) not deterministic", name)
		}

		ua := g.UsernameVariations(name)
		ub := g.UsernameVariations(name)
		if !reflect.DeepEqual(ua, ub) {
			t.Errorf("UsernameVariations(%q) not deterministic", name)
		}

		ea := g.EmailVariations(name)
		eb := g.EmailVariations(name)
		if !reflect.DeepEqual(ea, eb) {
			t.Errorf("EmailVariations(%q) not deterministic", name)
		}
	}
}

func TestSortedOutput(t *testing.T) {
	g := New(nil)
	for _, vs := range [][]string{
		g.NameVariations("John Doe"),
		g.UsernameVariations("John Doe"),
		g.EmailVariations("John Doe"),
	} {
		if !sort.StringsAreSorted(vs) {
			t.Errorf("variation sequence not sorted: %v", vs)
		}
	}
}

func TestUsernameVariations(t *testing.T) {
	g := New(nil)
	got := g.UsernameVariations("John Doe")

	for _, want := range []string{"johndoe", "john.doe", "john_doe", "john-doe", "jdoe", "doejohn", "doej", "johndoe1"} {
		if !contains(got, want) {
			t.Errorf("UsernameVariations missing %q in %v", want, got)
		}
	}
}

func TestEmailVariationsCrossDomains(t *testing.T) {
	g := New([]string{"acme.com"})
	got := g.EmailVariations("John Doe")

	for _, want := range []string{"john.doe@acme.com", "jdoe@acme.com", "johndoe@acme.com"} {
		if !contains(got, want) {
			t.Errorf("EmailVariations missing %q in %v", want, got)
		}
	}
	for _, e := range got {
		if !strings.HasSuffix(e, "@acme.com") {
			t.Errorf("unexpected domain in %q", e)
		}
	}
}

func TestSingleTokenInput(t *testing.T) {
	g := New(nil)

	if got := g.NameVariations("Ada"); len(got) == 0 {
		t.Error("NameVariations empty for single token")
	}
	if got := g.UsernameVariations("Ada"); !contains(got, "ada") {
		t.Errorf("UsernameVariations missing base token: %v", got)
	}
	if got := g.EmailVariations("Ada"); !contains(got, "ada@gmail.com") {
		t.Errorf("EmailVariations missing single-token address: %v", got)
	}
}

func TestEmptyInput(t *testing.T) {
	g := New(nil)
	if got := g.NameVariations("  !! "); got != nil {
		t.Errorf("expected nil for punctuation-only input, got %v", got)
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
