// Package variations generates the candidate name, username and e-mail
// strings that source adapters probe for a person target.
package variations

import (
	"regexp"
	"sort"
	"strings"
)

var (
	separators = []string{"", ".", "_", "-"}
	suffixes   = []string{"1", "01", "123"}

	nonWord    = regexp.MustCompile(`[^\w\s]`)
	multiSpace = regexp.MustCompile(`\s+`)
)

// Generator produces deterministic variation sets for a full name. The
// same input always yields the same stably-sorted sequences.
type Generator struct {
	domains []string
}

// New creates a generator with the given e-mail domain list. An empty
// list falls back to the configured free-provider domains.
func New(domains []string) *Generator {
	if len(domains) == 0 {
		domains = []string{"gmail.com", "yahoo.com", "hotmail.com", "outlook.com"}
	}
	return &Generator{domains: domains}
}

// NameVariations returns the display-name forms of a full name: token
// permutations, case variants and initial forms (J. Doe, John D., J.D.,
// JD, J Doe). Single-token input yields a reduced but non-empty set.
func (g *Generator) NameVariations(name string) []string {
	parts := tokens(name)
	if len(parts) == 0 {
		return nil
	}

	set := make(map[string]struct{})

	if len(parts) == 1 {
		add(set, parts[0])
		add(set, strings.ToLower(parts[0]))
		add(set, strings.ToUpper(parts[0]))
		return sorted(set)
	}

	first, last := parts[0], parts[len(parts)-1]
	full := strings.Join(parts, " ")

	add(set, full)
	add(set, strings.Join(reversed(parts), " "))
	add(set, strings.ToUpper(full))
	add(set, strings.ToLower(full))

	fi := string([]rune(first)[0])
	li := string([]rune(last)[0])

	add(set, fi+". "+last)
	add(set, strings.ToUpper(fi)+". "+capitalize(last))
	add(set, first+" "+li+".")
	add(set, capitalize(first)+" "+strings.ToUpper(li)+".")
	add(set, fi+"."+li+".")
	add(set, strings.ToUpper(fi)+"."+strings.ToUpper(li)+".")
	add(set, fi+li)
	add(set, strings.ToUpper(fi)+strings.ToUpper(li))
	add(set, fi+" "+last)
	add(set, strings.ToUpper(fi)+" "+capitalize(last))

	return sorted(set)
}

// UsernameVariations returns the handle forms of a full name: lowercased
// token joins over common separators, reversed and first-initial forms,
// plus numeric suffix variants of the plain join.
func (g *Generator) UsernameVariations(name string) []string {
	parts := tokens(name)
	if len(parts) == 0 {
		return nil
	}

	set := make(map[string]struct{})

	if len(parts) == 1 {
		base := strings.ToLower(parts[0])
		add(set, base)
		for _, suf := range suffixes {
			add(set, base+suf)
		}
		return sorted(set)
	}

	first := strings.ToLower(parts[0])
	last := strings.ToLower(parts[len(parts)-1])
	fi := string([]rune(first)[0])

	for _, sep := range separators {
		add(set, first+sep+last)
		add(set, last+sep+first)
		add(set, fi+sep+last)
		add(set, last+sep+fi)
	}

	for _, suf := range suffixes {
		add(set, first+last+suf)
		add(set, fi+last+suf)
	}

	return sorted(set)
}

// EmailVariations returns candidate addresses: e-mail local-part formats
// crossed with the generator's domain list.
func (g *Generator) EmailVariations(name string) []string {
	locals := g.emailLocalParts(name)
	if len(locals) == 0 {
		return nil
	}

	set := make(map[string]struct{})
	for _, local := range locals {
		for _, d := range g.domains {
			add(set, local+"@"+d)
		}
	}
	return sorted(set)
}

func (g *Generator) emailLocalParts(name string) []string {
	parts := tokens(name)
	if len(parts) == 0 {
		return nil
	}

	set := make(map[string]struct{})

	if len(parts) == 1 {
		add(set, strings.ToLower(parts[0]))
		return sorted(set)
	}

	first := strings.ToLower(parts[0])
	last := strings.ToLower(parts[len(parts)-1])
	fi := string([]rune(first)[0])
	li := string([]rune(last)[0])

	add(set, first+"."+last)
	add(set, first+"_"+last)
	add(set, first+last)
	add(set, fi+"."+last)
	add(set, fi+last)
	add(set, first+"."+li)
	add(set, last+"."+first)
	add(set, first)

	return sorted(set)
}

// Primary returns the canonical handle for a name: the lowercased
// first and last tokens joined without a separator. Used when a probe
// needs one candidate rather than the full variation set.
func Primary(name string) string {
	parts := tokens(name)
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return strings.ToLower(parts[0])
	default:
		return strings.ToLower(parts[0]) + strings.ToLower(parts[len(parts)-1])
	}
}

// tokens cleans a name and splits it into words: punctuation stripped,
// runs of whitespace collapsed.
func tokens(name string) []string {
	cleaned := nonWord.ReplaceAllString(name, "")
	cleaned = multiSpace.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return nil
	}
	return strings.Split(cleaned, " ")
}

func add(set map[string]struct{}, v string) {
	if v != "" {
		set[v] = struct{}{}
	}
}

func sorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func reversed(parts []string) []string {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[len(parts)-1-i] = p
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
