// Package materials turns a free-text material label into the vocabulary the
// indexed regulation documents use.
package materials

import "strings"

const batteries = "Batteries"

// plasticContainerIndicators are brand and generic names that the regulation
// documents only ever call "plastic containers".
var plasticContainerIndicators = []string{
	"tupperware",
	"rubbermaid",
	"gladware",
	"ziploc container",
	"plastic container",
	"plastic food container",
	"food storage container",
}

var plasticContainerTerms = []string{
	"Plastic Containers",
	"plastic containers",
	"Plastic containers #1",
	"Plastic containers #2",
	"Plastic containers #5",
}

// Expand returns the query terms to try for material, original label first,
// with case-insensitive duplicates removed (first casing kept).
func Expand(material string) []string {
	terms := []string{material}
	lower := strings.ToLower(strings.TrimSpace(material))

	if strings.Contains(lower, "battery") {
		if !strings.Contains(lower, "batteries") {
			terms = append(terms, batteries)
		}
		switch {
		case strings.Contains(lower, "lithium"):
			terms = append(terms, "Lithium batteries", batteries)
		case strings.Contains(lower, "alkaline"):
			terms = append(terms, "Alkaline batteries", batteries)
		case strings.Contains(lower, "lead"), strings.Contains(lower, "acid"):
			terms = append(terms, "Car Batteries", "Lead acid batteries", batteries)
		default:
			terms = append(terms, batteries)
		}
	}

	if containsAny(lower, plasticContainerIndicators) {
		terms = append(terms, plasticContainerTerms...)
	} else if strings.Contains(lower, "plastic") && !strings.Contains(lower, "container") {
		terms = append(terms, "Plastic Containers")
	}

	return dedupeFold(terms)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func dedupeFold(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}
