package retrieval

import (
	"strings"

	"github.com/recyclens/rag-service/internal/jurisdiction"
)

// ignoredConditions are condition values that carry no information.
var ignoredConditions = map[string]struct{}{
	"":        {},
	"unknown": {},
	"none":    {},
}

// BuildQuery composes the retrieval query for one term:
//
//	term "recycling" [<County> "County"] ["New York"] [condition]
//
// j may be nil. Empty tokens are dropped.
func BuildQuery(term string, j *jurisdiction.Jurisdiction, location, condition string) string {
	parts := []string{term, "recycling"}

	if j != nil {
		parts = append(parts, j.Name, "County")
	}

	if mentionsNewYork(location) {
		parts = append(parts, "New York")
	}

	cond := strings.TrimSpace(condition)
	if _, skip := ignoredConditions[strings.ToLower(cond)]; !skip {
		parts = append(parts, cond)
	}

	tokens := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tokens = append(tokens, p)
		}
	}
	return strings.Join(tokens, " ")
}

// mentionsNewYork reports whether location names New York, either spelled out
// or as a standalone "NY" token.
func mentionsNewYork(location string) bool {
	lower := strings.ToLower(location)
	if strings.Contains(lower, "new york") {
		return true
	}
	for _, tok := range strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}) {
		if tok == "ny" {
			return true
		}
	}
	return false
}
