// Package jurisdiction maps free-text locations to the counties whose
// recycling regulations are present in the index.
package jurisdiction

import "strings"

// Tag identifies a supported jurisdiction.
type Tag string

const (
	Albany   Tag = "albany"
	Tompkins Tag = "tompkins"
)

// Jurisdiction is a regulatory region with the substrings that identify it
// in a location string.
type Jurisdiction struct {
	Tag     Tag
	Name    string
	Aliases []string
}

// known is evaluated in order; the first jurisdiction with a matching alias wins.
var known = []Jurisdiction{
	{Tag: Albany, Name: "Albany", Aliases: []string{"albany"}},
	{Tag: Tompkins, Name: "Tompkins", Aliases: []string{"tompkins", "ithaca"}},
}

// Resolve returns the jurisdiction whose alias appears in location,
// case-insensitively. ok is false when nothing matches.
func Resolve(location string) (Jurisdiction, bool) {
	lower := strings.ToLower(location)
	for _, j := range known {
		for _, alias := range j.Aliases {
			if strings.Contains(lower, alias) {
				return j, true
			}
		}
	}
	return Jurisdiction{}, false
}

// All returns the supported jurisdictions in match priority order.
func All() []Jurisdiction {
	out := make([]Jurisdiction, len(known))
	copy(out, known)
	return out
}

// FromTag looks up a jurisdiction by tag, ignoring case.
func FromTag(tag string) (Jurisdiction, bool) {
	t := Tag(strings.ToLower(strings.TrimSpace(tag)))
	for _, j := range known {
		if j.Tag == t {
			return j, true
		}
	}
	return Jurisdiction{}, false
}
