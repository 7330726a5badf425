package match

import (
	"cmp"
	"reflect"
	"slices"

	"struct-mapper/primitive"
)

const (
	// SuggestionScore is the minimum score of a "did you mean" suggestion.
	SuggestionScore = 0.5
	// Suggestions is the maximum number of suggestions reported.
	Suggestions = 3
)

// Source is a named, typed member a target can be matched against. A nil
// Type is only known at runtime, e.g. a dictionary value.
type Source struct {
	Name string
	Type reflect.Type
}

// Candidate is a source member scored against a target member.
type Candidate struct {
	Source
	Compatibility TypeCompatibility
	// Score weighs name similarity at 0.6 and type compatibility at 0.4.
	Score float64
}

// Rank scores every source against a target member, best first. Equal
// scores are ordered by name.
func Rank(targetName string, targetType reflect.Type, sources []Source, allowed primitive.CategoryEnum) []Candidate {
	ranked := make([]Candidate, 0, len(sources))

	for _, src := range sources {
		compat := TypeNeedsMapping
		if targetType != nil && src.Type != nil {
			compat = ScorePointerCompatibility(src.Type, targetType, allowed).Compatibility
		}

		ranked = append(ranked, Candidate{
			Source:        src,
			Compatibility: compat,
			Score:         0.6*NameSimilarity(src.Name, targetName) + 0.4*typeWeight[compat],
		})
	}

	slices.SortStableFunc(ranked, func(a, b Candidate) int {
		return cmp.Or(cmp.Compare(b.Score, a.Score), cmp.Compare(a.Name, b.Name))
	})

	return ranked
}

var typeWeight = map[TypeCompatibility]float64{
	TypeIdentical:    1,
	TypeAssignable:   0.9,
	TypeConvertible:  0.7,
	TypeNeedsMapping: 0.4,
	TypeIncompatible: 0,
}

// Suggest returns the names of the closest source members, best first.
func Suggest(targetName string, targetType reflect.Type, sources []Source, allowed primitive.CategoryEnum) []string {
	var names []string

	for _, c := range Rank(targetName, targetType, sources, allowed) {
		if c.Score < SuggestionScore || len(names) == Suggestions {
			break
		}

		names = append(names, c.Name)
	}

	return names
}
