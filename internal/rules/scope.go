package rules

import (
	"cmp"
	"reflect"
	"strings"

	"struct-mapper/internal/common"
)

// Type match ranks, most specific last.
const (
	rankNone       = -1 // restriction does not apply
	rankAny        = 0  // no restriction
	rankAssignable = 1  // implements or embeds the restricted type
	rankExact      = 2  // exactly the restricted type
)

// Scope restricts a rule to source types, target types and a rule set.
// Nil types and an empty rule set name match everything.
type Scope struct {
	Source  reflect.Type
	Target  reflect.Type
	RuleSet string
}

// AppliesTo reports whether the scope holds for a type pair mapped with a rule set.
func (s Scope) AppliesTo(source, target reflect.Type, ruleSet string) bool {
	return s.Specificity(source, target, ruleSet).applies()
}

// Specificity ranks how closely the scope matches a type pair and rule set.
func (s Scope) Specificity(source, target reflect.Type, ruleSet string) Specificity {
	spec := Specificity{
		Target: typeRank(target, s.Target),
		Source: typeRank(source, s.Source),
	}

	switch {
	case s.RuleSet == "":
		spec.RuleSet = rankAny
	case s.RuleSet == ruleSet:
		spec.RuleSet = rankExact
	default:
		spec.RuleSet = rankNone
	}

	return spec
}

// Covers reports whether every pair the other scope applies to is also covered.
func (s Scope) Covers(other Scope) bool {
	return coversType(s.Source, other.Source) &&
		coversType(s.Target, other.Target) &&
		(s.RuleSet == "" || s.RuleSet == other.RuleSet)
}

// Equal reports whether both scopes restrict exactly the same pairs.
func (s Scope) Equal(other Scope) bool {
	return sameType(s.Source, other.Source) &&
		sameType(s.Target, other.Target) &&
		s.RuleSet == other.RuleSet
}

// String renders the scope, e.g. "store.Order -> warehouse.Order (CreateNew)".
func (s Scope) String() string {
	var sb strings.Builder
	sb.WriteString(typeOrAny(s.Source))
	sb.WriteString(" -> ")
	sb.WriteString(typeOrAny(s.Target))

	if s.RuleSet != "" {
		sb.WriteString(" (" + s.RuleSet + ")")
	}

	return sb.String()
}

func typeOrAny(t reflect.Type) string {
	if t == nil {
		return "any"
	}

	return common.TypeName(t)
}

// Specificity orders matching rules; higher ranks win.
type Specificity struct {
	Target  int
	Source  int
	RuleSet int
}

func (s Specificity) applies() bool {
	return s.Target != rankNone && s.Source != rankNone && s.RuleSet != rankNone
}

// Compare returns a positive number when s is more specific than other.
func (s Specificity) Compare(other Specificity) int {
	return cmp.Or(
		cmp.Compare(s.Target, other.Target),
		cmp.Compare(s.Source, other.Source),
		cmp.Compare(s.RuleSet, other.RuleSet),
	)
}

func typeRank(actual, restricted reflect.Type) int {
	if restricted == nil {
		return rankAny
	}

	if actual == nil {
		return rankNone
	}

	actual, restricted = base(actual), base(restricted)

	switch {
	case actual == restricted:
		return rankExact
	case restricted.Kind() == reflect.Interface && actual.Implements(restricted):
		return rankAssignable
	case restricted.Kind() == reflect.Interface && reflect.PointerTo(actual).Implements(restricted):
		return rankAssignable
	case embeds(actual, restricted, 0):
		return rankAssignable
	default:
		return rankNone
	}
}

func coversType(broad, narrow reflect.Type) bool {
	if broad == nil {
		return true
	}

	if narrow == nil {
		return false
	}

	return typeRank(narrow, broad) != rankNone
}

func sameType(a, b reflect.Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return base(a) == base(b)
}

// embeds reports whether the struct embeds the type, directly or through
// other embedded structs.
func embeds(t, embedded reflect.Type, depth int) bool {
	const maxDepth = 8

	if t.Kind() != reflect.Struct || depth > maxDepth {
		return false
	}

	for i := range t.NumField() {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}

		ft := base(f.Type)
		if ft == embedded || embeds(ft, embedded, depth+1) {
			return true
		}
	}

	return false
}

func base(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t
}
