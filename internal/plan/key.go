package plan

import (
	"cmp"
	"fmt"
	"reflect"

	"struct-mapper/internal/common"
)

// Key identifies one compiled mapper: a source type, a target type and a rule set.
type Key struct {
	Source  reflect.Type
	Target  reflect.Type
	RuleSet string
}

// NewKey creates a Key.
func NewKey(source, target reflect.Type, ruleSet string) Key {
	return Key{Source: source, Target: target, RuleSet: ruleSet}
}

// String renders the key, e.g. "store.Order -> warehouse.Order (CreateNew)".
func (k Key) String() string {
	return fmt.Sprintf("%s -> %s (%s)", common.TypeName(k.Source), common.TypeName(k.Target), k.RuleSet)
}

// Pair renders the type pair without the rule set.
func (k Key) Pair() string {
	return common.TypeName(k.Source) + " -> " + common.TypeName(k.Target)
}

// Compare orders keys by source type, target type and rule set names.
func (k Key) Compare(other Key) int {
	return cmp.Or(
		cmp.Compare(typeString(k.Source), typeString(other.Source)),
		cmp.Compare(typeString(k.Target), typeString(other.Target)),
		cmp.Compare(k.RuleSet, other.RuleSet),
	)
}

func typeString(t reflect.Type) string {
	if t == nil {
		return ""
	}

	if t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}

	return t.String()
}
