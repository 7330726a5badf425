package mapper

import (
	"fmt"
	"reflect"

	"struct-mapper/internal/compile"
	"struct-mapper/internal/plan"
	"struct-mapper/internal/resolve"
	"struct-mapper/internal/rules"
)

type (
	// Rule is a configured rule. Rules are built with the constructors of this package.
	Rule = rules.Rule
	// Scope restricts a rule to source types, target types and a rule set.
	Scope = rules.Scope
	// Args are handed to configured functions, conditions and callbacks.
	Args = rules.Args
	// RuleSet is a named mapping mode.
	RuleSet = rules.RuleSet
	// TypeRegistry resolves type names used in rule files.
	TypeRegistry = rules.TypeRegistry
	// Pair identifies a compiled mapper: a source type, a target type and a rule set.
	Pair = plan.Key
	// MappingError reports a failure while mapping, with the target member path it occurred at.
	MappingError = compile.MappingError
)

var (
	CreateNew = rules.CreateNew
	Merge     = rules.Merge
	Overwrite = rules.Overwrite
)

var (
	ErrConfigurationConflict = rules.ErrConfigurationConflict
	ErrInvalidRule           = rules.ErrInvalidRule
	ErrUnknownType           = rules.ErrUnknownType
	ErrUnmappableMember      = resolve.ErrUnmappableMember
	ErrUnknownRuleSet        = plan.ErrUnknownRuleSet
	ErrPanic                 = compile.ErrPanic
	ErrUnresolvedType        = compile.ErrUnresolvedType
	ErrFactoryResult         = compile.ErrFactoryResult
)

// RuleSets lists the built-in rule sets.
func RuleSets() []RuleSet {
	return rules.RuleSets()
}

// RuleSetNamed returns the built-in rule set with the given name.
func RuleSetNamed(name string) (RuleSet, error) {
	rs, ok := rules.RuleSetByName(name)
	if !ok {
		return RuleSet{}, fmt.Errorf("%w: %q", ErrUnknownRuleSet, name)
	}

	return rs, nil
}

// Types creates a TypeRegistry of the types of the values, e.g. store.Order{}.
func Types(values ...any) TypeRegistry {
	registry := TypeRegistry{}
	for _, v := range values {
		registry.Register(reflect.TypeOf(v))
	}

	return registry
}

// PairOf returns the pair mapping S into T with a rule set.
func PairOf[S, T any](ruleSet RuleSet) Pair {
	return plan.NewKey(reflect.TypeFor[S](), reflect.TypeFor[T](), ruleSet.Name)
}

// Between scopes a rule to mapping S into T.
func Between[S, T any]() Scope {
	return Scope{Source: reflect.TypeFor[S](), Target: reflect.TypeFor[T]()}
}

// From scopes a rule to sources of type S.
func From[S any]() Scope {
	return Scope{Source: reflect.TypeFor[S]()}
}

// To scopes a rule to targets of type T.
func To[T any]() Scope {
	return Scope{Target: reflect.TypeFor[T]()}
}

// In restricts a scope to a rule set.
func In(scope Scope, ruleSet RuleSet) Scope {
	scope.RuleSet = ruleSet.Name
	return scope
}

// Ignore leaves a target member untouched.
func Ignore(scope Scope, member string) Rule {
	return Rule{Kind: rules.KindIgnore, Scope: scope, Member: member}
}

// MapConstant sets a target member to a constant.
func MapConstant(scope Scope, member string, value any) Rule {
	return Rule{Kind: rules.KindDataSource, Scope: scope, Member: member,
		Value: rules.Value{Kind: rules.ValueConstant, Constant: value}}
}

// MapMember reads a target member from a dotted source member path.
func MapMember(scope Scope, member, from string) Rule {
	return Rule{Kind: rules.KindDataSource, Scope: scope, Member: member,
		Value: rules.Value{Kind: rules.ValueMember, Member: from}}
}

// MapExpression reads a target member from a function of the source object:
// func(S) V, func(S) (V, bool) or func(S) (V, error). A false result leaves
// the member to the next source.
func MapExpression(scope Scope, member string, fn any) Rule {
	return Rule{Kind: rules.KindDataSource, Scope: scope, Member: member,
		Value: rules.Value{Kind: rules.ValueExpression, Expression: fn}}
}

// MapFunction reads a target member from a function of the mapping arguments.
func MapFunction(scope Scope, member string, fn func(Args) (any, error)) Rule {
	return Rule{Kind: rules.KindDataSource, Scope: scope, Member: member,
		Value: rules.Value{Kind: rules.ValueFunction, Function: fn}}
}

// When makes a rule apply only while the condition holds.
func When(r Rule, condition func(Args) bool) Rule {
	r.Condition = condition
	return r
}

// CreateWith constructs target objects with a factory returning T or *T.
func CreateWith(scope Scope, factory func(Args) (any, error)) Rule {
	return Rule{Kind: rules.KindFactory, Scope: scope, Factory: factory}
}

// Before runs a callback once the target object exists, before its members are populated.
func Before(scope Scope, callback func(Args) error) Rule {
	return Rule{Kind: rules.KindBefore, Scope: scope, Callback: callback}
}

// After runs a callback once the target object is populated.
func After(scope Scope, callback func(Args) error) Rule {
	return Rule{Kind: rules.KindAfter, Scope: scope, Callback: callback}
}

// OnError handles failures while mapping a member, or a whole object when
// member is empty. The handler returns a substitute value, nil to leave the
// target at its zero value, or an error to fail the mapping.
func OnError(scope Scope, member string, handler func(Args, error) (any, error)) Rule {
	return Rule{Kind: rules.KindException, Scope: scope, Member: member, Handler: handler}
}

// Derived maps sources of runtime type S into T when the scope's target is
// an interface.
func Derived[S, T any](scope Scope) Rule {
	return Rule{Kind: rules.KindDerived, Scope: scope,
		DerivedSource: reflect.TypeFor[S](), DerivedTarget: reflect.TypeFor[T]()}
}
