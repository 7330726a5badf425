package rules

import (
	"errors"
	"fmt"
	"reflect"

	"struct-mapper/internal/common"
	"struct-mapper/node"
)

//go:generate go tool stringer -type=Kind,ValueKind -output=kind_string.go

var (
	ErrConfigurationConflict = errors.New("configuration conflict")
	ErrInvalidRule           = errors.New("invalid rule")
)

// Kind is the kind of a configured rule.
type Kind int

const (
	_ Kind = iota // zero value is an invalid rule

	KindIgnore     // leave a target member untouched
	KindDataSource // take a target member's value from a configured source
	KindFactory    // construct target objects with a function
	KindBefore     // run a callback before an object is populated
	KindAfter      // run a callback after an object is populated
	KindException  // handle failures raised while mapping
	KindDerived    // map a runtime source type to a derived target type
)

// ValueKind tells where a configured data source takes its value from.
type ValueKind int

const (
	_ ValueKind = iota

	ValueConstant   // a fixed value
	ValueMember     // a member path on the source object
	ValueExpression // a func(Source) Value, optionally returning bool and error
	ValueFunction   // a func(Args) (any, error)
)

// Args are handed to configured functions, conditions and callbacks.
type Args struct {
	Source  any    // source object of the mapped pair
	Target  any    // target object being populated, nil before it exists
	Index   int    // element index inside an enumerable, -1 otherwise
	Path    string // target member path, empty for object level rules
	RuleSet string
}

// HasIndex reports whether the arguments belong to an enumerable element.
func (a Args) HasIndex() bool { return a.Index >= 0 }

// Value is the source of a configured data source.
type Value struct {
	Kind       ValueKind
	Constant   any
	Member     string // dotted source member path
	Expression any    // func(S) T, func(S) (T, bool), func(S) (T, error) ...
	Function   func(Args) (any, error)
	caster     node.Caster
}

// Caster returns the parsed expression signature.
func (v Value) Caster() node.Caster { return v.caster }

// Rule is a configured rule record.
type Rule struct {
	Kind  Kind
	Scope Scope
	// Member is the target member path relative to the scope's target type.
	// It is empty for object level rules.
	Member string

	Value     Value                          // KindDataSource
	Condition func(Args) bool                // optional for KindDataSource and callbacks
	Factory   func(Args) (any, error)        // KindFactory
	Callback  func(Args) error               // KindBefore, KindAfter
	Handler   func(Args, error) (any, error) // KindException: return a substitute or an error

	DerivedSource reflect.Type // KindDerived
	DerivedTarget reflect.Type // KindDerived

	seq int
}

// IsConditional reports whether the rule only applies when its condition holds.
func (r *Rule) IsConditional() bool {
	return r.Condition != nil
}

// Sequence returns the registration order of the rule within its store.
func (r *Rule) Sequence() int { return r.seq }

// String describes the rule for diagnostics.
func (r *Rule) String() string {
	switch r.Kind {
	case KindIgnore:
		return fmt.Sprintf("ignore %s [%s]", r.Member, r.Scope)
	case KindDataSource:
		return fmt.Sprintf("%s <- %s [%s]", r.Member, r.Value, r.Scope)
	case KindDerived:
		return fmt.Sprintf("derived %s -> %s [%s]",
			common.TypeName(r.DerivedSource), common.TypeName(r.DerivedTarget), r.Scope)
	default:
		return fmt.Sprintf("%s [%s]", r.Kind, r.Scope)
	}
}

// String renders the value source.
func (v Value) String() string {
	switch v.Kind {
	case ValueConstant:
		return fmt.Sprintf("constant %#v", v.Constant)
	case ValueMember:
		return "member " + v.Member
	case ValueExpression:
		if v.caster.Name != "" {
			return "expression " + v.caster.PackageAlias + "." + v.caster.Name
		}
		return "expression"
	case ValueFunction:
		return "function"
	default:
		return common.UnknownStr
	}
}

// validate checks that the rule carries what its kind needs.
func (r *Rule) validate() error {
	switch r.Kind {
	case KindIgnore:
		if r.Member == "" {
			return fmt.Errorf("%w: ignore rule needs a member", ErrInvalidRule)
		}

	case KindDataSource:
		if r.Member == "" {
			return fmt.Errorf("%w: data source needs a target member", ErrInvalidRule)
		}
		return r.validateValue()

	case KindFactory:
		if r.Factory == nil {
			return fmt.Errorf("%w: factory rule needs a function", ErrInvalidRule)
		}
		if r.Scope.Target == nil {
			return fmt.Errorf("%w: factory rule needs a target type", ErrInvalidRule)
		}

	case KindBefore, KindAfter:
		if r.Callback == nil {
			return fmt.Errorf("%w: callback rule needs a function", ErrInvalidRule)
		}

	case KindException:
		if r.Handler == nil {
			return fmt.Errorf("%w: exception rule needs a handler", ErrInvalidRule)
		}

	case KindDerived:
		return r.validateDerived()

	default:
		return fmt.Errorf("%w: unknown rule kind %d", ErrInvalidRule, r.Kind)
	}

	return nil
}

func (r *Rule) validateValue() error {
	switch r.Value.Kind {
	case ValueConstant:
		return nil

	case ValueMember:
		if r.Value.Member == "" {
			return fmt.Errorf("%w: member data source needs a source member path", ErrInvalidRule)
		}

	case ValueExpression:
		caster, err := node.ParseCaster(r.Value.Expression)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRule, err)
		}

		if src := r.Scope.Source; src != nil && !acceptsSource(caster.Src, src) {
			return fmt.Errorf("%w: expression takes %s but the rule maps from %s",
				ErrInvalidRule, caster.Src, common.TypeName(src))
		}

		r.Value.caster = caster

	case ValueFunction:
		if r.Value.Function == nil {
			return fmt.Errorf("%w: function data source needs a function", ErrInvalidRule)
		}

	default:
		return fmt.Errorf("%w: unknown data source kind %d", ErrInvalidRule, r.Value.Kind)
	}

	return nil
}

func (r *Rule) validateDerived() error {
	if r.DerivedSource == nil || r.DerivedTarget == nil {
		return fmt.Errorf("%w: derived pair needs source and target types", ErrInvalidRule)
	}

	if r.Scope.Source != nil && typeRank(r.DerivedSource, r.Scope.Source) == rankNone {
		return fmt.Errorf("%w: %s is not derived from %s", ErrInvalidRule,
			common.TypeName(r.DerivedSource), common.TypeName(r.Scope.Source))
	}

	if r.Scope.Target != nil && typeRank(r.DerivedTarget, r.Scope.Target) == rankNone {
		return fmt.Errorf("%w: %s is not derived from %s", ErrInvalidRule,
			common.TypeName(r.DerivedTarget), common.TypeName(r.Scope.Target))
	}

	return nil
}

// acceptsSource reports whether a function parameter can receive the source object.
func acceptsSource(param, source reflect.Type) bool {
	return base(param) == base(source) || source.AssignableTo(param) ||
		reflect.PointerTo(base(source)).AssignableTo(param)
}

// conflictWith returns a message when the rule cannot coexist with an existing one.
func (r *Rule) conflictWith(existing *Rule) (string, bool) {
	switch {
	case r.Kind == KindIgnore && existing.Kind == KindIgnore:
		if sameMember(r, existing) && r.Scope.Equal(existing.Scope) {
			return fmt.Sprintf("member %s is already ignored", r.Member), true
		}

	case r.Kind == KindIgnore && existing.Kind == KindDataSource:
		if sameMember(r, existing) && r.Scope.Covers(existing.Scope) {
			return fmt.Sprintf("ignored member %s has a configured data source", r.Member), true
		}

	case r.Kind == KindDataSource && existing.Kind == KindIgnore:
		if sameMember(r, existing) && existing.Scope.Covers(r.Scope) {
			return fmt.Sprintf("member %s has been ignored", r.Member), true
		}

	case r.Kind == KindDataSource && existing.Kind == KindDataSource:
		if sameMember(r, existing) && r.Scope.Equal(existing.Scope) &&
			!r.IsConditional() && !existing.IsConditional() {
			return fmt.Sprintf("%s already has a configured data source", r.Member), true
		}

	case r.Kind == KindFactory && existing.Kind == KindFactory:
		if r.Scope.Equal(existing.Scope) && !r.IsConditional() && !existing.IsConditional() {
			return fmt.Sprintf("a factory for %s is already configured", typeOrAny(r.Scope.Target)), true
		}

	case r.Kind == KindDerived && existing.Kind == KindDerived:
		if r.Scope.Equal(existing.Scope) && r.DerivedSource == existing.DerivedSource {
			return fmt.Sprintf("derived type %s is already paired with %s",
				common.TypeName(r.DerivedSource), common.TypeName(existing.DerivedTarget)), true
		}

	case r.Kind == KindException && existing.Kind == KindException:
		if sameMember(r, existing) && r.Scope.Equal(existing.Scope) {
			return fmt.Sprintf("an exception handler for %s is already configured", r.Scope), true
		}
	}

	return "", false
}
