package resolve

import (
	"fmt"
	"reflect"
	"strings"

	"struct-mapper/internal/analyze"
	"struct-mapper/internal/rules"
)

//go:generate go tool stringer -type=Kind -trimprefix=Kind -output=kind_string.go

// Kind tells where a target member takes its value from.
type Kind int

const (
	_ Kind = iota

	KindConstant             // a configured constant
	KindConfiguredMember     // a configured source member path
	KindConfiguredExpression // a configured func(Source) Value
	KindConfiguredFunction   // a configured func(Args) (any, error)
	KindDictionaryKey        // a key of a dictionary source
	KindConventionMatch      // a source member with the same or an alias name
	KindFallback             // created empty or left at its current value
	KindIgnored              // left untouched by a rule
)

// DataSource is the resolved origin of a target member value.
type DataSource struct {
	Kind Kind

	// Rule is the configured rule the source came from, nil for unconfigured sources.
	Rule        *rules.Rule
	Specificity rules.Specificity

	// Frame is the number of object frames above the current one whose source
	// object the value is read from.
	Frame int
	// Readers is the chain of source members read from the frame's source object.
	Readers []analyze.MemberInfo

	// Keys are case folded dictionary key templates. Element indexes appear as "[i]".
	Keys []string
	// Nested marks a source whose value is the frame's own source object, read
	// under the name prefix of the target member.
	Nested bool
	// Elements marks a dictionary source whose elements are read from indexed keys.
	Elements bool

	// Create marks a fallback that gives the member an empty value.
	Create bool

	// Type is the type of the produced value.
	Type reflect.Type
}

// IsConditional reports whether the source may not apply at run time.
func (d DataSource) IsConditional() bool {
	switch {
	case d.Rule != nil && d.Rule.IsConditional():
		return true
	case len(d.Keys) > 0, d.Nested:
		return true
	case d.Kind == KindConfiguredExpression:
		return d.Rule.Value.Caster().HasBool
	default:
		return false
	}
}

// IsConfigured reports whether the source came from a configured rule.
func (d DataSource) IsConfigured() bool { return d.Rule != nil }

// MemberPath renders the chain of source members, e.g. "Customer.Name".
func (d DataSource) MemberPath() string {
	names := make([]string, len(d.Readers))
	for i, r := range d.Readers {
		names[i] = r.Name
	}

	return strings.Join(names, ".")
}

// String describes the source for plan exports.
func (d DataSource) String() string {
	var desc string

	switch d.Kind {
	case KindConstant:
		desc = fmt.Sprintf("constant %v", d.Rule.Value.Constant)
	case KindConfiguredExpression:
		desc = "expression " + d.Rule.Value.Caster().String()
	case KindConfiguredFunction:
		desc = "function"
	case KindFallback:
		desc = "fallback"
		if d.Create {
			desc += " create empty"
		}
	case KindIgnored:
		desc = "ignored"
	case KindDictionaryKey, KindConfiguredMember, KindConventionMatch:
		desc = map[Kind]string{
			KindDictionaryKey:    "key",
			KindConfiguredMember: "member",
			KindConventionMatch:  "convention",
		}[d.Kind]

		switch {
		case d.Elements:
			desc += " elements " + strings.Join(d.Keys, " | ")
		case d.Nested && len(d.Keys) > 0:
			desc += " nested " + strings.Join(d.Keys, " | ")
		case d.Nested:
			desc += " nested"
		case len(d.Keys) > 0:
			desc += " " + strings.Join(d.Keys, " | ")
		default:
			desc += " " + d.MemberPath()
		}
	default:
		desc = d.Kind.String()
	}

	if d.Frame > 0 {
		desc += fmt.Sprintf(" (outer %d)", d.Frame)
	}

	if d.Rule != nil && d.Rule.IsConditional() {
		desc += " if condition"
	}

	return desc
}
