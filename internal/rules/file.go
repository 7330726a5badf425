package rules

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"struct-mapper/internal/common"
)

var fileValidate = validator.New(validator.WithRequiredStructEnabled())

// ErrUnknownType is returned when a rule file names a type that is not registered.
var ErrUnknownType = errors.New("unknown type")

// TypeLookup resolves a type name used in a rule file, e.g. "store.Order".
type TypeLookup func(name string) (reflect.Type, bool)

// File is a declarative rule file.
//
//	version: "1"
//	naming:
//	  aliases:
//	    - [Surname, LastName]
//	  prefixes: [str]
//	rules:
//	  - kind: ignore
//	    target: warehouse.Order
//	    member: Notes
//	  - kind: member
//	    source: store.Order
//	    target: warehouse.Order
//	    member: Buyer
//	    from: Customer.Name
type File struct {
	Version string     `yaml:"version,omitempty"`
	Naming  FileNaming `yaml:"naming,omitempty"`
	Rules   []FileRule `yaml:"rules" validate:"dive"`
}

// FileNaming declares naming conventions.
type FileNaming struct {
	Aliases  []Names `yaml:"aliases,omitempty" validate:"dive,min=2"`
	Prefixes Names   `yaml:"prefixes,omitempty" validate:"dive,required"`
	Suffixes Names   `yaml:"suffixes,omitempty" validate:"dive,required"`
}

// FileRule is one declarative rule.
type FileRule struct {
	Kind    string `yaml:"kind" validate:"required,oneof=ignore constant member derived"`
	Source  string `yaml:"source,omitempty"`
	Target  string `yaml:"target,omitempty"`
	RuleSet string `yaml:"ruleSet,omitempty" validate:"omitempty,oneof=CreateNew Merge Overwrite"`
	Member  string `yaml:"member,omitempty" validate:"required_unless=Kind derived"`

	From  string `yaml:"from,omitempty" validate:"required_if=Kind member"`
	Value any    `yaml:"value,omitempty"`

	DerivedSource string `yaml:"derivedSource,omitempty" validate:"required_if=Kind derived"`
	DerivedTarget string `yaml:"derivedTarget,omitempty" validate:"required_if=Kind derived"`
}

// Names accepts either a single string or a list of strings.
type Names []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (n *Names) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var str string
		if err := node.Decode(&str); err != nil {
			return err
		}

		*n = Names{}
		if str != "" {
			*n = Names{str}
		}

		return nil

	case yaml.SequenceNode:
		var arr []string
		if err := node.Decode(&arr); err != nil {
			return err
		}

		*n = arr

		return nil

	default:
		return fmt.Errorf("expected string or array, got %v", node.Kind)
	}
}

// First returns the first name or an empty string.
func (n Names) First() string {
	name, _ := common.First(n)
	return name
}

// LoadFile reads and parses a rule file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses and validates rule file contents.
func Parse(data []byte) (*File, error) {
	var f File

	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rule YAML: %w", err)
	}

	if f.Version == "" {
		f.Version = "1"
	}

	if err := fileValidate.Struct(&f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}

	return &f, nil
}

// Apply registers the file's naming conventions and rules in the store.
// Every failing rule is reported; rules that are valid are still registered.
func (f *File) Apply(store *Store, lookup TypeLookup) error {
	naming := store.Naming()
	for _, group := range f.Naming.Aliases {
		naming.AddAlias(group.First(), group[1:]...)
	}
	naming.AddPrefixes(f.Naming.Prefixes...)
	naming.AddSuffixes(f.Naming.Suffixes...)

	var result *multierror.Error

	for i, fr := range f.Rules {
		rule, err := fr.toRule(lookup)
		if err == nil {
			err = store.Add(rule)
		}

		if err != nil {
			result = multierror.Append(result, fmt.Errorf("rule %d (%s %s): %w", i+1, fr.Kind, fr.Member, err))
		}
	}

	return result.ErrorOrNil()
}

func (fr FileRule) toRule(lookup TypeLookup) (Rule, error) {
	var (
		rule Rule
		err  error
	)

	rule.Member = fr.Member
	rule.Scope.RuleSet = fr.RuleSet

	if rule.Scope.Source, err = lookupType(lookup, fr.Source); err != nil {
		return rule, err
	}

	if rule.Scope.Target, err = lookupType(lookup, fr.Target); err != nil {
		return rule, err
	}

	switch strings.ToLower(fr.Kind) {
	case "ignore":
		rule.Kind = KindIgnore

	case "constant":
		rule.Kind = KindDataSource
		rule.Value = Value{Kind: ValueConstant, Constant: fr.Value}

	case "member":
		rule.Kind = KindDataSource
		rule.Value = Value{Kind: ValueMember, Member: fr.From}

	case "derived":
		rule.Kind = KindDerived
		rule.Member = ""

		if rule.DerivedSource, err = lookupType(lookup, fr.DerivedSource); err != nil {
			return rule, err
		}

		if rule.DerivedTarget, err = lookupType(lookup, fr.DerivedTarget); err != nil {
			return rule, err
		}
	}

	return rule, nil
}

func lookupType(lookup TypeLookup, name string) (reflect.Type, error) {
	if name == "" || name == "any" {
		return nil, nil
	}

	if lookup != nil {
		if t, ok := lookup(name); ok {
			return t, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
}

// TypeRegistry maps type names to types for rule files.
type TypeRegistry map[string]reflect.Type

// Register adds types under their package qualified names, e.g. "store.Order".
func (r TypeRegistry) Register(types ...reflect.Type) TypeRegistry {
	for _, t := range types {
		r[common.TypeName(t)] = t
	}

	return r
}

// Lookup implements TypeLookup.
func (r TypeRegistry) Lookup(name string) (reflect.Type, bool) {
	t, ok := r[name]
	return t, ok
}
