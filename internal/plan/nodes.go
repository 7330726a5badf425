package plan

import (
	"reflect"

	"struct-mapper/internal/analyze"
	"struct-mapper/internal/diagnostic"
	"struct-mapper/internal/resolve"
	"struct-mapper/internal/rules"
	"struct-mapper/primitive"
)

// Node is a step of a mapping procedure producing a target value from a source value.
type Node interface {
	// Types returns the source and target types the node maps between.
	Types() (source, target reflect.Type)
}

// Convert copies a scalar value, converting it to the target type.
type Convert struct {
	Source, Target reflect.Type
	Fn             primitive.Convert
	Lossy          bool
}

// Indirect dereferences source pointers and allocates target pointers around Elem.
type Indirect struct {
	Source, Target reflect.Type
	Elem           Node
	// Identity tracks source pointers in the identity registry so a revisited
	// source object resolves to the target already produced for it.
	Identity bool
}

// Object creates or reuses a target struct and populates its members.
type Object struct {
	Source, Target reflect.Type // base types
	// Path is the target path of the object from the procedure root.
	Path string
	// Shared objects read from the source object of the enclosing object.
	Shared     bool
	Dictionary bool
	Factories  []*rules.Rule
	Before     []*rules.Rule
	After      []*rules.Rule
	Members    []*Assign
}

// Resolved reports whether any member takes its value from a source.
func (o *Object) Resolved() bool {
	for _, m := range o.Members {
		if len(m.Bindings) > 0 {
			return true
		}
	}

	return false
}

// Assign resolves one target member. Bindings are tried in order at run time;
// the first one that provides a value is assigned, else the fallback applies.
type Assign struct {
	Member analyze.MemberInfo
	// Path is the target path of the member from the procedure root.
	Path     string
	Bindings []Binding
	Fallback resolve.DataSource
	// Handlers are exception rules for this member.
	Handlers []*rules.Rule
	// Simple members are assigned as a whole; complex members are populated
	// in place when they already hold a value.
	Simple bool
}

// IsIgnored reports whether a rule excluded the member.
func (a *Assign) IsIgnored() bool { return a.Fallback.Kind == resolve.KindIgnored }

// Binding is a candidate data source together with the node converting its
// value into the member type. A nil Value assigns the zero value.
type Binding struct {
	Source resolve.DataSource
	Value  Node
}

// Call invokes the named procedure of a cyclic type pair.
type Call struct {
	Procedure *Procedure
}

// Iterate maps an enumerable element by element.
type Iterate struct {
	Source, Target reflect.Type
	Elem           Node
	// Dictionary iterations count elements from indexed keys of a dictionary source.
	Dictionary bool
	Keys       []string
}

// Entries maps a map entry by entry.
type Entries struct {
	Source, Target reflect.Type
	Key            Node
	Elem           Node
}

// Dispatch maps a value into an interface, routing it by its runtime type to
// the mapper of a configured derived pair.
type Dispatch struct {
	Source, Target reflect.Type
	Cases          []Derived
}

// Derived is a configured derived pair.
type Derived struct {
	Source, Target reflect.Type
}

// Runtime maps a value whose type is only known at run time.
type Runtime struct {
	Source, Target reflect.Type
}

// Lookup reads one dictionary key of the enclosing object's source.
type Lookup struct {
	Source, Target reflect.Type
	Keys           []string
	Value          Node
}

// Try recovers failures raised by its body and hands them to exception handlers.
type Try struct {
	Body     Node
	Handlers []*rules.Rule
}

func (n *Convert) Types() (reflect.Type, reflect.Type) { return n.Source, n.Target }
func (n *Indirect) Types() (reflect.Type, reflect.Type) { return n.Source, n.Target }
func (n *Object) Types() (reflect.Type, reflect.Type) { return n.Source, n.Target }
func (n *Call) Types() (reflect.Type, reflect.Type) { return n.Procedure.Key.Source, n.Procedure.Key.Target }
func (n *Iterate) Types() (reflect.Type, reflect.Type) { return n.Source, n.Target }
func (n *Entries) Types() (reflect.Type, reflect.Type) { return n.Source, n.Target }
func (n *Dispatch) Types() (reflect.Type, reflect.Type) { return n.Source, n.Target }
func (n *Runtime) Types() (reflect.Type, reflect.Type) { return n.Source, n.Target }
func (n *Lookup) Types() (reflect.Type, reflect.Type) { return n.Source, n.Target }
func (n *Try) Types() (reflect.Type, reflect.Type) { return n.Body.Types() }

// Procedure is a named mapping of a type pair. Cyclic pairs are built once
// as procedures and called wherever they occur.
type Procedure struct {
	Name   string
	Key    Key
	Body   Node
	Cyclic bool
}

// Plan is the mapping procedure of a type pair.
type Plan struct {
	Key  Key
	Root *Procedure
	// Procedures lists the root procedure followed by every cyclic procedure
	// in the order they were first referenced.
	Procedures  []*Procedure
	Diagnostics diagnostic.Diagnostics
}
