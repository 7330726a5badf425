package plan

import (
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"struct-mapper/internal/common"
	"struct-mapper/internal/resolve"
)

var constants = spew.ConfigState{
	Indent:                  " ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Describe renders a plan as text, one block per procedure:
//
//	Map store.Order -> warehouse.Order
//	Rule Set: CreateNew
//	  ID <- convention ID: convert int64 -> string
//	  Customer <- convention Customer
//	    Name <- convention Name
func Describe(p *Plan) string {
	d := describer{}

	for i, proc := range p.Procedures {
		if i > 0 {
			d.sb.WriteString("\n")
		}

		d.procedure(proc)
	}

	if n := len(p.Diagnostics.Warnings); n > 0 {
		d.sb.WriteString("\nWarnings:\n")
		for _, w := range p.Diagnostics.Warnings {
			d.line(1, "%s", w)
		}
	}

	return d.sb.String()
}

type describer struct {
	sb strings.Builder
}

func (d *describer) line(depth int, format string, args ...any) {
	d.sb.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(&d.sb, format, args...)
	d.sb.WriteString("\n")
}

func (d *describer) procedure(proc *Procedure) {
	d.line(0, "Map %s -> %s", common.TypeName(proc.Key.Source), common.TypeName(proc.Key.Target))
	d.line(0, "Rule Set: %s", proc.Key.RuleSet)

	if proc.Cyclic {
		d.line(0, "Procedure: %s", proc.Name)
	}

	if s := summary(proc.Body); s != "" {
		d.line(1, "%s", s)
	}

	d.node(proc.Body, 1)
}

func (d *describer) node(n Node, depth int) {
	switch n := n.(type) {
	case *Try:
		if len(n.Handlers) > 0 {
			d.line(depth, "on error: %d handler(s)", len(n.Handlers))
		}
		d.node(n.Body, depth)

	case *Indirect:
		d.node(n.Elem, depth)

	case *Lookup:
		d.node(n.Value, depth)

	case *Object:
		if len(n.Factories) > 0 {
			d.line(depth, "create with %d factory rule(s)", len(n.Factories))
		}
		if len(n.Before) > 0 {
			d.line(depth, "before: %d callback(s)", len(n.Before))
		}
		for _, m := range n.Members {
			d.assign(m, depth)
		}
		if len(n.After) > 0 {
			d.line(depth, "after: %d callback(s)", len(n.After))
		}

	case *Iterate:
		d.line(depth, "[i] %s", summary(n.Elem))
		d.node(n.Elem, depth+1)

	case *Entries:
		d.line(depth, "[k] %s", summary(n.Elem))
		d.node(n.Elem, depth+1)

	case *Dispatch:
		for _, c := range n.Cases {
			d.line(depth, "case %s -> %s", common.TypeName(c.Source), common.TypeName(c.Target))
		}
	}
}

func (d *describer) assign(a *Assign, depth int) {
	name := a.Member.Name

	switch {
	case a.IsIgnored():
		d.line(depth, "%s: ignored", name)
		return
	case len(a.Bindings) == 0:
		d.line(depth, "%s: %s", name, a.Fallback)
		return
	}

	for _, b := range a.Bindings {
		desc := source(b.Source)
		if s := summary(b.Value); s != "" {
			desc += ": " + s
		}

		d.line(depth, "%s <- %s", name, desc)
		d.node(b.Value, depth+1)
	}
}

func source(ds resolve.DataSource) string {
	if ds.Kind != resolve.KindConstant {
		return ds.String()
	}

	desc := "constant " + constants.Sprintf("%#v", ds.Rule.Value.Constant)
	if ds.IsConditional() {
		desc += " if condition"
	}

	return desc
}

// summary describes a node on one line. Objects are described by their members.
func summary(n Node) string {
	switch n := n.(type) {
	case nil:
		return "zero value"
	case *Convert:
		if n.Source == n.Target {
			return ""
		}

		s := fmt.Sprintf("convert %s -> %s", common.TypeName(n.Source), common.TypeName(n.Target))
		if n.Lossy {
			s += " (lossy)"
		}
		return s
	case *Indirect:
		return summary(n.Elem)
	case *Lookup:
		return summary(n.Value)
	case *Try:
		return summary(n.Body)
	case *Call:
		return "call " + n.Procedure.Name
	case *Iterate:
		return "each element"
	case *Entries:
		return "each entry"
	case *Dispatch:
		return "by runtime type"
	case *Runtime:
		return "runtime type"
	default:
		return ""
	}
}
