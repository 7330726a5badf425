package plan

import (
	"gopkg.in/yaml.v3"

	"struct-mapper/internal/common"
	"struct-mapper/internal/resolve"
	"struct-mapper/internal/rules"
)

// ExportRules generates a rule file pinning the convention matches and ignored
// members of a plan. This allows users to review matched members and keep
// them stable when types change.
func ExportRules(p *Plan) *rules.File {
	f := &rules.File{Version: "1"}
	seen := make(map[rules.FileRule]struct{})

	add := func(fr rules.FileRule) {
		if _, ok := seen[fr]; !ok {
			seen[fr] = struct{}{}
			f.Rules = append(f.Rules, fr)
		}
	}

	for _, proc := range p.Procedures {
		walk(proc.Body, func(obj *Object) {
			if obj.Dictionary {
				return
			}

			for _, a := range obj.Members {
				fr := rules.FileRule{
					Source:  common.TypeName(obj.Source),
					Target:  common.TypeName(obj.Target),
					RuleSet: p.Key.RuleSet,
					Member:  a.Member.Name,
				}

				if a.IsIgnored() {
					fr.Kind = "ignore"
					fr.Source = ""
					add(fr)

					continue
				}

				for _, b := range a.Bindings {
					if b.Source.Kind == resolve.KindConventionMatch && len(b.Source.Readers) > 0 {
						fr.Kind = "member"
						fr.From = b.Source.MemberPath()
						add(fr)
					}
				}
			}
		})
	}

	return f
}

// ExportRulesYAML generates the rule file of a plan as YAML.
func ExportRulesYAML(p *Plan) ([]byte, error) {
	return yaml.Marshal(ExportRules(p))
}

// walk visits every object of a procedure body, outermost first. Called
// procedures are not entered.
func walk(n Node, visit func(*Object)) {
	switch n := n.(type) {
	case *Try:
		walk(n.Body, visit)
	case *Indirect:
		walk(n.Elem, visit)
	case *Lookup:
		walk(n.Value, visit)
	case *Iterate:
		walk(n.Elem, visit)
	case *Entries:
		walk(n.Elem, visit)
	case *Object:
		visit(n)

		for _, m := range n.Members {
			for _, b := range m.Bindings {
				walk(b.Value, visit)
			}
		}
	}
}
