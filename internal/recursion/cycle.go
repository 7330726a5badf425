package recursion

import (
	"reflect"
	"sync"

	"struct-mapper/internal/analyze"
	"struct-mapper/primitive"
)

// Analyzer answers whether a target type can reach itself through its members.
// Results are cached per type; it is safe for concurrent use.
type Analyzer struct {
	types *analyze.Analyzer
	cache sync.Map // reflect.Type -> bool
}

// NewAnalyzer creates an Analyzer reading type metadata from types.
func NewAnalyzer(types *analyze.Analyzer) *Analyzer {
	return &Analyzer{types: types}
}

// ParticipatesInCycle reports whether the base type of t is reachable from
// itself through writable members, pointers, elements or map values.
func (a *Analyzer) ParticipatesInCycle(t reflect.Type) bool {
	t = analyze.Base(t)
	if cyclic, ok := a.cache.Load(t); ok {
		return cyclic.(bool)
	}

	seen := make(map[reflect.Type]struct{})
	cyclic := false

	var walk func(reflect.Type)
	walk = func(current reflect.Type) {
		for _, next := range a.neighbors(current) {
			if cyclic {
				return
			}

			if next == t {
				cyclic = true
				return
			}

			if _, ok := seen[next]; ok {
				continue
			}

			seen[next] = struct{}{}
			walk(next)
		}
	}
	walk(t)

	a.cache.Store(t, cyclic)

	return cyclic
}

// neighbors lists the base types directly reachable from a type.
func (a *Analyzer) neighbors(t reflect.Type) []reflect.Type {
	t = analyze.Base(t)
	if primitive.IsSimple(t) {
		return nil
	}

	switch t.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return []reflect.Type{analyze.Base(t.Elem())}

	case reflect.Struct:
		info := a.types.Inspect(t)
		out := make([]reflect.Type, 0, len(info.Writable))
		for _, m := range info.Writable {
			out = append(out, analyze.Base(m.Type))
		}

		return out

	default:
		return nil
	}
}
