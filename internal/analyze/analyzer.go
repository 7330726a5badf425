package analyze

import (
	"reflect"
	"strings"
	"sync"
)

const (
	getterPrefix = "Get"
	setterPrefix = "Set"
)

// Analyzer reads type metadata through reflection and caches it per type.
// It is safe for concurrent use.
type Analyzer struct {
	cache sync.Map // reflect.Type -> *TypeInfo
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Inspect returns the cached description of the type, building it on first use.
func (a *Analyzer) Inspect(t reflect.Type) *TypeInfo {
	if info, ok := a.cache.Load(t); ok {
		return info.(*TypeInfo)
	}

	info, _ := a.cache.LoadOrStore(t, build(t))

	return info.(*TypeInfo)
}

// IsComplex reports whether values of the type are mapped member by member.
func (a *Analyzer) IsComplex(t reflect.Type) bool {
	return a.Inspect(Base(t)).Kind == TypeKindStruct
}

// Base strips every pointer level from the type.
func Base(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t
}

// PointerDepth returns the number of pointer levels wrapping the base type.
func PointerDepth(t reflect.Type) int {
	depth := 0
	for t.Kind() == reflect.Pointer {
		depth++
		t = t.Elem()
	}

	return depth
}

func build(t reflect.Type) *TypeInfo {
	info := &TypeInfo{Type: t, Kind: kindOf(t)}

	switch info.Kind {
	case TypeKindPointer, TypeKindSlice, TypeKindArray:
		info.Elem = t.Elem()
	case TypeKindMap:
		info.Key, info.Elem = t.Key(), t.Elem()
	case TypeKindStruct:
		info.Readable, info.Writable = structMembers(t)
		if len(info.Readable) == 0 && len(info.Writable) == 0 {
			info.Kind = TypeKindExternal
		}
	}

	return info
}

func structMembers(t reflect.Type) (readable, writable []MemberInfo) {
	seen := make(map[string]struct{})

	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || !reachable(t, f.Index) {
			continue
		}

		// embedded structs are replaced by their promoted fields
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			continue
		}

		tag := ParseTag(f.Tag)
		if tag.Skip {
			continue
		}

		m := MemberInfo{
			Name:     f.Name,
			Type:     f.Type,
			Access:   AccessField,
			Index:    f.Index,
			Embedded: len(f.Index) > 1,
			Tag:      tag,
			Owner:    t,
		}

		seen[f.Name] = struct{}{}
		readable = append(readable, m)
		writable = append(writable, m)
	}

	ptr := reflect.PointerTo(t)
	for i := range ptr.NumMethod() {
		method := ptr.Method(i)
		mtype := method.Type // includes the receiver

		switch {
		case isAccessor(method.Name, getterPrefix) && mtype.NumIn() == 1 && mtype.NumOut() == 1:
			name := strings.TrimPrefix(method.Name, getterPrefix)
			if _, exists := seen[name]; exists {
				continue
			}

			readable = append(readable, MemberInfo{
				Name: name, Type: mtype.Out(0), Access: AccessGetter, Method: i, Owner: t,
			})

		case isAccessor(method.Name, setterPrefix) && mtype.NumIn() == 2 && mtype.NumOut() == 0:
			name := strings.TrimPrefix(method.Name, setterPrefix)
			if _, exists := seen[name]; exists {
				continue
			}

			writable = append(writable, MemberInfo{
				Name: name, Type: mtype.In(1), Access: AccessSetter, Method: i, Owner: t,
			})
		}
	}

	return readable, writable
}

func isAccessor(name, prefix string) bool {
	return len(name) > len(prefix) && strings.HasPrefix(name, prefix)
}

// reachable reports whether the promoted field can be read and written without
// passing through pointers or unexported embedded structs.
func reachable(t reflect.Type, index []int) bool {
	current := t
	for _, idx := range index[:len(index)-1] {
		f := current.Field(idx)
		if !f.IsExported() || f.Type.Kind() != reflect.Struct {
			return false
		}

		current = f.Type
	}

	return true
}
