package analyze

import (
	"reflect"
	"strings"

	"struct-mapper/internal/common"
	"struct-mapper/primitive"
)

// TypeKind represents the kind of a type.
type TypeKind int

const (
	TypeKindUnknown    TypeKind = iota
	TypeKindBasic               // int, string, bool, etc.
	TypeKindStruct              // struct type with readable or writable members
	TypeKindPointer             // pointer to another type
	TypeKindSlice               // slice of another type
	TypeKindArray               // array of another type
	TypeKindMap                 // map of another type
	TypeKindInterface           // interface, resolved at runtime
	TypeKindExternal            // external/opaque type (e.g., time.Time)
	TypeKindUnsupported         // channels, functions, unsafe pointers
)

// String returns a human-readable representation of the TypeKind.
func (k TypeKind) String() string {
	switch k {
	case TypeKindBasic:
		return "basic"
	case TypeKindStruct:
		return "struct"
	case TypeKindPointer:
		return "pointer"
	case TypeKindSlice:
		return "slice"
	case TypeKindArray:
		return "array"
	case TypeKindMap:
		return "map"
	case TypeKindInterface:
		return "interface"
	case TypeKindExternal:
		return "external"
	case TypeKindUnsupported:
		return "unsupported"
	default:
		return common.UnknownStr
	}
}

// AccessKind tells how a member value is read or written.
type AccessKind int

const (
	AccessField  AccessKind = iota // exported struct field
	AccessGetter                   // GetX() method
	AccessSetter                   // SetX(v) method
)

// TypeInfo describes a Go type as seen by the mapper.
type TypeInfo struct {
	Type     reflect.Type
	Kind     TypeKind
	Elem     reflect.Type // For pointers, slices, arrays and maps
	Key      reflect.Type // For maps
	Readable []MemberInfo // Members in declaration order, then getters
	Writable []MemberInfo // Members in declaration order, then setters
}

// IsDictionary reports whether the type is a string-keyed map.
func (t *TypeInfo) IsDictionary() bool {
	return t.Kind == TypeKindMap && t.Key.Kind() == reflect.String
}

// IsEnumerable reports whether the type holds a sequence of elements.
func (t *TypeInfo) IsEnumerable() bool {
	return t.Kind == TypeKindSlice || t.Kind == TypeKindArray
}

// Reader returns the readable member with the given name.
func (t *TypeInfo) Reader(name string) (MemberInfo, bool) {
	return lookup(t.Readable, name)
}

// Writer returns the writable member with the given name.
func (t *TypeInfo) Writer(name string) (MemberInfo, bool) {
	return lookup(t.Writable, name)
}

// ReadableNames lists the names of the readable members.
func (t *TypeInfo) ReadableNames() []string {
	names := make([]string, 0, len(t.Readable))
	for _, m := range t.Readable {
		names = append(names, m.Name)
	}

	return names
}

func lookup(members []MemberInfo, name string) (MemberInfo, bool) {
	for _, m := range members {
		if m.Name == name {
			return m, true
		}
	}

	for _, m := range members {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}

	return MemberInfo{}, false
}

// MemberInfo describes a struct member.
type MemberInfo struct {
	Name     string       // Member name, without Get/Set prefix
	Type     reflect.Type // Member value type
	Access   AccessKind   // How the member is accessed
	Index    []int        // Field index path for AccessField
	Method   int          // Method index on the pointer type for getters and setters
	Embedded bool         // Whether the field is promoted from an embedded struct
	Tag      Tag          // Parsed `map` tag
	Owner    reflect.Type // Struct type declaring the member
}

// Tag holds the options of a `map:"..."` struct tag.
//
//	map:"-"                   skip the member
//	map:"required"            the member must be resolved
//	map:"name=Alt;Other"      alternate names used when matching
type Tag struct {
	Skip     bool
	Required bool
	Aliases  []string
}

// ParseTag parses the `map` struct tag.
func ParseTag(tag reflect.StructTag) Tag {
	raw, ok := tag.Lookup("map")
	if !ok {
		return Tag{}
	}

	if raw == "-" {
		return Tag{Skip: true}
	}

	var t Tag
	for part := range strings.SplitSeq(raw, ",") {
		part = strings.TrimSpace(part)

		switch {
		case part == "required":
			t.Required = true
		case strings.HasPrefix(part, "name="):
			for alias := range strings.SplitSeq(strings.TrimPrefix(part, "name="), ";") {
				if alias != "" {
					t.Aliases = append(t.Aliases, alias)
				}
			}
		}
	}

	return t
}

// Get reads the member from a struct value.
func (m MemberInfo) Get(v reflect.Value) reflect.Value {
	if m.Access == AccessField {
		return v.FieldByIndex(m.Index)
	}

	return addressOf(v).Method(m.Method).Call(nil)[0]
}

// Set writes the member on an addressable struct value.
func (m MemberInfo) Set(v, value reflect.Value) {
	if m.Access == AccessField {
		v.FieldByIndex(m.Index).Set(value)
		return
	}

	v.Addr().Method(m.Method).Call([]reflect.Value{value})
}

// CanRead reports whether the current value of a writable member can be observed.
func (m MemberInfo) CanRead() bool {
	return m.Access != AccessSetter
}

func addressOf(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v.Addr()
	}

	ptr := reflect.New(v.Type())
	ptr.Elem().Set(v)

	return ptr
}

func kindOf(t reflect.Type) TypeKind {
	if primitive.IsSimple(t) {
		return TypeKindBasic
	}

	switch t.Kind() {
	case reflect.Pointer:
		return TypeKindPointer
	case reflect.Slice:
		return TypeKindSlice
	case reflect.Array:
		return TypeKindArray
	case reflect.Map:
		return TypeKindMap
	case reflect.Interface:
		return TypeKindInterface
	case reflect.Struct:
		return TypeKindStruct
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return TypeKindUnsupported
	default:
		return TypeKindUnknown
	}
}
