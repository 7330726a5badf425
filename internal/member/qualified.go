// Package member models navigable paths into a type.
//
// A Qualified member is a persistent, parent-linked chain of segments from a
// root type to a nested member. Appending never modifies the receiver, so paths
// built for one member can be shared freely while building the next.
package member

import (
	"reflect"
	"strings"

	"struct-mapper/internal/analyze"
	"struct-mapper/primitive"
)

// Kind is the kind of a path segment.
type Kind int

const (
	KindRoot    Kind = iota // the mapped object itself
	KindMember              // field, getter or setter
	KindElement             // element of a slice or array
	KindEntry               // value of a map entry
)

// ElementName is how element segments are rendered in paths.
const ElementName = "[i]"

// Segment is one step of a qualified path.
type Segment struct {
	Name string
	Type reflect.Type
	Kind Kind
	Info analyze.MemberInfo // set for KindMember
}

// Qualified is an immutable path from a root type to a member.
type Qualified struct {
	parent  *Qualified
	segment Segment
	depth   int
}

// Root creates the root path of a type.
func Root(t reflect.Type) *Qualified {
	return &Qualified{segment: Segment{Name: t.String(), Type: t, Kind: KindRoot}}
}

// Append returns a new path extended by the member.
func (q *Qualified) Append(info analyze.MemberInfo) *Qualified {
	return q.push(Segment{Name: info.Name, Type: info.Type, Kind: KindMember, Info: info})
}

// Element returns a new path to the elements of the enumerable member.
func (q *Qualified) Element() *Qualified {
	return q.push(Segment{Name: ElementName, Type: elemOf(q.segment.Type), Kind: KindElement})
}

// Entry returns a new path to the values of the map member.
func (q *Qualified) Entry() *Qualified {
	return q.push(Segment{Name: ElementName, Type: elemOf(q.segment.Type), Kind: KindEntry})
}

func (q *Qualified) push(s Segment) *Qualified {
	return &Qualified{parent: q, segment: s, depth: q.depth + 1}
}

func elemOf(t reflect.Type) reflect.Type {
	return analyze.Base(t).Elem()
}

// Parent returns the path without its last segment, or nil for a root.
func (q *Qualified) Parent() *Qualified { return q.parent }

// Segment returns the last segment.
func (q *Qualified) Segment() Segment { return q.segment }

// Name returns the name of the last segment.
func (q *Qualified) Name() string { return q.segment.Name }

// Type returns the type of the last segment.
func (q *Qualified) Type() reflect.Type { return q.segment.Type }

// Depth returns the number of segments after the root.
func (q *Qualified) Depth() int { return q.depth }

// IsRoot reports whether the path has no segments after the root.
func (q *Qualified) IsRoot() bool { return q.parent == nil }

// IsEnumerable reports whether the member holds a slice or an array.
func (q *Qualified) IsEnumerable() bool {
	switch analyze.Base(q.segment.Type).Kind() {
	case reflect.Slice, reflect.Array:
		return true
	default:
		return false
	}
}

// IsSimple reports whether the member is a leaf scalar.
func (q *Qualified) IsSimple() bool {
	return primitive.IsSimple(analyze.Base(q.segment.Type))
}

// Segments returns the segments after the root, outermost first.
func (q *Qualified) Segments() []Segment {
	segments := make([]Segment, q.depth)
	for p := q; p.parent != nil; p = p.parent {
		segments[p.depth-1] = p.segment
	}

	return segments
}

// RelativeTo returns the segments below the ancestor path.
// It returns false if the ancestor is not a prefix of the path.
func (q *Qualified) RelativeTo(ancestor *Qualified) ([]Segment, bool) {
	var rel []Segment

	p := q
	for ; p != nil && p != ancestor; p = p.parent {
		rel = append(rel, p.segment)
	}

	if p == nil {
		return nil, false
	}

	for i, j := 0, len(rel)-1; i < j; i, j = i+1, j-1 {
		rel[i], rel[j] = rel[j], rel[i]
	}

	return rel, true
}

// Path returns the dotted path below the root, e.g. "Items[i].Name".
func (q *Qualified) Path() string {
	return Join(q.Segments())
}

// String renders the path including its root type, e.g. "store.Order.Items[i]".
func (q *Qualified) String() string {
	root := q
	for root.parent != nil {
		root = root.parent
	}

	if q.depth == 0 {
		return root.segment.Name
	}

	path := q.Path()
	if strings.HasPrefix(path, ElementName) {
		return root.segment.Name + path
	}

	return root.segment.Name + "." + path
}

// Join renders segments as a dotted path. Element segments attach to the
// preceding member without a dot.
func Join(segments []Segment) string {
	var sb strings.Builder
	for i, s := range segments {
		if i > 0 && s.Kind == KindMember {
			sb.WriteByte('.')
		}
		sb.WriteString(s.Name)
	}

	return sb.String()
}

// Names returns the names of the member segments, skipping elements.
func Names(segments []Segment) []string {
	names := make([]string, 0, len(segments))
	for _, s := range segments {
		if s.Kind == KindMember {
			names = append(names, s.Name)
		}
	}

	return names
}

// Matches reports whether the path below the root equals the dotted path,
// ignoring case. Element markers may be written as "[i]" or "[]".
func (q *Qualified) Matches(path string) bool {
	return strings.EqualFold(q.Path(), NormalizePath(path))
}

// NormalizePath rewrites "[]" element markers to the canonical form.
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, "[]", ElementName)
}
