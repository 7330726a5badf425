package compile

import (
	"context"
	"log/slog"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"struct-mapper/internal/match"
	"struct-mapper/internal/recursion"
	"struct-mapper/internal/rules"
)

// call is the state of one root mapping call.
type call struct {
	ctx      context.Context
	id       string
	registry *recursion.Registry
	logger   *slog.Logger
}

// frame is one target object being populated.
type frame struct {
	parent *frame
	call   *call

	// source is the source object the frame's members are read from.
	source reflect.Value
	// target is the addressable target object being populated.
	target reflect.Value

	// dict indexes a dictionary source by case folded key.
	dict dictionary
	// index is the position inside the innermost enumerable, -1 outside one.
	index int
	// indexes are the positions of the enclosing dictionary element iterations.
	indexes []int

	// register is called with the target once it is created, before any
	// member is populated.
	register func(reflect.Value)
}

func rootFrame(c *call) *frame {
	return &frame{call: c, index: -1}
}

// up returns the frame n object frames above.
func (f *frame) up(n int) *frame {
	for ; n > 0 && f.parent != nil; n-- {
		f = f.parent
	}

	return f
}

// element returns the frame an enumerable element is mapped in.
func (f *frame) element(i int, dictionary bool) *frame {
	g := *f
	g.index = i
	g.register = nil

	if dictionary {
		g.indexes = append(slices.Clip(f.indexes), i)
	}

	return &g
}

// procedure returns the root frame of a called procedure.
func (f *frame) procedure() *frame {
	return &frame{call: f.call, index: f.index, register: f.register}
}

// args builds the arguments handed to configured functions.
func (f *frame) args(path, ruleSet string) rules.Args {
	a := rules.Args{
		Source:  iface(f.source),
		Index:   f.index,
		Path:    path,
		RuleSet: ruleSet,
	}

	if f.target.IsValid() && f.target.CanAddr() {
		a.Target = f.target.Addr().Interface()
	}

	return a
}

// dictionary maps case folded keys of a string keyed map to their values.
// Keys folding to the same value, such as "Name" and "name", resolve to the
// one lowest in byte order.
type dictionary map[string]reflect.Value

func newDictionary(m reflect.Value) dictionary {
	if !m.IsValid() || m.IsNil() {
		return dictionary{}
	}

	d := make(dictionary, m.Len())
	owners := make(map[string]string, m.Len())

	for iter := m.MapRange(); iter.Next(); {
		key := iter.Key().String()
		folded := match.Fold(key)

		if owner, ok := owners[folded]; ok && owner < key {
			continue
		}

		owners[folded] = key
		d[folded] = iter.Value()
	}

	return d
}

// lookup returns the value of the first key template present.
func (d dictionary) lookup(templates []string, indexes []int) (reflect.Value, bool) {
	for _, tmpl := range templates {
		if v, ok := d[substitute(tmpl, indexes)]; ok {
			return v, true
		}
	}

	return reflect.Value{}, false
}

// hasPrefix reports whether any key starts with one of the templates.
func (d dictionary) hasPrefix(templates []string, indexes []int) bool {
	for _, tmpl := range templates {
		prefix := substitute(tmpl, indexes)
		for key := range d {
			if strings.HasPrefix(key, prefix) {
				return true
			}
		}
	}

	return false
}

// count returns the number of elements stored under indexed keys, one past
// the highest index found. The last placeholder of each template is the
// element index being counted.
func (d dictionary) count(templates []string, indexes []int) int {
	n := 0

	for _, tmpl := range templates {
		head, ok := strings.CutSuffix(substitute(tmpl, indexes), match.ElementPlaceholder)
		if !ok {
			continue
		}

		for key := range d {
			rest, ok := strings.CutPrefix(key, head+"[")
			if !ok {
				continue
			}

			end := strings.IndexByte(rest, ']')
			if end <= 0 {
				continue
			}

			if i, err := strconv.Atoi(rest[:end]); err == nil && i >= 0 {
				n = max(n, i+1)
			}
		}
	}

	return n
}

// substitute fills element placeholders of a key template with indexes, outermost first.
func substitute(tmpl string, indexes []int) string {
	if len(indexes) == 0 || !strings.Contains(tmpl, match.ElementPlaceholder) {
		return tmpl
	}

	var sb strings.Builder
	for _, i := range indexes {
		before, after, ok := strings.Cut(tmpl, match.ElementPlaceholder)
		if !ok {
			break
		}

		sb.WriteString(before)
		sb.WriteString("[" + strconv.Itoa(i) + "]")
		tmpl = after
	}

	sb.WriteString(tmpl)

	return sb.String()
}

func iface(v reflect.Value) any {
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}

	return v.Interface()
}

// isNil reports whether a value carries no data: invalid values and nil
// pointers, interfaces, maps, slices and functions.
func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}
