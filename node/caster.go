package node

import (
	"errors"
	"fmt"
	"path"
	"reflect"
	"runtime"
	"strings"
)

var (
	ErrIsNotACaster         = errors.New("provided function is not a recognizable caster")
	ErrCasterIsNotAFunction = errors.New("provided caster is not a function")
	ErrDoublePointer        = errors.New("caster function does not support double pointers")
)

// Caster is a function converting one source value, as used by expression
// data sources.
type Caster struct {
	Src, Dst     reflect.Type
	PackageAlias string // last element of the package path, e.g. "strconv"
	Name         string
	HasBool      bool // a false result rejects the value
	HasErr       bool

	fn reflect.Value
}

// ParseCaster inspects fn and describes it when it has one of the forms
//
//	func(S) T
//	func(S) (T, bool)
//	func(S) (T, error)
//	func(S) (T, bool, error)
func ParseCaster(fn any) (Caster, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return Caster{}, ErrCasterIsNotAFunction
	}

	t := v.Type()
	if t.NumIn() != 1 || t.IsVariadic() {
		return Caster{}, ErrIsNotACaster
	}

	c := Caster{Src: t.In(0), fn: v}

	switch results := resultKinds(t); results {
	case "v":
	case "vb":
		c.HasBool = true
	case "ve":
		c.HasErr = true
	case "vbe":
		c.HasBool, c.HasErr = true, true
	default:
		return Caster{}, ErrIsNotACaster
	}

	c.Dst = t.Out(0)

	if isDoublePointer(c.Src) || isDoublePointer(c.Dst) {
		return Caster{}, ErrDoublePointer
	}

	c.PackageAlias, c.Name = funcName(v)

	return c, nil
}

// resultKinds spells the results of a function type, one letter each: b for
// bool, e for error and v for any other value.
func resultKinds(t reflect.Type) string {
	var sb strings.Builder

	for i := range t.NumOut() {
		switch out := t.Out(i); {
		case i == 0:
			sb.WriteByte('v')
		case out.Kind() == reflect.Bool:
			sb.WriteByte('b')
		case isError(out):
			sb.WriteByte('e')
		default:
			sb.WriteByte('v')
		}
	}

	return sb.String()
}

var errorType = reflect.TypeFor[error]()

func isError(t reflect.Type) bool { return t.Implements(errorType) }

func isDoublePointer(t reflect.Type) bool {
	return t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Pointer
}

// funcName splits the runtime name of a function, e.g.
// "struct-mapper/store.Total" into "store" and "Total".
func funcName(fn reflect.Value) (alias, name string) {
	f := runtime.FuncForPC(fn.Pointer())
	if f == nil {
		return "", ""
	}

	_, last := path.Split(f.Name())
	alias, name, _ = strings.Cut(last, ".")

	return alias, name
}

// Invoke calls the caster with a source value. The value is adapted to the
// parameter: pointers are taken or dereferenced as needed, and a nil source
// passed to a value parameter yields the parameter's zero value.
//
// It reports ok=false when a boolean result rejected the value.
func (c Caster) Invoke(src reflect.Value) (out reflect.Value, ok bool, err error) {
	if !c.fn.IsValid() {
		return reflect.Value{}, false, ErrCasterIsNotAFunction
	}

	arg, err := adapt(src, c.Src)
	if err != nil {
		return reflect.Value{}, false, err
	}

	results := c.fn.Call([]reflect.Value{arg})
	out, ok = results[0], true

	if c.HasBool {
		ok = results[1].Bool()
	}

	if c.HasErr {
		if e := results[len(results)-1]; !e.IsNil() {
			return out, false, e.Interface().(error)
		}
	}

	return out, ok, nil
}

// String renders the caster as "alias.Name".
func (c Caster) String() string {
	if c.Name == "" {
		return "func(" + c.Src.String() + ") " + c.Dst.String()
	}

	return c.PackageAlias + "." + c.Name
}

func adapt(v reflect.Value, to reflect.Type) (reflect.Value, error) {
	for v.IsValid() && v.Kind() == reflect.Interface {
		v = v.Elem()
	}

	switch {
	case !v.IsValid():
		return reflect.Zero(to), nil

	case v.Type().AssignableTo(to):
		return v, nil

	case v.Kind() == reflect.Pointer && v.Type().Elem().AssignableTo(to):
		if v.IsNil() {
			return reflect.Zero(to), nil
		}
		return v.Elem(), nil

	case to.Kind() == reflect.Pointer && v.Type().AssignableTo(to.Elem()):
		ptr := reflect.New(to.Elem())
		ptr.Elem().Set(v)
		return ptr, nil

	default:
		return reflect.Value{}, fmt.Errorf("%w: cannot pass %s as %s", ErrIsNotACaster, v.Type(), to)
	}
}
