package compile

import (
	"fmt"
	"reflect"

	"struct-mapper/internal/common"
	"struct-mapper/internal/plan"
	"struct-mapper/internal/resolve"
	"struct-mapper/internal/rules"
	"struct-mapper/node"
)

// memberFn populates one member of the frame's target.
type memberFn func(f *frame) error

// readFn reads a data source value. It reports false when the source does
// not provide a value.
type readFn func(f *frame) (reflect.Value, bool, error)

type binding struct {
	read  readFn
	value valueFn // nil assigns the zero value
}

// object creates the target, registers it, runs callbacks and populates its
// members in declaration order.
func (c *compiler) object(n *plan.Object) (valueFn, error) {
	members := make([]memberFn, 0, len(n.Members))

	for _, a := range n.Members {
		if a.IsIgnored() {
			continue
		}

		fn, err := c.assign(a)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.Path, err)
		}

		members = append(members, fn)
	}

	return func(f *frame, src, existing reflect.Value) (reflect.Value, error) {
		child := &frame{parent: f, call: f.call, source: src, index: f.index}

		switch {
		case n.Shared:
			child.dict, child.indexes = f.dict, f.indexes
		case n.Dictionary:
			child.dict = newDictionary(src)
		}

		target, err := c.create(child, n, existing)
		if err != nil {
			return reflect.Value{}, err
		}

		child.target = target

		if f.register != nil {
			f.register(target)
		}

		if err := c.callbacks(child, n.Before); err != nil {
			return reflect.Value{}, err
		}

		for _, populate := range members {
			if err := populate(child); err != nil {
				return reflect.Value{}, err
			}
		}

		if err := c.callbacks(child, n.After); err != nil {
			return reflect.Value{}, err
		}

		return target, nil
	}, nil
}

// create returns the addressable target: the existing one, one built by the
// first applicable factory, or a new zero value.
func (c *compiler) create(f *frame, n *plan.Object, existing reflect.Value) (reflect.Value, error) {
	if existing.IsValid() && (len(n.Factories) == 0 || !existing.IsZero()) {
		if existing.CanAddr() {
			return existing, nil
		}

		v := reflect.New(n.Target).Elem()
		v.Set(existing)

		return v, nil
	}

	args := f.args("", c.ruleSet.Name)

	for _, r := range n.Factories {
		if r.Condition != nil && !r.Condition(args) {
			continue
		}

		result, err := r.Factory(args)
		if err != nil {
			return reflect.Value{}, err
		}

		v := reflect.ValueOf(result)

		switch {
		case v.IsValid() && v.Type() == n.Target:
			target := reflect.New(n.Target).Elem()
			target.Set(v)
			return target, nil
		case v.IsValid() && v.Type() == reflect.PointerTo(n.Target) && !v.IsNil():
			return v.Elem(), nil
		default:
			return reflect.Value{}, fmt.Errorf("%w: %T for %s", ErrFactoryResult, result, common.TypeName(n.Target))
		}
	}

	return reflect.New(n.Target).Elem(), nil
}

func (c *compiler) callbacks(f *frame, callbacks []*rules.Rule) error {
	for _, r := range callbacks {
		args := f.args("", c.ruleSet.Name)
		if r.Condition != nil && !r.Condition(args) {
			continue
		}

		if err := r.Callback(args); err != nil {
			return err
		}
	}

	return nil
}

// assign populates a member from the first binding that provides a value.
func (c *compiler) assign(a *plan.Assign) (memberFn, error) {
	bindings := make([]binding, 0, len(a.Bindings))

	for _, b := range a.Bindings {
		var value valueFn

		if b.Value != nil {
			fn, err := c.node(b.Value)
			if err != nil {
				return nil, err
			}

			value = fn
		}

		bindings = append(bindings, binding{read: c.reader(a, b.Source), value: value})
	}

	w := a.Member
	keepSet := a.Simple && c.ruleSet.Assign == rules.AssignIfUnset

	populate := func(f *frame) error {
		var existing reflect.Value
		if w.CanRead() {
			existing = w.Get(f.target)
		}

		if keepSet && existing.IsValid() && !existing.IsZero() {
			return nil
		}

		for _, b := range bindings {
			raw, found, err := b.read(f)
			if err != nil {
				return err
			}

			if !found {
				continue
			}

			switch {
			case b.value == nil:
				w.Set(f.target, reflect.Zero(w.Type))
			case isNil(raw):
				if c.ruleSet.ClearOnNil {
					w.Set(f.target, reflect.Zero(w.Type))
				}
			default:
				out, err := b.value(f, raw, existing)
				if err != nil {
					return err
				}

				w.Set(f.target, out)
			}

			return nil
		}

		if a.Fallback.Create && isNil(existing) {
			w.Set(f.target, empty(w.Type))
		}

		return nil
	}

	return func(f *frame) error {
		err := protect(func() error { return populate(f) })
		if err == nil {
			return nil
		}

		if len(a.Handlers) > 0 {
			sub, herr := c.handle(f, a.Handlers, a.Path, w.Type, err)
			if herr == nil {
				if sub.IsValid() {
					w.Set(f.target, sub)
				}

				return nil
			}

			err = herr
		}

		return at(w.Name, err)
	}, nil
}

// reader returns the function reading a data source, guarded by the
// condition of its rule.
func (c *compiler) reader(a *plan.Assign, ds resolve.DataSource) readFn {
	read := c.read(a, ds)

	r := ds.Rule
	if r == nil || r.Condition == nil {
		return read
	}

	return func(f *frame) (reflect.Value, bool, error) {
		if !r.Condition(c.ruleArgs(f, ds, a.Path)) {
			return reflect.Value{}, false, nil
		}

		return read(f)
	}
}

func (c *compiler) read(a *plan.Assign, ds resolve.DataSource) readFn {
	switch {
	case ds.Kind == resolve.KindConstant:
		v := reflect.ValueOf(ds.Rule.Value.Constant)

		return func(*frame) (reflect.Value, bool, error) { return v, true, nil }

	case ds.Elements:
		return func(f *frame) (reflect.Value, bool, error) {
			g := f.up(ds.Frame)
			return g.source, g.dict.count(ds.Keys, g.indexes) > 0, nil
		}

	case ds.Nested && len(ds.Keys) > 0:
		return func(f *frame) (reflect.Value, bool, error) {
			g := f.up(ds.Frame)
			return g.source, g.dict.hasPrefix(ds.Keys, g.indexes), nil
		}

	case ds.Nested:
		return func(f *frame) (reflect.Value, bool, error) {
			return f.up(ds.Frame).source, true, nil
		}

	case len(ds.Keys) > 0:
		return func(f *frame) (reflect.Value, bool, error) {
			g := f.up(ds.Frame)
			v, ok := g.dict.lookup(ds.Keys, g.indexes)
			return v, ok, nil
		}

	case len(ds.Readers) > 0:
		readers := ds.Readers

		return func(f *frame) (reflect.Value, bool, error) {
			v := f.up(ds.Frame).source
			for _, r := range readers {
				if v = deref(v); !v.IsValid() {
					return reflect.Value{}, true, nil
				}

				v = r.Get(v)
			}

			return v, true, nil
		}

	case ds.Kind == resolve.KindConfiguredExpression:
		caster := ds.Rule.Value.Caster()

		return func(f *frame) (reflect.Value, bool, error) {
			return caster.Invoke(f.up(ds.Frame).source)
		}

	case ds.Kind == resolve.KindConfiguredFunction:
		fn := ds.Rule.Value.Function

		return func(f *frame) (reflect.Value, bool, error) {
			result, err := fn(c.ruleArgs(f, ds, a.Path))
			if err != nil {
				return reflect.Value{}, false, err
			}

			return reflect.ValueOf(result), true, nil
		}

	default:
		return func(*frame) (reflect.Value, bool, error) { return reflect.Value{}, false, nil }
	}
}

// ruleArgs builds the arguments of a configured function: the source object
// of the frame the rule was configured on and the target being populated.
func (c *compiler) ruleArgs(f *frame, ds resolve.DataSource, path string) rules.Args {
	args := f.args(path, c.ruleSet.Name)
	args.Source = iface(f.up(ds.Frame).source)

	return args
}

// empty returns an empty collection of the member type.
func empty(t reflect.Type) reflect.Value {
	depth, base := node.PtrDepthAndBase(t)

	var v reflect.Value

	switch base.Kind() {
	case reflect.Slice:
		v = reflect.MakeSlice(base, 0, 0)
	case reflect.Map:
		v = reflect.MakeMap(base)
	default:
		v = reflect.New(base).Elem()
	}

	return pointTo(v, depth, false)
}

func deref(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}

		v = v.Elem()
	}

	return v
}
