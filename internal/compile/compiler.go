package compile

import (
	"fmt"
	"log/slog"
	"reflect"
	"strconv"

	"struct-mapper/internal/common"
	"struct-mapper/internal/plan"
	"struct-mapper/internal/recursion"
	"struct-mapper/internal/rules"
	"struct-mapper/node"
	"struct-mapper/primitive"
)

// Resolver provides mappers for type pairs only known at run time.
type Resolver interface {
	MapperFor(key plan.Key) (*Mapper, error)
}

// valueFn maps a source value into a target value. existing is the current
// target value to populate in place, invalid when there is none.
type valueFn func(f *frame, src, existing reflect.Value) (reflect.Value, error)

type procedure struct {
	fn valueFn
}

type compiler struct {
	resolver    Resolver
	conversions *primitive.Conversions
	ruleSet     rules.RuleSet
	procs       map[*plan.Procedure]*procedure
}

// Compile turns a plan into a mapper. Type pairs met at run time through
// interface values are mapped by mappers obtained from the resolver.
func Compile(p *plan.Plan, resolver Resolver, conversions *primitive.Conversions, logger *slog.Logger) (*Mapper, error) {
	ruleSet, ok := rules.RuleSetByName(p.Key.RuleSet)
	if !ok {
		return nil, fmt.Errorf("%w: %s", plan.ErrUnknownRuleSet, p.Key.RuleSet)
	}

	c := &compiler{
		resolver:    resolver,
		conversions: conversions,
		ruleSet:     ruleSet,
		procs:       make(map[*plan.Procedure]*procedure, len(p.Procedures)),
	}

	for _, proc := range p.Procedures {
		c.procs[proc] = &procedure{}
	}

	for _, proc := range p.Procedures {
		fn, err := c.node(proc.Body)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", proc.Name, err)
		}

		c.procs[proc].fn = fn
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Mapper{key: p.Key, ruleSet: ruleSet, root: c.procs[p.Root], logger: logger}, nil
}

func (c *compiler) node(n plan.Node) (valueFn, error) {
	switch n := n.(type) {
	case *plan.Convert:
		return c.convert(n), nil
	case *plan.Indirect:
		return c.indirect(n)
	case *plan.Object:
		return c.object(n)
	case *plan.Call:
		return c.call(n), nil
	case *plan.Iterate:
		return c.iterate(n)
	case *plan.Entries:
		return c.entries(n)
	case *plan.Dispatch:
		return c.dispatch(n), nil
	case *plan.Runtime:
		return c.runtime(n), nil
	case *plan.Lookup:
		return c.lookup(n)
	case *plan.Try:
		return c.try(n)
	default:
		return nil, fmt.Errorf("unsupported plan node %T", n)
	}
}

func (c *compiler) convert(n *plan.Convert) valueFn {
	fn := n.Fn

	return func(_ *frame, src, _ reflect.Value) (reflect.Value, error) {
		return fn(unwrap(src))
	}
}

func (c *compiler) indirect(n *plan.Indirect) (valueFn, error) {
	elem, err := c.node(n.Elem)
	if err != nil {
		return nil, err
	}

	srcDepth, _ := node.PtrDepthAndBase(n.Source)
	dstDepth, dstBase := node.PtrDepthAndBase(n.Target)
	owned := ownsTarget(n.Elem)

	return func(f *frame, src, existing reflect.Value) (reflect.Value, error) {
		ptr := src
		for range srcDepth {
			if isNil(src) {
				return reflect.Zero(n.Target), nil
			}

			ptr, src = src, src.Elem()
		}

		current := existing
		for current.IsValid() && current.Kind() == reflect.Pointer {
			if current.IsNil() {
				current = reflect.Value{}
				break
			}

			current = current.Elem()
		}

		g := *f
		g.register = nil

		var entry *recursion.Entry

		if n.Identity {
			if key, ok := recursion.KeyOf(ptr, dstBase); ok {
				if e, seen := f.call.registry.Lookup(key); seen {
					return revisit(e, n.Target, dstDepth), nil
				}

				g.register = func(v reflect.Value) {
					if dstDepth > 0 {
						v = v.Addr()
					}

					entry = f.call.registry.Register(key, v)
				}
			}
		}

		out, err := elem(&g, src, current)
		if err != nil {
			return reflect.Value{}, err
		}

		if entry != nil {
			entry.Complete = true
		}

		return pointTo(out, dstDepth, owned), nil
	}, nil
}

// revisit returns the target already produced for a source object. A value
// target still being populated resolves to its zero value.
func revisit(e *recursion.Entry, target reflect.Type, depth int) reflect.Value {
	switch {
	case depth > 0:
		return pointTo(e.Value.Elem(), depth, true)
	case e.Complete:
		return e.Value
	default:
		return reflect.Zero(target)
	}
}

// pointTo wraps a value in depth pointers. Owned addressable values are
// pointed to directly, anything else is copied into a new allocation.
func pointTo(v reflect.Value, depth int, owned bool) reflect.Value {
	for i := range depth {
		if owned && i == 0 && v.CanAddr() {
			v = v.Addr()
			continue
		}

		p := reflect.New(v.Type())
		p.Elem().Set(v)
		v = p
	}

	return v
}

func (c *compiler) call(n *plan.Call) valueFn {
	proc := c.procs[n.Procedure]

	return func(f *frame, src, existing reflect.Value) (reflect.Value, error) {
		return proc.fn(f.procedure(), src, existing)
	}
}

func (c *compiler) iterate(n *plan.Iterate) (valueFn, error) {
	elem, err := c.node(n.Elem)
	if err != nil {
		return nil, err
	}

	return func(f *frame, src, existing reflect.Value) (reflect.Value, error) {
		var length int
		if n.Dictionary {
			length = f.dict.count(n.Keys, f.indexes)
		} else {
			length = src.Len()
		}

		out, reuse := collection(n.Target, existing, length)

		for i := range min(length, out.Len()) {
			item := src
			if !n.Dictionary {
				item = src.Index(i)
			}

			var current reflect.Value
			if i < reuse {
				current = out.Index(i)
			}

			v, err := elem(f.element(i, n.Dictionary), item, current)
			if err != nil {
				return reflect.Value{}, at("["+strconv.Itoa(i)+"]", err)
			}

			out.Index(i).Set(v)
		}

		return out, nil
	}, nil
}

// collection returns the enumerable elements are mapped into and how many of
// its leading elements come from the existing target.
func collection(t reflect.Type, existing reflect.Value, length int) (reflect.Value, int) {
	if t.Kind() == reflect.Array {
		out := reflect.New(t).Elem()
		if !existing.IsValid() {
			return out, 0
		}

		out.Set(existing)

		return out, out.Len()
	}

	out := reflect.MakeSlice(t, length, length)
	if isNil(existing) {
		return out, 0
	}

	return out, reflect.Copy(out, existing)
}

func (c *compiler) entries(n *plan.Entries) (valueFn, error) {
	key, err := c.node(n.Key)
	if err != nil {
		return nil, err
	}

	elem, err := c.node(n.Elem)
	if err != nil {
		return nil, err
	}

	merge := c.ruleSet.Assign == rules.AssignIfUnset

	return func(f *frame, src, existing reflect.Value) (reflect.Value, error) {
		out := reflect.MakeMapWithSize(n.Target, src.Len())

		if merge && !isNil(existing) {
			for iter := existing.MapRange(); iter.Next(); {
				out.SetMapIndex(iter.Key(), iter.Value())
			}
		}

		for iter := src.MapRange(); iter.Next(); {
			segment := fmt.Sprintf("[%v]", iter.Key())

			k, err := key(f, iter.Key(), reflect.Value{})
			if err != nil {
				return reflect.Value{}, at(segment, err)
			}

			var current reflect.Value
			if merge {
				current = out.MapIndex(k)
			}

			v, err := elem(f, iter.Value(), current)
			if err != nil {
				return reflect.Value{}, at(segment, err)
			}

			out.SetMapIndex(k, v)
		}

		return out, nil
	}, nil
}

// dispatch maps into an interface by the runtime type of the source.
func (c *compiler) dispatch(n *plan.Dispatch) valueFn {
	return func(f *frame, src, _ reflect.Value) (reflect.Value, error) {
		v := unwrap(src)
		if isNil(v) {
			return reflect.Zero(n.Target), nil
		}

		rt := v.Type()
		for _, d := range n.Cases {
			if rt != d.Source && (rt.Kind() != reflect.Pointer || rt.Elem() != d.Source) {
				continue
			}

			m, err := c.resolver.MapperFor(plan.NewKey(rt, d.Target, c.ruleSet.Name))
			if err != nil {
				return reflect.Value{}, err
			}

			out, err := m.run(f.call, v, reflect.Value{})
			if err != nil {
				return reflect.Value{}, err
			}

			if out, ok := coerce(out, n.Target); ok {
				return out, nil
			}

			return reflect.Value{}, fmt.Errorf("%w: %s does not implement %s",
				ErrUnresolvedType, common.TypeName(d.Target), common.TypeName(n.Target))
		}

		if rt.AssignableTo(n.Target) {
			return v, nil
		}

		return reflect.Value{}, fmt.Errorf("%w: %s into %s", ErrUnresolvedType, common.TypeName(rt), common.TypeName(n.Target))
	}
}

// runtime maps a source held in an interface by its runtime type.
func (c *compiler) runtime(n *plan.Runtime) valueFn {
	return func(f *frame, src, existing reflect.Value) (reflect.Value, error) {
		v := unwrap(src)
		if isNil(v) {
			return reflect.Zero(n.Target), nil
		}

		rt := v.Type()

		switch {
		case rt == n.Target:
			return v, nil

		case primitive.IsSimple(rt) && primitive.IsSimple(n.Target):
			fn, err := c.conversions.Lookup(rt, n.Target)
			if err != nil {
				return reflect.Value{}, err
			}

			return fn(v)
		}

		m, err := c.resolver.MapperFor(plan.NewKey(rt, n.Target, c.ruleSet.Name))
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %w", ErrUnresolvedType, err)
		}

		return m.run(f.call, v, existing)
	}
}

func (c *compiler) lookup(n *plan.Lookup) (valueFn, error) {
	value, err := c.node(n.Value)
	if err != nil {
		return nil, err
	}

	return func(f *frame, _, existing reflect.Value) (reflect.Value, error) {
		raw, ok := f.dict.lookup(n.Keys, f.indexes)
		if !ok || isNil(raw) {
			return reflect.Zero(n.Target), nil
		}

		return value(f, raw, existing)
	}, nil
}

// try recovers failures of its body and hands them to exception handlers.
func (c *compiler) try(n *plan.Try) (valueFn, error) {
	body, err := c.node(n.Body)
	if err != nil {
		return nil, err
	}

	_, target := n.Types()

	return func(f *frame, src, existing reflect.Value) (reflect.Value, error) {
		var out reflect.Value

		err := protect(func() (err error) {
			out, err = body(f, src, existing)
			return err
		})
		if err == nil || len(n.Handlers) == 0 {
			return out, err
		}

		g := *f
		g.source = src

		sub, err := c.handle(&g, n.Handlers, "", target, err)
		switch {
		case err != nil:
			return reflect.Value{}, err
		case !sub.IsValid():
			return reflect.Zero(target), nil
		default:
			return sub, nil
		}
	}, nil
}

// handle offers a failure to the first applicable exception handler. It
// returns an invalid value when the failure was swallowed.
func (c *compiler) handle(f *frame, handlers []*rules.Rule, path string, target reflect.Type, cause error) (reflect.Value, error) {
	args := f.args(path, c.ruleSet.Name)

	for _, h := range handlers {
		if h.Condition != nil && !h.Condition(args) {
			continue
		}

		sub, err := h.Handler(args, cause)
		if err != nil {
			return reflect.Value{}, err
		}

		if sub == nil {
			return reflect.Value{}, nil
		}

		v, ok := coerce(reflect.ValueOf(sub), target)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: %T for %s", ErrHandlerResult, sub, common.TypeName(target))
		}

		return v, nil
	}

	return reflect.Value{}, cause
}

func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	return fn()
}

// coerce adapts a value produced by user code to a target type.
func coerce(v reflect.Value, t reflect.Type) (reflect.Value, bool) {
	v = unwrap(v)

	switch {
	case !v.IsValid():
		return reflect.Zero(t), true
	case v.Type().AssignableTo(t):
		return v, true
	case t.Kind() == reflect.Pointer && v.Type().AssignableTo(t.Elem()):
		p := reflect.New(t.Elem())
		p.Elem().Set(v)
		return p, true
	case reflect.PointerTo(v.Type()).AssignableTo(t):
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		return p, true
	case v.Kind() == reflect.Pointer && !v.IsNil() && v.Type().Elem().AssignableTo(t):
		return v.Elem(), true
	case primitive.IsSimple(v.Type()) && primitive.IsSimple(t) && v.Type().ConvertibleTo(t):
		return v.Convert(t), true
	default:
		return reflect.Value{}, false
	}
}

func unwrap(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}

	return v
}

// ownsTarget reports whether a node produces targets it allocated itself.
func ownsTarget(n plan.Node) bool {
	switch n := n.(type) {
	case *plan.Object, *plan.Call:
		return true
	case *plan.Try:
		return ownsTarget(n.Body)
	default:
		return false
	}
}
