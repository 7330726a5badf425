package plan

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"

	"struct-mapper/internal/analyze"
	"struct-mapper/internal/common"
	"struct-mapper/internal/diagnostic"
	"struct-mapper/internal/match"
	"struct-mapper/internal/member"
	"struct-mapper/internal/recursion"
	"struct-mapper/internal/resolve"
	"struct-mapper/internal/rules"
	"struct-mapper/node"
	"struct-mapper/primitive"
)

var (
	ErrUnknownRuleSet = errors.New("unknown rule set")
	ErrUnconvertible  = errors.New("no mapping between types")
)

// maxSharedDepth bounds how deep nested objects are read from one source object.
const maxSharedDepth = 4

// Builder builds mapping plans from configured rules and type metadata.
// A Builder is safe for concurrent use as long as the rule store is not
// modified while plans are built.
type Builder struct {
	engine      *resolve.Engine
	store       *rules.Store
	types       *analyze.Analyzer
	cycles      *recursion.Analyzer
	conversions *primitive.Conversions
}

// NewBuilder creates a Builder. In strict mode every writable target member
// must be resolved.
func NewBuilder(store *rules.Store, types *analyze.Analyzer, conversions *primitive.Conversions, strict bool) *Builder {
	return &Builder{
		engine:      resolve.NewEngine(store, types, conversions.Allowed(), strict),
		store:       store,
		types:       types,
		cycles:      recursion.NewAnalyzer(types),
		conversions: conversions,
	}
}

// Engine returns the member resolution engine of the builder.
func (b *Builder) Engine() *resolve.Engine { return b.engine }

// build is the state of a single Build call.
type build struct {
	*Builder

	key     Key
	ruleSet rules.RuleSet
	procs   map[Key]*Procedure
	order   []*Procedure
	dealer  node.Dealer
	names   *node.Stem
	diags   diagnostic.Diagnostics
}

// Build creates the plan of a key. Members that cannot be resolved are
// reported together in the returned error.
func (b *Builder) Build(key Key) (*Plan, error) {
	ruleSet, ok := rules.RuleSetByName(key.RuleSet)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRuleSet, key.RuleSet)
	}

	st := &build{
		Builder: b,
		key:     key,
		ruleSet: ruleSet,
		procs:   make(map[Key]*Procedure),
		names:   node.NewStem("map", nil),
	}

	root := &Procedure{Name: st.names.Next(), Key: key}
	st.order = append(st.order, root)

	var errs *multierror.Error

	body, err := st.value(nil, key.Source, key.Target, member.Root(key.Target))
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	root.Body = &Try{Body: body}

	for src, dst, ok := st.dealer.NextNeeds(); ok; src, dst, ok = st.dealer.NextNeeds() {
		proc := st.procs[NewKey(src, dst, key.RuleSet)]

		body, err := st.object(resolve.Frame{Source: src, Target: dst, Path: member.Root(dst)})
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		proc.Body = &Try{Body: body}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	return &Plan{Key: key, Root: root, Procedures: st.order, Diagnostics: st.diags}, nil
}

// value returns the node mapping a src value into a dst value.
func (st *build) value(parent *resolve.Frame, src, dst reflect.Type, path *member.Qualified) (Node, error) {
	if src == nil {
		return nil, nil
	}

	srcDepth, srcBase := node.PtrDepthAndBase(src)
	dstDepth, dstBase := node.PtrDepthAndBase(dst)

	if dstDepth == 0 && dst.Kind() == reflect.Interface {
		return &Dispatch{Source: src, Target: dst, Cases: st.derived(srcBase, dst)}, nil
	}

	if srcDepth > 0 || dstDepth > 0 {
		elem, err := st.value(parent, srcBase, dstBase, path)
		if err != nil {
			return nil, err
		}

		return &Indirect{Source: src, Target: dst, Elem: elem, Identity: srcDepth > 0 && isObject(elem)}, nil
	}

	switch node.Dispatch(src, dst) {
	case node.DispatcherPrimitive:
		return st.convert(src, dst)

	case node.DispatcherStruct, node.DispatcherDictionary:
		if st.cycles.ParticipatesInCycle(dst) {
			return st.call(src, dst), nil
		}

		frame := resolve.Frame{Source: src, Target: dst, Path: path}
		if parent != nil {
			frame = *parent.Child(src, dst, path)
		}

		return st.object(frame)

	case node.DispatcherSlice:
		elem, err := st.value(parent, src.Elem(), dst.Elem(), path.Element())
		if err != nil {
			return nil, err
		}

		return &Iterate{Source: src, Target: dst, Elem: elem}, nil

	case node.DispatcherMap:
		key, err := st.value(parent, src.Key(), dst.Key(), path)
		if err != nil {
			return nil, err
		}

		elem, err := st.value(parent, src.Elem(), dst.Elem(), path.Entry())
		if err != nil {
			return nil, err
		}

		return &Entries{Source: src, Target: dst, Key: key, Elem: elem}, nil

	case node.DispatcherRuntime:
		return &Runtime{Source: src, Target: dst}, nil
	}

	fn, err := st.conversions.Lookup(src, dst)
	if err != nil {
		return nil, fmt.Errorf("%w: %s to %s", ErrUnconvertible, common.TypeName(src), common.TypeName(dst))
	}

	return &Convert{Source: src, Target: dst, Fn: fn}, nil
}

func (st *build) convert(src, dst reflect.Type) (Node, error) {
	fn, err := st.conversions.Lookup(src, dst)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnconvertible, err)
	}

	category := primitive.Category(primitive.FromReflectType(src), primitive.FromReflectType(dst))

	return &Convert{Source: src, Target: dst, Fn: fn, Lossy: category&primitive.CategoryUnsafeNumber != 0}, nil
}

func (st *build) derived(src, dst reflect.Type) []Derived {
	query := rules.Query{Source: src, Target: dst, RuleSet: st.key.RuleSet}

	var cases []Derived
	for _, m := range st.store.MatchesFor(rules.KindDerived, query) {
		cases = append(cases, Derived{Source: m.DerivedSource, Target: m.DerivedTarget})
	}

	return cases
}

// call returns a call of the procedure of a cyclic pair, queueing the
// procedure to be built when it is first referenced.
func (st *build) call(src, dst reflect.Type) *Call {
	key := NewKey(src, dst, st.key.RuleSet)

	proc, ok := st.procs[key]
	if !ok {
		proc = &Procedure{Name: st.names.Next(), Key: key, Cyclic: true}
		st.procs[key] = proc
		st.order = append(st.order, proc)
		st.dealer.Needs(src, dst)

		st.diags.AddInfo(diagnostic.CodeCycle, "mapped by procedure "+proc.Name, key.Pair(), "")
	}

	return &Call{Procedure: proc}
}

// object builds the population of the frame's target object.
func (st *build) object(frame resolve.Frame) (Node, error) {
	query := rules.Query{Source: frame.Source, Target: frame.Target, RuleSet: st.key.RuleSet}

	obj := &Object{
		Source:     frame.Source,
		Target:     frame.Target,
		Path:       frame.Path.Path(),
		Shared:     frame.Shared,
		Dictionary: frame.IsDictionary(),
		Factories:  rulesOf(st.store.MatchesFor(rules.KindFactory, query)),
		Before:     rulesOf(st.store.MatchesFor(rules.KindBefore, query)),
		After:      rulesOf(st.store.MatchesFor(rules.KindAfter, query)),
	}

	var errs *multierror.Error

	for _, w := range st.types.Inspect(frame.Target).Writable {
		a, err := st.assign(&frame, w)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}

		obj.Members = append(obj.Members, a)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	if handlers := rulesOf(st.store.MatchesFor(rules.KindException, query)); len(handlers) > 0 {
		return &Try{Body: obj, Handlers: handlers}, nil
	}

	return obj, nil
}

func (st *build) assign(frame *resolve.Frame, w analyze.MemberInfo) (*Assign, error) {
	res, err := st.engine.Resolve(frame, w, st.ruleSet)
	if err != nil {
		return nil, err
	}

	pair := pairOf(frame)
	handlers := st.store.MatchesFor(rules.KindException, rules.Query{
		Source:  frame.Source,
		Target:  frame.Target,
		RuleSet: st.key.RuleSet,
		Member:  w.Name,
	})

	a := &Assign{
		Member:   w,
		Path:     res.Path.Path(),
		Fallback: res.Fallback,
		Handlers: rulesOf(handlers),
		Simple:   !isComplex(w.Type),
	}

	if res.IsIgnored() {
		st.diags.AddInfo(diagnostic.CodeIgnored, "ignored by "+res.Ignored.String(), pair, a.Path)
		return a, nil
	}

	for _, ds := range res.Candidates {
		b, ok, err := st.bind(frame, res, ds)

		switch {
		case err != nil && ds.IsConfigured():
			return nil, fmt.Errorf("%w: %s: %w", resolve.ErrUnmappableMember, res.Path, err)
		case err != nil:
			st.diags.AddWarning(diagnostic.CodeUnconvertible, err.Error(), pair, a.Path)
		case ok:
			a.Bindings = append(a.Bindings, b)
		}
	}

	if len(a.Bindings) > 0 {
		return a, nil
	}

	suggestions := st.engine.Suggest(frame, w)

	if res.Required {
		err := fmt.Errorf("%w: %s has no source on %s", resolve.ErrUnmappableMember, res.Path, common.TypeName(frame.Source))
		if len(suggestions) > 0 {
			err = fmt.Errorf("%w (did you mean %s?)", err, strings.Join(suggestions, ", "))
		}

		return nil, err
	}

	st.diags.AddWarning(diagnostic.CodeUnmapped, "no source for "+w.Name, pair, a.Path, suggestions...)

	return a, nil
}

// bind builds the node converting a data source value into the member type.
// It reports false for a nested source that provides no member.
func (st *build) bind(frame *resolve.Frame, res resolve.Resolution, ds resolve.DataSource) (Binding, bool, error) {
	switch {
	case ds.Nested:
		return st.nested(frame, res, ds)
	case ds.Elements:
		return st.elements(frame, res, ds)
	}

	value, err := st.value(frame, ds.Type, res.Member.Type, res.Path)
	if err != nil {
		return Binding{}, false, err
	}

	if c, ok := convertOf(value); ok && c.Lossy {
		st.diags.AddWarning(diagnostic.CodeLossy,
			fmt.Sprintf("%s to %s may lose precision", c.Source, c.Target), pairOf(frame), res.Path.Path())
	}

	return Binding{Source: ds, Value: value}, true, nil
}

// nested binds a complex member populated from the frame's own source object.
func (st *build) nested(frame *resolve.Frame, res resolve.Resolution, ds resolve.DataSource) (Binding, bool, error) {
	w := res.Member
	_, target := node.PtrDepthAndBase(w.Type)

	if len(frame.Prefix) >= maxSharedDepth || st.cycles.ParticipatesInCycle(target) {
		return Binding{}, false, nil
	}

	child := frame.SharedChild(target, res.Path, st.engine.AlternateNames(w))

	obj, ok := st.speculate(*child)
	if !ok {
		return Binding{}, false, nil
	}

	return Binding{Source: ds, Value: st.wrap(frame.Source, w.Type, target, obj)}, true, nil
}

// elements binds an enumerable member read from indexed keys of a dictionary.
func (st *build) elements(frame *resolve.Frame, res resolve.Resolution, ds resolve.DataSource) (Binding, bool, error) {
	w := res.Member
	_, coll := node.PtrDepthAndBase(w.Type)
	elemType := coll.Elem()
	_, elemBase := node.PtrDepthAndBase(elemType)
	path := res.Path.Element()

	var elem Node

	if elemBase.Kind() == reflect.Struct && !primitive.IsSimple(elemBase) {
		if len(frame.Prefix) >= maxSharedDepth || st.cycles.ParticipatesInCycle(elemBase) {
			return Binding{}, false, nil
		}

		child := frame.SharedChild(elemBase, path, st.engine.AlternateNames(w), []string{match.ElementPlaceholder})

		obj, ok := st.speculate(*child)
		if !ok {
			return Binding{}, false, nil
		}

		elem = st.wrap(frame.Source, elemType, elemBase, obj)
	} else {
		value, err := st.value(frame, frame.Source.Elem(), elemType, path)
		if err != nil {
			return Binding{}, false, err
		}

		elem = &Lookup{Source: frame.Source, Target: elemType, Keys: ds.Keys, Value: value}
	}

	iterate := &Iterate{Source: frame.Source, Target: coll, Elem: elem, Dictionary: true, Keys: ds.Keys}

	return Binding{Source: ds, Value: st.wrap(frame.Source, w.Type, coll, iterate)}, true, nil
}

// speculate builds a shared object and keeps it only when it resolves at
// least one member. Diagnostics of discarded objects are dropped.
func (st *build) speculate(frame resolve.Frame) (Node, bool) {
	saved := st.diags

	obj, err := st.object(frame)
	if err != nil || !resolved(obj) {
		st.diags = saved
		return nil, false
	}

	return obj, true
}

func (st *build) wrap(src, dst, base reflect.Type, n Node) Node {
	if dst == base {
		return n
	}

	return &Indirect{Source: src, Target: dst, Elem: n}
}

func rulesOf(matches []rules.Match) []*rules.Rule {
	if len(matches) == 0 {
		return nil
	}

	out := make([]*rules.Rule, len(matches))
	for i, m := range matches {
		out[i] = m.Rule
	}

	return out
}

func pairOf(frame *resolve.Frame) string {
	return common.TypeName(frame.Source) + " -> " + common.TypeName(frame.Target)
}

func isObject(n Node) bool {
	switch n := n.(type) {
	case *Object, *Call:
		return true
	case *Try:
		return isObject(n.Body)
	default:
		return false
	}
}

func resolved(n Node) bool {
	switch n := n.(type) {
	case *Object:
		return n.Resolved()
	case *Try:
		return resolved(n.Body)
	default:
		return false
	}
}

func convertOf(n Node) (*Convert, bool) {
	for {
		switch v := n.(type) {
		case *Convert:
			return v, true
		case *Indirect:
			n = v.Elem
		default:
			return nil, false
		}
	}
}

func isComplex(t reflect.Type) bool {
	_, base := node.PtrDepthAndBase(t)
	return slices.Contains([]reflect.Kind{reflect.Struct, reflect.Slice, reflect.Array, reflect.Map}, base.Kind()) &&
		!primitive.IsSimple(base)
}
