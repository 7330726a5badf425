package resolve

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"struct-mapper/internal/analyze"
	"struct-mapper/internal/match"
	"struct-mapper/internal/member"
	"struct-mapper/internal/rules"
	"struct-mapper/primitive"
)

// ErrUnmappableMember is returned when a target member has no usable source.
var ErrUnmappableMember = errors.New("unmappable member")

const maxFlattenDepth = 4

var anyType = reflect.TypeFor[any]()

// Frame is one target object being populated while a plan is built.
type Frame struct {
	Parent *Frame
	// Source is the base type of the source object, a struct or a string keyed map.
	Source reflect.Type
	// Target is the base struct type being populated.
	Target reflect.Type
	// Path is the target path of the object from the root of its procedure.
	Path *member.Qualified
	// Shared marks a frame that reads from its parent's source object.
	Shared bool
	// Prefix holds the alternate names of every shared member between the
	// frame owning the source object and this frame.
	Prefix [][]string
}

// Child returns the frame of a nested object with its own source object.
func (f *Frame) Child(source, target reflect.Type, path *member.Qualified) *Frame {
	return &Frame{Parent: f, Source: source, Target: target, Path: path}
}

// SharedChild returns the frame of a nested object read from the frame's own
// source object under the given member names, one group of alternates per segment.
func (f *Frame) SharedChild(target reflect.Type, path *member.Qualified, names ...[]string) *Frame {
	prefix := slices.Clone(f.Prefix)

	return &Frame{
		Parent: f,
		Source: f.Source,
		Target: target,
		Path:   path,
		Shared: true,
		Prefix: append(prefix, names...),
	}
}

// IsDictionary reports whether the frame reads from a string keyed map.
func (f *Frame) IsDictionary() bool {
	return f.Source.Kind() == reflect.Map && f.Source.Key().Kind() == reflect.String
}

// Resolution lists where a target member may take its value from, in the
// order the sources are tried at run time.
type Resolution struct {
	Member analyze.MemberInfo
	Path   *member.Qualified
	// Ignored is the rule that excluded the member.
	Ignored    *rules.Rule
	Candidates []DataSource
	// Fallback applies when no candidate provides a value.
	Fallback DataSource
	// Required members must have at least one candidate.
	Required bool
}

// IsIgnored reports whether a rule excluded the member.
func (r Resolution) IsIgnored() bool { return r.Ignored != nil }

// Engine resolves target members against configured rules and conventions.
type Engine struct {
	store    *rules.Store
	analyzer *analyze.Analyzer
	allowed  primitive.CategoryEnum
	strict   bool
}

// NewEngine creates an Engine. In strict mode every writable member is required.
func NewEngine(store *rules.Store, analyzer *analyze.Analyzer, allowed primitive.CategoryEnum, strict bool) *Engine {
	return &Engine{store: store, analyzer: analyzer, allowed: allowed, strict: strict}
}

// Resolve returns the data sources of a member of the frame's target object.
//
// Sources are collected in priority order: an ignore rule, configured data
// sources of the frame and its ancestors (innermost first), dictionary keys,
// a convention match and finally the rule set fallback. Collection stops at
// the first source that always applies.
func (e *Engine) Resolve(frame *Frame, target analyze.MemberInfo, ruleSet rules.RuleSet) (Resolution, error) {
	path := frame.Path.Append(target)
	res := Resolution{
		Member:   target,
		Path:     path,
		Required: target.Tag.Required || e.strict,
		Fallback: DataSource{Kind: KindFallback, Create: ruleSet.CreateMissing && isCollection(target.Type), Type: target.Type},
	}

	for f, depth := frame, 0; f != nil; f, depth = f.Parent, depth+1 {
		query := rules.Query{Source: f.Source, Target: f.Target, RuleSet: ruleSet.Name, Member: relativePath(path, f)}
		if matches := e.store.MatchesFor(rules.KindIgnore, query); len(matches) > 0 {
			res.Ignored = matches[0].Rule
			res.Fallback = DataSource{Kind: KindIgnored, Rule: matches[0].Rule, Type: target.Type}

			return res, nil
		}
	}

	for f, depth := frame, 0; f != nil; f, depth = f.Parent, depth+1 {
		query := rules.Query{Source: f.Source, Target: f.Target, RuleSet: ruleSet.Name, Member: relativePath(path, f)}

		for _, m := range e.store.MatchesFor(rules.KindDataSource, query) {
			ds, err := e.configured(f, depth, m)
			if err != nil {
				return res, fmt.Errorf("%w: %s: %w", ErrUnmappableMember, path, err)
			}

			res.Candidates = append(res.Candidates, ds)
			if !ds.IsConditional() {
				return res, nil
			}
		}
	}

	names := e.AlternateNames(target)

	if frame.IsDictionary() {
		res.Candidates = append(res.Candidates, e.dictionary(frame, target, names)...)
		return res, nil
	}

	if ds, ok := e.convention(frame, target, names); ok {
		res.Candidates = append(res.Candidates, ds)
	} else if isComplex(target.Type) {
		res.Candidates = append(res.Candidates, DataSource{Kind: KindConventionMatch, Nested: true, Type: frame.Source})
	}

	return res, nil
}

// AlternateNames lists the names a target member may be matched under.
func (e *Engine) AlternateNames(target analyze.MemberInfo) []string {
	return e.store.Naming().AlternateNames(target.Name, target.Tag.Aliases...)
}

// Suggest returns source member names resembling an unmatched target member.
func (e *Engine) Suggest(frame *Frame, target analyze.MemberInfo) []string {
	if frame.IsDictionary() {
		return nil
	}

	info := e.analyzer.Inspect(frame.Source)

	return match.Suggest(target.Name, target.Type, readableSources(info), e.allowed)
}

func (e *Engine) configured(f *Frame, depth int, m rules.Match) (DataSource, error) {
	r := m.Rule
	ds := DataSource{Rule: r, Specificity: m.Specificity, Frame: depth}

	switch r.Value.Kind {
	case rules.ValueConstant:
		ds.Kind = KindConstant
		ds.Type = reflect.TypeOf(r.Value.Constant)

	case rules.ValueMember:
		ds.Kind = KindConfiguredMember

		if f.IsDictionary() {
			var segments [][]string
			for name := range strings.SplitSeq(member.NormalizePath(r.Value.Member), ".") {
				segments = append(segments, []string{name})
			}

			ds.Keys = foldAll(match.JoinedNames(append(slices.Clone(f.Prefix), segments...)))
			ds.Type = f.Source.Elem()

			return ds, nil
		}

		readers, err := e.ReaderChain(f.Source, r.Value.Member)
		if err != nil {
			return ds, err
		}

		ds.Readers = readers
		ds.Type = readers[len(readers)-1].Type

	case rules.ValueExpression:
		ds.Kind = KindConfiguredExpression
		ds.Type = r.Value.Caster().Dst

	case rules.ValueFunction:
		ds.Kind = KindConfiguredFunction
		ds.Type = anyType
	}

	return ds, nil
}

// ReaderChain resolves a dotted member path on a source type.
func (e *Engine) ReaderChain(source reflect.Type, path string) ([]analyze.MemberInfo, error) {
	var chain []analyze.MemberInfo

	current := source
	for name := range strings.SplitSeq(path, ".") {
		info := e.analyzer.Inspect(analyze.Base(current))

		reader, ok := info.Reader(name)
		if !ok {
			err := fmt.Errorf("source member %s not found on %s", name, analyze.Base(current))
			if suggestions := match.Suggest(name, nil, readableSources(info), e.allowed); len(suggestions) > 0 {
				err = fmt.Errorf("%w (did you mean %s?)", err, strings.Join(suggestions, ", "))
			}

			return nil, err
		}

		chain = append(chain, reader)
		current = reader.Type
	}

	return chain, nil
}

func (e *Engine) dictionary(frame *Frame, target analyze.MemberInfo, names []string) []DataSource {
	segments := append(slices.Clone(frame.Prefix), names)
	keys := foldAll(match.JoinedNames(segments))

	sources := []DataSource{{Kind: KindDictionaryKey, Keys: keys, Type: frame.Source.Elem()}}

	switch {
	case isComplex(target.Type):
		sources = append(sources, DataSource{Kind: KindDictionaryKey, Keys: keys, Nested: true, Type: frame.Source})

	case isEnumerable(target.Type):
		elements := foldAll(match.JoinedNames(append(segments, []string{match.ElementPlaceholder})))
		sources = append(sources, DataSource{Kind: KindDictionaryKey, Keys: elements, Elements: true, Type: frame.Source})
	}

	return sources
}

func (e *Engine) convention(frame *Frame, target analyze.MemberInfo, names []string) (DataSource, bool) {
	info := e.analyzer.Inspect(frame.Source)
	if info.Kind != analyze.TypeKindStruct {
		return DataSource{}, false
	}

	wanted := names
	if len(frame.Prefix) > 0 {
		wanted = flattenedOnly(match.JoinedNames(append(slices.Clone(frame.Prefix), names)))
	}

	naming := e.store.Naming()
	for _, name := range wanted {
		for _, r := range info.Readable {
			if naming.Match(r.Name, []string{name}) && e.compatible(r.Type, target.Type) {
				return DataSource{Kind: KindConventionMatch, Readers: []analyze.MemberInfo{r}, Type: r.Type}, true
			}
		}
	}

	for _, name := range wanted {
		chain := e.flattened(frame.Source, match.Normalize(name), 0)
		if len(chain) > 1 && e.compatible(chain[len(chain)-1].Type, target.Type) {
			return DataSource{Kind: KindConventionMatch, Readers: chain, Type: chain[len(chain)-1].Type}, true
		}
	}

	return DataSource{}, false
}

// flattened finds a chain of source members whose joined names equal the
// normalized target name, e.g. Customer.Name for CustomerName.
func (e *Engine) flattened(source reflect.Type, want string, depth int) []analyze.MemberInfo {
	if depth > maxFlattenDepth || want == "" {
		return nil
	}

	info := e.analyzer.Inspect(analyze.Base(source))
	if info.Kind != analyze.TypeKindStruct {
		return nil
	}

	for _, r := range info.Readable {
		name := match.Normalize(r.Name)

		switch {
		case name == want:
			return []analyze.MemberInfo{r}

		case strings.HasPrefix(want, name) && isComplex(r.Type):
			if rest := e.flattened(r.Type, want[len(name):], depth+1); rest != nil {
				return append([]analyze.MemberInfo{r}, rest...)
			}
		}
	}

	return nil
}

func (e *Engine) compatible(source, target reflect.Type) bool {
	return match.ScorePointerCompatibility(source, target, e.allowed).Compatibility != match.TypeIncompatible
}

func relativePath(path *member.Qualified, ancestor *Frame) string {
	segments, ok := path.RelativeTo(ancestor.Path)
	if !ok {
		return path.Path()
	}

	return member.Join(segments)
}

func readableSources(info *analyze.TypeInfo) []match.Source {
	sources := make([]match.Source, 0, len(info.Readable))
	for _, r := range info.Readable {
		sources = append(sources, match.Source{Name: r.Name, Type: r.Type})
	}

	return sources
}

func foldAll(names []string) []string {
	folded := make([]string, 0, len(names))
	for _, n := range names {
		if f := match.Fold(n); !slices.Contains(folded, f) {
			folded = append(folded, f)
		}
	}

	return folded
}

func flattenedOnly(names []string) []string {
	out := names[:0:0]
	for _, n := range names {
		if !strings.Contains(n, ".") {
			out = append(out, n)
		}
	}

	return out
}

func isComplex(t reflect.Type) bool {
	base := analyze.Base(t)
	return base.Kind() == reflect.Struct && !primitive.IsSimple(base)
}

func isEnumerable(t reflect.Type) bool {
	switch analyze.Base(t).Kind() {
	case reflect.Slice, reflect.Array:
		return true
	default:
		return false
	}
}

func isCollection(t reflect.Type) bool {
	return isEnumerable(t) || analyze.Base(t).Kind() == reflect.Map
}
