package mapper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/hashicorp/go-multierror"

	"struct-mapper/internal/cache"
	"struct-mapper/internal/plan"
	"struct-mapper/internal/rules"
	"struct-mapper/options"
	"struct-mapper/primitive"
)

// ErrNilTarget is returned when an existing target to populate is nil.
var ErrNilTarget = errors.New("target is nil")

// Context holds configured rules and the mappers compiled from them.
type Context struct {
	store  *rules.Store
	cache  *cache.Cache
	logger *slog.Logger
}

// New creates an empty Context.
func New(opts ...options.Option) *Context {
	s := options.Apply(opts...)

	store := rules.NewStore()

	return &Context{
		store: store,
		cache: cache.New(store, cache.Config{
			Logger:      s.Logger,
			Registerer:  s.Registerer,
			Conversions: primitive.NewConversions(s.Conversions),
			Strict:      s.Strict,
		}),
		logger: s.Logger,
	}
}

// Add registers rules in order. A rule contradicting a registered one fails
// with ErrConfigurationConflict; the other rules are still registered.
// Mappers compiled before are dropped.
func (c *Context) Add(configure ...Rule) error {
	var result *multierror.Error

	for _, r := range configure {
		if err := c.store.Add(r); err != nil {
			result = multierror.Append(result, err)
			continue
		}

		c.logger.Debug("rule added", slog.String("rule", r.String()))
	}

	c.changed()

	return result.ErrorOrNil()
}

// changed drops mappers compiled from an older configuration.
func (c *Context) changed() {
	if c.cache.Len() > 0 {
		c.cache.Invalidate()
	}
}

// Alias lets members named name match members named by any alternate, and
// the other way around.
func (c *Context) Alias(name string, alternates ...string) {
	c.store.Naming().AddAlias(name, alternates...)
	c.changed()
}

// IgnorePrefixes lets members match with the prefixes removed, e.g. "str"
// for strName.
func (c *Context) IgnorePrefixes(prefixes ...string) {
	c.store.Naming().AddPrefixes(prefixes...)
	c.changed()
}

// IgnoreSuffixes lets members match with the suffixes removed.
func (c *Context) IgnoreSuffixes(suffixes ...string) {
	c.store.Naming().AddSuffixes(suffixes...)
	c.changed()
}

// Reset removes every rule and naming convention and drops compiled mappers.
func (c *Context) Reset() {
	c.store.Reset()
	c.logger.Info("configuration reset")
}

// LoadRules registers the naming conventions and rules of a YAML rule file.
// Type names in the file are resolved with types.
func (c *Context) LoadRules(path string, types TypeRegistry) error {
	f, err := rules.LoadFile(path)
	if err != nil {
		return err
	}

	defer c.changed()

	return f.Apply(c.store, types.Lookup)
}

// LoadRulesYAML is LoadRules for rule file contents.
func (c *Context) LoadRulesYAML(data []byte, types TypeRegistry) error {
	f, err := rules.Parse(data)
	if err != nil {
		return err
	}

	defer c.changed()

	return f.Apply(c.store, types.Lookup)
}

// Rules returns the registered rules in registration order.
func (c *Context) Rules() []*Rule {
	return c.store.Rules()
}

// MapValue maps src into a new value of the target type.
func (c *Context) MapValue(ctx context.Context, src any, target reflect.Type, ruleSet RuleSet) (any, error) {
	if src == nil {
		return reflect.Zero(target).Interface(), nil
	}

	out, err := c.run(ctx, reflect.ValueOf(src), target, ruleSet, reflect.Value{})
	if err != nil {
		return nil, err
	}

	return out.Interface(), nil
}

// MapInto populates the value target points to from src.
func (c *Context) MapInto(ctx context.Context, src, target any, ruleSet RuleSet) error {
	v := reflect.ValueOf(target)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Errorf("%w: %T", ErrNilTarget, target)
	}

	return c.into(ctx, src, v.Elem(), ruleSet)
}

func (c *Context) into(ctx context.Context, src any, existing reflect.Value, ruleSet RuleSet) error {
	if src == nil {
		return nil
	}

	out, err := c.run(ctx, reflect.ValueOf(src), existing.Type(), ruleSet, existing)
	if err != nil {
		return err
	}

	existing.Set(out)

	return nil
}

func (c *Context) run(ctx context.Context, src reflect.Value, target reflect.Type, ruleSet RuleSet, existing reflect.Value) (reflect.Value, error) {
	m, err := c.cache.GetOrCompile(plan.NewKey(src.Type(), target, ruleSet.Name))
	if err != nil {
		return reflect.Value{}, err
	}

	return m.Map(ctx, src, existing)
}

// Plan renders the mapping plan of a type pair.
func (c *Context) Plan(source, target reflect.Type, ruleSet RuleSet) (string, error) {
	p, err := c.cache.Plan(plan.NewKey(source, target, ruleSet.Name))
	if err != nil {
		return "", err
	}

	return plan.Describe(p), nil
}

// ExportRules renders the convention matches and ignored members of a type
// pair as a YAML rule file. Loading the file pins the current matches.
func (c *Context) ExportRules(source, target reflect.Type, ruleSet RuleSet) ([]byte, error) {
	p, err := c.cache.Plan(plan.NewKey(source, target, ruleSet.Name))
	if err != nil {
		return nil, err
	}

	return plan.ExportRulesYAML(p)
}

// Precompile compiles the mappers of the pairs ahead of the first mapping
// and reports every pair that cannot be mapped.
func (c *Context) Precompile(pairs ...Pair) error {
	return c.cache.Precompile(pairs...)
}

// Compiled returns the number of compiled mappers.
func (c *Context) Compiled() int {
	return c.cache.Len()
}

// Map maps src into a new T using the CreateNew rule set.
func Map[T any](c *Context, src any) (T, error) {
	return MapWith[T](context.Background(), c, src, CreateNew)
}

// MapWith maps src into a new T using a rule set.
func MapWith[T any](ctx context.Context, c *Context, src any, ruleSet RuleSet) (T, error) {
	var zero T

	if src == nil {
		return zero, nil
	}

	out, err := c.run(ctx, reflect.ValueOf(src), reflect.TypeFor[T](), ruleSet, reflect.Value{})
	if err != nil {
		return zero, err
	}

	// a nil interface result holds no T to assert
	if !out.IsValid() || (out.Kind() == reflect.Interface && out.IsNil()) {
		return zero, nil
	}

	return out.Interface().(T), nil
}

// MapOnTo fills the members of target that are still zero from src using
// the Merge rule set.
func MapOnTo[T any](c *Context, src any, target *T) error {
	if target == nil {
		return ErrNilTarget
	}

	return c.into(context.Background(), src, reflect.ValueOf(target).Elem(), Merge)
}

// MapOver replaces the members of target that src provides using the
// Overwrite rule set.
func MapOver[T any](c *Context, src any, target *T) error {
	if target == nil {
		return ErrNilTarget
	}

	return c.into(context.Background(), src, reflect.ValueOf(target).Elem(), Overwrite)
}
