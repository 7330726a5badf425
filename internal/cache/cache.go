package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"

	"struct-mapper/internal/analyze"
	"struct-mapper/internal/compile"
	"struct-mapper/internal/plan"
	"struct-mapper/internal/rules"
	"struct-mapper/primitive"
)

// Config configures a Cache.
type Config struct {
	Logger      *slog.Logger
	Registerer  prometheus.Registerer // nil leaves the metrics unregistered
	Conversions *primitive.Conversions
	// Strict requires every writable target member to be resolved.
	Strict bool
}

// Cache holds the compiled mappers of a rule store.
type Cache struct {
	store       *rules.Store
	builder     *plan.Builder
	conversions *primitive.Conversions
	logger      *slog.Logger
	metrics     *metrics

	mappers sync.Map   // plan.Key -> *compile.Mapper
	mu      sync.Mutex // serializes compilation
}

// New creates a Cache compiling mappers from the rules of the store. The
// cache is invalidated whenever the store is reset.
func New(store *rules.Store, cfg Config) *Cache {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	if cfg.Conversions == nil {
		cfg.Conversions = primitive.NewConversions(primitive.CategoryDefault)
	}

	c := &Cache{
		store:       store,
		builder:     plan.NewBuilder(store, analyze.NewAnalyzer(), cfg.Conversions, cfg.Strict),
		conversions: cfg.Conversions,
		logger:      cfg.Logger,
		metrics:     newMetrics(cfg.Registerer),
	}

	store.OnReset(c.Invalidate)

	return c
}

// GetOrCompile returns the mapper of a key, compiling it on first use.
func (c *Cache) GetOrCompile(key plan.Key) (*compile.Mapper, error) {
	if m, ok := c.mappers.Load(key); ok {
		c.metrics.lookups.WithLabelValues(resultHit).Inc()
		return m.(*compile.Mapper), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.mappers.Load(key); ok {
		c.metrics.lookups.WithLabelValues(resultHit).Inc()
		return m.(*compile.Mapper), nil
	}

	c.metrics.lookups.WithLabelValues(resultMiss).Inc()

	generation := c.store.Generation()

	m, err := c.compile(key)
	if err != nil {
		return nil, err
	}

	// a reset while compiling leaves the mapper unpublished
	if c.store.Generation() == generation {
		c.mappers.Store(key, m)
		c.metrics.mappers.Inc()
	}

	return m, nil
}

// MapperFor implements compile.Resolver.
func (c *Cache) MapperFor(key plan.Key) (*compile.Mapper, error) {
	return c.GetOrCompile(key)
}

// Plan builds the plan of a key without compiling or caching it.
func (c *Cache) Plan(key plan.Key) (*plan.Plan, error) {
	return c.builder.Build(key)
}

// Precompile compiles the mappers of every key and reports all failures.
func (c *Cache) Precompile(keys ...plan.Key) error {
	var result *multierror.Error

	for _, key := range keys {
		if _, err := c.GetOrCompile(key); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

// Len returns the number of cached mappers.
func (c *Cache) Len() int {
	n := 0
	c.mappers.Range(func(any, any) bool {
		n++
		return true
	})

	return n
}

// Invalidate drops every cached mapper.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mappers.Clear()
	c.metrics.mappers.Set(0)

	c.logger.Info("mapper cache invalidated", slog.Uint64("generation", c.store.Generation()))
}

func (c *Cache) compile(key plan.Key) (*compile.Mapper, error) {
	start := time.Now()
	logger := c.logger.With(slog.String("key", key.String()))

	logger.Debug("compiling mapper")

	p, err := c.builder.Build(key)
	if err == nil {
		p.Diagnostics.Log(context.Background(), logger)
	}

	var m *compile.Mapper
	if err == nil {
		m, err = compile.Compile(p, c, c.conversions, c.logger)
	}

	elapsed := time.Since(start)
	c.metrics.compileTime.Observe(elapsed.Seconds())

	if err != nil {
		c.metrics.compilations.WithLabelValues(resultError).Inc()
		logger.Debug("mapper compilation failed", slog.Duration("duration", elapsed), slog.Any("error", err))

		return nil, fmt.Errorf("compile %s: %w", key, err)
	}

	c.metrics.compilations.WithLabelValues(resultOK).Inc()
	logger.Debug("mapper compiled",
		slog.Int("procedures", len(p.Procedures)),
		slog.Duration("duration", elapsed))

	return m, nil
}
