package compile

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/google/uuid"

	"struct-mapper/internal/common"
	"struct-mapper/internal/plan"
	"struct-mapper/internal/recursion"
	"struct-mapper/internal/rules"
)

// Mapper is the executable mapping of a type pair under a rule set.
// A Mapper is immutable and safe for concurrent use.
type Mapper struct {
	key     plan.Key
	ruleSet rules.RuleSet
	root    *procedure
	logger  *slog.Logger
}

// Key returns the type pair and rule set the mapper was compiled for.
func (m *Mapper) Key() plan.Key { return m.key }

// Map maps src into a target value. existing is the target to populate; it
// is ignored by rule sets creating a new root.
func (m *Mapper) Map(ctx context.Context, src, existing reflect.Value) (reflect.Value, error) {
	switch {
	case !src.IsValid():
		src = reflect.Zero(m.key.Source)
	case src.Type() != m.key.Source:
		return reflect.Value{}, m.fail("", "", fmt.Errorf("%w: got %s", ErrSourceMismatch, common.TypeName(src.Type())))
	}

	if m.ruleSet.CreateRoot {
		existing = reflect.Value{}
	}

	c := &call{ctx: ctx, registry: recursion.NewRegistry(), logger: m.logger}

	debug := m.logger.Enabled(ctx, slog.LevelDebug)
	if debug {
		c.id = uuid.NewString()
	}

	start := time.Now()
	out, err := m.run(c, src, existing)

	if debug {
		m.logger.DebugContext(ctx, "mapped",
			slog.String("call_id", c.id),
			slog.String("key", m.key.String()),
			slog.Int("objects", c.registry.Len()),
			slog.Duration("duration", time.Since(start)),
			slog.Bool("failed", err != nil),
		)
	}

	if err != nil {
		path, cause := split(err)
		return reflect.Value{}, m.fail(path, c.id, cause)
	}

	return out, nil
}

// run executes the mapper within an ongoing root call, sharing its identity registry.
func (m *Mapper) run(c *call, src, existing reflect.Value) (reflect.Value, error) {
	return m.root.fn(rootFrame(c), src, existing)
}

func (m *Mapper) fail(path, callID string, err error) *MappingError {
	return &MappingError{
		Path:    path,
		Source:  m.key.Source,
		Target:  m.key.Target,
		RuleSet: m.key.RuleSet,
		CallID:  callID,
		Err:     err,
	}
}
