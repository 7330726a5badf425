package compile

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"struct-mapper/internal/analyze"
	"struct-mapper/internal/plan"
	"struct-mapper/internal/rules"
	"struct-mapper/primitive"
)

type (
	customer struct {
		Name  string
		Email string
	}
	order struct {
		ID       int64
		Total    float64
		Customer customer
		Lines    []line
		Notes    string
	}
	line struct {
		SKU      string
		Quantity int
	}
	orderDTO struct {
		ID           string
		Total        float32
		CustomerName string
		Lines        []*lineDTO
		Notes        string
	}
	lineDTO struct {
		SKU      string
		Quantity int64
	}

	flatOrder struct {
		CustomerName  string
		CustomerEmail string
	}
	nestedOrder struct {
		Customer *customer
	}

	person struct {
		Name   string
		Friend *person
	}
	personDTO struct {
		Name   string
		Friend *personDTO
	}

	invoice struct {
		Billing  *customer
		Shipping *customer
	}
	invoiceDTO struct {
		Billing  *customer
		Shipping *customer
	}

	nickname struct {
		Nick   *string
		Scores map[string]int
	}

	profile struct {
		Name string
		Tags []string
		Home address
	}
	address struct {
		City string
	}

	textLine struct {
		SKU      string
		Quantity string
	}
	textOrder struct {
		Lines []textLine
	}
	lineOrder struct {
		Lines []lineDTO
	}
)

type (
	shape interface{ Area() float64 }
	circle struct{ R float64 }
	square struct{ Side float64 }
	triangle struct{ Base, Height float64 }

	shapeDTO  interface{ isShape() }
	circleDTO struct{ R float64 }
	squareDTO struct{ Side float64 }

	drawing struct {
		Shapes []shape
	}
	drawingDTO struct {
		Shapes []shapeDTO
	}
)

func (c circle) Area() float64   { return 3 * c.R * c.R }
func (s square) Area() float64   { return s.Side * s.Side }
func (t triangle) Area() float64 { return t.Base * t.Height / 2 }

func (circleDTO) isShape()  {}
func (*squareDTO) isShape() {}

// testResolver builds and compiles mappers on demand.
type testResolver struct {
	builder     *plan.Builder
	conversions *primitive.Conversions
	logger      *slog.Logger

	mu      sync.Mutex
	mappers map[plan.Key]*Mapper
}

func newResolver(t *testing.T, configure ...rules.Rule) *testResolver {
	t.Helper()

	store := rules.NewStore()
	for _, r := range configure {
		require.NoError(t, store.Add(r))
	}

	conversions := primitive.NewConversions(primitive.CategoryDefault)

	return &testResolver{
		builder:     plan.NewBuilder(store, analyze.NewAnalyzer(), conversions, false),
		conversions: conversions,
		mappers:     make(map[plan.Key]*Mapper),
	}
}

func (r *testResolver) MapperFor(key plan.Key) (*Mapper, error) {
	r.mu.Lock()
	m, ok := r.mappers[key]
	r.mu.Unlock()

	if ok {
		return m, nil
	}

	p, err := r.builder.Build(key)
	if err != nil {
		return nil, err
	}

	m, err = Compile(p, r, r.conversions, r.logger)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.mappers[key] = m
	r.mu.Unlock()

	return m, nil
}

// mapTo maps src into T. A non-nil existing target is populated in place.
func mapTo[T any](t *testing.T, r *testResolver, ruleSet rules.RuleSet, src any, existing *T) (T, error) {
	t.Helper()

	var zero T

	m, err := r.MapperFor(plan.NewKey(reflect.TypeOf(src), reflect.TypeFor[T](), ruleSet.Name))
	require.NoError(t, err)

	var current reflect.Value
	if existing != nil {
		current = reflect.ValueOf(existing).Elem()
	}

	out, err := m.Map(context.Background(), reflect.ValueOf(src), current)
	if err != nil {
		return zero, err
	}

	return out.Interface().(T), nil
}

func sampleOrder() order {
	return order{
		ID:       7,
		Total:    9.5,
		Customer: customer{Name: "Ann", Email: "ann@example.com"},
		Lines:    []line{{SKU: "a", Quantity: 2}, {SKU: "b", Quantity: 1}},
		Notes:    "leave at the door",
	}
}

func TestMapper_Map_Convention(t *testing.T) {
	t.Parallel()

	got, err := mapTo[orderDTO](t, newResolver(t), rules.CreateNew, sampleOrder(), nil)
	require.NoError(t, err)

	want := orderDTO{
		ID:           "7",
		Total:        9.5,
		CustomerName: "Ann",
		Lines:        []*lineDTO{{SKU: "a", Quantity: 2}, {SKU: "b", Quantity: 1}},
		Notes:        "leave at the door",
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mapped order mismatch (-want +got):\n%s", diff)
	}
}

func TestMapper_Map_Unflatten(t *testing.T) {
	t.Parallel()

	got, err := mapTo[nestedOrder](t, newResolver(t), rules.CreateNew,
		flatOrder{CustomerName: "Ann", CustomerEmail: "ann@example.com"}, nil)
	require.NoError(t, err)

	require.NotNil(t, got.Customer)
	assert.Equal(t, customer{Name: "Ann", Email: "ann@example.com"}, *got.Customer)
}

func TestMapper_Map_CycleKeepsIdentity(t *testing.T) {
	t.Parallel()

	a := &person{Name: "a"}
	b := &person{Name: "b", Friend: a}
	a.Friend = b

	got, err := mapTo[*personDTO](t, newResolver(t), rules.CreateNew, a, nil)
	require.NoError(t, err)

	require.NotNil(t, got.Friend)
	assert.Equal(t, "a", got.Name)
	assert.Equal(t, "b", got.Friend.Name)
	assert.Same(t, got, got.Friend.Friend)
}

func TestMapper_Map_SelfReference(t *testing.T) {
	t.Parallel()

	a := &person{Name: "narcissus"}
	a.Friend = a

	got, err := mapTo[*personDTO](t, newResolver(t), rules.CreateNew, a, nil)
	require.NoError(t, err)
	assert.Same(t, got, got.Friend)
}

func TestMapper_Map_SharedReference(t *testing.T) {
	t.Parallel()

	c := &customer{Name: "Ann"}

	got, err := mapTo[invoiceDTO](t, newResolver(t), rules.CreateNew, invoice{Billing: c, Shipping: c}, nil)
	require.NoError(t, err)

	require.NotNil(t, got.Billing)
	assert.NotSame(t, c, got.Billing, "targets are new objects")
	assert.Same(t, got.Billing, got.Shipping)
}

func TestMapper_Map_NilSource(t *testing.T) {
	t.Parallel()

	got, err := mapTo[*personDTO](t, newResolver(t), rules.CreateNew, (*person)(nil), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMapper_Map_Merge(t *testing.T) {
	t.Parallel()

	existingLine := &lineDTO{SKU: "old"}
	dto := orderDTO{Notes: "keep", Lines: []*lineDTO{existingLine, {SKU: "extra"}}}

	src := sampleOrder()
	src.Lines = src.Lines[:1]

	_, err := mapTo(t, newResolver(t), rules.Merge, src, &dto)
	require.NoError(t, err)

	assert.Equal(t, "7", dto.ID)
	assert.Equal(t, "keep", dto.Notes, "set members are kept")
	assert.Equal(t, "Ann", dto.CustomerName)

	require.Len(t, dto.Lines, 1)
	assert.Same(t, existingLine, dto.Lines[0], "existing elements are populated in place")
	assert.Equal(t, lineDTO{SKU: "old", Quantity: 2}, *dto.Lines[0])
}

func TestMapper_Map_NilSourceMember(t *testing.T) {
	t.Parallel()

	nick := "ace"

	tests := []struct {
		name    string
		ruleSet rules.RuleSet
		want    *string
	}{
		{name: "merge keeps", ruleSet: rules.Merge, want: &nick},
		{name: "overwrite clears", ruleSet: rules.Overwrite, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			existing := nickname{Nick: &nick}

			_, err := mapTo(t, newResolver(t), tt.ruleSet, nickname{}, &existing)
			require.NoError(t, err)
			assert.Equal(t, tt.want, existing.Nick)
		})
	}
}

func TestMapper_Map_PointerMemberIsCopied(t *testing.T) {
	t.Parallel()

	nick := "ace"
	src := nickname{Nick: &nick}

	got, err := mapTo[nickname](t, newResolver(t), rules.CreateNew, src, nil)
	require.NoError(t, err)

	require.NotNil(t, got.Nick)
	assert.Equal(t, "ace", *got.Nick)
	assert.NotSame(t, src.Nick, got.Nick)
}

func TestMapper_Map_MapEntries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ruleSet rules.RuleSet
		want    map[string]int
	}{
		{name: "merge keeps extra keys", ruleSet: rules.Merge, want: map[string]int{"a": 2, "keep": 5}},
		{name: "overwrite replaces", ruleSet: rules.Overwrite, want: map[string]int{"a": 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			existing := nickname{Scores: map[string]int{"a": 1, "keep": 5}}

			_, err := mapTo(t, newResolver(t), tt.ruleSet, nickname{Scores: map[string]int{"a": 2}}, &existing)
			require.NoError(t, err)
			assert.Equal(t, tt.want, existing.Scores)
		})
	}
}

func TestMapper_Map_Dictionary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  map[string]any
		want profile
	}{
		{
			name: "flat keys",
			src:  map[string]any{"Name": "Ann", "TAGS[0]": "a", "tags[1]": "b", "home.city": "Oslo"},
			want: profile{Name: "Ann", Tags: []string{"a", "b"}, Home: address{City: "Oslo"}},
		},
		{
			name: "nested values",
			src: map[string]any{
				"name": "Ann",
				"tags": []any{"x"},
				"home": map[string]any{"city": "Bergen"},
			},
			want: profile{Name: "Ann", Tags: []string{"x"}, Home: address{City: "Bergen"}},
		},
		{
			name: "missing keys",
			src:  map[string]any{"name": "Ann"},
			want: profile{Name: "Ann", Tags: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := mapTo[profile](t, newResolver(t), rules.CreateNew, tt.src, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewDictionary_FoldedKeys(t *testing.T) {
	t.Parallel()

	src := map[string]any{"name": "low", "Name": "title", "NAME": "upper", "home.city": "Oslo"}

	for range 20 {
		d := newDictionary(reflect.ValueOf(src))
		require.Len(t, d, 2)
		assert.Equal(t, "upper", d["name"].Interface())
	}

	got, err := mapTo[profile](t, newResolver(t), rules.CreateNew, map[string]any{"name": "low", "Name": "title"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "title", got.Name)

	assert.Empty(t, newDictionary(reflect.ValueOf(map[string]any(nil))))
}

func TestMapper_Map_Derived(t *testing.T) {
	t.Parallel()

	scope := rules.Scope{Source: reflect.TypeFor[shape](), Target: reflect.TypeFor[shapeDTO]()}
	r := newResolver(t,
		rules.Rule{Kind: rules.KindDerived, Scope: scope,
			DerivedSource: reflect.TypeFor[circle](), DerivedTarget: reflect.TypeFor[circleDTO]()},
		rules.Rule{Kind: rules.KindDerived, Scope: scope,
			DerivedSource: reflect.TypeFor[square](), DerivedTarget: reflect.TypeFor[squareDTO]()},
	)

	got, err := mapTo[drawingDTO](t, r, rules.CreateNew,
		drawing{Shapes: []shape{circle{R: 1}, square{Side: 2}, nil}}, nil)
	require.NoError(t, err)

	require.Len(t, got.Shapes, 3)
	assert.Equal(t, circleDTO{R: 1}, got.Shapes[0])
	assert.Equal(t, &squareDTO{Side: 2}, got.Shapes[1])
	assert.Nil(t, got.Shapes[2])

	_, err = mapTo[drawingDTO](t, r, rules.CreateNew, drawing{Shapes: []shape{triangle{Base: 1, Height: 1}}}, nil)

	var mappingErr *MappingError
	require.ErrorAs(t, err, &mappingErr)
	assert.ErrorIs(t, err, ErrUnresolvedType)
	assert.Equal(t, "Shapes[0]", mappingErr.Path)
}

func TestMapper_Map_FailurePath(t *testing.T) {
	t.Parallel()

	src := textOrder{Lines: []textLine{{SKU: "a", Quantity: "2"}, {SKU: "b", Quantity: "many"}}}

	_, err := mapTo[lineOrder](t, newResolver(t), rules.CreateNew, src, nil)

	var mappingErr *MappingError
	require.ErrorAs(t, err, &mappingErr)
	assert.Equal(t, "Lines[1].Quantity", mappingErr.Path)
	assert.Equal(t, reflect.TypeFor[textOrder](), mappingErr.Source)
	assert.Equal(t, "CreateNew", mappingErr.RuleSet)
	assert.ErrorIs(t, err, primitive.ErrInvalidText)
	assert.Contains(t, err.Error(), "at Lines[1].Quantity")
}

func TestMapper_Map_ExceptionHandlers(t *testing.T) {
	t.Parallel()

	scope := rules.Scope{Source: reflect.TypeFor[textLine](), Target: reflect.TypeFor[lineDTO]()}
	src := textOrder{Lines: []textLine{{SKU: "a", Quantity: "2"}, {SKU: "b", Quantity: "many"}}}

	t.Run("member substitute", func(t *testing.T) {
		t.Parallel()

		var paths []string

		r := newResolver(t, rules.Rule{Kind: rules.KindException, Scope: scope, Member: "Quantity",
			Handler: func(a rules.Args, err error) (any, error) {
				paths = append(paths, a.Path)
				return -1, nil
			}})

		got, err := mapTo[lineOrder](t, r, rules.CreateNew, src, nil)
		require.NoError(t, err)
		assert.Equal(t, []lineDTO{{SKU: "a", Quantity: 2}, {SKU: "b", Quantity: -1}}, got.Lines)
		assert.Equal(t, []string{"Lines[i].Quantity"}, paths)
	})

	t.Run("object substitute", func(t *testing.T) {
		t.Parallel()

		r := newResolver(t, rules.Rule{Kind: rules.KindException, Scope: scope,
			Handler: func(a rules.Args, err error) (any, error) {
				return lineDTO{SKU: a.Source.(textLine).SKU + "?"}, nil
			}})

		got, err := mapTo[lineOrder](t, r, rules.CreateNew, src, nil)
		require.NoError(t, err)
		assert.Equal(t, []lineDTO{{SKU: "a", Quantity: 2}, {SKU: "b?"}}, got.Lines)
	})

	t.Run("replaced error", func(t *testing.T) {
		t.Parallel()

		errRejected := errors.New("rejected line")

		r := newResolver(t, rules.Rule{Kind: rules.KindException, Scope: scope, Member: "Quantity",
			Handler: func(rules.Args, error) (any, error) { return nil, errRejected }})

		_, err := mapTo[lineOrder](t, r, rules.CreateNew, src, nil)
		require.ErrorIs(t, err, errRejected)
		assert.NotErrorIs(t, err, primitive.ErrInvalidText)
	})

	t.Run("unusable substitute", func(t *testing.T) {
		t.Parallel()

		r := newResolver(t, rules.Rule{Kind: rules.KindException, Scope: scope, Member: "Quantity",
			Handler: func(rules.Args, error) (any, error) { return []string{"no"}, nil }})

		_, err := mapTo[lineOrder](t, r, rules.CreateNew, src, nil)
		require.ErrorIs(t, err, ErrHandlerResult)
	})
}

func TestMapper_Map_Panic(t *testing.T) {
	t.Parallel()

	r := newResolver(t, rules.Rule{
		Kind:   rules.KindDataSource,
		Scope:  rules.Scope{Target: reflect.TypeFor[lineDTO]()},
		Member: "SKU",
		Value: rules.Value{Kind: rules.ValueFunction, Function: func(rules.Args) (any, error) {
			panic("boom")
		}},
	})

	_, err := mapTo[orderDTO](t, r, rules.CreateNew, sampleOrder(), nil)

	var mappingErr *MappingError
	require.ErrorAs(t, err, &mappingErr)
	assert.ErrorIs(t, err, ErrPanic)
	assert.Equal(t, "Lines[0].SKU", mappingErr.Path)
	assert.Contains(t, err.Error(), "boom")
}

func TestMapper_Map_FactoriesAndCallbacks(t *testing.T) {
	t.Parallel()

	lineScope := rules.Scope{Source: reflect.TypeFor[line](), Target: reflect.TypeFor[lineDTO]()}

	var (
		created []*lineDTO
		before  []string
		indexes []int
	)

	r := newResolver(t,
		rules.Rule{Kind: rules.KindFactory, Scope: lineScope, Factory: func(rules.Args) (any, error) {
			l := &lineDTO{}
			created = append(created, l)
			return l, nil
		}},
		rules.Rule{Kind: rules.KindBefore, Scope: lineScope, Callback: func(a rules.Args) error {
			before = append(before, a.Source.(line).SKU)
			return nil
		}},
		rules.Rule{Kind: rules.KindAfter, Scope: lineScope, Callback: func(a rules.Args) error {
			indexes = append(indexes, a.Index)
			a.Target.(*lineDTO).Quantity *= 10
			return nil
		}},
	)

	got, err := mapTo[orderDTO](t, r, rules.CreateNew, sampleOrder(), nil)
	require.NoError(t, err)

	require.Len(t, created, 2)
	assert.Same(t, created[0], got.Lines[0])
	assert.Same(t, created[1], got.Lines[1])
	assert.Equal(t, []string{"a", "b"}, before)
	assert.Equal(t, []int{0, 1}, indexes)
	assert.Equal(t, int64(20), got.Lines[0].Quantity)
}

func TestMapper_Map_FactoryResult(t *testing.T) {
	t.Parallel()

	r := newResolver(t, rules.Rule{
		Kind:    rules.KindFactory,
		Scope:   rules.Scope{Target: reflect.TypeFor[lineDTO]()},
		Factory: func(rules.Args) (any, error) { return "not a line", nil },
	})

	_, err := mapTo[orderDTO](t, r, rules.CreateNew, sampleOrder(), nil)
	require.ErrorIs(t, err, ErrFactoryResult)
}

func TestMapper_Map_ConfiguredSources(t *testing.T) {
	t.Parallel()

	orderScope := rules.Scope{Source: reflect.TypeFor[order](), Target: reflect.TypeFor[orderDTO]()}

	r := newResolver(t,
		rules.Rule{Kind: rules.KindDataSource, Scope: orderScope, Member: "Notes",
			Value: rules.Value{Kind: rules.ValueConstant, Constant: "none"},
			Condition: func(a rules.Args) bool {
				return a.Source.(order).Notes == ""
			}},
		rules.Rule{Kind: rules.KindDataSource, Scope: orderScope, Member: "CustomerName",
			Value: rules.Value{Kind: rules.ValueExpression, Expression: func(o order) string {
				return o.Customer.Name + " <" + o.Customer.Email + ">"
			}}},
		rules.Rule{Kind: rules.KindDataSource, Scope: rules.Scope{Target: reflect.TypeFor[lineDTO]()}, Member: "Quantity",
			Value: rules.Value{Kind: rules.ValueFunction, Function: func(a rules.Args) (any, error) {
				return a.Index + 100, nil
			}}},
	)

	src := sampleOrder()
	src.Notes = ""

	got, err := mapTo[orderDTO](t, r, rules.CreateNew, src, nil)
	require.NoError(t, err)

	assert.Equal(t, "none", got.Notes)
	assert.Equal(t, "Ann <ann@example.com>", got.CustomerName)
	assert.Equal(t, int64(100), got.Lines[0].Quantity)
	assert.Equal(t, int64(101), got.Lines[1].Quantity)

	got, err = mapTo[orderDTO](t, r, rules.CreateNew, sampleOrder(), nil)
	require.NoError(t, err)
	assert.Equal(t, "leave at the door", got.Notes, "condition falls through to the convention match")
}

func TestMapper_Map_CreateNewIgnoresExisting(t *testing.T) {
	t.Parallel()

	existing := orderDTO{Notes: "stale"}

	got, err := mapTo(t, newResolver(t), rules.CreateNew, sampleOrder(), &existing)
	require.NoError(t, err)

	assert.Equal(t, "leave at the door", got.Notes)
	assert.Equal(t, "stale", existing.Notes)
}

func TestMapper_Map_SourceMismatch(t *testing.T) {
	t.Parallel()

	r := newResolver(t)

	m, err := r.MapperFor(plan.NewKey(reflect.TypeFor[order](), reflect.TypeFor[orderDTO](), rules.CreateNew.Name))
	require.NoError(t, err)

	_, err = m.Map(context.Background(), reflect.ValueOf(line{}), reflect.Value{})
	require.ErrorIs(t, err, ErrSourceMismatch)
}

func TestMapper_Map_DebugLogging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	r := newResolver(t)
	r.logger = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := mapTo[lineOrder](t, r, rules.CreateNew,
		textOrder{Lines: []textLine{{SKU: "a", Quantity: "x"}}}, nil)

	var mappingErr *MappingError
	require.ErrorAs(t, err, &mappingErr)
	require.NotEmpty(t, mappingErr.CallID)

	assert.Contains(t, buf.String(), `"msg":"mapped"`)
	assert.Contains(t, buf.String(), mappingErr.CallID)
	assert.Contains(t, buf.String(), `"failed":true`)
}

func TestMapper_Map_Concurrent(t *testing.T) {
	t.Parallel()

	a := &person{Name: "a"}
	a.Friend = &person{Name: "b", Friend: a}

	r := newResolver(t)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			got, err := mapTo[*personDTO](t, r, rules.CreateNew, a, nil)
			assert.NoError(t, err)
			assert.Same(t, got, got.Friend.Friend)
		}()
	}

	wg.Wait()
}
