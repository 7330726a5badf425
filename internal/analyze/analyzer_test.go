package analyze

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type audit struct {
	Created time.Time
}

type Entity struct {
	ID      int
	Version int
}

type person struct {
	Entity
	audit
	Name     string `map:"required"`
	Nickname string `map:"name=Alias;Handle"`
	Secret   string `map:"-"`
	age      int
	Parent   *person
	Tags     []string
	Extra    map[string]any

	email string
}

func (p *person) GetEmail() string  { return p.email }
func (p *person) SetEmail(v string) { p.email = v }
func (p *person) GetName() string   { return "shadowed" }

func TestAnalyzer_Inspect_Struct(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer()
	info := a.Inspect(reflect.TypeFor[person]())

	require.Equal(t, TypeKindStruct, info.Kind)

	var readable []string
	for _, m := range info.Readable {
		readable = append(readable, m.Name)
	}
	assert.Equal(t, []string{"ID", "Version", "Name", "Nickname", "Parent", "Tags", "Extra", "Email"}, readable)

	var writable []string
	for _, m := range info.Writable {
		writable = append(writable, m.Name)
	}
	assert.Equal(t, []string{"ID", "Version", "Name", "Nickname", "Parent", "Tags", "Extra", "Email"}, writable)

	name, ok := info.Reader("name")
	require.True(t, ok)
	assert.True(t, name.Tag.Required)
	assert.Equal(t, AccessField, name.Access)

	nick, ok := info.Writer("Nickname")
	require.True(t, ok)
	assert.Equal(t, []string{"Alias", "Handle"}, nick.Tag.Aliases)

	id, ok := info.Reader("ID")
	require.True(t, ok)
	assert.True(t, id.Embedded)

	_, ok = info.Reader("Secret")
	assert.False(t, ok)

	_, ok = info.Reader("Created")
	assert.False(t, ok, "fields of unexported embedded structs are not promoted")
}

func TestMemberInfo_GetSet(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer()
	info := a.Inspect(reflect.TypeFor[person]())

	p := &person{Entity: Entity{ID: 7}, email: "a@b.c"}
	v := reflect.ValueOf(p).Elem()

	id, _ := info.Reader("ID")
	assert.Equal(t, 7, id.Get(v).Interface())

	email, _ := info.Reader("Email")
	require.Equal(t, AccessGetter, email.Access)
	assert.Equal(t, "a@b.c", email.Get(v).Interface())
	assert.Equal(t, "a@b.c", email.Get(reflect.ValueOf(*p)).Interface(), "non-addressable values are copied")

	setter, _ := info.Writer("Email")
	require.Equal(t, AccessSetter, setter.Access)
	assert.False(t, setter.CanRead())
	setter.Set(v, reflect.ValueOf("x@y.z"))
	assert.Equal(t, "x@y.z", p.email)

	id.Set(v, reflect.ValueOf(9))
	assert.Equal(t, 9, p.ID)
}

func TestAnalyzer_Kinds(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer()

	tests := []struct {
		typ  reflect.Type
		want TypeKind
	}{
		{reflect.TypeFor[int](), TypeKindBasic},
		{reflect.TypeFor[time.Time](), TypeKindBasic},
		{reflect.TypeFor[*person](), TypeKindPointer},
		{reflect.TypeFor[[]person](), TypeKindSlice},
		{reflect.TypeFor[[3]int](), TypeKindArray},
		{reflect.TypeFor[map[string]any](), TypeKindMap},
		{reflect.TypeFor[any](), TypeKindInterface},
		{reflect.TypeFor[struct{ x int }](), TypeKindExternal},
		{reflect.TypeFor[func()](), TypeKindUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, a.Inspect(tt.typ).Kind)
		})
	}

	assert.True(t, a.Inspect(reflect.TypeFor[map[string]int]()).IsDictionary())
	assert.False(t, a.Inspect(reflect.TypeFor[map[int]int]()).IsDictionary())
	assert.True(t, a.IsComplex(reflect.TypeFor[**person]()))
	assert.Equal(t, 2, PointerDepth(reflect.TypeFor[**person]()))
}

func TestAnalyzer_InspectIsCached(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer()
	first := a.Inspect(reflect.TypeFor[person]())
	second := a.Inspect(reflect.TypeFor[person]())
	assert.Same(t, first, second)
}
