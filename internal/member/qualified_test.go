package member_test

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"struct-mapper/internal/analyze"
	"struct-mapper/internal/member"
)

type line struct {
	Name  string
	Price float64
}

type order struct {
	Lines    []line
	Customer *customer
}

type customer struct {
	Name string
}

func memberOf(t reflect.Type, name string) analyze.MemberInfo {
	m, ok := analyze.NewAnalyzer().Inspect(analyze.Base(t)).Writer(name)
	if !ok {
		panic("no member " + name)
	}

	return m
}

func ExampleQualified() {
	root := member.Root(reflect.TypeFor[order]())
	lines := root.Append(memberOf(reflect.TypeFor[order](), "Lines"))
	price := lines.Element().Append(memberOf(reflect.TypeFor[line](), "Price"))

	fmt.Println(root)
	fmt.Println(lines.Path(), lines.IsEnumerable(), lines.IsSimple())
	fmt.Println(price.Path(), price.Depth(), price.IsSimple())
	fmt.Println(price)

	// Output:
	// member_test.order
	// Lines true false
	// Lines[i].Price 3 true
	// member_test.order.Lines[i].Price
}

func TestQualified_AppendIsPersistent(t *testing.T) {
	t.Parallel()

	root := member.Root(reflect.TypeFor[order]())
	cust := root.Append(memberOf(reflect.TypeFor[order](), "Customer"))
	name := cust.Append(memberOf(reflect.TypeFor[customer](), "Name"))
	lines := root.Append(memberOf(reflect.TypeFor[order](), "Lines"))

	assert.Equal(t, "Customer", cust.Path())
	assert.Equal(t, "Customer.Name", name.Path())
	assert.Equal(t, "Lines", lines.Path())
	assert.Same(t, root, cust.Parent())
	assert.Same(t, root, lines.Parent())
	assert.True(t, root.IsRoot())
}

func TestQualified_RelativeTo(t *testing.T) {
	t.Parallel()

	root := member.Root(reflect.TypeFor[order]())
	cust := root.Append(memberOf(reflect.TypeFor[order](), "Customer"))
	name := cust.Append(memberOf(reflect.TypeFor[customer](), "Name"))

	rel, ok := name.RelativeTo(cust)
	require.True(t, ok)
	assert.Equal(t, "Name", member.Join(rel))

	rel, ok = name.RelativeTo(root)
	require.True(t, ok)
	assert.Equal(t, []string{"Customer", "Name"}, member.Names(rel))

	_, ok = cust.RelativeTo(name)
	assert.False(t, ok)
}

func TestQualified_Matches(t *testing.T) {
	t.Parallel()

	root := member.Root(reflect.TypeFor[order]())
	name := root.Append(memberOf(reflect.TypeFor[order](), "Lines")).
		Element().
		Append(memberOf(reflect.TypeFor[line](), "Name"))

	assert.True(t, name.Matches("Lines[].Name"))
	assert.True(t, name.Matches("lines[i].name"))
	assert.False(t, name.Matches("Lines.Name"))
	assert.Equal(t, reflect.TypeFor[line](), name.Parent().Type())
}
