package rules

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ruleFile = `
naming:
  aliases:
    - [Surname, LastName]
  prefixes: str
rules:
  - kind: ignore
    target: rules.contact
    member: Name
  - kind: member
    source: rules.person
    target: rules.contact
    ruleSet: Merge
    member: LastName
    from: Surname
  - kind: constant
    target: rules.person
    member: Name
    value: unknown
  - kind: derived
    target: rules.named
    derivedSource: rules.person
    derivedTarget: rules.contact
`

func testRegistry() TypeRegistry {
	return TypeRegistry{}.Register(personType, contactType, namedType)
}

func TestParse(t *testing.T) {
	t.Parallel()

	f, err := Parse([]byte(ruleFile))
	require.NoError(t, err)

	assert.Equal(t, "1", f.Version)
	assert.Equal(t, Names{"str"}, f.Naming.Prefixes)
	require.Len(t, f.Rules, 4)
	assert.Equal(t, "Surname", f.Rules[1].From)
	assert.Equal(t, "unknown", f.Rules[2].Value)
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{"unknown kind", "rules:\n  - kind: rename\n    member: Name\n"},
		{"member without from", "rules:\n  - kind: member\n    member: Name\n"},
		{"missing member", "rules:\n  - kind: ignore\n"},
		{"unknown rule set", "rules:\n  - kind: ignore\n    member: Name\n    ruleSet: Replace\n"},
		{"derived without types", "rules:\n  - kind: derived\n    target: rules.named\n"},
		{"single alias", "naming:\n  aliases:\n    - [Surname]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidRule)
		})
	}

	_, err := Parse([]byte("rules: {"))
	assert.Error(t, err)
}

func TestFile_Apply(t *testing.T) {
	t.Parallel()

	f, err := Parse([]byte(ruleFile))
	require.NoError(t, err)

	s := NewStore()
	require.NoError(t, f.Apply(s, testRegistry().Lookup))

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, []string{"Surname", "LastName"}, s.Naming().AlternateNames("Surname"))
	assert.Equal(t, []string{"strCity", "City"}, s.Naming().AlternateNames("strCity"))

	ignored := s.MatchesFor(KindIgnore, Query{Source: personType, Target: contactType, Member: "Name"})
	assert.Len(t, ignored, 1)

	merged := s.MatchesFor(KindDataSource, Query{Source: personType, Target: contactType, RuleSet: "Merge", Member: "LastName"})
	require.Len(t, merged, 1)
	assert.Equal(t, "Surname", merged[0].Value.Member)

	derived := s.Rules()[3]
	assert.Equal(t, KindDerived, derived.Kind)
	assert.Equal(t, reflect.TypeFor[contact](), derived.DerivedTarget)
}

func TestFile_ApplyAggregatesErrors(t *testing.T) {
	t.Parallel()

	f, err := Parse([]byte(`
rules:
  - kind: ignore
    target: rules.missing
    member: Name
  - kind: ignore
    member: Name
  - kind: constant
    member: Name
    value: 1
  - kind: ignore
    member: Surname
`))
	require.NoError(t, err)

	s := NewStore()
	err = f.Apply(s, testRegistry().Lookup)
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 2)
	require.ErrorIs(t, merr.Errors[0], ErrUnknownType)
	require.ErrorIs(t, merr.Errors[1], ErrConfigurationConflict)
	assert.Equal(t, 2, s.Len())
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(ruleFile), 0o600))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, f.Rules, 4)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
