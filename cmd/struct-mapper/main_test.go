package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"struct-mapper/mapper"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return stdout.String(), stderr.String(), err
}

func TestPlan(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, "plan", "store.Customer", "warehouse.Customer")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "Map store.Customer -> warehouse.Customer\nRule Set: CreateNew\n"), out)
	assert.Contains(t, out, "  Email <- convention Email\n")
}

func TestPlan_RuleSet(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, "plan", "store.Customer", "warehouse.Customer", "--rule-set", "Merge")
	require.NoError(t, err)
	assert.Contains(t, out, "Rule Set: Merge\n")

	_, _, err = execute(t, "plan", "store.Customer", "warehouse.Customer", "--rule-set", "Upsert")
	require.ErrorIs(t, err, mapper.ErrUnknownRuleSet)
}

func TestPlan_UnknownType(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, "plan", "store.Invoice", "warehouse.Order")
	require.ErrorIs(t, err, mapper.ErrUnknownType)

	_, _, err = execute(t, "plan", "store.Order")
	require.Error(t, err)
}

func TestPlan_Rules(t *testing.T) {
	t.Parallel()

	const file = `
rules:
  - kind: member
    source: store.Customer
    target: warehouse.Customer
    member: FirstName
    from: FullName
  - kind: ignore
    target: warehouse.Customer
    member: Phone
`

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(file), 0o600))

	out, _, err := execute(t, "plan", "store.Customer", "warehouse.Customer", "--rules", path)
	require.NoError(t, err)

	assert.Contains(t, out, "  FirstName <- member FullName\n")
	assert.Contains(t, out, "  Phone: ignored\n")

	_, _, err = execute(t, "plan", "store.Customer", "warehouse.Customer", "--rules", filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "load rules")
}

func TestPlan_YAML(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, "plan", "store.Customer", "warehouse.Customer", "--yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "from: Email")

	c := mapper.New()
	require.NoError(t, c.LoadRulesYAML([]byte(out), knownTypes()))
	assert.NotEmpty(t, c.Rules())
}

func TestCheck(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, "check")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, len(defaultPairs)*len(mapper.RuleSets()))
	assert.Contains(t, out, "ok\tstore.Order -> warehouse.Order (Merge)\n")
}

func TestCheck_Strict(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, "check", "--strict", "--pair", "store.Customer=warehouse.Customer", "--rule-set", "CreateNew")
	require.ErrorIs(t, err, mapper.ErrUnmappableMember)
	assert.Empty(t, out)
}

func TestCheck_InvalidPair(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, "check", "--pair", "store.Customer")
	require.ErrorContains(t, err, "expected SOURCE=TARGET")

	_, _, err = execute(t, "check", "--pair", "store.Customer=warehouse.Nope")
	require.ErrorIs(t, err, mapper.ErrUnknownType)
}

func TestVerboseLogging(t *testing.T) {
	t.Parallel()

	_, stderr, err := execute(t, "check", "-v", "--pair", "store.OrderItem=warehouse.OrderItem", "--rule-set", "CreateNew")
	require.NoError(t, err)
	assert.Contains(t, stderr, "compiling mapper")

	_, stderr, err = execute(t, "check", "--pair", "store.OrderItem=warehouse.OrderItem", "--rule-set", "CreateNew")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "compiling mapper")
}

func TestTypes(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, "types")
	require.NoError(t, err)

	names := strings.Fields(out)
	assert.Len(t, names, len(knownTypes()))
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "warehouse.Address")
}

func TestMain_Help(t *testing.T) {
	t.Parallel()

	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())
}
