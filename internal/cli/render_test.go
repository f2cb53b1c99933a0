package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/sqlexpr/internal/cli"
)

func writeFilter(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := cli.NewRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRenderYAMLFilter(t *testing.T) {
	path := writeFilter(t, "filter.yaml", `
junction: and
conditions:
  - field: p.status
    op: eq
    value: active
  - junction: or
    conditions:
      - field: p.id
        op: in
        values: [10, 20, 30]
      - field: p.deleted_at
        op: is_null
  - fragment: "1 = 1"
`)

	out, err := runCommand(t, "render", "--dialect", "mysql", path)
	require.NoError(t, err)

	expected := "`p`.`status` = @sqlexpr_0 AND " +
		"(`p`.`id` IN (@sqlexpr_1, @sqlexpr_2, @sqlexpr_3) OR `p`.`deleted_at` IS NULL) AND " +
		"1 = 1\n" +
		"\n" +
		"Parameters:\n" +
		"  sqlexpr_0 = active (string)\n" +
		"  sqlexpr_1 = 10 (int)\n" +
		"  sqlexpr_2 = 20 (int)\n" +
		"  sqlexpr_3 = 30 (int)\n"
	assert.Equal(t, expected, out)
}

func TestRenderJSONFilter(t *testing.T) {
	path := writeFilter(t, "filter.json", `{
  "junction": "or",
  "conditions": [
    {"field": "age", "op": "gte", "value": 21},
    {"field": "name", "op": "like", "value": "Fred%"}
  ]
}`)

	out, err := runCommand(t, "render", "-d", "sqlite", path)
	require.NoError(t, err)

	expected := `"age" >= @sqlexpr_0 OR "name" LIKE @sqlexpr_1` + "\n" +
		"\n" +
		"Parameters:\n" +
		"  sqlexpr_0 = 21 (int)\n" +
		"  sqlexpr_1 = Fred% (string)\n"
	assert.Equal(t, expected, out)
}

func TestRenderNoParameters(t *testing.T) {
	path := writeFilter(t, "filter.yaml", `
conditions:
  - field: deleted_at
    op: is_null
`)

	out, err := runCommand(t, "render", path)
	require.NoError(t, err)
	assert.Equal(t, "`deleted_at` IS NULL\n", out)
}

func TestRenderUnknownDialect(t *testing.T) {
	path := writeFilter(t, "filter.yaml", "conditions: []\n")
	_, err := runCommand(t, "render", "--dialect", "oracle", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown dialect "oracle"`)
}

func TestRenderUnknownOperator(t *testing.T) {
	path := writeFilter(t, "filter.yaml", `
conditions:
  - field: a
    op: between
    value: 1
`)
	_, err := runCommand(t, "render", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown operator "between"`)
}

func TestRenderQuotingFailureSurfaces(t *testing.T) {
	path := writeFilter(t, "filter.yaml", `
conditions:
  - field: "na` + "`" + `me"
    op: is_null
`)
	_, err := runCommand(t, "render", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid identifier")
}

func TestBuildExpressionMixedListRejected(t *testing.T) {
	path := writeFilter(t, "filter.yaml", `
conditions:
  - field: id
    op: in
    values: [1, "two"]
`)
	_, err := runCommand(t, "render", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all integers or all strings")
}

func TestRenderEmptyInList(t *testing.T) {
	path := writeFilter(t, "filter.yaml", `
conditions:
  - field: id
    op: in
    values: []
`)
	out, err := runCommand(t, "render", path)
	require.NoError(t, err)
	assert.Equal(t, "1 = 0\n", out)
}
