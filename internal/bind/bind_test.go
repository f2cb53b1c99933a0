package bind_test

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/sqlexpr/internal/bind"
)

func TestBindScalarAssignsSequentialNames(t *testing.T) {
	b := bind.NewBinder()

	p0, err := b.Bind(42, bind.Int)
	require.NoError(t, err)
	p1, err := b.Bind("Fred", bind.String)
	require.NoError(t, err)

	assert.Equal(t, "sqlexpr_0", p0.Name())
	assert.Equal(t, "@sqlexpr_0", p0.ValueSQL())
	assert.Equal(t, "sqlexpr_1", p1.Name())
	assert.Equal(t, "@sqlexpr_1", p1.ValueSQL())
}

func TestBindAutoInference(t *testing.T) {
	tests := []struct {
		name  string
		value any
		kind  bind.TypeKind
	}{
		{"int", 7, bind.Int},
		{"int64", int64(7), bind.Int},
		{"uint32", uint32(7), bind.Int},
		{"string", "seven", bind.String},
		{"int slice", []int{1, 2}, bind.IntArray},
		{"int64 slice", []int64{1, 2}, bind.IntArray},
		{"string slice", []string{"a", "b"}, bind.StringArray},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b := bind.NewBinder()
			p, err := b.Bind(test.value, bind.Auto)
			require.NoError(t, err)
			assert.Equal(t, test.kind, p.Kind())
		})
	}
}

func TestBindAutoRejectsUnknownShape(t *testing.T) {
	b := bind.NewBinder()
	_, err := b.Bind(3.14, bind.Auto)
	require.EqualError(t, err, "cannot bind value of type float64")

	_, err = b.Bind(struct{}{}, bind.Auto)
	require.Error(t, err)
}

func TestBindKindMismatch(t *testing.T) {
	b := bind.NewBinder()
	_, err := b.Bind("Fred", bind.Int)
	require.EqualError(t, err, `cannot bind value of type string as int`)

	_, err = b.Bind([]string{"a"}, bind.IntArray)
	require.EqualError(t, err, `cannot bind value of type []string as int array`)
}

func TestBindArrayAllocatesPerElement(t *testing.T) {
	b := bind.NewBinder()
	p, err := b.Bind([]int{10, 20, 30}, bind.IntArray)
	require.NoError(t, err)

	assert.Equal(t, 3, p.Len())
	assert.Equal(t, []string{"sqlexpr_0", "sqlexpr_1", "sqlexpr_2"}, p.Names())
	assert.Equal(t, "@sqlexpr_0, @sqlexpr_1, @sqlexpr_2", p.ValueSQL())

	values := b.BoundValues()
	require.Len(t, values, 3)
	assert.Equal(t, bind.BoundValue{Value: 20, Kind: bind.Int}, values["sqlexpr_1"])
}

func TestBindEmptyArray(t *testing.T) {
	b := bind.NewBinder()
	p, err := b.Bind([]string{}, bind.StringArray)
	require.NoError(t, err)

	assert.Equal(t, 0, p.Len())
	assert.Equal(t, "", p.ValueSQL())
	assert.Empty(t, b.BoundValues())
}

func TestBoundValuesIsACopy(t *testing.T) {
	b := bind.NewBinder()
	_, err := b.Bind(1, bind.Int)
	require.NoError(t, err)

	values := b.BoundValues()
	delete(values, "sqlexpr_0")
	assert.Len(t, b.BoundValues(), 1)
}

func TestArgsOrderedByPlaceholderNumber(t *testing.T) {
	b := bind.NewBinder()
	// Bind past ten values so numeric and lexical order disagree.
	for i := 0; i < 12; i++ {
		_, err := b.Bind(i, bind.Int)
		require.NoError(t, err)
	}

	args := b.Args()
	require.Len(t, args, 12)
	for i, arg := range args {
		named, ok := arg.(sql.NamedArg)
		require.True(t, ok)
		assert.Equal(t, i, named.Value)
	}
	assert.Equal(t, "sqlexpr_10", args[10].(sql.NamedArg).Name)
}

func TestMustBindPanicsOnError(t *testing.T) {
	b := bind.NewBinder()
	assert.NotPanics(t, func() { b.MustBind(1, bind.Auto) })
	assert.Panics(t, func() { b.MustBind(3.14, bind.Auto) })
}

func TestEscapeLikeWildcards(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"50%", `50\%`},
		{"a_b", `a\_b`},
		{`back\slash`, `back\\slash`},
		{`%_\`, `\%\_\\`},
		{"plain", "plain"},
		{"", ""},
	}
	for _, test := range tests {
		assert.Equal(t, test.out, bind.EscapeLikeWildcards(test.in), "input %q", test.in)
	}
}

func TestTypeKindString(t *testing.T) {
	assert.Equal(t, "auto", bind.Auto.String())
	assert.Equal(t, "int array", bind.IntArray.String())
	assert.Equal(t, "string array", bind.StringArray.String())
}
