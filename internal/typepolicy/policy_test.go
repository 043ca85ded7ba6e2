package typepolicy_test

import (
	"testing"

	"schema-mapper/internal/typepolicy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_StringBounds(t *testing.T) {
	p := typepolicy.Default()

	b, err := p.MaxLengthFor(typepolicy.GoogleSQL, "STRING")
	require.NoError(t, err)
	assert.Equal(t, typepolicy.Fixed(2621440), b)

	b, err = p.MaxLengthFor(typepolicy.PostgreSQL, "varchar")
	require.NoError(t, err)
	assert.Equal(t, typepolicy.Fixed(2621440), b)

	b, err = p.MaxLengthFor(typepolicy.GoogleSQL, "bytes")
	require.NoError(t, err)
	assert.Equal(t, int64(10485760), b.Max)
}

func TestDefault_NotApplicable(t *testing.T) {
	p := typepolicy.Default()
	for _, typ := range []string{"INT64", "BOOL", "DATE", "TIMESTAMP", "JSON", "NUMERIC"} {
		b, err := p.MaxLengthFor(typepolicy.GoogleSQL, typ)
		require.NoError(t, err, typ)
		assert.False(t, b.TakesLength(), typ)
	}
}

func TestMaxLengthFor_Unsupported(t *testing.T) {
	p := typepolicy.Default()

	_, err := p.MaxLengthFor(typepolicy.GoogleSQL, "VARCHAR")
	assert.ErrorIs(t, err, typepolicy.ErrUnsupportedType)

	_, err = p.MaxLengthFor("oracle", "STRING")
	assert.ErrorIs(t, err, typepolicy.ErrUnsupportedType)
}

func TestNew_CustomDialect(t *testing.T) {
	p := typepolicy.New(typepolicy.Rules{
		"Strict": {"string": typepolicy.Fixed(100), "blob": typepolicy.Unbounded()},
	})

	b, err := p.MaxLengthFor("strict", "STRING")
	require.NoError(t, err)
	assert.Equal(t, int64(100), b.Max)

	b, err = p.MaxLengthFor("STRICT", "Blob")
	require.NoError(t, err)
	assert.Equal(t, typepolicy.BoundUnbounded, b.Kind)
	assert.Equal(t, "unbounded", b.String())
}
