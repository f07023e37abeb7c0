package constraints_test

import (
	"testing"

	"github.com/jihwankim/nado/pkg/constraints"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v int64) *int64 { return &v }

func TestParse_Defaults(t *testing.T) {
	b, err := constraints.Parse(constraints.Spec{Name: "a", Kind: constraints.Integer})
	require.NoError(t, err)
	assert.Equal(t, constraints.Bounds{Lo: -100, Hi: 100}, b)
}

func TestParse_MinMaxThenRange(t *testing.T) {
	b, err := constraints.Parse(constraints.Spec{
		Name: "a", Kind: constraints.Integer,
		Min: ptr(5), Max: ptr(10), Range: ">0",
	})
	require.NoError(t, err)
	assert.Equal(t, constraints.Bounds{Lo: 5, Hi: 10}, b)
}

func TestParse_RangeComparators(t *testing.T) {
	b, err := constraints.Parse(constraints.Spec{Name: "a", Kind: constraints.Integer, Range: ">=1,<=9"})
	require.NoError(t, err)
	assert.Equal(t, constraints.Bounds{Lo: 1, Hi: 9}, b)
}

func TestParse_Equality(t *testing.T) {
	b, err := constraints.Parse(constraints.Spec{Name: "a", Kind: constraints.Integer, Range: "==7"})
	require.NoError(t, err)
	assert.Equal(t, constraints.Bounds{Lo: 7, Hi: 7}, b)
}

func TestParse_AmpersandSeparator(t *testing.T) {
	b, err := constraints.Parse(constraints.Spec{Name: "a", Kind: constraints.Integer, Range: ">=1 & <=9"})
	require.NoError(t, err)
	assert.Equal(t, constraints.Bounds{Lo: 1, Hi: 9}, b)
}

func TestParse_ContradictoryRangeFails(t *testing.T) {
	_, err := constraints.Parse(constraints.Spec{Name: "a", Kind: constraints.Integer, Range: ">=10,<=5"})
	require.Error(t, err)
}

func TestParse_MalformedTokenFails(t *testing.T) {
	_, err := constraints.Parse(constraints.Spec{Name: "a", Kind: constraints.Integer, Range: "banana"})
	require.Error(t, err)
}

func TestParse_NonIntegerKindFails(t *testing.T) {
	_, err := constraints.Parse(constraints.Spec{Name: "a", Kind: "float"})
	require.Error(t, err)
}

func TestParse_Monotonicity(t *testing.T) {
	// Tighter ranges never widen the interval.
	wide, err := constraints.Parse(constraints.Spec{Name: "a", Kind: constraints.Integer, Range: ">=0,<=100"})
	require.NoError(t, err)

	tight, err := constraints.Parse(constraints.Spec{Name: "a", Kind: constraints.Integer, Range: ">=0,<=100,>=20,<=30"})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, tight.Lo, wide.Lo)
	assert.LessOrEqual(t, tight.Hi, wide.Hi)
}
