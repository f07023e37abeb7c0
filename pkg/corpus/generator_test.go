package corpus_test

import (
	"fmt"
	"testing"

	"github.com/jihwankim/nado/pkg/constraints"
	"github.com/jihwankim/nado/pkg/corpus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoFieldBounds() []constraints.Bounds {
	return []constraints.Bounds{{Lo: 1, Hi: 9}, {Lo: 1, Hi: 9}}
}

func defaultPBT() corpus.PbtConfig {
	return corpus.PbtConfig{Enabled: true, EdgeCaseRatio: 0.2, PartitionRatio: 0.2, MaxCartesianCases: 128}
}

func TestGenerate_ExactLength(t *testing.T) {
	cases, err := corpus.Generate(twoFieldBounds(), 30, 42, defaultPBT())
	require.NoError(t, err)
	assert.Len(t, cases, 30)
}

func TestGenerate_Deterministic(t *testing.T) {
	a, err := corpus.Generate(twoFieldBounds(), 50, 7, defaultPBT())
	require.NoError(t, err)
	b, err := corpus.Generate(twoFieldBounds(), 50, 7, defaultPBT())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerate_ValuesWithinBounds(t *testing.T) {
	bounds := []constraints.Bounds{{Lo: -5, Hi: 5}, {Lo: 0, Hi: 100}}
	cases, err := corpus.Generate(bounds, 200, 99, defaultPBT())
	require.NoError(t, err)

	for _, c := range cases {
		var a, b int64
		n, err := fmt.Sscan(c, &a, &b)
		require.NoError(t, err)
		require.Equal(t, 2, n)
		assert.GreaterOrEqual(t, a, int64(-5))
		assert.LessOrEqual(t, a, int64(5))
		assert.GreaterOrEqual(t, b, int64(0))
		assert.LessOrEqual(t, b, int64(100))
	}
}

func TestGenerate_ContainsMinAndMaxTuples(t *testing.T) {
	bounds := twoFieldBounds()
	cases, err := corpus.Generate(bounds, 30, 42, defaultPBT())
	require.NoError(t, err)

	assert.Contains(t, cases, "1 1\n")
	assert.Contains(t, cases, "9 9\n")
}

func TestGenerate_NonPBTIsUniformRandomOnly(t *testing.T) {
	cases, err := corpus.Generate(twoFieldBounds(), 10, 1, corpus.PbtConfig{Enabled: false, MaxCartesianCases: 1})
	require.NoError(t, err)
	assert.Len(t, cases, 10)
}

func TestGenerate_RejectsBadRatios(t *testing.T) {
	_, err := corpus.Generate(twoFieldBounds(), 10, 1, corpus.PbtConfig{Enabled: true, EdgeCaseRatio: 0.7, PartitionRatio: 0.6, MaxCartesianCases: 1})
	require.Error(t, err)
}

func TestGenerate_RejectsZeroMaxCartesian(t *testing.T) {
	_, err := corpus.Generate(twoFieldBounds(), 10, 1, corpus.PbtConfig{Enabled: true, MaxCartesianCases: 0})
	require.Error(t, err)
}

func TestGenerate_EmptyBoundsFails(t *testing.T) {
	_, err := corpus.Generate(nil, 10, 1, defaultPBT())
	require.Error(t, err)
}
