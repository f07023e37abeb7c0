package corpus

import (
	"math/big"
	"sort"

	"github.com/jihwankim/nado/pkg/constraints"
)

// midpoint returns lo + (hi-lo)/2, computed with arbitrary-precision
// arithmetic so hi-lo never overflows int64 (hi and lo may each be near
// MinInt64/MaxInt64).
func midpoint(b constraints.Bounds) int64 {
	lo, hi := big.NewInt(b.Lo), big.NewInt(b.Hi)
	span := new(big.Int).Sub(hi, lo)
	span.Quo(span, big.NewInt(2))
	return new(big.Int).Add(lo, span).Int64()
}

// saturatingInc returns v+1, saturating at math.MaxInt64.
func saturatingInc(v int64) int64 {
	r := new(big.Int).Add(big.NewInt(v), big.NewInt(1))
	return clampInt64(r)
}

// saturatingDec returns v-1, saturating at math.MinInt64.
func saturatingDec(v int64) int64 {
	r := new(big.Int).Sub(big.NewInt(v), big.NewInt(1))
	return clampInt64(r)
}

func clampInt64(r *big.Int) int64 {
	maxI := big.NewInt(math_MaxInt64)
	minI := big.NewInt(math_MinInt64)
	if r.Cmp(maxI) > 0 {
		return math_MaxInt64
	}
	if r.Cmp(minI) < 0 {
		return math_MinInt64
	}
	return r.Int64()
}

const (
	math_MaxInt64 = int64(1<<63 - 1)
	math_MinInt64 = int64(-1 << 63)
)

// edgeValues returns sorted, unique, in-bounds candidates drawn from
// {lo, lo+1, hi-1, hi, 0, 1, -1} ∩ [lo, hi].
func edgeValues(b constraints.Bounds) []int64 {
	candidates := []int64{
		b.Lo, saturatingInc(b.Lo),
		saturatingDec(b.Hi), b.Hi,
		0, 1, -1,
	}
	return uniqueSortedInBounds(candidates, b)
}

// partitionPoints returns the sorted, unique five-point quartile set
// {lo, lo+(hi-lo)/4, mid, lo+3(hi-lo)/4, hi}, plus 0 when 0 is in range.
func partitionPoints(b constraints.Bounds) []int64 {
	lo, hi := big.NewInt(b.Lo), big.NewInt(b.Hi)
	span := new(big.Int).Sub(hi, lo)

	q1 := new(big.Int).Quo(span, big.NewInt(4))
	q1.Add(lo, q1)

	q3 := new(big.Int).Mul(span, big.NewInt(3))
	q3.Quo(q3, big.NewInt(4))
	q3.Add(lo, q3)

	candidates := []int64{b.Lo, q1.Int64(), midpoint(b), q3.Int64(), b.Hi}
	if b.Lo <= 0 && 0 <= b.Hi {
		candidates = append(candidates, 0)
	}
	return uniqueSortedInBounds(candidates, b)
}

func uniqueSortedInBounds(vals []int64, b constraints.Bounds) []int64 {
	seen := make(map[int64]struct{}, len(vals))
	out := make([]int64, 0, len(vals))
	for _, v := range vals {
		if v < b.Lo || v > b.Hi {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
