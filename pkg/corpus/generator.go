// Package corpus synthesizes the deterministic mix of edge-case,
// partition, and uniform-random input cases presented to every program
// under test.
package corpus

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jihwankim/nado/pkg/constraints"
)

// PbtConfig controls the property-based-testing phases of corpus
// construction.
type PbtConfig struct {
	Enabled           bool
	EdgeCaseRatio     float64
	PartitionRatio    float64
	MaxCartesianCases int
}

// Validate rejects configurations that would make corpus construction
// ill-defined.
func (p PbtConfig) Validate() error {
	if p.EdgeCaseRatio < 0 || p.EdgeCaseRatio > 1 {
		return fmt.Errorf("corpus: edge_case_ratio must be in [0,1], got %v", p.EdgeCaseRatio)
	}
	if p.PartitionRatio < 0 || p.PartitionRatio > 1 {
		return fmt.Errorf("corpus: partition_ratio must be in [0,1], got %v", p.PartitionRatio)
	}
	if p.EdgeCaseRatio+p.PartitionRatio > 1 {
		return fmt.Errorf("corpus: edge_case_ratio + partition_ratio must be <= 1, got %v", p.EdgeCaseRatio+p.PartitionRatio)
	}
	if p.MaxCartesianCases <= 0 {
		return fmt.Errorf("corpus: max_cartesian_cases must be > 0")
	}
	return nil
}

// tuple is one case: one value per field.
type tuple []int64

func (t tuple) key() string {
	var sb strings.Builder
	for i, v := range t {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatInt(v, 10))
	}
	return sb.String()
}

func (t tuple) render() string {
	parts := make([]string, len(t))
	for i, v := range t {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return strings.Join(parts, " ") + "\n"
}

// corpusBuilder accumulates distinct tuples in insertion order.
type corpusBuilder struct {
	seen  map[string]struct{}
	items []tuple
}

func newCorpusBuilder() *corpusBuilder {
	return &corpusBuilder{seen: make(map[string]struct{})}
}

// add inserts t if not already present, returning true if it was added.
func (c *corpusBuilder) add(t tuple) bool {
	k := t.key()
	if _, ok := c.seen[k]; ok {
		return false
	}
	c.seen[k] = struct{}{}
	c.items = append(c.items, t)
	return true
}

func (c *corpusBuilder) len() int { return len(c.items) }

// Generate produces exactly min(n, corpus_capacity) deterministic input
// strings for the given bounds, seed, and n. corpus_capacity is n, so the
// result always has length min(n, n) == n unless n <= 0.
func Generate(bounds []constraints.Bounds, n int, seed uint64, pbt PbtConfig) ([]string, error) {
	if len(bounds) == 0 {
		return nil, fmt.Errorf("corpus: at least one input bound is required")
	}
	if err := pbt.Validate(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}

	b := newCorpusBuilder()

	if pbt.Enabled {
		edgeBudget := roundRatio(n, pbt.EdgeCaseRatio)
		fillEdgeCases(b, bounds, edgeBudget, pbt.MaxCartesianCases)

		partitionBudget := roundRatio(n, pbt.PartitionRatio)
		fillPartitionCases(b, bounds, partitionBudget)
	}

	fillRandomCases(b, bounds, n, seed)

	if b.len() > n {
		b.items = b.items[:n]
	}

	out := make([]string, len(b.items))
	for i, t := range b.items {
		out[i] = t.render()
	}
	return out, nil
}

func roundRatio(n int, ratio float64) int {
	return int(float64(n)*ratio + 0.5)
}

// fillEdgeCases inserts edge-case tuples in the recipe order from §4.2
// until budget distinct tuples are present or the recipes are exhausted.
func fillEdgeCases(b *corpusBuilder, bounds []constraints.Bounds, budget int, maxCartesian int) {
	if budget <= 0 {
		return
	}
	k := len(bounds)

	mids := make([]int64, k)
	mins := make([]int64, k)
	maxs := make([]int64, k)
	for i, bd := range bounds {
		mids[i] = midpoint(bd)
		mins[i] = bd.Lo
		maxs[i] = bd.Hi
	}

	tryAdd := func(t tuple) bool {
		return b.add(t) && b.len() >= budget
	}

	if tryAdd(cloneTuple(mids)) {
		return
	}
	if tryAdd(cloneTuple(mins)) {
		return
	}
	if tryAdd(cloneTuple(maxs)) {
		return
	}

	alt1 := make(tuple, k)
	alt2 := make(tuple, k)
	for i := 0; i < k; i++ {
		if i%2 == 0 {
			alt1[i], alt2[i] = mins[i], maxs[i]
		} else {
			alt1[i], alt2[i] = maxs[i], mins[i]
		}
	}
	if tryAdd(alt1) {
		return
	}
	if tryAdd(alt2) {
		return
	}

	edgeVals := make([][]int64, k)
	for i, bd := range bounds {
		edgeVals[i] = edgeValues(bd)
	}

	for i := 0; i < k; i++ {
		for _, e := range edgeVals[i] {
			t := cloneTuple(mids)
			t[i] = e
			if tryAdd(t) {
				return
			}
		}
	}

	size := 1
	overflow := false
	for _, vals := range edgeVals {
		size *= len(vals)
		if size > maxCartesian {
			overflow = true
			break
		}
	}
	if overflow || size > maxCartesian {
		return
	}

	idx := make([]int, k)
	for {
		t := make(tuple, k)
		for i := range idx {
			t[i] = edgeVals[i][idx[i]]
		}
		if tryAdd(t) {
			return
		}

		pos := k - 1
		for pos >= 0 {
			idx[pos]++
			if idx[pos] < len(edgeVals[pos]) {
				break
			}
			idx[pos] = 0
			pos--
		}
		if pos < 0 {
			return // exhausted the Cartesian product
		}
	}
}

// fillPartitionCases inserts partition-point tuples, cycling a cursor over
// each field's quartile-point list, until budget new tuples are added
// (counted relative to the corpus' size on entry) or progress stalls.
func fillPartitionCases(b *corpusBuilder, bounds []constraints.Bounds, budget int) {
	if budget <= 0 {
		return
	}
	k := len(bounds)
	points := make([][]int64, k)
	for i, bd := range bounds {
		points[i] = partitionPoints(bd)
	}

	startLen := b.len()
	target := startLen + budget
	stallLimit := 4 * budget
	stall := 0

	for c := 0; b.len() < target; c++ {
		t := make(tuple, k)
		for i := range t {
			pts := points[i]
			t[i] = pts[(c+i)%len(pts)]
		}
		if b.add(t) {
			stall = 0
		} else {
			stall++
			if stall >= stallLimit {
				return
			}
		}
	}
}

// fillRandomCases fills the remainder of the corpus, up to n, with
// uniform-random tuples drawn from a seeded stream.
func fillRandomCases(b *corpusBuilder, bounds []constraints.Bounds, n int, seed uint64) {
	s := newSampler(seed)
	// Guards against configurations whose field domains admit fewer than n
	// distinct tuples (e.g. every field pinned via "==v"): without this,
	// a corpus that can never reach n would spin forever redrawing
	// duplicates. Once the guard trips, the remainder is drawn without
	// deduplication so the corpus still reaches n.
	misses := 0
	missLimit := 1000 + n*4
	for b.len() < n && misses < missLimit {
		t := make(tuple, len(bounds))
		for i, bd := range bounds {
			t[i] = s.uniform(bd)
		}
		if b.add(t) {
			misses = 0
		} else {
			misses++
		}
	}
	for b.len() < n {
		t := make(tuple, len(bounds))
		for i, bd := range bounds {
			t[i] = s.uniform(bd)
		}
		b.items = append(b.items, t)
	}
}

func cloneTuple(src []int64) tuple {
	t := make(tuple, len(src))
	copy(t, src)
	return t
}
