// Package constraints reduces a per-input integer constraint specification
// to an inclusive [lo, hi] bound.
package constraints

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultBoundMagnitude is the symmetric bound applied when an InputSpec
// carries neither min/max nor a range expression. Preserved from the
// reference implementation's behavior; whether this was intended as a
// permanent default or a placeholder is undocumented upstream, so it is
// exposed here as a named constant rather than buried as a literal.
const DefaultBoundMagnitude = 100

// Kind identifies the data type of an input field. Only Integer is
// supported in this version.
type Kind string

// Integer is the only supported InputSpec kind.
const Integer Kind = "integer"

// Spec is the declared shape of one problem input field, as decoded from
// configuration.
type Spec struct {
	Name  string
	Kind  Kind
	Min   *int64
	Max   *int64
	Range string
}

// Bounds is the closed interval [Lo, Hi] derived from a Spec. Immutable
// once returned by Parse.
type Bounds struct {
	Lo int64
	Hi int64
}

// ParseAll reduces every spec in order, failing fast if specs is empty or
// any entry is malformed.
func ParseAll(specs []Spec) ([]Bounds, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("constraints: problem.inputs must declare at least one input")
	}
	out := make([]Bounds, len(specs))
	for i, spec := range specs {
		b, err := Parse(spec)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// Parse reduces spec to a Bounds value.
//
// min/max prime the interval (defaulting to ±DefaultBoundMagnitude when
// both are absent and no range is given); the range expression then
// narrows it token by token. lo > hi once every token has been applied
// is fatal.
func Parse(spec Spec) (Bounds, error) {
	if spec.Kind != Integer {
		return Bounds{}, fmt.Errorf("constraints: unsupported input kind %q for %q", spec.Kind, spec.Name)
	}

	b := Bounds{Lo: -DefaultBoundMagnitude, Hi: DefaultBoundMagnitude}
	if spec.Min != nil {
		b.Lo = *spec.Min
	}
	if spec.Max != nil {
		b.Hi = *spec.Max
	}
	if spec.Min == nil && spec.Max == nil && spec.Range == "" {
		// keep the default symmetric bound
	}

	if spec.Range != "" {
		var err error
		b, err = applyRange(b, spec.Range)
		if err != nil {
			return Bounds{}, fmt.Errorf("constraints: %q: %w", spec.Name, err)
		}
	}

	if b.Lo > b.Hi {
		return Bounds{}, fmt.Errorf("constraints: %q: empty interval [%d, %d]", spec.Name, b.Lo, b.Hi)
	}
	return b, nil
}

// applyRange tokenizes and applies a range expression, in order, to b.
func applyRange(b Bounds, expr string) (Bounds, error) {
	for _, tok := range splitTokens(expr) {
		op, value, err := parseToken(tok)
		if err != nil {
			return Bounds{}, err
		}
		switch op {
		case ">=":
			b.Lo = max64(b.Lo, value)
		case ">":
			b.Lo = max64(b.Lo, value+1)
		case "<=":
			b.Hi = min64(b.Hi, value)
		case "<":
			b.Hi = min64(b.Hi, value-1)
		case "==":
			b.Lo, b.Hi = value, value
		}
	}
	if b.Lo > b.Hi {
		return Bounds{}, fmt.Errorf("contradictory range %q produced empty interval [%d, %d]", expr, b.Lo, b.Hi)
	}
	return b, nil
}

// splitTokens splits a range expression on ',' or '&', trims whitespace,
// and drops empty tokens.
func splitTokens(expr string) []string {
	replaced := strings.Map(func(r rune) rune {
		if r == '&' {
			return ','
		}
		return r
	}, expr)

	var out []string
	for _, raw := range strings.Split(replaced, ",") {
		tok := strings.TrimSpace(raw)
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// ops is tried in this order so two-character operators match before the
// single-character operators that are their prefixes.
var ops = []string{">=", "<=", "==", "<", ">"}

// parseToken splits a single "op value" token into its operator and
// signed decimal value.
func parseToken(tok string) (op string, value int64, err error) {
	for _, candidate := range ops {
		if strings.HasPrefix(tok, candidate) {
			rest := strings.TrimSpace(tok[len(candidate):])
			v, perr := strconv.ParseInt(rest, 10, 64)
			if perr != nil {
				return "", 0, fmt.Errorf("malformed range token %q: %w", tok, perr)
			}
			return candidate, v, nil
		}
	}
	return "", 0, fmt.Errorf("malformed range token %q: no recognized operator", tok)
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
