// Package normalize canonicalizes program stdout for byte-wise comparison.
package normalize

import "strings"

// Config controls which canonicalization steps are applied.
type Config struct {
	TrimTrailingWS     bool
	IgnoreFinalNewline bool
}

// Apply returns the canonical form of raw per cfg:
//
//  1. every "\r\n" is replaced with "\n";
//  2. if cfg.TrimTrailingWS, each line is right-stripped;
//  3. if cfg.IgnoreFinalNewline, trailing "\n" runs are stripped entirely.
//
// Apply is idempotent: Apply(Apply(s), cfg) == Apply(s, cfg).
func Apply(raw string, cfg Config) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")

	if cfg.TrimTrailingWS {
		lines := strings.Split(s, "\n")
		for i, line := range lines {
			lines[i] = strings.TrimRight(line, " \t\v\f")
		}
		s = strings.Join(lines, "\n")
	}

	if cfg.IgnoreFinalNewline {
		s = strings.TrimRight(s, "\n")
	}

	return s
}

// Equal reports whether a and b normalize to the same string under cfg —
// the output-match relation.
func Equal(a, b string, cfg Config) bool {
	return Apply(a, cfg) == Apply(b, cfg)
}
