package normalize_test

import (
	"testing"

	"github.com/jihwankim/nado/pkg/normalize"
	"github.com/stretchr/testify/assert"
)

func TestApply_CRLF(t *testing.T) {
	assert.Equal(t, "a\nb\n", normalize.Apply("a\r\nb\r\n", normalize.Config{}))
}

func TestApply_TrimTrailingWS(t *testing.T) {
	got := normalize.Apply("a  \nb\t\n", normalize.Config{TrimTrailingWS: true})
	assert.Equal(t, "a\nb\n", got)
}

func TestApply_IgnoreFinalNewline(t *testing.T) {
	got := normalize.Apply("a\nb\n\n\n", normalize.Config{IgnoreFinalNewline: true})
	assert.Equal(t, "a\nb", got)
}

func TestApply_Idempotent(t *testing.T) {
	cfg := normalize.Config{TrimTrailingWS: true, IgnoreFinalNewline: true}
	for _, s := range []string{"a\r\nb  \n\n", "", "no newline", "x\n\n\n  \n"} {
		once := normalize.Apply(s, cfg)
		twice := normalize.Apply(once, cfg)
		assert.Equal(t, once, twice, "not idempotent for %q", s)
	}
}

func TestEqual(t *testing.T) {
	cfg := normalize.Config{TrimTrailingWS: true, IgnoreFinalNewline: true}
	assert.True(t, normalize.Equal("1 2\r\n", "1 2\n\n", cfg))
	assert.False(t, normalize.Equal("1 2\n", "1 3\n", cfg))
}
