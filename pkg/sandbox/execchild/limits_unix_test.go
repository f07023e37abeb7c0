//go:build unix

package execchild

import (
	"fmt"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// applyLimits lowers both the soft and hard rlimit together, which an
// unprivileged process can never raise back. Exercising it against the
// real test process would permanently cap this binary's own file
// descriptor limit for the rest of the run, so this re-execs the test
// binary as a throwaway helper process instead, the same pattern
// os/exec's own tests use for anything that mutates process-global
// state.
const helperEnv = "NADO_EXECCHILD_TEST_HELPER"

func TestApplyLimits_SetsNoFile(t *testing.T) {
	if os.Getenv(helperEnv) == "1" {
		if err := applyLimits(Spec{NoFile: 64}); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		var rl unix.Rlimit
		if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(rl.Cur)
		os.Exit(0)
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestApplyLimits_SetsNoFile$", "-test.v=false")
	cmd.Env = append(os.Environ(), helperEnv+"=1")
	out, err := cmd.Output()
	require.NoError(t, err)
	assert.Equal(t, "64\n", string(out))
}

func TestApplyLimits_ZeroFieldsAreNoOps(t *testing.T) {
	assert.NoError(t, applyLimits(Spec{}))
}
