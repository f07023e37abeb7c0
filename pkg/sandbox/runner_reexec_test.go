package sandbox

import (
	"os"
	"testing"

	"github.com/jihwankim/nado/pkg/sandbox/execchild"
)

// TestMain intercepts this test binary being invoked as the runner's own
// self-reexec target. runLocal resolves os.Executable() and spawns it
// again with execchild.Subcommand as its sole argument whenever
// Limits.Enforced() is true (see runLocal in runner.go); when that
// binary is this package's test binary rather than cmd/nado, there is
// no cobra command wired up to handle that hidden verb. Recognizing it
// here lets TestRun_EnforcesNoFileLimit exercise the real rlimit
// re-exec path end to end without building cmd/nado.
func TestMain(m *testing.M) {
	if len(os.Args) > 1 && os.Args[1] == execchild.Subcommand {
		if err := execchild.Main(); err != nil {
			os.Stderr.WriteString(err.Error() + "\n")
			os.Exit(1)
		}
		os.Exit(0)
	}
	os.Exit(m.Run())
}
