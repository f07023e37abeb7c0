//go:build !unix

package execchild

import (
	"fmt"
	"os"
	"os/exec"
)

// applyLimits is a no-op on platforms without POSIX rlimits. Callers
// (pkg/sandbox) are expected to treat limit enforcement as best-effort
// and not to rely on it for sandboxing on these platforms.
func applyLimits(spec Spec) error {
	return nil
}

// execInPlace has no in-place exec primitive outside POSIX, so it spawns
// argv as a child and forwards its exit code via os.Exit — the closest
// equivalent available.
func execInPlace(argv []string) error {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	err := cmd.Run()
	if exitErr, ok := err.(*exec.ExitError); ok {
		os.Exit(exitErr.ExitCode())
	}
	if err != nil {
		return fmt.Errorf("execchild: spawn %q: %w", argv[0], err)
	}
	os.Exit(0)
	return nil
}
