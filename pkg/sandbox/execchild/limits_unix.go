//go:build unix

package execchild

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// applyLimits sets the POSIX rlimits named in spec on the current process.
// An unset (zero) field is left at whatever the parent process inherited.
// EINVAL from the kernel (a limit the platform does not recognize, or a
// hard cap already below the requested soft value) is tolerated rather
// than fatal, per §4.4: a best-effort sandbox is better than none.
func applyLimits(spec Spec) error {
	set := func(resource int, cur, max uint64) error {
		err := unix.Setrlimit(resource, &unix.Rlimit{Cur: cur, Max: max})
		if err != nil && err != unix.EINVAL {
			return err
		}
		return nil
	}

	if spec.CPU > 0 {
		if err := set(unix.RLIMIT_CPU, uint64(spec.CPU), uint64(spec.CPU)); err != nil {
			return fmt.Errorf("RLIMIT_CPU: %w", err)
		}
	}
	if spec.ASMB > 0 {
		bytes := uint64(spec.ASMB) * 1024 * 1024
		if err := set(unix.RLIMIT_AS, bytes, bytes); err != nil {
			return fmt.Errorf("RLIMIT_AS: %w", err)
		}
	}
	if spec.FSizeK > 0 {
		bytes := uint64(spec.FSizeK) * 1024
		if err := set(unix.RLIMIT_FSIZE, bytes, bytes); err != nil {
			return fmt.Errorf("RLIMIT_FSIZE: %w", err)
		}
	}
	if spec.NoFile > 0 {
		if err := set(unix.RLIMIT_NOFILE, uint64(spec.NoFile), uint64(spec.NoFile)); err != nil {
			return fmt.Errorf("RLIMIT_NOFILE: %w", err)
		}
	}
	if spec.NProc > 0 {
		if err := set(unix.RLIMIT_NPROC, uint64(spec.NProc), uint64(spec.NProc)); err != nil {
			return fmt.Errorf("RLIMIT_NPROC: %w", err)
		}
	}
	return nil
}

// execInPlace replaces the current process image with argv, inheriting
// fd 0-2 and the current environment.
func execInPlace(argv []string) error {
	path, err := lookPath(argv[0])
	if err != nil {
		return err
	}
	return syscall.Exec(path, argv, os.Environ())
}
