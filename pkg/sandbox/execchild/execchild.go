// Package execchild implements the re-exec helper that applies POSIX
// resource limits between fork and exec.
//
// Go's os/exec does not expose a "between fork and exec" hook the way a
// raw C fork/exec loop (or posix_spawn_file_actions) would, so the
// runner spawns this same binary again with the hidden subcommand name,
// passing the real argv and the limits to apply over a dedicated pipe
// file descriptor (not argv or env, to avoid size and quoting limits).
// This process then applies the limits and replaces itself in-place with
// the real target via syscall.Exec — the same "re-exec, then call
// syscall.Exec" shape container runtimes use ahead of handing control to
// a container's real entrypoint.
package execchild

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Subcommand is the hidden CLI verb the parent process spawns this
// binary with. cmd/nado wires this to a hidden cobra command that calls
// Main and never returns on success (syscall.Exec replaces the process
// image).
const Subcommand = "__nado_exec_child"

// SpecFD is the file descriptor the Spec is read from. fd 0-2 are left
// as stdin/stdout/stderr pipes to the eventual target; fd 3 is the first
// one available via exec.Cmd.ExtraFiles.
const SpecFD = 3

// Spec is the JSON payload written to SpecFD by the parent.
type Spec struct {
	Argv   []string `json:"argv"`
	Dir    string   `json:"dir"`
	CPU    int64    `json:"cpu_seconds"`
	ASMB   int64    `json:"as_mb"`
	FSizeK int64    `json:"fsize_kb"`
	NoFile int64    `json:"nofile"`
	NProc  int64    `json:"nproc"`
}

// Encode writes spec as JSON to w.
func Encode(w io.Writer, spec Spec) error {
	return json.NewEncoder(w).Encode(spec)
}

// Decode reads a Spec as JSON from r.
func Decode(r io.Reader) (Spec, error) {
	var spec Spec
	if err := json.NewDecoder(r).Decode(&spec); err != nil {
		return Spec{}, fmt.Errorf("execchild: decode spec: %w", err)
	}
	if len(spec.Argv) == 0 {
		return Spec{}, fmt.Errorf("execchild: empty argv in spec")
	}
	return spec, nil
}

// Main is invoked by cmd/nado's hidden subcommand. It reads the Spec from
// fd SpecFD, applies the requested resource limits to the current
// (about-to-be-replaced) process, chdirs to spec.Dir, then execs
// spec.Argv in place. It only returns on error — on success the process
// image is replaced and this function never returns.
func Main() error {
	f := os.NewFile(uintptr(SpecFD), "specfd")
	defer f.Close()

	spec, err := Decode(f)
	if err != nil {
		return err
	}

	if err := applyLimits(spec); err != nil {
		return fmt.Errorf("execchild: apply limits: %w", err)
	}

	if spec.Dir != "" {
		if err := os.Chdir(spec.Dir); err != nil {
			return fmt.Errorf("execchild: chdir %q: %w", spec.Dir, err)
		}
	}

	return execInPlace(spec.Argv)
}
