package execchild

import "os/exec"

// lookPath resolves name against PATH unless it already contains a path
// separator, mirroring exec.Command's own resolution so the re-exec'd
// binary matches what a direct os/exec invocation would have run.
func lookPath(name string) (string, error) {
	return exec.LookPath(name)
}
