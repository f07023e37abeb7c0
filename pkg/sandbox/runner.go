package sandbox

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/jihwankim/nado/pkg/sandbox/execchild"
)

// Run executes prog once against input and returns its captured output.
// In local mode cwd becomes the child's working directory; prog.Mounts
// arrive already resolved (see ParseMount). defaultTimeout applies when prog.Timeout is
// zero. In container mode, limits.MemoryMB and limits.NProc surface as
// `docker run --memory`/`--pids-limit`; setrlimit is never applied there
// since the container boundary is the isolation mechanism.
func Run(prog Program, input []byte, cwd string, defaultTimeout time.Duration, limits *Limits) (RunOutput, error) {
	if len(prog.Argv) == 0 {
		return RunOutput{}, fmt.Errorf("sandbox: program %q has empty argv", prog.Name)
	}

	timeout := prog.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	if prog.Image != "" {
		return runContainer(prog, input, timeout, limits)
	}
	return runLocal(prog, input, cwd, timeout, limits)
}

func runLocal(prog Program, input []byte, cwd string, timeout time.Duration, limits *Limits) (RunOutput, error) {
	argv := substituteArgv(prog.Argv, prog.Mounts)

	var cmd *exec.Cmd
	var specW *os.File
	var specR *os.File

	if limits.Enforced() {
		self, err := os.Executable()
		if err != nil {
			return RunOutput{}, fmt.Errorf("sandbox: resolve self executable: %w", err)
		}
		r, w, err := os.Pipe()
		if err != nil {
			return RunOutput{}, fmt.Errorf("sandbox: create spec pipe: %w", err)
		}
		specR, specW = r, w
		cmd = exec.Command(self, execchild.Subcommand)
		cmd.ExtraFiles = []*os.File{specR}
	} else {
		cmd = exec.Command(argv[0], argv[1:]...)
		cmd.Dir = cwd
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return RunOutput{}, fmt.Errorf("sandbox: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return RunOutput{}, fmt.Errorf("sandbox: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return RunOutput{}, fmt.Errorf("sandbox: stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return RunOutput{}, fmt.Errorf("sandbox: start %q: %w", prog.Name, err)
	}
	untrack := DefaultTracker.track(cmd.Process)
	defer untrack()

	if specW != nil {
		// The child inherited its own dup of specR across fork; the
		// parent's copy must close so the pipe's write end is the only
		// thing keeping it open once specW is also closed below.
		specR.Close()
		spec := execchild.Spec{
			Argv:   argv,
			Dir:    cwd,
			CPU:    limits.CPUSeconds,
			ASMB:   limits.MemoryMB,
			FSizeK: limits.FileSizeKB,
			NoFile: limits.NoFile,
			NProc:  limits.NProc,
		}
		if err := execchild.Encode(specW, spec); err != nil {
			specW.Close()
			cmd.Process.Kill()
			cmd.Wait()
			return RunOutput{}, fmt.Errorf("sandbox: send exec spec: %w", err)
		}
		specW.Close()
	}

	return await(cmd, stdin, stdout, stderr, input, timeout)
}

func runContainer(prog Program, input []byte, timeout time.Duration, limits *Limits) (RunOutput, error) {
	args := []string{"run", "--rm", "-i", "--network", "none"}
	if limits != nil && limits.MemoryMB > 0 {
		args = append(args, "--memory", fmt.Sprintf("%dm", limits.MemoryMB))
	}
	if limits != nil && limits.NProc > 0 {
		args = append(args, "--pids-limit", fmt.Sprintf("%d", limits.NProc))
	}
	args = append(args, volumeArgs(prog.Mounts)...)
	args = append(args, prog.Image)
	args = append(args, prog.Argv...)

	cmd := exec.Command("docker", args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return RunOutput{}, fmt.Errorf("sandbox: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return RunOutput{}, fmt.Errorf("sandbox: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return RunOutput{}, fmt.Errorf("sandbox: stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return RunOutput{}, fmt.Errorf("sandbox: start container %q: %w", prog.Image, err)
	}
	untrack := DefaultTracker.track(cmd.Process)
	defer untrack()

	return await(cmd, stdin, stdout, stderr, input, timeout)
}

// await writes input to stdin, drains stdout/stderr concurrently with
// the wait (required: a program that writes more than the pipe buffer
// before reading stdin would otherwise deadlock against a blocking
// parent), and enforces timeout by killing and reaping the process.
func await(cmd *exec.Cmd, stdin io.WriteCloser, stdout, stderr io.Reader, input []byte, timeout time.Duration) (RunOutput, error) {
	var outBuf, errBuf bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		io.Copy(&outBuf, stdout)
	}()
	go func() {
		defer wg.Done()
		io.Copy(&errBuf, stderr)
	}()
	go func() {
		defer stdin.Close()
		stdin.Write(input)
	}()

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	timedOut := false
	select {
	case <-timer.C:
		timedOut = true
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
		<-waitCh
	case err := <-waitCh:
		if err != nil {
			if _, ok := err.(*exec.ExitError); !ok {
				wg.Wait()
				return RunOutput{}, fmt.Errorf("sandbox: wait: %w", err)
			}
		}
	}
	wg.Wait()

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}

	return RunOutput{
		ExitCode: exitCode,
		Stdout:   outBuf.Bytes(),
		Stderr:   errBuf.Bytes(),
		TimedOut: timedOut,
	}, nil
}

// StdoutString lossily decodes Stdout as UTF-8, replacing any invalid
// byte sequence with U+FFFD so downstream comparison never panics or
// silently truncates on binary noise from a misbehaving candidate.
func (r RunOutput) StdoutString() string {
	return strings.ToValidUTF8(string(r.Stdout), "�")
}

// StderrString is StdoutString for Stderr.
func (r RunOutput) StderrString() string {
	return strings.ToValidUTF8(string(r.Stderr), "�")
}
