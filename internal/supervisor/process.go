package supervisor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// outputDrainDelay bounds how long output pipes stay open after the bridge
// itself exited. Descendants that inherited stdout would otherwise keep the
// readers blocked.
const outputDrainDelay = 2 * time.Second

// execCommand is a package variable so tests can observe command construction.
var execCommand = exec.Command

// ProcessSpec is a fully rendered bridge invocation for one backend.
type ProcessSpec struct {
	Backend string
	Command string
	Args    []string
	// Env holds KEY=VALUE pairs appended to the hub's own environment.
	Env []string
}

// Process is a running bridge subprocess owned by the supervisor.
type Process interface {
	PID() int
	Stdout() io.Reader
	Stderr() io.Reader
	// Wait blocks until the process exits and returns its exit code. It may
	// run while Stdout and Stderr are still being read; both readers reach
	// EOF or fail shortly after Wait returns.
	Wait() (int, error)
	// Terminate asks the process group to stop without waiting.
	Terminate() error
	// Kill forcibly stops the process group.
	Kill() error
}

// Launcher starts bridge processes.
type Launcher interface {
	Launch(spec ProcessSpec) (Process, error)
}

// ExecLauncher starts bridge processes with os/exec, each in its own process
// group so teardown reaches any children the bridge spawns.
type ExecLauncher struct{}

// Launch implements Launcher.
func (ExecLauncher) Launch(spec ProcessSpec) (Process, error) {
	cmd := execCommand(spec.Command, spec.Args...)
	cmd.Env = append(os.Environ(), spec.Env...)
	configureProcAttr(cmd)

	// The read ends stay ours: cmd.Wait must not close them mid-stream.
	stdout, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, stderrW, err := os.Pipe()
	if err != nil {
		closeAll(stdout, stdoutW)
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	err = cmd.Start()
	closeAll(stdoutW, stderrW)
	if err != nil {
		closeAll(stdout, stderr)
		return nil, fmt.Errorf("failed to start %s: %w", spec.Command, err)
	}

	return &execProcess{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

type execProcess struct {
	cmd    *exec.Cmd
	stdout *os.File
	stderr *os.File
}

func (p *execProcess) PID() int          { return p.cmd.Process.Pid }
func (p *execProcess) Stdout() io.Reader { return p.stdout }
func (p *execProcess) Stderr() io.Reader { return p.stderr }

func (p *execProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	time.AfterFunc(outputDrainDelay, func() { closeAll(p.stdout, p.stderr) })
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

func (p *execProcess) Terminate() error {
	return terminateProcessGroup(p.cmd)
}

func (p *execProcess) Kill() error {
	return killProcessGroup(p.cmd)
}
