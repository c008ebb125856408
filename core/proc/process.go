// Package proc starts external programs and observes how they end.
package proc

import (
	"errors"
	"fmt"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// Outcome describes how a process terminated.
type Outcome struct {
	// Signaled is true if the process was killed by a signal.
	Signaled bool
	// Code holds the exit value, or the signal number if Signaled is set.
	Code int
}

// Exited builds the Outcome of a process that exited with code.
func Exited(code int) Outcome {
	return Outcome{Code: code}
}

// Killed builds the Outcome of a process terminated by sig.
func Killed(sig syscall.Signal) Outcome {
	return Outcome{Signaled: true, Code: int(sig)}
}

// String formats the outcome the way the status builtin reports it.
func (o Outcome) String() string {
	if o.Signaled {
		return fmt.Sprintf("terminated by signal %d", o.Code)
	}
	return fmt.Sprintf("exit value %d", o.Code)
}

// FromWaitStatus classifies a raw wait status.
func FromWaitStatus(ws syscall.WaitStatus) Outcome {
	switch {
	case ws.Signaled():
		return Killed(ws.Signal())
	default:
		return Exited(ws.ExitStatus())
	}
}

// Process is a handle on a child of this shell.
//
// Foreground and background children are observed differently: WaitBlocking
// parks the caller until the child ends while PollNonBlocking only checks.
type Process struct {
	pid int
	cmd *exec.Cmd
}

// Attach returns a handle for a child that was started earlier and is only
// known by its pid.
func Attach(pid int) *Process {
	return &Process{pid: pid}
}

func newProcess(cmd *exec.Cmd) *Process {
	return &Process{pid: cmd.Process.Pid, cmd: cmd}
}

// Pid returns the process ID of the child.
func (p *Process) Pid() int {
	return p.pid
}

// WaitBlocking waits until the child terminates.
func (p *Process) WaitBlocking() (Outcome, error) {
	if p.cmd != nil {
		// exec.Cmd.Wait also drains any I/O copying goroutines.
		err := p.cmd.Wait()
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			return Outcome{}, err
		}
		return outcomeOf(p.cmd), nil
	}

	var ws unix.WaitStatus
	for {
		_, err := unix.Wait4(p.pid, &ws, 0, nil)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case err != nil:
			return Outcome{}, fmt.Errorf("wait for %d: %w", p.pid, err)
		}
		return FromWaitStatus(syscall.WaitStatus(ws)), nil
	}
}

// PollNonBlocking checks whether the child terminated without waiting for it.
// The boolean is false while the child is still running.
func (p *Process) PollNonBlocking() (Outcome, bool, error) {
	var ws unix.WaitStatus
	for {
		wpid, err := unix.Wait4(p.pid, &ws, unix.WNOHANG, nil)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case err != nil:
			return Outcome{}, false, fmt.Errorf("poll %d: %w", p.pid, err)
		case wpid == 0:
			return Outcome{}, false, nil
		}

		if p.cmd != nil {
			_ = p.cmd.Process.Release()
		}
		return FromWaitStatus(syscall.WaitStatus(ws)), true, nil
	}
}

func outcomeOf(cmd *exec.Cmd) Outcome {
	if ws, ok := cmd.ProcessState.Sys().(syscall.WaitStatus); ok {
		return FromWaitStatus(ws)
	}
	return Exited(cmd.ProcessState.ExitCode())
}
