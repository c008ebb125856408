package proc

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"syscall"
	"unicode"
	"unicode/utf8"

	"github.com/josephlewis42/smallsh/core/jobs"
	"github.com/josephlewis42/smallsh/core/logger"
	"github.com/josephlewis42/smallsh/core/shell"
)

// Foreground is notified while the shell is blocked on a foreground child.
type Foreground interface {
	BeginForeground(pid int)
	EndForeground()
}

// Result describes a single Spawn call.
type Result struct {
	// Pid of the started child, 0 if none was started.
	Pid int
	// Background is true if the child was registered as a job.
	Background bool

	// Outcome holds the new execution status if Recorded is set.
	Outcome  Outcome
	Recorded bool
}

// Spawner starts external programs for the shell.
type Spawner struct {
	// Standard streams handed to foreground children.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Messages receives operator facing notices such as background pids.
	Messages io.Writer

	Jobs       *jobs.Registry
	Foreground Foreground
	Events     *logger.Logger

	// Env holds the child environment, nil inherits the shell's.
	Env []string
}

// Spawn starts the program named by cmd.Argv[0].
//
// Background children are registered in Jobs and left running. Foreground
// children are waited on and their outcome returned in the Result.
func (s *Spawner) Spawn(cmd shell.ParsedCommand) Result {
	name := cmd.Name()

	stdin, stdout, closeFiles, err := s.openRedirections(cmd)
	defer closeFiles()
	if err != nil {
		fmt.Fprintln(s.Messages, err)
		s.Events.RedirectFailed(cmd.Argv, err)
		return s.failed(cmd)
	}

	child := exec.Command(name, cmd.Argv[1:]...)
	child.Env = s.Env
	child.Stdin = stdin
	child.Stdout = stdout
	child.Stderr = s.Stderr
	if cmd.Background {
		// Keep terminal generated signals for the foreground job only.
		child.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
		child.Stderr = fileOrNil(s.Stderr)
	}

	if err := child.Start(); err != nil {
		s.Events.SpawnFailed(cmd.Argv, err)
		if isForkFailure(err) {
			fmt.Fprintf(s.Messages, "fork: %s\n", DescribeError(err))
			return Result{}
		}
		fmt.Fprintf(s.Messages, "%s: %s\n", name, DescribeError(err))
		return s.failed(cmd)
	}

	process := newProcess(child)
	if cmd.Background {
		return s.background(cmd, process)
	}
	return s.foreground(cmd, process)
}

func (s *Spawner) background(cmd shell.ParsedCommand, process *Process) Result {
	pid := process.Pid()
	fmt.Fprintf(s.Messages, "background pid is %d\n", pid)

	// The reaper polls by pid alone.
	_ = process.cmd.Process.Release()
	s.Jobs.Add(pid)
	s.Events.BackgroundStarted(pid, cmd.Argv)

	return Result{Pid: pid, Background: true}
}

func (s *Spawner) foreground(cmd shell.ParsedCommand, process *Process) Result {
	pid := process.Pid()

	if s.Foreground != nil {
		s.Foreground.BeginForeground(pid)
	}
	outcome, err := process.WaitBlocking()
	if s.Foreground != nil {
		s.Foreground.EndForeground()
	}

	if err != nil {
		fmt.Fprintf(s.Messages, "%s: %s\n", cmd.Name(), DescribeError(err))
		s.Events.SpawnFailed(cmd.Argv, err)
		return Result{Pid: pid}
	}

	if outcome.Signaled {
		fmt.Fprintln(s.Messages, outcome)
	}
	s.Events.ForegroundFinished(pid, cmd.Argv, outcome.Signaled, outcome.Code)

	return Result{Pid: pid, Outcome: outcome, Recorded: true}
}

// failed is the result of a command whose child could not run the program,
// which exits with status 1.
func (s *Spawner) failed(cmd shell.ParsedCommand) Result {
	if cmd.Background {
		return Result{}
	}
	return Result{Outcome: Exited(1), Recorded: true}
}

// RedirectError is returned when a redirection target can't be opened.
type RedirectError struct {
	Path      string
	Direction string
	Err       error
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("cannot open %s for %s", e.Path, e.Direction)
}

func (e *RedirectError) Unwrap() error {
	return e.Err
}

func (s *Spawner) openRedirections(cmd shell.ParsedCommand) (stdin io.Reader, stdout io.Writer, closer func(), err error) {
	var opened []*os.File
	closer = func() {
		for _, fd := range opened {
			fd.Close()
		}
	}

	stdin, stdout = s.Stdin, s.Stdout

	switch {
	case cmd.InputFile != "":
		fd, err := os.Open(cmd.InputFile)
		if err != nil {
			return nil, nil, closer, &RedirectError{Path: cmd.InputFile, Direction: "input", Err: err}
		}
		opened = append(opened, fd)
		stdin = fd
	case cmd.Background:
		fd, err := os.Open(os.DevNull)
		if err != nil {
			return nil, nil, closer, &RedirectError{Path: os.DevNull, Direction: "input", Err: err}
		}
		opened = append(opened, fd)
		stdin = fd
	}

	switch {
	case cmd.OutputFile != "":
		fd, err := os.OpenFile(cmd.OutputFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
		if err != nil {
			return nil, nil, closer, &RedirectError{Path: cmd.OutputFile, Direction: "output", Err: err}
		}
		opened = append(opened, fd)
		stdout = fd
	case cmd.Background:
		fd, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		if err != nil {
			return nil, nil, closer, &RedirectError{Path: os.DevNull, Direction: "output", Err: err}
		}
		opened = append(opened, fd)
		stdout = fd
	}

	return stdin, stdout, closer, nil
}

func fileOrNil(w io.Writer) io.Writer {
	if fd, ok := w.(*os.File); ok {
		return fd
	}
	return nil
}

func isForkFailure(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.ENOMEM)
}

// DescribeError renders err the way strerror(3) would, starting lowercase.
func DescribeError(err error) string {
	var errno syscall.Errno
	var msg string
	switch {
	case errors.Is(err, exec.ErrNotFound):
		msg = syscall.ENOENT.Error()
	case errors.As(err, &errno):
		msg = errno.Error()
	case errors.Is(err, fs.ErrPermission):
		msg = syscall.EACCES.Error()
	default:
		msg = err.Error()
	}
	return lowerFirst(msg)
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
