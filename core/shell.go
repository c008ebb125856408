// Package core runs the interactive smallsh session: it reads lines,
// dispatches builtins and spawns external programs.
package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/smallsh/core/config"
	"github.com/josephlewis42/smallsh/core/jobs"
	"github.com/josephlewis42/smallsh/core/logger"
	"github.com/josephlewis42/smallsh/core/mode"
	"github.com/josephlewis42/smallsh/core/proc"
	"github.com/josephlewis42/smallsh/core/shell"
)

// Options configures a Shell.
type Options struct {
	Config *config.Configuration

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Events receives the structured event log, nil disables it.
	Events *logger.Logger

	// Plain forces the plain line reader regardless of the configuration.
	Plain bool

	// HandleSignals installs the SIGTSTP and SIGINT handlers while Run is
	// active.
	HandleSignals bool
}

// Shell is a single interpreter session.
type Shell struct {
	// Quit is set once the shell should stop reading lines.
	Quit bool

	config  *config.Configuration
	console Console
	colors  *ColorPrinter
	events  *logger.Logger

	pid    int
	parser *shell.Parser
	limits shell.Limits

	jobs    *jobs.Registry
	mode    *mode.Controller
	spawner *proc.Spawner
	reaper  *proc.Reaper

	// status of the last foreground command.
	status proc.Outcome

	handleSignals bool
}

// NewShell creates a shell reading from opts.Stdin.
func NewShell(opts Options) (*Shell, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default(".")
	}

	var console Console
	if useLineEditor(cfg, opts.Stdin, opts.Plain) {
		rl, err := newReadlineConsole(cfg, opts.Stdin, opts.Stdout, opts.Stderr)
		if err != nil {
			return nil, fmt.Errorf("starting line editor: %w", err)
		}
		console = rl
	} else {
		console = newPlainConsole(opts.Stdin, opts.Stdout, cfg.InputBufferSize)
	}

	s := &Shell{
		config:        cfg,
		console:       console,
		colors:        NewColorPrinter(cfg.Color, opts.Stdout),
		events:        opts.Events,
		pid:           os.Getpid(),
		limits:        shell.Limits{MaxArgs: cfg.MaxArgs, MaxWordLength: cfg.MaxWordLength},
		jobs:          jobs.NewRegistry(cfg.JobCapacity),
		handleSignals: opts.HandleSignals,
	}

	announcer := &mode.WriterAnnouncer{
		W:      console,
		Format: s.colors.Notice,
	}
	if !console.Interactive() {
		// The line editor redraws its own prompt.
		announcer.Prompt = s.prompt
	}
	s.mode = mode.New(announcer, s.events)

	s.parser = &shell.Parser{
		Pid:               s.pid,
		BackgroundAllowed: s.mode.BackgroundAllowed,
	}

	s.spawner = &proc.Spawner{
		Stdin:      childStdin(opts.Stdin),
		Stdout:     opts.Stdout,
		Stderr:     opts.Stderr,
		Messages:   console,
		Jobs:       s.jobs,
		Foreground: s.mode,
		Events:     s.events,
	}

	s.reaper = &proc.Reaper{
		Jobs:     s.jobs,
		Messages: console,
		Events:   s.events,
	}

	return s, nil
}

// childStdin returns the input handed to foreground children. Input that isn't
// a file is owned by the console, children read the null device instead.
func childStdin(r io.Reader) io.Reader {
	if fd, ok := r.(*os.File); ok {
		return fd
	}
	return nil
}

func (s *Shell) prompt() string {
	return s.config.Prompt
}

// Status returns the outcome of the last foreground command.
func (s *Shell) Status() proc.Outcome {
	return s.status
}

// Jobs returns the pids of background jobs that haven't been reaped.
func (s *Shell) Jobs() []int {
	return s.jobs.Pids()
}

// Run reads and executes lines until exit is called or input ends. It
// returns the shell's exit code, 1 if the console could not be read.
func (s *Shell) Run(ctx context.Context) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.handleSignals {
		s.watchSignals(ctx)
	}

	s.events.ShellStarted(s.pid)
	if s.config.Banner {
		fmt.Fprintf(s.console, "smallsh pid: %d\n", s.pid)
	}

	exitCode := 0
	for !s.Quit {
		s.reaper.Reap()
		s.mode.Flush()

		s.console.SetPrompt(s.prompt())
		line, err := s.console.Readline()

		switch {
		case err == io.EOF:
			// Input closed, quit.
			s.Quit = true

		case err == readline.ErrInterrupt:
			// Interrupt clears line.
			continue

		case err != nil:
			fmt.Fprintln(s.console, s.colors.Error(fmt.Sprintf("smallsh: %v", err)))
			s.Quit = true
			exitCode = 1

		default:
			s.RunLine(line)
		}
	}

	s.events.ShellExited(s.jobs.Len())
	return exitCode
}

// RunLine executes a single line of input.
func (s *Shell) RunLine(line string) {
	cmd, err := s.parser.ParseLine(line, s.limits)
	if err != nil {
		s.events.InvalidInput(line, err)
		fmt.Fprintln(s.console, s.colors.Error(fmt.Sprintf("smallsh: %v", err)))
		return
	}

	if cmd.IsNoop() {
		return
	}

	if builtin, ok := AllBuiltins[cmd.Name()]; ok {
		code := builtin.Main(s, cmd.Argv)
		s.events.Builtin(cmd.Argv, code)
		return
	}

	s.events.RunCommand(cmd.Argv, cmd.InputFile, cmd.OutputFile, cmd.Background)
	if result := s.spawner.Spawn(cmd); result.Recorded {
		s.status = result.Outcome
	}
}

// watchSignals routes SIGTSTP to the mode controller and keeps SIGINT from
// terminating the shell until ctx is done.
//
// SIGINT is caught, not ignored, so children start with the default action.
func (s *Shell) watchSignals(ctx context.Context) {
	toggles := make(chan os.Signal, 1)
	signal.Notify(toggles, syscall.SIGTSTP)

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, syscall.SIGINT)

	go s.mode.Watch(ctx, toggles)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-interrupts:
			}
		}
	}()

	go func() {
		<-ctx.Done()
		signal.Stop(toggles)
		signal.Stop(interrupts)
	}()
}

// Close releases the console. Background jobs keep running.
func (s *Shell) Close() error {
	return s.console.Close()
}
