package logger

import (
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EventType names a kind of logged event.
type EventType string

const (
	EventShellStart      EventType = "shell_start"
	EventShellExit       EventType = "shell_exit"
	EventRunCommand      EventType = "run_command"
	EventBuiltin         EventType = "builtin"
	EventInvalidInput    EventType = "invalid_input"
	EventBackgroundStart EventType = "background_start"
	EventForegroundDone  EventType = "foreground_done"
	EventJobReaped       EventType = "job_reaped"
	EventReapFailed      EventType = "reap_failed"
	EventSpawnFailed     EventType = "spawn_failed"
	EventRedirectFailed  EventType = "redirect_failed"
	EventModeToggle      EventType = "mode_toggle"
)

// Logger records shell events for a single session.
//
// A nil *Logger is valid and discards everything.
type Logger struct {
	zl        zerolog.Logger
	sessionID string
}

// NewJSONLinesLogger creates a Logger that exports events in newline
// delimited JSON object format, tagged with a fresh session ID.
func NewJSONLinesLogger(w io.Writer) *Logger {
	sessionID := uuid.NewString()
	return &Logger{
		zl:        zerolog.New(w).With().Timestamp().Str("session_id", sessionID).Logger(),
		sessionID: sessionID,
	}
}

// Nop returns a Logger that drops all events.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// SessionID returns the ID attached to every event.
func (l *Logger) SessionID() string {
	if l == nil {
		return ""
	}
	return l.sessionID
}

func (l *Logger) event(t EventType) *zerolog.Event {
	if l == nil {
		return nil
	}
	// zerolog events are nil safe, a disabled logger yields nil here.
	return l.zl.Info().Str("event", string(t))
}

func (l *Logger) ShellStarted(pid int) {
	l.event(EventShellStart).Int("pid", pid).Send()
}

func (l *Logger) ShellExited(runningJobs int) {
	l.event(EventShellExit).Int("running_jobs", runningJobs).Send()
}

// RunCommand records a parsed command line before it is dispatched.
func (l *Logger) RunCommand(argv []string, input, output string, background bool) {
	l.event(EventRunCommand).
		Strs("argv", argv).
		Str("input", input).
		Str("output", output).
		Bool("background", background).
		Send()
}

func (l *Logger) Builtin(argv []string, code int) {
	l.event(EventBuiltin).Strs("argv", argv).Int("code", code).Send()
}

func (l *Logger) InvalidInput(line string, err error) {
	l.event(EventInvalidInput).Str("line", line).Err(err).Send()
}

func (l *Logger) BackgroundStarted(pid int, argv []string) {
	l.event(EventBackgroundStart).Int("pid", pid).Strs("argv", argv).Send()
}

func (l *Logger) ForegroundFinished(pid int, argv []string, signaled bool, code int) {
	l.event(EventForegroundDone).
		Int("pid", pid).
		Strs("argv", argv).
		Bool("signaled", signaled).
		Int("code", code).
		Send()
}

func (l *Logger) JobReaped(pid int, signaled bool, code int) {
	l.event(EventJobReaped).Int("pid", pid).Bool("signaled", signaled).Int("code", code).Send()
}

func (l *Logger) ReapFailed(pid int, err error) {
	l.event(EventReapFailed).Int("pid", pid).Err(err).Send()
}

func (l *Logger) SpawnFailed(argv []string, err error) {
	l.event(EventSpawnFailed).Strs("argv", argv).Err(err).Send()
}

func (l *Logger) RedirectFailed(argv []string, err error) {
	l.event(EventRedirectFailed).Strs("argv", argv).Err(err).Send()
}

// ModeToggled records a flip of foreground-only mode. Deferred is set when
// the announcement had to wait for a foreground process.
func (l *Logger) ModeToggled(backgroundAllowed, deferred bool) {
	l.event(EventModeToggle).
		Bool("background_allowed", backgroundAllowed).
		Bool("deferred", deferred).
		Send()
}
