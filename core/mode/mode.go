// Package mode implements the shell's foreground-only mode.
//
// The mode is flipped by an external signal (SIGTSTP) which may arrive while
// the shell is blocked on a foreground child. Announcing the change at that
// moment would interleave with the child's output, so the message is held
// back until the interpreter loop calls Flush.
package mode

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/josephlewis42/smallsh/core/logger"
	"golang.org/x/sys/unix"
)

const (
	EnterMessage = "Entering foreground-only mode (& is now ignored)"
	ExitMessage  = "Exiting foreground-only mode"
)

// Announcer prints mode change notices.
type Announcer interface {
	// Announce prints msg. Interrupting is true if the notice was triggered
	// asynchronously while the user may already be looking at a prompt.
	Announce(msg string, interrupting bool)
}

// WriterAnnouncer prints notices on a writer surrounded by newlines, redrawing
// the prompt after an interrupting notice.
type WriterAnnouncer struct {
	W io.Writer
	// Prompt, if set, is printed again after interrupting notices.
	Prompt func() string
	// Format, if set, decorates the message, e.g. with color.
	Format func(string) string
}

var _ Announcer = (*WriterAnnouncer)(nil)

// Announce implements Announcer.
func (w *WriterAnnouncer) Announce(msg string, interrupting bool) {
	if w.Format != nil {
		msg = w.Format(msg)
	}
	fmt.Fprintf(w.W, "\n%s\n", msg)
	if interrupting && w.Prompt != nil {
		fmt.Fprint(w.W, w.Prompt())
	}
}

// Controller owns the foreground-only flag.
type Controller struct {
	announcer Announcer
	events    *logger.Logger

	mu        sync.Mutex
	allowed   bool
	announced bool

	// foreground holds the pid of the child the shell is blocked on, 0 if
	// none.
	foreground atomic.Int64

	// Resume continues a stopped foreground child. Defaults to sending
	// SIGCONT.
	Resume func(pid int) error
}

// New creates a Controller with background execution allowed.
func New(announcer Announcer, events *logger.Logger) *Controller {
	return &Controller{
		announcer: announcer,
		events:    events,
		allowed:   true,
		announced: true,
		Resume: func(pid int) error {
			return unix.Kill(pid, unix.SIGCONT)
		},
	}
}

// BackgroundAllowed reports whether a trailing & may take effect.
func (c *Controller) BackgroundAllowed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allowed
}

// BeginForeground marks the shell as blocked on the child pid.
func (c *Controller) BeginForeground(pid int) {
	c.foreground.Store(int64(pid))
}

// EndForeground clears the mark set by BeginForeground.
func (c *Controller) EndForeground() {
	c.foreground.Store(0)
}

// ForegroundActive reports whether the shell is blocked on a foreground
// child.
func (c *Controller) ForegroundActive() bool {
	return c.foreground.Load() != 0
}

// Toggle flips foreground-only mode.
//
// Without a foreground child the change is announced right away. Otherwise
// the announcement is left for Flush, and the child is resumed in case the
// same keypress stopped it.
func (c *Controller) Toggle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.allowed = !c.allowed

	if pid := int(c.foreground.Load()); pid != 0 {
		c.events.ModeToggled(c.allowed, true)
		if c.Resume != nil {
			_ = c.Resume(pid)
		}
		return
	}

	c.events.ModeToggled(c.allowed, false)
	c.announceLocked(true)
}

// Flush prints a notice held back by Toggle, if any. It is called by the
// interpreter loop before each prompt.
func (c *Controller) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.announceLocked(false)
}

func (c *Controller) announceLocked(interrupting bool) {
	if c.allowed == c.announced {
		return
	}

	msg := ExitMessage
	if !c.allowed {
		msg = EnterMessage
	}
	if c.announcer != nil {
		c.announcer.Announce(msg, interrupting)
	}
	c.announced = c.allowed
}

// Watch calls Toggle for every value received on signals until ctx is done
// or signals is closed.
func (c *Controller) Watch(ctx context.Context, signals <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-signals:
			if !ok {
				return
			}
			c.Toggle()
		}
	}
}
