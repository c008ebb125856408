package mode

import (
	"bytes"
	"context"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingAnnouncer struct {
	messages     []string
	interrupting []bool
}

func (r *recordingAnnouncer) Announce(msg string, interrupting bool) {
	r.messages = append(r.messages, msg)
	r.interrupting = append(r.interrupting, interrupting)
}

func newTestController() (*Controller, *recordingAnnouncer, *[]int) {
	announcer := &recordingAnnouncer{}
	c := New(announcer, nil)

	var resumed []int
	c.Resume = func(pid int) error {
		resumed = append(resumed, pid)
		return nil
	}
	return c, announcer, &resumed
}

func TestController_immediateAnnouncement(t *testing.T) {
	c, announcer, resumed := newTestController()
	assert.True(t, c.BackgroundAllowed())

	c.Toggle()
	assert.False(t, c.BackgroundAllowed())
	assert.Equal(t, []string{EnterMessage}, announcer.messages)
	assert.Equal(t, []bool{true}, announcer.interrupting)

	c.Flush()
	assert.Len(t, announcer.messages, 1, "flush must not repeat an announced change")

	c.Toggle()
	assert.True(t, c.BackgroundAllowed())
	assert.Equal(t, []string{EnterMessage, ExitMessage}, announcer.messages)
	assert.Empty(t, *resumed)
}

func TestController_deferredDuringForeground(t *testing.T) {
	c, announcer, resumed := newTestController()

	c.BeginForeground(4242)
	assert.True(t, c.ForegroundActive())

	c.Toggle()
	assert.False(t, c.BackgroundAllowed(), "mode flips even while deferred")
	assert.Empty(t, announcer.messages, "no output while a foreground child runs")
	assert.Equal(t, []int{4242}, *resumed)

	c.EndForeground()
	assert.False(t, c.ForegroundActive())

	c.Flush()
	assert.Equal(t, []string{EnterMessage}, announcer.messages)
	assert.Equal(t, []bool{false}, announcer.interrupting)

	c.Flush()
	assert.Len(t, announcer.messages, 1, "announced exactly once")
}

func TestController_doubleToggleDuringForeground(t *testing.T) {
	c, announcer, _ := newTestController()

	c.BeginForeground(1)
	c.Toggle()
	c.Toggle()
	c.EndForeground()
	c.Flush()

	assert.True(t, c.BackgroundAllowed())
	assert.Empty(t, announcer.messages)
}

func TestController_nilAnnouncer(t *testing.T) {
	c := New(nil, nil)
	assert.NotPanics(t, func() {
		c.Toggle()
		c.Flush()
	})
	assert.False(t, c.BackgroundAllowed())
}

func TestController_Watch(t *testing.T) {
	c, announcer, _ := newTestController()

	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal)
	done := make(chan struct{})
	go func() {
		c.Watch(ctx, signals)
		close(done)
	}()

	signals <- syscall.SIGTSTP
	signals <- syscall.SIGTSTP
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}

	assert.True(t, c.BackgroundAllowed())
	assert.Equal(t, []string{EnterMessage, ExitMessage}, announcer.messages)
}

func TestWriterAnnouncer(t *testing.T) {
	buf := &bytes.Buffer{}
	a := &WriterAnnouncer{
		W:      buf,
		Prompt: func() string { return ":" },
		Format: strings.ToUpper,
	}

	a.Announce("deferred", false)
	a.Announce("now", true)

	assert.Equal(t, "\nDEFERRED\n\nNOW\n:", buf.String())
}
