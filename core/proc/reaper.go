package proc

import (
	"fmt"
	"io"

	"github.com/josephlewis42/smallsh/core/jobs"
	"github.com/josephlewis42/smallsh/core/logger"
)

// PollFunc checks a child without blocking, see Process.PollNonBlocking.
type PollFunc func(pid int) (Outcome, bool, error)

// PollPid polls the child with the given pid.
func PollPid(pid int) (Outcome, bool, error) {
	return Attach(pid).PollNonBlocking()
}

// Reaper collects background jobs that have finished.
type Reaper struct {
	Jobs     *jobs.Registry
	Messages io.Writer
	Events   *logger.Logger

	// Poll defaults to PollPid.
	Poll PollFunc
}

// Reap checks every registered job once, reports the finished ones and
// removes them from the registry. It never blocks.
func (r *Reaper) Reap() {
	poll := r.Poll
	if poll == nil {
		poll = PollPid
	}

	for _, pid := range r.Jobs.Pids() {
		outcome, done, err := poll(pid)
		switch {
		case err != nil:
			// The child is gone or was never ours; stop tracking it.
			r.Events.ReapFailed(pid, err)
			r.Jobs.Remove(pid)
		case done:
			fmt.Fprintf(r.Messages, "background pid %d is done: %s\n", pid, outcome)
			r.Events.JobReaped(pid, outcome.Signaled, outcome.Code)
			r.Jobs.Remove(pid)
		}
	}
}
