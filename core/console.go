package core

import (
	"bufio"
	"io"
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/smallsh/core/config"
	"golang.org/x/term"
)

// Console reads lines from the operator and displays shell output.
type Console interface {
	io.Writer

	// SetPrompt sets the text displayed before the next line.
	SetPrompt(prompt string)
	// Readline displays the prompt and returns the next line without its
	// trailing newline. It returns io.EOF once input is exhausted and
	// readline.ErrInterrupt if the line was abandoned.
	Readline() (string, error)
	// Interactive reports whether the console redraws its own prompt
	// after output is written.
	Interactive() bool

	io.Closer
}

// isTerminal reports whether v is a file connected to a terminal.
func isTerminal(v interface{}) bool {
	fd, ok := v.(*os.File)
	return ok && term.IsTerminal(int(fd.Fd()))
}

func useLineEditor(cfg *config.Configuration, stdin io.Reader, plain bool) bool {
	if plain {
		return false
	}

	switch cfg.LineEditor {
	case config.LineEditorReadline:
		return true
	case config.LineEditorPlain:
		return false
	default:
		return isTerminal(stdin)
	}
}

// plainConsole reads lines with a buffered reader and no line editing.
type plainConsole struct {
	r      *bufio.Reader
	w      io.Writer
	prompt string
}

var _ Console = (*plainConsole)(nil)

func newPlainConsole(stdin io.Reader, stdout io.Writer, bufferSize int) *plainConsole {
	return &plainConsole{
		r: bufio.NewReaderSize(stdin, bufferSize),
		w: stdout,
	}
}

func (p *plainConsole) Write(b []byte) (int, error) {
	return p.w.Write(b)
}

func (p *plainConsole) SetPrompt(prompt string) {
	p.prompt = prompt
}

func (p *plainConsole) Readline() (string, error) {
	if _, err := io.WriteString(p.w, p.prompt); err != nil {
		return "", err
	}

	line, err := p.r.ReadString('\n')
	switch {
	case err == io.EOF && line != "":
		// Last line without a terminator.
	case err != nil:
		return "", err
	}

	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

func (p *plainConsole) Interactive() bool {
	return false
}

func (p *plainConsole) Close() error {
	return nil
}

// promptGate only lets reads through while a prompt is open, so the line
// editor's reader goroutine leaves input typed for a foreground child alone.
type promptGate struct {
	r io.Reader

	mu     sync.Mutex
	cond   *sync.Cond
	open   bool
	closed bool
}

func newPromptGate(r io.Reader) *promptGate {
	g := &promptGate{r: r}
	g.cond = sync.NewCond(&g.mu)
	return g
}

func (g *promptGate) Read(b []byte) (int, error) {
	g.mu.Lock()
	for !g.open && !g.closed {
		g.cond.Wait()
	}
	closed := g.closed
	g.mu.Unlock()

	if closed {
		return 0, io.EOF
	}
	return g.r.Read(b)
}

func (g *promptGate) set(open bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.open = open
	g.cond.Broadcast()
}

func (g *promptGate) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	g.cond.Broadcast()
	return nil
}

// readlineConsole is backed by the readline line editor.
type readlineConsole struct {
	rl   *readline.Instance
	gate *promptGate
}

var _ Console = (*readlineConsole)(nil)

func newReadlineConsole(cfg *config.Configuration, stdin io.Reader, stdout, stderr io.Writer) (*readlineConsole, error) {
	gate := newPromptGate(stdin)

	rlCfg := &readline.Config{
		Prompt:       cfg.Prompt,
		Stdin:        readline.NewCancelableStdin(gate),
		Stdout:       stdout,
		Stderr:       stderr,
		HistoryLimit: cfg.HistoryLimit,
		FuncIsTerminal: func() bool {
			return isTerminal(stdin) && isTerminal(stdout)
		},
		FuncFilterInputRune: func(r rune) (rune, bool) {
			switch r {
			case readline.CharCtrlZ:
				// The terminal is in raw mode so the keypress doesn't raise
				// SIGTSTP on its own.
				_ = syscall.Kill(os.Getpid(), syscall.SIGTSTP)
				return r, false
			case readline.CharEnter, readline.CharCtrlJ:
				gate.set(false)
			}
			return r, true
		},
	}

	if err := rlCfg.Init(); err != nil {
		return nil, err
	}

	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		return nil, err
	}

	return &readlineConsole{rl: rl, gate: gate}, nil
}

func (c *readlineConsole) Write(b []byte) (int, error) {
	return c.rl.Write(b)
}

func (c *readlineConsole) SetPrompt(prompt string) {
	c.rl.SetPrompt(prompt)
}

func (c *readlineConsole) Readline() (string, error) {
	c.gate.set(true)
	defer c.gate.set(false)

	return c.rl.Readline()
}

func (c *readlineConsole) Interactive() bool {
	return true
}

func (c *readlineConsole) Close() error {
	c.gate.Close()
	return c.rl.Close()
}
