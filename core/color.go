package core

import (
	"io"

	"github.com/fatih/color"
	"github.com/josephlewis42/smallsh/core/config"
)

// ColorPrinter decorates shell notices when color output is enabled.
type ColorPrinter struct {
	enabled bool

	notice *color.Color
	err    *color.Color
}

// NewColorPrinter resolves the color mode against the writer shell notices
// go to.
func NewColorPrinter(mode string, w io.Writer) *ColorPrinter {
	var enabled bool
	switch mode {
	case config.ColorAlways:
		enabled = true
	case config.ColorNever:
		enabled = false
	default:
		enabled = isTerminal(w)
	}

	c := &ColorPrinter{
		enabled: enabled,
		notice:  color.New(color.FgCyan, color.Bold),
		err:     color.New(color.FgRed, color.Bold),
	}
	if enabled {
		// The package level default only checks os.Stdout.
		c.notice.EnableColor()
		c.err.EnableColor()
	}
	return c
}

// ShouldColor reports whether output is decorated.
func (c *ColorPrinter) ShouldColor() bool {
	return c.enabled
}

// Notice formats an informational message such as a mode change.
func (c *ColorPrinter) Notice(msg string) string {
	if !c.enabled {
		return msg
	}
	return c.notice.Sprint(msg)
}

// Error formats an error message.
func (c *ColorPrinter) Error(msg string) string {
	if !c.enabled {
		return msg
	}
	return c.err.Sprint(msg)
}
