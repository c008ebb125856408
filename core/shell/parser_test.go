package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, line string, bgAllowed bool) ParsedCommand {
	t.Helper()

	parser := &Parser{
		Pid:               1234,
		BackgroundAllowed: func() bool { return bgAllowed },
	}
	cmd, err := parser.ParseLine(line, Limits{})
	require.NoError(t, err)
	return cmd
}

func TestParser_Parse(t *testing.T) {
	cases := map[string]struct {
		line     string
		expected ParsedCommand
	}{
		"plain": {
			line:     "ls -la",
			expected: ParsedCommand{Argv: []string{"ls", "-la"}},
		},
		"background-with-pid": {
			line:     "echo hi $$ &",
			expected: ParsedCommand{Argv: []string{"echo", "hi", "1234"}, Background: true},
		},
		"output": {
			line:     "ls > out.txt",
			expected: ParsedCommand{Argv: []string{"ls"}, OutputFile: "out.txt"},
		},
		"input": {
			line:     "wc -l < in.txt",
			expected: ParsedCommand{Argv: []string{"wc", "-l"}, InputFile: "in.txt"},
		},
		"both-redirections-background": {
			line: "sort < in > out &",
			expected: ParsedCommand{
				Argv:       []string{"sort"},
				InputFile:  "in",
				OutputFile: "out",
				Background: true,
			},
		},
		"redirection-before-args": {
			line:     "> out echo hi",
			expected: ParsedCommand{Argv: []string{"echo", "hi"}, OutputFile: "out"},
		},
		"last-redirection-wins": {
			line:     "echo > a > b",
			expected: ParsedCommand{Argv: []string{"echo"}, OutputFile: "b"},
		},
		"dangling-output": {
			line:     "cmd >",
			expected: ParsedCommand{Argv: []string{"cmd", ">"}},
		},
		"dangling-input": {
			line:     "cmd <",
			expected: ParsedCommand{Argv: []string{"cmd", "<"}},
		},
		"operator-as-target": {
			line:     "cmd > &",
			expected: ParsedCommand{Argv: []string{"cmd", ">"}, Background: true},
		},
		"redirect-to-operator": {
			line:     "cmd < > out",
			expected: ParsedCommand{Argv: []string{"cmd", "<"}, OutputFile: "out"},
		},
		"longer-operator-word-is-target": {
			line:     "cmd > >>",
			expected: ParsedCommand{Argv: []string{"cmd"}, OutputFile: ">>"},
		},
		"ampersand-not-last": {
			line:     "echo & done",
			expected: ParsedCommand{Argv: []string{"echo", "&", "done"}},
		},
		"ampersand-joined": {
			line:     "sleep 5&",
			expected: ParsedCommand{Argv: []string{"sleep", "5&"}},
		},
		"embedded-pid": {
			line:     "touch file.$$",
			expected: ParsedCommand{Argv: []string{"touch", "file.1234"}},
		},
		"embedded-pid-first-only": {
			line:     "echo a$$b$$c",
			expected: ParsedCommand{Argv: []string{"echo", "a1234b$$c"}},
		},
		"odd-dollars": {
			line:     "echo $$$",
			expected: ParsedCommand{Argv: []string{"echo", "1234$"}},
		},
		"single-dollar": {
			line:     "echo $",
			expected: ParsedCommand{Argv: []string{"echo", "$"}},
		},
		"target-not-expanded": {
			line:     "ls > $$",
			expected: ParsedCommand{Argv: []string{"ls"}, OutputFile: "$$"},
		},
		"only-ampersand": {
			line:     "&",
			expected: ParsedCommand{Argv: []string{}, Background: true},
		},
		"blank": {
			line:     "   ",
			expected: ParsedCommand{Argv: []string{""}},
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			assert.Equal(t, tc.expected, parse(t, tc.line, true))
		})
	}
}

func TestParser_foregroundOnly(t *testing.T) {
	cmd := parse(t, "sleep 10 &", false)

	assert.Equal(t, []string{"sleep", "10"}, cmd.Argv)
	assert.False(t, cmd.Background, "trailing & must be dropped when background is disallowed")
}

func TestParser_nilBackgroundAllowed(t *testing.T) {
	parser := &Parser{Pid: 1}
	cmd := parser.Parse([]string{"sleep", "1", "&"})

	assert.True(t, cmd.Background)
}

func TestParsedCommand_IsNoop(t *testing.T) {
	cases := map[string]bool{
		"":                true,
		"   ":             true,
		"# comment":       true,
		"#comment > file": true,
		"&":               true,
		"< in":            true,
		"echo # not":      false,
		"ls":              false,
	}

	for line, expected := range cases {
		t.Run(line, func(t *testing.T) {
			cmd := parse(t, line, true)
			assert.Equal(t, expected, cmd.IsNoop())
		})
	}
}
