package shell

import (
	"strconv"
	"strings"
)

const (
	// OpInput redirects standard input from the following word.
	OpInput = "<"
	// OpOutput redirects standard output to the following word.
	OpOutput = ">"
	// OpBackground runs the command without waiting when it ends the line.
	OpBackground = "&"
	// PidMarker is replaced with the shell's process ID.
	PidMarker = "$$"
)

// ParsedCommand is the result of parsing one input line. A new value is built
// for every line so redirections and the background flag never leak into the
// next command.
type ParsedCommand struct {
	// Argv holds the command name followed by its arguments with all operators
	// removed.
	Argv []string

	// InputFile is the file to read standard input from, empty if none.
	InputFile string
	// OutputFile is the file to write standard output to, empty if none.
	OutputFile string

	// Background is true if the command should not be waited on.
	Background bool
}

// Name returns the command name, or the empty string for an empty command.
func (p *ParsedCommand) Name() string {
	if len(p.Argv) == 0 {
		return ""
	}
	return p.Argv[0]
}

// IsNoop reports whether the line holds nothing to execute: no words, a
// blank first word or a comment.
func (p *ParsedCommand) IsNoop() bool {
	name := p.Name()
	return name == "" || strings.HasPrefix(name, "#")
}

// Parser recognizes shell operators in a tokenized line.
type Parser struct {
	// Pid is substituted for the PidMarker.
	Pid int

	// BackgroundAllowed reports whether a trailing OpBackground may take
	// effect. If nil, background execution is always allowed.
	BackgroundAllowed func() bool
}

// isWord reports whether tok can be used as an operand of a redirection.
func isWord(tok string) bool {
	switch tok {
	case "", OpInput, OpOutput, OpBackground:
		return false
	default:
		return true
	}
}

// Parse compacts words into a ParsedCommand.
//
// A redirection operator that is not followed by a usable word is kept as a
// literal argument, as is an OpBackground that doesn't end the line.
func (p *Parser) Parse(words []string) ParsedCommand {
	var out ParsedCommand
	argv := make([]string, 0, len(words))
	pid := strconv.Itoa(p.Pid)

	for i := 0; i < len(words); i++ {
		tok := words[i]
		hasNext := i+1 < len(words)

		switch {
		case tok == OpInput && hasNext && isWord(words[i+1]):
			out.InputFile = words[i+1]
			i++

		case tok == OpOutput && hasNext && isWord(words[i+1]):
			out.OutputFile = words[i+1]
			i++

		case tok == OpBackground && !hasNext:
			out.Background = p.backgroundAllowed()

		case tok == PidMarker:
			argv = append(argv, pid)

		default:
			argv = append(argv, strings.Replace(tok, PidMarker, pid, 1))
		}
	}

	out.Argv = argv
	return out
}

func (p *Parser) backgroundAllowed() bool {
	if p.BackgroundAllowed == nil {
		return true
	}
	return p.BackgroundAllowed()
}

// ParseLine tokenizes and parses line in one step.
func (p *Parser) ParseLine(line string, limits Limits) (ParsedCommand, error) {
	words, err := Tokenize(line, limits)
	if err != nil {
		return ParsedCommand{}, err
	}
	return p.Parse(words), nil
}
