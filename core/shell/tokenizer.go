// Package shell turns a raw input line into a command the interpreter can
// dispatch.
//
// Processing happens in two steps:
//
// 1. The line is broken into words on runs of spaces and tabs (Tokenize).
// There is no quoting or escaping.
//
// 2. The words are scanned for the shell operators `<`, `>`, `&` and the
// self-pid marker `$$` (Parser.Parse). Operators and their operands are
// removed from the argument list and recorded on the ParsedCommand.
package shell

import (
	"errors"
	"fmt"
)

const (
	// DefaultMaxArgs is the maximum number of words on one line.
	DefaultMaxArgs = 512
	// DefaultMaxWordLength is the maximum length of a single word.
	DefaultMaxWordLength = 200
)

var (
	// ErrTooManyArgs is returned when a line holds more than the allowed number
	// of words.
	ErrTooManyArgs = errors.New("too many arguments")

	// ErrWordTooLong is returned when a word exceeds the allowed length.
	ErrWordTooLong = errors.New("word too long")
)

// Limits bounds the size of a tokenized line. Zero values fall back to the
// defaults.
type Limits struct {
	MaxArgs       int
	MaxWordLength int
}

func (l Limits) maxArgs() int {
	if l.MaxArgs <= 0 {
		return DefaultMaxArgs
	}
	return l.MaxArgs
}

func (l Limits) maxWordLength() int {
	if l.MaxWordLength <= 0 {
		return DefaultMaxWordLength
	}
	return l.MaxWordLength
}

func isDelimiter(c byte) bool {
	return c == ' ' || c == '\t'
}

// Tokenize splits line into words separated by runs of spaces or tabs.
//
// An empty or blank line yields a single empty word, which callers treat as
// "no command".
func Tokenize(line string, limits Limits) ([]string, error) {
	var words []string

	start := -1
	flush := func(end int) error {
		if start < 0 {
			return nil
		}
		word := line[start:end]
		start = -1

		if len(word) > limits.maxWordLength() {
			return fmt.Errorf("%w: %.20q...", ErrWordTooLong, word)
		}
		if len(words) == limits.maxArgs() {
			return fmt.Errorf("%w: limit is %d", ErrTooManyArgs, limits.maxArgs())
		}
		words = append(words, word)
		return nil
	}

	for i := 0; i < len(line); i++ {
		if isDelimiter(line[i]) {
			if err := flush(i); err != nil {
				return nil, err
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if err := flush(len(line)); err != nil {
		return nil, err
	}

	if len(words) == 0 {
		return []string{""}, nil
	}
	return words, nil
}
