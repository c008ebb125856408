package core

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"

	"github.com/josephlewis42/smallsh/core/proc"
	getopt "github.com/pborman/getopt/v2"
)

// AllBuiltins holds a list of all registered shell builtins
var AllBuiltins = make(map[string]ShellBuiltin)

// ShellBuiltin is a command that runs inside the shell process.
type ShellBuiltin interface {
	Main(s *Shell, args []string) int
}

type ShellBuiltinFunc func(s *Shell, args []string) int

func (f ShellBuiltinFunc) Main(s *Shell, args []string) int {
	return f(s, args)
}

var _ ShellBuiltin = (ShellBuiltinFunc)(nil)

// BuiltinNames returns the sorted names of all builtins.
func BuiltinNames() []string {
	var names []string
	for name := range AllBuiltins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SimpleCommand parses builtin flags and prints usage.
type SimpleCommand struct {
	// Use holds a one line usage string
	Use string
	// Short holds a one line description of the command.
	Short string

	flags    *getopt.Set
	showHelp *bool
}

// Flags gets the command's flag set.
func (c *SimpleCommand) Flags() *getopt.Set {
	if c.flags == nil {
		c.flags = getopt.New()
	}

	return c.flags
}

// PrintHelp writes help for the command to the given writer.
func (c *SimpleCommand) PrintHelp(w io.Writer) {
	fmt.Fprint(w, "usage: ")
	fmt.Fprintln(w, c.Use)
	fmt.Fprintln(w, c.Short)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	c.Flags().PrintOptions(w)
}

// Run parses args, if flag parsing was successful call the callback with the
// remaining positional arguments.
func (c *SimpleCommand) Run(s *Shell, args []string, callback func(args []string) int) int {
	opts := c.Flags()
	if c.showHelp == nil {
		c.showHelp = opts.BoolLong("help", 'h', "show this help and exit")
	}

	if err := opts.Getopt(args, nil); err != nil {
		fmt.Fprintln(s.console, s.colors.Error(fmt.Sprintf("%s: %s", args[0], err)))
		fmt.Fprintln(s.console)
		c.PrintHelp(s.console)
		return 1
	}

	if *c.showHelp {
		c.PrintHelp(s.console)
		return 0
	}

	return callback(opts.Args())
}

// Cd is the cd shell builtin
func Cd(s *Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   "cd [--] [DIR]",
		Short: "Change the working directory, DIR defaults to the home directory.",
	}

	return cmd.Run(s, args, func(positional []string) int {
		// Operands after the first are ignored.
		dir := s.config.HomeDir()
		if len(positional) > 0 {
			dir = positional[0]
		}

		if err := os.Chdir(dir); err != nil {
			var pathErr *fs.PathError
			if errors.As(err, &pathErr) {
				err = pathErr.Err
			}
			fmt.Fprintln(s.console, s.colors.Error(fmt.Sprintf("cd: %s: %s", dir, proc.DescribeError(err))))
			return 1
		}
		return 0
	})
}

// Status prints how the last foreground command ended.
func Status(s *Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   "status",
		Short: "Print the exit value or terminating signal of the last foreground command.",
	}

	return cmd.Run(s, args, func([]string) int {
		fmt.Fprintln(s.console, s.status)
		return 0
	})
}

// Exit quits the shell, background jobs are left running.
func Exit(s *Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   "exit",
		Short: "Exit the shell without signaling background jobs.",
	}

	return cmd.Run(s, args, func([]string) int {
		s.Quit = true
		return 0
	})
}

func init() {
	AllBuiltins["cd"] = ShellBuiltinFunc(Cd)
	AllBuiltins["status"] = ShellBuiltinFunc(Status)
	AllBuiltins["exit"] = ShellBuiltinFunc(Exit)
}
