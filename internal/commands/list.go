package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasksync/internal/exitcode"
	"tasksync/internal/output"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `tasksync` (no args) and `tasksync list`.
type ListCmd struct {
	format string
}

// SetFormat sets the output format (for testing).
func (c *ListCmd) SetFormat(format string) {
	c.format = format
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string     { return "tasksync list [--format text|json|yaml]" }
func (c *ListCmd) NeedsAuth() bool   { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.format, "format", output.FormatText, "")
	fs.StringVar(&c.format, "f", output.FormatText, "")
}

func (c *ListCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if !output.ValidFormat(c.format) {
		fmt.Fprintf(errOut, "error: unknown format: %s\n", c.format)
		return exitcode.UserError
	}

	if err := env.Store.List(ctx); err != nil {
		return env.failure(errOut)
	}

	if err := output.Write(out, c.format, env.Store.Tasks(), env.quiet()); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}
