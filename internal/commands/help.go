package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"tasksync/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct {
	// Registry to describe. Nil means DefaultRegistry.
	Registry *Registry
}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "tasksync help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	reg := c.Registry
	if reg == nil {
		reg = DefaultRegistry
	}
	fmt.Fprint(out, HelpText(reg))
	return exitcode.Success
}

// HelpText renders usage for every command in reg.
func HelpText(reg *Registry) string {
	var b strings.Builder
	b.WriteString("Usage:\n")
	b.WriteString("  tasksync                 List tasks\n")
	for _, cmd := range reg.All() {
		fmt.Fprintf(&b, "  %s\n      %s", cmd.Usage(), cmd.Synopsis())
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			fmt.Fprintf(&b, " (also: %s)", strings.Join(aliases, ", "))
		}
		b.WriteString("\n")
	}
	b.WriteString(commonFlagsText)
	return b.String()
}

const commonFlagsText = `
Task references:
  A number is the task's position as printed by list; anything else is a task ID.

Common flags:
  --config <dir>             Override config directory
  --backend <rest|googletasks>
                             Gateway implementation
  --api-url <url>            Task gateway base URL (rest backend)
  --quiet                    Suppress informational output
  --debug                    Print debug logs to stderr
`
