package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"tasksync/internal/exitcode"
	"tasksync/internal/service"
)

func init() {
	Register(&AddCmd{})
	Register(&CreateCmd{})
}

// draftFlags are the task fields add and create accept.
type draftFlags struct {
	description string
	due         string
}

func (f *draftFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.description, "description", "", "")
	fs.StringVar(&f.description, "d", "", "")
	fs.StringVar(&f.due, "due", "", "")
}

// AddCmd implements the add command.
type AddCmd struct {
	flags draftFlags
}

// SetDescription sets the description (for testing).
func (c *AddCmd) SetDescription(d string) { c.flags.description = d }

// SetDue sets the due date (for testing).
func (c *AddCmd) SetDue(due string) { c.flags.due = due }

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return nil }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "tasksync add [--description <text>] [--due <YYYY-MM-DD>] <title...>"
}
func (c *AddCmd) NeedsAuth() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) { c.flags.register(fs) }

func (c *AddCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	return runAdd(ctx, env, c.flags, args, errOut)
}

// CreateCmd is an alias for AddCmd.
type CreateCmd struct {
	flags draftFlags
}

func (c *CreateCmd) Name() string      { return "create" }
func (c *CreateCmd) Aliases() []string { return nil }
func (c *CreateCmd) Synopsis() string  { return "Create a task (alias for add)" }
func (c *CreateCmd) Usage() string {
	return "tasksync create [--description <text>] [--due <YYYY-MM-DD>] <title...>"
}
func (c *CreateCmd) NeedsAuth() bool { return true }

func (c *CreateCmd) RegisterFlags(fs *flag.FlagSet) { c.flags.register(fs) }

func (c *CreateCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	return runAdd(ctx, env, c.flags, args, errOut)
}

// runAdd is the shared implementation for add and create commands.
// The store prints the outcome.
func runAdd(ctx context.Context, env *Env, flags draftFlags, args []string, errOut io.Writer) int {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	due, err := service.ParseDueDate(flags.due)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	draft := service.Draft{
		Title:       title,
		Description: flags.description,
		DueDate:     due,
	}
	if !env.Store.Create(ctx, draft) {
		return env.failure(errOut)
	}
	return exitcode.Success
}
