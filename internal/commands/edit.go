package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"tasksync/internal/exitcode"
	"tasksync/internal/service"
)

func init() {
	Register(&EditCmd{})
}

// optionalString is a string flag that remembers whether it was given.
type optionalString struct {
	value string
	set   bool
}

func (o *optionalString) String() string { return o.value }

func (o *optionalString) Set(s string) error {
	o.value = s
	o.set = true
	return nil
}

// EditCmd implements the edit command. Fields not given keep their current
// value; completion is never changed.
type EditCmd struct {
	title       optionalString
	description optionalString
	due         optionalString
	noDue       bool
}

// SetTitle sets the new title (for testing).
func (c *EditCmd) SetTitle(s string) { c.title.Set(s) }

// SetDescription sets the new description (for testing).
func (c *EditCmd) SetDescription(s string) { c.description.Set(s) }

// SetDue sets the new due date (for testing).
func (c *EditCmd) SetDue(s string) { c.due.Set(s) }

// SetNoDue clears the due date (for testing).
func (c *EditCmd) SetNoDue(v bool) { c.noDue = v }

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Change a task" }
func (c *EditCmd) Usage() string {
	return "tasksync edit [--title <t>] [--description <d>] [--due <YYYY-MM-DD> | --no-due] <ref>"
}
func (c *EditCmd) NeedsAuth() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	*c = EditCmd{}
	fs.Var(&c.title, "title", "")
	fs.Var(&c.title, "t", "")
	fs.Var(&c.description, "description", "")
	fs.Var(&c.description, "d", "")
	fs.Var(&c.due, "due", "")
	fs.BoolVar(&c.noDue, "no-due", false, "")
}

func (c *EditCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if c.due.set && c.noDue {
		fmt.Fprintln(errOut, "error: cannot use both --due and --no-due")
		return exitcode.UserError
	}
	if !c.title.set && !c.description.set && !c.due.set && !c.noDue {
		fmt.Fprintln(errOut, "error: nothing to change")
		return exitcode.UserError
	}

	var due *time.Time
	if c.due.set {
		d, err := service.ParseDueDate(c.due.value)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		due = d
	}

	task, code := lookupTask(ctx, env, args, errOut)
	if code != exitcode.Success {
		return code
	}

	fields := task.Fields()
	if c.title.set {
		fields.Title = c.title.value
	}
	if c.description.set {
		fields.Description = c.description.value
	}
	if c.due.set || c.noDue {
		fields.DueDate = due
	}

	if !env.Store.Update(ctx, task.ID, fields) {
		return env.failure(errOut)
	}
	return exitcode.Success
}
