package commands

import (
	"context"
	"flag"
	"io"

	"tasksync/internal/exitcode"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "tasksync rm <ref>" }
func (c *RmCmd) NeedsAuth() bool   { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	task, code := lookupTask(ctx, env, args, errOut)
	if code != exitcode.Success {
		return code
	}
	if !env.Store.Delete(ctx, task.ID) {
		return env.failure(errOut)
	}
	return exitcode.Success
}
