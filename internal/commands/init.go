package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"

	"tasksync/internal/config"
	"tasksync/internal/exitcode"
)

func init() {
	Register(&InitCmd{})
}

// InitCmd writes a default config.yaml into the config directory.
type InitCmd struct{}

func (c *InitCmd) Name() string      { return "init" }
func (c *InitCmd) Aliases() []string { return nil }
func (c *InitCmd) Synopsis() string  { return "Write a default config file" }
func (c *InitCmd) Usage() string     { return "tasksync init" }
func (c *InitCmd) NeedsAuth() bool   { return false }

func (c *InitCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *InitCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	path := env.Config.ConfigPath()
	err := config.WriteDefault(path)
	switch {
	case errors.Is(err, fs.ErrExist):
		fmt.Fprintf(errOut, "error: %s already exists\n", path)
		return exitcode.UserError
	case err != nil:
		fmt.Fprintf(errOut, "error: failed to write config: %v\n", err)
		return exitcode.UserError
	}
	if !env.Config.Quiet {
		fmt.Fprintln(out, path)
	}
	return exitcode.Success
}
