package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"tasksync/internal/exitcode"
	"tasksync/internal/session"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd forgets the stored credential. Settings in the config directory
// are kept.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string      { return "logout" }
func (c *LogoutCmd) Aliases() []string { return nil }
func (c *LogoutCmd) Synopsis() string  { return "Remove stored credentials" }
func (c *LogoutCmd) Usage() string     { return "tasksync logout" }
func (c *LogoutCmd) NeedsAuth() bool   { return false }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	cfg := env.Config
	_, err := session.Load(cfg.TokenPath())
	loggedIn := !errors.Is(err, session.ErrNoCredential)

	// An unreadable token file is removed all the same.
	if err := cfg.RemoveToken(); err != nil {
		fmt.Fprintf(errOut, "error: failed to remove token: %v\n", err)
		return exitcode.AuthError
	}

	if cfg.Quiet {
		return exitcode.Success
	}
	if loggedIn {
		fmt.Fprintln(out, "ok")
	} else {
		fmt.Fprintln(out, "not logged in")
	}
	return exitcode.Success
}
