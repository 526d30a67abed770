// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"go.uber.org/zap"

	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/notify"
	"tasksync/internal/service"
	"tasksync/internal/store"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth returns true if the command talks to the gateway.
	// Commands like help, version, login, logout return false.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int
}

// Env is what a command runs against.
type Env struct {
	// Config is always provided (config dir, paths, settings).
	Config *config.Config

	// Store is nil if NeedsAuth() returns false. Its notifications are
	// already printed to the command's output streams.
	Store *store.Store

	// Events records every notification the store sent during the command.
	Events *notify.Recorder

	// In is the command's standard input.
	In io.Reader

	Log *zap.Logger
}

// quiet reports whether informational output is suppressed.
func (e *Env) quiet() bool {
	return e.Config != nil && e.Config.Quiet
}

// failure returns the exit code for the last failure the store reported.
// The store has already printed it; auth failures get a login hint.
func (e *Env) failure(errOut io.Writer) int {
	var last error
	if e.Events != nil {
		for _, n := range e.Events.All() {
			if n.Kind.IsError() {
				last = n.Err
			}
		}
	}
	switch {
	case errors.Is(last, store.ErrTitleRequired), errors.Is(last, store.ErrUnknownTask):
		return exitcode.UserError
	case errors.Is(last, service.ErrUnauthorized):
		fmt.Fprintln(errOut, "error: session expired or invalid (run: tasksync login)")
		return exitcode.AuthError
	case last == nil:
		return exitcode.BackendError
	}
	return exitcode.For(last)
}
