// Package cli parses the command line and dispatches to commands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"tasksync/internal/commands"
	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/logger"
	"tasksync/internal/notify"
	"tasksync/internal/service"
	"tasksync/internal/session"
	"tasksync/internal/store"
)

// ServiceFactory creates the gateway from config.
// Used to inject the backend during dispatch.
type ServiceFactory func(ctx context.Context, cfg *config.Config, log *zap.Logger) (service.Service, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
	in       io.Reader
}

// NewDispatcher creates a new dispatcher with the given registry and service
// factory. A nil factory means NewService.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory) *Dispatcher {
	if factory == nil {
		factory = NewService
	}
	return &Dispatcher{
		registry: registry,
		factory:  factory,
		in:       os.Stdin,
	}
}

// SetInput replaces standard input for commands that read it.
func (d *Dispatcher) SetInput(r io.Reader) {
	d.in = r
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	if len(args) == 0 {
		return d.dispatch(ctx, "list", nil, out, errOut)
	}

	cmdName := args[0]

	// Flags require a command
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

// commonFlags are accepted by every command.
type commonFlags struct {
	configDir string
	quiet     bool
	debug     bool
	backend   string
	apiURL    string
}

func (f *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configDir, "config", "", "")
	fs.BoolVar(&f.quiet, "quiet", false, "")
	fs.BoolVar(&f.quiet, "q", false, "")
	fs.BoolVar(&f.debug, "debug", false, "")
	fs.StringVar(&f.backend, "backend", "", "")
	fs.StringVar(&f.apiURL, "api-url", "", "")
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	var common commonFlags
	common.register(fs)
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", flagError(err))
		return exitcode.UserError
	}

	// A positional arg that still starts with - was not a known flag
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") && positionalArgs[0] != "-" {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := loadConfig(common)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}

	log := logger.New(cfg.Debug, errOut)
	defer log.Sync()

	env := &commands.Env{Config: cfg, In: d.in, Log: log}

	if cmd.NeedsAuth() {
		svc, err := d.factory(ctx, cfg, log)
		if err != nil {
			return factoryError(err, errOut)
		}

		env.Events = &notify.Recorder{}
		env.Store = store.New(svc,
			store.WithNotifier(notify.Multi(notify.NewWriter(out, errOut, cfg.Quiet), env.Events)),
			store.WithLogger(log),
		)
		defer env.Store.Close()
	}

	log.Debug("running command", zap.String("command", cmd.Name()), zap.String("backend", cfg.Backend))
	return cmd.Run(ctx, env, positionalArgs, out, errOut)
}

// loadConfig reads settings and applies flag overrides on top.
func loadConfig(f commonFlags) (*config.Config, error) {
	cfg, err := config.New(f.configDir)
	if err != nil {
		return nil, err
	}
	cfg.Quiet = f.quiet
	cfg.Debug = f.debug
	if f.backend != "" {
		cfg.Backend = strings.ToLower(f.backend)
	}
	if f.apiURL != "" {
		cfg.APIURL = f.apiURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// flagError rewrites flag package errors into the CLI's wording.
func flagError(err error) string {
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "flag needs an argument:"):
		return "flag needs an argument: " + strings.TrimSpace(strings.TrimPrefix(msg, "flag needs an argument:"))
	case strings.HasPrefix(msg, "flag provided but not defined:"):
		return "unknown flag: " + strings.TrimSpace(strings.TrimPrefix(msg, "flag provided but not defined:"))
	}
	return msg
}

// factoryError reports a backend that could not be built.
func factoryError(err error, errOut io.Writer) int {
	switch {
	case errors.Is(err, session.ErrNoCredential):
		fmt.Fprintln(errOut, "error: not logged in (run: tasksync login)")
		return exitcode.AuthError
	case errors.Is(err, session.ErrExpired):
		fmt.Fprintln(errOut, "error: session expired (run: tasksync login)")
		return exitcode.AuthError
	case errors.Is(err, service.ErrUnauthorized):
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
		return exitcode.AuthError
	}
	fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	return exitcode.BackendError
}
