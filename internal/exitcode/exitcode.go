// Package exitcode defines exit codes for the CLI and maps errors onto them.
package exitcode

import (
	"errors"

	"tasksync/internal/service"
)

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, unknown task reference, empty title).
	UserError = 1

	// AuthError indicates a missing, expired or rejected credential.
	AuthError = 2

	// BackendError indicates a gateway, network or timeout error.
	BackendError = 3
)

// For returns the exit code for a failed gateway operation.
func For(err error) int {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, service.ErrUnauthorized):
		return AuthError
	default:
		return BackendError
	}
}
