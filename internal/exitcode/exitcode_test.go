package exitcode_test

import (
	"errors"
	"fmt"
	"testing"

	"tasksync/internal/exitcode"
	"tasksync/internal/service"
)

func TestFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitcode.Success},
		{"unauthorized", fmt.Errorf("list tasks: %w", service.ErrUnauthorized), exitcode.AuthError},
		{"401 status", &service.StatusError{Code: 401}, exitcode.AuthError},
		{"conflict", &service.StatusError{Code: 409}, exitcode.BackendError},
		{"other", errors.New("connection refused"), exitcode.BackendError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitcode.For(tt.err); got != tt.want {
				t.Errorf("For(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
