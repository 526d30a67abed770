package service

import "context"

// Service defines the interface for task gateway operations.
// The store and commands never talk HTTP or a vendor SDK directly.
type Service interface {
	// ListTasks returns the full collection in gateway order.
	ListTasks(ctx context.Context) ([]Task, error)

	// CreateTask creates a task. requestID is a client generated idempotency
	// token; a reused token yields ErrDuplicate.
	CreateTask(ctx context.Context, draft Draft, requestID string) (Task, error)

	// ReplaceTask replaces every field of an existing task.
	ReplaceTask(ctx context.Context, id string, fields Fields) (Task, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, id string) error
}
