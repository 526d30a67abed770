// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"tasksync/internal/service"
)

// FakeService is an in-memory implementation of service.Service for testing.
// It behaves like the real gateway: it assigns IDs, keeps insertion order and
// rejects reused idempotency tokens with service.ErrDuplicate.
type FakeService struct {
	mu     sync.Mutex
	tasks  []service.Task
	tokens map[string]bool
	nextID int

	requestIDs   []string
	listCalls    int
	createCalls  int
	replaceCalls map[string]int
	deleteCalls  int

	// Error injection for testing
	ListTasksErr   error
	CreateTaskErr  error
	ReplaceTaskErr error
	DeleteTaskErr  error

	// Hooks run before a call does any work. They may block (to hold a
	// request in flight) and may return an error to fail the call.
	BeforeList    func(ctx context.Context, call int) error
	BeforeReplace func(ctx context.Context, id string) error
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		tokens:       make(map[string]bool),
		replaceCalls: make(map[string]int),
	}
}

// AddTask seeds a task with a fixed ID.
func (f *FakeService) AddTask(task service.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, task)
}

// Stored returns the gateway's copy of a task.
func (f *FakeService) Stored(id string) (service.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return service.Task{}, false
}

// Len returns the number of tasks held by the gateway.
func (f *FakeService) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

// RequestIDs returns every idempotency token received, in order.
func (f *FakeService) RequestIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.requestIDs))
	copy(out, f.requestIDs)
	return out
}

// ListCalls returns how many times ListTasks was called.
func (f *FakeService) ListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

// CreateCalls returns how many times CreateTask was called.
func (f *FakeService) CreateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls
}

// ReplaceCalls returns how many times ReplaceTask was called for id.
func (f *FakeService) ReplaceCalls(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.replaceCalls[id]
}

// DeleteCalls returns how many times DeleteTask was called.
func (f *FakeService) DeleteCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleteCalls
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context) ([]service.Task, error) {
	f.mu.Lock()
	f.listCalls++
	call := f.listCalls
	hook := f.BeforeList
	f.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, call); err != nil {
			return nil, err
		}
	}
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]service.Task, len(f.tasks))
	copy(result, f.tasks)
	return result, nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, draft service.Draft, requestID string) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.createCalls++
	f.requestIDs = append(f.requestIDs, requestID)
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	if f.tokens[requestID] {
		return service.Task{}, service.ErrDuplicate
	}
	f.tokens[requestID] = true

	f.nextID++
	task := service.Task{
		ID:          fmt.Sprintf("task-%d", f.nextID),
		Title:       draft.Title,
		Description: draft.Description,
		DueDate:     draft.DueDate,
	}
	f.tasks = append(f.tasks, task)
	return task, nil
}

// ReplaceTask implements service.Service.
func (f *FakeService) ReplaceTask(ctx context.Context, id string, fields service.Fields) (service.Task, error) {
	f.mu.Lock()
	f.replaceCalls[id]++
	hook := f.BeforeReplace
	f.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, id); err != nil {
			return service.Task{}, err
		}
	}
	if f.ReplaceTaskErr != nil {
		return service.Task{}, f.ReplaceTaskErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks[i] = t.Apply(fields)
			return f.tasks[i], nil
		}
	}
	return service.Task{}, service.ErrNotFound
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleteCalls++
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return service.ErrNotFound
}
