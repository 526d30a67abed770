// Package store keeps the in-memory task collection for a session and
// synchronizes local mutations with the task gateway.
//
// Toggles are applied optimistically and reverted on failure. Creates are not
// applied locally at all; the collection is refreshed after the gateway
// assigns the new task's identity. Updates are applied speculatively and
// reconciled with a full refresh when the gateway rejects them. Deletes only
// touch local state after the gateway confirms.
//
// All methods are safe for concurrent use. No lock is held while a gateway
// call is in flight, so list refreshes and mutations may interleave; the last
// write to local state wins.
package store

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tasksync/internal/logger"
	"tasksync/internal/notify"
	"tasksync/internal/service"
)

var (
	// ErrSuperseded is returned by List when a newer List call replaced it.
	// Its result was discarded.
	ErrSuperseded = errors.New("list superseded by a newer request")

	// ErrTitleRequired is reported when a create or update has an empty title.
	ErrTitleRequired = errors.New("title is required")

	// ErrUnknownTask is reported when an update names a task not in the collection.
	ErrUnknownTask = errors.New("task not in collection")
)

// Notification messages.
const (
	msgLoadFailed    = "Failed to load tasks"
	msgCreated       = "Task created successfully"
	msgDuplicate     = "Duplicate request detected"
	msgCreateFailed  = "Failed to create task"
	msgUpdated       = "Task updated"
	msgUpdateFailed  = "Failed to update task"
	msgToggleFailed  = "Failed to update status"
	msgDeleted       = "Task deleted"
	msgDeleteFailed  = "Failed to delete task"
	msgTitleRequired = "Title is required"
	msgUnknownTask   = "Task not found"
)

// Option configures a Store.
type Option func(*Store)

// WithNotifier sets where user-visible notifications go.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Store) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		s.log = logger.OrNop(l)
	}
}

// WithTokenFunc replaces the idempotency token generator.
func WithTokenFunc(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newToken = fn
		}
	}
}

// Store is the task synchronization store.
type Store struct {
	svc      service.Service
	notifier notify.Notifier
	log      *zap.Logger
	newToken func() string

	mu         sync.Mutex
	entries    []entry
	loading    bool
	listSeq    uint64
	cancelList context.CancelFunc
	toggling   map[string]struct{}
	subs       map[int]func(Snapshot)
	nextSub    int
}

// New creates an empty store backed by svc.
func New(svc service.Service, opts ...Option) *Store {
	s := &Store{
		svc:      svc,
		notifier: notify.Discard,
		log:      zap.NewNop(),
		newToken: uuid.NewString,
		toggling: make(map[string]struct{}),
		subs:     make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List fetches the full collection and replaces local state.
//
// Each call supersedes any earlier List still in flight: the earlier request
// is cancelled and, should its response still arrive, it is discarded and
// ErrSuperseded returned. On failure local state is left untouched and a
// LoadError notification is sent.
func (s *Store) List(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.listSeq++
	seq := s.listSeq
	if s.cancelList != nil {
		s.cancelList()
	}
	s.cancelList = cancel
	s.loading = true
	s.mu.Unlock()
	s.publish()

	s.log.Debug("listing tasks", zap.Uint64("seq", seq))
	tasks, err := s.svc.ListTasks(ctx)

	s.mu.Lock()
	if seq != s.listSeq {
		s.mu.Unlock()
		s.log.Debug("discarding superseded list response", zap.Uint64("seq", seq))
		return ErrSuperseded
	}
	s.loading = false
	s.cancelList = nil
	if err == nil {
		s.entries = make([]entry, len(tasks))
		for i, t := range tasks {
			s.entries[i] = entry{task: t, state: Committed}
		}
	}
	s.mu.Unlock()
	s.publish()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		s.log.Debug("failed to fetch tasks", zap.Error(err))
		s.notify(notify.LoadError, msgLoadFailed, "", err)
		return err
	}
	return nil
}

// Refresh is List under the name the presentation layer uses.
func (s *Store) Refresh(ctx context.Context) error {
	return s.List(ctx)
}

// Create sends a new task to the gateway with a fresh idempotency token and
// refreshes the collection on success. Nothing is inserted locally before the
// gateway assigns an identity. Returns true on success.
func (s *Store) Create(ctx context.Context, draft service.Draft) bool {
	draft.Title = strings.TrimSpace(draft.Title)
	if draft.Title == "" {
		s.notify(notify.MutationError, msgTitleRequired, "", ErrTitleRequired)
		return false
	}
	draft.DueDate = service.NormalizeDueDate(draft.DueDate)

	token := s.newToken()
	created, err := s.svc.CreateTask(ctx, draft, token)
	if err != nil {
		s.log.Debug("failed to create task", zap.String("request_id", token), zap.Error(err))
		if errors.Is(err, service.ErrDuplicate) {
			s.notify(notify.DuplicateSubmission, msgDuplicate, "", err)
		} else {
			s.notify(notify.MutationError, msgCreateFailed, "", err)
		}
		return false
	}

	s.log.Debug("task created", zap.String("task_id", created.ID), zap.String("request_id", token))
	s.notify(notify.Success, msgCreated, created.ID, nil)
	_ = s.List(ctx)
	return true
}

// Update replaces every field of a task the collection already holds.
// The change is applied locally first; if the gateway rejects it, the local
// copy is reverted and the collection is reloaded from the gateway.
// Returns true on success.
func (s *Store) Update(ctx context.Context, id string, fields service.Fields) bool {
	fields.Title = strings.TrimSpace(fields.Title)
	if fields.Title == "" {
		s.notify(notify.MutationError, msgTitleRequired, id, ErrTitleRequired)
		return false
	}
	fields.DueDate = service.NormalizeDueDate(fields.DueDate)

	s.mu.Lock()
	e := s.find(id)
	if e == nil {
		s.mu.Unlock()
		s.notify(notify.MutationError, msgUnknownTask, id, ErrUnknownTask)
		return false
	}
	before := e.task
	e.begin(before.Apply(fields))
	s.mu.Unlock()
	s.publish()

	updated, err := s.svc.ReplaceTask(ctx, id, fields)

	s.mu.Lock()
	if e := s.find(id); e != nil && e.state == Pending {
		if err != nil {
			e.rollback(before)
		} else if updated.ID == id {
			e.commit(&updated)
		} else {
			e.commit(nil)
		}
	}
	s.mu.Unlock()
	s.publish()

	if err != nil {
		s.log.Debug("failed to update task", zap.String("task_id", id), zap.Error(err))
		s.notify(notify.MutationError, msgUpdateFailed, id, err)
		_ = s.List(ctx)
		return false
	}
	s.notify(notify.Success, msgUpdated, id, nil)
	return true
}

// ToggleComplete flips the completion flag of task.
//
// The flip is shown locally before the gateway answers. A second toggle of
// the same task while the first is in flight is ignored. On failure the task
// is restored to the value passed in and a ToggleError notification is sent;
// success is silent. Returns true when a toggle was sent and accepted.
func (s *Store) ToggleComplete(ctx context.Context, task service.Task) bool {
	s.mu.Lock()
	if _, busy := s.toggling[task.ID]; busy {
		s.mu.Unlock()
		s.log.Debug("toggle already in flight", zap.String("task_id", task.ID))
		return false
	}
	s.toggling[task.ID] = struct{}{}

	original := task
	flipped := task
	flipped.IsCompleted = !task.IsCompleted
	if e := s.find(task.ID); e != nil {
		e.begin(flipped)
	}
	s.mu.Unlock()
	s.publish()

	_, err := s.svc.ReplaceTask(ctx, task.ID, flipped.Fields())

	s.mu.Lock()
	delete(s.toggling, task.ID)
	if e := s.find(task.ID); e != nil {
		if err != nil {
			e.rollback(original)
		} else {
			e.commit(nil)
		}
	}
	s.mu.Unlock()
	s.publish()

	if err != nil {
		s.log.Debug("failed to toggle task", zap.String("task_id", task.ID), zap.Error(err))
		s.notify(notify.ToggleError, msgToggleFailed, task.ID, err)
		return false
	}
	return true
}

// Delete removes a task on the gateway and, once confirmed, locally.
// A failed delete leaves the task in the collection. Returns true on success.
func (s *Store) Delete(ctx context.Context, id string) bool {
	if err := s.svc.DeleteTask(ctx, id); err != nil {
		s.log.Debug("failed to delete task", zap.String("task_id", id), zap.Error(err))
		s.notify(notify.MutationError, msgDeleteFailed, id, err)
		return false
	}

	s.mu.Lock()
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.task.ID != id {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	s.mu.Unlock()
	s.publish()

	s.notify(notify.Success, msgDeleted, id, nil)
	return true
}

// IsToggling reports whether a toggle of id is in flight.
func (s *Store) IsToggling(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.toggling[id]
	return ok
}

// Tasks returns a copy of the collection in gateway order.
func (s *Store) Tasks() []service.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasksLocked()
}

// Get returns the local copy of a task.
func (s *Store) Get(id string) (service.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.find(id); e != nil {
		return e.task, true
	}
	return service.Task{}, false
}

// State returns the sync state of a task.
func (s *Store) State(id string) (SyncState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.find(id); e != nil {
		return e.state, true
	}
	return 0, false
}

// Loading reports whether a List is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned function unregisters it.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Close cancels any List in flight. The store must not be used afterwards.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelList != nil {
		s.cancelList()
		s.cancelList = nil
	}
	s.subs = make(map[int]func(Snapshot))
}

func (s *Store) find(id string) *entry {
	for i := range s.entries {
		if s.entries[i].task.ID == id {
			return &s.entries[i]
		}
	}
	return nil
}

func (s *Store) tasksLocked() []service.Task {
	out := make([]service.Task, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.task
	}
	return out
}

func (s *Store) publish() {
	s.mu.Lock()
	if len(s.subs) == 0 {
		s.mu.Unlock()
		return
	}
	snap := Snapshot{Tasks: s.tasksLocked(), Loading: s.loading}
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (s *Store) notify(kind notify.Kind, msg, taskID string, err error) {
	s.notifier.Notify(notify.Notification{
		Kind:    kind,
		Message: msg,
		TaskID:  taskID,
		Err:     err,
	})
}
