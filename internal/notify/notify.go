// Package notify carries user-visible notifications out of the task store.
package notify

import (
	"fmt"
	"io"
	"sync"
)

// Kind classifies a notification.
type Kind int

const (
	// Success reports a completed create, update or delete.
	Success Kind = iota

	// LoadError reports a failed list fetch. Local state is preserved.
	LoadError

	// DuplicateSubmission reports a create rejected as a duplicate.
	DuplicateSubmission

	// MutationError reports a failed create, update or delete.
	MutationError

	// ToggleError reports a failed toggle. The optimistic flip was reverted.
	ToggleError
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case LoadError:
		return "load_error"
	case DuplicateSubmission:
		return "duplicate_submission"
	case MutationError:
		return "mutation_error"
	case ToggleError:
		return "toggle_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// IsError reports whether k is a failure kind.
func (k Kind) IsError() bool {
	return k != Success
}

// Notification is a single message for the user.
type Notification struct {
	Kind    Kind
	Message string
	TaskID  string // empty for collection-level notifications
	Err     error  // underlying cause, nil for Success
}

// Notifier receives notifications.
type Notifier interface {
	Notify(n Notification)
}

// Func adapts a function to Notifier.
type Func func(n Notification)

// Notify implements Notifier.
func (f Func) Notify(n Notification) { f(n) }

// Discard drops every notification.
var Discard Notifier = Func(func(Notification) {})

// Writer prints notifications the way the CLI reports results:
// successes to out, failures as "error: ..." to errOut.
type Writer struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
	quiet  bool
}

// NewWriter creates a Writer. With quiet set, successes are not printed.
func NewWriter(out, errOut io.Writer, quiet bool) *Writer {
	return &Writer{out: out, errOut: errOut, quiet: quiet}
}

// Notify implements Notifier.
func (w *Writer) Notify(n Notification) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if n.Kind.IsError() {
		fmt.Fprintf(w.errOut, "error: %s\n", n.Message)
		return
	}
	if !w.quiet {
		fmt.Fprintln(w.out, n.Message)
	}
}

// Recorder keeps every notification it receives, for tests and for callers
// that need to inspect what happened during a command.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

// Notify implements Notifier.
func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns a copy of the recorded notifications in arrival order.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Count returns how many notifications of kind k were recorded.
func (r *Recorder) Count(k Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, item := range r.items {
		if item.Kind == k {
			n++
		}
	}
	return n
}

// Reset clears the recorder.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
}

// Multi fans a notification out to several notifiers.
func Multi(ns ...Notifier) Notifier {
	return Func(func(n Notification) {
		for _, target := range ns {
			target.Notify(n)
		}
	})
}
