package store

import "tasksync/internal/service"

// SyncState is the outcome of the last local mutation applied to a task.
type SyncState int

const (
	// Committed means the local copy matches the last server response.
	Committed SyncState = iota

	// Pending means a speculative local change is waiting on the gateway.
	Pending

	// RolledBack means the last speculative change failed and was reverted.
	RolledBack
)

func (s SyncState) String() string {
	switch s {
	case Committed:
		return "committed"
	case Pending:
		return "pending"
	case RolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// entry is a task plus the bookkeeping for its in-flight mutation.
type entry struct {
	task     service.Task
	state    SyncState
	snapshot *service.Task // value before the pending mutation
}

// begin applies a speculative value and remembers what to revert to.
func (e *entry) begin(next service.Task) {
	prev := e.task
	e.snapshot = &prev
	e.task = next
	e.state = Pending
}

// commit accepts the current value as server truth.
func (e *entry) commit(confirmed *service.Task) {
	if confirmed != nil {
		e.task = *confirmed
	}
	e.snapshot = nil
	e.state = Committed
}

// rollback restores the value saved by begin.
func (e *entry) rollback(to service.Task) {
	e.task = to
	e.snapshot = nil
	e.state = RolledBack
}

// Snapshot is the observable state of the store at a point in time.
type Snapshot struct {
	Tasks   []service.Task
	Loading bool
}
