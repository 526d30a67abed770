package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"tasksync/internal/service"
)

// TaskRef names a task either by its 1-based position in the listed
// collection or by its gateway ID.
type TaskRef struct {
	Position int    // 0 when the reference is an ID
	ID       string // empty when the reference is a position
}

func (r TaskRef) String() string {
	if r.ID != "" {
		return r.ID
	}
	return strconv.Itoa(r.Position)
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses one task reference.
//
// All digits is a position (as printed by list). Anything else is taken as a
// task ID. Gateways that use numeric IDs are addressed by position.
func ParseTaskRef(arg string) (TaskRef, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return TaskRef{}, ErrTaskRefRequired
	}
	if isAllDigits(arg) {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return TaskRef{}, fmt.Errorf("task number out of range: %s", arg)
		}
		return TaskRef{Position: n}, nil
	}
	if strings.ContainsFunc(arg, unicode.IsSpace) {
		return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
	}
	return TaskRef{ID: arg}, nil
}

// ParseTaskRefs parses every argument as a task reference.
func ParseTaskRefs(args []string) ([]TaskRef, error) {
	if len(args) == 0 {
		return nil, ErrTaskRefRequired
	}
	refs := make([]TaskRef, 0, len(args))
	for _, arg := range args {
		ref, err := ParseTaskRef(arg)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// Resolve finds the task ref points at in tasks.
func (r TaskRef) Resolve(tasks []service.Task) (service.Task, error) {
	if r.ID == "" {
		if r.Position < 1 || r.Position > len(tasks) {
			return service.Task{}, fmt.Errorf("task number out of range: %d", r.Position)
		}
		return tasks[r.Position-1], nil
	}
	for _, t := range tasks {
		if t.ID == r.ID {
			return t, nil
		}
	}
	return service.Task{}, fmt.Errorf("task not found: %s", r.ID)
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
