package commands

import (
	"context"
	"fmt"
	"io"

	"tasksync/internal/exitcode"
	"tasksync/internal/service"
)

// lookupTasks loads the collection and resolves refs against it. Repeated
// references to one task resolve once. On failure the error has been
// reported and the exit code is returned.
func lookupTasks(ctx context.Context, env *Env, args []string, errOut io.Writer) ([]service.Task, int) {
	refs, err := ParseTaskRefs(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return nil, exitcode.UserError
	}

	if err := env.Store.List(ctx); err != nil {
		return nil, env.failure(errOut)
	}
	tasks := env.Store.Tasks()

	seen := make(map[string]bool, len(refs))
	found := make([]service.Task, 0, len(refs))
	for _, ref := range refs {
		task, err := ref.Resolve(tasks)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return nil, exitcode.UserError
		}
		if seen[task.ID] {
			continue
		}
		seen[task.ID] = true
		found = append(found, task)
	}
	return found, exitcode.Success
}

// lookupTask is lookupTasks for commands that take exactly one reference.
func lookupTask(ctx context.Context, env *Env, args []string, errOut io.Writer) (service.Task, int) {
	if len(args) > 1 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[1])
		return service.Task{}, exitcode.UserError
	}
	tasks, code := lookupTasks(ctx, env, args, errOut)
	if code != exitcode.Success {
		return service.Task{}, code
	}
	return tasks[0], exitcode.Success
}
