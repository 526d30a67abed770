package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"tasksync/internal/exitcode"
	"tasksync/internal/service"
)

// maxConcurrentToggles bounds the toggles sent at once.
const maxConcurrentToggles = 4

var errToggleFailed = errors.New("toggle failed")

func init() {
	Register(&DoneCmd{})
}

// DoneCmd implements the done command. Each referenced task has its
// completion flipped; several tasks are toggled concurrently.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return []string{"toggle"} }
func (c *DoneCmd) Synopsis() string  { return "Toggle task completion" }
func (c *DoneCmd) Usage() string     { return "tasksync done <ref...>" }
func (c *DoneCmd) NeedsAuth() bool   { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	tasks, code := lookupTasks(ctx, env, args, errOut)
	if code != exitcode.Success {
		return code
	}

	results := make([]bool, len(tasks))
	var g errgroup.Group
	g.SetLimit(maxConcurrentToggles)
	for i, task := range tasks {
		g.Go(func() error {
			results[i] = env.Store.ToggleComplete(ctx, task)
			if !results[i] {
				return fmt.Errorf("%w: %s", errToggleFailed, task.ID)
			}
			return nil
		})
	}
	err := g.Wait()
	printToggled(out, env, tasks, results)
	if err != nil {
		return env.failure(errOut)
	}
	return exitcode.Success
}

// printToggled reports the new state of each task that was toggled.
func printToggled(out io.Writer, env *Env, tasks []service.Task, results []bool) {
	if env.quiet() {
		return
	}
	for i, task := range tasks {
		if !results[i] {
			continue
		}
		state := "done"
		if task.IsCompleted {
			state = "reopened"
		}
		fmt.Fprintf(out, "%s: %s\n", state, task.Title)
	}
}
