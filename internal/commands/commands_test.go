package commands_test

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"tasksync/internal/commands"
	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/notify"
	"tasksync/internal/service"
	"tasksync/internal/store"
	"tasksync/internal/testutil"
)

// newEnv builds the environment the dispatcher would hand a command.
func newEnv(t *testing.T, svc service.Service, quiet bool, out, errOut *bytes.Buffer) *commands.Env {
	t.Helper()

	cfg := &config.Config{
		Dir:     t.TempDir(),
		Backend: config.BackendREST,
		Quiet:   quiet,
	}
	env := &commands.Env{Config: cfg, Log: zap.NewNop()}
	if svc != nil {
		rec := &notify.Recorder{}
		env.Events = rec
		env.Store = store.New(svc,
			store.WithNotifier(notify.Multi(notify.NewWriter(out, errOut, quiet), rec)),
		)
		t.Cleanup(env.Store.Close)
	}
	return env
}

// runCommand is a helper to run a command with FakeService.
func runCommand(t *testing.T, cmd commands.Command, svc *testutil.FakeService, args []string, quiet bool) (stdout, stderr string, code int) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer
	var s service.Service
	if svc != nil {
		s = svc
	}
	env := newEnv(t, s, quiet, &outBuf, &errBuf)

	code = cmd.Run(context.Background(), env, args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func newFlagSet(cmd commands.Command) *flag.FlagSet {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.RegisterFlags(fs)
	return fs
}

func seeded(titles ...string) *testutil.FakeService {
	svc := testutil.NewFakeService()
	for i, title := range titles {
		svc.AddTask(service.Task{ID: "task" + string(rune('1'+i)), Title: title})
	}
	return svc
}

func expect(t *testing.T, gotOut, gotErr string, gotCode int, wantOut, wantErr string, wantCode int) {
	t.Helper()
	if gotCode != wantCode {
		t.Errorf("expected exit code %d, got %d", wantCode, gotCode)
	}
	if gotOut != wantOut {
		t.Errorf("expected stdout %q, got %q", wantOut, gotOut)
	}
	if gotErr != wantErr {
		t.Errorf("expected stderr %q, got %q", wantErr, gotErr)
	}
}

// Tests for version command
func TestVersionCommand(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.VersionCmd{}, nil, nil, false)
	expect(t, stdout, stderr, code, "tasksync 0.1.0\n", "", exitcode.Success)
}

func TestVersionCommand_Verbose(t *testing.T) {
	cmd := &commands.VersionCmd{}
	if err := newFlagSet(cmd).Parse([]string{"--verbose"}); err != nil {
		t.Fatal(err)
	}
	stdout, stderr, code := runCommand(t, cmd, nil, nil, false)

	if code != exitcode.Success || stderr != "" {
		t.Fatalf("code=%d stderr=%q", code, stderr)
	}
	if !strings.HasPrefix(stdout, "tasksync 0.1.0\ngo: ") {
		t.Errorf("unexpected output %q", stdout)
	}
	if !strings.Contains(stdout, "backend: rest\n") {
		t.Errorf("expected backend line, got %q", stdout)
	}
}

// Tests for help command
func TestHelpCommand(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.HelpCmd{}, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	for _, want := range []string{"Usage:", "tasksync edit", "tasksync done <ref...>", "(also: toggle)", "--api-url"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("help output should contain %q", want)
		}
	}
}

// Tests for list command
func TestListCommand_WithTasks(t *testing.T) {
	svc := seeded("Buy milk", "Buy eggs")

	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, svc, nil, false)
	expect(t, stdout, stderr, code, "   1  [ ] Buy milk\n   2  [ ] Buy eggs\n", "", exitcode.Success)
}

func TestListCommand_Empty(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, testutil.NewFakeService(), nil, false)
	expect(t, stdout, stderr, code, "no tasks found\n", "", exitcode.Success)
}

func TestListCommand_EmptyQuiet(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, testutil.NewFakeService(), nil, true)
	expect(t, stdout, stderr, code, "", "", exitcode.Success)
}

func TestListCommand_JSON(t *testing.T) {
	cmd := &commands.ListCmd{}
	cmd.SetFormat("json")

	stdout, stderr, code := runCommand(t, cmd, seeded("Buy milk"), nil, false)

	if code != exitcode.Success || stderr != "" {
		t.Fatalf("code=%d stderr=%q", code, stderr)
	}
	if !strings.Contains(stdout, `"title": "Buy milk"`) || !strings.Contains(stdout, `"dueDate": null`) {
		t.Errorf("unexpected JSON output: %s", stdout)
	}
}

func TestListCommand_UnknownFormat(t *testing.T) {
	cmd := &commands.ListCmd{}
	cmd.SetFormat("xml")
	svc := seeded("Buy milk")

	stdout, stderr, code := runCommand(t, cmd, svc, nil, false)
	expect(t, stdout, stderr, code, "", "error: unknown format: xml\n", exitcode.UserError)
	if svc.ListCalls() != 0 {
		t.Error("gateway should not be called for a bad format")
	}
}

func TestListCommand_BackendError(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.ListTasksErr = errors.New("connection refused")

	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, svc, nil, false)
	expect(t, stdout, stderr, code, "", "error: Failed to load tasks\n", exitcode.BackendError)
}

func TestListCommand_Unauthorized(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.ListTasksErr = &service.StatusError{Code: 401}

	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, svc, nil, false)
	expect(t, stdout, stderr, code, "",
		"error: Failed to load tasks\nerror: session expired or invalid (run: tasksync login)\n",
		exitcode.AuthError)
}

// Tests for add command
func TestAddCommand_Success(t *testing.T) {
	svc := testutil.NewFakeService()
	cmd := &commands.AddCmd{}
	cmd.SetDescription("semi-skimmed")
	cmd.SetDue("2024-03-01")

	stdout, stderr, code := runCommand(t, cmd, svc, []string{"Buy", "groceries"}, false)
	expect(t, stdout, stderr, code, "Task created successfully\n", "", exitcode.Success)

	task, ok := svc.Stored("task-1")
	if !ok {
		t.Fatal("task was not created")
	}
	if task.Title != "Buy groceries" || task.Description != "semi-skimmed" {
		t.Errorf("unexpected task: %+v", task)
	}
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if task.DueDate == nil || !task.DueDate.Equal(want) {
		t.Errorf("expected due %v, got %v", want, task.DueDate)
	}
	if svc.ListCalls() != 1 {
		t.Errorf("expected a refresh after create, got %d list calls", svc.ListCalls())
	}
}

func TestAddCommand_Quiet(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.AddCmd{}, testutil.NewFakeService(), []string{"Buy", "milk"}, true)
	expect(t, stdout, stderr, code, "", "", exitcode.Success)
}

func TestAddCommand_NoTitle(t *testing.T) {
	svc := testutil.NewFakeService()

	stdout, stderr, code := runCommand(t, &commands.AddCmd{}, svc, []string{"  "}, false)
	expect(t, stdout, stderr, code, "", "error: title required\n", exitcode.UserError)
	if svc.CreateCalls() != 0 {
		t.Error("gateway should not be called without a title")
	}
}

func TestAddCommand_BadDueDate(t *testing.T) {
	cmd := &commands.CreateCmd{}
	fs := newFlagSet(cmd)
	if err := fs.Parse([]string{"--due", "tomorrow", "Buy", "milk"}); err != nil {
		t.Fatal(err)
	}

	stdout, stderr, code := runCommand(t, cmd, testutil.NewFakeService(), fs.Args(), false)
	expect(t, stdout, stderr, code, "", "error: invalid due date: tomorrow\n", exitcode.UserError)
}

func TestAddCommand_Duplicate(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.CreateTaskErr = service.ErrDuplicate

	stdout, stderr, code := runCommand(t, &commands.AddCmd{}, svc, []string{"Buy", "milk"}, false)
	expect(t, stdout, stderr, code, "", "error: Duplicate request detected\n", exitcode.BackendError)
}

func TestAddCommand_BackendError(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.CreateTaskErr = errors.New("boom")

	stdout, stderr, code := runCommand(t, &commands.AddCmd{}, svc, []string{"Buy", "milk"}, false)
	expect(t, stdout, stderr, code, "", "error: Failed to create task\n", exitcode.BackendError)
}

// Tests for edit command
func TestEditCommand_Title(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask(service.Task{ID: "task1", Title: "Buy milk", Description: "2 litres", IsCompleted: true})
	cmd := &commands.EditCmd{}
	cmd.SetTitle("Buy oat milk")

	stdout, stderr, code := runCommand(t, cmd, svc, []string{"1"}, false)
	expect(t, stdout, stderr, code, "Task updated\n", "", exitcode.Success)

	task, _ := svc.Stored("task1")
	want := service.Task{ID: "task1", Title: "Buy oat milk", Description: "2 litres", IsCompleted: true}
	if task.Title != want.Title || task.Description != want.Description || !task.IsCompleted {
		t.Errorf("expected %+v, got %+v", want, task)
	}
}

func TestEditCommand_DueDate(t *testing.T) {
	due := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	svc := testutil.NewFakeService()
	svc.AddTask(service.Task{ID: "task1", Title: "Pay rent", DueDate: &due})

	cmd := &commands.EditCmd{}
	cmd.SetNoDue(true)
	_, stderr, code := runCommand(t, cmd, svc, []string{"task1"}, false)
	if code != exitcode.Success {
		t.Fatalf("clear due: code=%d stderr=%q", code, stderr)
	}
	if task, _ := svc.Stored("task1"); task.DueDate != nil {
		t.Errorf("expected due date cleared, got %v", task.DueDate)
	}

	cmd = &commands.EditCmd{}
	cmd.SetDue("2024-02-03")
	_, stderr, code = runCommand(t, cmd, svc, []string{"task1"}, false)
	if code != exitcode.Success {
		t.Fatalf("set due: code=%d stderr=%q", code, stderr)
	}
	task, _ := svc.Stored("task1")
	if task.DueDate == nil || task.DueDate.Format("2006-01-02") != "2024-02-03" {
		t.Errorf("expected due 2024-02-03, got %v", task.DueDate)
	}
}

func TestEditCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*commands.EditCmd)
		args    []string
		wantErr string
	}{
		{"nothing to change", func(*commands.EditCmd) {}, []string{"1"}, "error: nothing to change\n"},
		{"due and no-due", func(c *commands.EditCmd) { c.SetDue("2024-01-01"); c.SetNoDue(true) }, []string{"1"},
			"error: cannot use both --due and --no-due\n"},
		{"no ref", func(c *commands.EditCmd) { c.SetTitle("x") }, nil, "error: task reference required\n"},
		{"out of range", func(c *commands.EditCmd) { c.SetTitle("x") }, []string{"9"}, "error: task number out of range: 9\n"},
		{"two refs", func(c *commands.EditCmd) { c.SetTitle("x") }, []string{"1", "2"}, "error: unexpected argument: 2\n"},
		{"empty title", func(c *commands.EditCmd) { c.SetTitle(" ") }, []string{"1"}, "error: Title is required\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &commands.EditCmd{}
			tt.setup(cmd)
			stdout, stderr, code := runCommand(t, cmd, seeded("Buy milk"), tt.args, false)
			expect(t, stdout, stderr, code, "", tt.wantErr, exitcode.UserError)
		})
	}
}

func TestEditCommand_BackendErrorReloads(t *testing.T) {
	svc := seeded("Buy milk")
	svc.ReplaceTaskErr = errors.New("boom")
	cmd := &commands.EditCmd{}
	cmd.SetTitle("Buy eggs")

	stdout, stderr, code := runCommand(t, cmd, svc, []string{"1"}, false)
	expect(t, stdout, stderr, code, "", "error: Failed to update task\n", exitcode.BackendError)
	if svc.ListCalls() != 2 {
		t.Errorf("expected lookup plus reconcile list, got %d list calls", svc.ListCalls())
	}
}

// Tests for done command
func TestDoneCommand_Success(t *testing.T) {
	svc := seeded("Buy milk", "Buy eggs")

	stdout, stderr, code := runCommand(t, &commands.DoneCmd{}, svc, []string{"1"}, false)
	expect(t, stdout, stderr, code, "done: Buy milk\n", "", exitcode.Success)

	if task, _ := svc.Stored("task1"); !task.IsCompleted {
		t.Error("task1 should be completed")
	}
	if task, _ := svc.Stored("task2"); task.IsCompleted {
		t.Error("task2 should be untouched")
	}
}

func TestDoneCommand_Reopen(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask(service.Task{ID: "task1", Title: "Buy milk", IsCompleted: true})

	stdout, stderr, code := runCommand(t, &commands.DoneCmd{}, svc, []string{"task1"}, false)
	expect(t, stdout, stderr, code, "reopened: Buy milk\n", "", exitcode.Success)
	if task, _ := svc.Stored("task1"); task.IsCompleted {
		t.Error("task1 should be open again")
	}
}

func TestDoneCommand_ManyTasks(t *testing.T) {
	svc := seeded("A", "B", "C")

	stdout, stderr, code := runCommand(t, &commands.DoneCmd{}, svc, []string{"3", "1"}, false)
	expect(t, stdout, stderr, code, "done: C\ndone: A\n", "", exitcode.Success)
	if task, _ := svc.Stored("task2"); task.IsCompleted {
		t.Error("task2 should be untouched")
	}
}

func TestDoneCommand_RepeatedRefTogglesOnce(t *testing.T) {
	svc := seeded("Buy milk")

	_, stderr, code := runCommand(t, &commands.DoneCmd{}, svc, []string{"1", "task1", "1"}, false)
	if code != exitcode.Success {
		t.Fatalf("code=%d stderr=%q", code, stderr)
	}
	if n := svc.ReplaceCalls("task1"); n != 1 {
		t.Errorf("expected one toggle request, got %d", n)
	}
	if task, _ := svc.Stored("task1"); !task.IsCompleted {
		t.Error("task1 should be completed")
	}
}

func TestDoneCommand_Failure(t *testing.T) {
	svc := seeded("Buy milk")
	svc.ReplaceTaskErr = errors.New("boom")

	stdout, stderr, code := runCommand(t, &commands.DoneCmd{}, svc, []string{"1"}, false)
	expect(t, stdout, stderr, code, "", "error: Failed to update status\n", exitcode.BackendError)
}

func TestDoneCommand_NoRef(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.DoneCmd{}, seeded(), nil, false)
	expect(t, stdout, stderr, code, "", "error: task reference required\n", exitcode.UserError)
}

func TestDoneCommand_OutOfRange(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.DoneCmd{}, seeded("Only task"), []string{"5"}, false)
	expect(t, stdout, stderr, code, "", "error: task number out of range: 5\n", exitcode.UserError)
}

func TestDoneCommand_UnknownID(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.DoneCmd{}, seeded("Only task"), []string{"nope"}, false)
	expect(t, stdout, stderr, code, "", "error: task not found: nope\n", exitcode.UserError)
}

// Tests for rm command
func TestRmCommand_Success(t *testing.T) {
	svc := seeded("Buy milk", "Buy eggs")

	stdout, stderr, code := runCommand(t, &commands.RmCmd{}, svc, []string{"1"}, false)
	expect(t, stdout, stderr, code, "Task deleted\n", "", exitcode.Success)

	if svc.Len() != 1 {
		t.Errorf("expected 1 task remaining, got %d", svc.Len())
	}
	if _, ok := svc.Stored("task1"); ok {
		t.Error("task1 should be gone")
	}
}

func TestRmCommand_Failure(t *testing.T) {
	svc := seeded("Buy milk")
	svc.DeleteTaskErr = errors.New("boom")

	stdout, stderr, code := runCommand(t, &commands.RmCmd{}, svc, []string{"1"}, false)
	expect(t, stdout, stderr, code, "", "error: Failed to delete task\n", exitcode.BackendError)
	if svc.Len() != 1 {
		t.Error("task should survive a failed delete")
	}
}

func TestRmCommand_NoRef(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.RmCmd{}, seeded(), nil, false)
	expect(t, stdout, stderr, code, "", "error: task reference required\n", exitcode.UserError)
}
