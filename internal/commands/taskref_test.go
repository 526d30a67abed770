package commands

import (
	"testing"

	"tasksync/internal/service"
)

func TestParseTaskRef_Position(t *testing.T) {
	ref, err := ParseTaskRef("5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Position != 5 || ref.ID != "" {
		t.Errorf("expected position 5, got %+v", ref)
	}
}

func TestParseTaskRef_ID(t *testing.T) {
	ref, err := ParseTaskRef("3f2c9a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.ID != "3f2c9a" || ref.Position != 0 {
		t.Errorf("expected ID ref, got %+v", ref)
	}
	if ref.String() != "3f2c9a" {
		t.Errorf("String() = %q", ref.String())
	}
}

func TestParseTaskRef_Errors(t *testing.T) {
	tests := []struct {
		arg     string
		wantErr string
	}{
		{"", "task reference required"},
		{"0", "task number out of range: 0"},
		{"a b", "invalid task reference: a b"},
	}
	for _, tt := range tests {
		_, err := ParseTaskRef(tt.arg)
		if err == nil {
			t.Errorf("ParseTaskRef(%q): expected error", tt.arg)
			continue
		}
		if err.Error() != tt.wantErr {
			t.Errorf("ParseTaskRef(%q) = %q, want %q", tt.arg, err.Error(), tt.wantErr)
		}
	}
}

func TestParseTaskRefs_Empty(t *testing.T) {
	if _, err := ParseTaskRefs(nil); err != ErrTaskRefRequired {
		t.Errorf("expected ErrTaskRefRequired, got %v", err)
	}
}

func TestParseTaskRefs_Mixed(t *testing.T) {
	refs, err := ParseTaskRefs([]string{"1", "abc", "2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(refs) != 3 || refs[0].Position != 1 || refs[1].ID != "abc" || refs[2].Position != 2 {
		t.Errorf("unexpected refs: %+v", refs)
	}
}

func TestTaskRefResolve(t *testing.T) {
	tasks := []service.Task{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}}

	got, err := TaskRef{Position: 2}.Resolve(tasks)
	if err != nil || got.ID != "b" {
		t.Errorf("position 2 = %+v, %v", got, err)
	}

	got, err = TaskRef{ID: "a"}.Resolve(tasks)
	if err != nil || got.Title != "A" {
		t.Errorf("id a = %+v, %v", got, err)
	}

	if _, err := (TaskRef{Position: 3}).Resolve(tasks); err == nil || err.Error() != "task number out of range: 3" {
		t.Errorf("position 3 error = %v", err)
	}
	if _, err := (TaskRef{ID: "zz"}).Resolve(tasks); err == nil || err.Error() != "task not found: zz" {
		t.Errorf("id zz error = %v", err)
	}
}
