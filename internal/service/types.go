// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"fmt"
	"strings"
	"time"
)

// DueDateLayout is the canonical wire form of a due date: UTC, millisecond precision.
const DueDateLayout = "2006-01-02T15:04:05.000Z"

// dayLayout is the date-only input form accepted from users.
const dayLayout = "2006-01-02"

// Task represents a single task owned by the current user.
type Task struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	DueDate     *time.Time `json:"dueDate" yaml:"dueDate,omitempty"`
	IsCompleted bool       `json:"isCompleted" yaml:"isCompleted"`
}

// Fields returns the whole-resource replacement body for t.
func (t Task) Fields() Fields {
	return Fields{
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		IsCompleted: t.IsCompleted,
	}
}

// Apply returns a copy of t with every replaceable field taken from f.
// The ID is never changed.
func (t Task) Apply(f Fields) Task {
	t.Title = f.Title
	t.Description = f.Description
	t.DueDate = f.DueDate
	t.IsCompleted = f.IsCompleted
	return t
}

// Draft is the payload for creating a task. The server assigns the ID.
type Draft struct {
	Title       string
	Description string
	DueDate     *time.Time
}

// Fields is the full set of fields sent on update.
// The gateway replaces the whole resource; there is no partial patch.
type Fields struct {
	Title       string
	Description string
	DueDate     *time.Time
	IsCompleted bool
}

// FormatDueDate renders a due date in its canonical form.
// Returns nil for a nil date so it encodes as JSON null.
func FormatDueDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(DueDateLayout)
	return &s
}

// NormalizeDueDate truncates t to the precision of the canonical form.
func NormalizeDueDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	n := t.UTC().Truncate(time.Millisecond)
	return &n
}

// ParseDueDate parses a user supplied due date.
// Accepts YYYY-MM-DD (UTC midnight) or RFC 3339. An empty string means no due date.
func ParseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(dayLayout, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid due date: %s", s)
	}
	return NormalizeDueDate(&t), nil
}
