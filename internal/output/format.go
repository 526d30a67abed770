// Package output provides formatters for CLI output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"tasksync/internal/service"
)

// Formats accepted by Write.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// EmptyMessage is printed in text format when there are no tasks.
const EmptyMessage = "no tasks found"

const dayLayout = "2006-01-02"

// descriptionIndent lines a description up under the task title.
var descriptionIndent = strings.Repeat(" ", 10)

// FormatTask formats a task line.
// Format: "{N:>4}  [x] {TITLE}  (due YYYY-MM-DD)\n". The due suffix is
// omitted when there is no due date; a description follows on its own line.
func FormatTask(w io.Writer, num int, task service.Task) {
	mark := " "
	if task.IsCompleted {
		mark = "x"
	}
	line := fmt.Sprintf("%4d  [%s] %s", num, mark, normalizeTitle(task.Title))
	if task.DueDate != nil {
		line += "  (due " + task.DueDate.UTC().Format(dayLayout) + ")"
	}
	fmt.Fprintln(w, line)

	if desc := normalizeText(task.Description); desc != "" {
		fmt.Fprintln(w, descriptionIndent+desc)
	}
}

// FormatTasks formats the whole collection, numbered from 1.
func FormatTasks(w io.Writer, tasks []service.Task) {
	for i, task := range tasks {
		FormatTask(w, i+1, task)
	}
}

// taskView is the machine-readable shape of a task. Due dates use the
// gateway's canonical form.
type taskView struct {
	ID          string  `json:"id" yaml:"id"`
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description" yaml:"description"`
	DueDate     *string `json:"dueDate" yaml:"dueDate"`
	IsCompleted bool    `json:"isCompleted" yaml:"isCompleted"`
}

func views(tasks []service.Task) []taskView {
	out := make([]taskView, len(tasks))
	for i, t := range tasks {
		out[i] = taskView{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			DueDate:     service.FormatDueDate(t.DueDate),
			IsCompleted: t.IsCompleted,
		}
	}
	return out
}

// WriteJSON writes tasks as an indented JSON array.
func WriteJSON(w io.Writer, tasks []service.Task) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(views(tasks))
}

// WriteYAML writes tasks as a YAML sequence.
func WriteYAML(w io.Writer, tasks []service.Task) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(views(tasks)); err != nil {
		return err
	}
	return enc.Close()
}

// Write renders tasks in format. Text output of an empty collection prints
// EmptyMessage unless quiet is set.
func Write(w io.Writer, format string, tasks []service.Task, quiet bool) error {
	switch format {
	case "", FormatText:
		if len(tasks) == 0 {
			if !quiet {
				fmt.Fprintln(w, EmptyMessage)
			}
			return nil
		}
		FormatTasks(w, tasks)
		return nil
	case FormatJSON:
		return WriteJSON(w, tasks)
	case FormatYAML:
		return WriteYAML(w, tasks)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// ValidFormat reports whether Write accepts format.
func ValidFormat(format string) bool {
	switch format {
	case "", FormatText, FormatJSON, FormatYAML:
		return true
	}
	return false
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = normalizeText(title)
	if title == "" {
		return "(untitled)"
	}
	return title
}

func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
