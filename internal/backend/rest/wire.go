package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tasksync/internal/service"
)

// createRequest is the POST /Tasks body.
type createRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     *string `json:"dueDate"`
}

// replaceRequest is the PUT /Tasks/{id} body.
type replaceRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     *string `json:"dueDate"`
	IsCompleted bool    `json:"isCompleted"`
}

// taskResponse is a task as the gateway returns it.
type taskResponse struct {
	ID          flexID  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"dueDate"`
	IsCompleted bool    `json:"isCompleted"`
}

// errorResponse covers the error bodies the gateway is known to send.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Title   string `json:"title"`
}

func (e errorResponse) text() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Error != "":
		return e.Error
	default:
		return e.Title
	}
}

// flexID accepts both string and numeric identifiers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid task id %s", data)
	}
	*f = flexID(n.String())
	return nil
}

// Layouts the gateway may use for due dates. Values without a zone are UTC.
var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02",
}

func parseDueDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, *s); err == nil {
			return service.NormalizeDueDate(&t), nil
		}
	}
	return nil, fmt.Errorf("parse dueDate: %q", *s)
}

func (r taskResponse) toTask() (service.Task, error) {
	due, err := parseDueDate(r.DueDate)
	if err != nil {
		return service.Task{}, err
	}
	task := service.Task{
		ID:          string(r.ID),
		Title:       r.Title,
		DueDate:     due,
		IsCompleted: r.IsCompleted,
	}
	if r.Description != nil {
		task.Description = *r.Description
	}
	return task, nil
}

func newCreateRequest(d service.Draft) createRequest {
	return createRequest{
		Title:       d.Title,
		Description: d.Description,
		DueDate:     service.FormatDueDate(d.DueDate),
	}
}

func newReplaceRequest(f service.Fields) replaceRequest {
	return replaceRequest{
		Title:       f.Title,
		Description: f.Description,
		DueDate:     service.FormatDueDate(f.DueDate),
		IsCompleted: f.IsCompleted,
	}
}
