// Package googletasks implements the service.Service interface using Google Tasks API.
//
// Tasks live in the user's default list. Notes carry the description and the
// status field carries completion.
package googletasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"tasksync/internal/config"
	"tasksync/internal/logger"
	"tasksync/internal/service"
	"tasksync/internal/session"
)

const (
	// DefaultListID is the special ID for the default list.
	DefaultListID = "@default"

	// PageSize is the number of tasks per page.
	PageSize = 100

	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	// RequestIDHeader carries the idempotency token on insert.
	RequestIDHeader = "X-Request-ID"

	// OAuth scope for Google Tasks
	tasksScope = "https://www.googleapis.com/auth/tasks"

	statusCompleted   = "completed"
	statusNeedsAction = "needsAction"
)

// Client implements service.Service using Google Tasks API.
type Client struct {
	svc    *tasks.Service
	listID string
	log    *zap.Logger
}

// New creates a new Google Tasks client.
// Requires oauth_client.json and token.json to exist.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Client, error) {
	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth_client.json: %w", err)
	}

	oauthConfig, err := google.ConfigFromJSON(clientJSON, tasksScope)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth_client.json: %w", err)
	}

	token, err := session.Load(cfg.TokenPath())
	if err != nil {
		if errors.Is(err, session.ErrNoCredential) {
			return nil, fmt.Errorf("%w: %w", service.ErrUnauthorized, err)
		}
		return nil, err
	}

	// Auto-refreshing token source
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, token))

	c, err := NewWithHTTPClient(ctx, httpClient)
	if err != nil {
		return nil, err
	}
	c.log = logger.OrNop(log)
	return c, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client. Extra options
// (such as option.WithEndpoint) are passed to the API service.
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return &Client{svc: svc, listID: DefaultListID, log: zap.NewNop()}, nil
}

// ListTasks returns every task of the default list, completed and hidden ones
// included, in API order.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	call := c.svc.Tasks.List(c.listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false)

	result := []service.Task{}
	err := call.Pages(ctx, func(resp *tasks.Tasks) error {
		for _, item := range resp.Items {
			task, err := fromAPI(item)
			if err != nil {
				return err
			}
			result = append(result, task)
		}
		return nil
	})
	if err != nil {
		return nil, wrapError(err)
	}
	c.log.Debug("listed google tasks", zap.Int("count", len(result)))
	return result, nil
}

// CreateTask inserts a task. The idempotency token travels as a request header.
func (c *Client) CreateTask(ctx context.Context, draft service.Draft, requestID string) (service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	call := c.svc.Tasks.Insert(c.listID, toAPI("", draft.Title, draft.Description, draft.DueDate, false))
	call.Header().Set(RequestIDHeader, requestID)

	created, err := call.Context(ctx).Do()
	if err != nil {
		return service.Task{}, wrapError(err)
	}
	return fromAPI(created)
}

// ReplaceTask overwrites every field of a task.
func (c *Client) ReplaceTask(ctx context.Context, id string, fields service.Fields) (service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	body := toAPI(id, fields.Title, fields.Description, fields.DueDate, fields.IsCompleted)
	updated, err := c.svc.Tasks.Update(c.listID, id, body).Context(ctx).Do()
	if err != nil {
		return service.Task{}, wrapError(err)
	}
	return fromAPI(updated)
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	if err := c.svc.Tasks.Delete(c.listID, id).Context(ctx).Do(); err != nil {
		return wrapError(err)
	}
	return nil
}

func toAPI(id, title, description string, due *time.Time, completed bool) *tasks.Task {
	t := &tasks.Task{
		Id:     id,
		Title:  title,
		Notes:  description,
		Status: statusNeedsAction,
		// An empty description must clear the stored notes.
		ForceSendFields: []string{"Notes"},
	}
	if completed {
		t.Status = statusCompleted
	}
	if s := service.FormatDueDate(due); s != nil {
		t.Due = *s
	} else {
		t.NullFields = []string{"Due"}
	}
	return t
}

func fromAPI(t *tasks.Task) (service.Task, error) {
	due, err := service.ParseDueDate(t.Due)
	if err != nil {
		return service.Task{}, fmt.Errorf("task %s: %w", t.Id, err)
	}
	return service.Task{
		ID:          t.Id,
		Title:       t.Title,
		Description: t.Notes,
		DueDate:     due,
		IsCompleted: t.Status == statusCompleted,
	}, nil
}

// wrapError maps API errors onto the service sentinels.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: token expired or revoked (run: tasksync login)", service.ErrUnauthorized)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", service.ErrNotFound, apiErr.Message)
	}
	return &service.StatusError{Code: apiErr.Code, Message: apiErr.Message}
}
