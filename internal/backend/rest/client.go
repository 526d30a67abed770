// Package rest implements service.Service against the task gateway's HTTP API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"tasksync/internal/logger"
	"tasksync/internal/service"
	"tasksync/internal/session"
)

const (
	// DefaultBaseURL is used when no API URL is configured.
	DefaultBaseURL = "http://localhost:5286/api"

	// APITimeout is the timeout for a single gateway call.
	APITimeout = 10 * time.Second

	// RequestIDHeader carries the idempotency token on create.
	RequestIDHeader = "X-Request-ID"

	tasksPath = "/Tasks"

	// maxErrorBody bounds how much of an error response is read.
	maxErrorBody = 4096
)

// Client implements service.Service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Session
	log     *zap.Logger
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTransport sets the round tripper beneath the bearer credential transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.http.Transport = &oauth2.Transport{Source: c.session, Base: rt}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.log = logger.OrNop(l)
	}
}

// WithTimeout overrides APITimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New creates a client for the gateway at baseURL. Every request carries the
// session's bearer credential; a 401 response invalidates the session.
func New(baseURL string, sess *session.Session, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if sess == nil {
		sess = session.New(nil, nil)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: sess,
		log:     zap.NewNop(),
		timeout: APITimeout,
	}
	c.http = &http.Client{
		Transport: &oauth2.Transport{Source: sess, Base: http.DefaultTransport},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListTasks implements service.Service.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	var resp []taskResponse
	if err := c.do(ctx, http.MethodGet, tasksPath, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	tasks := make([]service.Task, 0, len(resp))
	for _, r := range resp {
		task, err := r.toTask()
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// CreateTask implements service.Service.
func (c *Client) CreateTask(ctx context.Context, draft service.Draft, requestID string) (service.Task, error) {
	header := http.Header{}
	header.Set(RequestIDHeader, requestID)

	var resp taskResponse
	if err := c.do(ctx, http.MethodPost, tasksPath, newCreateRequest(draft), header, &resp); err != nil {
		return service.Task{}, fmt.Errorf("create task: %w", err)
	}
	task, err := resp.toTask()
	if err != nil {
		return service.Task{}, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// ReplaceTask implements service.Service.
func (c *Client) ReplaceTask(ctx context.Context, id string, fields service.Fields) (service.Task, error) {
	var resp taskResponse
	if err := c.do(ctx, http.MethodPut, taskPath(id), newReplaceRequest(fields), nil, &resp); err != nil {
		return service.Task{}, fmt.Errorf("update task %s: %w", id, err)
	}
	if resp.ID == "" {
		// Gateway answered 204; echo the replacement back.
		return service.Task{ID: id}.Apply(fields), nil
	}
	task, err := resp.toTask()
	if err != nil {
		return service.Task{}, fmt.Errorf("update task %s: %w", id, err)
	}
	return task, nil
}

// DeleteTask implements service.Service.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, taskPath(id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

func taskPath(id string) string {
	return tasksPath + "/" + url.PathEscape(id)
}

// do sends one request and decodes a JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, body any, header http.Header, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, session.ErrNoCredential) || errors.Is(err, session.ErrExpired) {
			return fmt.Errorf("%w: %v", service.ErrUnauthorized, err)
		}
		return wrapError(err)
	}
	defer resp.Body.Close()

	c.log.Debug("gateway call", append(logger.HTTPRequest(req), logger.HTTPResult(resp.StatusCode, started)...)...)

	if resp.StatusCode == http.StatusUnauthorized {
		c.session.Invalidate()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body errorResponse
	msg := ""
	if err := json.Unmarshal(data, &body); err == nil {
		msg = body.text()
	} else {
		msg = strings.TrimSpace(string(data))
	}
	return &service.StatusError{Code: resp.StatusCode, Message: msg}
}

// wrapError gives transport failures a user-friendly message.
func wrapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}
	return err
}
