// Package api is the thin client for the todo server's REST surface. It
// rides on a session.Manager for authentication and normalizes the
// {success, data/error} envelope into values and errors.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"forgetodo/internal/session"
	"forgetodo/internal/store"
)

// Error is a non-2xx response from the todo server.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string { return e.Message }

// Client calls the todo server with the session's credential attached.
type Client struct {
	sess *session.Manager
}

func NewClient(sess *session.Manager) *Client {
	return &Client{sess: sess}
}

// ListOptions narrows a todo listing. Empty values mean no filter.
type ListOptions struct {
	Status   string
	Priority string
}

func (c *Client) ListTodos(ctx context.Context, opts ListOptions) ([]store.Todo, error) {
	q := url.Values{}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.Priority != "" {
		q.Set("priority", opts.Priority)
	}
	endpoint := "/todos"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var todos []store.Todo
	if err := c.call(ctx, http.MethodGet, endpoint, nil, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// CreateTodoInput mirrors the POST /todos body.
type CreateTodoInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Priority    string  `json:"priority,omitempty"`
	Completed   bool    `json:"completed,omitempty"`
}

func (c *Client) CreateTodo(ctx context.Context, in CreateTodoInput) (*store.Todo, error) {
	var todo store.Todo
	if err := c.call(ctx, http.MethodPost, "/todos", in, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// UpdateTodoInput mirrors the PUT /todos/{id} body; nil fields are omitted.
type UpdateTodoInput struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

func (c *Client) UpdateTodo(ctx context.Context, id int64, in UpdateTodoInput) (*store.Todo, error) {
	var todo store.Todo
	endpoint := fmt.Sprintf("/todos/%d", id)
	if err := c.call(ctx, http.MethodPut, endpoint, in, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

func (c *Client) DeleteTodo(ctx context.Context, id int64) (*store.Todo, error) {
	var todo store.Todo
	endpoint := fmt.Sprintf("/todos/%d", id)
	if err := c.call(ctx, http.MethodDelete, endpoint, nil, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

func (c *Client) Stats(ctx context.Context) (*store.Stats, error) {
	var stats store.Stats
	if err := c.call(ctx, http.MethodGet, "/todos/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// call issues the request through the session and unwraps the envelope into
// out (which may be nil when no payload is expected).
func (c *Client) call(ctx context.Context, method, endpoint string, body, out interface{}) error {
	resp, err := c.sess.Do(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !envelope.Success {
		msg := envelope.Error
		if msg == "" {
			msg = fmt.Sprintf("request failed (%d)", resp.StatusCode)
		}
		return &Error{StatusCode: resp.StatusCode, Message: msg}
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
	}
	return nil
}
