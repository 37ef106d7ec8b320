package client

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

	"github.com/isdelr/smarttodo-be/internal/models"
)

var (
	// ErrNotLoggedIn is returned by protected calls when no session is cached.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrSessionExpired is returned when the server rejects the cached token.
	// The session has already been cleared.
	ErrSessionExpired = errors.New("session expired, please log in again")
)

// APIError is a non-2xx response carrying the server's error message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client talks to the smarttodo REST API on behalf of one session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, session *Session) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		session:    session,
	}
}

// Session returns the session the client reads and updates.
func (c *Client) Session() *Session {
	return c.session
}

// Register creates an account and caches its session.
func (c *Client) Register(ctx context.Context, username, email, password string) (models.AuthResult, error) {
	var res models.AuthResult
	body := map[string]string{"username": username, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", false, body, &res); err != nil {
		return res, err
	}
	return res, c.session.Save(res.Token, res.User)
}

// Login authenticates and caches the session.
func (c *Client) Login(ctx context.Context, email, password string) (models.AuthResult, error) {
	var res models.AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", false, body, &res); err != nil {
		return res, err
	}
	return res, c.session.Save(res.Token, res.User)
}

// Logout forgets the cached session. Tokens are stateless, so the server is not contacted.
func (c *Client) Logout() error {
	return c.session.Clear()
}

// Me returns the user the cached token belongs to.
func (c *Client) Me(ctx context.Context) (models.UserSummary, error) {
	var user models.UserSummary
	err := c.do(ctx, http.MethodGet, "/api/auth/me", true, nil, &user)
	return user, err
}

// ForgotPassword asks the server to mail a reset link.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	var res struct {
		Message string `json:"message"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/forgot-password", false, map[string]string{"email": email}, &res)
	return res.Message, err
}

// ResetPassword sets a new password with the token from a reset link.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	var res struct {
		Message string `json:"message"`
	}
	path := "/api/auth/reset-password/" + url.PathEscape(token)
	err := c.do(ctx, http.MethodPost, path, false, map[string]string{"newPassword": newPassword}, &res)
	return res.Message, err
}

// ListTasks returns the caller's tasks, newest first.
func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	err := c.do(ctx, http.MethodGet, "/api/tasks", true, nil, &tasks)
	return tasks, err
}

// CreateTask stores a new task.
func (c *Client) CreateTask(ctx context.Context, input models.NewTask) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, http.MethodPost, "/api/tasks", true, input, &task)
	return task, err
}

// UpdateTask sends a partial update.
func (c *Client) UpdateTask(ctx context.Context, id string, update models.TaskUpdate) (models.Task, error) {
	var res struct {
		Task models.Task `json:"task"`
	}
	err := c.do(ctx, http.MethodPut, "/api/tasks/"+url.PathEscape(id), true, update, &res)
	return res.Task, err
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), true, nil, nil)
}

// TaskStats returns the caller's completion counts.
func (c *Client) TaskStats(ctx context.Context) (models.TaskStats, error) {
	var stats models.TaskStats
	err := c.do(ctx, http.MethodGet, "/api/tasks/stats", true, nil, &stats)
	return stats, err
}

// Suggest previews suggestions for a title and description.
func (c *Client) Suggest(ctx context.Context, title, description string) ([]string, error) {
	var res struct {
		Suggestions []string `json:"suggestions"`
	}
	body := map[string]string{"title": title, "description": description}
	err := c.do(ctx, http.MethodPost, "/api/tasks/suggestions", true, body, &res)
	return res.Suggestions, err
}

// ListCategories returns every category.
func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := c.do(ctx, http.MethodGet, "/api/categories", true, nil, &categories)
	return categories, err
}

// CreateCategory adds a category.
func (c *Client) CreateCategory(ctx context.Context, name string) (models.Category, error) {
	var category models.Category
	err := c.do(ctx, http.MethodPost, "/api/categories", true, map[string]string{"name": name}, &category)
	return category, err
}

// DeleteCategory removes a category.
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/categories/"+url.PathEscape(id), true, nil, nil)
}

// do performs one request. Protected calls need a cached token; a 401 on a
// protected call clears the session and reports ErrSessionExpired.
func (c *Client) do(ctx context.Context, method, path string, protected bool, body, out interface{}) error {
	if protected && !c.session.LoggedIn() {
		return ErrNotLoggedIn
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if protected {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if protected && resp.StatusCode == http.StatusUnauthorized {
		if err := c.session.Clear(); err != nil {
			return err
		}
		return ErrSessionExpired
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	var envelope struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.Error == "" {
		envelope.Error = fmt.Sprintf("request failed with status %d", resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: envelope.Error}
}
