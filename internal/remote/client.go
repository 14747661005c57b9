// Package remote is the typed HTTP binding to the task/auth API. It is
// stateless request/response and owns the translation between the wire
// task shape (snake_case, optional fields) and the local task shape.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dayplan/internal/domain"
)

// Client is a minimal Dayplan API client.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Timeout    time.Duration
	Now        func() time.Time
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
		Now:     time.Now,
	}
}

// MergeStrategy names the server-side policy for reconciling a synced
// batch with existing records. The decision itself belongs to the server.
type MergeStrategy string

const (
	MergeStrategyMerge   MergeStrategy = "merge"
	MergeStrategyReplace MergeStrategy = "replace"
)

// WireTask is the API task model.
type WireTask struct {
	ID        string `json:"id,omitempty"`
	Text      string `json:"text"`
	Details   string `json:"details,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	DueDate   string `json:"due_date,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
	Archived  bool   `json:"archived"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Nickname  string `json:"nickname,omitempty"`
	CreatedAt string `json:"created_at"`
}

// Credentials is the register/login response.
type Credentials struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// SyncResult reports how a batch upload landed.
type SyncResult struct {
	Success      bool     `json:"success"`
	CreatedCount int      `json:"created_count"`
	TaskIDs      []string `json:"task_ids"`
}

// ListFilter narrows a task listing; nil fields are omitted.
type ListFilter struct {
	Timeframe domain.Timeframe
	Archived  *bool
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// ToWire converts a local task for upload. The transient selection flag
// has no wire representation.
func ToWire(t domain.Task) WireTask {
	return WireTask{
		ID:        t.ID,
		Text:      t.Text,
		Details:   t.Details,
		StartDate: t.StartDate,
		DueDate:   t.DueDate,
		Timeframe: string(t.Timeframe),
		Archived:  t.Archived,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// FromWire normalizes a remote record into the local shape. An absent
// due date defaults to today; an absent or unknown timeframe defaults
// to today's bucket.
func FromWire(w WireTask, today string) domain.Task {
	due := w.DueDate
	if due == "" {
		due = today
	}
	tf := domain.Timeframe(w.Timeframe)
	if !tf.Valid() {
		tf = domain.TimeframeToday
	}
	return domain.Task{
		ID:        w.ID,
		Text:      w.Text,
		Details:   w.Details,
		StartDate: w.StartDate,
		DueDate:   due,
		Timeframe: tf,
		Archived:  w.Archived,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

func (c *Client) today() string {
	if c.Now != nil {
		return domain.Today(c.Now())
	}
	return domain.Today(time.Now())
}

// Register creates an account and returns its credentials.
func (c *Client) Register(ctx context.Context, email, password, nickname string) (Credentials, error) {
	body := map[string]any{"email": email, "password": password}
	if nickname != "" {
		body["nickname"] = nickname
	}
	var resp Credentials
	err := c.do(ctx, http.MethodPost, "auth/register", body, &resp)
	return resp, err
}

func (c *Client) Login(ctx context.Context, email, password string) (Credentials, error) {
	var resp Credentials
	err := c.do(ctx, http.MethodPost, "auth/login", map[string]any{
		"email":    email,
		"password": password,
	}, &resp)
	return resp, err
}

// Me returns the user owning the bearer token.
func (c *Client) Me(ctx context.Context) (User, error) {
	var resp User
	err := c.do(ctx, http.MethodGet, "auth/me", nil, &resp)
	return resp, err
}

func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	return c.do(ctx, http.MethodPut, "auth/password", map[string]any{
		"old_password": oldPassword,
		"new_password": newPassword,
	}, nil)
}

// ListTasks fetches the user's tasks, already mapped to the local shape.
func (c *Client) ListTasks(ctx context.Context, f ListFilter) ([]domain.Task, error) {
	endpoint := "tasks"
	q := url.Values{}
	if f.Timeframe != "" {
		q.Set("timeframe", string(f.Timeframe))
	}
	if f.Archived != nil {
		q.Set("archived", strconv.FormatBool(*f.Archived))
	}
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp struct {
		Tasks []WireTask `json:"tasks"`
		Total int        `json:"total"`
	}
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	today := c.today()
	res := make([]domain.Task, 0, len(resp.Tasks))
	for _, w := range resp.Tasks {
		res = append(res, FromWire(w, today))
	}
	return res, nil
}

// CreateTask uploads one task; the server assigns the id.
func (c *Client) CreateTask(ctx context.Context, t domain.Task) (domain.Task, error) {
	w := ToWire(t)
	w.ID = "" // never send a locally generated id on direct create
	var resp WireTask
	if err := c.do(ctx, http.MethodPost, "tasks", w, &resp); err != nil {
		return domain.Task{}, err
	}
	return FromWire(resp, c.today()), nil
}

func (c *Client) UpdateTask(ctx context.Context, t domain.Task) (domain.Task, error) {
	var resp WireTask
	endpoint := "tasks/" + url.PathEscape(t.ID)
	if err := c.do(ctx, http.MethodPut, endpoint, ToWire(t), &resp); err != nil {
		return domain.Task{}, err
	}
	return FromWire(resp, c.today()), nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "tasks/"+url.PathEscape(id), nil, nil)
}

// SyncTasks submits a batch under a merge strategy. Duplicate handling
// is the server's call, not the client's.
func (c *Client) SyncTasks(ctx context.Context, tasks []domain.Task, strategy MergeStrategy) (SyncResult, error) {
	wires := make([]WireTask, 0, len(tasks))
	for _, t := range tasks {
		wires = append(wires, ToWire(t))
	}
	var resp SyncResult
	err := c.do(ctx, http.MethodPost, "tasks/sync", map[string]any{
		"tasks":          wires,
		"merge_strategy": string(strategy),
	}, &resp)
	return resp, err
}

// DeleteAllTasks wipes the user's remote collection.
func (c *Client) DeleteAllTasks(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "tasks", nil, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	u := strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, u, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
