package api

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

	"bp-cli/internal/session"
	"bp-cli/internal/util"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// ErrNotFound marks a missing resource.
var ErrNotFound = errors.New("resource not found")

// Client talks to the design-session backend's REST surface: session
// lifecycle plus project and agent CRUD.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
	logger  *zap.Logger
}

// NewClient constructs a REST client.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = nil
	client.HTTPClient.Timeout = timeout
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: client, logger: logger}
}

// SessionHandle identifies a created-or-resumed session.
type SessionHandle struct {
	SessionID string `json:"session_id"`
	IsNew     bool   `json:"is_new"`
}

// Project is a design project resource.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain,omitempty"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Agent is a configured agent resource within a project.
type Agent struct {
	ID        string   `json:"id"`
	ProjectID string   `json:"project_id"`
	Name      string   `json:"name"`
	Role      string   `json:"role,omitempty"`
	Topics    []string `json:"topics,omitempty"`
	Prompt    string   `json:"prompt,omitempty"`
}

// OpenSession creates or resumes the session for a project.
func (c *Client) OpenSession(ctx context.Context, projectID string) (SessionHandle, error) {
	var handle SessionHandle
	err := c.do(ctx, http.MethodPost, "/projects/"+url.PathEscape(projectID)+"/session", nil, &handle)
	return handle, err
}

// GetSession fetches the persisted session record for rehydration.
func (c *Client) GetSession(ctx context.Context, sessionID string) (session.Snapshot, error) {
	var snap session.Snapshot
	err := c.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(sessionID), nil, &snap)
	return snap, err
}

// CloseSession deletes a session.
func (c *Client) CloseSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(sessionID), nil, nil)
}

// ListProjects returns all projects.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	err := c.do(ctx, http.MethodGet, "/projects", nil, &projects)
	return projects, err
}

// CreateProject creates a project by name.
func (c *Client) CreateProject(ctx context.Context, name string) (Project, error) {
	var project Project
	err := c.do(ctx, http.MethodPost, "/projects", map[string]string{"name": name}, &project)
	return project, err
}

// GetProject fetches one project.
func (c *Client) GetProject(ctx context.Context, id string) (Project, error) {
	var project Project
	err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(id), nil, &project)
	return project, err
}

// UpdateProject updates mutable project fields.
func (c *Client) UpdateProject(ctx context.Context, id string, fields map[string]any) (Project, error) {
	var project Project
	err := c.do(ctx, http.MethodPut, "/projects/"+url.PathEscape(id), fields, &project)
	return project, err
}

// ArchiveProject archives a project without deleting it.
func (c *Client) ArchiveProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/projects/"+url.PathEscape(id)+"/archive", nil, nil)
}

// DuplicateProject clones a project and returns the copy.
func (c *Client) DuplicateProject(ctx context.Context, id string) (Project, error) {
	var project Project
	err := c.do(ctx, http.MethodPost, "/projects/"+url.PathEscape(id)+"/duplicate", nil, &project)
	return project, err
}

// DeleteProject removes a project permanently.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/projects/"+url.PathEscape(id), nil, nil)
}

// ListAgents returns the agents configured for a project.
func (c *Client) ListAgents(ctx context.Context, projectID string) ([]Agent, error) {
	var agents []Agent
	err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(projectID)+"/agents", nil, &agents)
	return agents, err
}

// GetAgent fetches one agent.
func (c *Client) GetAgent(ctx context.Context, projectID, agentID string) (Agent, error) {
	var agent Agent
	err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(projectID)+"/agents/"+url.PathEscape(agentID), nil, &agent)
	return agent, err
}

// UpdateAgent updates mutable agent fields.
func (c *Client) UpdateAgent(ctx context.Context, projectID, agentID string, fields map[string]any) (Agent, error) {
	var agent Agent
	err := c.do(ctx, http.MethodPut, "/projects/"+url.PathEscape(projectID)+"/agents/"+url.PathEscape(agentID), fields, &agent)
	return agent, err
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, util.Snippet(resp.Body, 4096))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
