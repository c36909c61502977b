// Package jira wraps the Jira REST API v3 for the agents Hive builds.
//
// Jira Cloud authenticates with JIRA_EMAIL + JIRA_API_TOKEN (Basic auth),
// Jira Server/Data Center with JIRA_PAT (Bearer). JIRA_BASE_URL is always
// required.
package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	requestTimeout    = 30 * time.Second
	attachmentTimeout = 60 * time.Second

	maxSearchResults  = 100
	maxUserResults    = 50
	maxProjectResults = 100
)

// DefaultSearchFields are requested when a search names no fields.
var DefaultSearchFields = []string{"key", "summary", "status", "assignee"}

var (
	// ErrNotConfigured means JIRA_BASE_URL or a token is missing.
	ErrNotConfigured = errors.New("jira not configured")
	// ErrNoFields is returned by UpdateIssue when nothing would change.
	ErrNoFields = errors.New("no fields to update")
)

// APIError is a non-2xx response mapped to a readable message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// Credentials configure a Client.
type Credentials struct {
	BaseURL string
	// Email selects Basic auth. Empty means Token is a personal access token.
	Email string
	Token string
}

// CredentialsFromEnv reads JIRA_BASE_URL, JIRA_EMAIL and JIRA_API_TOKEN
// (falling back to JIRA_PAT).
func CredentialsFromEnv() Credentials {
	token := os.Getenv("JIRA_API_TOKEN")
	if token == "" {
		token = os.Getenv("JIRA_PAT")
	}
	return Credentials{
		BaseURL: os.Getenv("JIRA_BASE_URL"),
		Email:   os.Getenv("JIRA_EMAIL"),
		Token:   token,
	}
}

// Configured reports whether both a base URL and a token are present.
func (c Credentials) Configured() bool {
	return c.BaseURL != "" && c.Token != ""
}

// Client calls the Jira REST API.
type Client struct {
	baseURL    string
	authHeader string
	http       *http.Client
}

// New validates creds and builds a Client.
func New(creds Credentials) (*Client, error) {
	if creds.BaseURL == "" {
		return nil, fmt.Errorf("%w: set JIRA_BASE_URL (e.g. https://yourcompany.atlassian.net)", ErrNotConfigured)
	}
	if creds.Token == "" {
		return nil, fmt.Errorf("%w: set JIRA_EMAIL + JIRA_API_TOKEN (Cloud) or JIRA_PAT (Server)", ErrNotConfigured)
	}
	auth := "Bearer " + creds.Token
	if creds.Email != "" {
		auth = "Basic " + base64.StdEncoding.EncodeToString([]byte(creds.Email+":"+creds.Token))
	}
	return &Client{
		baseURL:    strings.TrimRight(creds.BaseURL, "/"),
		authHeader: auth,
		http:       &http.Client{},
	}, nil
}

// NewFromEnv builds a Client from the JIRA_* environment variables.
func NewFromEnv() (*Client, error) {
	return New(CredentialsFromEnv())
}

// ─── Transport ──────────────────────────────────────────────────────────────

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + "/rest/api/3" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do sends a JSON request and decodes the response body into out (when
// non-nil and the body is non-empty).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.authHeader)
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("request timed out: %w", err)
		}
		return fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if err := checkStatus(resp, data); err != nil {
		return err
	}
	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func checkStatus(resp *http.Response, body []byte) error {
	code := resp.StatusCode
	switch {
	case code < 400:
		return nil
	case code == http.StatusUnauthorized:
		return &APIError{code, "invalid Jira credentials: check JIRA_EMAIL and JIRA_API_TOKEN"}
	case code == http.StatusForbidden:
		return &APIError{code, "forbidden: check permissions or API token scopes"}
	case code == http.StatusNotFound:
		return &APIError{code, "resource not found: check issue key or project key"}
	case code == http.StatusTooManyRequests:
		return &APIError{code, "rate limit exceeded: try again later"}
	}

	var payload struct {
		ErrorMessages []string          `json:"errorMessages"`
		Errors        map[string]string `json:"errors"`
	}
	detail := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &payload) == nil {
		msgs := payload.ErrorMessages
		for field, msg := range payload.Errors {
			msgs = append(msgs, field+": "+msg)
		}
		if len(msgs) > 0 {
			detail = strings.Join(msgs, "; ")
		}
	}
	return &APIError{code, fmt.Sprintf("Jira API error (HTTP %d) at %s: %s", code, resp.Request.URL, detail)}
}

// adf wraps plain text in a single-paragraph Atlassian Document Format doc.
func adf(text string) map[string]any {
	return map[string]any{
		"type":    "doc",
		"version": 1,
		"content": []any{
			map[string]any{
				"type":    "paragraph",
				"content": []any{map[string]any{"type": "text", "text": text}},
			},
		},
	}
}

// ─── Issues ─────────────────────────────────────────────────────────────────

// IssueFields are the editable fields of an issue. Empty values are omitted.
type IssueFields struct {
	Summary           string
	Description       string
	AssigneeAccountID string
	Priority          string
	// Labels replaces existing labels when non-nil.
	Labels []string
}

func (f IssueFields) payload() map[string]any {
	fields := map[string]any{}
	if f.Summary != "" {
		fields["summary"] = f.Summary
	}
	if f.Description != "" {
		fields["description"] = adf(f.Description)
	}
	if f.AssigneeAccountID != "" {
		fields["assignee"] = map[string]any{"accountId": f.AssigneeAccountID}
	}
	if f.Priority != "" {
		fields["priority"] = map[string]any{"name": f.Priority}
	}
	if f.Labels != nil {
		fields["labels"] = f.Labels
	}
	return fields
}

// CreateIssue creates an issue and returns Jira's response (id, key, self).
func (c *Client) CreateIssue(ctx context.Context, projectKey, issueType string, f IssueFields) (map[string]any, error) {
	if projectKey == "" || issueType == "" || f.Summary == "" {
		return nil, errors.New("project_key, issue_type and summary are required")
	}
	fields := f.payload()
	fields["project"] = map[string]any{"key": projectKey}
	fields["issuetype"] = map[string]any{"name": issueType}

	var out map[string]any
	if err := c.do(ctx, http.MethodPost, "/issue", nil, map[string]any{"fields": fields}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetIssue fetches an issue, optionally restricted to fields.
func (c *Client) GetIssue(ctx context.Context, issueKey string, fields []string) (map[string]any, error) {
	q := url.Values{}
	if len(fields) > 0 {
		q.Set("fields", strings.Join(fields, ","))
	}
	var out map[string]any
	if err := c.do(ctx, http.MethodGet, "/issue/"+url.PathEscape(issueKey), q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateIssue edits an issue. Jira answers 204 on success.
func (c *Client) UpdateIssue(ctx context.Context, issueKey string, f IssueFields) error {
	fields := f.payload()
	if len(fields) == 0 {
		return ErrNoFields
	}
	return c.do(ctx, http.MethodPut, "/issue/"+url.PathEscape(issueKey), nil, map[string]any{"fields": fields}, nil)
}

// IssueSummary is the flattened form of a search hit.
type IssueSummary struct {
	Key      string `json:"key"`
	ID       string `json:"id"`
	Summary  string `json:"summary"`
	Status   string `json:"status"`
	Assignee string `json:"assignee"`
}

type searchIssue struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Fields struct {
		Summary string `json:"summary"`
		Status  *struct {
			Name string `json:"name"`
		} `json:"status"`
		Assignee *struct {
			DisplayName string `json:"displayName"`
		} `json:"assignee"`
	} `json:"fields"`
}

func (i searchIssue) summary() IssueSummary {
	s := IssueSummary{
		Key:      i.Key,
		ID:       i.ID,
		Summary:  i.Fields.Summary,
		Status:   "Unknown",
		Assignee: "Unassigned",
	}
	if s.Key == "" {
		s.Key = i.ID
	}
	if s.Summary == "" {
		s.Summary = "No Summary"
	}
	if i.Fields.Status != nil && i.Fields.Status.Name != "" {
		s.Status = i.Fields.Status.Name
	}
	if i.Fields.Assignee != nil && i.Fields.Assignee.DisplayName != "" {
		s.Assignee = i.Fields.Assignee.DisplayName
	}
	return s
}

// SearchIssues runs a JQL query. maxResults is capped at 100; nil fields
// request DefaultSearchFields.
func (c *Client) SearchIssues(ctx context.Context, jql string, fields []string, maxResults int) ([]IssueSummary, error) {
	if fields == nil {
		fields = DefaultSearchFields
	}
	if maxResults <= 0 {
		maxResults = 50
	}
	body := map[string]any{
		"jql":        jql,
		"maxResults": min(maxResults, maxSearchResults),
	}
	if len(fields) > 0 {
		body["fields"] = fields
	}

	var out struct {
		Issues []searchIssue `json:"issues"`
	}
	if err := c.do(ctx, http.MethodPost, "/search/jql", nil, body, &out); err != nil {
		return nil, err
	}
	issues := make([]IssueSummary, 0, len(out.Issues))
	for _, i := range out.Issues {
		issues = append(issues, i.summary())
	}
	return issues, nil
}

// Transition is one workflow transition available on an issue.
type Transition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GetTransitions lists the transitions available on an issue.
func (c *Client) GetTransitions(ctx context.Context, issueKey string) ([]Transition, error) {
	var out struct {
		Transitions []Transition `json:"transitions"`
	}
	if err := c.do(ctx, http.MethodGet, "/issue/"+url.PathEscape(issueKey)+"/transitions", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Transitions, nil
}

// TransitionNotFoundError lists what was available when a name didn't match.
type TransitionNotFoundError struct {
	Name      string
	Available []string
}

func (e *TransitionNotFoundError) Error() string {
	return fmt.Sprintf("transition %q not found (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// TransitionIssue moves an issue through a transition given by id, or by
// name (matched case-insensitively) when id is empty.
func (c *Client) TransitionIssue(ctx context.Context, issueKey, name, id string) error {
	if name == "" && id == "" {
		return errors.New("provide transition_name or transition_id")
	}
	if id == "" {
		transitions, err := c.GetTransitions(ctx, issueKey)
		if err != nil {
			return err
		}
		for _, t := range transitions {
			if strings.EqualFold(t.Name, name) {
				id = t.ID
				break
			}
		}
		if id == "" {
			available := make([]string, 0, len(transitions))
			for _, t := range transitions {
				available = append(available, t.Name)
			}
			return &TransitionNotFoundError{Name: name, Available: available}
		}
	}
	body := map[string]any{"transition": map[string]any{"id": id}}
	return c.do(ctx, http.MethodPost, "/issue/"+url.PathEscape(issueKey)+"/transitions", nil, body, nil)
}

// ─── Attachments ────────────────────────────────────────────────────────────

// AddAttachment uploads base64-encoded content as filename.
func (c *Client) AddAttachment(ctx context.Context, issueKey, filename, contentBase64 string) ([]map[string]any, error) {
	content, err := base64.StdEncoding.DecodeString(contentBase64)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 content: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("building upload: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("building upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("building upload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, attachmentTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint("/issue/"+url.PathEscape(issueKey)+"/attachments", nil), &buf)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Atlassian-Token", "no-check")
	req.Header.Set("Authorization", c.authHeader)

	var out []map[string]any
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Attachment is a file attached to an issue.
type Attachment struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
	Created  string `json:"created"`
	Author   string `json:"author"`
}

// ListAttachments returns the attachments on an issue.
func (c *Client) ListAttachments(ctx context.Context, issueKey string) ([]Attachment, error) {
	var out struct {
		Fields struct {
			Attachment []struct {
				ID       string `json:"id"`
				Filename string `json:"filename"`
				Size     int64  `json:"size"`
				MimeType string `json:"mimeType"`
				Created  string `json:"created"`
				Author   struct {
					DisplayName string `json:"displayName"`
				} `json:"author"`
			} `json:"attachment"`
		} `json:"fields"`
	}
	q := url.Values{"fields": {"attachment"}}
	if err := c.do(ctx, http.MethodGet, "/issue/"+url.PathEscape(issueKey), q, nil, &out); err != nil {
		return nil, err
	}
	atts := make([]Attachment, 0, len(out.Fields.Attachment))
	for _, a := range out.Fields.Attachment {
		atts = append(atts, Attachment{
			ID:       a.ID,
			Filename: a.Filename,
			Size:     a.Size,
			MimeType: a.MimeType,
			Created:  a.Created,
			Author:   a.Author.DisplayName,
		})
	}
	return atts, nil
}

// ─── Users ──────────────────────────────────────────────────────────────────

// FindUser searches users by email or display name. maxResults is capped at 50.
func (c *Client) FindUser(ctx context.Context, query string, maxResults int) ([]map[string]any, error) {
	if maxResults <= 0 {
		maxResults = 10
	}
	q := url.Values{
		"query":      {query},
		"maxResults": {strconv.Itoa(min(maxResults, maxUserResults))},
	}
	var out []map[string]any
	if err := c.do(ctx, http.MethodGet, "/user/search", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMyself returns the authenticated user.
func (c *Client) GetMyself(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := c.do(ctx, http.MethodGet, "/myself", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ─── Worklogs ───────────────────────────────────────────────────────────────

// AddWorklog logs timeSpent (Jira duration, e.g. "1h 30m") on an issue.
func (c *Client) AddWorklog(ctx context.Context, issueKey, timeSpent, comment string) (map[string]any, error) {
	if timeSpent == "" {
		return nil, errors.New("time_spent is required")
	}
	body := map[string]any{"timeSpent": timeSpent}
	if comment != "" {
		body["comment"] = adf(comment)
	}
	var out map[string]any
	if err := c.do(ctx, http.MethodPost, "/issue/"+url.PathEscape(issueKey)+"/worklog", nil, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListWorklogs returns the worklog page for an issue.
func (c *Client) ListWorklogs(ctx context.Context, issueKey string) (map[string]any, error) {
	var out map[string]any
	if err := c.do(ctx, http.MethodGet, "/issue/"+url.PathEscape(issueKey)+"/worklog", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ─── Projects ───────────────────────────────────────────────────────────────

// ListProjects returns a page of projects. maxResults is capped at 100.
func (c *Client) ListProjects(ctx context.Context, maxResults int) (map[string]any, error) {
	if maxResults <= 0 {
		maxResults = 50
	}
	q := url.Values{"maxResults": {strconv.Itoa(min(maxResults, maxProjectResults))}}
	var out map[string]any
	if err := c.do(ctx, http.MethodGet, "/project/search", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
