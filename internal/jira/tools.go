package jira

import (
	"context"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Tool is one jira_* MCP tool bound to a Client.
type Tool struct {
	def    mcp.Tool
	handle func(ctx context.Context, req mcp.CallToolRequest) (any, error)
}

// Definition returns the MCP tool schema.
func (t *Tool) Definition() mcp.Tool { return t.def }

// Handle runs the tool. Jira and network failures come back as tool
// errors so the calling agent can react to them.
func (t *Tool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := t.handle(ctx, req)
	if err != nil {
		var nf *TransitionNotFoundError
		if errors.As(err, &nf) {
			r := mcp.NewToolResultStructured(map[string]any{
				"error":                 err.Error(),
				"available_transitions": nf.Available,
			}, err.Error())
			r.IsError = true
			return r, nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultJSON(out)
}

// stringsArg reads an array-of-strings argument.
func stringsArg(req mcp.CallToolRequest, key string) []string {
	raw, ok := req.GetArguments()[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// required returns an error naming the first empty argument.
func required(req mcp.CallToolRequest, keys ...string) error {
	for _, k := range keys {
		if strings.TrimSpace(req.GetString(k, "")) == "" {
			return errors.New("'" + k + "' is required")
		}
	}
	return nil
}

var issueKeyArg = mcp.WithString("issue_key",
	mcp.Required(),
	mcp.Description("Issue key (e.g. PROJ-123)"),
)

func stringArray(name, desc string) mcp.ToolOption {
	return mcp.WithArray(name,
		mcp.Description(desc),
		mcp.Items(map[string]any{"type": "string"}),
	)
}

// Tools returns every jira_* tool bound to c.
func Tools(c *Client) []*Tool {
	return []*Tool{
		{
			def: mcp.NewTool("jira_create_issue",
				mcp.WithDescription("Create a new Jira issue."),
				mcp.WithString("project_key", mcp.Required(), mcp.Description("Project key (e.g. PROJ, ENG)")),
				mcp.WithString("issue_type", mcp.Required(), mcp.Description("Issue type name (e.g. Task, Bug, Story)")),
				mcp.WithString("summary", mcp.Required(), mcp.Description("Issue title")),
				mcp.WithString("description", mcp.Description("Plain-text description")),
				mcp.WithString("assignee_account_id", mcp.Description("Account ID of the assignee (see jira_find_user)")),
				mcp.WithString("priority", mcp.Description("Priority name (e.g. High, Medium, Low)")),
				stringArray("labels", "Label names"),
			),
			handle: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				if err := required(req, "project_key", "issue_type", "summary"); err != nil {
					return nil, err
				}
				return c.CreateIssue(ctx, req.GetString("project_key", ""), req.GetString("issue_type", ""), issueFields(req))
			},
		},
		{
			def: mcp.NewTool("jira_get_issue",
				mcp.WithDescription("Get a Jira issue by key."),
				issueKeyArg,
				stringArray("fields", "Fields to return (e.g. summary, status, assignee)"),
			),
			handle: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				if err := required(req, "issue_key"); err != nil {
					return nil, err
				}
				return c.GetIssue(ctx, req.GetString("issue_key", ""), stringsArg(req, "fields"))
			},
		},
		{
			def: mcp.NewTool("jira_update_issue",
				mcp.WithDescription("Update an existing Jira issue. Labels replace the existing ones."),
				issueKeyArg,
				mcp.WithString("summary", mcp.Description("New summary")),
				mcp.WithString("description", mcp.Description("New description")),
				mcp.WithString("assignee_account_id", mcp.Description("New assignee account ID")),
				mcp.WithString("priority", mcp.Description("New priority name")),
				stringArray("labels", "New label list"),
			),
			handle: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				if err := required(req, "issue_key"); err != nil {
					return nil, err
				}
				key := req.GetString("issue_key", "")
				if err := c.UpdateIssue(ctx, key, issueFields(req)); err != nil {
					return nil, err
				}
				return map[string]any{"success": true, "issue_key": key}, nil
			},
		},
		{
			def: mcp.NewTool("jira_search_issues",
				mcp.WithDescription("Search Jira issues using JQL, e.g. \"project = PROJ AND status = Open\"."),
				mcp.WithString("jql", mcp.Required(), mcp.Description("JQL query")),
				stringArray("fields", "Fields to return (default: key, summary, status, assignee)"),
				mcp.WithNumber("max_results", mcp.Description("Maximum results (1-100, default 50)")),
			),
			handle: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				if err := required(req, "jql"); err != nil {
					return nil, err
				}
				issues, err := c.SearchIssues(ctx, req.GetString("jql", ""), stringsArg(req, "fields"), intArg(req, "max_results", 50))
				if err != nil {
					return nil, err
				}
				return map[string]any{"success": true, "count": len(issues), "issues": issues}, nil
			},
		},
		{
			def: mcp.NewTool("jira_transition_issue",
				mcp.WithDescription("Move a Jira issue to a new status. Provide transition_name or transition_id."),
				issueKeyArg,
				mcp.WithString("transition_name", mcp.Description("Target transition name (e.g. In Progress, Done)")),
				mcp.WithString("transition_id", mcp.Description("Transition ID, if known")),
			),
			handle: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				if err := required(req, "issue_key"); err != nil {
					return nil, err
				}
				key := req.GetString("issue_key", "")
				err := c.TransitionIssue(ctx, key, req.GetString("transition_name", ""), req.GetString("transition_id", ""))
				if err != nil {
					return nil, err
				}
				return map[string]any{"success": true, "issue_key": key}, nil
			},
		},
		{
			def: mcp.NewTool("jira_add_attachment",
				mcp.WithDescription("Attach a file to a Jira issue."),
				issueKeyArg,
				mcp.WithString("filename", mcp.Required(), mcp.Description("Attachment name (e.g. invoice.pdf)")),
				mcp.WithString("content_base64", mcp.Required(), mcp.Description("File content, base64 encoded")),
			),
			handle: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				if err := required(req, "issue_key", "filename", "content_base64"); err != nil {
					return nil, err
				}
				atts, err := c.AddAttachment(ctx, req.GetString("issue_key", ""), req.GetString("filename", ""), req.GetString("content_base64", ""))
				if err != nil {
					return nil, err
				}
				return map[string]any{"success": true, "attachments": atts}, nil
			},
		},
		{
			def: mcp.NewTool("jira_list_attachments",
				mcp.WithDescription("List attachments on a Jira issue."),
				issueKeyArg,
			),
			handle: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				if err := required(req, "issue_key"); err != nil {
					return nil, err
				}
				key := req.GetString("issue_key", "")
				atts, err := c.ListAttachments(ctx, key)
				if err != nil {
					return nil, err
				}
				return map[string]any{"success": true, "issue_key": key, "attachments": atts}, nil
			},
		},
		{
			def: mcp.NewTool("jira_find_user",
				mcp.WithDescription("Find Jira users by email or display name. Returns the accountId needed for assignment."),
				mcp.WithString("query", mcp.Required(), mcp.Description("Email address or name")),
				mcp.WithNumber("max_results", mcp.Description("Maximum results (1-50, default 10)")),
			),
			handle: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				if err := required(req, "query"); err != nil {
					return nil, err
				}
				users, err := c.FindUser(ctx, req.GetString("query", ""), intArg(req, "max_results", 10))
				if err != nil {
					return nil, err
				}
				return map[string]any{"success": true, "users": users}, nil
			},
		},
		{
			def: mcp.NewTool("jira_get_myself",
				mcp.WithDescription("Get the authenticated Jira user."),
			),
			handle: func(ctx context.Context, _ mcp.CallToolRequest) (any, error) {
				return c.GetMyself(ctx)
			},
		},
		{
			def: mcp.NewTool("jira_add_worklog",
				mcp.WithDescription("Log time spent on a Jira issue."),
				issueKeyArg,
				mcp.WithString("time_spent", mcp.Required(), mcp.Description("Jira duration (e.g. 1h 30m, 2d, 45m)")),
				mcp.WithString("comment", mcp.Description("Work description")),
			),
			handle: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				if err := required(req, "issue_key", "time_spent"); err != nil {
					return nil, err
				}
				return c.AddWorklog(ctx, req.GetString("issue_key", ""), req.GetString("time_spent", ""), req.GetString("comment", ""))
			},
		},
		{
			def: mcp.NewTool("jira_list_worklogs",
				mcp.WithDescription("List worklogs for a Jira issue."),
				issueKeyArg,
			),
			handle: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				if err := required(req, "issue_key"); err != nil {
					return nil, err
				}
				return c.ListWorklogs(ctx, req.GetString("issue_key", ""))
			},
		},
		{
			def: mcp.NewTool("jira_list_projects",
				mcp.WithDescription("List accessible Jira projects."),
				mcp.WithNumber("max_results", mcp.Description("Maximum results (1-100, default 50)")),
			),
			handle: func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
				return c.ListProjects(ctx, intArg(req, "max_results", 50))
			},
		},
	}
}

func issueFields(req mcp.CallToolRequest) IssueFields {
	return IssueFields{
		Summary:           req.GetString("summary", ""),
		Description:       req.GetString("description", ""),
		AssigneeAccountID: req.GetString("assignee_account_id", ""),
		Priority:          req.GetString("priority", ""),
		Labels:            stringsArg(req, "labels"),
	}
}
