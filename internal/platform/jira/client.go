package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/casegen-backend/internal/platform/envutil"
	"github.com/yungbote/casegen-backend/internal/platform/httpx"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
)

type Config struct {
	BaseURL          string
	Email            string
	APIToken         string
	ProjectKey       string
	ParentIssueType  string
	SubtaskIssueType string
	Timeout          time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		BaseURL:          strings.TrimRight(envutil.String("JIRA_BASE_URL", ""), "/"),
		Email:            envutil.String("JIRA_EMAIL", ""),
		APIToken:         envutil.String("JIRA_API_TOKEN", ""),
		ProjectKey:       envutil.String("JIRA_PROJECT_KEY", ""),
		ParentIssueType:  envutil.String("JIRA_PARENT_ISSUE_TYPE", "Task"),
		SubtaskIssueType: envutil.String("JIRA_SUBTASK_ISSUE_TYPE", "Sub-task"),
		Timeout:          envutil.Seconds("JIRA_TIMEOUT_SECONDS", 20*time.Second),
	}
}

// Configured reports whether every credential needed to create issues is set.
func (c Config) Configured() bool {
	return c.BaseURL != "" && c.Email != "" && c.APIToken != "" && c.ProjectKey != ""
}

type Issue struct {
	Summary     string
	Description string
	Labels      []string
	// ParentKey makes the issue a subtask of an existing issue.
	ParentKey string
}

type Client interface {
	CreateIssue(ctx context.Context, in Issue) (string, error)
}

type client struct {
	log  *logger.Logger
	cfg  Config
	http *http.Client
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("jira not configured: JIRA_BASE_URL, JIRA_EMAIL, JIRA_API_TOKEN and JIRA_PROJECT_KEY are required")
	}
	if cfg.ParentIssueType == "" {
		cfg.ParentIssueType = "Task"
	}
	if cfg.SubtaskIssueType == "" {
		cfg.SubtaskIssueType = "Sub-task"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &client{
		log:  log.With("client", "JiraClient", "project", cfg.ProjectKey),
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type issueFields struct {
	Project     map[string]string `json:"project"`
	Summary     string            `json:"summary"`
	Description string            `json:"description,omitempty"`
	IssueType   map[string]string `json:"issuetype"`
	Labels      []string          `json:"labels,omitempty"`
	Parent      map[string]string `json:"parent,omitempty"`
}

func (c *client) CreateIssue(ctx context.Context, in Issue) (string, error) {
	issueType := c.cfg.ParentIssueType
	var parent map[string]string
	if in.ParentKey != "" {
		issueType = c.cfg.SubtaskIssueType
		parent = map[string]string{"key": in.ParentKey}
	}
	summary := strings.TrimSpace(in.Summary)
	if len(summary) > 250 {
		summary = summary[:250]
	}
	body, err := json.Marshal(map[string]any{
		"fields": issueFields{
			Project:     map[string]string{"key": c.cfg.ProjectKey},
			Summary:     summary,
			Description: in.Description,
			IssueType:   map[string]string{"name": issueType},
			Labels:      in.Labels,
			Parent:      parent,
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/rest/api/2/issue", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.cfg.Email, c.cfg.APIToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("jira create issue: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &httpx.StatusError{Service: "jira", StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var out struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("jira decode response: %w", err)
	}
	if out.Key == "" {
		return "", fmt.Errorf("jira response missing issue key")
	}
	c.log.Info("Jira issue created", "key", out.Key, "parent", in.ParentKey)
	return out.Key, nil
}
