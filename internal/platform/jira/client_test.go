package jira

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/casegen-backend/internal/platform/httpx"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:          baseURL,
		Email:            "qa@example.com",
		APIToken:         "tok",
		ProjectKey:       "QA",
		ParentIssueType:  "Task",
		SubtaskIssueType: "Sub-task",
	}
}

func TestCreateIssueSendsSubtaskPayload(t *testing.T) {
	var got map[string]map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/api/2/issue", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "qa@example.com", user)
		require.Equal(t, "tok", pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"100","key":"QA-12"}`))
	}))
	defer srv.Close()

	c, err := NewClient(logger.Nop(), testConfig(srv.URL))
	require.NoError(t, err)

	key, err := c.CreateIssue(context.Background(), Issue{Summary: "Login works", ParentKey: "QA-1"})
	require.NoError(t, err)
	require.Equal(t, "QA-12", key)

	fields := got["fields"]
	require.Equal(t, "Login works", fields["summary"])
	require.Equal(t, map[string]any{"name": "Sub-task"}, fields["issuetype"])
	require.Equal(t, map[string]any{"key": "QA-1"}, fields["parent"])
	require.Equal(t, map[string]any{"key": "QA"}, fields["project"])
}

func TestCreateIssueSurfacesStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":{"summary":"required"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(logger.Nop(), testConfig(srv.URL))
	require.NoError(t, err)

	_, err = c.CreateIssue(context.Background(), Issue{Summary: "x"})
	var se *httpx.StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusBadRequest, se.StatusCode)
	require.Contains(t, se.Body, "summary")
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(logger.Nop(), Config{BaseURL: "http://jira"})
	require.Error(t, err)
}
