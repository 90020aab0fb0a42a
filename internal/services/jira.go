package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/yungbote/casegen-backend/internal/data/repos"
	types "github.com/yungbote/casegen-backend/internal/domain"
	"github.com/yungbote/casegen-backend/internal/platform/apierr"
	"github.com/yungbote/casegen-backend/internal/platform/dbctx"
	"github.com/yungbote/casegen-backend/internal/platform/jira"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
)

type JiraResult struct {
	Parent  string `json:"parent"`
	Subtask string `json:"subtask"`
}

// JiraService mirrors a generated set as a parent issue and each testcase
// as a subtask of it.
type JiraService interface {
	Mirror(ctx context.Context, userID, genID, tcID string) (*JiraResult, error)
}

type jiraService struct {
	log  *logger.Logger
	gen  GenerationService
	sets repos.GeneratedSetRepo
	jira jira.Client
}

// NewJiraService accepts a nil client; Mirror then fails before any I/O.
func NewJiraService(log *logger.Logger, gen GenerationService, sets repos.GeneratedSetRepo, client jira.Client) JiraService {
	return &jiraService{
		log:  log.With("service", "JiraService"),
		gen:  gen,
		sets: sets,
		jira: client,
	}
}

func (s *jiraService) Mirror(ctx context.Context, userID, genID, tcID string) (*JiraResult, error) {
	if s.jira == nil {
		return nil, apierr.BadRequest("jira_not_configured", "JIRA_BASE_URL, JIRA_EMAIL, JIRA_API_TOKEN and JIRA_PROJECT_KEY must be set")
	}
	set, err := s.gen.Get(ctx, userID, genID)
	if err != nil {
		return nil, err
	}
	idx := set.IndexOf(tcID)
	if idx < 0 {
		return nil, apierr.NotFound("testcase_not_found", "testcase %s not found", tcID)
	}
	tc := set.Testcases[idx]
	dbc := dbctx.Context{Ctx: ctx}

	parent := set.JiraID
	if parent == "" {
		parent, err = s.jira.CreateIssue(ctx, jira.Issue{
			Summary:     fmt.Sprintf("[%s] %s", set.RequirementID, set.RequirementTitle),
			Description: setDescription(set),
			Labels:      jiraLabels(set.RequirementID),
		})
		if err != nil {
			s.log.Error("jira parent issue failed", "gen_id", set.ID, "error", err)
			return nil, apierr.Upstream("jira_failed", err)
		}
		// Stored before the subtask so a retry reuses this parent.
		if err := s.sets.SetJiraID(dbc, userID, set.ID, parent); err != nil {
			return nil, fmt.Errorf("save jira parent %s: %w", parent, err)
		}
	}

	if tc.JiraID != "" {
		return &JiraResult{Parent: parent, Subtask: tc.JiraID}, nil
	}

	subtask, err := s.jira.CreateIssue(ctx, jira.Issue{
		Summary:     fmt.Sprintf("%s: %s", tc.TCID, tc.Title),
		Description: testcaseDescription(tc),
		Labels:      jiraLabels(set.RequirementID),
		ParentKey:   parent,
	})
	if err != nil {
		s.log.Error("jira subtask failed", "gen_id", set.ID, "tc_id", tcID, "parent", parent, "error", err)
		return nil, apierr.Upstream("jira_failed", err)
	}
	if _, err := s.gen.Patch(ctx, userID, genID, tcID, map[string]any{"jira_id": subtask}); err != nil {
		return nil, fmt.Errorf("save jira subtask %s: %w", subtask, err)
	}
	s.log.Info("testcase mirrored to jira", "gen_id", set.ID, "tc_id", tcID, "parent", parent, "subtask", subtask)
	return &JiraResult{Parent: parent, Subtask: subtask}, nil
}

func jiraLabels(reqID string) []string {
	return []string{"casegen", "req-" + slugify(reqID)}
}

func setDescription(set *types.GeneratedSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Requirement:* %s\n", set.RequirementID)
	if set.RequirementTitle != "" {
		fmt.Fprintf(&b, "*Title:* %s\n", set.RequirementTitle)
	}
	if len(set.SelectedStandards) > 0 {
		fmt.Fprintf(&b, "*Standards:* %s\n", strings.Join(set.SelectedStandards, ", "))
	}
	fmt.Fprintf(&b, "*Generated set:* %s\n", set.ID)
	return b.String()
}

func testcaseDescription(tc types.Testcase) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Test case:* %s\n*Requirement:* %s\n", tc.TCID, tc.ReqID)
	writeList(&b, "Preconditions", tc.Preconditions)
	writeList(&b, "Steps", tc.Steps)
	if tc.Expected != "" {
		fmt.Fprintf(&b, "*Expected:* %s\n", tc.Expected)
	}
	writeList(&b, "Compliance", tc.Compliance)
	automatable := "no"
	if tc.Automatable {
		automatable = "yes"
	}
	fmt.Fprintf(&b, "*Automatable:* %s (%s)\n", automatable, tc.SuggestedTool)
	fmt.Fprintf(&b, "*Confidence:* %s\n", strconv.FormatFloat(tc.Confidence, 'f', -1, 64))
	return b.String()
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "*%s:*\n", label)
	for _, it := range items {
		fmt.Fprintf(b, "# %s\n", it)
	}
}
