package testgen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/casegen-backend/internal/domain"
	"github.com/yungbote/casegen-backend/internal/platform/llm"
)

func sampleBulk() BulkInput {
	return BulkInput{
		Requirement: RequirementInput{
			ID:       "REQ-1",
			Title:    "Password reset",
			FileName: "reset.pdf",
			FileURI:  "https://cdn.example.com/reset.pdf",
			MimeType: "application/pdf",
			Text:     "Users can reset their password by email.",
		},
		Standards: []StandardInput{
			{Name: "iso-27001.pdf", Text: "A.9 access control"},
			{Name: "owasp.txt", Text: ""},
		},
		Override: "Focus on negative paths.",
	}
}

func texts(parts []llm.Part) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, p.Text)
	}
	return out
}

func TestComposeBulkOrdering(t *testing.T) {
	tmpl := DefaultTemplates()
	parts := NewComposer(tmpl, false).ComposeBulk(sampleBulk())
	got := texts(parts)

	require.Len(t, got, 7)
	require.Equal(t, strings.TrimSpace(tmpl.BulkInstruction), got[0])
	require.Equal(t, "ADDITIONAL USER INSTRUCTIONS:\nFocus on negative paths.", got[1])
	require.True(t, strings.HasPrefix(got[2], "REQUIREMENT\nID: REQ-1\nTitle: Password reset\n"))
	require.Contains(t, got[2], "Users can reset their password by email.")
	require.Equal(t, "SELECTED STANDARDS:\n- iso-27001.pdf\n- owasp.txt", got[3])
	require.Equal(t, "STANDARD: iso-27001.pdf\nA.9 access control", got[4])
	require.Equal(t, "STANDARD: owasp.txt\n(no text could be extracted)", got[5])
	require.Equal(t, strings.TrimSpace(tmpl.ArrayDirective), got[6])
}

func TestComposeBulkAttachesFileWhenEnabled(t *testing.T) {
	parts := NewComposer(DefaultTemplates(), true).ComposeBulk(sampleBulk())

	require.Equal(t, llm.PartFile, parts[3].Kind)
	require.Equal(t, "https://cdn.example.com/reset.pdf", parts[3].URI)
	require.Equal(t, "application/pdf", parts[3].MimeType)
}

func TestComposeBulkWithoutOverride(t *testing.T) {
	in := sampleBulk()
	in.Override = "   "
	in.Standards = nil

	got := texts(NewComposer(DefaultTemplates(), false).ComposeBulk(in))

	require.Len(t, got, 4)
	require.True(t, strings.HasPrefix(got[1], "REQUIREMENT\n"))
	require.Equal(t, "SELECTED STANDARDS:\n(none)", got[2])
}

func TestComposeSingleIncludesExistingState(t *testing.T) {
	tmpl := DefaultTemplates()
	target := domain.Testcase{TCID: "T2", Title: "Reset link expires", Steps: []string{}}
	in := SingleInput{
		BulkInput: sampleBulk(),
		Set:       []domain.Testcase{{TCID: "T1"}, target},
		Target:    target,
	}

	got := texts(NewComposer(tmpl, false).ComposeSingle(in))

	require.Equal(t, strings.TrimSpace(tmpl.SingleInstruction), got[0])
	n := len(got)
	require.True(t, strings.HasPrefix(got[n-3], "CURRENT TESTCASE SET (JSON):\n[{\"tc_id\":\"T1\""))
	require.True(t, strings.HasPrefix(got[n-2], "TARGET TESTCASE (JSON):\n{\"tc_id\":\"T2\""))
	require.Equal(t, strings.TrimSpace(tmpl.ObjectDirective), got[n-1])
}

func TestComposeIsDeterministic(t *testing.T) {
	c := NewComposer(DefaultTemplates(), true)
	require.Equal(t, c.ComposeBulk(sampleBulk()), c.ComposeBulk(sampleBulk()))
}

func TestStrictRetryDoesNotMutateInput(t *testing.T) {
	c := NewComposer(DefaultTemplates(), false)
	orig := c.ComposeBulk(sampleBulk())
	snapshot := append([]llm.Part(nil), orig...)

	retry := c.StrictRetry(orig, ShapeArray)

	require.Equal(t, snapshot, orig)
	require.Len(t, retry, len(orig)+1)
	require.True(t, strings.HasPrefix(retry[len(retry)-1].Text, "RETURN ONLY VALID JSON"))
}

func TestLoadTemplatesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompts.yaml")
	custom := strings.Replace(string(defaultPrompts), "You are a senior QA engineer.", "You are a test architect.", 1)
	require.NoError(t, os.WriteFile(path, []byte(custom), 0o644))

	tmpl, err := LoadTemplates(path)

	require.NoError(t, err)
	require.True(t, strings.HasPrefix(tmpl.BulkInstruction, "You are a test architect."))
}

func TestParseTemplatesValidation(t *testing.T) {
	_, err := ParseTemplates([]byte("version: 1\nbulk_instruction: hi\n"))
	require.ErrorContains(t, err, "single_instruction")

	noMarker := strings.ReplaceAll(string(defaultPrompts), "RETURN ONLY VALID JSON", "please return json")
	_, err = ParseTemplates([]byte(noMarker))
	require.ErrorContains(t, err, "RETURN ONLY VALID JSON")

	_, err = LoadTemplates(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
