package testgen

import "github.com/yungbote/casegen-backend/internal/domain"

// ApplyPatch applies a manual partial update. Each field is validated on its
// own: absent or invalid fields leave prev untouched, and tc_id is immutable.
func ApplyPatch(prev domain.Testcase, patch map[string]any) domain.Testcase {
	return overlay(patch, prev)
}

// PatchableFields lists the keys ApplyPatch understands.
var PatchableFields = []string{
	"req_id", "jira_id", "title", "preconditions", "steps", "expected",
	"compliance", "automatable", "suggested_tool", "confidence",
}
