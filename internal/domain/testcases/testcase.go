package testcases

// Testcase is one normalized generated test record. The JSON field names are
// part of the public API and of the stored set document.
type Testcase struct {
	TCID          string   `json:"tc_id"`
	ReqID         string   `json:"req_id"`
	JiraID        string   `json:"jira_id"`
	Title         string   `json:"title"`
	Preconditions []string `json:"preconditions"`
	Steps         []string `json:"steps"`
	Expected      string   `json:"expected"`
	Compliance    []string `json:"compliance"`
	Automatable   bool     `json:"automatable"`
	SuggestedTool string   `json:"suggested_tool"`
	Confidence    float64  `json:"confidence"`
}

// Clone returns a copy that shares no slice storage with tc.
func (tc Testcase) Clone() Testcase {
	out := tc
	out.Preconditions = append([]string{}, tc.Preconditions...)
	out.Steps = append([]string{}, tc.Steps...)
	out.Compliance = append([]string{}, tc.Compliance...)
	return out
}
