package testgen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/casegen-backend/internal/domain"
)

const defaultSuggestedTool = "manual"

// NewTestcaseID is replaced in tests for deterministic ids.
var NewTestcaseID = func() string {
	return fmt.Sprintf("TC-%d-%s", time.Now().UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}

// Normalize maps any parsed value onto a complete Testcase. Non-objects
// normalize to an all-defaults record. It never panics.
func Normalize(v any, fallbackReqID string) domain.Testcase {
	m := asObject(v)

	tc := domain.Testcase{}
	if id, ok := nonEmptyString(m["tc_id"]); ok {
		tc.TCID = id
	} else {
		tc.TCID = NewTestcaseID()
	}
	tc.ReqID = fallbackReqID
	if id, ok := nonEmptyString(m["req_id"]); ok {
		tc.ReqID = id
	}
	tc.JiraID, _ = m["jira_id"].(string)
	tc.Title = "Testcase " + tc.TCID
	if t, ok := nonEmptyString(m["title"]); ok {
		tc.Title = t
	}
	tc.Preconditions, _ = stringList(m["preconditions"])
	tc.Steps, _ = stringList(m["steps"])
	tc.Compliance, _ = stringList(m["compliance"])
	tc.Expected, _ = expectedText(m["expected"])
	tc.Automatable, _ = m["automatable"].(bool)
	tc.SuggestedTool = defaultSuggestedTool
	if s, ok := nonEmptyString(m["suggested_tool"]); ok {
		tc.SuggestedTool = s
	}
	tc.Confidence, _ = confidence(m["confidence"])
	return tc
}

// NormalizeAll normalizes a bulk response. Elements that are not objects are
// skipped and colliding tc_ids are replaced; order is preserved.
func NormalizeAll(v any, fallbackReqID string) []domain.Testcase {
	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case map[string]any:
		items = []any{t}
	}

	out := make([]domain.Testcase, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := item.(map[string]any); !ok {
			continue
		}
		tc := Normalize(item, fallbackReqID)
		if _, dup := seen[tc.TCID]; dup {
			old := tc.TCID
			for {
				tc.TCID = NewTestcaseID()
				if _, taken := seen[tc.TCID]; !taken {
					break
				}
			}
			if tc.Title == "Testcase "+old {
				tc.Title = "Testcase " + tc.TCID
			}
		}
		seen[tc.TCID] = struct{}{}
		out = append(out, tc)
	}
	return out
}

// Merge overlays a regenerated testcase onto prev. Omitted or mistyped fields
// keep prev's value; tc_id and jira_id always stay prev's.
func Merge(v any, prev domain.Testcase) domain.Testcase {
	out := overlay(asObject(v), prev)
	out.JiraID = prev.JiraID
	return out
}

// overlay applies every well-typed field of m to a copy of prev. tc_id is
// never taken from m.
func overlay(m map[string]any, prev domain.Testcase) domain.Testcase {
	out := prev.Clone()
	if s, ok := nonEmptyString(m["req_id"]); ok {
		out.ReqID = s
	}
	if s, ok := m["jira_id"].(string); ok {
		out.JiraID = strings.TrimSpace(s)
	}
	if s, ok := nonEmptyString(m["title"]); ok {
		out.Title = s
	}
	if l, ok := stringList(m["preconditions"]); ok {
		out.Preconditions = l
	}
	if l, ok := stringList(m["steps"]); ok {
		out.Steps = l
	}
	if l, ok := stringList(m["compliance"]); ok {
		out.Compliance = l
	}
	if s, ok := expectedText(m["expected"]); ok {
		out.Expected = s
	}
	if b, ok := m["automatable"].(bool); ok {
		out.Automatable = b
	}
	if s, ok := nonEmptyString(m["suggested_tool"]); ok {
		out.SuggestedTool = s
	}
	if c, ok := confidence(m["confidence"]); ok {
		out.Confidence = c
	}
	out.TCID = prev.TCID
	return out
}

func asObject(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return t
	case domain.Testcase, *domain.Testcase:
		b, err := json.Marshal(t)
		if err != nil {
			return nil
		}
		var m map[string]any
		if json.Unmarshal(b, &m) != nil {
			return nil
		}
		return m
	default:
		return nil
	}
}

func nonEmptyString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// stringList reports ok only for arrays. Elements are coerced to strings and
// nulls are dropped. The result is never nil.
func stringList(v any) ([]string, bool) {
	arr, ok := v.([]any)
	if !ok {
		return []string{}, false
	}
	out := make([]string, 0, len(arr))
	for _, el := range arr {
		if s, ok := coerceString(el); ok {
			out = append(out, s)
		}
	}
	return out, true
}

func expectedText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case []any:
		l, _ := stringList(t)
		return strings.Join(l, " "), true
	default:
		return "", false
	}
}

func coerceString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return formatNumber(t), true
	case json.Number:
		return t.String(), true
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(t); err != nil {
			return "", false
		}
		return strings.TrimRight(buf.String(), "\n"), true
	}
}

func formatNumber(f float64) string {
	if math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// confidence accepts finite numbers and numeric strings, clamped to [0,1].
func confidence(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return math.Min(1, math.Max(0, f)), true
}
