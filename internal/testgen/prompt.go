package testgen

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/casegen-backend/internal/domain"
	"github.com/yungbote/casegen-backend/internal/platform/llm"
)

type RequirementInput struct {
	ID       string
	Title    string
	FileName string
	FileURI  string
	MimeType string
	Text     string
}

type StandardInput struct {
	Name string
	Text string
}

type BulkInput struct {
	Requirement RequirementInput
	Standards   []StandardInput
	Override    string
}

// SingleInput adds the stored set and the testcase being rewritten.
type SingleInput struct {
	BulkInput
	Set    []domain.Testcase
	Target domain.Testcase
}

// Composer builds model input. It has no side effects; the same input always
// yields the same parts in the same order.
type Composer struct {
	tmpl        Templates
	attachFiles bool
}

func NewComposer(tmpl Templates, attachFiles bool) *Composer {
	return &Composer{tmpl: tmpl, attachFiles: attachFiles}
}

func (c *Composer) ComposeBulk(in BulkInput) []llm.Part {
	parts := c.head(c.tmpl.BulkInstruction, in)
	return append(parts, llm.Text(strings.TrimSpace(c.tmpl.ArrayDirective)))
}

func (c *Composer) ComposeSingle(in SingleInput) []llm.Part {
	parts := c.head(c.tmpl.SingleInstruction, in.BulkInput)
	parts = append(parts,
		llm.Text("CURRENT TESTCASE SET (JSON):\n"+compactJSON(nonNilSet(in.Set))),
		llm.Text("TARGET TESTCASE (JSON):\n"+compactJSON(in.Target)),
	)
	return append(parts, llm.Text(strings.TrimSpace(c.tmpl.ObjectDirective)))
}

// StrictRetry keeps the original content and appends the all-caps directive
// with a literal example of the required shape.
func (c *Composer) StrictRetry(parts []llm.Part, shape Shape) []llm.Part {
	strict := c.tmpl.StrictArray
	if shape == ShapeObject {
		strict = c.tmpl.StrictObject
	}
	out := make([]llm.Part, 0, len(parts)+1)
	out = append(out, parts...)
	return append(out, llm.Text(strings.TrimSpace(strict)))
}

// head emits instruction, override, requirement, standards list and
// per-standard blocks.
func (c *Composer) head(instruction string, in BulkInput) []llm.Part {
	parts := make([]llm.Part, 0, 6+len(in.Standards))
	parts = append(parts, llm.Text(strings.TrimSpace(instruction)))
	if o := strings.TrimSpace(in.Override); o != "" {
		parts = append(parts, llm.Text("ADDITIONAL USER INSTRUCTIONS:\n"+o))
	}

	r := in.Requirement
	var b strings.Builder
	b.WriteString("REQUIREMENT\n")
	fmt.Fprintf(&b, "ID: %s\n", r.ID)
	if r.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", r.Title)
	}
	if r.FileName != "" {
		fmt.Fprintf(&b, "File: %s\n", r.FileName)
	}
	b.WriteString("Extracted text:\n")
	b.WriteString(textOrPlaceholder(r.Text))
	parts = append(parts, llm.Text(b.String()))
	if c.attachFiles && strings.TrimSpace(r.FileURI) != "" {
		parts = append(parts, llm.File(r.FileURI, r.MimeType))
	}

	names := make([]string, 0, len(in.Standards))
	for _, s := range in.Standards {
		names = append(names, "- "+s.Name)
	}
	list := "(none)"
	if len(names) > 0 {
		list = strings.Join(names, "\n")
	}
	parts = append(parts, llm.Text("SELECTED STANDARDS:\n"+list))
	for _, s := range in.Standards {
		parts = append(parts, llm.Text(fmt.Sprintf("STANDARD: %s\n%s", s.Name, textOrPlaceholder(s.Text))))
	}
	return parts
}

func textOrPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(no text could be extracted)"
	}
	return s
}

func nonNilSet(set []domain.Testcase) []domain.Testcase {
	if set == nil {
		return []domain.Testcase{}
	}
	return set
}

func compactJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
