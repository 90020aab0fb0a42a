package testgen

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PromptsFileEnv names a YAML file that replaces the embedded templates.
const PromptsFileEnv = "PROMPTS_FILE"

const strictMarker = "RETURN ONLY VALID JSON"

//go:embed prompts.yaml
var defaultPrompts []byte

type Templates struct {
	Version           int    `yaml:"version"`
	BulkInstruction   string `yaml:"bulk_instruction"`
	SingleInstruction string `yaml:"single_instruction"`
	ArrayDirective    string `yaml:"array_directive"`
	ObjectDirective   string `yaml:"object_directive"`
	StrictArray       string `yaml:"strict_array"`
	StrictObject      string `yaml:"strict_object"`
}

// LoadTemplates reads path, or the embedded defaults when path is empty.
func LoadTemplates(path string) (Templates, error) {
	data := defaultPrompts
	if path = strings.TrimSpace(path); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Templates{}, fmt.Errorf("read prompts file: %w", err)
		}
		data = b
	}
	return ParseTemplates(data)
}

func ParseTemplates(data []byte) (Templates, error) {
	var t Templates
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Templates{}, fmt.Errorf("parse prompts: %w", err)
	}
	if err := t.validate(); err != nil {
		return Templates{}, err
	}
	return t, nil
}

// DefaultTemplates panics if the embedded file is broken; it ships with the binary.
func DefaultTemplates() Templates {
	t, err := ParseTemplates(defaultPrompts)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Templates) validate() error {
	required := []struct {
		key, val string
	}{
		{"bulk_instruction", t.BulkInstruction},
		{"single_instruction", t.SingleInstruction},
		{"array_directive", t.ArrayDirective},
		{"object_directive", t.ObjectDirective},
		{"strict_array", t.StrictArray},
		{"strict_object", t.StrictObject},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("prompts: missing keys %s", strings.Join(missing, ", "))
	}
	if !strings.Contains(t.StrictArray, strictMarker) || !strings.Contains(t.StrictObject, strictMarker) {
		return fmt.Errorf("prompts: strict templates must contain %q", strictMarker)
	}
	return nil
}
