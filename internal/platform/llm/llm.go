// Package llm defines the provider-neutral boundary between prompt
// composition and the generative model adapters.
package llm

import "context"

type PartKind string

const (
	PartText PartKind = "text"
	PartFile PartKind = "file"
)

// Part is one block of model input. File parts reference a remote document
// by URI; adapters that cannot attach files skip them.
type Part struct {
	Kind     PartKind
	Text     string
	URI      string
	MimeType string
}

func Text(s string) Part { return Part{Kind: PartText, Text: s} }

func File(uri, mimeType string) Part { return Part{Kind: PartFile, URI: uri, MimeType: mimeType} }

// Generator sends composed input to a model and returns its raw text output.
type Generator interface {
	Generate(ctx context.Context, parts []Part) (string, error)
}

type GeneratorFunc func(ctx context.Context, parts []Part) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, parts []Part) (string, error) {
	return f(ctx, parts)
}
