package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/yungbote/casegen-backend/internal/platform/llm"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
)

type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	// AttachFiles forwards file parts as URI references. Only enable when the
	// stored file URIs are reachable by the Gemini API.
	AttachFiles bool
}

// Client adapts the Gemini API to llm.Generator.
type Client struct {
	log    *logger.Logger
	models *genai.Models
	cfg    Config
}

func NewClient(ctx context.Context, log *logger.Logger, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Client{
		log:    log.With("service", "GeminiClient", "model", cfg.Model),
		models: c.Models,
		cfg:    cfg,
	}, nil
}

func (c *Client) Generate(ctx context.Context, parts []llm.Part) (string, error) {
	gparts := toGenAIParts(parts, c.cfg.AttachFiles)
	if len(gparts) == 0 {
		return "", fmt.Errorf("empty prompt")
	}
	contents := []*genai.Content{genai.NewContentFromParts(gparts, genai.RoleUser)}
	genCfg := &genai.GenerateContentConfig{}
	if c.cfg.Temperature > 0 {
		genCfg.Temperature = genai.Ptr(c.cfg.Temperature)
	}

	resp, err := c.models.GenerateContent(ctx, c.cfg.Model, contents, genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	c.log.Debug("Gemini response received", "parts", len(gparts), "chars", len(text))
	return text, nil
}

func toGenAIParts(parts []llm.Part, attachFiles bool) []*genai.Part {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		switch p.Kind {
		case llm.PartFile:
			if !attachFiles || strings.TrimSpace(p.URI) == "" {
				continue
			}
			mt := p.MimeType
			if mt == "" {
				mt = "application/pdf"
			}
			out = append(out, genai.NewPartFromURI(p.URI, mt))
		default:
			if strings.TrimSpace(p.Text) == "" {
				continue
			}
			out = append(out, genai.NewPartFromText(p.Text))
		}
	}
	return out
}
