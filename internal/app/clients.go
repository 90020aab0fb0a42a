package app

import (
	"context"
	"fmt"

	"github.com/yungbote/casegen-backend/internal/platform/gcp"
	"github.com/yungbote/casegen-backend/internal/platform/gemini"
	"github.com/yungbote/casegen-backend/internal/platform/jira"
	"github.com/yungbote/casegen-backend/internal/platform/llm"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
	"github.com/yungbote/casegen-backend/internal/platform/openai"
)

// Clients holds the outbound integrations. Bucket, Document and Jira stay
// nil when their configuration is absent.
type Clients struct {
	Bucket    gcp.BucketService
	Document  gcp.Document
	Jira      jira.Client
	Generator llm.Generator
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	bucket, err := resolveBucketService(log)
	if err != nil {
		return Clients{}, err
	}
	out := Clients{Bucket: bucket}

	// Document AI
	if docCfg := gcp.DocumentConfigFromEnv(); docCfg.Configured() {
		doc, err := gcp.NewDocument(log, docCfg)
		if err != nil {
			return Clients{}, fmt.Errorf("init document client: %w", err)
		}
		out.Document = doc
	} else {
		log.Warn("Document AI not configured; binary documents extract to empty text")
	}

	// Jira
	if jiraCfg := jira.ConfigFromEnv(); jiraCfg.Configured() {
		jc, err := jira.NewClient(log, jiraCfg)
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init jira client: %w", err)
		}
		out.Jira = jc
	}

	// Model
	gen, err := newGenerator(ctx, log, cfg)
	if err != nil {
		out.Close()
		return Clients{}, err
	}
	out.Generator = gen
	return out, nil
}

func newGenerator(ctx context.Context, log *logger.Logger, cfg Config) (llm.Generator, error) {
	switch cfg.AIProvider {
	case ProviderOpenAI:
		c, err := openai.NewClient(log)
		if err != nil {
			return nil, fmt.Errorf("init openai client: %w", err)
		}
		return c, nil
	default:
		c, err := gemini.NewClient(ctx, log, gemini.Config{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.GeminiModel,
			Temperature: cfg.GeminiTemperature,
			AttachFiles: cfg.AttachFiles,
		})
		if err != nil {
			return nil, fmt.Errorf("init gemini client: %w", err)
		}
		return c, nil
	}
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Document != nil {
		_ = c.Document.Close()
	}
}
