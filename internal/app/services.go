package app

import (
	"fmt"

	"github.com/yungbote/casegen-backend/internal/observability"
	"github.com/yungbote/casegen-backend/internal/platform/audit"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
	"github.com/yungbote/casegen-backend/internal/services"
	"github.com/yungbote/casegen-backend/internal/testgen"
)

type Services struct {
	Identity    services.IdentityService
	Extract     services.TextExtractService
	Requirement services.RequirementService
	Standard    services.StandardService
	Generation  services.GenerationService
	Jira        services.JiraService
}

func wireServices(log *logger.Logger, cfg Config, repos Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	identity, err := services.NewIdentityService(log, services.IdentityConfigFromEnv())
	if err != nil {
		return Services{}, fmt.Errorf("init identity: %w", err)
	}

	tmpl := testgen.DefaultTemplates()
	if cfg.PromptsFile != "" {
		tmpl, err = testgen.LoadTemplates(cfg.PromptsFile)
		if err != nil {
			return Services{}, fmt.Errorf("load prompts: %w", err)
		}
	}
	sink, err := audit.NewFileSink(cfg.AuditDir)
	if err != nil {
		return Services{}, fmt.Errorf("init audit sink: %w", err)
	}
	composer := testgen.NewComposer(tmpl, cfg.AttachFiles)
	engine := testgen.NewEngine(log, clients.Generator, composer, sink, testgen.WithObserver(metrics))

	extract := services.NewTextExtractService(log, clients.Bucket, clients.Document, services.TextExtractConfigFromEnv())
	generation := services.NewGenerationService(log, repos.Requirement, repos.Standard, repos.GeneratedSet, extract, composer, engine)

	return Services{
		Identity:    identity,
		Extract:     extract,
		Requirement: services.NewRequirementService(log, clients.Bucket, repos.Requirement, cfg.UploadMaxBytes),
		Standard:    services.NewStandardService(log, clients.Bucket, repos.Standard, cfg.UploadMaxBytes),
		Generation:  generation,
		Jira:        services.NewJiraService(log, generation, repos.GeneratedSet, clients.Jira),
	}, nil
}
