package app

import (
	"strings"
	"time"

	"github.com/yungbote/casegen-backend/internal/platform/envutil"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
	"github.com/yungbote/casegen-backend/internal/services"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	Port          string
	ServiceName   string
	Environment   string
	Version       string
	ShutdownGrace time.Duration

	AIProvider        string
	GeminiAPIKey      string
	GeminiModel       string
	GeminiTemperature float32
	// AttachFiles forwards requirement file URIs to the model alongside text.
	AttachFiles bool

	AuditDir       string
	PromptsFile    string
	UploadMaxBytes int64
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:          envutil.String("PORT", "8080"),
		ServiceName:   envutil.String("OTEL_SERVICE_NAME", "casegen"),
		Environment:   envutil.String("APP_ENV", "development"),
		Version:       envutil.String("APP_VERSION", ""),
		ShutdownGrace: envutil.Seconds("SHUTDOWN_GRACE_SECONDS", 15*time.Second),

		AIProvider:        strings.ToLower(envutil.String("AI_PROVIDER", ProviderGemini)),
		GeminiAPIKey:      envutil.String("GEMINI_API_KEY", ""),
		GeminiModel:       envutil.String("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiTemperature: float32(envutil.Float64("GEMINI_TEMPERATURE", 0)),
		AttachFiles:       envutil.Bool("GEMINI_ATTACH_FILES", false),

		AuditDir:       envutil.String("AUDIT_DIR", "logs/ai_responses"),
		PromptsFile:    envutil.String("PROMPTS_FILE", ""),
		UploadMaxBytes: services.UploadMaxBytesFromEnv(),
	}
	if cfg.AIProvider != ProviderGemini && cfg.AIProvider != ProviderOpenAI {
		log.Warn("Unknown AI_PROVIDER, falling back to gemini", "value", cfg.AIProvider)
		cfg.AIProvider = ProviderGemini
	}
	return cfg
}
