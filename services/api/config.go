package api

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"

	"voxhire/services/interview"
)

// Config holds runtime configuration for the hiring API service.
type Config struct {
	Addr           string        `env:"ADDR,default=:8080"`
	DBDSN          string        `env:"DB_DSN,required"`
	NATSUrl        string        `env:"NATS_URL"`
	OTLPEndpoint   string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:3000"`
	InviteTTL      time.Duration `env:"INVITE_TTL,default=168h"`

	VoiceAPIKey        string `env:"VOICE_API_KEY"`
	VoiceThinkModel    string `env:"VOICE_THINK_MODEL,default=gpt-4o-mini"`
	VoiceThinkProvider string `env:"VOICE_THINK_PROVIDER,default=open_ai"`

	DefaultVoiceID     string `env:"DEFAULT_VOICE_ID,default=aura-2-thalia-en"`
	DefaultLanguage    string `env:"DEFAULT_LANGUAGE,default=en"`
	DefaultDepth       string `env:"DEFAULT_DEPTH,default=moderate"`
	DefaultMaxDuration int    `env:"DEFAULT_MAX_DURATION_MINUTES,default=20"`

	ArchiveBucket string `env:"TRANSCRIPT_ARCHIVE_BUCKET"`
}

// Load returns a Config populated from environment variables.
func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// templateDefaults is the explicit defaults object merged into template
// configuration at creation time. Defaults travel as data from Config, never
// as package-level mutable state.
func (c Config) templateDefaults() interview.TemplateConfig {
	return interview.TemplateConfig{
		MaxDurationMinutes: c.DefaultMaxDuration,
		Depth:              interview.Depth(c.DefaultDepth),
		VoiceID:            c.DefaultVoiceID,
		Language:           c.DefaultLanguage,
	}
}
