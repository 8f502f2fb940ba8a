// Package provider creates VCS platform clients.
package provider

import (
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/revly/internal/model"
	"github.com/maxbolgarin/revly/internal/provider/gitlab"
)

// ProviderType represents the type of VCS platform
type ProviderType string

const (
	GitLab ProviderType = "gitlab"
)

// Config represents VCS provider configuration
type Config struct {
	Type          ProviderType `yaml:"type" env:"PROVIDER_TYPE" env-default:"gitlab"`
	BaseURL       string       `yaml:"base_url" env:"PROVIDER_BASE_URL"`
	Token         string       `yaml:"token" env:"PROVIDER_TOKEN"`
	WebhookSecret string       `yaml:"webhook_secret" env:"PROVIDER_WEBHOOK_SECRET"`
	BotUsername   string       `yaml:"bot_username" env:"PROVIDER_BOT_USERNAME"`
}

// New creates a provider for the configured platform, failing fast on an
// unknown type
func New(cfg Config) (model.CodeProvider, error) {
	providerCfg := model.ProviderConfig{
		BaseURL:       cfg.BaseURL,
		Token:         cfg.Token,
		WebhookSecret: cfg.WebhookSecret,
		BotUsername:   cfg.BotUsername,
	}

	switch cfg.Type {
	case GitLab, "":
		return gitlab.New(providerCfg)
	default:
		return nil, errm.New("unsupported provider type: %s", cfg.Type)
	}
}
