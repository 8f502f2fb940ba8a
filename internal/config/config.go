// Package config holds the layered application configuration.
package config

import (
	"github.com/maxbolgarin/revly/internal/agent"
	"github.com/maxbolgarin/revly/internal/provider"
	"github.com/maxbolgarin/revly/internal/review"
	"github.com/maxbolgarin/revly/internal/server"
)

// Config represents the main application configuration, loaded from a YAML
// file with environment variable overrides
type Config struct {
	Server   server.Config   `yaml:"server"`
	Provider provider.Config `yaml:"provider"`
	Agent    agent.Config    `yaml:"agent"`
	Review   review.Config   `yaml:"review"`
}

// Validate checks the settings every run mode needs
func (c *Config) Validate() error {
	if c.Agent.Type == "" {
		return ErrMissingAgentType
	}
	return nil
}

// ValidateProvider checks the settings needed to talk to the platform
func (c *Config) ValidateProvider() error {
	if c.Provider.Token == "" {
		return ErrMissingProviderToken
	}
	return nil
}
