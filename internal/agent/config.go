package agent

import (
	"slices"
	"time"

	"github.com/maxbolgarin/erro"
	"github.com/maxbolgarin/lang"
)

const (
	defaultTemperature = 0.3
	defaultMaxTokens   = 8000
	defaultTimeout     = 60 * time.Second
	defaultUserAgent   = "revly/0.1.0 (https://github.com/maxbolgarin/revly)"
)

// AgentType represents the type of LLM backend
type AgentType string

// Supported backend types
const (
	OpenAI     AgentType = "openai"
	DeepSeek   AgentType = "deepseek"
	OpenRouter AgentType = "openrouter"
	VLLM       AgentType = "vllm"
	Gemini     AgentType = "gemini"
	Mock       AgentType = "mock"
)

var supportedAgentTypes = []AgentType{OpenAI, DeepSeek, OpenRouter, VLLM, Gemini, Mock}

// Config represents LLM backend configuration
type Config struct {
	Type        AgentType `yaml:"type" env:"AGENT_TYPE"` // openai, deepseek, openrouter, vllm, gemini, mock
	APIKey      string    `yaml:"api_key" env:"AGENT_API_KEY"`
	Model       string    `yaml:"model" env:"AGENT_MODEL"`
	Temperature float32   `yaml:"temperature" env:"AGENT_TEMPERATURE"`
	MaxTokens   int       `yaml:"max_tokens" env:"AGENT_MAX_TOKENS"`

	BaseURL   string        `yaml:"base_url" env:"AGENT_BASE_URL"` // custom endpoint (Azure OpenAI, local models, etc.)
	ProxyURL  string        `yaml:"proxy_url" env:"AGENT_PROXY_URL"`
	Timeout   time.Duration `yaml:"timeout" env:"AGENT_TIMEOUT"`
	UserAgent string        `yaml:"user_agent" env:"AGENT_USER_AGENT"`
	IsTest    bool          `yaml:"is_test" env:"AGENT_IS_TEST"`
}

func (c *Config) PrepareAndValidate() error {
	if c.Type == "" || !slices.Contains(supportedAgentTypes, c.Type) {
		return erro.New("invalid agent type: %s", c.Type)
	}
	if c.APIKey == "" && c.Type != Mock && c.Type != VLLM {
		return erro.New("api key is required for agent type %s", c.Type)
	}

	c.Temperature = lang.Check(c.Temperature, defaultTemperature)
	c.MaxTokens = lang.Check(c.MaxTokens, defaultMaxTokens)
	c.Timeout = lang.Check(c.Timeout, defaultTimeout)
	c.UserAgent = lang.Check(c.UserAgent, defaultUserAgent)

	return nil
}
