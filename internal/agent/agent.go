// Package agent provides the LLM backend factory and the narrow text
// generation surface consumed by the review pipeline.
package agent

import (
	"context"

	"github.com/maxbolgarin/cliex"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/revly/internal/agent/gemini"
	"github.com/maxbolgarin/revly/internal/agent/openai"
	"github.com/maxbolgarin/revly/internal/model"
)

var _ model.TextGenerator = (*Agent)(nil)

// Agent wraps a concrete backend behind the TextGenerator interface
type Agent struct {
	cfg Config
	api model.AgentAPI
	log logze.Logger
}

// New creates an agent for the configured backend type, failing fast on an
// unknown type or missing credentials
func New(ctx context.Context, cfg Config, log logze.Logger) (*Agent, error) {
	if err := cfg.PrepareAndValidate(); err != nil {
		return nil, errm.Wrap(err, "validate config")
	}

	agent := &Agent{
		cfg: cfg,
		log: log.With("component", "agent", "type", string(cfg.Type)),
	}

	modelCfg := model.ModelConfig{
		APIKey:   cfg.APIKey,
		Model:    cfg.Model,
		URL:      cfg.BaseURL,
		ProxyURL: cfg.ProxyURL,
		IsTest:   cfg.IsTest,
	}

	var err error
	switch cfg.Type {
	case OpenAI, DeepSeek, OpenRouter, VLLM:
		var cli *cliex.HTTP
		cli, err = cliex.NewWithConfig(cliex.Config{
			UserAgent:      cfg.UserAgent,
			ProxyAddress:   cfg.ProxyURL,
			RequestTimeout: cfg.Timeout,
		})
		if err != nil {
			return nil, errm.Wrap(err, "failed to create HTTP client")
		}
		agent.api, err = openai.New(ctx, cli, openai.Flavor(cfg.Type), modelCfg)
	case Gemini:
		agent.api, err = gemini.New(ctx, modelCfg)
	case Mock:
		agent.api = NewMockAPI()
	default:
		return nil, errm.Errorf("unsupported agent type: %s", cfg.Type)
	}
	if err != nil {
		return nil, errm.Wrap(err, "failed to create agent")
	}

	return agent, nil
}

// Generate sends one prompt to the backend and returns the raw response text
func (a *Agent) Generate(ctx context.Context, prompt string) (string, error) {
	response, err := a.api.CallAPI(ctx, model.APIRequest{
		Prompt:      prompt,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return "", errm.Wrap(err, "failed to call API")
	}
	if response.Content == "" {
		return "", errm.New("empty response from API")
	}

	a.log.Debug("generated response",
		"prompt_tokens", response.PromptTokens,
		"completion_tokens", response.CompletionTokens)

	return response.Content, nil
}
