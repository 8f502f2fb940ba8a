// Package openai implements the chat completions protocol shared by
// OpenAI, DeepSeek, OpenRouter and self-hosted vLLM servers.
package openai

import (
	"context"
	"strings"
	"time"

	"github.com/maxbolgarin/cliex"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
	"github.com/maxbolgarin/revly/internal/model"
)

// Flavor selects the default endpoint and model of a compatible backend
type Flavor string

const (
	FlavorOpenAI     Flavor = "openai"
	FlavorDeepSeek   Flavor = "deepseek"
	FlavorOpenRouter Flavor = "openrouter"
	FlavorVLLM       Flavor = "vllm"
)

var flavorDefaults = map[Flavor]struct {
	url   string
	model string
}{
	FlavorOpenAI:     {"https://api.openai.com/v1/chat/completions", "gpt-4o-mini"},
	FlavorDeepSeek:   {"https://api.deepseek.com/v1/chat/completions", "deepseek-chat"},
	FlavorOpenRouter: {"https://openrouter.ai/api/v1/chat/completions", "openai/gpt-4o-mini"},
	FlavorVLLM:       {"http://localhost:8000/v1/chat/completions", ""},
}

var _ model.AgentAPI = (*Agent)(nil)

// Agent implements AgentAPI over the chat completions protocol
type Agent struct {
	cli *cliex.HTTP
	cfg model.ModelConfig
}

// New creates a chat completions agent for the given flavor
func New(ctx context.Context, cli *cliex.HTTP, flavor Flavor, cfg model.ModelConfig) (*Agent, error) {
	defaults, ok := flavorDefaults[flavor]
	if !ok {
		return nil, errm.New("unknown backend flavor: %s", flavor)
	}
	if cfg.APIKey == "" && flavor != FlavorVLLM {
		return nil, errm.New("%s API key is required", flavor)
	}
	cfg.Model = lang.Check(cfg.Model, defaults.model)
	cfg.URL = lang.Check(cfg.URL, defaults.url)
	if cfg.Model == "" {
		return nil, errm.New("model name is required for %s", flavor)
	}

	if cfg.APIKey != "" {
		cli.C().SetAuthToken(cfg.APIKey)
	}

	agent := &Agent{
		cli: cli,
		cfg: cfg,
	}

	// Test connection if needed (may take tokens)
	if cfg.IsTest {
		if err := agent.testConnection(ctx); err != nil {
			return nil, errm.Wrap(err, "failed to connect to %s API", string(flavor))
		}
	}

	return agent, nil
}

// CallAPI makes a single chat completions request
func (a *Agent) CallAPI(ctx context.Context, req model.APIRequest) (model.APIResponse, error) {
	reqBody := chatCompletionRequest{
		Model:       a.cfg.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	}
	if req.SystemPrompt != "" {
		reqBody.Messages = append(reqBody.Messages, message{Role: "system", Content: req.SystemPrompt})
	}
	reqBody.Messages = append(reqBody.Messages, message{Role: "user", Content: req.Prompt})

	var respBody chatCompletionResponse
	requestURL := lang.Check(req.URL, a.cfg.URL)
	_, err := a.cli.Post(ctx, requestURL, reqBody, &respBody)
	if err != nil {
		return model.APIResponse{}, errm.Wrap(err, "failed to make API request")
	}

	if respBody.Error != nil {
		return model.APIResponse{}, errm.Errorf("API error: %s", respBody.Error.Message)
	}

	var content string
	if len(respBody.Choices) > 0 {
		content = strings.TrimSpace(respBody.Choices[0].Message.Content)
	}

	out := model.APIResponse{
		CreateTime:       time.Unix(respBody.Created, 0),
		Content:          content,
		PromptTokens:     respBody.Usage.PromptTokens,
		CompletionTokens: respBody.Usage.CompletionTokens,
		TotalTokens:      respBody.Usage.TotalTokens,
	}

	return out, nil
}

func (a *Agent) testConnection(ctx context.Context) error {
	_, err := a.CallAPI(ctx, model.APIRequest{
		Prompt:      "Respond with 'OK' if you can understand this message.",
		MaxTokens:   10,
		Temperature: 0.5,
	})
	if err != nil {
		return errm.Wrap(err, "connection test failed")
	}
	return nil
}
