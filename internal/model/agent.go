package model

import "time"

// ModelConfig carries per-backend LLM settings
type ModelConfig struct {
	APIKey   string
	Model    string
	URL      string
	ProxyURL string
	IsTest   bool
}

// APIRequest is a single request to an LLM backend
type APIRequest struct {
	Prompt       string
	SystemPrompt string
	MaxTokens    int
	Temperature  float32
	ResponseType string // "application/json" or "text/plain"
	URL          string
}

// APIResponse is a single response from an LLM backend
type APIResponse struct {
	CreateTime       time.Time
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
