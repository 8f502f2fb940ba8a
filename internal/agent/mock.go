package agent

import (
	"context"
	"strings"
	"time"

	"github.com/maxbolgarin/revly/internal/model"
)

var _ model.AgentAPI = (*MockAPI)(nil)

// MockAPI is an offline backend for local runs and demos. It emits the
// line-based text format, so pair it with the legacy parser.
type MockAPI struct{}

// NewMockAPI creates a mock backend
func NewMockAPI() *MockAPI {
	return &MockAPI{}
}

// CallAPI returns a canned response without any network traffic
func (m *MockAPI) CallAPI(_ context.Context, req model.APIRequest) (model.APIResponse, error) {
	content := mockReviewResponse
	if strings.Contains(req.Prompt, "code review quality judge") {
		content = mockJudgmentResponse
	}
	return model.APIResponse{
		CreateTime:       time.Now(),
		Content:          content,
		PromptTokens:     len(req.Prompt) / 4,
		CompletionTokens: len(content) / 4,
		TotalTokens:      (len(req.Prompt) + len(content)) / 4,
	}, nil
}

const mockReviewResponse = `**Line 1:** [INFO] Mock review: consider adding a package comment.

**Line 2:** [WARNING] Mock review: potential issue with unchecked input.

Summary:
Mock review completed, no real analysis performed.`

const mockJudgmentResponse = `{"valid": true, "reason": "mock judgment", "scores": {"relevance": 0.9, "usefulness": 0.9, "non_redundancy": 0.9}}`
