package model

import "context"

// TextGenerator is the narrow LLM surface consumed by the review pipeline:
// given a prompt, return the raw model response
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// AgentAPI defines the interface for calling LLM backends
type AgentAPI interface {
	CallAPI(ctx context.Context, req APIRequest) (APIResponse, error)
}

// CodeProvider defines the interface for the VCS platform
type CodeProvider interface {
	// Webhook handling
	ValidateWebhook(payload []byte, authToken string) error
	ParseWebhookEvent(payload []byte) (*CodeEvent, error)
	IsMergeRequestEvent(event *CodeEvent) bool

	// MR operations
	GetMergeRequest(ctx context.Context, projectID string, mrIID int) (*MergeRequest, error)
	GetMergeRequestChanges(ctx context.Context, projectID string, mrIID int) ([]*FileChange, error)

	// Comments
	CreateComment(ctx context.Context, projectID string, mrIID int, comment *Comment) error
}
