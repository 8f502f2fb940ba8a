package gitlab

import (
	"testing"

	"github.com/maxbolgarin/revly/internal/model"
)

const sampleWebhook = `{
	"object_kind": "merge_request",
	"user": {"id": 42, "username": "dev", "name": "Dev Eloper"},
	"project": {"id": 7, "name": "app", "path_with_namespace": "group/app"},
	"object_attributes": {
		"iid": 3,
		"title": "Add feature",
		"description": "adds the feature",
		"state": "opened",
		"action": "open",
		"source_branch": "feature",
		"target_branch": "main",
		"url": "https://gitlab.com/group/app/-/merge_requests/3",
		"last_commit": {"id": "abc123"}
	}
}`

func newTestProvider(t *testing.T, cfg model.ProviderConfig) *Provider {
	t.Helper()
	cfg.Token = "test-token"
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return p
}

func TestParseWebhookEvent(t *testing.T) {
	p := newTestProvider(t, model.ProviderConfig{})

	event, err := p.ParseWebhookEvent([]byte(sampleWebhook))
	if err != nil {
		t.Fatalf("ParseWebhookEvent() error: %v", err)
	}

	if event.Type != "merge_request" {
		t.Errorf("Type = %q, want merge_request", event.Type)
	}
	if event.Action != "open" {
		t.Errorf("Action = %q, want open", event.Action)
	}
	if event.ProjectID != "7" {
		t.Errorf("ProjectID = %q, want 7", event.ProjectID)
	}
	if event.MergeRequest.IID != 3 {
		t.Errorf("IID = %d, want 3", event.MergeRequest.IID)
	}
	if event.MergeRequest.SHA != "abc123" {
		t.Errorf("SHA = %q, want abc123", event.MergeRequest.SHA)
	}
	if event.User.Username != "dev" {
		t.Errorf("Username = %q, want dev", event.User.Username)
	}
}

func TestParseWebhookEventInvalid(t *testing.T) {
	p := newTestProvider(t, model.ProviderConfig{})
	if _, err := p.ParseWebhookEvent([]byte("{broken")); err == nil {
		t.Error("ParseWebhookEvent(broken) should fail")
	}
}

func TestIsMergeRequestEvent(t *testing.T) {
	p := newTestProvider(t, model.ProviderConfig{BotUsername: "review-bot"})

	mrEvent := func(action, username string) *model.CodeEvent {
		return &model.CodeEvent{
			Type:         "merge_request",
			Action:       action,
			User:         &model.User{Username: username},
			MergeRequest: &model.MergeRequest{IID: 1},
		}
	}

	tests := []struct {
		name  string
		event *model.CodeEvent
		want  bool
	}{
		{"open", mrEvent("open", "dev"), true},
		{"reopen", mrEvent("reopen", "dev"), true},
		{"update", mrEvent("update", "dev"), true},
		{"close", mrEvent("close", "dev"), false},
		{"merge", mrEvent("merge", "dev"), false},
		{"bot event", mrEvent("open", "review-bot"), false},
		{"push event", &model.CodeEvent{Type: "push", Action: "open"}, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.IsMergeRequestEvent(tt.event); got != tt.want {
				t.Errorf("IsMergeRequestEvent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateWebhook(t *testing.T) {
	p := newTestProvider(t, model.ProviderConfig{WebhookSecret: "s3cret"})

	if err := p.ValidateWebhook(nil, "s3cret"); err != nil {
		t.Errorf("ValidateWebhook(correct token) error: %v", err)
	}
	if err := p.ValidateWebhook(nil, "wrong"); err == nil {
		t.Error("ValidateWebhook(wrong token) should fail")
	}

	open := newTestProvider(t, model.ProviderConfig{})
	if err := open.ValidateWebhook(nil, "anything"); err != nil {
		t.Errorf("ValidateWebhook without secret should pass, got: %v", err)
	}
}

func TestNewRequiresToken(t *testing.T) {
	if _, err := New(model.ProviderConfig{}); err == nil {
		t.Error("New() without token should fail")
	}
}
