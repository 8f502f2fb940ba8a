package model

import "time"

// ProviderConfig represents provider-specific configuration
type ProviderConfig struct {
	BaseURL       string
	Token         string
	WebhookSecret string
	BotUsername   string
}

// User represents a user on the VCS platform
type User struct {
	ID       string
	Username string
	Name     string
}

// MergeRequest represents a merge request
type MergeRequest struct {
	ID           string
	IID          int
	Title        string
	Description  string
	SourceBranch string
	TargetBranch string
	Author       User
	URL          string
	State        string
	SHA          string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Comment represents a comment posted to the platform
type Comment struct {
	ID       string
	Body     string
	FilePath string
	Line     int // line number in the new file, 0 for general comments
	Type     CommentType
	Author   User

	// FileContent is the full new-file content, providers use it to
	// compute inline positions. Never posted.
	FileContent string `json:"-"`
}

// CommentType defines the type of a platform comment
type CommentType string

const (
	CommentTypeGeneral CommentType = "general"
	CommentTypeInline  CommentType = "inline"
	CommentTypeSummary CommentType = "summary"
)

// CodeEvent represents a webhook event from the VCS provider
type CodeEvent struct {
	Type         string
	Action       string
	ProjectID    string
	MergeRequest *MergeRequest
	User         *User
	Timestamp    time.Time
}
