// Package gitlab implements the CodeProvider interface for GitLab.
package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/maxbolgarin/abstract"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/revly/internal/diff"
	"github.com/maxbolgarin/revly/internal/model"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

const defaultBaseURL = "https://gitlab.com"

// diffRefs is an alias for the anonymous diff_refs struct on
// gitlab.MergeRequest; fields and tags must match it exactly.
type diffRefs = struct {
	BaseSha  string `json:"base_sha"`
	HeadSha  string `json:"head_sha"`
	StartSha string `json:"start_sha"`
}

var _ model.CodeProvider = (*Provider)(nil)

// Provider implements the CodeProvider interface for GitLab
type Provider struct {
	client   *gitlab.Client
	config   model.ProviderConfig
	diffRefs *abstract.SafeMap[string, *diffRefs]
	logger   logze.Logger
}

// New creates a new GitLab provider
func New(config model.ProviderConfig) (*Provider, error) {
	if config.Token == "" {
		return nil, errm.New("GitLab token is required")
	}
	logger := logze.With("provider", "gitlab", "component", "provider")

	baseURL := lang.Check(config.BaseURL, defaultBaseURL)

	client, err := gitlab.NewClient(config.Token, gitlab.WithBaseURL(baseURL))
	if err != nil {
		return nil, errm.Wrap(err, "failed to create GitLab client")
	}

	return &Provider{
		client:   client,
		config:   config,
		diffRefs: abstract.NewSafeMap[string, *diffRefs](),
		logger:   logger,
	}, nil
}

// ValidateWebhook validates the webhook token header
func (p *Provider) ValidateWebhook(payload []byte, authToken string) error {
	if p.config.WebhookSecret == "" {
		return nil // No secret configured, skip validation
	}
	if authToken != p.config.WebhookSecret {
		return errm.New("invalid webhook token")
	}
	return nil
}

// ParseWebhookEvent parses a GitLab webhook event
func (p *Provider) ParseWebhookEvent(payload []byte) (*model.CodeEvent, error) {
	var wh webhookPayload
	if err := json.Unmarshal(payload, &wh); err != nil {
		return nil, errm.Wrap(err, "failed to parse GitLab webhook payload")
	}

	event := &model.CodeEvent{
		Type:      wh.ObjectKind,
		Action:    wh.ObjectAttributes.Action,
		ProjectID: strconv.Itoa(wh.Project.ID),
		User: &model.User{
			ID:       strconv.Itoa(wh.User.ID),
			Username: wh.User.Username,
			Name:     wh.User.Name,
		},
		MergeRequest: &model.MergeRequest{
			ID:           strconv.Itoa(wh.ObjectAttributes.IID),
			IID:          wh.ObjectAttributes.IID,
			Title:        wh.ObjectAttributes.Title,
			Description:  wh.ObjectAttributes.Description,
			SourceBranch: wh.ObjectAttributes.SourceBranch,
			TargetBranch: wh.ObjectAttributes.TargetBranch,
			URL:          wh.ObjectAttributes.URL,
			State:        wh.ObjectAttributes.State,
			SHA:          wh.ObjectAttributes.LastCommit.ID,
		},
	}

	return event, nil
}

// IsMergeRequestEvent reports whether a webhook event should trigger a review
func (p *Provider) IsMergeRequestEvent(event *model.CodeEvent) bool {
	if event == nil || event.Type != "merge_request" || event.MergeRequest == nil {
		return false
	}

	relevantActions := []string{"open", "reopen", "update"}
	if !slices.Contains(relevantActions, event.Action) {
		return false
	}

	// Don't process events from the bot itself to avoid loops
	if event.User != nil && p.config.BotUsername != "" && event.User.Username == p.config.BotUsername {
		return false
	}

	return true
}

// GetMergeRequest retrieves detailed information about a merge request
func (p *Provider) GetMergeRequest(ctx context.Context, projectID string, mrIID int) (*model.MergeRequest, error) {
	mr, resp, err := p.client.MergeRequests.GetMergeRequest(projectID, mrIID, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, errm.Wrap(err, "failed to get merge request from GitLab")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errm.New(fmt.Sprintf("GitLab API returned status %d", resp.StatusCode))
	}

	if mr.DiffRefs != (diffRefs{}) {
		refs := mr.DiffRefs
		p.diffRefs.Set(mrKey(projectID, mrIID), &refs)
	}

	result := &model.MergeRequest{
		ID:           strconv.Itoa(mr.ID),
		IID:          mr.IID,
		Title:        mr.Title,
		Description:  mr.Description,
		SourceBranch: mr.SourceBranch,
		TargetBranch: mr.TargetBranch,
		URL:          mr.WebURL,
		State:        mr.State,
		SHA:          mr.SHA,
		CreatedAt:    lang.Deref(mr.CreatedAt),
		UpdatedAt:    lang.Deref(mr.UpdatedAt),
	}
	if mr.Author != nil {
		result.Author = model.User{
			ID:       strconv.Itoa(mr.Author.ID),
			Username: mr.Author.Username,
			Name:     mr.Author.Name,
		}
	}
	return result, nil
}

// GetMergeRequestChanges retrieves the changed files of a merge request with
// parsed hunks and, where possible, the full new-file content
func (p *Provider) GetMergeRequestChanges(ctx context.Context, projectID string, mrIID int) ([]*model.FileChange, error) {
	mr, err := p.GetMergeRequest(ctx, projectID, mrIID)
	if err != nil {
		return nil, err
	}

	var allDiffs []*gitlab.MergeRequestDiff
	page := 1
	for {
		opts := &gitlab.ListMergeRequestDiffsOptions{
			ListOptions: gitlab.ListOptions{Page: page},
		}
		diffs, resp, err := p.client.MergeRequests.ListMergeRequestDiffs(projectID, mrIID, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, errm.Wrap(err, "failed to list merge request diffs")
		}
		if resp.StatusCode != http.StatusOK {
			return nil, errm.New(fmt.Sprintf("GitLab API returned status %d", resp.StatusCode))
		}
		allDiffs = append(allDiffs, diffs...)
		if resp.NextPage == 0 {
			break
		}
		page = resp.NextPage
	}

	var changes []*model.FileChange
	for _, d := range allDiffs {
		change := &model.FileChange{
			Path:   lang.Check(d.NewPath, d.OldPath),
			Status: diffStatus(d),
		}
		if d.RenamedFile {
			change.OldPath = d.OldPath
		}

		hunks, err := diff.ParseHunks(d.Diff, d.OldPath, d.NewPath)
		if err != nil {
			p.logger.Warn("failed to parse diff payload", "file", change.Path, "error", err)
		}
		change.Hunks = hunks

		if !d.DeletedFile {
			content, err := p.getFileContent(ctx, projectID, change.Path, mr.SHA)
			if err != nil {
				p.logger.Warn("failed to fetch file content, reviewing hunks only", "file", change.Path, "error", err)
			} else {
				change.NewContent = content
			}
		}

		changes = append(changes, change)
	}

	return changes, nil
}

// CreateComment creates a discussion on a merge request, positioned when the
// comment carries a file path and line
func (p *Provider) CreateComment(ctx context.Context, projectID string, mrIID int, comment *model.Comment) error {
	if comment.Type == model.CommentTypeInline && comment.FilePath != "" && comment.Line > 0 {
		return p.createInlineComment(ctx, projectID, mrIID, comment)
	}
	return p.createRegularComment(ctx, projectID, mrIID, comment)
}

func (p *Provider) createInlineComment(ctx context.Context, projectID string, mrIID int, comment *model.Comment) error {
	refs, err := p.getDiffRefs(ctx, projectID, mrIID)
	if err != nil {
		return errm.Wrap(err, "failed to get diff refs")
	}

	positionType := "text"
	positionOpts := &gitlab.PositionOptions{
		BaseSHA:      &refs.BaseSha,
		StartSHA:     &refs.StartSha,
		HeadSHA:      &refs.HeadSha,
		PositionType: &positionType,
		NewPath:      &comment.FilePath,
		NewLine:      &comment.Line,
	}

	discussionOpts := &gitlab.CreateMergeRequestDiscussionOptions{
		Body:     &comment.Body,
		Position: positionOpts,
	}

	discussion, _, err := p.client.Discussions.CreateMergeRequestDiscussion(projectID, mrIID, discussionOpts, gitlab.WithContext(ctx))
	if err != nil {
		return errm.Wrap(err, "failed to create positioned discussion")
	}

	comment.ID = discussion.ID
	return nil
}

func (p *Provider) createRegularComment(ctx context.Context, projectID string, mrIID int, comment *model.Comment) error {
	discussionOpts := &gitlab.CreateMergeRequestDiscussionOptions{
		Body: &comment.Body,
	}

	discussion, _, err := p.client.Discussions.CreateMergeRequestDiscussion(projectID, mrIID, discussionOpts, gitlab.WithContext(ctx))
	if err != nil {
		return errm.Wrap(err, "failed to create merge request discussion")
	}

	comment.ID = discussion.ID
	return nil
}

// getDiffRefs returns the cached diff refs for positioning, fetching the MR
// when the cache is cold
func (p *Provider) getDiffRefs(ctx context.Context, projectID string, mrIID int) (*diffRefs, error) {
	if refs, ok := p.diffRefs.Lookup(mrKey(projectID, mrIID)); ok {
		return refs, nil
	}
	if _, err := p.GetMergeRequest(ctx, projectID, mrIID); err != nil {
		return nil, err
	}
	refs, ok := p.diffRefs.Lookup(mrKey(projectID, mrIID))
	if !ok {
		return nil, errm.New("merge request has no diff refs")
	}
	return refs, nil
}

func (p *Provider) getFileContent(ctx context.Context, projectID, path, ref string) (string, error) {
	opts := &gitlab.GetRawFileOptions{}
	if ref != "" {
		opts.Ref = &ref
	}
	raw, resp, err := p.client.RepositoryFiles.GetRawFile(projectID, path, opts, gitlab.WithContext(ctx))
	if err != nil {
		return "", errm.Wrap(err, "failed to get raw file")
	}
	if resp.StatusCode != http.StatusOK {
		return "", errm.New(fmt.Sprintf("GitLab API returned status %d", resp.StatusCode))
	}
	return string(raw), nil
}

func diffStatus(d *gitlab.MergeRequestDiff) model.FileStatus {
	switch {
	case d.NewFile:
		return model.StatusAdded
	case d.DeletedFile:
		return model.StatusDeleted
	case d.RenamedFile:
		return model.StatusRenamed
	default:
		return model.StatusModified
	}
}

func mrKey(projectID string, mrIID int) string {
	return projectID + "/" + strconv.Itoa(mrIID)
}
