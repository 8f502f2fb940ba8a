package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/maxbolgarin/abstract"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/revly/internal/model"
)

// MRReviewer sequences the per-file review across a whole merge request,
// applies file and line budgets, and posts results back to the platform
type MRReviewer struct {
	cfg      Config
	service  *Service
	provider model.CodeProvider
	filter   *FileFilter
	log      logze.Logger
}

// NewMRReviewer creates a merge request reviewer
func NewMRReviewer(cfg Config, service *Service, provider model.CodeProvider, log logze.Logger) (*MRReviewer, error) {
	if err := cfg.PrepareAndValidate(); err != nil {
		return nil, errm.Wrap(err, "failed to prepare config")
	}
	if service == nil {
		return nil, errm.New("review service is required")
	}
	if provider == nil {
		return nil, errm.New("code provider is required")
	}
	return &MRReviewer{
		cfg:      cfg,
		service:  service,
		provider: provider,
		filter:   NewFileFilter(cfg.IgnorePatterns, log),
		log:      log.With("component", "mr_reviewer"),
	}, nil
}

// ReviewMergeRequest reviews every eligible file of the merge request and
// posts comments. Per-file errors are logged and skipped; stats are always
// returned even for partial success.
func (r *MRReviewer) ReviewMergeRequest(ctx context.Context, projectID string, mrIID int) (*model.ReviewStats, error) {
	timer := abstract.StartTimer()
	log := r.log.WithFields("project", projectID, "mr", mrIID)

	mr, err := r.provider.GetMergeRequest(ctx, projectID, mrIID)
	if err != nil {
		return nil, errm.Wrap(err, "failed to get merge request")
	}
	log.Info("starting merge request review", "title", mr.Title, "author", mr.Author.Username)

	changes, err := r.provider.GetMergeRequestChanges(ctx, projectID, mrIID)
	if err != nil {
		return nil, errm.Wrap(err, "failed to get merge request changes")
	}

	stats := &model.ReviewStats{TotalFiles: len(changes)}
	changes = r.applyLimits(changes, stats, log)

	var results []*model.ReviewResult
	for _, change := range changes {
		result := r.service.ReviewFile(ctx, change)
		if !result.IsSuccessful() {
			log.Warn("file review failed", "file", change.Path, "error", result.Error)
			continue
		}
		stats.ProcessedFiles++
		stats.TotalComments += len(result.Comments)
		results = append(results, result)
	}

	r.postResults(ctx, projectID, mrIID, results, stats, log)

	log.Info("merge request review finished",
		"processed", stats.ProcessedFiles,
		"comments", stats.TotalComments,
		"posted", stats.CommentsPosted,
		"failed", stats.CommentsFailed,
		"elapsed_time", timer.ElapsedTime().String())

	return stats, nil
}

// applyLimits drops ignored files, then enforces the file-count and
// changed-line budgets in order
func (r *MRReviewer) applyLimits(changes []*model.FileChange, stats *model.ReviewStats, log logze.Logger) []*model.FileChange {
	eligible := make([]*model.FileChange, 0, len(changes))
	for _, change := range changes {
		if !r.filter.ShouldReview(change) {
			stats.IgnoredFiles++
			continue
		}
		eligible = append(eligible, change)
	}

	if r.cfg.MaxFiles > 0 && len(eligible) > r.cfg.MaxFiles {
		log.Warn("reached maximum files limit", "limit", r.cfg.MaxFiles, "files", len(eligible))
		stats.FilteredFiles += len(eligible) - r.cfg.MaxFiles
		eligible = eligible[:r.cfg.MaxFiles]
	}

	if r.cfg.MaxLines > 0 {
		var kept []*model.FileChange
		total := 0
		for _, change := range eligible {
			total += change.TotalLinesChanged()
			if total > r.cfg.MaxLines {
				stats.FilteredFiles++
				continue
			}
			kept = append(kept, change)
		}
		if len(kept) < len(eligible) {
			log.Warn("reached maximum lines limit", "limit", r.cfg.MaxLines)
		}
		eligible = kept
	}

	return eligible
}

// postResults posts inline comments per file, then one summary comment
func (r *MRReviewer) postResults(ctx context.Context, projectID string, mrIID int, results []*model.ReviewResult, stats *model.ReviewStats, log logze.Logger) {
	for _, result := range results {
		for _, comment := range result.Comments {
			if comment.IsInline() && r.cfg.CommentMode != model.CommentModeSummary {
				r.postInline(ctx, projectID, mrIID, result.FileChange, comment, stats, log)
			} else {
				r.postGeneral(ctx, projectID, mrIID, comment, stats, log)
			}
		}
	}

	if r.cfg.CommentMode == model.CommentModeInline {
		return
	}
	body := r.buildSummaryBody(results, stats)
	if body == "" {
		return
	}
	err := r.provider.CreateComment(ctx, projectID, mrIID, &model.Comment{
		Body: body,
		Type: model.CommentTypeSummary,
	})
	if err != nil {
		log.Err(err, "failed to post summary comment")
		stats.CommentsFailed++
		return
	}
	stats.CommentsPosted++
}

// postInline posts a positioned comment, falling back once to a general
// comment when the platform rejects the position
func (r *MRReviewer) postInline(ctx context.Context, projectID string, mrIID int, change *model.FileChange, comment *model.ReviewComment, stats *model.ReviewStats, log logze.Logger) {
	err := r.provider.CreateComment(ctx, projectID, mrIID, &model.Comment{
		Body:        comment.Content,
		FilePath:    comment.FilePath,
		Line:        comment.LineNumber,
		Type:        model.CommentTypeInline,
		FileContent: change.NewContent,
	})
	if err == nil {
		stats.CommentsPosted++
		return
	}
	log.Warn("inline comment rejected, falling back to general comment",
		"file", comment.FilePath, "line", comment.LineNumber, "error", err)

	r.postGeneral(ctx, projectID, mrIID, comment, stats, log)
}

func (r *MRReviewer) postGeneral(ctx context.Context, projectID string, mrIID int, comment *model.ReviewComment, stats *model.ReviewStats, log logze.Logger) {
	body := comment.ToMarkdown()
	if comment.FilePath != "" {
		body = fmt.Sprintf("**%s**\n\n%s", comment.FilePath, body)
	}
	err := r.provider.CreateComment(ctx, projectID, mrIID, &model.Comment{
		Body: body,
		Type: model.CommentTypeGeneral,
	})
	if err != nil {
		log.Err(err, "failed to post comment", "file", comment.FilePath, "line", comment.LineNumber)
		stats.CommentsFailed++
		return
	}
	stats.CommentsPosted++
}

// buildSummaryBody renders the MR-level summary comment
func (r *MRReviewer) buildSummaryBody(results []*model.ReviewResult, stats *model.ReviewStats) string {
	withIssues := 0
	for _, result := range results {
		if len(result.Comments) > 0 {
			withIssues++
		}
	}

	var b strings.Builder
	b.WriteString("## Code Review Summary\n\n")
	fmt.Fprintf(&b, "- Files reviewed: %d\n", stats.ProcessedFiles)
	fmt.Fprintf(&b, "- Files with issues: %d\n", withIssues)
	fmt.Fprintf(&b, "- Total comments: %d\n", stats.TotalComments)

	wroteSection := false
	for _, result := range results {
		if result.Summary == "" {
			continue
		}
		if !wroteSection {
			b.WriteString("\n")
			wroteSection = true
		}
		fmt.Fprintf(&b, "### %s\n\n%s\n\n", result.FileChange.Path, result.Summary)
	}

	if stats.ProcessedFiles == 0 && !wroteSection {
		return ""
	}
	return strings.TrimRight(b.String(), "\n")
}
