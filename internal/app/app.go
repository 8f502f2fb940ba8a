// Package app wires all components together.
package app

import (
	"context"
	"fmt"

	"github.com/maxbolgarin/contem"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/revly/internal/agent"
	"github.com/maxbolgarin/revly/internal/config"
	"github.com/maxbolgarin/revly/internal/diff"
	"github.com/maxbolgarin/revly/internal/model"
	"github.com/maxbolgarin/revly/internal/provider"
	"github.com/maxbolgarin/revly/internal/review"
	"github.com/maxbolgarin/revly/internal/server"
)

// Revly is the main service that orchestrates all components
type Revly struct {
	agent    *agent.Agent
	service  *review.Service
	provider model.CodeProvider
	reviewer *review.MRReviewer
	server   *server.Server

	cfg config.Config
	log logze.Logger
}

// New creates the service. Platform components are only created when a
// provider token is configured, local file review works without one.
func New(ctx contem.Context, cfg config.Config) (*Revly, error) {
	service := &Revly{
		cfg: cfg,
		log: logze.With("component", "app"),
	}

	if err := service.init(ctx, cfg); err != nil {
		return nil, errm.Wrap(err, "failed to initialize service")
	}

	return service, nil
}

// StartWebhook starts the webhook server
func (s *Revly) StartWebhook(ctx context.Context) error {
	if s.server == nil {
		return errm.New("webhook server requires provider configuration")
	}
	if err := s.server.Start(ctx); err != nil {
		return errm.Wrap(err, "failed to start webhook server")
	}
	return nil
}

// RunMRReview reviews one merge request and logs the outcome
func (s *Revly) RunMRReview(ctx context.Context, projectID string, mrIID int) error {
	if s.reviewer == nil {
		return errm.New("merge request review requires provider configuration")
	}

	stats, err := s.reviewer.ReviewMergeRequest(ctx, projectID, mrIID)
	if err != nil {
		return errm.Wrap(err, "failed to review merge request")
	}

	s.logValidatorStats()
	s.log.Info("review stats",
		"total_files", stats.TotalFiles,
		"ignored_files", stats.IgnoredFiles,
		"filtered_files", stats.FilteredFiles,
		"processed_files", stats.ProcessedFiles,
		"total_comments", stats.TotalComments,
		"comments_posted", stats.CommentsPosted,
		"comments_failed", stats.CommentsFailed)

	return nil
}

// RunFileReview reviews a local file or unified diff and prints the result
func (s *Revly) RunFileReview(ctx context.Context, path string) error {
	change, err := diff.ParseFileOrDiff(path)
	if err != nil {
		return errm.Wrap(err, "failed to load file")
	}

	result := s.service.ReviewFile(ctx, change)
	if !result.IsSuccessful() {
		return errm.New("review failed: %s", result.Error)
	}

	for _, comment := range result.Comments {
		fmt.Printf("%s\n\n---\n\n", comment.ToMarkdown())
	}
	if result.Summary != "" {
		fmt.Printf("## Summary\n\n%s\n", result.Summary)
	}
	if !result.HasComments() {
		fmt.Println("No issues found.")
	}

	s.logValidatorStats()
	return nil
}

func (s *Revly) logValidatorStats() {
	stats := s.service.ValidatorStats()
	if stats.Total == 0 {
		return
	}
	avg := stats.AverageScores()
	s.log.Info("validation stats",
		"total", stats.Total,
		"valid", stats.Valid,
		"invalid", stats.Invalid,
		"errors", stats.Errors,
		"avg_relevance", fmt.Sprintf("%.2f", avg.Relevance),
		"avg_usefulness", fmt.Sprintf("%.2f", avg.Usefulness),
		"avg_non_redundancy", fmt.Sprintf("%.2f", avg.NonRedundancy))
}

func (s *Revly) init(ctx contem.Context, cfg config.Config) (err error) {
	s.agent, err = agent.New(ctx, cfg.Agent, logze.Default())
	if err != nil {
		return errm.Wrap(err, "failed to create agent")
	}

	s.service, err = review.NewService(cfg.Review, s.agent, logze.Default())
	if err != nil {
		return errm.Wrap(err, "failed to create review service")
	}

	if cfg.Provider.Token == "" {
		s.log.Debug("no provider token configured, platform components disabled")
		return nil
	}

	s.provider, err = provider.New(cfg.Provider)
	if err != nil {
		return errm.Wrap(err, "failed to create VCS provider")
	}

	s.reviewer, err = review.NewMRReviewer(cfg.Review, s.service, s.provider, logze.Default())
	if err != nil {
		return errm.Wrap(err, "failed to create merge request reviewer")
	}

	s.server, err = server.New(cfg.Server, s.provider, s.reviewer)
	if err != nil {
		return errm.Wrap(err, "failed to create webhook server")
	}
	ctx.Add(s.server.Stop)

	return nil
}
