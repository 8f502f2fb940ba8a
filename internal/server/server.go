// Package server exposes the webhook endpoint that triggers reviews.
package server

import (
	"context"
	"net/http"

	"github.com/maxbolgarin/abstract"
	"github.com/maxbolgarin/erro"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/revly/internal/model"
	"github.com/maxbolgarin/revly/internal/review"
	"github.com/maxbolgarin/servex/v2"
	"github.com/panjf2000/ants/v2"
)

// authHeaders are the header names platforms use for webhook secrets
var authHeaders = []string{
	"X-Gitlab-Token",
	"X-Hub-Signature-256",
}

// Server handles webhook requests from VCS providers and hands merge
// request events to the reviewer through a worker pool
type Server struct {
	provider model.CodeProvider
	reviewer *review.MRReviewer
	config   Config
	log      logze.Logger
	server   *servex.Server
	pool     *ants.Pool

	// Processed commit SHAs per MR, avoids double reviews on webhook retries.
	processed *abstract.SafeMapOfMaps[string, string, struct{}]
}

// New creates a webhook server
func New(cfg Config, provider model.CodeProvider, reviewer *review.MRReviewer) (*Server, error) {
	if err := cfg.PrepareAndValidate(); err != nil {
		return nil, erro.Wrap(err, "validate config")
	}

	log := logze.With("module", "server")

	srv, err := servex.NewServer(
		servex.WithReadTimeout(cfg.Timeout),
		servex.WithIdleTimeout(cfg.Timeout*2),
		servex.WithLogger(log),
		servex.WithHealthEndpoint(),
		servex.WithDefaultMetrics(),
		servex.WithCertificate(cfg.Certificate),
	)
	if err != nil {
		return nil, erro.Wrap(err, "failed to create server")
	}

	pool, err := ants.NewPool(cfg.PoolSize)
	if err != nil {
		return nil, erro.Wrap(err, "failed to create worker pool")
	}

	s := &Server{
		provider:  provider,
		reviewer:  reviewer,
		config:    cfg,
		log:       log,
		server:    srv,
		pool:      pool,
		processed: abstract.NewSafeMapOfMaps[string, string, struct{}](),
	}

	srv.HandleFunc(cfg.Endpoint, s.handleWebhook)

	return s, nil
}

// Start starts the webhook server
func (s *Server) Start(ctx context.Context) error {
	if s.config.EnableHTTPS {
		return s.server.StartHTTPS(s.config.Address)
	}
	return s.server.StartHTTP(s.config.Address)
}

// Stop stops the webhook server and the worker pool
func (s *Server) Stop(ctx context.Context) error {
	s.pool.Release()
	return s.server.Shutdown(ctx)
}

// handleWebhook handles incoming webhook requests
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := servex.NewContext(w, r)

	body, err := ctx.Read()
	if err != nil {
		ctx.BadRequest(err, "failed to read webhook body")
		return
	}

	token := s.getAuthFromHeaders(r)
	if err := s.provider.ValidateWebhook(body, token); err != nil {
		ctx.Unauthorized(err, "webhook validation failed")
		return
	}

	event, err := s.provider.ParseWebhookEvent(body)
	if err != nil {
		ctx.BadRequest(err, "failed to parse webhook event")
		return
	}

	if !s.provider.IsMergeRequestEvent(event) {
		s.log.Debug("ignoring non-merge request event")
		ctx.Response(http.StatusOK)
		return
	}

	mrKey := event.ProjectID + "/" + event.MergeRequest.ID
	if _, ok := s.processed.Lookup(mrKey, event.MergeRequest.SHA); ok {
		s.log.Debug("commit already reviewed, skipping", "mr", event.MergeRequest.IID, "sha", event.MergeRequest.SHA)
		ctx.Response(http.StatusOK)
		return
	}

	s.log.Info("received merge request event",
		"mr_title", event.MergeRequest.Title, "action", event.Action)

	projectID := event.ProjectID
	mrIID := event.MergeRequest.IID
	sha := event.MergeRequest.SHA
	err = s.pool.Submit(func() {
		stats, err := s.reviewer.ReviewMergeRequest(context.Background(), projectID, mrIID)
		if err != nil {
			s.log.Err(err, "failed to review merge request", "project", projectID, "mr", mrIID)
			return
		}
		s.processed.Set(mrKey, sha, struct{}{})
		s.log.Info("webhook review finished",
			"project", projectID, "mr", mrIID,
			"processed", stats.ProcessedFiles, "posted", stats.CommentsPosted)
	})
	if err != nil {
		ctx.InternalServerError(err, "failed to schedule review")
		return
	}

	ctx.Response(http.StatusAccepted)
}

// getAuthFromHeaders extracts the webhook token from request headers
func (s *Server) getAuthFromHeaders(r *http.Request) string {
	for _, header := range authHeaders {
		if value := r.Header.Get(header); value != "" {
			return value
		}
	}
	return ""
}
