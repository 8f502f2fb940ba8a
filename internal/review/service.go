package review

import (
	"context"

	"github.com/maxbolgarin/abstract"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/revly/internal/model"
)

// Service runs the review pipeline for a single file: chunking, prompting,
// parsing, aggregation and optional validation
type Service struct {
	cfg       Config
	generator model.TextGenerator
	chunker   *Chunker
	parser    *Parser
	validator *Validator
	log       logze.Logger
}

// NewService creates a per-file review service
func NewService(cfg Config, generator model.TextGenerator, log logze.Logger) (*Service, error) {
	if err := cfg.PrepareAndValidate(); err != nil {
		return nil, errm.Wrap(err, "failed to prepare config")
	}
	if generator == nil {
		return nil, errm.New("text generator is required")
	}

	s := &Service{
		cfg:       cfg,
		generator: generator,
		chunker:   NewChunker(cfg.MaxContextTokens, cfg.ChunkOverlapLines, log),
		parser:    NewParser(log),
		log:       log.With("component", "review_service"),
	}
	if cfg.Validator.Enabled {
		s.validator = NewValidator(generator, cfg.Validator.Threshold, log)
	}
	return s, nil
}

// ValidatorStats returns the running validation statistics, zero value when
// validation is disabled
func (s *Service) ValidatorStats() ValidatorStats {
	if s.validator == nil {
		return ValidatorStats{}
	}
	return s.validator.Stats()
}

// ReviewFile reviews one file change. Chunks are processed sequentially and
// their outputs merged; a model failure on every chunk marks the result as
// failed while partial failures degrade to whatever parsed.
func (s *Service) ReviewFile(ctx context.Context, change *model.FileChange) *model.ReviewResult {
	timer := abstract.StartTimer()
	log := s.log.WithFields("file", change.Path)

	result := &model.ReviewResult{FileChange: change}

	chunks := s.buildChunks(change)
	if len(chunks) == 0 {
		log.Debug("nothing to review, empty file")
		return result
	}

	var (
		allComments []*model.ReviewComment
		summaries   []string
		errList     = errm.NewList()
		succeeded   int
	)
	for i, chunk := range chunks {
		comments, summary, err := s.reviewChunk(ctx, chunk)
		if err != nil {
			errList.Wrap(err, "chunk failed", "chunk", i+1)
			log.Err(err, "chunk review failed", "chunk", i+1, "chunks", len(chunks))
			continue
		}
		succeeded++
		allComments = append(allComments, comments...)
		summaries = append(summaries, summary)
	}

	if succeeded == 0 {
		result.Error = errList.Err().Error()
		return result
	}

	allComments = DeduplicateComments(allComments)
	summary := MergeSummaries(summaries)
	allComments, summary = ApplyCommentMode(allComments, summary, s.cfg.CommentMode)

	if s.validator != nil && len(allComments) > 0 {
		before := len(allComments)
		allComments = s.validator.FilterComments(ctx, allComments, change.NewContent)
		log.Debug("validated comments", "before", before, "after", len(allComments))
	}

	result.Comments = allComments
	result.Summary = summary

	log.Info("file reviewed",
		"chunks", len(chunks),
		"comments", len(result.Comments),
		"elapsed_time", timer.ElapsedTime().String())

	return result
}

// buildChunks returns the chunked view of the file, falling back to a single
// whole-file chunk when chunking is not triggered
func (s *Service) buildChunks(change *model.FileChange) []Chunk {
	if change.NewContent == "" && len(change.Hunks) == 0 {
		return nil
	}
	if s.chunker.ShouldSplit(change) {
		return s.chunker.Split(change)
	}
	return []Chunk{{Change: change, StartLine: 1, EndLine: countLines(change.NewContent)}}
}

func (s *Service) reviewChunk(ctx context.Context, chunk Chunk) ([]*model.ReviewComment, string, error) {
	prompt := BuildReviewPrompt(chunk.Change, PromptOptions{
		Language:         s.cfg.Language,
		Framework:        s.cfg.Framework,
		Mode:             s.cfg.CommentMode,
		LineNumberOffset: chunk.StartLine - 1,
		LegacyTextFormat: s.cfg.LegacyTextFormat,
	})

	response, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, "", errm.Wrap(err, "model call failed")
	}

	if s.cfg.LegacyTextFormat {
		comments, summary := s.parser.ParseLegacyText(response, chunk.Change.Path)
		return comments, summary, nil
	}
	comments, summary := s.parser.Parse(response, chunk.Change.Path)
	return comments, summary, nil
}

func countLines(content string) int {
	if content == "" {
		return 0
	}
	n := 1
	for _, r := range content {
		if r == '\n' {
			n++
		}
	}
	return n
}
