package review

import (
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
	"github.com/maxbolgarin/revly/internal/model"
)

const (
	defaultCommentMode       = model.CommentModeBoth
	defaultMaxFiles          = 50
	defaultMaxLines          = 10000
	defaultChunkOverlapLines = 20
	defaultValidatorThreshold = 0.7

	// Share of the context window left for file content; the rest is
	// reserved for prompt scaffolding.
	contentBudgetRatio = 0.7

	// Forced advance when a single line blows the token budget.
	fallbackChunkLines = 50

	// Hard cap on numbered source lines embedded into a prompt.
	maxPromptLines = 1000
)

// Config holds settings for the review pipeline
type Config struct {
	// CommentMode selects inline comments, summary, or both
	CommentMode model.CommentMode `yaml:"comment_mode" env:"REVIEW_COMMENT_MODE" env-default:"both"`

	// Language forces the source language name in prompts, detected from
	// the file extension when empty
	Language string `yaml:"language" env:"REVIEW_LANGUAGE"`

	// Framework names the project framework for prompt context
	Framework string `yaml:"framework" env:"REVIEW_FRAMEWORK"`

	// MaxContextTokens triggers chunking when a file exceeds it, 0 disables chunking
	MaxContextTokens int `yaml:"max_context_tokens" env:"REVIEW_MAX_CONTEXT_TOKENS"`

	// ChunkOverlapLines is how many lines consecutive chunks share
	ChunkOverlapLines int `yaml:"chunk_overlap_lines" env:"REVIEW_CHUNK_OVERLAP_LINES" env-default:"20"`

	// MaxFiles bounds how many files of one MR are reviewed
	MaxFiles int `yaml:"max_files" env:"REVIEW_MAX_FILES" env-default:"50"`

	// MaxLines bounds the total changed lines across reviewed files
	MaxLines int `yaml:"max_lines" env:"REVIEW_MAX_LINES" env-default:"10000"`

	// IgnorePatterns are glob patterns for files to skip
	IgnorePatterns []string `yaml:"ignore_patterns" env:"REVIEW_IGNORE_PATTERNS"`

	// LegacyTextFormat switches prompts and parsing to the line-based
	// text format instead of JSON
	LegacyTextFormat bool `yaml:"legacy_text_format" env:"REVIEW_LEGACY_TEXT_FORMAT"`

	Validator ValidatorConfig `yaml:"validator"`
}

// ValidatorConfig holds settings for the second-pass comment validation
type ValidatorConfig struct {
	// Enabled turns on the second model pass per comment
	Enabled bool `yaml:"enabled" env:"VALIDATOR_ENABLED"`

	// Threshold is the minimum score per dimension for a comment to survive
	Threshold float64 `yaml:"threshold" env:"VALIDATOR_THRESHOLD" env-default:"0.7"`
}

// PrepareAndValidate sets defaults and checks the config
func (cfg *Config) PrepareAndValidate() error {
	cfg.CommentMode = lang.Check(cfg.CommentMode, defaultCommentMode)
	cfg.MaxFiles = lang.Check(cfg.MaxFiles, defaultMaxFiles)
	cfg.MaxLines = lang.Check(cfg.MaxLines, defaultMaxLines)
	cfg.Validator.Threshold = lang.Check(cfg.Validator.Threshold, defaultValidatorThreshold)

	switch cfg.CommentMode {
	case model.CommentModeInline, model.CommentModeSummary, model.CommentModeBoth:
	default:
		return errm.New("invalid comment mode: %s", cfg.CommentMode)
	}
	if cfg.MaxContextTokens < 0 {
		return errm.New("max_context_tokens cannot be negative")
	}
	if cfg.ChunkOverlapLines < 0 {
		return errm.New("chunk_overlap_lines cannot be negative")
	}
	if cfg.Validator.Threshold < 0 || cfg.Validator.Threshold > 1 {
		return errm.New("validator threshold must be in [0, 1]")
	}

	return nil
}
