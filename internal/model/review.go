package model

import (
	"fmt"
	"strings"

	"github.com/maxbolgarin/errm"
)

// Severity is the severity level of a review comment
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// CommentMode selects which review output is produced and posted
type CommentMode string

const (
	CommentModeInline  CommentMode = "inline"
	CommentModeSummary CommentMode = "summary"
	CommentModeBoth    CommentMode = "both"
)

// LineRange is an inclusive range of new-file lines
type LineRange struct {
	Start int
	End   int
}

// ReviewComment represents a single code review comment produced by the
// review pipeline. Content is markdown.
type ReviewComment struct {
	Content    string
	LineNumber int // 0 means no line anchor
	LineRange  *LineRange
	Severity   Severity
	FilePath   string
	Suggestion string
}

// NewReviewComment builds a comment and validates its line anchors
func NewReviewComment(content string, lineNumber int, severity Severity, filePath string) (*ReviewComment, error) {
	c := &ReviewComment{
		Content:    content,
		LineNumber: lineNumber,
		Severity:   severity,
		FilePath:   filePath,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks line anchors, content may be empty
func (c *ReviewComment) Validate() error {
	if c.LineNumber != 0 && c.LineNumber < 1 {
		return errm.New("line number must be >= 1")
	}
	if c.LineRange != nil {
		if c.LineRange.Start < 1 || c.LineRange.End < c.LineRange.Start {
			return errm.New("invalid line range")
		}
	}
	return nil
}

// IsInline reports whether the comment is anchored to specific lines
func (c *ReviewComment) IsInline() bool {
	return c.LineNumber > 0 || c.LineRange != nil
}

// ToMarkdown formats the comment body for posting
func (c *ReviewComment) ToMarkdown() string {
	var b strings.Builder
	if c.Severity != SeverityInfo && c.Severity != "" {
		b.WriteString("**[")
		b.WriteString(strings.ToUpper(string(c.Severity)))
		b.WriteString("]** ")
	}
	b.WriteString(c.Content)
	if c.Suggestion != "" {
		b.WriteString("\n\n**Suggestion:**\n```suggestion\n")
		b.WriteString(c.Suggestion)
		b.WriteString("\n```")
	}
	switch {
	case c.LineNumber > 0:
		fmt.Fprintf(&b, "\n\n**Location:** Line %d", c.LineNumber)
	case c.LineRange != nil:
		fmt.Fprintf(&b, "\n\n**Location:** Lines %d-%d", c.LineRange.Start, c.LineRange.End)
	}
	return b.String()
}

// ReviewResult is the result of reviewing a single file
type ReviewResult struct {
	FileChange *FileChange
	Comments   []*ReviewComment
	Summary    string
	Error      string // non-empty means comments and summary are not meaningful
}

// IsSuccessful reports whether the review completed without error
func (r *ReviewResult) IsSuccessful() bool {
	return r.Error == ""
}

// InlineComments returns only the comments anchored to lines
func (r *ReviewResult) InlineComments() []*ReviewComment {
	var out []*ReviewComment
	for _, c := range r.Comments {
		if c.IsInline() {
			out = append(out, c)
		}
	}
	return out
}

// HasComments reports whether the review produced any output
func (r *ReviewResult) HasComments() bool {
	return len(r.Comments) > 0 || r.Summary != ""
}

// ValidationScores holds per-dimension judgment scores in [0, 1]
type ValidationScores struct {
	Relevance     float64 `json:"relevance"`
	Usefulness    float64 `json:"usefulness"`
	NonRedundancy float64 `json:"non_redundancy"`
}

// ValidationResult is the outcome of a single comment validation pass
type ValidationResult struct {
	Valid   bool
	Reason  string
	Scores  ValidationScores
	Comment *ReviewComment
}

// ReviewStats aggregates the outcome of one merge request review
type ReviewStats struct {
	TotalFiles     int
	FilteredFiles  int
	IgnoredFiles   int
	ProcessedFiles int
	TotalComments  int
	CommentsPosted int
	CommentsFailed int
}
