package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/maxbolgarin/lang"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/revly/internal/model"
)

const snippetExcerptLimit = 500

// promptEchoMarkers are prefixes some backends repeat before their answer,
// everything up to the first '{' after a marker is stripped
var promptEchoMarkers = []string{
	"You are a code review quality judge",
	"Evaluate the following review comment",
	"Respond with JSON",
}

// ValidatorStats accumulates judgment outcomes over the validator's lifetime
type ValidatorStats struct {
	Total   int
	Valid   int
	Invalid int
	Errors  int

	RelevanceSum     float64
	UsefulnessSum    float64
	NonRedundancySum float64
	ScoredCount      int
}

// AverageScores returns the running mean per dimension, zeros when nothing
// was scored yet
func (s *ValidatorStats) AverageScores() model.ValidationScores {
	if s.ScoredCount == 0 {
		return model.ValidationScores{}
	}
	n := float64(s.ScoredCount)
	return model.ValidationScores{
		Relevance:     s.RelevanceSum / n,
		Usefulness:    s.UsefulnessSum / n,
		NonRedundancy: s.NonRedundancySum / n,
	}
}

// Validator re-judges candidate comments with a second model call and drops
// the ones scoring below threshold
type Validator struct {
	generator model.TextGenerator
	threshold float64
	stats     ValidatorStats
	log       logze.Logger
}

// NewValidator creates a validator with fresh statistics
func NewValidator(generator model.TextGenerator, threshold float64, log logze.Logger) *Validator {
	return &Validator{
		generator: generator,
		threshold: lang.Check(threshold, defaultValidatorThreshold),
		log:       log.With("component", "validator"),
	}
}

// Stats returns a copy of the running statistics
func (v *Validator) Stats() ValidatorStats {
	return v.stats
}

// Validate judges one comment against the file it belongs to.
// A model call failure rejects the comment, a parse failure accepts it.
func (v *Validator) Validate(ctx context.Context, comment *model.ReviewComment, fileContent string) model.ValidationResult {
	v.stats.Total++

	prompt := buildValidationPrompt(comment, fileContent)
	response, err := v.generator.Generate(ctx, prompt)
	if err != nil {
		v.stats.Errors++
		v.stats.Invalid++
		v.log.Err(err, "validation call failed", "file", comment.FilePath, "line", comment.LineNumber)
		return model.ValidationResult{
			Valid:   false,
			Reason:  "validation call failed: " + err.Error(),
			Comment: comment,
		}
	}

	result := v.parseJudgment(response)
	result.Comment = comment

	v.stats.RelevanceSum += result.Scores.Relevance
	v.stats.UsefulnessSum += result.Scores.Usefulness
	v.stats.NonRedundancySum += result.Scores.NonRedundancy
	v.stats.ScoredCount++

	result.Valid = result.Valid &&
		result.Scores.Relevance >= v.threshold &&
		result.Scores.Usefulness >= v.threshold &&
		result.Scores.NonRedundancy >= v.threshold

	if result.Valid {
		v.stats.Valid++
	} else {
		v.stats.Invalid++
		v.log.Debug("comment rejected by validator",
			"file", comment.FilePath, "line", comment.LineNumber, "reason", result.Reason)
	}
	return result
}

// FilterComments validates each comment in order and returns the survivors
func (v *Validator) FilterComments(ctx context.Context, comments []*model.ReviewComment, fileContent string) []*model.ReviewComment {
	out := make([]*model.ReviewComment, 0, len(comments))
	for _, c := range comments {
		if v.Validate(ctx, c, fileContent).Valid {
			out = append(out, c)
		}
	}
	return out
}

type rawJudgment struct {
	Valid  bool                   `json:"valid"`
	Reason string                 `json:"reason"`
	Scores model.ValidationScores `json:"scores"`
}

// parseJudgment recovers the judgment JSON, accepting the comment when
// nothing parses so feedback is not lost to a formatting quirk
func (v *Validator) parseJudgment(response string) model.ValidationResult {
	text := strings.TrimSpace(response)
	for _, marker := range promptEchoMarkers {
		if idx := strings.Index(text, marker); idx >= 0 {
			if brace := strings.Index(text[idx:], "{"); brace >= 0 {
				text = text[idx+brace:]
			}
		}
	}

	candidates := make([]string, 0, 3)
	if seg := balancedSegment(text); seg != "" {
		candidates = append(candidates, seg, repairJSON(seg))
	}
	if first, last := strings.Index(text, "{"), strings.LastIndex(text, "}"); first >= 0 && last > first {
		candidates = append(candidates, text[first:last+1])
	}

	for _, candidate := range candidates {
		var j rawJudgment
		if err := json.UnmarshalFromString(candidate, &j); err == nil {
			return model.ValidationResult{Valid: j.Valid, Reason: j.Reason, Scores: j.Scores}
		}
	}

	v.log.Debug("judgment unparseable, accepting comment by default")
	return model.ValidationResult{
		Valid:  true,
		Reason: "could not parse validation response, accepting by default",
		Scores: model.ValidationScores{
			Relevance:     v.threshold,
			Usefulness:    v.threshold,
			NonRedundancy: v.threshold,
		},
	}
}

// buildValidationPrompt embeds a code snippet around the comment's line and
// asks for a judgment JSON
func buildValidationPrompt(comment *model.ReviewComment, fileContent string) string {
	var b strings.Builder
	b.WriteString("You are a code review quality judge. Evaluate the following review comment.\n\n")
	fmt.Fprintf(&b, "File: %s\n", comment.FilePath)
	if comment.LineNumber > 0 {
		fmt.Fprintf(&b, "Line: %d\n", comment.LineNumber)
	}
	b.WriteString("\nCode context:\n")
	b.WriteString(buildSnippet(fileContent, comment.LineNumber))
	b.WriteString("\n\nComment under review:\n")
	b.WriteString(comment.Content)
	b.WriteString("\n\nRespond with JSON only:\n")
	b.WriteString(`{"valid": true|false, "reason": "text", "scores": {"relevance": 0.0, "usefulness": 0.0, "non_redundancy": 0.0}}`)
	b.WriteString("\nScores are in [0.0, 1.0].\n")
	return b.String()
}

// buildSnippet returns the lines around lineNumber with a marker on the
// commented line, or a truncated excerpt when no line is known
func buildSnippet(fileContent string, lineNumber int) string {
	if fileContent == "" {
		return "(no file content available)"
	}
	if lineNumber < 1 {
		return lang.TruncateString(fileContent, snippetExcerptLimit)
	}

	lines := strings.Split(fileContent, "\n")
	if lineNumber > len(lines) {
		return lang.TruncateString(fileContent, snippetExcerptLimit)
	}
	start := max(0, lineNumber-1-5)
	end := min(len(lines), lineNumber+5)

	var b strings.Builder
	for i := start; i < end; i++ {
		if i == lineNumber-1 {
			b.WriteString(">>> ")
		} else {
			b.WriteString("    ")
		}
		fmt.Fprintf(&b, "%d: %s\n", i+1, lines[i])
	}
	return strings.TrimRight(b.String(), "\n")
}
