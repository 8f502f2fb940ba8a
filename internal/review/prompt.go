package review

import (
	"fmt"
	"strings"

	"github.com/maxbolgarin/revly/internal/model"
)

// PromptOptions controls how a review prompt is rendered
type PromptOptions struct {
	Language         string
	Framework        string
	Mode             model.CommentMode
	LineNumberOffset int // first content line's absolute file position minus one
	LegacyTextFormat bool
}

// BuildReviewPrompt renders the instruction string for one chunk of a file.
// Line numbers embed the offset so the model reports absolute file positions
// regardless of chunking.
func BuildReviewPrompt(change *model.FileChange, opts PromptOptions) string {
	var b strings.Builder

	language := opts.Language
	if language == "" {
		language = DetectLanguage(change.Path)
	}

	b.WriteString("You are an expert code reviewer. Review the following code changes.\n\n")
	fmt.Fprintf(&b, "File: %s\n", change.Path)
	if change.OldPath != "" && change.OldPath != change.Path {
		fmt.Fprintf(&b, "Renamed from: %s\n", change.OldPath)
	}
	fmt.Fprintf(&b, "Status: %s\n", change.Status)
	fmt.Fprintf(&b, "Language: %s\n", language)
	if opts.Framework != "" {
		fmt.Fprintf(&b, "Framework: %s\n", opts.Framework)
	}
	b.WriteString("\n")

	writeModeInstructions(&b, opts.Mode)

	if change.NewContent != "" {
		b.WriteString("\nSource code with line numbers:\n")
		writeNumberedSource(&b, change.NewContent, opts.LineNumberOffset)
	}

	if len(change.Hunks) > 0 {
		b.WriteString("\nChanged sections:\n")
		for i, h := range change.Hunks {
			fmt.Fprintf(&b, "--- Hunk %d (Lines %d-%d) ---\n", i+1, h.NewStart, h.NewEnd())
			for _, line := range h.Lines {
				b.WriteString(line)
				b.WriteString("\n")
			}
		}
	}

	if opts.LegacyTextFormat {
		writeLegacyFormatRequirements(&b)
	} else {
		writeFormatRequirements(&b, opts.Mode)
	}

	return b.String()
}

func writeModeInstructions(b *strings.Builder, mode model.CommentMode) {
	switch mode {
	case model.CommentModeInline:
		b.WriteString("Produce ONLY inline comments anchored to specific lines. Do not write an overall summary.\n")
	case model.CommentModeSummary:
		b.WriteString("Produce ONLY an overall summary of the changes. Do not write line-level comments.\n")
	default:
		b.WriteString("Produce inline comments anchored to specific lines AND an overall summary of the changes.\n")
	}
	b.WriteString("Focus on bugs, security issues, and meaningful improvements. Skip style nitpicks.\n")
}

func writeNumberedSource(b *strings.Builder, content string, offset int) {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if i >= maxPromptLines {
			fmt.Fprintf(b, "... (truncated, %d more lines)\n", len(lines)-maxPromptLines)
			break
		}
		fmt.Fprintf(b, "%d: %s\n", offset+i+1, line)
	}
}

func writeFormatRequirements(b *strings.Builder, mode model.CommentMode) {
	b.WriteString("\nCRITICAL REQUIREMENTS:\n")
	b.WriteString("1. Respond with JSON ONLY, no prose before or after.\n")
	b.WriteString("2. \"line\" MUST be an integer, never a string.\n")
	b.WriteString("3. \"suggestion\" MUST be a string or null, never empty.\n")
	b.WriteString("4. Line numbers refer to the numbered source above.\n\n")

	switch mode {
	case model.CommentModeSummary:
		b.WriteString("Expected shape:\n")
		b.WriteString(`{"comments": [], "summary": "overall assessment"}` + "\n")
	default:
		b.WriteString("Expected shape:\n")
		b.WriteString(`{"comments": [{"file": "path", "line": 42, "message": "text", "suggestion": null}], "summary": "overall assessment"}` + "\n")
	}

	b.WriteString("\nVALID example:\n")
	b.WriteString(`{"comments": [{"file": "main.go", "line": 10, "message": "Possible nil dereference", "suggestion": "if v != nil {"}], "summary": "One potential bug."}` + "\n")
	b.WriteString("\nINVALID example (never do this):\n")
	b.WriteString(`{"comments": [{"file": "main.go", "line": "10", "message": Possible nil dereference, "suggestion": ""}]}` + "\n")
}

func writeLegacyFormatRequirements(b *strings.Builder) {
	b.WriteString("\nFormat each finding as a separate line:\n")
	b.WriteString("**Line N:** [SEVERITY] message\n")
	b.WriteString("where SEVERITY is one of INFO, WARNING, ERROR.\n")
	b.WriteString("Finish with an overall assessment after a \"Summary:\" marker.\n")
}
