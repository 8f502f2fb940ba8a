package model

import (
	"strings"
	"testing"
)

func TestNewReviewComment(t *testing.T) {
	c, err := NewReviewComment("looks wrong", 5, SeverityWarning, "a.go")
	if err != nil {
		t.Fatalf("NewReviewComment() error: %v", err)
	}
	if !c.IsInline() {
		t.Error("IsInline() = false, want true")
	}

	if _, err := NewReviewComment("bad", -1, SeverityInfo, "a.go"); err == nil {
		t.Error("NewReviewComment(line -1) should fail")
	}
}

func TestReviewCommentValidate(t *testing.T) {
	valid := ReviewComment{LineRange: &LineRange{Start: 2, End: 5}}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}

	inverted := ReviewComment{LineRange: &LineRange{Start: 5, End: 2}}
	if err := inverted.Validate(); err == nil {
		t.Error("Validate(inverted range) should fail")
	}

	zeroStart := ReviewComment{LineRange: &LineRange{Start: 0, End: 2}}
	if err := zeroStart.Validate(); err == nil {
		t.Error("Validate(zero start) should fail")
	}
}

func TestToMarkdown(t *testing.T) {
	c := ReviewComment{
		Content:    "possible nil dereference",
		LineNumber: 12,
		Severity:   SeverityError,
		Suggestion: "if v == nil { return }",
	}
	md := c.ToMarkdown()

	if !strings.Contains(md, "**[ERROR]**") {
		t.Errorf("markdown missing severity prefix: %q", md)
	}
	if !strings.Contains(md, "```suggestion") {
		t.Errorf("markdown missing suggestion fence: %q", md)
	}
	if !strings.Contains(md, "Line 12") {
		t.Errorf("markdown missing location: %q", md)
	}

	info := ReviewComment{Content: "note", Severity: SeverityInfo}
	if strings.Contains(info.ToMarkdown(), "[INFO]") {
		t.Error("info severity should not be prefixed")
	}
}

func TestReviewResult(t *testing.T) {
	ok := ReviewResult{Comments: []*ReviewComment{{Content: "x", LineNumber: 1}, {Content: "y"}}}
	if !ok.IsSuccessful() {
		t.Error("IsSuccessful() = false without error")
	}
	if !ok.HasComments() {
		t.Error("HasComments() = false with comments")
	}
	if got := len(ok.InlineComments()); got != 1 {
		t.Errorf("InlineComments() = %d, want 1", got)
	}

	failed := ReviewResult{Error: "model call failed"}
	if failed.IsSuccessful() {
		t.Error("IsSuccessful() = true with error")
	}

	summaryOnly := ReviewResult{Summary: "all good"}
	if !summaryOnly.HasComments() {
		t.Error("HasComments() = false with summary present")
	}
}
