package review

import (
	"strings"
	"testing"

	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/revly/internal/model"
)

func TestParseWellFormedObject(t *testing.T) {
	p := NewParser(logze.Default())
	response := `{"comments":[{"file":"a.py","line":5,"message":"Use a list","suggestion":null}], "summary":"ok"}`

	comments, summary := p.Parse(response, "a.py")

	if len(comments) != 1 {
		t.Fatalf("Parse() returned %d comments, want 1", len(comments))
	}
	c := comments[0]
	if c.LineNumber != 5 {
		t.Errorf("LineNumber = %d, want 5", c.LineNumber)
	}
	if c.Severity != model.SeverityInfo {
		t.Errorf("Severity = %q, want %q", c.Severity, model.SeverityInfo)
	}
	if !c.IsInline() {
		t.Error("IsInline() = false, want true")
	}
	if summary != "ok" {
		t.Errorf("summary = %q, want %q", summary, "ok")
	}
}

func TestParseWellFormedArray(t *testing.T) {
	p := NewParser(logze.Default())
	response := `[
		{"file":"a.go","line":3,"message":"first","suggestion":null},
		{"file":"a.go","line":7,"message":"second","suggestion":"fixed := true"},
		{"file":"a.go","line":12,"message":"third","suggestion":null}
	]`

	comments, summary := p.Parse(response, "a.go")

	if len(comments) != 3 {
		t.Fatalf("Parse() returned %d comments, want 3", len(comments))
	}
	wantLines := []int{3, 7, 12}
	for i, c := range comments {
		if c.LineNumber != wantLines[i] {
			t.Errorf("comment %d LineNumber = %d, want %d", i, c.LineNumber, wantLines[i])
		}
	}
	if comments[1].Suggestion != "fixed := true" {
		t.Errorf("Suggestion = %q, want %q", comments[1].Suggestion, "fixed := true")
	}
	if summary != "" {
		t.Errorf("summary = %q, want empty", summary)
	}
}

func TestParseFencedBlock(t *testing.T) {
	p := NewParser(logze.Default())
	response := "Here is my review:\n```json\n{\"comments\":[{\"file\":\"b.go\",\"line\":2,\"message\":\"check this\",\"suggestion\":null}],\"summary\":\"fine\"}\n```\nHope it helps."

	comments, summary := p.Parse(response, "b.go")

	if len(comments) != 1 {
		t.Fatalf("Parse() returned %d comments, want 1", len(comments))
	}
	if summary != "fine" {
		t.Errorf("summary = %q, want %q", summary, "fine")
	}
}

func TestParseGarbageProducesFallback(t *testing.T) {
	p := NewParser(logze.Default())
	comments, _ := p.Parse("not json at all", "a.go")

	if len(comments) != 1 {
		t.Fatalf("Parse() returned %d comments, want 1 fallback", len(comments))
	}
	c := comments[0]
	if c.Content == "" {
		t.Error("fallback content is empty")
	}
	if !strings.Contains(c.Content, "not json at all") {
		t.Error("fallback content does not embed the raw response")
	}
	if c.IsInline() {
		t.Error("fallback comment must not be inline")
	}
	if c.Severity != model.SeverityInfo {
		t.Errorf("fallback Severity = %q, want %q", c.Severity, model.SeverityInfo)
	}
}

func TestParseEmptyResponse(t *testing.T) {
	p := NewParser(logze.Default())
	for _, response := range []string{"", "   ", "\n\t\n"} {
		comments, summary := p.Parse(response, "a.go")
		if len(comments) != 0 || summary != "" {
			t.Errorf("Parse(%q) = %d comments, summary %q, want nothing", response, len(comments), summary)
		}
	}
}

func TestParseEmptyLineFieldRejected(t *testing.T) {
	p := NewParser(logze.Default())
	comments, _ := p.Parse(`[{"file":"a.py","line": , "message":"x"}]`, "a.py")

	if len(comments) != 0 {
		t.Errorf("Parse() returned %d comments, want 0 after repair and rejection", len(comments))
	}
}

func TestParseTrailingCommaRepair(t *testing.T) {
	p := NewParser(logze.Default())
	comments, _ := p.Parse(`{"comments":[{"file":"a.go","line":4,"message":"bad comma","suggestion":null},],}`, "a.go")

	if len(comments) != 1 {
		t.Fatalf("Parse() returned %d comments, want 1", len(comments))
	}
	if comments[0].LineNumber != 4 {
		t.Errorf("LineNumber = %d, want 4", comments[0].LineNumber)
	}
}

func TestParseLineAsString(t *testing.T) {
	p := NewParser(logze.Default())
	comments, _ := p.Parse(`[{"file":"a.go","line":"10","message":"stringly typed"}]`, "a.go")

	if len(comments) != 1 {
		t.Fatalf("Parse() returned %d comments, want 1", len(comments))
	}
	if comments[0].LineNumber != 10 {
		t.Errorf("LineNumber = %d, want 10", comments[0].LineNumber)
	}
}

func TestParseRejectsBadLines(t *testing.T) {
	p := NewParser(logze.Default())
	response := `[
		{"file":"a.go","line":0,"message":"zero line"},
		{"file":"a.go","line":-3,"message":"negative line"},
		{"file":"a.go","message":"missing line"},
		{"file":"a.go","line":"abc","message":"non-numeric"},
		{"file":"a.go","line":8,"message":"kept"}
	]`

	comments, _ := p.Parse(response, "a.go")

	if len(comments) != 1 {
		t.Fatalf("Parse() returned %d comments, want 1", len(comments))
	}
	if comments[0].LineNumber != 8 {
		t.Errorf("LineNumber = %d, want 8", comments[0].LineNumber)
	}
}

func TestSeverityInference(t *testing.T) {
	tests := []struct {
		message string
		want    model.Severity
	}{
		{"This is a critical bug", model.SeverityError},
		{"An error occurs when the slice is empty", model.SeverityError},
		{"potential issue here", model.SeverityWarning},
		{"Warning: unchecked return", model.SeverityWarning},
		{"consider renaming", model.SeverityInfo},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			if got := inferSeverity(tt.message); got != tt.want {
				t.Errorf("inferSeverity(%q) = %q, want %q", tt.message, got, tt.want)
			}
		})
	}
}

func TestExtractTextSummary(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			"bold marker",
			"some comments\n\n**Summary:** Looks good overall.\nMinor nits only.\n\ntrailing",
			"Looks good overall.\nMinor nits only.",
		},
		{
			"plain marker",
			"Summary:\nThe change is safe.",
			"The change is safe.",
		},
		{
			"no marker",
			"nothing to see here",
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractTextSummary(tt.text); got != tt.want {
				t.Errorf("extractTextSummary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseLegacyText(t *testing.T) {
	p := NewParser(logze.Default())
	response := "**Line 5:** [WARNING] Unchecked error return\nwrap this call with error handling\n\n**Line 12:** [ERROR] Nil map write\n\n**Line 20:** plain info note\n\nSummary:\nTwo real problems found."

	comments, summary := p.ParseLegacyText(response, "a.go")

	if len(comments) != 3 {
		t.Fatalf("ParseLegacyText() returned %d comments, want 3", len(comments))
	}
	if comments[0].LineNumber != 5 || comments[0].Severity != model.SeverityWarning {
		t.Errorf("comment 0 = line %d severity %q, want line 5 warning", comments[0].LineNumber, comments[0].Severity)
	}
	if !strings.Contains(comments[0].Content, "wrap this call") {
		t.Error("continuation line not appended to first comment")
	}
	if comments[1].Severity != model.SeverityError {
		t.Errorf("comment 1 Severity = %q, want error", comments[1].Severity)
	}
	if comments[2].Severity != model.SeverityInfo {
		t.Errorf("comment 2 Severity = %q, want info", comments[2].Severity)
	}
	if summary != "Two real problems found." {
		t.Errorf("summary = %q, want %q", summary, "Two real problems found.")
	}
}

func TestBalancedSegment(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{`prefix {"a": 1} suffix`, `{"a": 1}`},
		{`[1, 2, [3]] tail`, `[1, 2, [3]]`},
		{`{"s": "has } inside"} end`, `{"s": "has } inside"}`},
		{`no json here`, ``},
		{`{"unterminated": true`, ``},
	}
	for _, tt := range tests {
		if got := balancedSegment(tt.text); got != tt.want {
			t.Errorf("balancedSegment(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
