package review

import (
	"context"
	"strings"
	"testing"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/revly/internal/model"
)

// scriptedGenerator returns canned responses in order, repeating the last one
type scriptedGenerator struct {
	responses []string
	err       error
	failCalls map[int]bool // 1-based call numbers that fail
	calls     int
	prompts   []string
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.calls++
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	if g.failCalls[g.calls] {
		return "", errm.New("scripted failure")
	}
	if len(g.responses) == 0 {
		return "", nil
	}
	idx := min(g.calls-1, len(g.responses)-1)
	return g.responses[idx], nil
}

func testComment() *model.ReviewComment {
	return &model.ReviewComment{
		Content:    "possible off-by-one",
		LineNumber: 10,
		Severity:   model.SeverityWarning,
		FilePath:   "a.go",
	}
}

const fileContent = "l1\nl2\nl3\nl4\nl5\nl6\nl7\nl8\nl9\nl10\nl11\nl12\nl13\nl14\nl15"

func TestValidatorAcceptsGoodJudgment(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		`{"valid": true, "reason": "on point", "scores": {"relevance": 0.9, "usefulness": 0.8, "non_redundancy": 0.95}}`,
	}}
	v := NewValidator(gen, 0.7, logze.Default())

	result := v.Validate(context.Background(), testComment(), fileContent)

	if !result.Valid {
		t.Errorf("Valid = false, want true, reason %q", result.Reason)
	}
	if result.Scores.Relevance != 0.9 {
		t.Errorf("Relevance = %v, want 0.9", result.Scores.Relevance)
	}
}

func TestValidatorRejectsLowScore(t *testing.T) {
	// One dimension below threshold fails the whole judgment.
	gen := &scriptedGenerator{responses: []string{
		`{"valid": true, "reason": "meh", "scores": {"relevance": 0.9, "usefulness": 0.5, "non_redundancy": 0.9}}`,
	}}
	v := NewValidator(gen, 0.7, logze.Default())

	if result := v.Validate(context.Background(), testComment(), fileContent); result.Valid {
		t.Error("Valid = true, want false when usefulness below threshold")
	}
}

func TestValidatorRejectsInvalidFlag(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		`{"valid": false, "reason": "redundant", "scores": {"relevance": 0.9, "usefulness": 0.9, "non_redundancy": 0.9}}`,
	}}
	v := NewValidator(gen, 0.7, logze.Default())

	if result := v.Validate(context.Background(), testComment(), fileContent); result.Valid {
		t.Error("Valid = true, want false when judgment says invalid")
	}
}

func TestValidatorDefaultAcceptOnGarbage(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"I cannot help with that."}}
	v := NewValidator(gen, 0.7, logze.Default())

	result := v.Validate(context.Background(), testComment(), fileContent)

	if !result.Valid {
		t.Error("Valid = false, want default-accept on unparseable judgment")
	}
	if !strings.Contains(strings.ToLower(result.Reason), "parse") {
		t.Errorf("Reason = %q, want mention of parsing", result.Reason)
	}
	want := model.ValidationScores{Relevance: 0.7, Usefulness: 0.7, NonRedundancy: 0.7}
	if result.Scores != want {
		t.Errorf("Scores = %+v, want threshold defaults %+v", result.Scores, want)
	}
}

func TestValidatorStripsPromptEcho(t *testing.T) {
	// Some backends repeat the prompt before answering.
	gen := &scriptedGenerator{responses: []string{
		"You are a code review quality judge. Evaluate the following review comment.\n" +
			`{"valid": false, "reason": "not about the change", "scores": {"relevance": 0.2, "usefulness": 0.3, "non_redundancy": 0.9}}`,
	}}
	v := NewValidator(gen, 0.7, logze.Default())

	result := v.Validate(context.Background(), testComment(), fileContent)

	if result.Valid {
		t.Error("Valid = true, want false from the echoed judgment")
	}
	if result.Reason != "not about the change" {
		t.Errorf("Reason = %q, want the parsed reason", result.Reason)
	}
}

func TestValidatorRejectsOnCallError(t *testing.T) {
	gen := &scriptedGenerator{err: errm.New("backend down")}
	v := NewValidator(gen, 0.7, logze.Default())

	result := v.Validate(context.Background(), testComment(), fileContent)

	if result.Valid {
		t.Error("Valid = true, want false on model call failure")
	}
	stats := v.Stats()
	if stats.Errors != 1 || stats.Invalid != 1 {
		t.Errorf("stats = %+v, want Errors=1 Invalid=1", stats)
	}
}

func TestValidatorStats(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		`{"valid": true, "reason": "good", "scores": {"relevance": 1.0, "usefulness": 1.0, "non_redundancy": 1.0}}`,
		`{"valid": true, "reason": "weak", "scores": {"relevance": 0.5, "usefulness": 0.5, "non_redundancy": 0.5}}`,
	}}
	v := NewValidator(gen, 0.7, logze.Default())

	ctx := context.Background()
	v.Validate(ctx, testComment(), fileContent)
	v.Validate(ctx, testComment(), fileContent)

	stats := v.Stats()
	if stats.Total != 2 || stats.Valid != 1 || stats.Invalid != 1 {
		t.Errorf("stats = %+v, want Total=2 Valid=1 Invalid=1", stats)
	}
	avg := stats.AverageScores()
	if avg.Relevance != 0.75 {
		t.Errorf("average relevance = %v, want 0.75", avg.Relevance)
	}
}

func TestValidatorFilterComments(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		`{"valid": true, "reason": "ok", "scores": {"relevance": 0.9, "usefulness": 0.9, "non_redundancy": 0.9}}`,
		`{"valid": false, "reason": "noise", "scores": {"relevance": 0.1, "usefulness": 0.1, "non_redundancy": 0.1}}`,
	}}
	v := NewValidator(gen, 0.7, logze.Default())

	first := testComment()
	second := testComment()
	second.LineNumber = 12

	got := v.FilterComments(context.Background(), []*model.ReviewComment{first, second}, fileContent)

	if len(got) != 1 || got[0] != first {
		t.Fatalf("FilterComments() kept %d comments, want only the first", len(got))
	}
}

func TestBuildSnippet(t *testing.T) {
	snippet := buildSnippet(fileContent, 10)

	if !strings.Contains(snippet, ">>> 10: l10") {
		t.Errorf("snippet missing marker on line 10:\n%s", snippet)
	}
	if strings.Contains(snippet, "l4\n") || strings.Contains(snippet, "l16") {
		t.Errorf("snippet window too wide:\n%s", snippet)
	}
	if !strings.Contains(snippet, "5: l5") || !strings.Contains(snippet, "15: l15") {
		t.Errorf("snippet should span lines 5-15:\n%s", snippet)
	}
}

func TestBuildSnippetNoLine(t *testing.T) {
	long := strings.Repeat("abcdefghij", 100)
	snippet := buildSnippet(long, 0)

	if len(snippet) > 520 {
		t.Errorf("snippet length = %d, want truncated to about 500", len(snippet))
	}
}
