package review

import (
	"regexp"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/revly/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	fencedBlockRe   = regexp.MustCompile("(?s)```(?:json)?\\s*(\\[.*?\\]|\\{.*?\"comments\".*?\\})\\s*```")
	commentsBlockRe = regexp.MustCompile(`(?s)(\{[^{}]*"comments"[^{}]*\})`)
	emptyLineRe     = regexp.MustCompile(`"line"\s*:\s*,`)
	emptySuggestRe  = regexp.MustCompile(`"suggestion"\s*:\s*(?:,|\})`)
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	bareMessageRe   = regexp.MustCompile(`("message"\s*:\s*)([A-Za-z][^",}\n]*)`)
	legacyLineRe    = regexp.MustCompile(`^\*\*Line (\d+):\*\*\s*(?:\[(\w+)\]\s*)?(.*)$`)
)

// Parser recovers structured comments and a summary from raw model output.
// It never fails: malformed input degrades to a fallback comment.
type Parser struct {
	log logze.Logger
}

// NewParser creates a response parser
func NewParser(log logze.Logger) *Parser {
	return &Parser{log: log.With("component", "parser")}
}

// rawComment mirrors the JSON shape models are asked to produce
type rawComment struct {
	File       string      `json:"file"`
	Line       interface{} `json:"line"`
	Message    string      `json:"message"`
	Suggestion *string     `json:"suggestion"`
}

type rawResponse struct {
	Comments []jsoniter.RawMessage `json:"comments"`
	Summary  string                `json:"summary"`
}

// Parse converts one raw model response into comments and an optional summary
func (p *Parser) Parse(response, filePath string) ([]*model.ReviewComment, string) {
	trimmed := strings.TrimSpace(response)
	if trimmed == "" {
		return nil, ""
	}

	items, summary, ok := p.parseJSON(trimmed)
	if !ok {
		p.log.Debug("all parse attempts failed, using fallback comment", "file", filePath)
		if summary == "" {
			summary = extractTextSummary(trimmed)
		}
		fallback := &model.ReviewComment{
			Content:  "*[Parsing error: expected JSON format]*\n\n" + trimmed,
			Severity: model.SeverityInfo,
			FilePath: filePath,
		}
		return []*model.ReviewComment{fallback}, summary
	}

	comments := make([]*model.ReviewComment, 0, len(items))
	for _, item := range items {
		comment := p.buildComment(item, filePath)
		if comment != nil {
			comments = append(comments, comment)
		}
	}
	if summary == "" {
		summary = extractTextSummary(trimmed)
	}
	return comments, summary
}

// parseJSON runs the ordered chain of extraction and repair attempts
func (p *Parser) parseJSON(text string) (items []jsoniter.RawMessage, summary string, ok bool) {
	candidates := make([]string, 0, 3)
	if m := fencedBlockRe.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1])
	}
	if seg := balancedSegment(text); seg != "" {
		candidates = append(candidates, seg)
	}
	if m := commentsBlockRe.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1])
	}

	for _, candidate := range candidates {
		if items, summary, ok = decodePayload(candidate); ok {
			return items, summary, true
		}
		repaired := repairJSON(candidate)
		if repaired != candidate {
			if items, summary, ok = decodePayload(repaired); ok {
				p.log.Debug("recovered response after repairs")
				return items, summary, true
			}
		}
	}
	return nil, "", false
}

// balancedSegment finds the first balanced {...} or [...] span
func balancedSegment(text string) string {
	start := -1
	var open, close byte
	for i := 0; i < len(text); i++ {
		if text[i] == '{' || text[i] == '[' {
			start = i
			open = text[i]
			close = '}'
			if open == '[' {
				close = ']'
			}
			break
		}
	}
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			if ch == '\\' {
				i++
			} else if ch == '"' {
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// repairJSON applies the textual fixes models commonly need
func repairJSON(text string) string {
	text = emptyLineRe.ReplaceAllString(text, `"line": null,`)
	text = emptySuggestRe.ReplaceAllStringFunc(text, func(m string) string {
		tail := m[len(m)-1:]
		if tail == "," {
			return `"suggestion": null,`
		}
		return `"suggestion": null}`
	})
	text = trailingCommaRe.ReplaceAllString(text, "$1")
	text = bareMessageRe.ReplaceAllString(text, `$1"$2"`)
	return text
}

// decodePayload parses a candidate segment as an array or a comments object
func decodePayload(candidate string) ([]jsoniter.RawMessage, string, bool) {
	candidate = strings.TrimSpace(candidate)
	if strings.HasPrefix(candidate, "[") {
		var items []jsoniter.RawMessage
		if err := json.UnmarshalFromString(candidate, &items); err != nil {
			return nil, "", false
		}
		return items, "", true
	}
	var resp rawResponse
	if err := json.UnmarshalFromString(candidate, &resp); err != nil {
		return nil, "", false
	}
	return resp.Comments, resp.Summary, true
}

// buildComment turns one parsed item into a comment, nil when rejected
func (p *Parser) buildComment(item jsoniter.RawMessage, filePath string) *model.ReviewComment {
	var raw rawComment
	if err := json.Unmarshal(item, &raw); err != nil {
		p.log.Debug("skipping non-object comment item", "file", filePath)
		return nil
	}
	line, ok := coerceLine(raw.Line)
	if !ok {
		p.log.Debug("skipping comment without a usable line", "file", filePath)
		return nil
	}

	comment := &model.ReviewComment{
		Content:    raw.Message,
		LineNumber: line,
		Severity:   inferSeverity(raw.Message),
		FilePath:   filePath,
	}
	if raw.File != "" {
		comment.FilePath = raw.File
	}
	if raw.Suggestion != nil && strings.TrimSpace(*raw.Suggestion) != "" {
		comment.Suggestion = *raw.Suggestion
	}
	return comment
}

// coerceLine accepts ints, floats and numeric strings, rejects anything < 1
func coerceLine(v interface{}) (int, bool) {
	var line int
	switch t := v.(type) {
	case float64:
		line = int(t)
	case int:
		line = t
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		line = n
	default:
		return 0, false
	}
	if line < 1 {
		return 0, false
	}
	return line, true
}

// inferSeverity scans the message text for severity keywords
func inferSeverity(message string) model.Severity {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "error") || strings.Contains(lower, "critical") || strings.Contains(lower, "bug"):
		return model.SeverityError
	case strings.Contains(lower, "warning") || strings.Contains(lower, "potential"):
		return model.SeverityWarning
	default:
		return model.SeverityInfo
	}
}

// extractTextSummary scans plain text for a summary marker and collects
// lines until the first blank one
func extractTextSummary(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		var rest string
		switch {
		case strings.HasPrefix(trimmed, "**Summary:**"):
			rest = strings.TrimSpace(strings.TrimPrefix(trimmed, "**Summary:**"))
		case strings.HasPrefix(trimmed, "Summary:"):
			rest = strings.TrimSpace(strings.TrimPrefix(trimmed, "Summary:"))
		default:
			continue
		}

		collected := make([]string, 0, 4)
		if rest != "" {
			collected = append(collected, rest)
		}
		for _, next := range lines[i+1:] {
			if strings.TrimSpace(next) == "" {
				break
			}
			collected = append(collected, strings.TrimSpace(next))
		}
		return strings.Join(collected, "\n")
	}
	return ""
}

// ParseLegacyText parses the older line-based response format:
// lines of the shape "**Line N:** [SEVERITY] message" with continuation
// lines appended to the in-progress comment
func (p *Parser) ParseLegacyText(response, filePath string) ([]*model.ReviewComment, string) {
	var (
		comments []*model.ReviewComment
		current  *model.ReviewComment
	)
	for _, line := range strings.Split(response, "\n") {
		trimmed := strings.TrimSpace(line)
		if m := legacyLineRe.FindStringSubmatch(trimmed); m != nil {
			lineNum, err := strconv.Atoi(m[1])
			if err != nil || lineNum < 1 {
				continue
			}
			severity := model.SeverityInfo
			switch strings.ToLower(m[2]) {
			case "error", "critical":
				severity = model.SeverityError
			case "warning":
				severity = model.SeverityWarning
			}
			current = &model.ReviewComment{
				Content:    m[3],
				LineNumber: lineNum,
				Severity:   severity,
				FilePath:   filePath,
			}
			comments = append(comments, current)
			continue
		}
		if current != nil && trimmed != "" && !strings.HasPrefix(trimmed, "Summary:") && !strings.HasPrefix(trimmed, "**Summary:**") {
			current.Content += "\n" + trimmed
		}
		if trimmed == "" {
			current = nil
		}
	}
	return comments, extractTextSummary(response)
}
