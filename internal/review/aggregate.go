package review

import (
	"fmt"
	"strings"

	"github.com/maxbolgarin/revly/internal/model"
)

// DeduplicateComments collapses exact duplicates, keeping the first
// occurrence and preserving relative order. The key covers file path,
// line anchors, severity and whitespace-normalized content.
func DeduplicateComments(comments []*model.ReviewComment) []*model.ReviewComment {
	seen := make(map[string]struct{}, len(comments))
	out := make([]*model.ReviewComment, 0, len(comments))
	for _, c := range comments {
		key := dedupKey(c)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

func dedupKey(c *model.ReviewComment) string {
	rangeKey := ""
	if c.LineRange != nil {
		rangeKey = fmt.Sprintf("%d-%d", c.LineRange.Start, c.LineRange.End)
	}
	normalized := strings.Join(strings.Fields(strings.ToLower(c.Content)), " ")
	return fmt.Sprintf("%s|%d|%s|%s|%s", c.FilePath, c.LineNumber, rangeKey, c.Severity, normalized)
}

// MergeSummaries combines per-chunk summaries: zero yields empty, one is
// returned verbatim, multiple get per-chunk headers in chunk order
func MergeSummaries(summaries []string) string {
	nonEmpty := make([]string, 0, len(summaries))
	for _, s := range summaries {
		if strings.TrimSpace(s) != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	switch len(nonEmpty) {
	case 0:
		return ""
	case 1:
		return nonEmpty[0]
	}
	parts := make([]string, 0, len(nonEmpty))
	for i, s := range nonEmpty {
		parts = append(parts, fmt.Sprintf("Chunk %d summary:\n%s", i+1, s))
	}
	return strings.Join(parts, "\n\n")
}

// ApplyCommentMode filters an aggregated result according to the mode.
// It runs after dedup and summary merging.
func ApplyCommentMode(comments []*model.ReviewComment, summary string, mode model.CommentMode) ([]*model.ReviewComment, string) {
	switch mode {
	case model.CommentModeSummary:
		return nil, summary
	case model.CommentModeInline:
		inline := make([]*model.ReviewComment, 0, len(comments))
		for _, c := range comments {
			if c.IsInline() {
				inline = append(inline, c)
			}
		}
		return inline, ""
	default:
		return comments, summary
	}
}
