package review

import (
	"strings"

	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/revly/internal/model"
)

// Chunk is a token-budgeted slice of one file with hunks filtered to its range
type Chunk struct {
	Change    *model.FileChange
	StartLine int // 1-based, inclusive
	EndLine   int // 1-based, inclusive
}

// Chunker splits oversized files into overlapping, token-budgeted chunks
type Chunker struct {
	maxContextTokens int
	overlapLines     int
	log              logze.Logger
}

// NewChunker creates a chunker, maxContextTokens of 0 disables splitting
func NewChunker(maxContextTokens, overlapLines int, log logze.Logger) *Chunker {
	return &Chunker{
		maxContextTokens: maxContextTokens,
		overlapLines:     overlapLines,
		log:              log.With("component", "chunker"),
	}
}

// EstimateTokens is a cheap token-count heuristic over raw text
func EstimateTokens(text string) int {
	return max(1, len(text)/4)
}

// ShouldSplit reports whether the change needs chunking at all
func (c *Chunker) ShouldSplit(change *model.FileChange) bool {
	if c.maxContextTokens <= 0 || change.NewContent == "" {
		return false
	}
	return EstimateTokens(change.NewContent) > c.maxContextTokens
}

// Split breaks the change's content into chunks that each fit the content
// budget. The union of chunk ranges covers every line of the file and
// consecutive chunks overlap by the configured number of lines.
func (c *Chunker) Split(change *model.FileChange) []Chunk {
	lines := strings.Split(change.NewContent, "\n")
	if change.NewContent == "" {
		return nil
	}

	budget := int(float64(c.maxContextTokens) * contentBudgetRatio)
	lineTokens := make([]int, len(lines))
	for i, line := range lines {
		lineTokens[i] = max(1, len(line)/4)
	}

	var chunks []Chunk
	start := 0
	for start < len(lines) {
		used := 0
		end := start
		for end < len(lines) && used+lineTokens[end] <= budget {
			used += lineTokens[end]
			end++
		}
		if end == start {
			// A single line exceeds the budget, force progress.
			end = min(len(lines), start+fallbackChunkLines)
		}

		chunks = append(chunks, Chunk{
			Change:    c.slice(change, lines, start+1, end),
			StartLine: start + 1,
			EndLine:   end,
		})

		start = max(end-c.overlapLines, start+1)
	}

	c.log.Debug("split file into chunks", "file", change.Path, "chunks", len(chunks))

	return chunks
}

// slice builds a derived change with sliced content and the hunks that
// intersect [startLine, endLine]
func (c *Chunker) slice(parent *model.FileChange, lines []string, startLine, endLine int) *model.FileChange {
	var hunks []*model.Hunk
	for _, h := range parent.Hunks {
		if h.NewEnd() >= startLine && h.NewStart <= endLine {
			hunks = append(hunks, h)
		}
	}
	return &model.FileChange{
		Path:       parent.Path,
		OldPath:    parent.OldPath,
		Status:     parent.Status,
		Hunks:      hunks,
		OldContent: parent.OldContent,
		NewContent: strings.Join(lines[startLine-1:endLine], "\n"),
	}
}
