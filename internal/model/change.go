package model

import "unicode/utf8"

// FileStatus describes what happened to a file in a merge request
type FileStatus string

const (
	StatusAdded    FileStatus = "added"
	StatusModified FileStatus = "modified"
	StatusDeleted  FileStatus = "deleted"
	StatusRenamed  FileStatus = "renamed"
)

// LineType classifies a line of the new file relative to the diff
type LineType string

const (
	LineTypeAdded   LineType = "added"
	LineTypeContext LineType = "context"
	LineTypeUnknown LineType = "unknown"
)

// Hunk represents a contiguous block of changes in a unified diff,
// anchored to old- and new-file line ranges
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []string // raw diff lines with +/-/space prefixes
}

// NewEnd returns the last new-file line this hunk touches (1-based)
func (h *Hunk) NewEnd() int {
	return h.NewStart + max(0, h.NewCount) - 1
}

// FileChange represents changes in a single file.
// Values are immutable after construction; chunking produces derived
// instances with sliced content and filtered hunks.
type FileChange struct {
	Path       string
	OldPath    string // set on rename
	Status     FileStatus
	Hunks      []*Hunk
	OldContent string
	NewContent string
}

// IsBinary reports whether the file content looks like binary data
func (f *FileChange) IsBinary() bool {
	if f.NewContent == "" {
		return false
	}
	return !utf8.ValidString(f.NewContent)
}

// TotalLinesChanged returns the total number of changed lines across hunks
func (f *FileChange) TotalLinesChanged() int {
	var total int
	for _, h := range f.Hunks {
		total += h.OldCount + h.NewCount
	}
	return total
}

// GetLineType classifies a new-file line by walking the hunks.
// Hunks are assumed to be in ascending, non-overlapping order; malformed
// diffs yield LineTypeUnknown.
func (f *FileChange) GetLineType(line int) LineType {
	if line < 1 {
		return LineTypeUnknown
	}
	for _, h := range f.Hunks {
		if line < h.NewStart || line > h.NewEnd() {
			continue
		}
		current := h.NewStart
		for _, raw := range h.Lines {
			if len(raw) == 0 {
				continue
			}
			switch raw[0] {
			case '-':
				continue
			case '+':
				if current == line {
					return LineTypeAdded
				}
				current++
			default:
				if current == line {
					return LineTypeContext
				}
				current++
			}
		}
		return LineTypeUnknown
	}
	if f.NewContent != "" {
		return LineTypeContext
	}
	return LineTypeUnknown
}
