package review

import (
	"path/filepath"
	"strings"

	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/revly/internal/model"
)

// FileFilter drops changes matching ignore patterns or containing binary data
type FileFilter struct {
	patterns []string
	log      logze.Logger
}

// NewFileFilter creates a filter from glob patterns
func NewFileFilter(patterns []string, log logze.Logger) *FileFilter {
	return &FileFilter{
		patterns: patterns,
		log:      log.With("component", "file_filter"),
	}
}

// ShouldReview reports whether the change is worth sending to the model
func (f *FileFilter) ShouldReview(change *model.FileChange) bool {
	if change.Status == model.StatusDeleted {
		return false
	}
	if change.IsBinary() {
		f.log.Debug("skipping binary file", "file", change.Path)
		return false
	}
	if f.matches(change.Path) {
		f.log.Debug("skipping ignored file", "file", change.Path)
		return false
	}
	return true
}

func (f *FileFilter) matches(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range f.patterns {
		if ok, err := filepath.Match(pattern, path); err == nil && ok {
			return true
		}
		if ok, err := filepath.Match(pattern, base); err == nil && ok {
			return true
		}
		// Directory patterns like "vendor/*" apply at any depth.
		if trimmed, found := strings.CutSuffix(pattern, "/*"); found {
			if strings.HasPrefix(path, trimmed+"/") || strings.Contains(path, "/"+trimmed+"/") {
				return true
			}
		}
	}
	return false
}
