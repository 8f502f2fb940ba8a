// Package diff parses unified diffs and plain files into review changes.
package diff

import (
	"os"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
	"github.com/maxbolgarin/revly/internal/model"
)

// ParseUnifiedDiff parses a unified diff into a FileChange.
// The diff is expected to describe a single file; when it contains more,
// only the first file is returned.
func ParseUnifiedDiff(content string, fallbackPath string) (*model.FileChange, error) {
	files, _, err := gitdiff.Parse(strings.NewReader(content))
	if err != nil {
		return nil, errm.Wrap(err, "failed to parse unified diff")
	}
	if len(files) == 0 {
		return nil, errm.New("no file changes found in diff")
	}

	f := files[0]
	fc := &model.FileChange{
		Path:   lang.Check(f.NewName, lang.Check(f.OldName, fallbackPath)),
		Status: fileStatus(f),
		Hunks:  convertFragments(f.TextFragments),
	}
	if f.IsRename || (f.OldName != "" && f.NewName != "" && f.OldName != f.NewName) {
		fc.OldPath = f.OldName
	}
	return fc, nil
}

// ParseHunks parses a header-less diff payload (as returned by the GitLab
// changes API) into hunks. Headers are synthesized so the parser accepts it.
func ParseHunks(diff, oldPath, newPath string) ([]*model.Hunk, error) {
	if strings.TrimSpace(diff) == "" {
		return nil, nil
	}
	if !strings.HasPrefix(diff, "--- ") && !strings.HasPrefix(diff, "diff ") {
		var b strings.Builder
		b.Grow(len(diff) + len(oldPath) + len(newPath) + 16)
		b.WriteString("--- a/")
		b.WriteString(lang.Check(oldPath, newPath))
		b.WriteString("\n+++ b/")
		b.WriteString(lang.Check(newPath, oldPath))
		b.WriteString("\n")
		b.WriteString(diff)
		diff = b.String()
	}

	files, _, err := gitdiff.Parse(strings.NewReader(diff))
	if err != nil {
		return nil, errm.Wrap(err, "failed to parse diff payload")
	}
	if len(files) == 0 {
		return nil, nil
	}
	return convertFragments(files[0].TextFragments), nil
}

// ParseFileOrDiff reads a local path and parses it as a unified diff when it
// looks like one, otherwise as a plain file treated as newly added.
func ParseFileOrDiff(path string) (*model.FileChange, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errm.Wrap(err, "failed to read file")
	}

	content := string(raw)
	if strings.HasPrefix(content, "--- ") || strings.HasPrefix(content, "+++ ") || strings.HasPrefix(content, "diff --git") {
		return ParseUnifiedDiff(content, path)
	}

	return &model.FileChange{
		Path:       path,
		Status:     model.StatusAdded,
		NewContent: content,
	}, nil
}

func fileStatus(f *gitdiff.File) model.FileStatus {
	switch {
	case f.IsNew:
		return model.StatusAdded
	case f.IsDelete:
		return model.StatusDeleted
	case f.IsRename:
		return model.StatusRenamed
	default:
		return model.StatusModified
	}
}

func convertFragments(fragments []*gitdiff.TextFragment) []*model.Hunk {
	var hunks []*model.Hunk
	for _, frag := range fragments {
		h := &model.Hunk{
			OldStart: int(frag.OldPosition),
			OldCount: int(frag.OldLines),
			NewStart: int(frag.NewPosition),
			NewCount: int(frag.NewLines),
		}
		for _, line := range frag.Lines {
			h.Lines = append(h.Lines, line.Op.String()+strings.TrimSuffix(line.Line, "\n"))
		}
		hunks = append(hunks, h)
	}
	return hunks
}
