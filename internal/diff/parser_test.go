package diff

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/maxbolgarin/revly/internal/model"
)

const sampleDiff = `--- a/pkg/server.go
+++ b/pkg/server.go
@@ -10,4 +10,5 @@ func main() {
 	srv := newServer()
-	srv.Run()
+	if err := srv.Run(); err != nil {
+		log.Fatal(err)
+	}
 }
`

func TestParseUnifiedDiff(t *testing.T) {
	fc, err := ParseUnifiedDiff(sampleDiff, "")
	if err != nil {
		t.Fatalf("ParseUnifiedDiff() error: %v", err)
	}

	if fc.Path != "pkg/server.go" {
		t.Errorf("Path = %q, want pkg/server.go", fc.Path)
	}
	if fc.Status != model.StatusModified {
		t.Errorf("Status = %q, want modified", fc.Status)
	}
	if len(fc.Hunks) != 1 {
		t.Fatalf("got %d hunks, want 1", len(fc.Hunks))
	}

	h := fc.Hunks[0]
	if h.NewStart != 10 || h.NewCount != 5 {
		t.Errorf("hunk new range = %d,%d, want 10,5", h.NewStart, h.NewCount)
	}
	if h.OldStart != 10 || h.OldCount != 4 {
		t.Errorf("hunk old range = %d,%d, want 10,4", h.OldStart, h.OldCount)
	}
	if h.NewEnd() != 14 {
		t.Errorf("NewEnd() = %d, want 14", h.NewEnd())
	}

	wantLines := []string{
		" \tsrv := newServer()",
		"-\tsrv.Run()",
		"+\tif err := srv.Run(); err != nil {",
		"+\t\tlog.Fatal(err)",
		"+\t}",
		" }",
	}
	if len(h.Lines) != len(wantLines) {
		t.Fatalf("got %d hunk lines, want %d", len(h.Lines), len(wantLines))
	}
	for i, want := range wantLines {
		if h.Lines[i] != want {
			t.Errorf("line %d = %q, want %q", i, h.Lines[i], want)
		}
	}
}

func TestParseUnifiedDiffEmpty(t *testing.T) {
	if _, err := ParseUnifiedDiff("", "a.go"); err == nil {
		t.Error("ParseUnifiedDiff(empty) should fail")
	}
}

func TestParseHunksSynthesizesHeaders(t *testing.T) {
	payload := "@@ -1,2 +1,3 @@\n context\n+added\n context\n"

	hunks, err := ParseHunks(payload, "a.go", "a.go")
	if err != nil {
		t.Fatalf("ParseHunks() error: %v", err)
	}
	if len(hunks) != 1 {
		t.Fatalf("got %d hunks, want 1", len(hunks))
	}
	if hunks[0].NewStart != 1 || hunks[0].NewCount != 3 {
		t.Errorf("hunk new range = %d,%d, want 1,3", hunks[0].NewStart, hunks[0].NewCount)
	}
}

func TestParseHunksEmpty(t *testing.T) {
	hunks, err := ParseHunks("", "a.go", "a.go")
	if err != nil || hunks != nil {
		t.Errorf("ParseHunks(empty) = %v, %v, want nil, nil", hunks, err)
	}
}

func TestParseFileOrDiffPlainFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "handler.go")
	content := "package handler\n\nfunc Do() {}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	fc, err := ParseFileOrDiff(path)
	if err != nil {
		t.Fatalf("ParseFileOrDiff() error: %v", err)
	}
	if fc.Status != model.StatusAdded {
		t.Errorf("Status = %q, want added", fc.Status)
	}
	if fc.NewContent != content {
		t.Errorf("NewContent = %q, want the file content", fc.NewContent)
	}
	if len(fc.Hunks) != 0 {
		t.Errorf("got %d hunks, want 0 for a plain file", len(fc.Hunks))
	}
}

func TestParseFileOrDiffDetectsDiff(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "change.diff")
	if err := os.WriteFile(path, []byte(sampleDiff), 0o644); err != nil {
		t.Fatal(err)
	}

	fc, err := ParseFileOrDiff(path)
	if err != nil {
		t.Fatalf("ParseFileOrDiff() error: %v", err)
	}
	if fc.Path != "pkg/server.go" {
		t.Errorf("Path = %q, want path from diff headers", fc.Path)
	}
	if len(fc.Hunks) != 1 {
		t.Errorf("got %d hunks, want 1", len(fc.Hunks))
	}
}

func TestParseFileOrDiffMissing(t *testing.T) {
	if _, err := ParseFileOrDiff("/does/not/exist"); err == nil {
		t.Error("ParseFileOrDiff(missing) should fail")
	}
}
