package corpus

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "pandoc anchors removed",
			input:    "## Configuration {#config-section}\n\nBody.",
			expected: "## Configuration \n\nBody.",
		},
		{
			name:     "headerlink artifacts removed",
			input:    "See the headerlink for details.",
			expected: "See the for details.",
		},
		{
			name:     "excessive blank lines collapsed",
			input:    "one\n\n\n\ntwo",
			expected: "one\n\ntwo",
		},
		{
			name:     "space runs collapsed",
			input:    "a  b\t\tc",
			expected: "a b c",
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    "\n\ntext\n\n",
			expected: "text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.expected {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestOutline(t *testing.T) {
	text := "# Title\n\nIntro paragraph.\n\n## Section A\n\nBody A.\n\n### Deep\n\nBody deep."
	outline := Outline([]byte(text))

	if len(outline) != 3 {
		t.Fatalf("Outline() returned %d headings, want 3", len(outline))
	}

	wantTitles := []string{"Title", "Section A", "Deep"}
	wantLevels := []int{1, 2, 3}
	for i, h := range outline {
		if h.Title != wantTitles[i] {
			t.Errorf("Outline()[%d].Title = %q, want %q", i, h.Title, wantTitles[i])
		}
		if h.Level != wantLevels[i] {
			t.Errorf("Outline()[%d].Level = %d, want %d", i, h.Level, wantLevels[i])
		}
		if text[h.Offset] != '#' {
			t.Errorf("Outline()[%d].Offset = %d, does not point at a heading line", i, h.Offset)
		}
		if i > 0 && h.Offset <= outline[i-1].Offset {
			t.Errorf("Outline() offsets not strictly increasing at %d", i)
		}
	}
}

func TestOutlineEmpty(t *testing.T) {
	if outline := Outline(nil); outline != nil {
		t.Errorf("Outline(nil) = %v, want nil", outline)
	}
	if outline := Outline([]byte("plain text without headings")); len(outline) != 0 {
		t.Errorf("Outline() = %v, want empty", outline)
	}
}

func TestPrepare(t *testing.T) {
	doc := Prepare("guide/setup.md", []byte("# Setup {#setup}\n\nInstall   it.\n"))

	if doc.SourcePath != "guide/setup.md" {
		t.Errorf("Prepare() SourcePath = %q", doc.SourcePath)
	}
	if strings.Contains(doc.Text, "{#setup}") {
		t.Error("Prepare() should clean anchors before building the outline")
	}
	if len(doc.Outline) != 1 || doc.Outline[0].Title != "Setup" {
		t.Errorf("Prepare() Outline = %v, want single Setup heading", doc.Outline)
	}
}

func TestLoadDir(t *testing.T) {
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "b.md"), "# Beta\n\nBeta body.")
	writeFile(t, filepath.Join(root, "a.md"), "# Alpha\n\nAlpha body.")
	writeFile(t, filepath.Join(root, "notes.txt"), "not markdown")
	if err := os.MkdirAll(filepath.Join(root, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(root, "sub", "c.md"), "# Gamma\n\nGamma body.")

	docs, err := LoadDir(context.Background(), root)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}

	wantPaths := []string{"a.md", "b.md", "sub/c.md"}
	if len(docs) != len(wantPaths) {
		t.Fatalf("LoadDir() returned %d documents, want %d", len(docs), len(wantPaths))
	}
	for i, want := range wantPaths {
		if docs[i].SourcePath != want {
			t.Errorf("LoadDir() docs[%d].SourcePath = %q, want %q", i, docs[i].SourcePath, want)
		}
	}
}

func TestLoadDirMissingRoot(t *testing.T) {
	if _, err := LoadDir(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("LoadDir() expected error for missing root")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
