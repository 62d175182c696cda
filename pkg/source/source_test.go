package source

import (
	"path/filepath"
	"testing"
)

func TestSourceNames(t *testing.T) {
	path := filepath.Join("scripts", "main.js")
	tests := []struct {
		sf          *SourceFile
		name        string
		displayPath string
		isFile      bool
	}{
		{NewEvalSource("1"), "<eval>", "<eval>", false},
		{NewReplSource("1"), "<repl>", "<repl>", false},
		{NewStdinSource("1"), "<stdin>", "<stdin>", false},
		{FromFile(path, "1"), "main.js", path, true},
	}
	for _, tt := range tests {
		if tt.sf.Name != tt.name {
			t.Errorf("expected name %q, got %q", tt.name, tt.sf.Name)
		}
		if got := tt.sf.DisplayPath(); got != tt.displayPath {
			t.Errorf("expected display path %q, got %q", tt.displayPath, got)
		}
		if got := tt.sf.IsFile(); got != tt.isFile {
			t.Errorf("%s: expected IsFile %v, got %v", tt.name, tt.isFile, got)
		}
	}
}

func TestSourceLine(t *testing.T) {
	sf := NewEvalSource("let a = 1;\r\nlet b = 2;\n")
	tests := []struct {
		n    int
		want string
	}{
		{0, ""},
		{1, "let a = 1;"},
		{2, "let b = 2;"},
		{3, ""},
		{4, ""},
	}
	for _, tt := range tests {
		if got := sf.Line(tt.n); got != tt.want {
			t.Errorf("line %d: expected %q, got %q", tt.n, tt.want, got)
		}
	}
	if n := len(sf.Lines()); n != 3 {
		t.Errorf("expected 3 lines, got %d", n)
	}
}
