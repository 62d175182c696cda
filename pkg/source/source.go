// Package source holds script text together with the name it is reported
// under.
package source

import (
	"path/filepath"
	"strings"
)

// SourceFile is one unit of script text.
type SourceFile struct {
	Name    string // display name: "main.js", "<stdin>", "<repl>"
	Path    string // empty when the text did not come from disk
	Content string

	lines []string
}

func NewSourceFile(name, path, content string) *SourceFile {
	return &SourceFile{Name: name, Path: path, Content: content}
}

// NewEvalSource wraps text passed on the command line.
func NewEvalSource(content string) *SourceFile {
	return &SourceFile{Name: "<eval>", Content: content}
}

func NewReplSource(content string) *SourceFile {
	return &SourceFile{Name: "<repl>", Content: content}
}

func NewStdinSource(content string) *SourceFile {
	return &SourceFile{Name: "<stdin>", Content: content}
}

// FromFile names a source after the base of its path.
func FromFile(filePath, content string) *SourceFile {
	return NewSourceFile(filepath.Base(filePath), filePath, content)
}

// Lines splits the content on newlines. The result is cached.
func (sf *SourceFile) Lines() []string {
	if sf.lines == nil {
		sf.lines = strings.Split(sf.Content, "\n")
	}
	return sf.lines
}

// Line returns the 1-based line n, or "" when out of range.
func (sf *SourceFile) Line(n int) string {
	lines := sf.Lines()
	if n < 1 || n > len(lines) {
		return ""
	}
	return strings.TrimRight(lines[n-1], "\r")
}

// DisplayPath prefers the path and falls back to the name.
func (sf *SourceFile) DisplayPath() string {
	if sf.Path != "" {
		return sf.Path
	}
	return sf.Name
}

func (sf *SourceFile) IsFile() bool { return sf.Path != "" }
