package source

import (
	"path/filepath"
	"strings"
)

// SourceFile ties script text to the name diagnostics print for it. The
// driver routes every evaluation through one of these so errors can show
// the offending line.
type SourceFile struct {
	Name    string // display name ("<eval>", "<repl>", base of Path)
	Path    string // full file path, empty for non-file sources
	Content string

	lines []string
}

// Eval wraps text handed in programmatically.
func Eval(content string) *SourceFile {
	return &SourceFile{Name: "<eval>", Content: content}
}

// Repl wraps one line of interactive input.
func Repl(content string) *SourceFile {
	return &SourceFile{Name: "<repl>", Content: content}
}

// File wraps the contents of a script file.
func File(path, content string) *SourceFile {
	return &SourceFile{Name: filepath.Base(path), Path: path, Content: content}
}

// DisplayPath is the name errors and the lexer report: the full path for
// file sources, the display name otherwise.
func (sf *SourceFile) DisplayPath() string {
	if sf.Path != "" {
		return sf.Path
	}
	return sf.Name
}

// Line returns the 1-based source line, for error excerpts.
func (sf *SourceFile) Line(n int) (string, bool) {
	if sf.lines == nil {
		sf.lines = strings.Split(sf.Content, "\n")
	}
	if n < 1 || n > len(sf.lines) {
		return "", false
	}
	return strings.TrimRight(sf.lines[n-1], "\r\n\t "), true
}
