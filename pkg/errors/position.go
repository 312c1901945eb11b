package errors

import "fmt"

// Position identifies a point in a source file.
type Position struct {
	File string // Display name of the source
	Line int    // 1-based line number
}

// Prefix renders the "<file>:<line>: " prefix used on all parse-time
// diagnostics.
func (p Position) Prefix() string {
	file := p.File
	if file == "" {
		file = "<input>"
	}
	return fmt.Sprintf("%s:%d: ", file, p.Line)
}
