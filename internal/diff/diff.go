// internal/diff/diff.go
package diff

import (
	"bytes"
	"fmt"
)

// Line represents a single line in a diff with its type and content
type Line struct {
	Type    LineType
	Content string
	Index   int // zero-based line index the comparison happened at
}

// LineType indicates whether a line was added or removed
type LineType int

const (
	Addition LineType = iota
	Deletion
)

// Result contains the full set of differing lines
type Result struct {
	Lines []Line
	Stats struct {
		Additions int
		Deletions int
	}
}

// Empty reports whether the two versions compared identical.
func (r *Result) Empty() bool {
	return len(r.Lines) == 0
}

// Engine compares a committed baseline against the current working copy.
//
// The comparison is positional: lines at equal index are compared verbatim,
// and trailing extra lines in either version are reported as pure additions
// or deletions. This is intentionally not a minimal-edit-distance diff, so
// an inserted line shifts everything after it. Known limitation.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Compare diffs oldContent (committed) against newContent (working copy).
func (e *Engine) Compare(oldContent, newContent []byte) *Result {
	oldLines := splitLines(oldContent)
	newLines := splitLines(newContent)

	result := &Result{}

	common := len(oldLines)
	if len(newLines) < common {
		common = len(newLines)
	}

	for i := 0; i < common; i++ {
		if bytes.Equal(oldLines[i], newLines[i]) {
			continue
		}
		result.Lines = append(result.Lines,
			Line{Type: Deletion, Content: string(oldLines[i]), Index: i},
			Line{Type: Addition, Content: string(newLines[i]), Index: i},
		)
	}

	for i := common; i < len(newLines); i++ {
		result.Lines = append(result.Lines, Line{Type: Addition, Content: string(newLines[i]), Index: i})
	}
	for i := common; i < len(oldLines); i++ {
		result.Lines = append(result.Lines, Line{Type: Deletion, Content: string(oldLines[i]), Index: i})
	}

	for _, line := range result.Lines {
		switch line.Type {
		case Addition:
			result.Stats.Additions++
		case Deletion:
			result.Stats.Deletions++
		}
	}

	return result
}

func splitLines(content []byte) [][]byte {
	if len(content) == 0 {
		return nil
	}
	return bytes.Split(bytes.TrimSuffix(content, []byte{'\n'}), []byte{'\n'})
}

// Format returns a string representation of the diff
func (r *Result) Format(path string) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "--- committed: %s\n", path)
	fmt.Fprintf(&buf, "+++ working:   %s\n", path)

	for _, line := range r.Lines {
		switch line.Type {
		case Addition:
			buf.WriteString("+ ")
		case Deletion:
			buf.WriteString("- ")
		}
		buf.WriteString(line.Content)
		buf.WriteString("\n")
	}

	return buf.String()
}
