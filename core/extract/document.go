// Package extract pulls labeled numeric fields out of IQ-TREE log and report text.
package extract

import (
	"iter"
	"os"
	"strings"
)

// Document is the ordered, immutable line sequence of one log file.
type Document struct {
	name  string
	lines []string
}

// NewDocument splits text into trimmed lines.
func NewDocument(name, text string) *Document {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, strings.TrimSpace(l))
	}
	// A trailing newline is not an extra line.
	if n := len(lines); n > 0 && lines[n-1] == "" && strings.HasSuffix(text, "\n") {
		lines = lines[:n-1]
	}
	return &Document{name: name, lines: lines}
}

// ReadDocument loads a file eagerly. I/O errors are returned unchanged.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewDocument(path, string(data)), nil
}

// Name is the document source, used in error messages.
func (d *Document) Name() string { return d.name }

// Len is the number of lines.
func (d *Document) Len() int { return len(d.lines) }

// Line returns the i-th line.
func (d *Document) Line(i int) string { return d.lines[i] }

// Matching yields every line containing marker, in file order.
func (d *Document) Matching(marker string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, line := range d.lines {
			if !strings.Contains(line, marker) {
				continue
			}
			if !yield(line) {
				return
			}
		}
	}
}
