// Package output provides output formatters for submission history.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/jmylchreest/vrnotify/internal/model"
)

// Formatter formats submissions for output.
type Formatter interface {
	// Format writes formatted submissions to the writer.
	Format(w io.Writer, submissions []model.Submission) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatPlain FormatType = "plain"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
	FormatIDs   FormatType = "ids"
)

// FormatTypes lists the supported formats.
func FormatTypes() []FormatType {
	return []FormatType{FormatPlain, FormatJSON, FormatYAML, FormatIDs}
}

// ParseFormatType parses a format name.
func ParseFormatType(s string) (FormatType, error) {
	f := FormatType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range FormatTypes() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q (want one of %v)", s, FormatTypes())
}

// NewFormatter creates a formatter for the specified format type.
// Unknown types fall back to plain text.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatYAML:
		return NewYAMLFormatter()
	case FormatIDs:
		return NewIDsFormatter()
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template      string // Custom text/template for plain output
	ShowIndex     bool   // Show 1-based index prefix
	ShowTime      bool   // Show relative time
	MessageMaxLen int    // Maximum message length (0 = unlimited)
	Compact       bool   // Single-line JSON
}

// DefaultFormatterOptions returns the defaults used by the CLI.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowIndex:     true,
		ShowTime:      true,
		MessageMaxLen: 80,
	}
}
