package output

import (
	"encoding/json"
	"io"

	"github.com/jmylchreest/vrnotify/internal/model"
)

// JSONFormatter formats submissions as a JSON array.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Format writes submissions as a JSON array.
func (f *JSONFormatter) Format(w io.Writer, submissions []model.Submission) error {
	if submissions == nil {
		submissions = []model.Submission{}
	}
	encoder := json.NewEncoder(w)
	if !f.opts.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(submissions)
}
