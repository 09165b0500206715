package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/vrnotify/internal/model"
)

// YAMLFormatter formats submissions as a YAML sequence.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Format writes submissions as YAML.
func (f *YAMLFormatter) Format(w io.Writer, submissions []model.Submission) error {
	if submissions == nil {
		submissions = []model.Submission{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(submissions); err != nil {
		return err
	}
	return enc.Close()
}
