package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/vrnotify/internal/model"
)

// IDsFormatter outputs just the submission IDs, one per line.
type IDsFormatter struct{}

// NewIDsFormatter creates a new IDs formatter.
func NewIDsFormatter() *IDsFormatter {
	return &IDsFormatter{}
}

// Format writes submission IDs to the writer, one per line.
func (f *IDsFormatter) Format(w io.Writer, submissions []model.Submission) error {
	for _, s := range submissions {
		if _, err := fmt.Fprintln(w, s.ID); err != nil {
			return err
		}
	}
	return nil
}
