package output

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/vrnotify/internal/model"
)

// PlainFormatter formats submissions as human-readable text.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// templateData is passed to custom templates.
type templateData struct {
	Index      int
	Submission *model.Submission
	Ago        string
	Size       string
}

// NewPlainFormatter creates a new plain text formatter.
// An unparsable template is ignored in favour of the default layout.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	f := &PlainFormatter{opts: opts}

	if opts.Template != "" {
		tmpl, err := template.New("plain").Funcs(templateFuncs()).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Format writes submissions as plain text.
func (f *PlainFormatter) Format(w io.Writer, submissions []model.Submission) error {
	for i := range submissions {
		if err := f.formatSubmission(w, i+1, &submissions[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *PlainFormatter) formatSubmission(w io.Writer, index int, s *model.Submission) error {
	if f.template != nil {
		data := templateData{
			Index:      index,
			Submission: s,
			Ago:        relativeTime(s.Timestamp),
			Size:       byteSize(s.ImageBytes),
		}
		return f.template.Execute(w, data)
	}

	var sb strings.Builder

	if f.opts.ShowIndex {
		fmt.Fprintf(&sb, "[%d] ", index)
	}

	fmt.Fprintf(&sb, "%-8s %s", s.Outcome, filepath.Base(s.ImagePath))

	if s.Width > 0 && s.Height > 0 {
		fmt.Fprintf(&sb, " %dx%d", s.Width, s.Height)
	}
	if s.SourceFormat != "" {
		fmt.Fprintf(&sb, " %s", s.SourceFormat)
	}
	if s.ImageBytes > 0 {
		fmt.Fprintf(&sb, " %s", byteSize(s.ImageBytes))
	}
	if s.NotificationID != 0 {
		fmt.Fprintf(&sb, " id=%d", s.NotificationID)
	}
	if f.opts.ShowTime {
		fmt.Fprintf(&sb, " (%s)", relativeTime(s.Timestamp))
	}
	sb.WriteString("\n")

	if msg := s.MessageTruncated(f.messageLimit()); msg != "" {
		sb.WriteString("    " + msg + "\n")
	}
	if s.Error != "" {
		if s.Reason != "" {
			fmt.Fprintf(&sb, "    %s: %s\n", s.Reason, s.Error)
		} else {
			sb.WriteString("    " + s.Error + "\n")
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func (f *PlainFormatter) messageLimit() int {
	if f.opts.MessageMaxLen <= 0 {
		return int(^uint(0) >> 1)
	}
	return f.opts.MessageMaxLen
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"reltime": relativeTime,
		"bytes":   byteSize,
		"base":    filepath.Base,
		"upper":   strings.ToUpper,
	}
}

// relativeTime renders a unix timestamp like "3 minutes ago".
func relativeTime(timestamp int64) string {
	if timestamp == 0 {
		return "unknown"
	}
	return humanize.Time(time.Unix(timestamp, 0))
}

func byteSize(n int64) string {
	if n <= 0 {
		return ""
	}
	return humanize.Bytes(uint64(n))
}
