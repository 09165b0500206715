// Package model defines the records vrnotify keeps about its submissions.
package model

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Outcome is the result of one send.
type Outcome string

const (
	// OutcomeShown means the compositor accepted the notification.
	OutcomeShown Outcome = "shown"
	// OutcomeRejected means the compositor or the submitter refused it.
	OutcomeRejected Outcome = "rejected"
	// OutcomeFailed means the send failed before submission (decode, convert, overlay).
	OutcomeFailed Outcome = "failed"
)

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeShown, OutcomeRejected, OutcomeFailed:
		return true
	}
	return false
}

// Submission records one attempt to show an image notification.
type Submission struct {
	ID        string `json:"id" yaml:"id"`
	Timestamp int64  `json:"timestamp" yaml:"timestamp"`

	// Source image
	ImagePath    string `json:"image_path" yaml:"image_path"`
	ImageBytes   int64  `json:"image_bytes,omitempty" yaml:"image_bytes,omitempty"`
	SourceFormat string `json:"source_format,omitempty" yaml:"source_format,omitempty"`
	Width        int    `json:"width,omitempty" yaml:"width,omitempty"`
	Height       int    `json:"height,omitempty" yaml:"height,omitempty"`

	// Notification
	Overlay        uint64 `json:"overlay,omitempty" yaml:"overlay,omitempty"`
	NotificationID uint32 `json:"notification_id,omitempty" yaml:"notification_id,omitempty"`
	Style          string `json:"style" yaml:"style"`
	Message        string `json:"message" yaml:"message"`

	Outcome Outcome `json:"outcome" yaml:"outcome"`
	Reason  string  `json:"reason,omitempty" yaml:"reason,omitempty"`
	Error   string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// Validation errors.
var (
	ErrEmptyID          = errors.New("id cannot be empty")
	ErrEmptyImagePath   = errors.New("image_path cannot be empty")
	ErrInvalidOutcome   = errors.New("outcome must be shown, rejected or failed")
	ErrInvalidTimestamp = errors.New("timestamp must be greater than 0")
)

// NewSubmission creates a Submission for imagePath with a fresh ULID.
func NewSubmission(imagePath string) (*Submission, error) {
	now := time.Now()
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ULID: %w", err)
	}

	return &Submission{
		ID:        id.String(),
		Timestamp: now.Unix(),
		ImagePath: imagePath,
	}, nil
}

// Validate checks that the submission has all required fields.
func (s *Submission) Validate() error {
	if s.ID == "" {
		return ErrEmptyID
	}
	if s.ImagePath == "" {
		return ErrEmptyImagePath
	}
	if s.Timestamp <= 0 {
		return ErrInvalidTimestamp
	}
	if !s.Outcome.Valid() {
		return ErrInvalidOutcome
	}
	return nil
}

// Succeeded reports whether the notification was shown.
func (s *Submission) Succeeded() bool {
	return s.Outcome == OutcomeShown
}

// SetError records a failed or rejected outcome with its cause.
func (s *Submission) SetError(outcome Outcome, reason string, err error) {
	s.Outcome = outcome
	s.Reason = reason
	if err != nil {
		s.Error = err.Error()
	}
}

// TimestampTime returns the timestamp as a time.Time.
func (s *Submission) TimestampTime() time.Time {
	return time.Unix(s.Timestamp, 0)
}

// ULIDTime returns the creation time encoded in the ID, or the zero time if
// the ID is not a ULID.
func (s *Submission) ULIDTime() time.Time {
	id, err := ulid.ParseStrict(s.ID)
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(id.Time())
}

// MessageTruncated returns the message on one line, cut to maxLen characters.
func (s *Submission) MessageTruncated(maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	msg := []rune(strings.Join(strings.Fields(s.Message), " "))
	if len(msg) <= maxLen {
		return string(msg)
	}
	if maxLen <= 3 {
		return string(msg[:maxLen])
	}
	return string(msg[:maxLen-3]) + "..."
}

// Clone returns a copy of the submission.
func (s *Submission) Clone() *Submission {
	c := *s
	return &c
}
