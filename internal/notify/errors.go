package notify

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOverlay is returned when the overlay handle is not live.
	ErrInvalidOverlay = errors.New("invalid overlay handle")
	// ErrSubmissionRejected is returned when the compositor refuses a notification.
	ErrSubmissionRejected = errors.New("notification rejected")
)

// RejectReason says why a submission was refused.
type RejectReason int

const (
	ReasonUnknown RejectReason = iota
	ReasonMalformedBitmap
	ReasonOverlayHidden
	ReasonRateLimited
	ReasonDuplicateID
	ReasonTransport
)

// String returns the reason name.
func (r RejectReason) String() string {
	switch r {
	case ReasonMalformedBitmap:
		return "malformed_bitmap"
	case ReasonOverlayHidden:
		return "overlay_hidden"
	case ReasonRateLimited:
		return "rate_limited"
	case ReasonDuplicateID:
		return "duplicate_id"
	case ReasonTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// RejectedError carries the rejection reason and its cause.
// It matches ErrSubmissionRejected with errors.Is.
type RejectedError struct {
	Reason RejectReason
	Err    error
}

// Reject builds a *RejectedError.
func Reject(reason RejectReason, err error) *RejectedError {
	return &RejectedError{Reason: reason, Err: err}
}

func (e *RejectedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrSubmissionRejected, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", ErrSubmissionRejected, e.Reason, e.Err)
}

func (e *RejectedError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSubmissionRejected}
	}
	return []error{ErrSubmissionRejected, e.Err}
}

// ReasonOf returns the rejection reason carried by err, or ReasonUnknown.
func ReasonOf(err error) RejectReason {
	var re *RejectedError
	if errors.As(err, &re) {
		return re.Reason
	}
	return ReasonUnknown
}
