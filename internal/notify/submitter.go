package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmylchreest/vrnotify/internal/pixel"
)

// Submitter sends packed bitmaps to a compositor as transient notifications.
type Submitter struct {
	compositor Compositor
	ids        IDSource
	logger     *slog.Logger
	userValue  uint64
}

// NewSubmitter creates a Submitter. A nil ids falls back to a counter.
func NewSubmitter(compositor Compositor, ids IDSource, logger *slog.Logger) *Submitter {
	if logger == nil {
		logger = slog.Default()
	}
	if ids == nil {
		ids = NewCounter(1)
	}
	return &Submitter{
		compositor: compositor,
		ids:        ids,
		logger:     logger,
	}
}

// SetUserValue sets the opaque value passed along with every notification.
func (s *Submitter) SetUserValue(v uint64) {
	s.userValue = v
}

// Submit shows bitmap with message on overlay and returns the notification ID.
//
// The bitmap buffer is borrowed for the duration of the call and is neither
// copied nor modified. On error the returned ID is zero and nothing was shown.
func (s *Submitter) Submit(ctx context.Context, overlay OverlayHandle, bitmap *pixel.Bitmap, message string, style Style) (NotificationID, error) {
	if overlay == InvalidOverlay || !s.compositor.OverlayValid(overlay) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidOverlay, overlay)
	}
	if err := bitmap.Validate(); err != nil {
		return 0, Reject(ReasonMalformedBitmap, err)
	}

	req := &Request{
		Overlay:   overlay,
		UserValue: s.userValue,
		Type:      TypeTransient,
		Text:      message,
		Style:     style,
		Bitmap: &BitmapDescriptor{
			Pix:           bitmap.Pix,
			Width:         bitmap.Width,
			Height:        bitmap.Height,
			BytesPerPixel: pixel.BytesPerPixel,
		},
		ID: s.ids.NextID(),
	}

	s.logger.Debug("submitting notification",
		"overlay", overlay,
		"id", req.ID,
		"style", style,
		"width", bitmap.Width,
		"height", bitmap.Height,
	)

	if err := s.compositor.CreateNotification(ctx, req); err != nil {
		return 0, classify(err)
	}

	s.logger.Debug("notification submitted", "overlay", overlay, "id", req.ID)
	return req.ID, nil
}

// classify maps a compositor error into the submission error taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrInvalidOverlay), errors.Is(err, ErrSubmissionRejected):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Reject(ReasonTransport, err)
	default:
		return Reject(ReasonUnknown, err)
	}
}
