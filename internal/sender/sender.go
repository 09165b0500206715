// Package sender runs the decode, convert and submit pipeline for one image
// and records the outcome in the submission history.
package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jmylchreest/vrnotify/internal/imagefile"
	"github.com/jmylchreest/vrnotify/internal/model"
	"github.com/jmylchreest/vrnotify/internal/notify"
	"github.com/jmylchreest/vrnotify/internal/pixel"
	"github.com/jmylchreest/vrnotify/internal/store"
)

// Submitter is satisfied by *notify.Submitter.
type Submitter interface {
	Submit(ctx context.Context, overlay notify.OverlayHandle, bitmap *pixel.Bitmap, message string, style notify.Style) (notify.NotificationID, error)
}

// Request describes one image notification.
type Request struct {
	Overlay notify.OverlayHandle
	Path    string
	Message string
	Style   notify.Style
}

// Result describes a successful send.
type Result struct {
	NotificationID notify.NotificationID
	Width          int
	Height         int
	SourceFormat   pixel.Format
	// Bitmap is the packed buffer that was submitted.
	Bitmap *pixel.Bitmap
	// Record is the history entry written for this send, nil if none.
	Record *model.Submission
}

// Sender sends image files as notifications. History may be nil.
type Sender struct {
	Decoder   imagefile.Decoder
	Submitter Submitter
	History   store.History
	Logger    *slog.Logger
}

// New creates a Sender.
func New(dec imagefile.Decoder, sub Submitter, history store.History, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{
		Decoder:   dec,
		Submitter: sub,
		History:   history,
		Logger:    logger,
	}
}

func (s *Sender) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Send decodes req.Path, converts it and submits it on req.Overlay.
// Every attempt is recorded in History; failing to record is logged and
// never changes the returned result.
func (s *Sender) Send(ctx context.Context, req Request) (*Result, error) {
	log := s.logger().With("path", req.Path)

	rec, err := model.NewSubmission(req.Path)
	if err != nil {
		log.Warn("failed to create history record", "error", err)
	} else {
		rec.Overlay = uint64(req.Overlay)
		rec.Style = req.Style.String()
		rec.Message = req.Message
		if info, statErr := os.Stat(req.Path); statErr == nil {
			rec.ImageBytes = info.Size()
		}
	}

	raster, err := s.Decoder.Decode(req.Path)
	if err != nil {
		reason := "decode"
		if errors.Is(err, imagefile.ErrNotFound) {
			reason = "not_found"
		}
		s.record(log, rec, func(r *model.Submission) { r.SetError(model.OutcomeFailed, reason, err) })
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	log.Debug("image decoded",
		"format", raster.Format,
		"width", raster.Width,
		"height", raster.Height,
		"stride", raster.RowStride(),
	)

	bitmap, err := pixel.Convert(raster)
	if err != nil {
		s.record(log, rec, func(r *model.Submission) {
			r.SourceFormat = raster.Format.String()
			r.SetError(model.OutcomeFailed, "convert", err)
		})
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}

	fill := func(r *model.Submission) {
		r.SourceFormat = raster.Format.String()
		r.Width = bitmap.Width
		r.Height = bitmap.Height
	}

	id, err := s.Submitter.Submit(ctx, req.Overlay, bitmap, req.Message, req.Style)
	if err != nil {
		s.record(log, rec, func(r *model.Submission) {
			fill(r)
			if errors.Is(err, notify.ErrInvalidOverlay) {
				r.SetError(model.OutcomeFailed, "invalid_overlay", err)
				return
			}
			r.SetError(model.OutcomeRejected, notify.ReasonOf(err).String(), err)
		})
		return nil, fmt.Errorf("failed to submit notification: %w", err)
	}

	s.record(log, rec, func(r *model.Submission) {
		fill(r)
		r.NotificationID = uint32(id)
		r.Outcome = model.OutcomeShown
	})

	log.Info("notification shown", "id", id, "overlay", req.Overlay)

	return &Result{
		NotificationID: id,
		Width:          bitmap.Width,
		Height:         bitmap.Height,
		SourceFormat:   raster.Format,
		Bitmap:         bitmap,
		Record:         rec,
	}, nil
}

// record applies update to rec and appends it to the history.
func (s *Sender) record(log *slog.Logger, rec *model.Submission, update func(*model.Submission)) {
	if rec == nil {
		return
	}
	update(rec)
	if s.History == nil {
		return
	}
	if err := s.History.Append(*rec); err != nil {
		log.Warn("failed to record submission", "id", rec.ID, "error", err)
	}
}

// WithOverlay creates an overlay, runs fn with its handle and destroys the
// overlay afterwards. A destroy failure is returned only if fn succeeded.
func WithOverlay(mgr notify.OverlayManager, key, name string, logger *slog.Logger, fn func(notify.OverlayHandle) error) (err error) {
	if logger == nil {
		logger = slog.Default()
	}

	h, err := mgr.CreateOverlay(key, name)
	if err != nil {
		return fmt.Errorf("failed to create overlay %q: %w", key, err)
	}
	logger.Debug("overlay ready", "overlay", h, "key", key, "name", name)

	defer func() {
		if derr := mgr.DestroyOverlay(h); derr != nil {
			logger.Warn("failed to destroy overlay", "overlay", h, "error", derr)
			if err == nil {
				err = fmt.Errorf("failed to destroy overlay: %w", derr)
			}
		}
	}()

	return fn(h)
}
